package opinions

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/views"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
)

// processImage decodes an image from src, shrinks it to maxImageWidth when
// wider, and encodes it as JPEG. It returns the metadata and encoded bytes.
func processImage(src io.Reader, originalName string) (model.Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return model.Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return model.Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	name := slugifyFilename(originalName)
	if name == "" {
		name = "image"
	}

	return model.Image{
		Filename:     name + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   time.Now().UTC(),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	return Slugify(strings.TrimSuffix(filepath.Base(name), ext))
}

// uniqueFilename appends a counter until the name is free both on disk and
// in the image table.
func (a *App) uniqueFilename(ctx context.Context, filename string) (string, error) {
	base := strings.TrimSuffix(filename, ".jpg")
	candidate := filename
	for counter := 2; ; counter++ {
		_, statErr := os.Stat(filepath.Join(a.Config.UploadDir, candidate))
		exists, err := a.Store.ImageExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if statErr != nil && !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
}

func (a *App) handleImageUpload(c echo.Context) error {
	ctx := c.Request().Context()

	file, err := c.FormFile("image")
	if err != nil {
		return a.renderImageList(c, http.StatusBadRequest, errorNotice("No image file provided"))
	}
	if file.Size > maxUploadSize {
		return a.renderImageList(c, http.StatusBadRequest, errorNotice("File too large (max 10MB)"))
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(src, file.Filename)
	if err != nil {
		return a.renderImageList(c, http.StatusBadRequest, errorNotice("Invalid image: "+err.Error()))
	}

	if img.Filename, err = a.uniqueFilename(ctx, img.Filename); err != nil {
		return err
	}

	if err := os.MkdirAll(a.Config.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	path := filepath.Join(a.Config.UploadDir, img.Filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	if err := a.Store.SaveImage(ctx, img); err != nil {
		_ = os.Remove(path)
		return err
	}

	c.Logger().Infof("image %s uploaded (%dx%d, %d bytes)", img.Filename, img.Width, img.Height, img.Size)
	flash(c, views.NoticeSuccess, "Image uploaded: /uploads/"+img.Filename)
	return c.Redirect(http.StatusSeeOther, "/admin/images/")
}

func (a *App) handleImageDelete(c echo.Context) error {
	filename := filepath.Base(c.Param("filename"))
	if filename == "" || filename == "." || filename == "/" {
		return a.renderImageList(c, http.StatusBadRequest, errorNotice("Filename required"))
	}

	// A file already gone from disk still has its row removed.
	_ = os.Remove(filepath.Join(a.Config.UploadDir, filename))

	if err := a.Store.DeleteImage(c.Request().Context(), filename); err != nil {
		return err
	}

	flash(c, views.NoticeSuccess, "Image deleted")
	return c.Redirect(http.StatusSeeOther, "/admin/images/")
}

func (a *App) handleImageList(c echo.Context) error {
	return a.renderImageList(c, http.StatusOK)
}

func (a *App) renderImageList(c echo.Context, code int, notices ...views.Notice) error {
	images, err := a.Store.ListImages(c.Request().Context())
	if err != nil {
		return err
	}
	p := a.page(c, a.PageMeta("Images", "", "admin/images"), notices...)
	return RenderStatus(c, code, a.Views.AdminImages(p, images))
}
