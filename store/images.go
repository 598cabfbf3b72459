package store

import (
	"context"

	"github.com/eringen/opinions/model"
)

// ListImages returns uploaded images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]model.Image, error) {
	var rows []imageRow
	if err := s.db.NewSelect().Model(&rows).Order("uploaded_at DESC").Scan(ctx); err != nil {
		return nil, s.wrap("list images", err)
	}
	images := make([]model.Image, len(rows))
	for i := range rows {
		images[i] = rows[i].image()
	}
	return images, nil
}

// ImageExists reports whether filename is already recorded.
func (s *Store) ImageExists(ctx context.Context, filename string) (bool, error) {
	n, err := s.db.NewSelect().Model((*imageRow)(nil)).Where("filename = ?", filename).Count(ctx)
	if err != nil {
		return false, s.wrap("image exists", err)
	}
	return n > 0, nil
}

// SaveImage records the metadata of an uploaded image.
func (s *Store) SaveImage(ctx context.Context, img model.Image) error {
	img.UploadedAt = s.stamp(img.UploadedAt)
	row := &imageRow{
		Filename:     img.Filename,
		OriginalName: img.OriginalName,
		Width:        img.Width,
		Height:       img.Height,
		Size:         img.Size,
		UploadedAt:   encodeTime(img.UploadedAt),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return s.wrap("save image", err)
	}
	return nil
}

// DeleteImage removes the metadata of an image.
func (s *Store) DeleteImage(ctx context.Context, filename string) error {
	if _, err := s.db.NewDelete().Model((*imageRow)(nil)).Where("filename = ?", filename).Exec(ctx); err != nil {
		return s.wrap("delete image", err)
	}
	return nil
}
