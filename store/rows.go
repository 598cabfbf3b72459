package store

import (
	"github.com/uptrace/bun"

	"github.com/eringen/opinions/model"
)

// Timestamps are stored as fixed-width UTC text in both dialects.

type postRow struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID              string `bun:"id,pk"`
	Title           string `bun:"title,notnull"`
	Content         string `bun:"content,notnull,type:text"`
	Status          string `bun:"status,notnull"`
	Category        string `bun:"category,notnull"`
	ImageURL        string `bun:"image_url,notnull"`
	Slug            string `bun:"slug,notnull"`
	MetaDescription string `bun:"meta_description,notnull"`
	MetaKeywords    string `bun:"meta_keywords,notnull"`
	AuthorID        string `bun:"author_id,notnull"`
	CreatedAt       string `bun:"created_at,notnull"`
	UpdatedAt       string `bun:"updated_at,notnull"`
}

func newPostRow(p model.Post) *postRow {
	return &postRow{
		ID:              p.ID,
		Title:           p.Title,
		Content:         p.Content,
		Status:          string(p.Status),
		Category:        p.Category,
		ImageURL:        p.ImageURL,
		Slug:            p.Slug,
		MetaDescription: p.MetaDescription,
		MetaKeywords:    p.MetaKeywords,
		AuthorID:        p.AuthorID,
		CreatedAt:       encodeTime(p.CreatedAt),
		UpdatedAt:       encodeTime(p.UpdatedAt),
	}
}

func (r *postRow) post() model.Post {
	return model.Post{
		ID:              r.ID,
		Title:           r.Title,
		Content:         r.Content,
		Status:          model.Status(r.Status),
		Category:        r.Category,
		ImageURL:        r.ImageURL,
		Slug:            r.Slug,
		MetaDescription: r.MetaDescription,
		MetaKeywords:    r.MetaKeywords,
		AuthorID:        r.AuthorID,
		CreatedAt:       decodeTime(r.CreatedAt),
		UpdatedAt:       decodeTime(r.UpdatedAt),
	}
}

type bookRow struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID          string `bun:"id,pk"`
	Title       string `bun:"title,notnull"`
	Author      string `bun:"author,notnull"`
	Description string `bun:"description,notnull,type:text"`
	IsMarkdown  bool   `bun:"is_markdown,notnull"`
	CoverURL    string `bun:"cover_url,notnull"`
	DownloadURL string `bun:"download_url,notnull"`
	CreatedBy   string `bun:"created_by,notnull"`
	CreatedAt   string `bun:"created_at,notnull"`
}

func newBookRow(b model.Book) *bookRow {
	return &bookRow{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		IsMarkdown:  b.IsMarkdown,
		CoverURL:    b.CoverURL,
		DownloadURL: b.DownloadURL,
		CreatedBy:   b.CreatedBy,
		CreatedAt:   encodeTime(b.CreatedAt),
	}
}

func (r *bookRow) book() model.Book {
	return model.Book{
		ID:          r.ID,
		Title:       r.Title,
		Author:      r.Author,
		Description: r.Description,
		IsMarkdown:  r.IsMarkdown,
		CoverURL:    r.CoverURL,
		DownloadURL: r.DownloadURL,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   decodeTime(r.CreatedAt),
	}
}

type categoryRow struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID          string `bun:"id,pk"`
	Name        string `bun:"name,notnull,unique"`
	Description string `bun:"description,notnull"`
	CreatedAt   string `bun:"created_at,notnull"`
}

func (r *categoryRow) category() model.Category {
	return model.Category{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   decodeTime(r.CreatedAt),
	}
}

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string `bun:"id,pk"`
	Email        string `bun:"email,notnull,unique"`
	PasswordHash string `bun:"password_hash,notnull"`
	CreatedAt    string `bun:"created_at,notnull"`
}

func (r *userRow) user() model.User {
	return model.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    decodeTime(r.CreatedAt),
	}
}

type profileRow struct {
	bun.BaseModel `bun:"table:profiles,alias:pr"`

	ID        string `bun:"id,pk"`
	Email     string `bun:"email,notnull"`
	FullName  string `bun:"full_name,notnull"`
	AvatarURL string `bun:"avatar_url,notnull"`
}

type roleGrantRow struct {
	bun.BaseModel `bun:"table:role_grants,alias:rg"`

	UserID string `bun:"user_id,pk"`
	Role   string `bun:"role,pk"`
}

type reviewRow struct {
	bun.BaseModel `bun:"table:reviews,alias:r"`

	ID        string `bun:"id,pk"`
	BookID    string `bun:"book_id,notnull"`
	Rating    int    `bun:"rating,notnull"`
	Content   string `bun:"content,notnull,type:text"`
	Name      string `bun:"name,notnull"`
	UserID    string `bun:"user_id,notnull"`
	CreatedAt string `bun:"created_at,notnull"`
}

func (r *reviewRow) review() model.Review {
	return model.Review{
		ID:        r.ID,
		BookID:    r.BookID,
		Rating:    r.Rating,
		Content:   r.Content,
		Name:      r.Name,
		UserID:    r.UserID,
		CreatedAt: decodeTime(r.CreatedAt),
	}
}

type imageRow struct {
	bun.BaseModel `bun:"table:images,alias:i"`

	Filename     string `bun:"filename,pk"`
	OriginalName string `bun:"original_name,notnull"`
	Width        int    `bun:"width,notnull"`
	Height       int    `bun:"height,notnull"`
	Size         int    `bun:"size,notnull"`
	UploadedAt   string `bun:"uploaded_at,notnull"`
}

func (r *imageRow) image() model.Image {
	return model.Image{
		Filename:     r.Filename,
		OriginalName: r.OriginalName,
		Width:        r.Width,
		Height:       r.Height,
		Size:         r.Size,
		UploadedAt:   decodeTime(r.UploadedAt),
	}
}
