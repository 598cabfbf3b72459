// Package model holds the entities stored by opinions and shared by the
// store, resolver and HTTP layers.
package model

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("model: not found")
	ErrCategoryInUse = errors.New("model: category is in use by posts")
	ErrSlugExists    = errors.New("model: slug already exists")
	ErrNameExists    = errors.New("model: name already exists")
	ErrEmailExists   = errors.New("model: email already registered")
)

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// ParseStatus maps form input to a Status. Anything other than "published"
// is a draft.
func ParseStatus(s string) Status {
	if Status(s) == StatusPublished {
		return StatusPublished
	}
	return StatusDraft
}

// Post is an article. Only published posts are visible to visitors.
type Post struct {
	ID              string
	Title           string
	Content         string
	Status          Status
	Category        string
	ImageURL        string
	Slug            string
	MetaDescription string
	MetaKeywords    string
	AuthorID        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Published reports whether the post may be shown publicly.
func (p Post) Published() bool {
	return p.Status == StatusPublished
}

// DefaultDownloadURL is stored when a book has no download link.
const DefaultDownloadURL = "#"

// Book is a recommended book.
type Book struct {
	ID          string
	Title       string
	Author      string
	Description string
	IsMarkdown  bool
	CoverURL    string
	DownloadURL string
	CreatedBy   string
	CreatedAt   time.Time
}

// Category groups posts by name. Posts reference the name, not the id.
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// User carries login credentials.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is the public face of a user.
type Profile struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL string
}

// DisplayName prefers the full name and falls back to the email.
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}

// RoleGrant associates a user with a named permission level.
type RoleGrant struct {
	UserID string
	Role   string
}

// Review is a reader's rating of a book.
type Review struct {
	ID        string
	BookID    string
	Rating    int
	Content   string
	Name      string
	UserID    string
	CreatedAt time.Time
}

// Stats summarizes the dashboard counters.
type Stats struct {
	Published  int
	Drafts     int
	Books      int
	Categories int
}

// Image is an uploaded picture kept in the local image library.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   time.Time
}
