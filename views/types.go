package views

import (
	"github.com/eringen/opinions/content"
	"github.com/eringen/opinions/model"
)

// Site holds site-wide settings. Every page carries it so nothing is
// hardcoded in templates.
type Site struct {
	Name         string
	URL          string
	Description  string
	Author       string
	ContactEmail string // contact button on the about page, hidden when empty
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string // already suffixed with the site name
	Description string
	Keywords    string
	URL         string // canonical + og:url
	Image       string
	OGType      string // "website" or "article"

	PublishedTime string
	Author        string
	Section       string

	JSONLD string
}

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is a one-shot message shown at the top of the next rendered page.
type Notice struct {
	Kind string
	Text string
}

// Page is the chrome shared by every view.
type Page struct {
	Site    Site
	Meta    PageMeta
	Notices []Notice
	CSRF    string
	Admin   bool
}

// FieldErrors maps a form field to its validation message.
type FieldErrors map[string]string

func (e FieldErrors) Get(field string) string {
	return e[field]
}

type LoginForm struct {
	Email  string
	Errors FieldErrors
}

type ReviewForm struct {
	Rating  int
	Content string
	Name    string
	Errors  FieldErrors
}

type PostForm struct {
	Post       model.Post
	Categories []model.Category
	Images     []model.Image
	Errors     FieldErrors
}

func (f PostForm) IsNew() bool { return f.Post.ID == "" }

// Action is where the form posts: the collection for new posts, the post otherwise.
func (f PostForm) Action() string {
	if f.IsNew() {
		return "/admin/posts/"
	}
	return adminPath("posts", f.Post.ID)
}

type BookForm struct {
	Book   model.Book
	Images []model.Image
	Errors FieldErrors
}

func (f BookForm) IsNew() bool { return f.Book.ID == "" }

func (f BookForm) Action() string {
	if f.IsNew() {
		return "/admin/books/"
	}
	return adminPath("books", f.Book.ID)
}

type CategoryForm struct {
	Category model.Category
	Errors   FieldErrors
}

func (f CategoryForm) IsNew() bool { return f.Category.ID == "" }

func (f CategoryForm) Action() string {
	if f.IsNew() {
		return "/admin/categories/"
	}
	return adminPath("categories", f.Category.ID)
}

// Dashboard tabs.
const (
	TabPosts      = "posts"
	TabBooks      = "books"
	TabCategories = "categories"
)

// Dashboard is the admin landing page.
type Dashboard struct {
	Tab         string
	Stats       model.Stats
	Posts       []content.PostView
	Books       []content.BookView
	Categories  []model.Category
	NewPost     PostForm
	NewBook     BookForm
	NewCategory CategoryForm
}
