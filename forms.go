package opinions

import (
	"errors"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/views"
)

// fieldErrors converts ozzo validation errors to per-field messages. Any
// other error is returned unchanged.
func fieldErrors(err error) (views.FieldErrors, error) {
	if err == nil {
		return nil, nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := make(views.FieldErrors, len(verrs))
	for field, e := range verrs {
		if e != nil {
			out[field] = e.Error()
		}
	}
	return out, nil
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func bindLogin(c echo.Context) loginInput {
	return loginInput{
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
	}
}

func (in loginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required.Error("Email is required")),
		validation.Field(&in.Password, validation.Required.Error("Password is required")),
	)
}

type reviewInput struct {
	Rating  int    `json:"rating"`
	Content string `json:"content"`
	Name    string `json:"name"`
}

func bindReview(c echo.Context) reviewInput {
	rating, _ := strconv.Atoi(c.FormValue("rating"))
	return reviewInput{
		Rating:  rating,
		Content: strings.TrimSpace(c.FormValue("content")),
		Name:    strings.TrimSpace(c.FormValue("name")),
	}
}

func (in reviewInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Rating,
			validation.Required.Error("Please select a rating for this book."),
			validation.Min(1).Error("Please select a rating for this book."),
			validation.Max(5).Error("Please select a rating for this book."),
		),
		validation.Field(&in.Content, validation.Required.Error("Please write a review for this book.")),
		validation.Field(&in.Name,
			validation.Required.Error("Please enter your name to submit a review."),
			validation.RuneLength(0, 100),
		),
	)
}

func (in reviewInput) form() views.ReviewForm {
	return views.ReviewForm{Rating: in.Rating, Content: in.Content, Name: in.Name}
}

func (in reviewInput) review(bookID string) model.Review {
	return model.Review{BookID: bookID, Rating: in.Rating, Content: in.Content, Name: in.Name}
}

type postInput struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Content         string `json:"content"`
	Status          string `json:"status"`
	Category        string `json:"category"`
	ImageURL        string `json:"image_url"`
	MetaDescription string `json:"meta_description"`
	MetaKeywords    string `json:"meta_keywords"`
}

// bindPost reads the post form. An empty slug is derived from the title.
func bindPost(c echo.Context) postInput {
	in := postInput{
		Title:           strings.TrimSpace(c.FormValue("title")),
		Slug:            strings.TrimSpace(c.FormValue("slug")),
		Content:         c.FormValue("content"),
		Status:          string(model.ParseStatus(c.FormValue("status"))),
		Category:        strings.TrimSpace(c.FormValue("category")),
		ImageURL:        strings.TrimSpace(c.FormValue("image_url")),
		MetaDescription: strings.TrimSpace(c.FormValue("meta_description")),
		MetaKeywords:    strings.TrimSpace(c.FormValue("meta_keywords")),
	}
	if in.Slug == "" {
		in.Slug = Slugify(in.Title)
	}
	return in
}

func (in postInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required.Error("Title is required"),
			validation.RuneLength(0, 200),
		),
		validation.Field(&in.Slug, validation.Required.Error("Slug is required. Add a title or slug.")),
		validation.Field(&in.Content, validation.Required.Error("Content is required")),
		validation.Field(&in.Status, validation.In(string(model.StatusDraft), string(model.StatusPublished))),
		validation.Field(&in.MetaDescription, validation.RuneLength(0, 160).Error("Keep the meta description under 160 characters")),
	)
}

// apply copies the input over p, keeping identity and timestamps.
func (in postInput) apply(p model.Post) model.Post {
	p.Title = in.Title
	p.Slug = in.Slug
	p.Content = in.Content
	p.Status = model.Status(in.Status)
	p.Category = in.Category
	p.ImageURL = in.ImageURL
	p.MetaDescription = in.MetaDescription
	p.MetaKeywords = in.MetaKeywords
	return p
}

type bookInput struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	IsMarkdown  bool   `json:"is_markdown"`
	CoverURL    string `json:"cover_url"`
	DownloadURL string `json:"download_url"`
}

func bindBook(c echo.Context) bookInput {
	markdown, _ := strconv.ParseBool(c.FormValue("is_markdown"))
	return bookInput{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Author:      strings.TrimSpace(c.FormValue("author")),
		Description: c.FormValue("description"),
		IsMarkdown:  markdown,
		CoverURL:    strings.TrimSpace(c.FormValue("cover_url")),
		DownloadURL: strings.TrimSpace(c.FormValue("download_url")),
	}
}

func (in bookInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required.Error("Title is required")),
		validation.Field(&in.Author, validation.Required.Error("Author is required")),
		validation.Field(&in.CoverURL, validation.Required.Error("Cover image is required")),
	)
}

func (in bookInput) apply(b model.Book) model.Book {
	b.Title = in.Title
	b.Author = in.Author
	b.Description = in.Description
	b.IsMarkdown = in.IsMarkdown
	b.CoverURL = in.CoverURL
	b.DownloadURL = in.DownloadURL
	return b
}

type categoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func bindCategory(c echo.Context) categoryInput {
	return categoryInput{
		Name:        strings.TrimSpace(c.FormValue("name")),
		Description: strings.TrimSpace(c.FormValue("description")),
	}
}

func (in categoryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.Required.Error("Category name is required"),
			validation.RuneLength(0, 60),
		),
	)
}

func (in categoryInput) apply(cat model.Category) model.Category {
	cat.Name = in.Name
	cat.Description = in.Description
	return cat
}
