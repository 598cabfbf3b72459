package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/opinions/content"
	"github.com/eringen/opinions/model"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func testPage(title string) Page {
	return Page{
		Site: Site{Name: "Opinions", URL: "https://example.test", Author: "Jane"},
		Meta: PageMeta{Title: title, Description: "A blog", OGType: "website", URL: "https://example.test/"},
		CSRF: "tok",
	}
}

func TestLayoutHead(t *testing.T) {
	p := testPage("Hello | Opinions")
	p.Meta.JSONLD = `{"@type":"WebSite"}`
	p.Notices = []Notice{{Kind: NoticeSuccess, Text: "Saved"}}
	out := renderString(t, NotFound(p))

	assert.Contains(t, out, "<title>Hello | Opinions</title>")
	assert.Contains(t, out, `<meta name="description" content="A blog">`)
	assert.Contains(t, out, `<link rel="canonical" href="https://example.test/">`)
	assert.Contains(t, out, `<script type="application/ld+json">{"@type":"WebSite"}`)
	assert.Contains(t, out, `class="notice notice-success"`)
	assert.Contains(t, out, "Saved")
	assert.NotContains(t, out, "Log out")
}

func TestLayoutAdminNav(t *testing.T) {
	p := testPage("Dashboard")
	p.Admin = true
	out := renderString(t, NotFound(p))
	assert.Contains(t, out, `href="/admin/dashboard/"`)
	assert.Contains(t, out, "Log out")
	assert.Contains(t, out, `name="_csrf" value="tok"`)
}

func TestPostEscapesTitleButNotBody(t *testing.T) {
	r := content.Result{
		State: content.Found,
		Post: content.PostView{
			Post:       model.Post{ID: "p1", Title: "Tom & Jerry", Category: "Tech"},
			HTML:       "<p>Body <strong>bold</strong></p>",
			ReadTime:   "1 min read",
			Date:       "January 2, 2024",
			AuthorName: "Jane",
		},
		Related: []content.PostView{{Post: model.Post{ID: "p2", Title: "Other"}, Excerpt: "More..."}},
	}
	out := renderString(t, Post(testPage("Tom"), r))

	assert.Contains(t, out, "<h1>Tom &amp; Jerry</h1>")
	assert.Contains(t, out, "<p>Body <strong>bold</strong></p>")
	assert.Contains(t, out, "Written by Jane")
	assert.Contains(t, out, "Related articles")
	assert.Contains(t, out, `href="/post/p2/"`)
}

func TestHomeEmpty(t *testing.T) {
	out := renderString(t, Home(testPage("Opinions"), content.Home{}))
	assert.Contains(t, out, "Nothing published yet.")
	assert.NotContains(t, out, "Recent articles")
}

func TestLoginFieldErrors(t *testing.T) {
	form := LoginForm{Email: "a@b.test", Errors: FieldErrors{"password": "Password is required"}}
	out := renderString(t, AdminLogin(testPage("Admin Login"), form))
	assert.Contains(t, out, `value="a@b.test"`)
	assert.Contains(t, out, `<p class="field-error">Password is required</p>`)
}

func TestBookReviews(t *testing.T) {
	r := content.BookResult{
		State: content.Found,
		Book: content.BookView{
			Book:            model.Book{ID: "b1", Title: "Dune", Author: "Herbert", DownloadURL: model.DefaultDownloadURL},
			DescriptionHTML: "<p>Sand</p>",
		},
		Reviews: []content.ReviewView{{
			Review: model.Review{Rating: 3, Content: "Fine", Name: "Ann"},
			Date:   "Mar 1, 2024",
		}},
		AverageRating: 3,
	}
	out := renderString(t, Book(testPage("Dune"), r, ReviewForm{Rating: 3}))

	assert.Contains(t, out, "★★★☆☆")
	assert.Contains(t, out, "3.0 / 5 (1)")
	assert.NotContains(t, out, "Read Full Book")
	assert.Contains(t, out, `action="/book/b1/reviews/"`)
	assert.Contains(t, out, `value="3" checked`)
}

func TestBookWithoutReviews(t *testing.T) {
	r := content.BookResult{Book: content.BookView{Book: model.Book{ID: "b1", DownloadURL: "https://example.test/dune.pdf"}}}
	out := renderString(t, Book(testPage("Dune"), r, ReviewForm{}))
	assert.Contains(t, out, "No reviews yet. Be the first!")
	assert.Contains(t, out, "Read Full Book")
}

func TestDashboardTabs(t *testing.T) {
	d := Dashboard{
		Tab:        TabCategories,
		Stats:      model.Stats{Published: 2, Drafts: 1},
		Categories: []model.Category{{ID: "c1", Name: "Tech", CreatedAt: time.Now()}},
	}
	out := renderString(t, AdminDashboard(testPage("Dashboard"), d))
	assert.Contains(t, out, `<a class="tab tab-active" href="/admin/dashboard/?tab=categories">`)
	assert.Contains(t, out, `href="/admin/categories/c1/"`)
	assert.Contains(t, out, `action="/admin/categories/c1/"`)
	assert.Contains(t, out, `name="_method" value="DELETE"`)
}

func TestPostFormActions(t *testing.T) {
	out := renderString(t, AdminPostForm(testPage("New post"), PostForm{}))
	assert.Contains(t, out, `action="/admin/posts/"`)
	assert.Contains(t, out, "Create post")

	edit := PostForm{Post: model.Post{ID: "p1", Status: model.StatusPublished}}
	out = renderString(t, AdminPostForm(testPage("Edit post"), edit))
	assert.Contains(t, out, `action="/admin/posts/p1/"`)
	assert.Contains(t, out, `<option value="published" selected>`)
}

func TestServerError(t *testing.T) {
	out := renderString(t, ServerError(testPage("Error")))
	assert.Contains(t, out, "<title>Error</title>")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "pill pill-active", CategoryClass(true))
	assert.Equal(t, "pill", CategoryClass(false))
	assert.Equal(t, "tab", TabClass("books", "posts"))
	assert.Equal(t, "a%20b", PathEscape("a b"))
	assert.Equal(t, "/articles/?category=Science+%26+Tech", categoryPath("Science & Tech"))
	assert.Equal(t, "3.5", ratingLabel(3.5))
}

func TestAbout(t *testing.T) {
	out := renderString(t, About(testPage("About | Opinions")))
	assert.Contains(t, out, "<h1>About Opinions</h1>")
	assert.Contains(t, out, "What We Cover")
	assert.NotContains(t, out, "Contact Me")

	p := testPage("About | Opinions")
	p.Site.ContactEmail = "hello@example.test"
	out = renderString(t, About(p))
	assert.Contains(t, out, `href="mailto:hello@example.test"`)
}

func TestPostShareLinks(t *testing.T) {
	p := testPage("Go")
	p.Meta.URL = "https://example.test/post/p1/"
	r := content.Result{Post: content.PostView{Post: model.Post{ID: "p1", Title: "Go & you"}}}
	out := renderString(t, Post(p, r))
	assert.Contains(t, out, `href="https://twitter.com/intent/tweet?url=https%3A%2F%2Fexample.test%2Fpost%2Fp1%2F&amp;text=Go+%26+you"`)
	assert.NotContains(t, out, `class="related"`)
}
