package opinions

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/opinions/auth"
	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/store"
)

func postForm(title, status string) url.Values {
	return url.Values{
		"title":   {title},
		"content": {"# Opening thoughts\n\nSome **bold** words about " + title + "."},
		"status":  {status},
	}
}

func TestAdminAreaRequiresLogin(t *testing.T) {
	_, c := newTestApp(t)

	for _, path := range []string{"/admin/", "/admin/dashboard/", "/admin/images/"} {
		resp, _ := c.get(path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/admin/login/", resp.Header.Get("Location"), path)
	}

	resp, body := c.get("/admin/login/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Admin Login")
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestLoginAndLogout(t *testing.T) {
	_, c := newTestApp(t)
	c.loginAdmin()

	resp, body := c.get("/admin/dashboard/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome back, Jane Admin.")
	assert.Contains(t, body, "Dashboard")

	resp, _ = c.get("/admin/")
	assert.Equal(t, "/admin/dashboard/", resp.Header.Get("Location"))

	resp, _ = c.get("/admin/login/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/dashboard/", resp.Header.Get("Location"))

	resp, _ = c.post("/admin/logout/", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login/", resp.Header.Get("Location"))

	resp, _ = c.get("/admin/dashboard/")
	assert.Equal(t, "/admin/login/", resp.Header.Get("Location"))
}

func TestLoginInvalidCredentials(t *testing.T) {
	_, c := newTestApp(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", testAdminEmail, "nope-nope-nope"},
		{"unknown email", "ghost@example.test", testAdminPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := c.post("/admin/login/", url.Values{"email": {tt.email}, "password": {tt.password}})
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Contains(t, body, "Invalid email or password.")
		})
	}
}

func TestLoginValidation(t *testing.T) {
	_, c := newTestApp(t)

	resp, body := c.post("/admin/login/", url.Values{"email": {""}, "password": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Email is required")
	assert.Contains(t, body, "Password is required")
}

func TestLoginNonAdminIsSignedOut(t *testing.T) {
	a, c := newTestApp(t)
	_, err := CreateUser(context.Background(), a.Store, NewUser{
		Email:    "reader@example.test",
		Password: "reader-password",
		Roles:    []auth.Role{auth.RoleReader},
	})
	require.NoError(t, err)

	resp := c.login("reader@example.test", "reader-password")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := c.get("/")
	assert.Contains(t, body, "Access denied. Only administrators can access this area.")

	resp, _ = c.get("/admin/dashboard/")
	assert.Equal(t, "/admin/login/", resp.Header.Get("Location"))
}

func TestLoginRateLimited(t *testing.T) {
	_, c := newTestApp(t, func(cfg *SiteConfig) { cfg.LoginAttempts = 2 })

	for i := 0; i < 2; i++ {
		resp := c.login(testAdminEmail, "wrong-password")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, body := c.post("/admin/login/", url.Values{"email": {testAdminEmail}, "password": {testAdminPassword}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, tooManyAttempts)
}

func TestCSRFTokenRequired(t *testing.T) {
	_, c := newTestApp(t)

	resp, body := c.post("/admin/login/", url.Values{
		"_csrf":    {"forged"},
		"email":    {testAdminEmail},
		"password": {testAdminPassword},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Forbidden", body)
}

func TestDraftIsHiddenUntilPublished(t *testing.T) {
	a, c := newTestApp(t)
	ctx := context.Background()
	c.loginAdmin()

	resp, _ := c.post("/admin/posts/", postForm("Hello World", "draft"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/dashboard/?tab=posts", resp.Header.Get("Location"))

	posts, err := a.Store.ListAllPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	post := posts[0]
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, model.StatusDraft, post.Status)
	assert.NotEmpty(t, post.AuthorID)

	resp, body := c.get("/post/" + post.ID + "/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Not found")
	resp, _ = c.get("/post/slug/hello-world/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = c.post("/admin/posts/"+post.ID+"/", postForm("Hello World", "published"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body = c.get("/post/" + post.ID + "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<title>Hello World | Test Opinions</title>")
	assert.Contains(t, body, `<h1 id="opening-thoughts">Opening thoughts</h1>`)
	assert.Contains(t, body, "<strong>bold</strong>")
	assert.Contains(t, body, "Written by Jane Admin")
	assert.Contains(t, body, "1 min read")
	assert.Contains(t, body, `"@type":"Article"`)

	resp, _ = c.get("/post/slug/hello-world/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = c.get("/")
	assert.Contains(t, body, "Hello World")
}

func TestCreatePostValidation(t *testing.T) {
	a, c := newTestApp(t)
	c.loginAdmin()

	resp, body := c.post("/admin/posts/", url.Values{"title": {""}, "content": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Title is required")
	assert.Contains(t, body, "Content is required")

	posts, err := a.Store.ListAllPosts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPublishedSlugConflict(t *testing.T) {
	_, c := newTestApp(t)
	c.loginAdmin()

	resp, _ := c.post("/admin/posts/", postForm("Same Title", "published"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body := c.post("/admin/posts/", postForm("Same Title", "published"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "A published post already uses this slug")
}

func TestDeletePostWithMethodOverride(t *testing.T) {
	a, c := newTestApp(t)
	ctx := context.Background()
	c.loginAdmin()

	p, err := a.Store.CreatePost(ctx, model.Post{Title: "Doomed", Content: "bye", Status: model.StatusPublished, Slug: "doomed"})
	require.NoError(t, err)

	resp, _ := c.delete("/admin/posts/" + p.ID + "/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, err = a.Store.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, body := c.get("/admin/dashboard/?tab=posts")
	assert.Contains(t, body, "Post deleted successfully")
}

func TestCategoryInUseIsKept(t *testing.T) {
	a, c := newTestApp(t)
	ctx := context.Background()
	c.loginAdmin()

	used, err := a.Store.CreateCategory(ctx, model.Category{Name: "Go"})
	require.NoError(t, err)
	unused, err := a.Store.CreateCategory(ctx, model.Category{Name: "Rust"})
	require.NoError(t, err)
	_, err = a.Store.CreatePost(ctx, model.Post{Title: "Channels", Content: "x", Category: "Go", Slug: "channels"})
	require.NoError(t, err)

	resp, _ := c.delete("/admin/categories/" + used.ID + "/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/dashboard/?tab=categories", resp.Header.Get("Location"))

	_, body := c.get("/admin/dashboard/?tab=categories")
	assert.Contains(t, body, "Cannot delete a category that is still used by posts.")
	_, err = a.Store.GetCategory(ctx, used.ID)
	assert.NoError(t, err)

	c.delete("/admin/categories/" + unused.ID + "/")
	_, err = a.Store.GetCategory(ctx, unused.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCategoryCreateAndRename(t *testing.T) {
	a, c := newTestApp(t)
	ctx := context.Background()
	c.loginAdmin()

	resp, _ := c.post("/admin/categories/", url.Values{"name": {"Books"}, "description": {"Reading notes"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body := c.post("/admin/categories/", url.Values{"name": {"Books"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "A category with this name already exists")

	resp, body = c.post("/admin/categories/", url.Values{"name": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Category name is required")

	cats, err := a.Store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	resp, body = c.get("/admin/categories/" + cats[0].ID + "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Reading notes")

	resp, _ = c.post("/admin/categories/"+cats[0].ID+"/", url.Values{"name": {"Reading"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	got, err := a.Store.GetCategory(ctx, cats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Reading", got.Name)
}

func TestBookCRUD(t *testing.T) {
	a, c := newTestApp(t)
	ctx := context.Background()
	c.loginAdmin()

	resp, body := c.post("/admin/books/", url.Values{"title": {"Dune"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Author is required")
	assert.Contains(t, body, "Cover image is required")

	resp, _ = c.post("/admin/books/", url.Values{
		"title":       {"Dune"},
		"author":      {"Frank Herbert"},
		"description": {"A *desert* planet."},
		"is_markdown": {"1"},
		"cover_url":   {"/uploads/dune.jpg"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	books, err := a.Store.ListBooks(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, books, 1)
	book := books[0]
	assert.True(t, book.IsMarkdown)
	assert.Equal(t, model.DefaultDownloadURL, book.DownloadURL)
	assert.NotEmpty(t, book.CreatedBy)

	_, body = c.get("/book/" + book.ID + "/")
	assert.Contains(t, body, "<em>desert</em>")
	assert.NotContains(t, body, "Read Full Book")

	resp, _ = c.post("/admin/books/"+book.ID+"/", url.Values{
		"title":        {"Dune Messiah"},
		"author":       {"Frank Herbert"},
		"cover_url":    {"/uploads/dune.jpg"},
		"download_url": {"https://example.test/dune"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = c.get("/books/?q=messiah")
	assert.Contains(t, body, "Dune Messiah")

	resp, _ = c.delete("/admin/books/" + book.ID + "/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp, _ = c.get("/book/" + book.ID + "/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReviewSubmission(t *testing.T) {
	a, c := newTestApp(t)
	book, err := a.Store.CreateBook(context.Background(), model.Book{Title: "Snow Crash", Author: "Neal Stephenson", CoverURL: "/c.jpg"})
	require.NoError(t, err)
	path := "/book/" + book.ID + "/reviews/"

	resp, body := c.post(path, url.Values{"content": {"Loved it"}, "name": {"Ann"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please select a rating for this book.")

	resp, body = c.post(path, url.Values{"rating": {"4"}, "content": {""}, "name": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please write a review for this book.")
	assert.Contains(t, body, "Please enter your name to submit a review.")

	resp, _ = c.post(path, url.Values{"rating": {"4"}, "content": {"Great read"}, "name": {"Ann"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/book/"+book.ID+"/", resp.Header.Get("Location"))

	_, body = c.get("/book/" + book.ID + "/")
	assert.Contains(t, body, "Thank you for your review!")
	assert.Contains(t, body, "Great read")
	assert.Contains(t, body, "★★★★☆")
	assert.Contains(t, body, "4.0 / 5 (1)")

	resp, _ = c.post("/book/missing/reviews/", url.Values{"rating": {"4"}, "content": {"x"}, "name": {"y"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSignedInReviewUsesProfileName(t *testing.T) {
	a, c := newTestApp(t)
	ctx := context.Background()
	book, err := a.Store.CreateBook(ctx, model.Book{Title: "Neuromancer", Author: "William Gibson", CoverURL: "/c.jpg"})
	require.NoError(t, err)
	c.loginAdmin()

	resp, _ := c.post("/book/"+book.ID+"/reviews/", url.Values{"rating": {"5"}, "content": {"Sharp"}, "name": {""}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	reviews, err := a.Store.ListReviews(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Jane Admin", reviews[0].Name)
	assert.NotEmpty(t, reviews[0].UserID)

	admin, err := a.Store.GetUserByEmail(ctx, "admin@example.test")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, reviews[0].UserID)
}

func TestPublicPages(t *testing.T) {
	a, c := newTestApp(t)
	ctx := context.Background()
	_, err := a.Store.CreatePost(ctx, model.Post{Title: "Visible Post", Content: "hello", Status: model.StatusPublished, Slug: "visible", Category: "Go"})
	require.NoError(t, err)
	_, err = a.Store.CreatePost(ctx, model.Post{Title: "Secret Draft", Content: "hidden", Slug: "secret"})
	require.NoError(t, err)

	resp, body := c.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<title>Test Opinions</title>")
	assert.Contains(t, body, `"@type":"WebSite"`)
	assert.Contains(t, body, "Visible Post")
	assert.NotContains(t, body, "Secret Draft")

	_, body = c.get("/articles/?category=Go")
	assert.Contains(t, body, "Visible Post")
	_, body = c.get("/articles/?category=Rust")
	assert.NotContains(t, body, "Visible Post")

	resp, _ = c.get("/articles")
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)

	resp, body = c.get("/does-not-exist/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Not found")

	resp, _ = c.get("/public/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "immutable")
}

func TestAboutPage(t *testing.T) {
	_, c := newTestApp(t, func(cfg *SiteConfig) { cfg.ContactEmail = "editor@opinions.test" })

	resp, body := c.get("/about/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<title>About | Test Opinions</title>")
	assert.Contains(t, body, "<h1>About Test Opinions</h1>")
	assert.Contains(t, body, "What We Cover")
	assert.Contains(t, body, `href="mailto:editor@opinions.test"`)
	assert.Contains(t, body, `<link rel="canonical" href="https://opinions.test/about/">`)
}

func TestFeed(t *testing.T) {
	a, c := newTestApp(t)
	ctx := context.Background()
	_, err := a.Store.CreatePost(ctx, model.Post{Title: "Feed Post", Content: "in the feed", Status: model.StatusPublished, Slug: "feed-post"})
	require.NoError(t, err)
	_, err = a.Store.CreatePost(ctx, model.Post{Title: "Feed Draft", Content: "not yet", Slug: "feed-draft"})
	require.NoError(t, err)

	resp, body := c.get("/feed.xml")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/rss+xml; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "<title>Feed Post</title>")
	assert.NotContains(t, body, "Feed Draft")
}

func TestImageLibrary(t *testing.T) {
	a, c := newTestApp(t)
	ctx := context.Background()
	c.loginAdmin()

	resp, _ := c.upload("/admin/images/upload/", "My Photo.png", testPNG(t, 1000, 500))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/images/", resp.Header.Get("Location"))

	resp, _ = c.upload("/admin/images/upload/", "My Photo.png", testPNG(t, 40, 20))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	images, err := a.Store.ListImages(ctx)
	require.NoError(t, err)
	require.Len(t, images, 2)
	byName := map[string]model.Image{}
	for _, img := range images {
		byName[img.Filename] = img
	}
	require.Contains(t, byName, "my-photo.jpg")
	require.Contains(t, byName, "my-photo-2.jpg")
	assert.Equal(t, 800, byName["my-photo.jpg"].Width)
	assert.Equal(t, 400, byName["my-photo.jpg"].Height)
	assert.Equal(t, 40, byName["my-photo-2.jpg"].Width)

	_, err = os.Stat(filepath.Join(a.Config.UploadDir, "my-photo.jpg"))
	require.NoError(t, err)

	resp, _ = c.get("/uploads/my-photo.jpg")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := c.upload("/admin/images/upload/", "notes.txt", []byte("not an image"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Invalid image")

	resp, _ = c.delete("/admin/images/my-photo.jpg/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, err = os.Stat(filepath.Join(a.Config.UploadDir, "my-photo.jpg"))
	assert.True(t, os.IsNotExist(err))
	exists, err := a.Store.ImageExists(ctx, "my-photo.jpg")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRevokedAdminIsRedirectedHome(t *testing.T) {
	a, c := newTestApp(t)
	ctx := context.Background()
	c.loginAdmin()

	u, err := a.Store.GetUserByEmail(ctx, store.NormalizeEmail(testAdminEmail))
	require.NoError(t, err)
	require.NoError(t, a.Store.RevokeRole(ctx, u.ID, string(auth.RoleAdmin)))

	resp, _ := c.get("/admin/dashboard/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}
