package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/opinions/model"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test_blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return base.AddDate(0, 0, n)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestCreateAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created, err := s.CreatePost(ctx, model.Post{
		Title:    "Test Post",
		Content:  "# Test Content\n\nThis is test content.",
		Status:   model.StatusPublished,
		Category: "Technology",
		Slug:     "test-post",
		AuthorID: "author-1",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreatePost should assign an id")
	}

	got, err := s.GetPost(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Test Post" {
		t.Errorf("Title = %q, want %q", got.Title, "Test Post")
	}
	if got.Content != created.Content {
		t.Errorf("Content = %q, want %q", got.Content, created.Content)
	}
	if !got.Published() {
		t.Error("post should be published")
	}
	if got.Slug != "test-post" || got.Category != "Technology" || got.AuthorID != "author-1" {
		t.Errorf("unexpected post fields: %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt.Truncate(time.Microsecond)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestCreatePostDefaultsToDraft(t *testing.T) {
	s := setupTestStore(t)
	p, err := s.CreatePost(context.Background(), model.Post{Title: "Untitled"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if p.Status != model.StatusDraft {
		t.Errorf("Status = %q, want draft", p.Status)
	}
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetPost(context.Background(), "nonexistent")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected model.ErrNotFound, got %v", err)
	}
}

func TestUpdatePostKeepsCreatedAt(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePost(ctx, model.Post{Title: "Original Title", CreatedAt: day(0)})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	p.Title = "Updated Title"
	p.Status = model.StatusPublished
	p.CreatedAt = time.Time{}
	if _, err := s.UpdatePost(ctx, p); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	got, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Updated Title" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated Title")
	}
	if !got.CreatedAt.Equal(day(0)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, day(0))
	}
	if !got.Published() {
		t.Error("post should be published after update")
	}
}

func TestUpdatePostNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.UpdatePost(context.Background(), model.Post{ID: "missing", Title: "x"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected model.ErrNotFound, got %v", err)
	}
}

func TestFindPostsFiltersAndOrders(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	posts := []model.Post{
		{Title: "Post 1", Category: "Tech", Status: model.StatusPublished, CreatedAt: day(1)},
		{Title: "Post 2", Category: "Tech", Status: model.StatusPublished, CreatedAt: day(2)},
		{Title: "Post 3", Category: "Life", Status: model.StatusPublished, CreatedAt: day(3)},
		{Title: "Post 4", Category: "Tech", Status: model.StatusDraft, CreatedAt: day(4)},
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		created, err := s.CreatePost(ctx, p)
		if err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
		ids[i] = created.ID
	}

	got, err := s.FindPosts(ctx, PostFilter{Status: model.StatusPublished})
	if err != nil {
		t.Fatalf("FindPosts failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("published count = %d, want 3", len(got))
	}
	if got[0].Title != "Post 3" || got[2].Title != "Post 1" {
		t.Errorf("posts not ordered newest first: %q, %q", got[0].Title, got[2].Title)
	}

	got, err = s.FindPosts(ctx, PostFilter{Status: model.StatusPublished, Category: "Tech", ExcludeID: ids[1]})
	if err != nil {
		t.Fatalf("FindPosts failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != ids[0] {
		t.Errorf("related lookup = %+v, want only Post 1", got)
	}

	got, err = s.FindPosts(ctx, PostFilter{Limit: 2})
	if err != nil {
		t.Fatalf("FindPosts failed: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Post 4" {
		t.Errorf("limited lookup = %d posts, first %q", len(got), got[0].Title)
	}
}

func TestPublishedSlugMustBeUnique(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreatePost(ctx, model.Post{Title: "A", Slug: "same", Status: model.StatusPublished}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	// drafts may share a slug
	draft, err := s.CreatePost(ctx, model.Post{Title: "B", Slug: "same", Status: model.StatusDraft})
	if err != nil {
		t.Fatalf("CreatePost draft failed: %v", err)
	}
	draft.Status = model.StatusPublished
	if _, err := s.UpdatePost(ctx, draft); !errors.Is(err, model.ErrSlugExists) {
		t.Errorf("expected model.ErrSlugExists, got %v", err)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePost(ctx, model.Post{Title: "To Delete"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if err := s.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost(ctx, p.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("post should be deleted, got %v", err)
	}
	if err := s.DeletePost(ctx, p.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second delete should report not found, got %v", err)
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCategory(ctx, model.Category{Name: "Tech"})
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if _, err := s.CreatePost(ctx, model.Post{Title: "Uses Tech", Category: "Tech"}); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if err := s.DeleteCategory(ctx, c.ID); !errors.Is(err, model.ErrCategoryInUse) {
		t.Fatalf("expected model.ErrCategoryInUse, got %v", err)
	}
	if _, err := s.GetCategory(ctx, c.ID); err != nil {
		t.Errorf("category should still exist: %v", err)
	}
}

func TestDeleteUnusedCategory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCategory(ctx, model.Category{Name: "Empty"})
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := s.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	if _, err := s.GetCategory(ctx, c.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("category should be deleted, got %v", err)
	}
}

func TestCategoryNamesAreUnique(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateCategory(ctx, model.Category{Name: "Tech"}); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if _, err := s.CreateCategory(ctx, model.Category{Name: "Tech"}); !errors.Is(err, model.ErrNameExists) {
		t.Errorf("expected model.ErrNameExists, got %v", err)
	}
}

func TestRenameCategoryMovesPosts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCategory(ctx, model.Category{Name: "Tech"})
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	p, err := s.CreatePost(ctx, model.Post{Title: "Filed", Category: "Tech"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	c.Name = "Technology"
	if _, err := s.UpdateCategory(ctx, c); err != nil {
		t.Fatalf("UpdateCategory failed: %v", err)
	}
	got, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Category != "Technology" {
		t.Errorf("Category = %q, want Technology", got.Category)
	}

	cats, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Technology" {
		t.Errorf("categories = %+v", cats)
	}
}

func TestBooksSearchAndDefaults(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	b, err := s.CreateBook(ctx, model.Book{Title: "Deep Work", Author: "Cal Newport", CreatedAt: day(1)})
	if err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	if b.DownloadURL != model.DefaultDownloadURL {
		t.Errorf("DownloadURL = %q, want %q", b.DownloadURL, model.DefaultDownloadURL)
	}
	if _, err := s.CreateBook(ctx, model.Book{Title: "Educated", Author: "Tara Westover", IsMarkdown: true, CreatedAt: day(2)}); err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}

	all, err := s.ListBooks(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListBooks failed: %v", err)
	}
	if len(all) != 2 || all[0].Title != "Educated" || !all[0].IsMarkdown {
		t.Errorf("ListBooks = %+v", all)
	}

	found, err := s.ListBooks(ctx, "newport", 0)
	if err != nil {
		t.Fatalf("ListBooks failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != b.ID {
		t.Errorf("search by author = %+v", found)
	}
}

func TestDeleteBookRemovesReviews(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	b, err := s.CreateBook(ctx, model.Book{Title: "Sapiens", Author: "Harari"})
	if err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	if _, err := s.CreateReview(ctx, model.Review{BookID: b.ID, Rating: 5, Content: "Great", Name: "Ann"}); err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}
	if err := s.DeleteBook(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBook failed: %v", err)
	}
	reviews, err := s.ListReviews(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListReviews failed: %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("reviews should be deleted with the book, got %d", len(reviews))
	}
}

func TestCreateReviewForMissingBook(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.CreateReview(context.Background(), model.Review{BookID: "missing", Rating: 3, Content: "?"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected model.ErrNotFound, got %v", err)
	}
}

func TestUsersAndRoleGrants(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, model.User{Email: " Admin@Example.com ", PasswordHash: "hash"}, model.Profile{FullName: "Ada"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := s.CreateUser(ctx, model.User{Email: "admin@example.com", PasswordHash: "x"}, model.Profile{}); !errors.Is(err, model.ErrEmailExists) {
		t.Errorf("expected model.ErrEmailExists, got %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" {
		t.Errorf("GetUserByEmail = %+v", got)
	}

	profile, err := s.GetProfile(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if profile.DisplayName() != "Ada" {
		t.Errorf("DisplayName = %q, want Ada", profile.DisplayName())
	}

	for _, role := range []string{"admin", "admin", "editor"} {
		if err := s.GrantRole(ctx, u.ID, role); err != nil {
			t.Fatalf("GrantRole(%s) failed: %v", role, err)
		}
	}
	grants, err := s.ListRoleGrants(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListRoleGrants failed: %v", err)
	}
	if len(grants) != 2 || grants[0].Role != "admin" || grants[1].Role != "editor" {
		t.Errorf("grants = %+v", grants)
	}

	if err := s.RevokeRole(ctx, u.ID, "admin"); err != nil {
		t.Fatalf("RevokeRole failed: %v", err)
	}
	grants, _ = s.ListRoleGrants(ctx, u.ID)
	if len(grants) != 1 {
		t.Errorf("grants after revoke = %+v", grants)
	}
}

func TestStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, st := range []model.Status{model.StatusPublished, model.StatusPublished, model.StatusDraft} {
		if _, err := s.CreatePost(ctx, model.Post{Title: "p", Status: st}); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}
	if _, err := s.CreateBook(ctx, model.Book{Title: "b", Author: "a"}); err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	if _, err := s.CreateCategory(ctx, model.Category{Name: "c"}); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := model.Stats{Published: 2, Drafts: 1, Books: 1, Categories: 1}
	if stats != want {
		t.Errorf("Stats = %+v, want %+v", stats, want)
	}
}

func TestImages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	img := model.Image{Filename: "cover.jpg", OriginalName: "Cover.PNG", Width: 800, Height: 600, Size: 1024}
	if err := s.SaveImage(ctx, img); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	ok, err := s.ImageExists(ctx, "cover.jpg")
	if err != nil || !ok {
		t.Fatalf("ImageExists = %v, %v", ok, err)
	}
	images, err := s.ListImages(ctx)
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if len(images) != 1 || images[0].Width != 800 {
		t.Errorf("ListImages = %+v", images)
	}
	if err := s.DeleteImage(ctx, "cover.jpg"); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	if ok, _ := s.ImageExists(ctx, "cover.jpg"); ok {
		t.Error("image should be deleted")
	}
}

func TestBookSearchMatchesWildcardsLiterally(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"Dune", "Emma", "100% Coverage", "snake_case"} {
		if _, err := s.CreateBook(ctx, model.Book{Title: title, Author: "Someone"}); err != nil {
			t.Fatalf("CreateBook(%s) failed: %v", title, err)
		}
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"%", []string{"100% Coverage"}},
		{"_", []string{"snake_case"}},
		{`\`, nil},
		{"du", []string{"Dune"}},
	}
	for _, tt := range tests {
		books, err := s.ListBooks(ctx, tt.search, 0)
		if err != nil {
			t.Fatalf("ListBooks(%q) failed: %v", tt.search, err)
		}
		var got []string
		for _, b := range books {
			got = append(got, b.Title)
		}
		if len(got) != len(tt.want) || (len(got) == 1 && got[0] != tt.want[0]) {
			t.Errorf("ListBooks(%q) = %v, want %v", tt.search, got, tt.want)
		}
	}
}

func TestCreateUserGrantsRolesAtomically(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, model.User{Email: "ed@example.com", PasswordHash: "h"}, model.Profile{}, "admin", "editor", "admin")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	grants, err := s.ListRoleGrants(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListRoleGrants failed: %v", err)
	}
	if len(grants) != 2 {
		t.Errorf("grants = %+v, want admin and editor", grants)
	}

	// A failing grant rolls back the user and profile rows too.
	if _, err := s.CreateUser(ctx, model.User{Email: "half@example.com", PasswordHash: "h"}, model.Profile{}, "admin", ""); err == nil {
		t.Fatal("expected an error for an empty role")
	}
	if _, err := s.GetUserByEmail(ctx, "half@example.com"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("user should not exist after a failed grant, got %v", err)
	}

	// The email is free again, so a retry succeeds.
	if _, err := s.CreateUser(ctx, model.User{Email: "half@example.com", PasswordHash: "h"}, model.Profile{}, "admin"); err != nil {
		t.Errorf("retry CreateUser failed: %v", err)
	}
}

func TestSetPassword(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, model.User{Email: "pw@example.com", PasswordHash: "old"}, model.Profile{})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := s.SetPassword(ctx, u.ID, "new"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	got, _ := s.GetUser(ctx, u.ID)
	if got.PasswordHash != "new" {
		t.Errorf("PasswordHash = %q, want new", got.PasswordHash)
	}
	if err := s.SetPassword(ctx, "missing", "x"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected model.ErrNotFound, got %v", err)
	}
}
