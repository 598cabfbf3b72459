package content

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/store"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestDraftToPublished(t *testing.T) {
	s := setupStore(t)
	r := NewResolver(s, Options{}, nil)
	ctx := context.Background()

	body := "# Heading\n\n" + strings.Repeat("word ", 450)
	p, err := s.CreatePost(ctx, model.Post{Title: "Draft", Content: body, Status: model.StatusDraft})
	require.NoError(t, err)

	res, err := r.ResolveContent(ctx, Ref{ID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.State)

	p.Status = model.StatusPublished
	_, err = s.UpdatePost(ctx, p)
	require.NoError(t, err)

	res, err = r.ResolveContent(ctx, Ref{ID: p.ID})
	require.NoError(t, err)
	require.Equal(t, Found, res.State)
	assert.Contains(t, res.Post.HTML, `<h1 id="heading">Heading</h1>`)
	assert.Equal(t, "3 min read", res.Post.ReadTime)
	assert.True(t, strings.HasPrefix(res.Post.Excerpt, "# Heading"))
	assert.True(t, strings.HasSuffix(res.Post.Excerpt, "..."))
}

func TestResolveContentBySlug(t *testing.T) {
	s := setupStore(t)
	r := NewResolver(s, Options{}, nil)
	ctx := context.Background()

	_, err := s.CreatePost(ctx, model.Post{Title: "Hidden", Slug: "hello", Status: model.StatusDraft})
	require.NoError(t, err)
	res, err := r.ResolveContent(ctx, Ref{Slug: "hello"})
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.State)

	pub, err := s.CreatePost(ctx, model.Post{Title: "Shown", Slug: "hello", Status: model.StatusPublished})
	require.NoError(t, err)
	res, err = r.ResolveContent(ctx, Ref{Slug: "hello"})
	require.NoError(t, err)
	require.Equal(t, Found, res.State)
	assert.Equal(t, pub.ID, res.Post.ID)

	res, err = r.ResolveContent(ctx, Ref{})
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.State)
}

func TestResolveContentAuthorAndRelated(t *testing.T) {
	s := setupStore(t)
	r := NewResolver(s, Options{DefaultImageURL: "/public/default.jpg"}, nil)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, model.User{Email: "me@example.com", PasswordHash: "x"}, model.Profile{FullName: "Jane Writer"})
	require.NoError(t, err)

	main, err := s.CreatePost(ctx, model.Post{Title: "Main", Category: "X", Status: model.StatusPublished, AuthorID: u.ID, CreatedAt: base})
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		_, err := s.CreatePost(ctx, model.Post{Title: "Rel", Category: "X", Status: model.StatusPublished, CreatedAt: base.AddDate(0, 0, i)})
		require.NoError(t, err)
	}

	res, err := r.ResolveContent(ctx, Ref{ID: main.ID})
	require.NoError(t, err)
	require.Equal(t, Found, res.State)
	assert.Equal(t, "Jane Writer", res.Post.AuthorName)
	assert.Equal(t, "/public/default.jpg", res.Post.Cover)
	assert.Len(t, res.Related, 3)
	for _, rel := range res.Related {
		assert.NotEqual(t, main.ID, rel.ID)
	}
}

func TestResolveRelated(t *testing.T) {
	s := setupStore(t)
	r := NewResolver(s, Options{}, nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 6; i++ {
		p, err := s.CreatePost(ctx, model.Post{Title: "P", Category: "X", Status: model.StatusPublished, CreatedAt: base.AddDate(0, 0, i)})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	_, err := s.CreatePost(ctx, model.Post{Title: "Other", Category: "Y", Status: model.StatusPublished, CreatedAt: base.AddDate(0, 1, 0)})
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, model.Post{Title: "Draft", Category: "X", CreatedAt: base.AddDate(0, 1, 0)})
	require.NoError(t, err)

	excluded := ids[5]
	related, err := r.ResolveRelated(ctx, "X", excluded, 3)
	require.NoError(t, err)
	require.Len(t, related, 3)
	assert.Equal(t, []string{ids[4], ids[3], ids[2]}, []string{related[0].ID, related[1].ID, related[2].ID})
	for i := 1; i < len(related); i++ {
		assert.False(t, related[i].CreatedAt.After(related[i-1].CreatedAt))
	}

	none, err := r.ResolveRelated(ctx, "", "", 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestResolveAuthorNameMissing(t *testing.T) {
	r := NewResolver(setupStore(t), Options{}, nil)
	assert.Equal(t, "", r.ResolveAuthorName(context.Background(), "nobody"))
	assert.Equal(t, "", r.ResolveAuthorName(context.Background(), ""))
}

func TestResolveBook(t *testing.T) {
	s := setupStore(t)
	r := NewResolver(s, Options{}, nil)
	ctx := context.Background()

	md, err := s.CreateBook(ctx, model.Book{Title: "MD", Author: "A", Description: "**bold**", IsMarkdown: true})
	require.NoError(t, err)
	plain, err := s.CreateBook(ctx, model.Book{Title: "Plain", Author: "B", Description: "**not bold** <i>"})
	require.NoError(t, err)

	_, err = s.CreateReview(ctx, model.Review{BookID: md.ID, Rating: 5, Content: "Loved it", CreatedAt: base})
	require.NoError(t, err)
	_, err = s.CreateReview(ctx, model.Review{BookID: md.ID, Rating: 2, Content: "Meh", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	res, err := r.ResolveBook(ctx, md.ID)
	require.NoError(t, err)
	require.Equal(t, Found, res.State)
	assert.Contains(t, res.Book.DescriptionHTML, "<strong>bold</strong>")
	require.Len(t, res.Reviews, 2)
	assert.Equal(t, "Meh", res.Reviews[0].Content)
	assert.Equal(t, "★★☆☆☆", res.Reviews[0].Stars())
	assert.InDelta(t, 3.5, res.AverageRating, 0.001)

	res, err = r.ResolveBook(ctx, plain.ID)
	require.NoError(t, err)
	assert.Contains(t, res.Book.DescriptionHTML, "**not bold** &lt;i&gt;")
	assert.Zero(t, res.AverageRating)

	res, err = r.ResolveBook(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.State)
}

func TestListsAndHome(t *testing.T) {
	s := setupStore(t)
	r := NewResolver(s, Options{}, nil)
	ctx := context.Background()

	for i, cat := range []string{"A", "B", "A", "B", "A"} {
		_, err := s.CreatePost(ctx, model.Post{Title: cat, Category: cat, Status: model.StatusPublished, CreatedAt: base.AddDate(0, 0, i)})
		require.NoError(t, err)
	}
	_, err := s.CreateCategory(ctx, model.Category{Name: "A"})
	require.NoError(t, err)
	for _, title := range []string{"Dune", "Emma", "Ulysses"} {
		_, err := s.CreateBook(ctx, model.Book{Title: title, Author: "Someone"})
		require.NoError(t, err)
	}

	arts, err := r.ListPosts(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, arts.Posts, 3)
	assert.Len(t, arts.Categories, 1)
	assert.Equal(t, "A", arts.Active)

	books, err := r.ListBooks(ctx, "emm")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Emma", books[0].Title)

	home, err := r.Home(ctx)
	require.NoError(t, err)
	require.NotNil(t, home.Featured)
	assert.True(t, home.Featured.CreatedAt.Equal(base.AddDate(0, 0, 4)))
	assert.Len(t, home.Recent, 3)
	assert.Len(t, home.Books, 2)
}

// slowSource cancels the request while the lookup is in flight.
type slowSource struct {
	Source
	cancel context.CancelFunc
}

func (s slowSource) FindPosts(ctx context.Context, f store.PostFilter) ([]model.Post, error) {
	s.cancel()
	return []model.Post{{ID: "1", Title: "late", Status: model.StatusPublished}}, nil
}

func TestLateResultIsDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewResolver(slowSource{cancel: cancel}, Options{}, nil)

	res, err := r.ResolveContent(ctx, Ref{ID: "1"})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, Loading, res.State)
}
