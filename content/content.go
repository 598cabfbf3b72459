// Package content resolves the records behind public pages and maps them to
// view models. Only published posts are ever returned.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/opinions/format"
	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/store"
)

// Source is the slice of the data store the resolver reads.
type Source interface {
	FindPosts(ctx context.Context, f store.PostFilter) ([]model.Post, error)
	GetBook(ctx context.Context, id string) (model.Book, error)
	ListBooks(ctx context.Context, search string, limit int) ([]model.Book, error)
	ListReviews(ctx context.Context, bookID string) ([]model.Review, error)
	GetProfile(ctx context.Context, id string) (model.Profile, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// State is the lifecycle of a resolution. NotFound is terminal.
type State int

const (
	Loading State = iota
	Found
	NotFound
)

// Ref names a post by id or, when ID is empty, by slug.
type Ref struct {
	ID   string
	Slug string
}

// Result is a resolved post page.
type Result struct {
	State   State
	Post    PostView
	Related []PostView
}

// BookResult is a resolved book page.
type BookResult struct {
	State         State
	Book          BookView
	Reviews       []ReviewView
	AverageRating float64
}

// Home is the data behind the landing page.
type Home struct {
	Featured *PostView
	Recent   []PostView
	Books    []BookView
}

// Articles is the data behind the articles index.
type Articles struct {
	Posts      []PostView
	Categories []model.Category
	Active     string
}

const (
	homeRecent = 3
	homeBooks  = 2
)

// Resolver fetches and maps public content.
type Resolver struct {
	src    Source
	opts   Options
	logger echo.Logger
}

// NewResolver returns a Resolver over src. A nil logger discards output.
func NewResolver(src Source, opts Options, logger echo.Logger) *Resolver {
	opts.setDefaults()
	if logger == nil {
		l := log.New("content")
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Resolver{src: src, opts: opts, logger: logger}
}

// Options returns the mapping options in effect.
func (r *Resolver) Options() Options {
	return r.opts
}

// ResolveContent fetches one published post by ref with its related posts.
// A missing or unpublished post is reported as State NotFound, not as an
// error. If ctx ends while the lookup is in flight the result is dropped.
func (r *Resolver) ResolveContent(ctx context.Context, ref Ref) (Result, error) {
	f := store.PostFilter{Status: model.StatusPublished, Limit: 1}
	switch {
	case ref.ID != "":
		f.ID = ref.ID
	case ref.Slug != "":
		f.Slug = ref.Slug
	default:
		return Result{State: NotFound}, nil
	}

	posts, err := r.src.FindPosts(ctx, f)
	if cerr := ctx.Err(); cerr != nil {
		return Result{}, cerr
	}
	if err != nil {
		return Result{}, fmt.Errorf("content: resolve post: %w", err)
	}
	if len(posts) == 0 {
		return Result{State: NotFound}, nil
	}

	post := r.opts.NewPostPage(posts[0])
	post.AuthorName = r.ResolveAuthorName(ctx, post.AuthorID)

	related, err := r.ResolveRelated(ctx, post.Category, post.ID, r.opts.RelatedLimit)
	if cerr := ctx.Err(); cerr != nil {
		return Result{}, cerr
	}
	if err != nil {
		r.logger.Warnf("content: related posts for %s: %v", post.ID, err)
		related = nil
	}
	return Result{State: Found, Post: post, Related: related}, nil
}

// ResolveRelated returns up to limit published posts in category, newest
// first, never including excludeID. An empty category has no related posts.
func (r *Resolver) ResolveRelated(ctx context.Context, category, excludeID string, limit int) ([]PostView, error) {
	if category == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = r.opts.RelatedLimit
	}
	posts, err := r.src.FindPosts(ctx, store.PostFilter{
		Status:    model.StatusPublished,
		Category:  category,
		ExcludeID: excludeID,
		Limit:     limit,
	})
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, fmt.Errorf("content: resolve related: %w", err)
	}
	return r.opts.postViews(posts), nil
}

// ResolveAuthorName returns the display name of a post author, or "" when it
// cannot be found. Failures are logged, never returned.
func (r *Resolver) ResolveAuthorName(ctx context.Context, authorID string) string {
	if authorID == "" {
		return ""
	}
	p, err := r.src.GetProfile(ctx, authorID)
	if err != nil {
		r.logger.Debugf("content: author %s: %v", authorID, err)
		return ""
	}
	return p.DisplayName()
}

// ResolveBook fetches a book with its reviews, newest first.
func (r *Resolver) ResolveBook(ctx context.Context, id string) (BookResult, error) {
	b, err := r.src.GetBook(ctx, id)
	if cerr := ctx.Err(); cerr != nil {
		return BookResult{}, cerr
	}
	if errors.Is(err, model.ErrNotFound) {
		return BookResult{State: NotFound}, nil
	}
	if err != nil {
		return BookResult{}, fmt.Errorf("content: resolve book: %w", err)
	}

	reviews, err := r.src.ListReviews(ctx, id)
	if cerr := ctx.Err(); cerr != nil {
		return BookResult{}, cerr
	}
	if err != nil {
		return BookResult{}, fmt.Errorf("content: resolve reviews: %w", err)
	}

	res := BookResult{State: Found, Book: r.opts.NewBookView(b)}
	res.Reviews = make([]ReviewView, len(reviews))
	total := 0
	for i, rv := range reviews {
		res.Reviews[i] = ReviewView{Review: rv, Date: format.LongDate(rv.CreatedAt)}
		total += rv.Rating
	}
	if len(reviews) > 0 {
		res.AverageRating = float64(total) / float64(len(reviews))
	}
	return res, nil
}

// ListPosts returns published posts, optionally narrowed to a category.
func (r *Resolver) ListPosts(ctx context.Context, category string) (Articles, error) {
	posts, err := r.src.FindPosts(ctx, store.PostFilter{Status: model.StatusPublished, Category: category})
	if err != nil {
		return Articles{}, fmt.Errorf("content: list posts: %w", err)
	}
	cats, err := r.src.ListCategories(ctx)
	if cerr := ctx.Err(); cerr != nil {
		return Articles{}, cerr
	}
	if err != nil {
		return Articles{}, fmt.Errorf("content: list categories: %w", err)
	}
	return Articles{Posts: r.opts.postViews(posts), Categories: cats, Active: category}, nil
}

// ListBooks returns books whose title or author contains search.
func (r *Resolver) ListBooks(ctx context.Context, search string) ([]BookView, error) {
	books, err := r.src.ListBooks(ctx, search, 0)
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if err != nil {
		return nil, fmt.Errorf("content: list books: %w", err)
	}
	return r.opts.bookViews(books), nil
}

// Home returns the newest post as the featured one, the next few posts and
// a couple of books.
func (r *Resolver) Home(ctx context.Context) (Home, error) {
	posts, err := r.src.FindPosts(ctx, store.PostFilter{Status: model.StatusPublished, Limit: homeRecent + 1})
	if err != nil {
		return Home{}, fmt.Errorf("content: home posts: %w", err)
	}
	books, err := r.src.ListBooks(ctx, "", homeBooks)
	if cerr := ctx.Err(); cerr != nil {
		return Home{}, cerr
	}
	if err != nil {
		return Home{}, fmt.Errorf("content: home books: %w", err)
	}

	var h Home
	views := r.opts.postViews(posts)
	if len(views) > 0 {
		h.Featured = &views[0]
		h.Recent = views[1:]
	}
	h.Books = r.opts.bookViews(books)
	return h, nil
}
