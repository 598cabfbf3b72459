//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/eringen/opinions/model"
)

// setupPostgresStore starts a PostgreSQL container and opens a Store on it.
func setupPostgresStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("opinions"),
		postgres.WithUsername("opinions"),
		postgres.WithPassword("opinions"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := Open(DriverPostgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresPostsAndCategories(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()

	_, err := s.CreateCategory(ctx, model.Category{Name: "Tech"})
	require.NoError(t, err)
	_, err = s.CreateCategory(ctx, model.Category{Name: "Tech"})
	assert.ErrorIs(t, err, model.ErrNameExists)

	first, err := s.CreatePost(ctx, model.Post{Title: "One", Category: "Tech", Slug: "one", Status: model.StatusPublished, CreatedAt: day(1)})
	require.NoError(t, err)
	second, err := s.CreatePost(ctx, model.Post{Title: "Two", Category: "Tech", Status: model.StatusPublished, CreatedAt: day(2)})
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, model.Post{Title: "Draft", Category: "Tech", CreatedAt: day(3)})
	require.NoError(t, err)

	related, err := s.FindPosts(ctx, PostFilter{Status: model.StatusPublished, Category: "Tech", ExcludeID: second.ID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, first.ID, related[0].ID)

	_, err = s.CreatePost(ctx, model.Post{Title: "Dup", Slug: "one", Status: model.StatusPublished})
	assert.ErrorIs(t, err, model.ErrSlugExists)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.True(t, errors.Is(s.DeleteCategory(ctx, cats[0].ID), model.ErrCategoryInUse))
}

func TestPostgresBooksAndUsers(t *testing.T) {
	s := setupPostgresStore(t)
	ctx := context.Background()

	b, err := s.CreateBook(ctx, model.Book{Title: "Dune", Author: "Frank Herbert", IsMarkdown: true})
	require.NoError(t, err)
	found, err := s.ListBooks(ctx, "HERBERT", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, found[0].IsMarkdown)

	_, err = s.CreateReview(ctx, model.Review{BookID: b.ID, Rating: 4, Content: "Sandy"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteBook(ctx, b.ID))
	reviews, err := s.ListReviews(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	u, err := s.CreateUser(ctx, model.User{Email: "a@b.c", PasswordHash: "h"}, model.Profile{})
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, model.User{Email: "A@B.C", PasswordHash: "h"}, model.Profile{})
	assert.ErrorIs(t, err, model.ErrEmailExists)
	require.NoError(t, s.GrantRole(ctx, u.ID, "admin"))
	require.NoError(t, s.GrantRole(ctx, u.ID, "admin"))
	grants, err := s.ListRoleGrants(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, grants, 1)
}
