package opinions

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/store"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestImportPosts(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "import.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	writeFile(t, dir, "a-first.md", `---
title: First Thoughts
category: Essays
image: /uploads/first.jpg
description: A first post
keywords: [go, blogging]
date: 2023-04-05
---
# First

Hello there.
`)
	writeFile(t, dir, "b-untitled.md", "Just a body without front matter.\n")
	bad := writeFile(t, dir, "c-empty.md", "---\ntitle: Empty\n---\n")
	writeFile(t, dir, "notes.txt", "ignored")

	res, err := ImportPosts(ctx, s, dir, "author-1")
	require.NoError(t, err)
	require.Len(t, res.Imported, 2)
	require.Contains(t, res.Skipped, bad)

	first := res.Imported[0]
	assert.Equal(t, "First Thoughts", first.Title)
	assert.Equal(t, "first-thoughts", first.Slug)
	assert.Equal(t, model.StatusDraft, first.Status)
	assert.Equal(t, "Essays", first.Category)
	assert.Equal(t, "/uploads/first.jpg", first.ImageURL)
	assert.Equal(t, "A first post", first.MetaDescription)
	assert.Equal(t, "go, blogging", first.MetaKeywords)
	assert.Equal(t, "author-1", first.AuthorID)
	assert.True(t, first.CreatedAt.Equal(time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC)))
	assert.Contains(t, first.Content, "Hello there.")

	second := res.Imported[1]
	assert.Equal(t, "b-untitled", second.Title)
	assert.Equal(t, "Just a body without front matter.", second.Content)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Essays", cats[0].Name)

	// Imports never publish.
	published, err := s.FindPosts(ctx, store.PostFilter{Status: model.StatusPublished})
	require.NoError(t, err)
	assert.Empty(t, published)
}

func TestImportPostsRejectsBadDate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "post.md", "---\ntitle: Dated\ndate: someday\n---\nbody\n")

	_, err := readPostFile(path)
	assert.ErrorContains(t, err, "invalid date")
}

func TestParseImportDate(t *testing.T) {
	for _, in := range []string{"2024-01-02", "2024-01-02 15:04:05", "2024-01-02T15:04:05Z"} {
		got, err := parseImportDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2024, got.Year())
	}
}
