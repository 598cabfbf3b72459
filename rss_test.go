package opinions

import (
	"encoding/xml"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/opinions/model"
)

func TestBuildFeed(t *testing.T) {
	a := &App{Config: SiteConfig{Name: "Opinions", URL: "https://example.com", Description: "d", ExcerptLength: 20}}
	created := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	posts := []model.Post{
		{ID: "p1", Title: "One", Content: "A fairly long body that will be cut short", Status: model.StatusPublished, Category: "Go", CreatedAt: created},
		{ID: "p2", Title: "Two", Content: "x", MetaDescription: "Custom", Status: model.StatusPublished, CreatedAt: created},
		{ID: "p3", Title: "Draft", Content: "x", Status: model.StatusDraft, CreatedAt: created},
	}

	feed := a.buildFeed(posts)
	assert.Equal(t, "2.0", feed.Version)
	assert.Equal(t, "https://example.com", feed.Channel.Link)
	require.Len(t, feed.Channel.Items, 2)

	one := feed.Channel.Items[0]
	assert.Equal(t, "https://example.com/post/p1/", one.Link)
	assert.Equal(t, one.Link, one.GUID)
	assert.Equal(t, "Go", one.Category)
	assert.Equal(t, "Sat, 03 Feb 2024 10:00:00 +0000", one.PubDate)
	assert.Equal(t, "A fairly long body t...", one.Description)
	assert.Equal(t, "Custom", feed.Channel.Items[1].Description)

	out, err := xml.Marshal(feed)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<rss version="2.0">`)
}
