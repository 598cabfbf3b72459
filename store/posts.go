package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/eringen/opinions/model"
)

// PostFilter narrows a post lookup. Zero fields are ignored; Limit 0 means
// no limit. Results are ordered newest first, ties broken by id.
type PostFilter struct {
	ID        string
	Slug      string
	Category  string
	Status    model.Status
	ExcludeID string
	Limit     int
}

func (f PostFilter) apply(q *bun.SelectQuery) *bun.SelectQuery {
	if f.ID != "" {
		q = q.Where("id = ?", f.ID)
	}
	if f.Slug != "" {
		q = q.Where("slug = ?", f.Slug)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.ExcludeID != "" {
		q = q.Where("id <> ?", f.ExcludeID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	return q
}

// FindPosts returns the posts matching f.
func (s *Store) FindPosts(ctx context.Context, f PostFilter) ([]model.Post, error) {
	var rows []postRow
	q := s.db.NewSelect().Model(&rows).Order("created_at DESC", "id DESC")
	if err := f.apply(q).Scan(ctx); err != nil {
		return nil, s.wrap("find posts", err)
	}
	posts := make([]model.Post, len(rows))
	for i := range rows {
		posts[i] = rows[i].post()
	}
	return posts, nil
}

// GetPost returns a post by id regardless of status (for admin).
func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := new(postRow)
	if err := s.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return model.Post{}, s.wrap("get post", err)
	}
	return row.post(), nil
}

// ListAllPosts returns every post (published and drafts), newest first.
func (s *Store) ListAllPosts(ctx context.Context) ([]model.Post, error) {
	return s.FindPosts(ctx, PostFilter{})
}

// CreatePost inserts p, assigning its id and timestamps.
func (s *Store) CreatePost(ctx context.Context, p model.Post) (model.Post, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = s.stamp(p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = model.StatusDraft
	}
	if err := s.checkSlug(ctx, p); err != nil {
		return model.Post{}, err
	}
	if _, err := s.db.NewInsert().Model(newPostRow(p)).Exec(ctx); err != nil {
		return model.Post{}, s.wrap("create post", err)
	}
	return p, nil
}

// UpdatePost overwrites the editable fields of the post with p.ID.
func (s *Store) UpdatePost(ctx context.Context, p model.Post) (model.Post, error) {
	existing, err := s.GetPost(ctx, p.ID)
	if err != nil {
		return model.Post{}, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.stamp(p.UpdatedAt)
	if p.AuthorID == "" {
		p.AuthorID = existing.AuthorID
	}
	if err := s.checkSlug(ctx, p); err != nil {
		return model.Post{}, err
	}
	_, err = s.db.NewUpdate().
		Model(newPostRow(p)).
		Column("title", "content", "status", "category", "image_url", "slug",
			"meta_description", "meta_keywords", "author_id", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return model.Post{}, s.wrap("update post", err)
	}
	return p, nil
}

// DeletePost removes a post by id.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	return s.deleteByID(ctx, s.db, (*postRow)(nil), "delete post", id)
}

// checkSlug rejects a published post whose slug another published post
// already uses.
func (s *Store) checkSlug(ctx context.Context, p model.Post) error {
	if p.Slug == "" || !p.Published() {
		return nil
	}
	n, err := s.db.NewSelect().
		Model((*postRow)(nil)).
		Where("slug = ?", p.Slug).
		Where("status = ?", string(model.StatusPublished)).
		Where("id <> ?", p.ID).
		Count(ctx)
	if err != nil {
		return s.wrap("check slug", err)
	}
	if n > 0 {
		return model.ErrSlugExists
	}
	return nil
}

// Stats counts posts by status, books and categories.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	var err error
	if st.Published, err = s.db.NewSelect().Model((*postRow)(nil)).Where("status = ?", string(model.StatusPublished)).Count(ctx); err != nil {
		return st, s.wrap("count published", err)
	}
	if st.Drafts, err = s.db.NewSelect().Model((*postRow)(nil)).Where("status <> ?", string(model.StatusPublished)).Count(ctx); err != nil {
		return st, s.wrap("count drafts", err)
	}
	if st.Books, err = s.db.NewSelect().Model((*bookRow)(nil)).Count(ctx); err != nil {
		return st, s.wrap("count books", err)
	}
	if st.Categories, err = s.db.NewSelect().Model((*categoryRow)(nil)).Count(ctx); err != nil {
		return st, s.wrap("count categories", err)
	}
	return st, nil
}
