package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/eringen/opinions/model"
)

// ListReviews returns the reviews of a book, newest first.
func (s *Store) ListReviews(ctx context.Context, bookID string) ([]model.Review, error) {
	var rows []reviewRow
	if err := s.db.NewSelect().
		Model(&rows).
		Where("book_id = ?", bookID).
		Order("created_at DESC", "id DESC").
		Scan(ctx); err != nil {
		return nil, s.wrap("list reviews", err)
	}
	reviews := make([]model.Review, len(rows))
	for i := range rows {
		reviews[i] = rows[i].review()
	}
	return reviews, nil
}

// CreateReview inserts r for an existing book.
func (s *Store) CreateReview(ctx context.Context, r model.Review) (model.Review, error) {
	if _, err := s.GetBook(ctx, r.BookID); err != nil {
		return model.Review{}, err
	}
	r.ID = uuid.NewString()
	r.CreatedAt = s.stamp(r.CreatedAt)
	row := &reviewRow{
		ID:        r.ID,
		BookID:    r.BookID,
		Rating:    r.Rating,
		Content:   r.Content,
		Name:      r.Name,
		UserID:    r.UserID,
		CreatedAt: encodeTime(r.CreatedAt),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return model.Review{}, s.wrap("create review", err)
	}
	return r, nil
}
