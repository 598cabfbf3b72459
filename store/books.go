package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/eringen/opinions/model"
)

// GetBook returns a book by id.
func (s *Store) GetBook(ctx context.Context, id string) (model.Book, error) {
	row := new(bookRow)
	if err := s.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return model.Book{}, s.wrap("get book", err)
	}
	return row.book(), nil
}

// ListBooks returns books newest first. A non-empty search keeps only books
// whose title or author contains it literally, ignoring case. Limit 0 means
// no limit.
func (s *Store) ListBooks(ctx context.Context, search string, limit int) ([]model.Book, error) {
	var rows []bookRow
	q := s.db.NewSelect().Model(&rows).Order("created_at DESC", "id DESC")
	if search = strings.TrimSpace(search); search != "" {
		pattern := containsPattern(search)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where(`lower(title) LIKE ? ESCAPE '\'`, pattern).
				WhereOr(`lower(author) LIKE ? ESCAPE '\'`, pattern)
		})
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, s.wrap("list books", err)
	}
	books := make([]model.Book, len(rows))
	for i := range rows {
		books[i] = rows[i].book()
	}
	return books, nil
}

// CreateBook inserts b, assigning its id and creation time.
func (s *Store) CreateBook(ctx context.Context, b model.Book) (model.Book, error) {
	b.ID = uuid.NewString()
	b.CreatedAt = s.stamp(b.CreatedAt)
	if b.DownloadURL == "" {
		b.DownloadURL = model.DefaultDownloadURL
	}
	if _, err := s.db.NewInsert().Model(newBookRow(b)).Exec(ctx); err != nil {
		return model.Book{}, s.wrap("create book", err)
	}
	return b, nil
}

// UpdateBook overwrites the editable fields of the book with b.ID.
func (s *Store) UpdateBook(ctx context.Context, b model.Book) (model.Book, error) {
	if b.DownloadURL == "" {
		b.DownloadURL = model.DefaultDownloadURL
	}
	res, err := s.db.NewUpdate().
		Model(newBookRow(b)).
		Column("title", "author", "description", "is_markdown", "cover_url", "download_url").
		WherePK().
		Exec(ctx)
	if err != nil {
		return model.Book{}, s.wrap("update book", err)
	}
	if err := s.affected(res, "update book"); err != nil {
		return model.Book{}, err
	}
	return s.GetBook(ctx, b.ID)
}

// DeleteBook removes a book and its reviews.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	return s.inTx(ctx, "delete book", func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*reviewRow)(nil)).Where("book_id = ?", id).Exec(ctx); err != nil {
			return s.wrap("delete reviews", err)
		}
		return s.deleteByID(ctx, &tx, (*bookRow)(nil), "delete book", id)
	})
}
