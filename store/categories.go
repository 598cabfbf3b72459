package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/eringen/opinions/model"
)

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	var rows []categoryRow
	if err := s.db.NewSelect().Model(&rows).Order("name ASC").Scan(ctx); err != nil {
		return nil, s.wrap("list categories", err)
	}
	cats := make([]model.Category, len(rows))
	for i := range rows {
		cats[i] = rows[i].category()
	}
	return cats, nil
}

// GetCategory returns a category by id.
func (s *Store) GetCategory(ctx context.Context, id string) (model.Category, error) {
	return s.getCategory(ctx, s.db, id)
}

func (s *Store) getCategory(ctx context.Context, db bun.IDB, id string) (model.Category, error) {
	row := new(categoryRow)
	if err := db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return model.Category{}, s.wrap("get category", err)
	}
	return row.category(), nil
}

// CreateCategory inserts c. Names are unique.
func (s *Store) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = s.stamp(c.CreatedAt)
	row := &categoryRow{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: encodeTime(c.CreatedAt)}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return model.Category{}, model.ErrNameExists
		}
		return model.Category{}, s.wrap("create category", err)
	}
	return c, nil
}

// UpdateCategory renames or redescribes a category. Posts filed under the
// old name follow the rename.
func (s *Store) UpdateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	var updated model.Category
	err := s.inTx(ctx, "update category", func(ctx context.Context, tx bun.Tx) error {
		old, err := s.getCategory(ctx, &tx, c.ID)
		if err != nil {
			return err
		}
		row := &categoryRow{ID: c.ID, Name: c.Name, Description: c.Description}
		if _, err := tx.NewUpdate().Model(row).Column("name", "description").WherePK().Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return model.ErrNameExists
			}
			return s.wrap("update category", err)
		}
		if old.Name != c.Name {
			if _, err := tx.NewUpdate().
				Table("posts").
				Set("category = ?", c.Name).
				Where("category = ?", old.Name).
				Exec(ctx); err != nil {
				return s.wrap("rename post category", err)
			}
		}
		updated = old
		updated.Name = c.Name
		updated.Description = c.Description
		return nil
	})
	return updated, err
}

// DeleteCategory removes a category unless a post still references its name,
// in which case model.ErrCategoryInUse is returned and nothing is deleted.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.inTx(ctx, "delete category", func(ctx context.Context, tx bun.Tx) error {
		c, err := s.getCategory(ctx, &tx, id)
		if err != nil {
			return err
		}
		n, err := tx.NewSelect().Model((*postRow)(nil)).Where("category = ?", c.Name).Count(ctx)
		if err != nil {
			return s.wrap("count category posts", err)
		}
		if n > 0 {
			return model.ErrCategoryInUse
		}
		return s.deleteByID(ctx, &tx, (*categoryRow)(nil), "delete category", id)
	})
}
