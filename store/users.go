package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/eringen/opinions/model"
)

var errEmptyRole = errors.New("store: empty role name")

// NormalizeEmail lower-cases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts a user, its profile and its role grants in one
// transaction. Nothing is stored when any of them fails.
func (s *Store) CreateUser(ctx context.Context, u model.User, p model.Profile, roles ...string) (model.User, error) {
	u.ID = uuid.NewString()
	u.Email = NormalizeEmail(u.Email)
	u.CreatedAt = s.stamp(u.CreatedAt)
	err := s.inTx(ctx, "create user", func(ctx context.Context, tx bun.Tx) error {
		user := &userRow{ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash, CreatedAt: encodeTime(u.CreatedAt)}
		if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return model.ErrEmailExists
			}
			return s.wrap("create user", err)
		}
		profile := &profileRow{ID: u.ID, Email: u.Email, FullName: p.FullName, AvatarURL: p.AvatarURL}
		if _, err := tx.NewInsert().Model(profile).Exec(ctx); err != nil {
			return s.wrap("create profile", err)
		}
		for _, role := range roles {
			if err := s.grantRole(ctx, &tx, u.ID, role); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// SetPassword replaces the password hash of a user.
func (s *Store) SetPassword(ctx context.Context, userID, hash string) error {
	res, err := s.db.NewUpdate().
		Table("users").
		Set("password_hash = ?", hash).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return s.wrap("set password", err)
	}
	return s.affected(res, "set password")
}

func (s *Store) getUser(ctx context.Context, where string, value string) (model.User, error) {
	row := new(userRow)
	if err := s.db.NewSelect().Model(row).Where(where, value).Scan(ctx); err != nil {
		return model.User{}, s.wrap("get user", err)
	}
	return row.user(), nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByEmail returns a user by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.getUser(ctx, "email = ?", NormalizeEmail(email))
}

// GetProfile returns the profile of a user.
func (s *Store) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	row := new(profileRow)
	if err := s.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return model.Profile{}, s.wrap("get profile", err)
	}
	return model.Profile{ID: row.ID, Email: row.Email, FullName: row.FullName, AvatarURL: row.AvatarURL}, nil
}

// ListRoleGrants returns the role grants of a user.
func (s *Store) ListRoleGrants(ctx context.Context, userID string) ([]model.RoleGrant, error) {
	var rows []roleGrantRow
	if err := s.db.NewSelect().Model(&rows).Where("user_id = ?", userID).Order("role ASC").Scan(ctx); err != nil {
		return nil, s.wrap("list role grants", err)
	}
	grants := make([]model.RoleGrant, len(rows))
	for i, r := range rows {
		grants[i] = model.RoleGrant{UserID: r.UserID, Role: r.Role}
	}
	return grants, nil
}

// GrantRole records a role for a user. Granting an existing role is a no-op.
func (s *Store) GrantRole(ctx context.Context, userID, role string) error {
	return s.grantRole(ctx, s.db, userID, role)
}

func (s *Store) grantRole(ctx context.Context, db bun.IDB, userID, role string) error {
	if role == "" {
		return errEmptyRole
	}
	row := &roleGrantRow{UserID: userID, Role: role}
	if _, err := db.NewInsert().Model(row).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
		return s.wrap("grant role", err)
	}
	return nil
}

// RevokeRole removes a role from a user.
func (s *Store) RevokeRole(ctx context.Context, userID, role string) error {
	if _, err := s.db.NewDelete().
		Model((*roleGrantRow)(nil)).
		Where("user_id = ?", userID).
		Where("role = ?", role).
		Exec(ctx); err != nil {
		return s.wrap("revoke role", err)
	}
	return nil
}
