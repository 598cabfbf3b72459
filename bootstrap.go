package opinions

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/eringen/opinions/auth"
	"github.com/eringen/opinions/model"
	"github.com/eringen/opinions/store"
)

// NewUser describes an account created from the command line or on boot.
type NewUser struct {
	Email    string
	Password string
	Name     string
	Roles    []auth.Role
}

func (u NewUser) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Email, validation.Required.Error("Email is required")),
		validation.Field(&u.Password,
			validation.Required.Error("Password is required"),
			validation.RuneLength(8, 0).Error("Password must be at least 8 characters"),
		),
	)
}

// CreateUser validates u and stores the account with a bcrypt hash. The
// account and its roles are written together or not at all.
func CreateUser(ctx context.Context, s *store.Store, u NewUser) (model.User, error) {
	if err := u.Validate(); err != nil {
		return model.User{}, err
	}
	hash, err := auth.HashPassword(u.Password)
	if err != nil {
		return model.User{}, err
	}
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	user, err := s.CreateUser(ctx,
		model.User{Email: u.Email, PasswordHash: hash},
		model.Profile{FullName: u.Name},
		roles...)
	if err != nil {
		return model.User{}, fmt.Errorf("opinions: create user %s: %w", u.Email, err)
	}
	return user, nil
}

// bootstrapAdmin makes sure the configured admin account exists and holds
// the admin role. An existing password is left untouched.
func (a *App) bootstrapAdmin(ctx context.Context) error {
	if a.Config.AdminEmail == "" {
		return nil
	}
	logger := a.Echo.Logger

	existing, err := a.Store.GetUserByEmail(ctx, a.Config.AdminEmail)
	switch {
	case err == nil:
		if err := a.Store.GrantRole(ctx, existing.ID, string(auth.RoleAdmin)); err != nil {
			return err
		}
		logger.Debugf("admin %s already present", existing.Email)
		return nil
	case !errors.Is(err, model.ErrNotFound):
		return err
	}

	user, err := CreateUser(ctx, a.Store, NewUser{
		Email:    a.Config.AdminEmail,
		Password: a.Config.AdminPassword,
		Name:     a.Config.Author,
		Roles:    []auth.Role{auth.RoleAdmin},
	})
	if err != nil {
		return err
	}
	logger.Infof("created admin account %s", user.Email)
	return nil
}
