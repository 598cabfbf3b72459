// Package auth resolves who is calling and whether they may use the admin
// area. Sessions are injected per request; the Gate itself holds no
// per-caller state.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/opinions/model"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccessDenied       = errors.New("auth: access denied")
	ErrSessionExpired     = errors.New("auth: session expired")
)

// Message returns the user-facing text for an authentication error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrAccessDenied):
		return "Access denied. Only administrators can access this area."
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	default:
		return "Could not verify your account. Please try again."
	}
}

// Session is the per-request view of the caller's signed session.
type Session interface {
	// UserID is empty when nobody is signed in.
	UserID() string
	SignedInAt() time.Time
	Start(userID string, at time.Time) error
	Clear() error
}

// Store is the slice of the data store the gate reads.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetProfile(ctx context.Context, id string) (model.Profile, error)
	ListRoleGrants(ctx context.Context, userID string) ([]model.RoleGrant, error)
}

// Caller is the resolved identity of a request. The zero value is anonymous.
type Caller struct {
	UserID  string
	Profile model.Profile
	Roles   RoleSet
}

func (c Caller) Anonymous() bool { return c.UserID == "" }

func (c Caller) IsAdmin() bool { return !c.Anonymous() && c.Roles.Has(RoleAdmin) }

// Decision is the outcome of guarding a protected view. Loading is the zero
// value and means no decision has been reached.
type Decision int

const (
	Loading Decision = iota
	Authorized
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "loading"
	}
}

// Gate authenticates admins and guards protected views.
type Gate struct {
	store  Store
	logger echo.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewGate returns a Gate over store. Sessions older than ttl are expired;
// a zero ttl never expires them. A nil logger discards output.
func NewGate(store Store, logger echo.Logger, ttl time.Duration) *Gate {
	if logger == nil {
		l := log.New("auth")
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Gate{store: store, logger: logger, ttl: ttl, now: time.Now}
}

// ResolveSession returns the caller named by s, or an anonymous caller when
// s is empty. Stale sessions and sessions of deleted users are cleared and
// reported as ErrSessionExpired.
func (g *Gate) ResolveSession(ctx context.Context, s Session) (Caller, error) {
	id := s.UserID()
	if id == "" {
		return Caller{}, nil
	}
	if g.ttl > 0 && g.now().Sub(s.SignedInAt()) > g.ttl {
		g.logger.Infof("auth: session of %s expired", id)
		return Caller{}, g.expire(s)
	}
	profile, err := g.store.GetProfile(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		g.logger.Warnf("auth: session names unknown user %s", id)
		return Caller{}, g.expire(s)
	}
	if err != nil {
		return Caller{}, fmt.Errorf("auth: fetch profile: %w", err)
	}
	roles, err := g.ResolveRole(ctx, id)
	if err != nil {
		return Caller{}, err
	}
	return Caller{UserID: id, Profile: profile, Roles: roles}, nil
}

func (g *Gate) expire(s Session) error {
	if err := s.Clear(); err != nil {
		return fmt.Errorf("auth: clear session: %w", err)
	}
	return ErrSessionExpired
}

// ResolveRole reads the role grants of a user. Unknown role strings are
// logged and skipped.
func (g *Gate) ResolveRole(ctx context.Context, userID string) (RoleSet, error) {
	grants, err := g.store.ListRoleGrants(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("auth: fetch roles: %w", err)
	}
	var set RoleSet
	for _, grant := range grants {
		r, ok := ParseRole(grant.Role)
		if !ok {
			g.logger.Warnf("auth: ignoring unknown role %q for %s", grant.Role, userID)
			continue
		}
		set = set.With(r)
	}
	return set, nil
}

// Authenticate checks email and password, starts a session and verifies the
// user is an admin. A non-admin, or a user whose roles cannot be read, is
// signed out again before the error is returned.
func (g *Gate) Authenticate(ctx context.Context, s Session, email, password string) (Caller, error) {
	u, err := g.store.GetUserByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		// Burn the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		g.logger.Infof("auth: login failed for %q", email)
		return Caller{}, ErrInvalidCredentials
	}
	if err != nil {
		return Caller{}, fmt.Errorf("auth: fetch user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		g.logger.Infof("auth: login failed for %q", email)
		return Caller{}, ErrInvalidCredentials
	}
	if err := s.Start(u.ID, g.now()); err != nil {
		return Caller{}, fmt.Errorf("auth: start session: %w", err)
	}

	roles, err := g.ResolveRole(ctx, u.ID)
	if err != nil {
		g.logger.Errorf("auth: could not verify role of %s: %v", u.ID, err)
		if serr := g.SignOut(ctx, s); serr != nil {
			return Caller{}, errors.Join(err, serr)
		}
		return Caller{}, err
	}
	if !roles.Has(RoleAdmin) {
		g.logger.Infof("auth: %s is not an admin, signing out", u.Email)
		if err := g.SignOut(ctx, s); err != nil {
			return Caller{}, errors.Join(ErrAccessDenied, err)
		}
		return Caller{}, ErrAccessDenied
	}

	profile, err := g.store.GetProfile(ctx, u.ID)
	if err != nil {
		g.logger.Warnf("auth: no profile for %s: %v", u.ID, err)
		profile = model.Profile{ID: u.ID, Email: u.Email}
	}
	g.logger.Infof("auth: %s signed in", u.Email)
	return Caller{UserID: u.ID, Profile: profile, Roles: roles}, nil
}

// SignOut ends the session.
func (g *Gate) SignOut(ctx context.Context, s Session) error {
	id := s.UserID()
	if err := s.Clear(); err != nil {
		return fmt.Errorf("auth: clear session: %w", err)
	}
	if id != "" {
		g.logger.Infof("auth: %s signed out", id)
	}
	return nil
}

// Guard resolves the session and decides whether the caller may see an
// admin-only view. Redirect decisions may carry the reason as err
// (ErrSessionExpired or ErrAccessDenied). Any other error leaves the
// decision at Loading.
func (g *Gate) Guard(ctx context.Context, s Session) (Caller, Decision, error) {
	caller, err := g.ResolveSession(ctx, s)
	switch {
	case errors.Is(err, ErrSessionExpired):
		return Caller{}, RedirectLogin, err
	case err != nil:
		return Caller{}, Loading, err
	case caller.Anonymous():
		return Caller{}, RedirectLogin, nil
	case !caller.IsAdmin():
		return caller, RedirectHome, ErrAccessDenied
	default:
		return caller, Authorized, nil
	}
}

// Authorize is Guard without the caller.
func (g *Gate) Authorize(ctx context.Context, s Session) (Decision, error) {
	_, d, err := g.Guard(ctx, s)
	return d, err
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(b), nil
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("opinions-dummy-password"), bcrypt.DefaultCost)
	})
	return dummy
}
