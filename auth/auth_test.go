package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/opinions/model"
)

type memSession struct {
	userID  string
	at      time.Time
	cleared int
}

func (m *memSession) UserID() string        { return m.userID }
func (m *memSession) SignedInAt() time.Time { return m.at }

func (m *memSession) Start(userID string, at time.Time) error {
	m.userID, m.at = userID, at
	return nil
}

func (m *memSession) Clear() error {
	m.userID, m.at = "", time.Time{}
	m.cleared++
	return nil
}

type fakeStore struct {
	users    map[string]model.User
	profiles map[string]model.Profile
	grants   map[string][]string
	roleErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]model.User{},
		profiles: map[string]model.Profile{},
		grants:   map[string][]string{},
	}
}

func (f *fakeStore) addUser(t *testing.T, id, email, password string, roles ...string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	f.users[email] = model.User{ID: id, Email: email, PasswordHash: string(hash)}
	f.profiles[id] = model.Profile{ID: id, Email: email, FullName: "User " + id}
	f.grants[id] = roles
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetProfile(_ context.Context, id string) (model.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return model.Profile{}, model.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListRoleGrants(_ context.Context, userID string) ([]model.RoleGrant, error) {
	if f.roleErr != nil {
		return nil, f.roleErr
	}
	var out []model.RoleGrant
	for _, r := range f.grants[userID] {
		out = append(out, model.RoleGrant{UserID: userID, Role: r})
	}
	return out, nil
}

func TestAuthenticateAdmin(t *testing.T) {
	st := newFakeStore()
	st.addUser(t, "u1", "admin@example.com", "secret", "admin")
	g := NewGate(st, nil, time.Hour)
	sess := &memSession{}

	caller, err := g.Authenticate(context.Background(), sess, "admin@example.com", "secret")
	require.NoError(t, err)
	assert.True(t, caller.IsAdmin())
	assert.Equal(t, "User u1", caller.Profile.DisplayName())
	assert.Equal(t, "u1", sess.UserID())

	d, err := g.Authorize(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, Authorized, d)
}

func TestAuthenticateNonAdminIsSignedOut(t *testing.T) {
	st := newFakeStore()
	st.addUser(t, "u2", "reader@example.com", "secret", "reader")
	g := NewGate(st, nil, time.Hour)
	sess := &memSession{}
	ctx := context.Background()

	_, err := g.Authenticate(ctx, sess, "reader@example.com", "secret")
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, 1, sess.cleared)

	caller, err := g.ResolveSession(ctx, sess)
	require.NoError(t, err)
	assert.True(t, caller.Anonymous())
}

func TestAuthenticateRoleLookupFailureSignsOut(t *testing.T) {
	st := newFakeStore()
	st.addUser(t, "u3", "x@example.com", "secret", "admin")
	st.roleErr = errors.New("connection reset")
	g := NewGate(st, nil, time.Hour)
	sess := &memSession{}

	_, err := g.Authenticate(context.Background(), sess, "x@example.com", "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, sess.UserID())
	assert.Equal(t, "Could not verify your account. Please try again.", Message(err))
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	st := newFakeStore()
	st.addUser(t, "u1", "admin@example.com", "secret", "admin")
	g := NewGate(st, nil, time.Hour)

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "admin@example.com", "nope"},
		{"unknown email", "ghost@example.com", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := &memSession{}
			_, err := g.Authenticate(context.Background(), sess, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Empty(t, sess.UserID())
		})
	}
}

func TestResolveSessionExpired(t *testing.T) {
	st := newFakeStore()
	st.addUser(t, "u1", "admin@example.com", "secret", "admin")
	g := NewGate(st, nil, time.Hour)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	sess := &memSession{userID: "u1", at: now.Add(-2 * time.Hour)}
	_, err := g.ResolveSession(context.Background(), sess)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, sess.UserID())

	sess = &memSession{userID: "u1", at: now.Add(-2 * time.Hour)}
	d, err := g.Authorize(context.Background(), sess)
	assert.Equal(t, RedirectLogin, d)
	assert.Equal(t, "Your session has expired. Please sign in again.", Message(err))
}

func TestResolveSessionDeletedUser(t *testing.T) {
	g := NewGate(newFakeStore(), nil, 0)
	sess := &memSession{userID: "gone", at: time.Now()}
	_, err := g.ResolveSession(context.Background(), sess)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, sess.cleared)
}

func TestResolveRoleIgnoresUnknown(t *testing.T) {
	st := newFakeStore()
	st.grants["u1"] = []string{"admin", "superhero", "Editor"}
	g := NewGate(st, nil, 0)

	roles, err := g.ResolveRole(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleAdmin, RoleEditor}, roles.Roles())
	assert.False(t, roles.Has(RoleReader))
	assert.Equal(t, "admin,editor", roles.String())
}

func TestAuthorizeDecisions(t *testing.T) {
	st := newFakeStore()
	st.addUser(t, "admin", "a@example.com", "pw", "admin")
	st.addUser(t, "reader", "r@example.com", "pw", "reader")
	g := NewGate(st, nil, 0)

	tests := []struct {
		name    string
		sess    *memSession
		want    Decision
		wantErr error
	}{
		{"anonymous", &memSession{}, RedirectLogin, nil},
		{"admin", &memSession{userID: "admin"}, Authorized, nil},
		{"non-admin", &memSession{userID: "reader"}, RedirectHome, ErrAccessDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := g.Authorize(context.Background(), tt.sess)
			assert.Equal(t, tt.want, d)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAuthorizeStoreFailureStaysLoading(t *testing.T) {
	st := newFakeStore()
	st.addUser(t, "u1", "a@example.com", "pw", "admin")
	st.roleErr = errors.New("db down")
	g := NewGate(st, nil, 0)

	d, err := g.Authorize(context.Background(), &memSession{userID: "u1"})
	assert.Error(t, err)
	assert.Equal(t, Loading, d)
}

func TestSignOut(t *testing.T) {
	g := NewGate(newFakeStore(), nil, 0)
	sess := &memSession{userID: "u1", at: time.Now()}
	require.NoError(t, g.SignOut(context.Background(), sess))
	assert.Empty(t, sess.UserID())
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Invalid email or password.", Message(ErrInvalidCredentials))
	assert.Equal(t, "Access denied. Only administrators can access this area.", Message(ErrAccessDenied))
	assert.Empty(t, Message(nil))
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw")))
}
