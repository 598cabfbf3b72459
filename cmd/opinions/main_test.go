package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/opinions/auth"
	"github.com/eringen/opinions/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "opinions dev\n", out)
}

func TestParseRoles(t *testing.T) {
	roles, err := parseRoles([]string{"admin", " Editor "})
	require.NoError(t, err)
	assert.Equal(t, []auth.Role{auth.RoleAdmin, auth.RoleEditor}, roles)

	_, err = parseRoles([]string{"root"})
	assert.ErrorContains(t, err, `unknown role "root"`)
}

func TestUserAddAndGrant(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "opinions.db")
	t.Setenv("DATABASE_DRIVER", store.DriverSQLite)
	t.Setenv("DATABASE_URL", dbPath)

	out, err := execute(t, "user", "add", "--email", "me@example.test", "--password", "long-enough-pass", "--name", "Me", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "created user me@example.test")
	assert.Contains(t, out, "roles=admin")

	out, err = execute(t, "user", "grant", "me@example.test", "editor")
	require.NoError(t, err)
	assert.Contains(t, out, "granted editor to me@example.test")

	_, err = execute(t, "user", "grant", "me@example.test", "owner")
	assert.ErrorContains(t, err, `unknown role "owner"`)

	s, err := store.Open(store.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer s.Close()
	u, err := s.GetUserByEmail(context.Background(), "me@example.test")
	require.NoError(t, err)
	grants, err := s.ListRoleGrants(context.Background(), u.ID)
	require.NoError(t, err)
	var roles []string
	for _, g := range grants {
		roles = append(roles, g.Role)
	}
	assert.ElementsMatch(t, []string{"admin", "editor"}, roles)
}

func TestUserAddRequiresEmail(t *testing.T) {
	_, err := execute(t, "user", "add", "--password", "long-enough-pass")
	assert.ErrorContains(t, err, `required flag(s) "email" not set`)
}
