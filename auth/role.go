package auth

import "strings"

// Role is a named permission level granted to a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleReader Role = "reader"
)

var knownRoles = []Role{RoleAdmin, RoleEditor, RoleReader}

// ParseRole maps a stored role string to a Role. The boolean is false for
// strings that name no known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range knownRoles {
		if r == k {
			return r, true
		}
	}
	return "", false
}

// RoleSet is a set of known roles, one bit per role.
type RoleSet uint8

func roleBit(r Role) RoleSet {
	for i, k := range knownRoles {
		if r == k {
			return 1 << i
		}
	}
	return 0
}

// NewRoleSet builds a set from roles. Unknown roles are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.With(r)
	}
	return s
}

// With returns s plus r.
func (s RoleSet) With(r Role) RoleSet {
	return s | roleBit(r)
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	b := roleBit(r)
	return b != 0 && s&b != 0
}

// Roles lists the members in declaration order.
func (s RoleSet) Roles() []Role {
	var out []Role
	for _, r := range knownRoles {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) String() string {
	roles := s.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ",")
}
