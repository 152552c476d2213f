// Package catalog is the single source of truth mapping each platform
// role to its display name and permission set.
//
// A Catalog is built once at process start and is immutable afterwards;
// changing role definitions requires a restart. Permission strings
// follow the "<resource>.<action>" convention and are validated at
// construction, so malformed grants are rejected at configuration time
// rather than silently denied at check time.
package catalog

import (
	"fmt"
	"regexp"

	auth "github.com/ocsalud/auth-go"
)

// Entry describes one role: its identifier, a human-readable label, and
// the permissions it grants.
type Entry struct {
	Role        auth.Role
	DisplayName string
	Permissions []string
}

// Catalog answers role → permission membership queries. Lookups for
// unknown roles fail closed.
type Catalog struct {
	order   []auth.Role
	entries map[auth.Role]entry
}

type entry struct {
	displayName string
	permissions []string        // declaration order, for listings
	grants      map[string]bool // membership checks
}

// compile-time check
var _ auth.PermissionChecker = (*Catalog)(nil)

var permissionPattern = regexp.MustCompile(`^[a-z]+(?:_[a-z]+)*\.[a-z]+(?:_[a-z]+)*$`)

// New builds a Catalog from the given entries. It rejects unknown
// roles, duplicate entries, and permission strings that do not follow
// the "<resource>.<action>" convention.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[auth.Role]entry, len(entries))}

	for _, e := range entries {
		if !e.Role.Valid() {
			return nil, fmt.Errorf("auth/catalog: unknown role %q", e.Role)
		}
		if _, dup := c.entries[e.Role]; dup {
			return nil, fmt.Errorf("auth/catalog: duplicate entry for role %q", e.Role)
		}

		grants := make(map[string]bool, len(e.Permissions))
		perms := make([]string, 0, len(e.Permissions))
		for _, p := range e.Permissions {
			if !permissionPattern.MatchString(p) {
				return nil, fmt.Errorf("auth/catalog: malformed permission %q for role %q", p, e.Role)
			}
			if grants[p] {
				return nil, fmt.Errorf("auth/catalog: duplicate permission %q for role %q", p, e.Role)
			}
			grants[p] = true
			perms = append(perms, p)
		}

		c.order = append(c.order, e.Role)
		c.entries[e.Role] = entry{
			displayName: e.DisplayName,
			permissions: perms,
			grants:      grants,
		}
	}

	return c, nil
}

// Get returns the entry for a role, or auth.ErrRoleNotFound.
func (c *Catalog) Get(role auth.Role) (Entry, error) {
	e, ok := c.entries[role]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", auth.ErrRoleNotFound, role)
	}
	return Entry{
		Role:        role,
		DisplayName: e.displayName,
		Permissions: append([]string(nil), e.permissions...),
	}, nil
}

// List returns every entry in declaration order. Used for admin-facing
// role listings.
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, r := range c.order {
		e, _ := c.Get(r)
		out = append(out, e)
	}
	return out
}

// HasPermission reports whether the role grants the permission. Unknown
// roles and unknown permission strings are false, never an error:
// unknown always means denied.
func (c *Catalog) HasPermission(role auth.Role, permission string) bool {
	e, ok := c.entries[role]
	if !ok {
		return false
	}
	return e.grants[permission]
}
