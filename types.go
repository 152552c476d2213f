package auth

import "fmt"

// Role is a fixed category of principal governing default access.
// The enumeration is closed: every role carried by a token must be one
// of the five platform roles, and unknown strings are rejected at parse
// time rather than silently carried along.
type Role string

const (
	RoleAdministrador Role = "administrador"
	RoleAdmisionista  Role = "admisionista"
	RoleTecnico       Role = "tecnico"
	RoleEmpresa       Role = "empresa"
	RoleMedico        Role = "medico"
)

// Roles returns every known role in declaration order.
func Roles() []Role {
	return []Role{
		RoleAdministrador,
		RoleAdmisionista,
		RoleTecnico,
		RoleEmpresa,
		RoleMedico,
	}
}

// ParseRole converts a raw string into a Role. Unknown strings fail
// closed with ErrRoleNotFound.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrRoleNotFound, s)
	}
	return r, nil
}

// Valid reports whether the role is one of the five platform roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrador, RoleAdmisionista, RoleTecnico, RoleEmpresa, RoleMedico:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// IsStaff reports whether the role is one of the internal staff roles
// (administrador, admisionista, tecnico). Staff roles are not scoped to
// a company and pass tenant checks unconditionally.
func (r Role) IsStaff() bool {
	return r == RoleAdministrador || r == RoleAdmisionista || r == RoleTecnico
}

// Claims is the decoded, signed payload identifying a request's
// principal. Claims are immutable once issued: a role change requires a
// new token, obtained at login or refresh.
type Claims struct {
	// SubjectID is the authenticated principal's unique id.
	SubjectID int

	// Username is the principal's login name.
	Username string

	// Role is the principal's platform role.
	Role Role

	// CompanyID scopes visibility to one company's records.
	// Set if and only if Role == RoleEmpresa.
	CompanyID int
}

// Validate checks the structural invariants of a claim set. It is
// called before issuance; verified tokens carry claims that already
// passed it.
func (c *Claims) Validate() error {
	if c.SubjectID <= 0 {
		return fmt.Errorf("%w: subject id must be positive", ErrInvalidClaims)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidClaims)
	}
	if !c.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidClaims, c.Role)
	}
	if c.Role == RoleEmpresa && c.CompanyID <= 0 {
		return fmt.Errorf("%w: empresa claims require a company id", ErrInvalidClaims)
	}
	if c.Role != RoleEmpresa && c.CompanyID != 0 {
		return fmt.Errorf("%w: company id is reserved for empresa claims", ErrInvalidClaims)
	}
	return nil
}

// UserRecord is the persisted account shape the credential store
// returns. It is consulted only at login and refresh time; token
// verification never goes back to storage.
type UserRecord struct {
	ID           int
	Username     string
	PasswordHash string
	Role         Role
	CompanyID    int
	Active       bool
}

// Claims derives a claim set from the current persisted record.
func (u *UserRecord) Claims() *Claims {
	c := &Claims{
		SubjectID: u.ID,
		Username:  u.Username,
		Role:      u.Role,
	}
	if u.Role == RoleEmpresa {
		c.CompanyID = u.CompanyID
	}
	return c
}
