package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for authentication and authorization failures. Every
// denial is terminal for the request: nothing here is retried or
// recovered locally.
var (
	// ErrMissingToken indicates that no bearer value was present or the
	// Authorization header was not of the form "Bearer <token>".
	ErrMissingToken = errors.New("auth: missing bearer token")

	// ErrInvalidSignature indicates that the token signature does not
	// match, or the token is otherwise malformed.
	ErrInvalidSignature = errors.New("auth: token signature is invalid")

	// ErrTokenExpired indicates that the token expiry has passed.
	ErrTokenExpired = errors.New("auth: token has expired")

	// ErrInvalidClaims indicates a claim set that violates the
	// structural invariants (at issuance, or decoded from a token).
	ErrInvalidClaims = errors.New("auth: invalid claims")

	// ErrRoleForbidden indicates that the principal's role is not in
	// the route's allow-list.
	ErrRoleForbidden = errors.New("auth: role not allowed")

	// ErrPermissionForbidden indicates that the principal's role lacks
	// the required permission.
	ErrPermissionForbidden = errors.New("auth: permission denied")

	// ErrTenantForbidden indicates that the principal may not access
	// the requested company's records.
	ErrTenantForbidden = errors.New("auth: company access denied")

	// ErrRoleNotFound indicates a role with no catalog entry. During an
	// authorization check it is treated like any other denial (fail
	// closed), never as a server error.
	ErrRoleNotFound = errors.New("auth: role not found")

	// ErrMissingSecret indicates that no signing secret was configured.
	// This is a fatal startup condition, not a per-request error.
	ErrMissingSecret = errors.New("auth: signing secret is not configured")

	// ErrInvalidCredentials indicates a failed login: unknown username
	// or wrong password, deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrAccountDisabled indicates a login or refresh attempt against a
	// deactivated account.
	ErrAccountDisabled = errors.New("auth: account is disabled")

	// ErrUserNotFound is returned by credential stores when no record
	// matches. Session flows translate it into ErrInvalidCredentials
	// before it reaches a caller.
	ErrUserNotFound = errors.New("auth: user not found")
)

// RoleDeniedError is the denial returned by role allow-list checks. It
// carries the allow-list and the principal's role so HTTP surfaces can
// echo them in the 403 body as a diagnostic aid.
type RoleDeniedError struct {
	Required []Role
	Got      Role
}

func (e *RoleDeniedError) Error() string {
	return fmt.Sprintf("auth: role %q not allowed, requires one of %v", e.Got, e.Required)
}

func (e *RoleDeniedError) Unwrap() error { return ErrRoleForbidden }

// StatusCode maps a denial to its HTTP status: 401 for identity
// failures (no, invalid, or expired token; failed login), 403 for
// authorization failures (valid token, insufficient role, permission,
// or tenant match). Anything else is a server-side fault.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrInvalidClaims),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountDisabled):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRoleForbidden),
		errors.Is(err, ErrPermissionForbidden),
		errors.Is(err, ErrTenantForbidden),
		errors.Is(err, ErrRoleNotFound):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
