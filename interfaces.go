package auth

import "context"

// TokenVerifier validates a signed token and returns the claims exactly
// as issued. Verification is stateless: it never re-derives claims from
// storage, so role or activation changes only take effect at login or
// refresh time.
// Implementations: token/ (HS256), used by Gate and session flows.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// TokenIssuer signs claim sets into bearer tokens. Access and refresh
// tokens carry different lifetimes by design.
type TokenIssuer interface {
	IssueAccessToken(claims *Claims) (string, error)
	IssueRefreshToken(claims *Claims) (string, error)
}

// PermissionChecker answers role → permission membership queries.
// Unknown roles and unknown permission strings always mean denied,
// never granted.
// Implementations: catalog/ (static role catalog).
type PermissionChecker interface {
	HasPermission(role Role, permission string) bool
}

// CredentialStore looks up persisted accounts. It is consulted only
// during login and refresh, never inside token verification.
// Implementations: credentials/ (Postgres), fake/ (testing).
type CredentialStore interface {
	// FindByUsername returns the record for a login name, or
	// ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*UserRecord, error)

	// FindByID returns the record for a subject id, or ErrUserNotFound.
	// Refresh re-derives claims through it so a deactivated account
	// cannot renew its session.
	FindByID(ctx context.Context, id int) (*UserRecord, error)

	// VerifyPassword reports whether a plaintext password matches a
	// stored hash.
	VerifyPassword(plain, hash string) bool
}
