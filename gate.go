// Package auth provides the authorization core for the occupational-health
// platform: token-backed identity claims, a closed role model, and the
// predicates every protected route consults before touching data.
//
// The package is framework-agnostic. Token mechanics live in token/, the
// role → permission catalog in catalog/, and per-framework adapters under
// middleware/. Concrete implementations are injected into the Gate at
// startup, keeping single-instance-per-process semantics without hidden
// globals.
//
// Example:
//
//	signer, err := token.New(token.Config{Secret: secret})
//	if err != nil {
//	    log.Fatal(err) // a missing secret is a startup fault
//	}
//	gate, err := auth.NewGate(signer, catalog.Default())
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Gate is the single authorization entry point: it authenticates bearer
// credentials and decides whether the resulting identity may perform a
// requested action. Routes must not re-derive role checks inline; they
// go through the Gate's predicates.
//
// All predicates are synchronous, non-blocking functions over the
// verified claims and the static catalog. They perform no I/O, hold no
// shared mutable state, and every failure is terminal for the request.
type Gate struct {
	verifier TokenVerifier
	perms    PermissionChecker
	logger   *slog.Logger
}

// Option configures the Gate.
type Option func(*Gate)

// WithLogger sets a structured logger for denial diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// NewGate creates a Gate from its two collaborators: a token verifier
// and a permission checker (normally catalog.Default()).
func NewGate(verifier TokenVerifier, perms PermissionChecker, opts ...Option) (*Gate, error) {
	if verifier == nil {
		return nil, fmt.Errorf("auth: a token verifier is required")
	}
	if perms == nil {
		return nil, fmt.Errorf("auth: a permission checker is required")
	}

	g := &Gate{
		verifier: verifier,
		perms:    perms,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// BearerToken extracts the token from an Authorization header value.
// Fails with ErrMissingToken unless the value is "Bearer <token>".
func BearerToken(authorization string) (string, error) {
	if authorization == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrMissingToken)
	}
	return parts[1], nil
}

// Authenticate extracts the bearer token from an Authorization header
// value and verifies it, returning the claims exactly as issued.
// Failure order: missing token, invalid signature, expired.
func (g *Gate) Authenticate(authorization string) (*Claims, error) {
	tok, err := BearerToken(authorization)
	if err != nil {
		return nil, err
	}

	claims, err := g.verifier.Verify(tok)
	if err != nil {
		g.logger.Debug("token rejected", "error", err)
		return nil, err
	}
	return claims, nil
}

// RequireRole fails with a RoleDeniedError unless the claims' role is
// in the allow-list. Used for coarse endpoint gating.
func (g *Gate) RequireRole(claims *Claims, allowed ...Role) error {
	for _, r := range allowed {
		if claims.Role == r {
			return nil
		}
	}
	g.logger.Debug("role denied",
		"subject", claims.SubjectID, "role", claims.Role, "required", allowed)
	return &RoleDeniedError{Required: allowed, Got: claims.Role}
}

// RequirePermission fails with ErrPermissionForbidden unless the
// catalog grants the permission to the claims' role. A role without a
// catalog entry is denied, never surfaced as a server error.
func (g *Gate) RequirePermission(claims *Claims, permission string) error {
	if g.perms.HasPermission(claims.Role, permission) {
		return nil
	}
	g.logger.Debug("permission denied",
		"subject", claims.SubjectID, "role", claims.Role, "permission", permission)
	return fmt.Errorf("%w: role %q lacks %q", ErrPermissionForbidden, claims.Role, permission)
}

// RequireWriteAccess applies the platform-wide destructive-write rule:
// any DELETE request additionally requires administrador, no matter
// which endpoint-level checks already passed. It tightens route checks,
// it never replaces them.
func (g *Gate) RequireWriteAccess(claims *Claims, method string) error {
	if !strings.EqualFold(method, http.MethodDelete) {
		return nil
	}
	if claims.Role == RoleAdministrador {
		return nil
	}
	g.logger.Debug("delete denied",
		"subject", claims.SubjectID, "role", claims.Role)
	return &RoleDeniedError{Required: []Role{RoleAdministrador}, Got: claims.Role}
}

// RequireTenantAccess decides whether the principal may touch the
// requested company's records: staff roles pass unconditionally,
// empresa passes only for its own company, every other role is denied.
// This is the only predicate comparing claims against request data.
func (g *Gate) RequireTenantAccess(claims *Claims, companyID int) error {
	if claims.Role.IsStaff() {
		return nil
	}
	if claims.Role == RoleEmpresa && claims.CompanyID == companyID {
		return nil
	}
	g.logger.Debug("company access denied",
		"subject", claims.SubjectID, "role", claims.Role,
		"company", claims.CompanyID, "requested", companyID)
	return fmt.Errorf("%w: role %q, company %d", ErrTenantForbidden, claims.Role, companyID)
}
