// Package token issues and verifies the platform's HS256 session
// tokens over a process-wide secret.
//
// Two lifetimes are issued on purpose: short-lived access tokens and
// longer-lived refresh tokens. Once issued, a token stays valid until
// its expiry; there is no server-side revocation, so logout is a
// client-side operation and a role change only takes effect on the next
// login or refresh.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	auth "github.com/ocsalud/auth-go"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Config holds signing configuration. The secret comes from
// environment configuration at startup; its absence is fatal.
type Config struct {
	// Secret is the HMAC signing key. Required.
	Secret []byte

	// Issuer is recorded in the iss claim. Optional.
	Issuer string

	// AccessTTL overrides the access token lifetime. Default 24h.
	AccessTTL time.Duration

	// RefreshTTL overrides the refresh token lifetime. Default 7d.
	RefreshTTL time.Duration
}

// Service signs and verifies tokens. Both operations are synchronous
// and CPU-bound; neither performs I/O.
type Service struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// compile-time checks
var (
	_ auth.TokenIssuer   = (*Service)(nil)
	_ auth.TokenVerifier = (*Service)(nil)
)

// Option configures the Service.
type Option func(*Service)

// WithClock sets the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a token service. Fails with auth.ErrMissingSecret when no
// secret is configured; callers must treat that as a fatal startup
// error, not a per-request one.
func New(cfg Config, opts ...Option) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, auth.ErrMissingSecret
	}

	s := &Service{
		secret:     cfg.Secret,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	if s.accessTTL == 0 {
		s.accessTTL = DefaultAccessTTL
	}
	if s.refreshTTL == 0 {
		s.refreshTTL = DefaultRefreshTTL
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// wireClaims is the JSON shape carried inside tokens. The custom keys
// match the platform's wire names.
type wireClaims struct {
	SubjectID int    `json:"id_usuario"`
	Username  string `json:"usuario"`
	Role      string `json:"rol"`
	CompanyID int    `json:"id_empresa,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs the claims with expiry now+ttl. The claims are validated
// first: a claim set violating the structural invariants is never
// signed.
func (s *Service) Issue(claims *auth.Claims, ttl time.Duration) (string, error) {
	if err := claims.Validate(); err != nil {
		return "", err
	}

	now := s.now()
	wc := wireClaims{
		SubjectID: claims.SubjectID,
		Username:  claims.Username,
		Role:      claims.Role.String(),
		CompanyID: claims.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", claims.SubjectID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wc).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth/token: sign: %w", err)
	}
	return signed, nil
}

// IssueAccessToken signs an access token with the configured access
// lifetime.
func (s *Service) IssueAccessToken(claims *auth.Claims) (string, error) {
	return s.Issue(claims, s.accessTTL)
}

// IssueRefreshToken signs a refresh token with the configured refresh
// lifetime.
func (s *Service) IssueRefreshToken(claims *auth.Claims) (string, error) {
	return s.Issue(claims, s.refreshTTL)
}

// Verify validates a token string and returns the claims exactly as
// issued. Failures map onto the auth sentinels: a bad or malformed
// signature is auth.ErrInvalidSignature, a passed expiry is
// auth.ErrTokenExpired.
func (s *Service) Verify(tokenString string) (*auth.Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var wc wireClaims
	tok, err := parser.ParseWithClaims(tokenString, &wc, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", auth.ErrInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", auth.ErrTokenExpired, err)
		default:
			return nil, fmt.Errorf("%w: %v", auth.ErrInvalidSignature, err)
		}
	}
	if !tok.Valid {
		return nil, auth.ErrInvalidSignature
	}

	role, err := auth.ParseRole(wc.Role)
	if err != nil {
		// A signed token carrying a role outside the enumeration was
		// issued under an older role model; reject it like any other
		// bad credential.
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidClaims, err)
	}

	claims := &auth.Claims{
		SubjectID: wc.SubjectID,
		Username:  wc.Username,
		Role:      role,
		CompanyID: wc.CompanyID,
	}
	if err := claims.Validate(); err != nil {
		return nil, err
	}
	return claims, nil
}
