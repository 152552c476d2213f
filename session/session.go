// Package session implements login and refresh for the platform.
//
// Claims are created here and only here: at login, from the verified
// credential, and at refresh, re-derived from the current persisted
// record rather than copied out of the old token. That is what keeps a
// deactivated account from renewing its session, and what makes role
// changes take effect on the next refresh.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	auth "github.com/ocsalud/auth-go"
	"github.com/ocsalud/auth-go/audit"
	"github.com/ocsalud/auth-go/metrics"
)

// TokenPair is the response shape for login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service runs the login and refresh flows against a credential store
// and a token issuer.
type Service struct {
	store    auth.CredentialStore
	issuer   auth.TokenIssuer
	verifier auth.TokenVerifier
	logger   *slog.Logger
	audit    *audit.Logger
	metrics  *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithAudit sets an audit logger receiving login and refresh events.
func WithAudit(a *audit.Logger) Option {
	return func(s *Service) { s.audit = a }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a session service.
func New(store auth.CredentialStore, issuer auth.TokenIssuer, verifier auth.TokenVerifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		issuer:   issuer,
		verifier: verifier,
		logger:   slog.New(slog.DiscardHandler),
		metrics:  metrics.New(false),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login verifies a username/password pair against the credential store
// and issues a fresh token pair. Unknown usernames and wrong passwords
// are both reported as auth.ErrInvalidCredentials; only a deactivated
// account is distinguished, as auth.ErrAccountDisabled.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, *auth.Claims, error) {
	rec, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			s.recordLogin(ctx, username, nil, "invalid", auth.ErrInvalidCredentials)
			return nil, nil, auth.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("auth/session: lookup: %w", err)
	}

	if !rec.Active {
		s.recordLogin(ctx, username, rec, "disabled", auth.ErrAccountDisabled)
		return nil, nil, auth.ErrAccountDisabled
	}

	if !s.store.VerifyPassword(password, rec.PasswordHash) {
		s.recordLogin(ctx, username, rec, "invalid", auth.ErrInvalidCredentials)
		return nil, nil, auth.ErrInvalidCredentials
	}

	claims := rec.Claims()
	pair, err := s.issuePair(claims)
	if err != nil {
		return nil, nil, err
	}

	s.recordLogin(ctx, username, rec, "success", nil)
	return pair, claims, nil
}

// Refresh verifies a refresh token and issues a new pair. Claims are
// re-derived from the current persisted record, not from the old token:
// a record deleted or deactivated since issuance ends the session here.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *auth.Claims, error) {
	old, err := s.verifier.Verify(refreshToken)
	if err != nil {
		s.recordRefresh(ctx, nil, err)
		return nil, nil, err
	}

	rec, err := s.store.FindByID(ctx, old.SubjectID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			s.recordRefresh(ctx, old, auth.ErrInvalidCredentials)
			return nil, nil, auth.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("auth/session: lookup: %w", err)
	}

	if !rec.Active {
		s.recordRefresh(ctx, old, auth.ErrAccountDisabled)
		return nil, nil, auth.ErrAccountDisabled
	}

	claims := rec.Claims()
	pair, err := s.issuePair(claims)
	if err != nil {
		return nil, nil, err
	}

	s.recordRefresh(ctx, claims, nil)
	return pair, claims, nil
}

func (s *Service) issuePair(claims *auth.Claims) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(claims)
	if err != nil {
		return nil, fmt.Errorf("auth/session: issue access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefreshToken(claims)
	if err != nil {
		return nil, fmt.Errorf("auth/session: issue refresh token: %w", err)
	}
	s.metrics.RecordTokenIssued("access")
	s.metrics.RecordTokenIssued("refresh")
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) recordLogin(ctx context.Context, username string, rec *auth.UserRecord, result string, cause error) {
	s.metrics.RecordLogin(result)

	if result != "success" {
		s.logger.Info("login denied", "username", username, "reason", result)
	}

	if s.audit == nil {
		return
	}
	ev := audit.Event{
		RequestID: audit.RequestID(ctx),
		Username:  username,
		Action:    audit.ActionLogin,
		Result:    audit.ResultSuccess,
	}
	if rec != nil {
		ev.SubjectID = rec.ID
		ev.Role = rec.Role.String()
	}
	if cause != nil {
		ev.Result = audit.ResultDenied
		ev.Error = cause.Error()
	}
	s.audit.Log(ev)
}

func (s *Service) recordRefresh(ctx context.Context, claims *auth.Claims, cause error) {
	if s.audit == nil {
		return
	}
	ev := audit.Event{
		RequestID: audit.RequestID(ctx),
		Action:    audit.ActionRefresh,
		Result:    audit.ResultSuccess,
	}
	if claims != nil {
		ev.SubjectID = claims.SubjectID
		ev.Username = claims.Username
		ev.Role = claims.Role.String()
		ev.CompanyID = claims.CompanyID
	}
	if cause != nil {
		ev.Result = audit.ResultDenied
		ev.Error = cause.Error()
	}
	s.audit.Log(ev)
}
