// Package credentials provides the Postgres-backed credential store.
//
// The store serves the login and refresh flows only; token verification
// never touches it.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/ocsalud/auth-go"
)

// Store implements auth.CredentialStore over a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// compile-time check
var _ auth.CredentialStore = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a credential store over an existing pool.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool:   pool,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Connect opens a pgx pool with conservative limits suitable for the
// platform's managed Postgres.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("auth/credentials: parse config: %w", err)
	}

	cfg.MaxConns = 5
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.MaxConnLifetime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("auth/credentials: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("auth/credentials: ping: %w", err)
	}
	return pool, nil
}

const selectColumns = `id_usuario, usuario, password, rol, id_empresa, activo`

// FindByUsername returns the record for a login name, or
// auth.ErrUserNotFound.
func (s *Store) FindByUsername(ctx context.Context, username string) (*auth.UserRecord, error) {
	const q = `SELECT ` + selectColumns + ` FROM usuarios WHERE usuario = $1`
	return s.scanOne(s.pool.QueryRow(ctx, q, username))
}

// FindByID returns the record for a subject id, or auth.ErrUserNotFound.
func (s *Store) FindByID(ctx context.Context, id int) (*auth.UserRecord, error) {
	const q = `SELECT ` + selectColumns + ` FROM usuarios WHERE id_usuario = $1`
	return s.scanOne(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) scanOne(row pgx.Row) (*auth.UserRecord, error) {
	var (
		rec     auth.UserRecord
		role    string
		company *int
	)
	err := row.Scan(&rec.ID, &rec.Username, &rec.PasswordHash, &role, &company, &rec.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth/credentials: scan: %w", err)
	}

	rec.Role, err = auth.ParseRole(role)
	if err != nil {
		// A row carrying a role outside the enumeration means the data
		// predates the role normalization; refuse it rather than guess.
		s.logger.Warn("rejecting user with unknown role", "id", rec.ID, "role", role)
		return nil, fmt.Errorf("auth/credentials: user %d: %w", rec.ID, err)
	}
	if company != nil {
		rec.CompanyID = *company
	}
	return &rec, nil
}

// VerifyPassword reports whether a plaintext password matches a stored
// bcrypt hash.
func (s *Store) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// HashPassword hashes a plaintext password for storage. Used by account
// provisioning, not by request handling.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth/credentials: hash: %w", err)
	}
	return string(b), nil
}
