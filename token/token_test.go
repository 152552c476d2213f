package token_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	auth "github.com/ocsalud/auth-go"
	"github.com/ocsalud/auth-go/token"
)

var testSecret = []byte("test-secret")

func newService(t *testing.T, opts ...token.Option) *token.Service {
	t.Helper()
	s, err := token.New(token.Config{Secret: testSecret, Issuer: "test"}, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func TestNew_MissingSecret(t *testing.T) {
	if _, err := token.New(token.Config{}); !errors.Is(err, auth.ErrMissingSecret) {
		t.Errorf("New() error = %v, want ErrMissingSecret", err)
	}
}

func TestRoundTrip(t *testing.T) {
	s := newService(t)

	tests := []struct {
		name   string
		claims auth.Claims
	}{
		{"administrador", auth.Claims{SubjectID: 1, Username: "admin", Role: auth.RoleAdministrador}},
		{"empresa", auth.Claims{SubjectID: 4, Username: "acme", Role: auth.RoleEmpresa, CompanyID: 5}},
		{"medico", auth.Claims{SubjectID: 5, Username: "doctora", Role: auth.RoleMedico}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed, err := s.Issue(&tt.claims, time.Hour)
			if err != nil {
				t.Fatalf("Issue() error: %v", err)
			}

			got, err := s.Verify(signed)
			if err != nil {
				t.Fatalf("Verify() error: %v", err)
			}
			if !reflect.DeepEqual(*got, tt.claims) {
				t.Errorf("Verify() = %+v, want %+v", *got, tt.claims)
			}
		})
	}
}

func TestVerify_Expired(t *testing.T) {
	s := newService(t)

	signed, err := s.Issue(&auth.Claims{SubjectID: 1, Username: "admin", Role: auth.RoleAdministrador}, -time.Second)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := s.Verify(signed); !errors.Is(err, auth.ErrTokenExpired) {
		t.Errorf("Verify(expired) error = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	base := time.Now()
	clock := base
	s := newService(t, token.WithClock(func() time.Time { return clock }))

	signed, err := s.Issue(&auth.Claims{SubjectID: 1, Username: "admin", Role: auth.RoleAdministrador}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	clock = base.Add(30 * time.Second)
	if _, err := s.Verify(signed); err != nil {
		t.Errorf("Verify() before expiry: %v", err)
	}

	clock = base.Add(2 * time.Minute)
	if _, err := s.Verify(signed); !errors.Is(err, auth.ErrTokenExpired) {
		t.Errorf("Verify() after expiry error = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	other, err := token.New(token.Config{Secret: []byte("a-different-secret")})
	if err != nil {
		t.Fatal(err)
	}

	signed, err := other.IssueAccessToken(&auth.Claims{SubjectID: 1, Username: "admin", Role: auth.RoleAdministrador})
	if err != nil {
		t.Fatal(err)
	}

	s := newService(t)
	if _, err := s.Verify(signed); !errors.Is(err, auth.ErrInvalidSignature) {
		t.Errorf("Verify(foreign token) error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	s := newService(t)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := s.Verify(tok); !errors.Is(err, auth.ErrInvalidSignature) {
			t.Errorf("Verify(%q) error = %v, want ErrInvalidSignature", tok, err)
		}
	}
}

func TestVerify_RejectsUnknownRole(t *testing.T) {
	// A token signed with the right secret but carrying a legacy role
	// string must be rejected, not coerced.
	claims := jwt.MapClaims{
		"id_usuario": 1,
		"usuario":    "admin",
		"rol":        "admin",
		"exp":        time.Now().Add(time.Hour).Unix(),
		"iat":        time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	s := newService(t)
	if _, err := s.Verify(signed); !errors.Is(err, auth.ErrInvalidClaims) {
		t.Errorf("Verify(legacy role) error = %v, want ErrInvalidClaims", err)
	}
}

func TestVerify_RejectsMissingExpiry(t *testing.T) {
	claims := jwt.MapClaims{
		"id_usuario": 1,
		"usuario":    "admin",
		"rol":        "administrador",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	s := newService(t)
	if _, err := s.Verify(signed); err == nil {
		t.Error("Verify() should reject tokens without an expiry")
	}
}

func TestVerify_RejectsWrongAlgorithm(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"id_usuario": 1,
		"usuario":    "admin",
		"rol":        "administrador",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	s := newService(t)
	if _, err := s.Verify(signed); !errors.Is(err, auth.ErrInvalidSignature) {
		t.Errorf("Verify(HS512) error = %v, want ErrInvalidSignature", err)
	}
}

func TestIssue_RejectsInvalidClaims(t *testing.T) {
	s := newService(t)

	bad := []auth.Claims{
		{Username: "admin", Role: auth.RoleAdministrador},                 // no subject
		{SubjectID: 4, Username: "acme", Role: auth.RoleEmpresa},          // empresa without company
		{SubjectID: 3, Username: "lab", Role: auth.RoleTecnico, CompanyID: 5}, // staff with company
	}
	for _, c := range bad {
		if _, err := s.Issue(&c, time.Hour); !errors.Is(err, auth.ErrInvalidClaims) {
			t.Errorf("Issue(%+v) error = %v, want ErrInvalidClaims", c, err)
		}
	}
}

func TestAccessAndRefreshLifetimes(t *testing.T) {
	base := time.Now()
	clock := base
	s, err := token.New(token.Config{Secret: testSecret}, token.WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatal(err)
	}

	claims := &auth.Claims{SubjectID: 1, Username: "admin", Role: auth.RoleAdministrador}
	access, err := s.IssueAccessToken(claims)
	if err != nil {
		t.Fatal(err)
	}
	refresh, err := s.IssueRefreshToken(claims)
	if err != nil {
		t.Fatal(err)
	}

	// Past the access lifetime the access token is dead but the
	// refresh token still verifies.
	clock = base.Add(token.DefaultAccessTTL + time.Hour)
	if _, err := s.Verify(access); !errors.Is(err, auth.ErrTokenExpired) {
		t.Errorf("access token after 25h error = %v, want ErrTokenExpired", err)
	}
	if _, err := s.Verify(refresh); err != nil {
		t.Errorf("refresh token after 25h: %v", err)
	}

	clock = base.Add(token.DefaultRefreshTTL + time.Hour)
	if _, err := s.Verify(refresh); !errors.Is(err, auth.ErrTokenExpired) {
		t.Errorf("refresh token after 7d error = %v, want ErrTokenExpired", err)
	}
}
