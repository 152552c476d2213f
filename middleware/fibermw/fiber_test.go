package fibermw_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	auth "github.com/ocsalud/auth-go"
	"github.com/ocsalud/auth-go/catalog"
	"github.com/ocsalud/auth-go/middleware/fibermw"
	"github.com/ocsalud/auth-go/token"
)

func testSetup(t *testing.T) (*auth.Gate, *token.Service) {
	t.Helper()
	signer, err := token.New(token.Config{Secret: []byte("test-secret")})
	if err != nil {
		t.Fatal(err)
	}
	gate, err := auth.NewGate(signer, catalog.Default())
	if err != nil {
		t.Fatal(err)
	}
	return gate, signer
}

func bearer(t *testing.T, signer *token.Service, claims *auth.Claims) string {
	t.Helper()
	tok, err := signer.IssueAccessToken(claims)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func do(t *testing.T, app *fiber.App, method, path, authorization string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func ok(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestAuth(t *testing.T) {
	gate, signer := testSetup(t)

	app := fiber.New()
	app.Get("/p", fibermw.Auth(gate), ok)

	if resp := do(t, app, http.MethodGet, "/p", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", resp.StatusCode)
	}
	if resp := do(t, app, http.MethodGet, "/p", "Bearer garbage"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", resp.StatusCode)
	}

	admin := bearer(t, signer, &auth.Claims{SubjectID: 1, Username: "admin", Role: auth.RoleAdministrador})
	if resp := do(t, app, http.MethodGet, "/p", admin); resp.StatusCode != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", resp.StatusCode)
	}
}

func TestAuth_ExcludedPaths(t *testing.T) {
	gate, _ := testSetup(t)

	app := fiber.New()
	app.Use(fibermw.Auth(gate, fibermw.WithExcludedPaths("/health")))
	app.Get("/health", ok)
	app.Get("/p", ok)

	if resp := do(t, app, http.MethodGet, "/health", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("excluded path status = %d, want 200", resp.StatusCode)
	}
	if resp := do(t, app, http.MethodGet, "/p", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("protected path status = %d, want 401", resp.StatusCode)
	}
}

func TestRequireRoles(t *testing.T) {
	gate, signer := testSetup(t)

	app := fiber.New()
	app.Use(fibermw.Auth(gate))
	app.Post("/pacientes", fibermw.RequireRoles(gate, auth.RoleAdministrador, auth.RoleAdmisionista), ok)

	admin := bearer(t, signer, &auth.Claims{SubjectID: 1, Username: "admin", Role: auth.RoleAdministrador})
	if resp := do(t, app, http.MethodPost, "/pacientes", admin); resp.StatusCode != http.StatusOK {
		t.Errorf("administrador status = %d, want 200", resp.StatusCode)
	}

	medico := bearer(t, signer, &auth.Claims{SubjectID: 5, Username: "dra", Role: auth.RoleMedico})
	if resp := do(t, app, http.MethodPost, "/pacientes", medico); resp.StatusCode != http.StatusForbidden {
		t.Errorf("medico status = %d, want 403", resp.StatusCode)
	}
}

func TestDeleteGuard(t *testing.T) {
	gate, signer := testSetup(t)

	app := fiber.New()
	app.Use(fibermw.Auth(gate), fibermw.DeleteGuard(gate))
	app.Put("/citas/1", ok)
	app.Delete("/citas/1", ok)

	lab := bearer(t, signer, &auth.Claims{SubjectID: 3, Username: "lab", Role: auth.RoleTecnico})
	if resp := do(t, app, http.MethodPut, "/citas/1", lab); resp.StatusCode != http.StatusOK {
		t.Errorf("tecnico PUT status = %d, want 200", resp.StatusCode)
	}
	if resp := do(t, app, http.MethodDelete, "/citas/1", lab); resp.StatusCode != http.StatusForbidden {
		t.Errorf("tecnico DELETE status = %d, want 403", resp.StatusCode)
	}

	admin := bearer(t, signer, &auth.Claims{SubjectID: 1, Username: "admin", Role: auth.RoleAdministrador})
	if resp := do(t, app, http.MethodDelete, "/citas/1", admin); resp.StatusCode != http.StatusOK {
		t.Errorf("administrador DELETE status = %d, want 200", resp.StatusCode)
	}
}

// TestDeny_UsesPlatformMessages keeps the Fiber surface aligned with
// the Gin one: denial bodies carry the user-facing text, never the
// wrapped error detail.
func TestDeny_UsesPlatformMessages(t *testing.T) {
	gate, signer := testSetup(t)

	app := fiber.New()
	app.Use(fibermw.Auth(gate))
	app.Delete("/citas/1", fibermw.DeleteGuard(gate), ok)

	body := decode(t, do(t, app, http.MethodDelete, "/citas/1", ""))
	if body["message"] != "token requerido" {
		t.Errorf("missing token message = %q, want %q", body["message"], "token requerido")
	}

	expired, err := signer.Issue(&auth.Claims{SubjectID: 1, Username: "admin", Role: auth.RoleAdministrador}, -time.Second)
	if err != nil {
		t.Fatal(err)
	}
	body = decode(t, do(t, app, http.MethodDelete, "/citas/1", "Bearer "+expired))
	if body["message"] != "token expirado" {
		t.Errorf("expired token message = %q, want %q", body["message"], "token expirado")
	}

	body = decode(t, do(t, app, http.MethodDelete, "/citas/1", "Bearer garbage"))
	if body["message"] != "token inválido" {
		t.Errorf("garbage token message = %q, want %q", body["message"], "token inválido")
	}

	lab := bearer(t, signer, &auth.Claims{SubjectID: 3, Username: "lab", Role: auth.RoleTecnico})
	body = decode(t, do(t, app, http.MethodDelete, "/citas/1", lab))
	if body["message"] != "acceso denegado: rol no autorizado" {
		t.Errorf("role denial message = %q, want %q", body["message"], "acceso denegado: rol no autorizado")
	}
}

func TestTenantAccess(t *testing.T) {
	gate, signer := testSetup(t)

	app := fiber.New()
	app.Use(fibermw.Auth(gate))
	app.Get("/empresas/:id/citas", fibermw.TenantAccess(gate, "id"), ok)

	acme := bearer(t, signer, &auth.Claims{SubjectID: 4, Username: "acme", Role: auth.RoleEmpresa, CompanyID: 5})
	if resp := do(t, app, http.MethodGet, "/empresas/5/citas", acme); resp.StatusCode != http.StatusOK {
		t.Errorf("own company status = %d, want 200", resp.StatusCode)
	}
	if resp := do(t, app, http.MethodGet, "/empresas/6/citas", acme); resp.StatusCode != http.StatusForbidden {
		t.Errorf("other company status = %d, want 403", resp.StatusCode)
	}

	admin := bearer(t, signer, &auth.Claims{SubjectID: 1, Username: "admin", Role: auth.RoleAdministrador})
	if resp := do(t, app, http.MethodGet, "/empresas/6/citas", admin); resp.StatusCode != http.StatusOK {
		t.Errorf("staff status = %d, want 200", resp.StatusCode)
	}
}
