// Package fibermw provides Fiber middleware for the authorization
// gate, mirroring the ginmw surface for services built on Fiber.
package fibermw

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	auth "github.com/ocsalud/auth-go"
)

// KeyClaims is the fiber locals key holding the verified *auth.Claims.
const KeyClaims = "auth_claims"

// AuthOption configures Auth middleware behavior.
type AuthOption func(*authConfig)

type authConfig struct {
	excludedPaths map[string]bool
}

// WithExcludedPaths sets paths that skip authentication.
func WithExcludedPaths(paths ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, p := range paths {
			cfg.excludedPaths[p] = true
		}
	}
}

// Auth returns Fiber middleware that verifies the bearer token and
// stores the claims in locals. Responds with 401 if the token is
// missing, invalid, or expired.
func Auth(gate *auth.Gate, opts ...AuthOption) fiber.Handler {
	cfg := &authConfig{excludedPaths: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(c *fiber.Ctx) error {
		if cfg.excludedPaths[c.Path()] {
			return c.Next()
		}

		claims, err := gate.Authenticate(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return deny(c, err)
		}

		c.Locals(KeyClaims, claims)
		return c.Next()
	}
}

// RequireRoles returns Fiber middleware that passes only principals
// whose role is in the allow-list. Requires Auth to run first.
func RequireRoles(gate *auth.Gate, roles ...auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return deny(c, auth.ErrMissingToken)
		}
		if err := gate.RequireRole(claims, roles...); err != nil {
			return deny(c, err)
		}
		return c.Next()
	}
}

// RequirePermission returns Fiber middleware that checks one catalog
// permission. Requires Auth to run first.
func RequirePermission(gate *auth.Gate, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return deny(c, auth.ErrMissingToken)
		}
		if err := gate.RequirePermission(claims, permission); err != nil {
			return deny(c, err)
		}
		return c.Next()
	}
}

// DeleteGuard returns Fiber middleware applying the destructive-write
// rule: DELETE requests require administrador in addition to the
// route's own checks.
func DeleteGuard(gate *auth.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return deny(c, auth.ErrMissingToken)
		}
		if err := gate.RequireWriteAccess(claims, c.Method()); err != nil {
			return deny(c, err)
		}
		return c.Next()
	}
}

// TenantAccess returns Fiber middleware scoping empresa principals to
// their own company, reading the requested company id from the named
// route parameter.
func TenantAccess(gate *auth.Gate, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return deny(c, auth.ErrMissingToken)
		}

		companyID, err := strconv.Atoi(c.Params(param))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "invalid company id",
			})
		}

		if err := gate.RequireTenantAccess(claims, companyID); err != nil {
			return deny(c, err)
		}
		return c.Next()
	}
}

// GetClaims returns the verified claims from locals, or nil when the
// request is unauthenticated.
func GetClaims(c *fiber.Ctx) *auth.Claims {
	cl, _ := c.Locals(KeyClaims).(*auth.Claims)
	return cl
}

func deny(c *fiber.Ctx, err error) error {
	body := fiber.Map{
		"success": false,
		"message": message(err),
	}

	var rd *auth.RoleDeniedError
	if errors.As(err, &rd) {
		required := make([]string, len(rd.Required))
		for i, r := range rd.Required {
			required[i] = r.String()
		}
		body["required_roles"] = required
		body["user_role"] = rd.Got.String()
	}

	return c.Status(auth.StatusCode(err)).JSON(body)
}

// message translates a denial into the platform's user-facing text.
// Wrapped error detail stays out of response bodies.
func message(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "token requerido"
	case errors.Is(err, auth.ErrTokenExpired):
		return "token expirado"
	case errors.Is(err, auth.ErrInvalidSignature), errors.Is(err, auth.ErrInvalidClaims):
		return "token inválido"
	case errors.Is(err, auth.ErrRoleForbidden), errors.Is(err, auth.ErrRoleNotFound):
		return "acceso denegado: rol no autorizado"
	case errors.Is(err, auth.ErrPermissionForbidden):
		return "acceso denegado: permiso insuficiente"
	case errors.Is(err, auth.ErrTenantForbidden):
		return "acceso denegado: empresa no autorizada"
	}
	return "acceso denegado"
}
