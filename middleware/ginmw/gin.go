// Package ginmw provides Gin middleware for the authorization gate.
//
// All middleware accepts an *auth.Gate — routes never re-derive role
// checks inline. Denials use the platform response shape
// {"success": false, "message": ...}, with 401 for identity failures
// and 403 for authorization failures. Role-list denials additionally
// echo required_roles and user_role as a diagnostic aid.
package ginmw

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	auth "github.com/ocsalud/auth-go"
	"github.com/ocsalud/auth-go/metrics"
)

// KeyClaims is the gin context key holding the verified *auth.Claims.
const KeyClaims = "auth_claims"

// AuthOption configures Auth middleware behavior.
type AuthOption func(*authConfig)

type authConfig struct {
	excludedPaths map[string]bool
	metrics       *metrics.Metrics
}

// WithExcludedPaths sets paths that skip authentication (e.g. health
// checks).
func WithExcludedPaths(paths ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, p := range paths {
			cfg.excludedPaths[p] = true
		}
	}
}

// WithMetrics sets the metrics recorder for authentication outcomes.
func WithMetrics(m *metrics.Metrics) AuthOption {
	return func(cfg *authConfig) { cfg.metrics = m }
}

// Auth returns Gin middleware that verifies the bearer token. On
// success it stores the claims in the context (retrievable via
// GetClaims) and in the request context (auth.ClaimsFromContext).
// Responds with 401 if the token is missing, invalid, or expired.
func Auth(gate *auth.Gate, opts ...AuthOption) gin.HandlerFunc {
	cfg := &authConfig{
		excludedPaths: make(map[string]bool),
		metrics:       metrics.New(false),
	}
	for _, o := range opts {
		o(cfg)
	}

	return func(c *gin.Context) {
		if cfg.excludedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		claims, err := gate.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			cfg.metrics.RecordAuthFailure(failureReason(err))
			deny(c, err)
			return
		}
		cfg.metrics.RecordAuthSuccess()

		c.Set(KeyClaims, claims)
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))

		c.Next()
	}
}

// RequireRoles returns Gin middleware that passes only principals whose
// role is in the allow-list. Requires Auth to run first. The 403 body
// echoes the allow-list and the principal's role.
func RequireRoles(gate *auth.Gate, roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			deny(c, auth.ErrMissingToken)
			return
		}
		if err := gate.RequireRole(claims, roles...); err != nil {
			deny(c, err)
			return
		}
		c.Next()
	}
}

// RequirePermission returns Gin middleware that checks one catalog
// permission. Requires Auth to run first.
func RequirePermission(gate *auth.Gate, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			deny(c, auth.ErrMissingToken)
			return
		}
		if err := gate.RequirePermission(claims, permission); err != nil {
			deny(c, err)
			return
		}
		c.Next()
	}
}

// DeleteGuard returns Gin middleware applying the platform-wide
// destructive-write rule: DELETE requests require administrador on top
// of whatever endpoint-level checks already passed. Mount it on route
// groups alongside, not instead of, RequireRoles.
func DeleteGuard(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			deny(c, auth.ErrMissingToken)
			return
		}
		if err := gate.RequireWriteAccess(claims, c.Request.Method); err != nil {
			deny(c, err)
			return
		}
		c.Next()
	}
}

// TenantAccess returns Gin middleware that scopes empresa principals to
// their own company. The requested company id is read from the named
// route parameter and parsed, so "5" and 5 compare equal. A value that
// is not an integer is a 400, not a denial.
func TenantAccess(gate *auth.Gate, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			deny(c, auth.ErrMissingToken)
			return
		}

		companyID, err := strconv.Atoi(c.Param(param))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "invalid company id",
			})
			return
		}

		if err := gate.RequireTenantAccess(claims, companyID); err != nil {
			deny(c, err)
			return
		}
		c.Next()
	}
}

// Timed wraps a decision middleware with duration recording.
func Timed(m *metrics.Metrics, predicate string, mw gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		mw(c)
		result := "allowed"
		if c.IsAborted() {
			result = "denied"
		}
		m.RecordDecision(predicate, result, time.Since(start).Seconds())
	}
}

// GetClaims returns the verified claims from the Gin context, or nil
// when the request is unauthenticated.
func GetClaims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(KeyClaims)
	cl, _ := v.(*auth.Claims)
	return cl
}

// deny aborts the request with the platform denial shape.
func deny(c *gin.Context, err error) {
	body := gin.H{
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

	c.AbortWithStatusJSON(auth.StatusCode(err), body)
}

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

func failureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	}
	return "invalid"
}
