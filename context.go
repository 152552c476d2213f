package auth

import "context"

type ctxKey string

const (
	ctxKeySubjectID ctxKey = "auth_subject_id"
	ctxKeyRole      ctxKey = "auth_role"
	ctxKeyClaims    ctxKey = "auth_claims"
)

// WithSubjectID stores the authenticated subject id in the context.
func WithSubjectID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, ctxKeySubjectID, id)
}

// SubjectIDFromContext extracts the authenticated subject id from the
// context, or 0 when unauthenticated.
func SubjectIDFromContext(ctx context.Context) int {
	v, _ := ctx.Value(ctxKeySubjectID).(int)
	return v
}

// WithRole stores the principal's role in the context.
func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

// RoleFromContext extracts the principal's role from the context.
func RoleFromContext(ctx context.Context) Role {
	v, _ := ctx.Value(ctxKeyRole).(Role)
	return v
}

// WithClaims stores the full verified claims in the context. Claims are
// request-scoped values; they never leak between requests.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, claims)
}

// ClaimsFromContext extracts the full verified claims from the context.
func ClaimsFromContext(ctx context.Context) *Claims {
	v, _ := ctx.Value(ctxKeyClaims).(*Claims)
	return v
}
