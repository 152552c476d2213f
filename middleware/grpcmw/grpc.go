// Package grpcmw provides gRPC interceptors for the authorization
// gate, for internal services that expose the clinical API over gRPC.
//
// Identity failures map to codes.Unauthenticated, authorization
// failures to codes.PermissionDenied — the same 401/403 split the HTTP
// surfaces use.
package grpcmw

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	auth "github.com/ocsalud/auth-go"
)

// AuthOption configures auth interceptor behavior.
type AuthOption func(*authConfig)

type authConfig struct {
	excludedMethods map[string]bool
}

// WithExcludedMethods sets gRPC methods that skip authentication.
// Methods should be fully qualified (e.g. "/package.Service/Method").
func WithExcludedMethods(methods ...string) AuthOption {
	return func(cfg *authConfig) {
		for _, m := range methods {
			cfg.excludedMethods[m] = true
		}
	}
}

// UnaryAuth returns a unary server interceptor that verifies bearer
// tokens from the authorization metadata. On success the claims are
// stored in the context via auth.WithClaims.
func UnaryAuth(gate *auth.Gate, opts ...AuthOption) grpc.UnaryServerInterceptor {
	cfg := &authConfig{excludedMethods: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if cfg.excludedMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		ctx, err := authenticate(ctx, gate)
		if err != nil {
			return nil, err
		}

		return handler(ctx, req)
	}
}

// StreamAuth returns a stream server interceptor that verifies bearer
// tokens.
func StreamAuth(gate *auth.Gate, opts ...AuthOption) grpc.StreamServerInterceptor {
	cfg := &authConfig{excludedMethods: make(map[string]bool)}
	for _, o := range opts {
		o(cfg)
	}

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if cfg.excludedMethods[info.FullMethod] {
			return handler(srv, ss)
		}

		ctx, err := authenticate(ss.Context(), gate)
		if err != nil {
			return err
		}

		wrapped := &wrappedStream{ServerStream: ss, ctx: ctx}
		return handler(srv, wrapped)
	}
}

// UnaryRequireRoles returns a unary server interceptor that passes only
// principals whose role is in the allow-list. Requires UnaryAuth to run
// first.
func UnaryRequireRoles(gate *auth.Gate, roles ...auth.Role) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		claims := auth.ClaimsFromContext(ctx)
		if claims == nil {
			return nil, status.Error(codes.Unauthenticated, "missing claims")
		}
		if err := gate.RequireRole(claims, roles...); err != nil {
			return nil, denial(err)
		}
		return handler(ctx, req)
	}
}

// UnaryRequirePermission returns a unary server interceptor that checks
// one catalog permission. Requires UnaryAuth to run first.
func UnaryRequirePermission(gate *auth.Gate, permission string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		claims := auth.ClaimsFromContext(ctx)
		if claims == nil {
			return nil, status.Error(codes.Unauthenticated, "missing claims")
		}
		if err := gate.RequirePermission(claims, permission); err != nil {
			return nil, denial(err)
		}
		return handler(ctx, req)
	}
}

// authenticate extracts and verifies the bearer token from incoming
// metadata, returning a context carrying the claims.
func authenticate(ctx context.Context, gate *auth.Gate) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing authorization token")
	}

	claims, err := gate.Authenticate(values[0])
	if err != nil {
		return nil, denial(err)
	}

	ctx = auth.WithClaims(ctx, claims)
	ctx = auth.WithSubjectID(ctx, claims.SubjectID)
	ctx = auth.WithRole(ctx, claims.Role)
	return ctx, nil
}

// denial maps an auth error onto a gRPC status.
func denial(err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrInvalidClaims):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, auth.ErrRoleForbidden),
		errors.Is(err, auth.ErrPermissionForbidden),
		errors.Is(err, auth.ErrTenantForbidden),
		errors.Is(err, auth.ErrRoleNotFound):
		return status.Error(codes.PermissionDenied, err.Error())
	}
	return status.Error(codes.Internal, "authorization failed")
}

// wrappedStream overrides the stream context with the authenticated
// one.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context { return w.ctx }
