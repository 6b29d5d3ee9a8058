package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"health-records-api/internal/auth"
	"health-records-api/internal/rpc"
)

type ctxKey string

const (
	UserIDKey ctxKey = "uid"
	RoleKey   ctxKey = "role"
)

// skip auth for these
var open = map[string]bool{
	rpc.FullMethod(rpc.MethodLogin):            true,
	rpc.FullMethod(rpc.MethodRefresh):          true,
	rpc.FullMethod(rpc.MethodRegisterHospital): true,
}

func Auth(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		// token from Authorization: Bearer <jwt>
		raw := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = strings.TrimPrefix(vals[0], "Bearer ")
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}
		return next(WithUser(ctx, claims.UserID, claims.Role), req)
	}
}

// WithUser stores the caller's identity the way Auth does.
func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, RoleKey, role)
}

func UserID(ctx context.Context) string {
	v, _ := ctx.Value(UserIDKey).(string)
	return v
}

func Role(ctx context.Context) string {
	v, _ := ctx.Value(RoleKey).(string)
	return v
}
