package middleware

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Logging records one line per RPC with its status code and latency.
func Logging(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)

		evt := logger.Info()
		switch code {
		case codes.OK, codes.NotFound, codes.InvalidArgument, codes.AlreadyExists,
			codes.Unauthenticated, codes.PermissionDenied, codes.FailedPrecondition:
		default:
			evt = logger.Error().Err(err)
		}
		evt.
			Str("method", info.FullMethod).
			Str("code", code.String()).
			Str("user_id", UserID(ctx)).
			Dur("latency", time.Since(start)).
			Msg("rpc")
		return resp, err
	}
}

// Recovery turns a handler panic into codes.Internal.
func Recovery(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				var stack [4096]byte
				n := runtime.Stack(stack[:], false)
				logger.Error().
					Str("method", info.FullMethod).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(stack[:n])).
					Msg("panic recovered")
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
		}()
		return next(ctx, req)
	}
}
