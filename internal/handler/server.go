package handler

import (
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"health-records-api/internal/middleware"
	"health-records-api/internal/rpc"
)

// NewServer builds the gRPC server with the interceptor chain every RPC runs
// through: recovery, logging, rate limiting, then auth.
func NewServer(h *Handler, secret string, rl *middleware.RateLimiter, logger zerolog.Logger) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(rpc.Codec),
		grpc.ChainUnaryInterceptor(
			middleware.Recovery(logger),
			middleware.Logging(logger),
			middleware.RateLimit(rl),
			middleware.Auth(secret),
		),
	)
	rpc.RegisterRecordServiceServer(srv, h)
	return srv
}
