package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"health-records-api/internal/rpc"
)

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	r       rate.Limit
	burst   int
	done    chan struct{}
	once    sync.Once
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		r:       rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}
	// cleanup stale entries every minute
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-rl.done:
				return
			case <-t.C:
				rl.sweep(3 * time.Minute)
			}
		}
	}()
	return rl
}

func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweep(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, c := range rl.clients {
		if time.Since(c.seen) > idle {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if c, ok := rl.clients[ip]; ok {
		c.seen = time.Now()
		return c.lim
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.clients[ip] = &client{lim: l, seen: time.Now()}
	return l
}

// Allow reports whether the client at ip may make another request now.
func (rl *RateLimiter) Allow(ip string) bool { return rl.get(ip).Allow() }

// methods that should be rate limited
var limited = map[string]bool{
	rpc.FullMethod(rpc.MethodLogin):            true,
	rpc.FullMethod(rpc.MethodRefresh):          true,
	rpc.FullMethod(rpc.MethodRegisterHospital): true,
}

// ForwardedForKey carries the browser's address when a call arrives through
// the local grpc-web bridge.
const ForwardedForKey = "x-forwarded-for"

// clientIP is the peer address, or the forwarded address when the peer is a
// loopback proxy.
func clientIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	ip := p.Addr.String()
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if parsed := net.ParseIP(ip); parsed == nil || !parsed.IsLoopback() {
		return ip
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(ForwardedForKey); len(vals) > 0 {
			first, _, _ := strings.Cut(vals[0], ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
	}
	return ip
}

func RateLimit(rl *RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !limited[info.FullMethod] {
			return next(ctx, req)
		}
		if !rl.Allow(clientIP(ctx)) {
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}

// EchoRateLimit applies the same per-client limit to HTTP routes.
func EchoRateLimit(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}
