// Package httpapi serves the browser-facing HTTP side: health, cookie based
// sign-in and the grpc-web bridge.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"health-records-api/internal/auth"
	"health-records-api/internal/handler"
	"health-records-api/internal/middleware"
	"health-records-api/internal/rpc"
	"health-records-api/internal/store"
)

const RefreshCookie = "refresh_token"

type Options struct {
	CORSOrigins   []string
	SecureCookies bool
}

type server struct {
	h      *handler.Handler
	st     *store.Store
	secure bool
	log    zerolog.Logger
}

// New builds the echo instance. bridge is mounted under the record service
// path; rl limits the auth routes per client IP.
func New(h *handler.Handler, st *store.Store, bridge http.Handler, rl *middleware.RateLimiter, opts Options, logger zerolog.Logger) *echo.Echo {
	s := &server{h: h, st: st, secure: opts.SecureCookies, log: logger}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.HTTPRecovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID", "X-Grpc-Web", "X-User-Agent"},
		ExposeHeaders:    []string{"Grpc-Status", "Grpc-Message", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	e.GET("/healthz", s.health)

	a := e.Group("/auth", middleware.EchoRateLimit(rl))
	a.POST("/login", s.login)
	a.POST("/refresh", s.refresh)
	a.POST("/logout", s.logout)

	e.POST("/"+rpc.ServiceName+"/*", echo.WrapHandler(bridge))
	return e
}

func (s *server) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := s.st.Ping(ctx); err != nil {
		s.log.Error().Err(err).Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// sessionResponse is the token reply without the refresh token, which only
// travels in the cookie.
type sessionResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        any    `json:"user"`
}

func (s *server) login(c echo.Context) error {
	var req rpc.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := s.h.Login(c.Request().Context(), &req)
	if err != nil {
		return httpError(err)
	}
	return s.session(c, res)
}

func (s *server) refresh(c echo.Context) error {
	token := ""
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		token = ck.Value
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token required")
	}
	res, err := s.h.Refresh(c.Request().Context(), &rpc.RefreshRequest{RefreshToken: token})
	if err != nil {
		s.clearCookie(c)
		return httpError(err)
	}
	return s.session(c, res)
}

func (s *server) logout(c echo.Context) error {
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		if err := s.h.EndSession(c.Request().Context(), ck.Value); err != nil {
			return httpError(err)
		}
	}
	s.clearCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (s *server) session(c echo.Context, res *rpc.TokenResponse) error {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookie,
		Value:    res.RefreshToken,
		Path:     "/auth",
		MaxAge:   int(auth.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(http.StatusOK, sessionResponse{
		AccessToken: res.AccessToken,
		ExpiresIn:   res.ExpiresIn,
		User:        res.User,
	})
}

func (s *server) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func httpError(err error) error {
	st, _ := status.FromError(err)
	return echo.NewHTTPError(HTTPStatus(st.Code()), st.Message())
}

// HTTPStatus maps a gRPC status code onto the closest HTTP status.
func HTTPStatus(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return 499
	case codes.Unimplemented:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
