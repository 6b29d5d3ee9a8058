package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hengadev/errsx"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"health-records-api/internal/auth"
	"health-records-api/internal/middleware"
	"health-records-api/internal/model"
	"health-records-api/internal/rpc"
	"health-records-api/internal/store"
	"health-records-api/internal/suggest"
)

type Handler struct {
	store   *store.Store
	suggest *suggest.Service
	secret  string
	log     zerolog.Logger
	now     func() time.Time
}

var _ rpc.RecordServiceServer = (*Handler)(nil)

// New wires the service. sg may be nil, in which case the suggestion
// methods answer Unavailable.
func New(st *store.Store, sg *suggest.Service, secret string, logger zerolog.Logger) *Handler {
	return &Handler{store: st, suggest: sg, secret: secret, log: logger, now: time.Now}
}

// WithClock overrides the handler's notion of now.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

func uid(ctx context.Context) string {
	return middleware.UserID(ctx)
}

func (h *Handler) today() time.Time {
	y, m, d := h.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func requireRole(ctx context.Context, allowed ...string) error {
	if uid(ctx) == "" {
		return status.Error(codes.Unauthenticated, "not signed in")
	}
	if !auth.HasRole(middleware.Role(ctx), allowed...) {
		return status.Error(codes.PermissionDenied, "not allowed for role")
	}
	return nil
}

func requireAdmin(ctx context.Context) error {
	return requireRole(ctx, model.RoleAdmin)
}

// clinician covers roles allowed to write clinical data.
func requireClinician(ctx context.Context) error {
	return requireRole(ctx, model.RoleDoctor, model.RoleNurse)
}

// invalid wraps a validation failure. errsx.Map renders every field.
func invalid(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

func invalidField(field string, err error) error {
	errs := errsx.Map{}
	errs.Set(field, err)
	return invalid(errs.AsError())
}

// fail maps store errors to status codes. Anything unexpected is logged and
// reported as Internal.
func (h *Handler) fail(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, store.ErrReference):
		return status.Error(codes.FailedPrecondition, "referenced record missing")
	case errors.Is(err, store.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, "invalid status transition")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	h.log.Error().Err(err).Str("op", op).Msg("store failure")
	return status.Error(codes.Internal, "internal error")
}

// optDate parses an optional request date; empty means unset.
func optDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := model.ParseDate(s)
	if err != nil {
		return nil, invalidField(field, errors.New("expected YYYY-MM-DD or RFC 3339"))
	}
	return &t, nil
}

// dateOr parses s, falling back to def when s is empty.
func dateOr(field, s string, def time.Time) (time.Time, error) {
	t, err := optDate(field, s)
	if err != nil || t == nil {
		return def, err
	}
	return *t, nil
}

// rangeEnd parses an inclusive upper bound. A bare date covers the whole day.
func rangeEnd(field, s string) (time.Time, error) {
	t, err := optDate(field, s)
	if err != nil || t == nil {
		return time.Time{}, err
	}
	if len(strings.TrimSpace(s)) == len(model.DateLayout) {
		return t.AddDate(0, 0, 1).Add(-time.Microsecond), nil
	}
	return *t, nil
}
