package handler

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"health-records-api/internal/model"
	"health-records-api/internal/rpc"
	"health-records-api/internal/store"
	"health-records-api/internal/suggest"
)

// RegisterHospital is open to unauthenticated callers; registrations wait
// for an admin review.
func (h *Handler) RegisterHospital(ctx context.Context, req *rpc.HospitalInput) (*model.Hospital, error) {
	hosp := &model.Hospital{
		Name:          strings.TrimSpace(req.Name),
		Address:       strings.TrimSpace(req.Address),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
		LicenseNumber: strings.TrimSpace(req.LicenseNumber),
		RegisteredBy:  uid(ctx),
	}
	if err := hosp.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := h.store.RegisterHospital(ctx, hosp); err != nil {
		return nil, h.fail("register hospital", err)
	}
	h.log.Info().Str("hospital_id", hosp.ID).Str("license", hosp.LicenseNumber).Msg("hospital registration received")
	return hosp, nil
}

func (h *Handler) ListHospitals(ctx context.Context, req *rpc.ListHospitalsRequest) (*rpc.ListHospitalsResponse, error) {
	switch req.Status {
	case "", model.HospitalPending, model.HospitalApproved, model.HospitalRejected:
	default:
		return nil, status.Error(codes.InvalidArgument, "unknown status")
	}
	list, err := h.store.ListHospitals(ctx, req.Status)
	if err != nil {
		return nil, h.fail("list hospitals", err)
	}
	return &rpc.ListHospitalsResponse{Hospitals: list}, nil
}

func (h *Handler) ReviewHospital(ctx context.Context, req *rpc.ReviewHospitalRequest) (*model.Hospital, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	if !req.Approve && strings.TrimSpace(req.Reason) == "" {
		return nil, status.Error(codes.InvalidArgument, "rejection reason required")
	}
	hosp, err := h.store.ReviewHospital(ctx, req.ID, req.Approve, uid(ctx), strings.TrimSpace(req.Reason))
	if err != nil {
		return nil, h.fail("review hospital", err)
	}
	h.log.Info().Str("hospital_id", hosp.ID).Str("status", hosp.Status).Str("by", uid(ctx)).Msg("hospital reviewed")
	return hosp, nil
}

func (h *Handler) GetDashboard(ctx context.Context, _ *emptypb.Empty) (*model.DashboardStats, error) {
	stats, err := h.store.DashboardStats(ctx, h.now())
	if err != nil {
		return nil, h.fail("dashboard", err)
	}
	return stats, nil
}

func (h *Handler) SuggestDiagnosis(ctx context.Context, req *rpc.SuggestRequest) (*rpc.SuggestResponse, error) {
	if err := h.checkSuggest(ctx, req.PatientID, req.Symptoms, "symptoms"); err != nil {
		return nil, err
	}
	text, err := h.suggest.SuggestDiagnosis(ctx, req.PatientID, req.Symptoms)
	if err != nil {
		return nil, h.suggestErr(err)
	}
	return &rpc.SuggestResponse{Suggestion: text}, nil
}

func (h *Handler) SuggestTreatment(ctx context.Context, req *rpc.SuggestRequest) (*rpc.SuggestResponse, error) {
	if err := h.checkSuggest(ctx, req.PatientID, req.Diagnosis, "diagnosis"); err != nil {
		return nil, err
	}
	text, err := h.suggest.SuggestTreatment(ctx, req.PatientID, req.Diagnosis)
	if err != nil {
		return nil, h.suggestErr(err)
	}
	return &rpc.SuggestResponse{Suggestion: text}, nil
}

func (h *Handler) checkSuggest(ctx context.Context, patientID, input, field string) error {
	if err := requireRole(ctx, model.RoleDoctor); err != nil {
		return err
	}
	if h.suggest == nil {
		return status.Error(codes.Unavailable, "suggestions are not configured")
	}
	if patientID == "" {
		return status.Error(codes.InvalidArgument, "patient_id required")
	}
	if strings.TrimSpace(input) == "" {
		return status.Errorf(codes.InvalidArgument, "%s required", field)
	}
	return nil
}

func (h *Handler) suggestErr(err error) error {
	if errors.Is(err, suggest.ErrUnavailable) {
		h.log.Warn().Err(err).Msg("suggestion generator unavailable")
		return status.Error(codes.Unavailable, "suggestion service unavailable")
	}
	if errors.Is(err, store.ErrNotFound) {
		return status.Error(codes.NotFound, "patient not found")
	}
	return h.fail("suggest", err)
}
