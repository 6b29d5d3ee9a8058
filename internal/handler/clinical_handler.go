package handler

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"health-records-api/internal/model"
	"health-records-api/internal/rpc"
	"health-records-api/internal/store"
)

func (h *Handler) AddVisit(ctx context.Context, req *rpc.VisitInput) (*model.Visit, error) {
	if err := requireClinician(ctx); err != nil {
		return nil, err
	}
	day, err := dateOr("visit_date", req.VisitDate, h.now())
	if err != nil {
		return nil, err
	}
	v := &model.Visit{
		PatientID:      req.PatientID,
		VisitDate:      day,
		ProviderID:     uid(ctx),
		ChiefComplaint: strings.TrimSpace(req.ChiefComplaint),
		Diagnosis:      strings.TrimSpace(req.Diagnosis),
		TreatmentPlan:  req.TreatmentPlan,
		Notes:          req.Notes,
	}
	if err := v.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := h.store.AddVisit(ctx, v); err != nil {
		return nil, h.fail("add visit", err)
	}
	return v, nil
}

// AddMedication prescribes a medication; only doctors prescribe.
func (h *Handler) AddMedication(ctx context.Context, req *rpc.MedicationInput) (*model.Medication, error) {
	if err := requireRole(ctx, model.RoleDoctor); err != nil {
		return nil, err
	}
	start, err := optDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := optDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	m := &model.Medication{
		PatientID:      req.PatientID,
		MedicationName: strings.TrimSpace(req.MedicationName),
		Dosage:         strings.TrimSpace(req.Dosage),
		Frequency:      strings.TrimSpace(req.Frequency),
		StartDate:      start,
		EndDate:        end,
		Prescriber:     uid(ctx),
		Notes:          req.Notes,
	}
	if m.StartDate == nil {
		today := h.today()
		m.StartDate = &today
	}
	if err := m.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := h.store.AddMedication(ctx, m); err != nil {
		return nil, h.fail("add medication", err)
	}
	return m, nil
}

// CreateReport files a report, optionally on behalf of an approved hospital.
func (h *Handler) CreateReport(ctx context.Context, req *rpc.ReportInput) (*model.Report, error) {
	if err := requireClinician(ctx); err != nil {
		return nil, err
	}
	r := &model.Report{
		PatientID:  req.PatientID,
		HospitalID: strings.TrimSpace(req.HospitalID),
		Title:      strings.TrimSpace(req.Title),
		ReportType: strings.TrimSpace(req.ReportType),
		Content:    req.Content,
		CreatedBy:  uid(ctx),
	}
	if err := r.Validate(); err != nil {
		return nil, invalid(err)
	}
	if r.HospitalID != "" {
		hosp, err := h.store.GetHospital(ctx, r.HospitalID)
		if err != nil {
			return nil, h.fail("create report", err)
		}
		if hosp.Status != model.HospitalApproved {
			return nil, status.Error(codes.FailedPrecondition, "hospital is not approved")
		}
	}
	if err := h.store.CreateReport(ctx, r); err != nil {
		return nil, h.fail("create report", err)
	}
	return r, nil
}

func (h *Handler) ListReports(ctx context.Context, req *rpc.ListReportsRequest) (*rpc.ListReportsResponse, error) {
	if req.PatientID == "" && req.HospitalID == "" {
		return nil, status.Error(codes.InvalidArgument, "patient_id or hospital_id required")
	}
	list, err := h.store.ListReports(ctx, store.ReportFilter{PatientID: req.PatientID, HospitalID: req.HospitalID})
	if err != nil {
		return nil, h.fail("list reports", err)
	}
	return &rpc.ListReportsResponse{Reports: list}, nil
}
