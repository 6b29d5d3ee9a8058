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

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (h *Handler) patientFromInput(req *rpc.PatientInput) (*model.Patient, error) {
	dob, err := optDate("date_of_birth", req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	p := &model.Patient{
		ID:           strings.TrimSpace(req.ID),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		DateOfBirth:  dob,
		Gender:       strings.TrimSpace(req.Gender),
		ProfileImage: req.ProfileImage,
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	return p, nil
}

func (h *Handler) patientReply(p *model.Patient) *rpc.PatientReply {
	return &rpc.PatientReply{Patient: *p, Age: p.Age(h.now())}
}

func (h *Handler) CreatePatient(ctx context.Context, req *rpc.PatientInput) (*rpc.PatientReply, error) {
	if err := requireRole(ctx, model.RoleDoctor, model.RoleNurse, model.RoleStaff); err != nil {
		return nil, err
	}
	p, err := h.patientFromInput(req)
	if err != nil {
		return nil, err
	}
	if err := h.store.CreatePatient(ctx, p); err != nil {
		return nil, h.fail("create patient", err)
	}
	return h.patientReply(p), nil
}

func (h *Handler) GetPatient(ctx context.Context, req *rpc.IDRequest) (*rpc.PatientReply, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	p, err := h.store.GetPatient(ctx, req.ID)
	if err != nil {
		return nil, h.fail("get patient", err)
	}
	return h.patientReply(p), nil
}

func (h *Handler) UpdatePatient(ctx context.Context, req *rpc.PatientInput) (*rpc.PatientReply, error) {
	if err := requireRole(ctx, model.RoleDoctor, model.RoleNurse, model.RoleStaff); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	p, err := h.patientFromInput(req)
	if err != nil {
		return nil, err
	}
	if err := h.store.UpdatePatient(ctx, p); err != nil {
		return nil, h.fail("update patient", err)
	}
	return h.patientReply(p), nil
}

// DeletePatient removes a patient with every dependent record.
func (h *Handler) DeletePatient(ctx context.Context, req *rpc.IDRequest) (*rpc.DeletePatientResponse, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	removed, err := h.store.DeletePatient(ctx, req.ID)
	if err != nil {
		return nil, h.fail("delete patient", err)
	}
	h.log.Info().Str("patient_id", req.ID).Str("by", uid(ctx)).Interface("removed", removed).Msg("patient deleted")
	return &rpc.DeletePatientResponse{Removed: removed}, nil
}

func (h *Handler) ListPatients(ctx context.Context, req *rpc.ListPatientsRequest) (*rpc.ListPatientsResponse, error) {
	if req.Offset < 0 || req.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit and offset must not be negative")
	}
	limit := req.Limit
	switch {
	case limit == 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	list, total, err := h.store.ListPatients(ctx, store.PatientFilter{
		Query:  strings.TrimSpace(req.Query),
		Gender: req.Gender,
		Limit:  limit,
		Offset: req.Offset,
	})
	if err != nil {
		return nil, h.fail("list patients", err)
	}
	return &rpc.ListPatientsResponse{Patients: list, Total: total}, nil
}

func (h *Handler) GetPatientRecord(ctx context.Context, req *rpc.IDRequest) (*rpc.PatientRecordResponse, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	rec, err := h.store.PatientRecord(ctx, req.ID)
	if err != nil {
		return nil, h.fail("patient record", err)
	}
	today := h.today()
	active := []model.Medication{}
	for _, m := range rec.Medications {
		if m.ActiveOn(today) {
			active = append(active, m)
		}
	}
	return &rpc.PatientRecordResponse{
		Record:            rec,
		Age:               rec.Patient.Age(h.now()),
		ActiveMedications: active,
	}, nil
}

func (h *Handler) AddContactInfo(ctx context.Context, req *model.ContactInfo) (*model.ContactInfo, error) {
	if err := requireRole(ctx, model.RoleDoctor, model.RoleNurse, model.RoleStaff); err != nil {
		return nil, err
	}
	c := *req
	c.ID = 0
	c.Email = strings.TrimSpace(c.Email)
	if err := c.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := h.store.AddContactInfo(ctx, &c); err != nil {
		return nil, h.fail("add contact", err)
	}
	return &c, nil
}

func (h *Handler) AddMedicalHistory(ctx context.Context, req *model.MedicalHistory) (*model.MedicalHistory, error) {
	if err := requireClinician(ctx); err != nil {
		return nil, err
	}
	mh := *req
	mh.ID = 0
	mh.BloodType = strings.ToUpper(strings.TrimSpace(mh.BloodType))
	if err := mh.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := h.store.AddMedicalHistory(ctx, &mh); err != nil {
		return nil, h.fail("add history", err)
	}
	return &mh, nil
}

func (h *Handler) AddInsurance(ctx context.Context, req *rpc.InsuranceInput) (*model.Insurance, error) {
	if err := requireRole(ctx, model.RoleDoctor, model.RoleNurse, model.RoleStaff); err != nil {
		return nil, err
	}
	start, err := optDate("coverage_start_date", req.CoverageStartDate)
	if err != nil {
		return nil, err
	}
	end, err := optDate("coverage_end_date", req.CoverageEndDate)
	if err != nil {
		return nil, err
	}
	ins := &model.Insurance{
		PatientID:         req.PatientID,
		Provider:          strings.TrimSpace(req.Provider),
		PolicyNumber:      strings.TrimSpace(req.PolicyNumber),
		GroupNumber:       strings.TrimSpace(req.GroupNumber),
		CoverageStartDate: start,
		CoverageEndDate:   end,
		CoverageDetails:   req.CoverageDetails,
	}
	if err := ins.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := h.store.AddInsurance(ctx, ins); err != nil {
		return nil, h.fail("add insurance", err)
	}
	return ins, nil
}

func vitalsReply(v model.VitalSigns) rpc.VitalSignsReply {
	r := rpc.VitalSignsReply{VitalSigns: v}
	if v.BMI != nil {
		r.BMICategory = model.BMICategory(*v.BMI)
	}
	return r
}

// AddVitalSigns records a set of vitals. BMI is derived from weight and
// height; the recorder is the caller.
func (h *Handler) AddVitalSigns(ctx context.Context, req *rpc.VitalSignsInput) (*rpc.VitalSignsReply, error) {
	if err := requireClinician(ctx); err != nil {
		return nil, err
	}
	recorded, err := dateOr("recorded_date", req.RecordedDate, h.now())
	if err != nil {
		return nil, err
	}
	v := &model.VitalSigns{
		PatientID:        req.PatientID,
		RecordedDate:     recorded,
		Temperature:      req.Temperature,
		BloodPressure:    strings.TrimSpace(req.BloodPressure),
		Pulse:            req.Pulse,
		RespiratoryRate:  req.RespiratoryRate,
		OxygenSaturation: req.OxygenSaturation,
		Weight:           req.Weight,
		Height:           req.Height,
		RecordedBy:       uid(ctx),
		Notes:            req.Notes,
	}
	if err := v.Validate(); err != nil {
		return nil, invalid(err)
	}
	v.FillBMI()
	if err := h.store.AddVitalSigns(ctx, v); err != nil {
		return nil, h.fail("add vitals", err)
	}
	r := vitalsReply(*v)
	return &r, nil
}

func (h *Handler) ListVitalSigns(ctx context.Context, req *rpc.ListVitalSignsRequest) (*rpc.ListVitalSignsResponse, error) {
	if req.PatientID == "" {
		return nil, status.Error(codes.InvalidArgument, "patient_id required")
	}
	from, err := optDate("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := rangeEnd("to", req.To)
	if err != nil {
		return nil, err
	}
	rng := store.VitalsRange{To: to}
	if from != nil {
		rng.From = *from
	}
	if _, err := h.store.GetPatient(ctx, req.PatientID); err != nil {
		return nil, h.fail("list vitals", err)
	}
	list, err := h.store.ListVitalSigns(ctx, req.PatientID, rng)
	if err != nil {
		return nil, h.fail("list vitals", err)
	}
	out := make([]rpc.VitalSignsReply, len(list))
	for i := range list {
		out[i] = vitalsReply(list[i])
	}
	return &rpc.ListVitalSignsResponse{VitalSigns: out}, nil
}
