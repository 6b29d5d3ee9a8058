package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"health-records-api/internal/middleware"
	"health-records-api/internal/model"
	"health-records-api/internal/rpc"
	"health-records-api/internal/store"
)

const defaultDuration = 30 // minutes

// appointmentTime resolves the two request forms. ok is false when no time
// was given at all.
func appointmentTime(req *rpc.AppointmentInput) (t time.Time, ok bool, err error) {
	if req.AppointmentDate != "" {
		ts, err := model.ParseDate(req.AppointmentDate)
		if err != nil {
			return time.Time{}, false, invalidField("appointment_date", errors.New("expected RFC 3339"))
		}
		return ts.UTC(), true, nil
	}
	if req.Date == "" {
		if req.Time != "" {
			return time.Time{}, false, invalidField("date", errors.New("required with time"))
		}
		return time.Time{}, false, nil
	}
	day, err := time.Parse(model.DateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return time.Time{}, false, invalidField("date", errors.New("expected YYYY-MM-DD"))
	}
	if req.Time == "" {
		return day, true, nil
	}
	clock, err := time.Parse(model.TimeLayout, strings.TrimSpace(req.Time))
	if err != nil {
		return time.Time{}, false, invalidField("time", errors.New("expected HH:MM"))
	}
	return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), true, nil
}

func appointmentReply(a *model.Appointment) *rpc.AppointmentReply {
	return &rpc.AppointmentReply{
		Appointment: *a,
		Date:        model.DatePart(a.AppointmentDate),
		Time:        model.TimePart(a.AppointmentDate),
	}
}

func (h *Handler) CreateAppointment(ctx context.Context, req *rpc.AppointmentInput) (*rpc.AppointmentReply, error) {
	if err := requireRole(ctx, model.RoleDoctor, model.RoleNurse, model.RoleStaff); err != nil {
		return nil, err
	}
	when, _, err := appointmentTime(req)
	if err != nil {
		return nil, err
	}

	a := &model.Appointment{
		PatientID:       req.PatientID,
		ProviderID:      strings.TrimSpace(req.ProviderID),
		AppointmentDate: when,
		Duration:        req.Duration,
		Status:          req.Status,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}
	if a.Duration == 0 {
		a.Duration = defaultDuration
	}
	// doctors book for themselves unless told otherwise
	if a.ProviderID == "" && middleware.Role(ctx) == model.RoleDoctor {
		a.ProviderID = uid(ctx)
	}
	if err := a.Validate(); err != nil {
		return nil, invalid(err)
	}

	if err := h.store.CreateAppointment(ctx, a); err != nil {
		return nil, h.fail("create appointment", err)
	}
	// reload for the joined patient name
	out, err := h.store.GetAppointment(ctx, a.ID)
	if err != nil {
		return nil, h.fail("create appointment", err)
	}
	return appointmentReply(out), nil
}

// UpdateAppointment changes the fields present in req; absent ones keep
// their stored values.
func (h *Handler) UpdateAppointment(ctx context.Context, req *rpc.AppointmentInput) (*rpc.AppointmentReply, error) {
	if err := requireRole(ctx, model.RoleDoctor, model.RoleNurse, model.RoleStaff); err != nil {
		return nil, err
	}
	if req.ID == 0 {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	a, err := h.store.GetAppointment(ctx, req.ID)
	if err != nil {
		return nil, h.fail("update appointment", err)
	}
	if req.PatientID != "" && req.PatientID != a.PatientID {
		return nil, status.Error(codes.InvalidArgument, "appointment belongs to another patient")
	}

	when, ok, err := appointmentTime(req)
	if err != nil {
		return nil, err
	}
	if ok {
		a.AppointmentDate = when
	}
	if req.ProviderID != "" {
		a.ProviderID = strings.TrimSpace(req.ProviderID)
	}
	if req.Duration != 0 {
		a.Duration = req.Duration
	}
	if req.Status != "" {
		a.Status = req.Status
	}
	if req.Reason != "" {
		a.Reason = req.Reason
	}
	if req.Notes != "" {
		a.Notes = req.Notes
	}
	if err := a.Validate(); err != nil {
		return nil, invalid(err)
	}

	if err := h.store.UpdateAppointment(ctx, a); err != nil {
		return nil, h.fail("update appointment", err)
	}
	return appointmentReply(a), nil
}

func (h *Handler) SetAppointmentStatus(ctx context.Context, req *rpc.SetStatusRequest) (*rpc.AppointmentReply, error) {
	if err := requireRole(ctx, model.RoleDoctor, model.RoleNurse, model.RoleStaff); err != nil {
		return nil, err
	}
	if req.ID == 0 {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	if !model.IsAppointmentStatus(req.Status) {
		return nil, status.Errorf(codes.InvalidArgument, "status must be one of %s",
			strings.Join(model.AppointmentStatuses, ", "))
	}
	if err := h.store.SetAppointmentStatus(ctx, req.ID, req.Status); err != nil {
		return nil, h.fail("set appointment status", err)
	}
	a, err := h.store.GetAppointment(ctx, req.ID)
	if err != nil {
		return nil, h.fail("set appointment status", err)
	}
	return appointmentReply(a), nil
}

func (h *Handler) ListAppointments(ctx context.Context, req *rpc.ListAppointmentsRequest) (*rpc.ListAppointmentsResponse, error) {
	if req.Status != "" && !model.IsAppointmentStatus(req.Status) {
		return nil, status.Error(codes.InvalidArgument, "unknown status")
	}
	if req.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}
	from, err := optDate("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := rangeEnd("to", req.To)
	if err != nil {
		return nil, err
	}
	f := store.AppointmentFilter{
		PatientID:  req.PatientID,
		ProviderID: req.ProviderID,
		Status:     req.Status,
		To:         to,
		Limit:      min(req.Limit, maxPageSize),
	}
	if from != nil {
		f.From = *from
	}

	list, err := h.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, h.fail("list appointments", err)
	}
	out := make([]rpc.AppointmentReply, len(list))
	for i := range list {
		out[i] = *appointmentReply(&list[i])
	}
	return &rpc.ListAppointmentsResponse{Appointments: out}, nil
}

func (h *Handler) DeleteAppointment(ctx context.Context, req *rpc.NumericIDRequest) (*emptypb.Empty, error) {
	if err := requireRole(ctx, model.RoleDoctor, model.RoleStaff); err != nil {
		return nil, err
	}
	if req.ID == 0 {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	if err := h.store.DeleteAppointment(ctx, req.ID); err != nil {
		return nil, h.fail("delete appointment", err)
	}
	return &emptypb.Empty{}, nil
}
