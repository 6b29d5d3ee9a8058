package handler_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"health-records-api/internal/auth"
	"health-records-api/internal/handler"
	"health-records-api/internal/middleware"
	"health-records-api/internal/model"
	"health-records-api/internal/rpc"
	"health-records-api/internal/store"
	"health-records-api/internal/suggest"
)

const secret = "test-secret"

var clock = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*handler.Handler, *store.Store) {
	t.Helper()
	db, err := store.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(db.Close)
	st := store.New(db).WithClock(func() time.Time { return clock })
	if _, err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sg := suggest.NewService(st, suggest.CannedGenerator{Text: "rest and fluids"})
	h := handler.New(st, sg, secret, zerolog.Nop()).WithClock(func() time.Time { return clock })
	return h, st
}

func authedCtx(uid, role string) context.Context {
	return middleware.WithUser(context.Background(), uid, role)
}

func seedUser(t *testing.T, st *store.Store, username, role, password string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &model.User{Username: username, PasswordHash: hash, Name: username, Role: role}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func wantCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil error", want)
	}
	s, _ := status.FromError(err)
	if s.Code() != want {
		t.Fatalf("expected %v, got %v (%s)", want, s.Code(), s.Message())
	}
}

func createPatient(t *testing.T, h *handler.Handler, ctx context.Context, first, last string) *rpc.PatientReply {
	t.Helper()
	p, err := h.CreatePatient(ctx, &rpc.PatientInput{
		FirstName: first, LastName: last, DateOfBirth: "1980-05-15", Gender: "Male",
	})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}

// ----- auth -----

func TestLoginAndRefresh(t *testing.T) {
	h, st := setup(t)
	seedUser(t, st, "drhouse", model.RoleDoctor, "vicodin-123")

	lr, err := h.Login(context.Background(), &rpc.LoginRequest{Username: "drhouse", Password: "vicodin-123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if lr.AccessToken == "" || lr.RefreshToken == "" {
		t.Fatal("empty tokens")
	}
	if lr.User.Role != model.RoleDoctor {
		t.Errorf("role: got %s", lr.User.Role)
	}
	c, err := auth.ParseToken(lr.AccessToken, secret)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if c.UserID != lr.User.ID || c.Role != model.RoleDoctor {
		t.Errorf("claims: %+v", c)
	}

	rr, err := h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: lr.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rr.RefreshToken == lr.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// replaying the rotated token kills every session
	_, err = h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: lr.RefreshToken})
	wantCode(t, err, codes.Unauthenticated)
	_, err = h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: rr.RefreshToken})
	wantCode(t, err, codes.Unauthenticated)
}

func TestLoginFailures(t *testing.T) {
	h, st := setup(t)
	seedUser(t, st, "nurse1", model.RoleNurse, "correct-horse")

	tests := []struct {
		name string
		req  *rpc.LoginRequest
		code codes.Code
	}{
		{"empty username", &rpc.LoginRequest{Password: "x"}, codes.InvalidArgument},
		{"empty password", &rpc.LoginRequest{Username: "nurse1"}, codes.InvalidArgument},
		{"wrong password", &rpc.LoginRequest{Username: "nurse1", Password: "wrong-horse"}, codes.Unauthenticated},
		{"unknown user", &rpc.LoginRequest{Username: "ghost", Password: "correct-horse"}, codes.Unauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Login(context.Background(), tt.req)
			wantCode(t, err, tt.code)
		})
	}
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	h, st := setup(t)
	u := &model.User{Username: "admin", PasswordHash: auth.LegacyHash("admin123"), Name: "Administrator", Role: model.RoleAdmin}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := h.Login(context.Background(), &rpc.LoginRequest{Username: "admin", Password: "admin123"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	got, err := st.UserByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if auth.NeedsRehash(got.PasswordHash) {
		t.Fatal("legacy hash was not replaced")
	}
	if !auth.CheckPassword(got.PasswordHash, "admin123") {
		t.Fatal("new hash does not verify")
	}
	if got.LastLogin == nil {
		t.Error("last login not recorded")
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	h, _ := setup(t)
	_, err := h.Refresh(context.Background(), &rpc.RefreshRequest{})
	wantCode(t, err, codes.InvalidArgument)
	_, err = h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: "deadbeef"})
	wantCode(t, err, codes.Unauthenticated)
}

func TestLogoutRevokesSessions(t *testing.T) {
	h, st := setup(t)
	u := seedUser(t, st, "clerk", model.RoleStaff, "paperwork1")
	lr, err := h.Login(context.Background(), &rpc.LoginRequest{Username: "clerk", Password: "paperwork1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = h.Logout(context.Background(), &emptypb.Empty{})
	wantCode(t, err, codes.Unauthenticated)

	if _, err := h.Logout(authedCtx(u.ID, u.Role), &emptypb.Empty{}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err = h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: lr.RefreshToken})
	wantCode(t, err, codes.Unauthenticated)
}

func TestEndSession(t *testing.T) {
	h, st := setup(t)
	seedUser(t, st, "clerk", model.RoleStaff, "paperwork1")
	lr, err := h.Login(context.Background(), &rpc.LoginRequest{Username: "clerk", Password: "paperwork1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := h.EndSession(context.Background(), "unknown"); err != nil {
		t.Fatalf("unknown token: %v", err)
	}
	if err := h.EndSession(context.Background(), lr.RefreshToken); err != nil {
		t.Fatalf("end session: %v", err)
	}
	_, err = h.Refresh(context.Background(), &rpc.RefreshRequest{RefreshToken: lr.RefreshToken})
	wantCode(t, err, codes.Unauthenticated)
}

func TestMe(t *testing.T) {
	h, st := setup(t)
	u := seedUser(t, st, "drwho", model.RoleDoctor, "tardis-1963")

	me, err := h.Me(authedCtx(u.ID, u.Role), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Username != "drwho" {
		t.Errorf("username: got %s", me.Username)
	}
	_, err = h.Me(authedCtx("USR_missing", model.RoleDoctor), &emptypb.Empty{})
	wantCode(t, err, codes.NotFound)
}

func TestCreateUser(t *testing.T) {
	h, st := setup(t)
	admin := seedUser(t, st, "root", model.RoleAdmin, "rootroot")
	adminCtx := authedCtx(admin.ID, admin.Role)

	tests := []struct {
		name string
		ctx  context.Context
		req  *rpc.CreateUserRequest
		code codes.Code
	}{
		{"anonymous", context.Background(), &rpc.CreateUserRequest{Username: "a", Password: "password1", Name: "A", Role: "nurse"}, codes.Unauthenticated},
		{"not admin", authedCtx("USR_x", model.RoleDoctor), &rpc.CreateUserRequest{Username: "a", Password: "password1", Name: "A", Role: "nurse"}, codes.PermissionDenied},
		{"short password", adminCtx, &rpc.CreateUserRequest{Username: "a", Password: "short", Name: "A", Role: "nurse"}, codes.InvalidArgument},
		{"bad role", adminCtx, &rpc.CreateUserRequest{Username: "a", Password: "password1", Name: "A", Role: "janitor"}, codes.InvalidArgument},
		{"duplicate", adminCtx, &rpc.CreateUserRequest{Username: "root", Password: "password1", Name: "A", Role: "nurse"}, codes.AlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.CreateUser(tt.ctx, tt.req)
			wantCode(t, err, tt.code)
		})
	}

	u, err := h.CreateUser(adminCtx, &rpc.CreateUserRequest{Username: "nina", Password: "password1", Name: "Nina", Role: model.RoleNurse})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" || u.Role != model.RoleNurse {
		t.Errorf("unexpected user: %+v", u)
	}

	lu, err := h.ListUsers(adminCtx, &rpc.ListUsersRequest{Role: model.RoleNurse})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lu.Users) != 1 || lu.Users[0].Username != "nina" {
		t.Errorf("expected only nina, got %+v", lu.Users)
	}
	_, err = h.ListUsers(authedCtx(u.ID, u.Role), &rpc.ListUsersRequest{})
	wantCode(t, err, codes.PermissionDenied)
}

// ----- patients -----

func TestPatientLifecycle(t *testing.T) {
	h, st := setup(t)
	doc := seedUser(t, st, "doc", model.RoleDoctor, "password1")
	ctx := authedCtx(doc.ID, doc.Role)

	p := createPatient(t, h, ctx, "John", "Doe")
	if p.ID == "" {
		t.Fatal("empty id")
	}
	if p.Age != 43 {
		t.Errorf("age: got %d", p.Age)
	}

	got, err := h.GetPatient(ctx, &rpc.IDRequest{ID: p.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FirstName != "John" {
		t.Errorf("first name: got %s", got.FirstName)
	}

	up, err := h.UpdatePatient(ctx, &rpc.PatientInput{ID: p.ID, FirstName: "Johnny", LastName: "Doe", Gender: "Male"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if up.FirstName != "Johnny" || up.Age != -1 {
		t.Errorf("unexpected update result: %+v", up)
	}
	_, err = h.UpdatePatient(ctx, &rpc.PatientInput{ID: "PAT_missing", FirstName: "A", LastName: "B"})
	wantCode(t, err, codes.NotFound)

	createPatient(t, h, ctx, "Jane", "Smith")
	lp, err := h.ListPatients(ctx, &rpc.ListPatientsRequest{Query: "smi"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if lp.Total != 1 || len(lp.Patients) != 1 || lp.Patients[0].LastName != "Smith" {
		t.Errorf("unexpected list: %+v", lp)
	}
	_, err = h.ListPatients(ctx, &rpc.ListPatientsRequest{Offset: -1})
	wantCode(t, err, codes.InvalidArgument)

	_, err = h.DeletePatient(ctx, &rpc.IDRequest{ID: p.ID})
	wantCode(t, err, codes.PermissionDenied)

	admin := authedCtx("USR_admin", model.RoleAdmin)
	dr, err := h.DeletePatient(admin, &rpc.IDRequest{ID: p.ID})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if dr.Removed["patients"] != 1 {
		t.Errorf("removed: %+v", dr.Removed)
	}
	_, err = h.GetPatient(ctx, &rpc.IDRequest{ID: p.ID})
	wantCode(t, err, codes.NotFound)
	_, err = h.DeletePatient(admin, &rpc.IDRequest{ID: p.ID})
	wantCode(t, err, codes.NotFound)
}

func TestCreatePatientValidation(t *testing.T) {
	h, _ := setup(t)
	ctx := authedCtx("USR_staff", model.RoleStaff)

	tests := []struct {
		name string
		req  *rpc.PatientInput
	}{
		{"missing names", &rpc.PatientInput{}},
		{"bad birth date", &rpc.PatientInput{FirstName: "A", LastName: "B", DateOfBirth: "15/05/1980"}},
		{"born in the future", &rpc.PatientInput{FirstName: "A", LastName: "B", DateOfBirth: "2999-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.CreatePatient(ctx, tt.req)
			wantCode(t, err, codes.InvalidArgument)
		})
	}

	_, err := h.CreatePatient(context.Background(), &rpc.PatientInput{FirstName: "A", LastName: "B"})
	wantCode(t, err, codes.Unauthenticated)
}

func TestCreatePatientDuplicateID(t *testing.T) {
	h, _ := setup(t)
	ctx := authedCtx("USR_staff", model.RoleStaff)
	if _, err := h.CreatePatient(ctx, &rpc.PatientInput{ID: "PAT_001", FirstName: "A", LastName: "B"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := h.CreatePatient(ctx, &rpc.PatientInput{ID: "PAT_001", FirstName: "C", LastName: "D"})
	wantCode(t, err, codes.AlreadyExists)
}

func TestChildRecords(t *testing.T) {
	h, st := setup(t)
	nurse := seedUser(t, st, "nurse", model.RoleNurse, "password1")
	ctx := authedCtx(nurse.ID, nurse.Role)
	p := createPatient(t, h, ctx, "John", "Doe")

	c, err := h.AddContactInfo(ctx, &model.ContactInfo{PatientID: p.ID, Phone: "555-0101", Email: "john@example.com"})
	if err != nil {
		t.Fatalf("contact: %v", err)
	}
	if c.ID == 0 {
		t.Error("contact id not set")
	}
	_, err = h.AddContactInfo(ctx, &model.ContactInfo{PatientID: p.ID, Email: "nope"})
	wantCode(t, err, codes.InvalidArgument)
	_, err = h.AddContactInfo(ctx, &model.ContactInfo{PatientID: "PAT_missing", Phone: "555"})
	wantCode(t, err, codes.FailedPrecondition)

	mh, err := h.AddMedicalHistory(ctx, &model.MedicalHistory{PatientID: p.ID, BloodType: "o+", Allergies: "Penicillin"})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if mh.BloodType != "O+" {
		t.Errorf("blood type: got %s", mh.BloodType)
	}
	_, err = h.AddMedicalHistory(authedCtx("USR_staff", model.RoleStaff), &model.MedicalHistory{PatientID: p.ID})
	wantCode(t, err, codes.PermissionDenied)

	ins, err := h.AddInsurance(ctx, &rpc.InsuranceInput{
		PatientID: p.ID, Provider: "Blue Cross", PolicyNumber: "BC-1",
		CoverageStartDate: "2024-01-01", CoverageEndDate: "2024-12-31",
	})
	if err != nil {
		t.Fatalf("insurance: %v", err)
	}
	if ins.CoverageEndDate == nil || model.DatePart(*ins.CoverageEndDate) != "2024-12-31" {
		t.Errorf("coverage end: %v", ins.CoverageEndDate)
	}
	_, err = h.AddInsurance(ctx, &rpc.InsuranceInput{PatientID: p.ID, Provider: "X", PolicyNumber: "1", CoverageEndDate: "soon"})
	wantCode(t, err, codes.InvalidArgument)

	rec, err := h.GetPatientRecord(ctx, &rpc.IDRequest{ID: p.ID})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(rec.Record.Contacts) != 1 || len(rec.Record.MedicalHistory) != 1 || len(rec.Record.Insurance) != 1 {
		t.Errorf("unexpected record: %+v", rec.Record)
	}
}

func TestVitalSigns(t *testing.T) {
	h, st := setup(t)
	nurse := seedUser(t, st, "nurse", model.RoleNurse, "password1")
	ctx := authedCtx(nurse.ID, nurse.Role)
	p := createPatient(t, h, ctx, "John", "Doe")

	weight, height, temp := 150.0, 65.0, 98.6
	v, err := h.AddVitalSigns(ctx, &rpc.VitalSignsInput{
		PatientID: p.ID, Weight: &weight, Height: &height, Temperature: &temp, BloodPressure: "120/80",
	})
	if err != nil {
		t.Fatalf("add vitals: %v", err)
	}
	if v.BMI == nil || *v.BMI != 25.0 {
		t.Fatalf("bmi: %v", v.BMI)
	}
	if v.BMICategory != "Overweight" {
		t.Errorf("category: got %s", v.BMICategory)
	}
	if v.RecordedBy != nurse.ID {
		t.Errorf("recorded by: got %s", v.RecordedBy)
	}
	if !v.RecordedDate.Equal(clock) {
		t.Errorf("recorded date: got %v", v.RecordedDate)
	}

	hot := 130.0
	_, err = h.AddVitalSigns(ctx, &rpc.VitalSignsInput{PatientID: p.ID, Temperature: &hot})
	wantCode(t, err, codes.InvalidArgument)
	_, err = h.AddVitalSigns(authedCtx("USR_staff", model.RoleStaff), &rpc.VitalSignsInput{PatientID: p.ID})
	wantCode(t, err, codes.PermissionDenied)

	if _, err := h.AddVitalSigns(ctx, &rpc.VitalSignsInput{PatientID: p.ID, RecordedDate: "2024-01-15", Notes: "old"}); err != nil {
		t.Fatalf("add old vitals: %v", err)
	}

	lv, err := h.ListVitalSigns(ctx, &rpc.ListVitalSignsRequest{PatientID: p.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lv.VitalSigns) != 2 || lv.VitalSigns[0].BMICategory != "Overweight" {
		t.Errorf("unexpected vitals: %+v", lv.VitalSigns)
	}

	lv, err = h.ListVitalSigns(ctx, &rpc.ListVitalSignsRequest{PatientID: p.ID, From: "2024-03-01", To: "2024-03-10"})
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(lv.VitalSigns) != 1 {
		t.Errorf("expected 1 reading in range, got %d", len(lv.VitalSigns))
	}

	_, err = h.ListVitalSigns(ctx, &rpc.ListVitalSignsRequest{PatientID: "PAT_missing"})
	wantCode(t, err, codes.NotFound)
}

// ----- appointments -----

func TestAppointments(t *testing.T) {
	h, st := setup(t)
	doc := seedUser(t, st, "doc", model.RoleDoctor, "password1")
	ctx := authedCtx(doc.ID, doc.Role)
	p := createPatient(t, h, ctx, "John", "Doe")

	a, err := h.CreateAppointment(ctx, &rpc.AppointmentInput{
		PatientID: p.ID, Date: "2024-03-12", Time: "14:30", Reason: "Checkup",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Date != "2024-03-12" || a.Time != "14:30" {
		t.Errorf("date/time: %s %s", a.Date, a.Time)
	}
	if a.Status != model.StatusScheduled || a.Duration != 30 {
		t.Errorf("defaults: status %s duration %d", a.Status, a.Duration)
	}
	if a.ProviderID != doc.ID {
		t.Errorf("provider: got %s", a.ProviderID)
	}
	if a.PatientName != "John Doe" {
		t.Errorf("patient name: got %s", a.PatientName)
	}

	tests := []struct {
		name string
		req  *rpc.AppointmentInput
	}{
		{"no date", &rpc.AppointmentInput{PatientID: p.ID}},
		{"time without date", &rpc.AppointmentInput{PatientID: p.ID, Time: "10:00"}},
		{"bad time", &rpc.AppointmentInput{PatientID: p.ID, Date: "2024-03-12", Time: "2pm"}},
		{"bad status", &rpc.AppointmentInput{PatientID: p.ID, AppointmentDate: "2024-03-12T10:00:00Z", Status: "Maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.CreateAppointment(ctx, tt.req)
			wantCode(t, err, codes.InvalidArgument)
		})
	}

	up, err := h.UpdateAppointment(ctx, &rpc.AppointmentInput{ID: a.ID, Duration: 45, Notes: "fasting"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if up.Duration != 45 || up.Reason != "Checkup" || up.Time != "14:30" {
		t.Errorf("update kept wrong fields: %+v", up)
	}
	_, err = h.UpdateAppointment(ctx, &rpc.AppointmentInput{ID: a.ID, PatientID: "PAT_other"})
	wantCode(t, err, codes.InvalidArgument)
	_, err = h.UpdateAppointment(ctx, &rpc.AppointmentInput{ID: 9999})
	wantCode(t, err, codes.NotFound)

	sr, err := h.SetAppointmentStatus(ctx, &rpc.SetStatusRequest{ID: a.ID, Status: model.StatusCompleted})
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if sr.Status != model.StatusCompleted {
		t.Errorf("status: got %s", sr.Status)
	}
	_, err = h.SetAppointmentStatus(ctx, &rpc.SetStatusRequest{ID: a.ID, Status: "Done"})
	wantCode(t, err, codes.InvalidArgument)

	if _, err := h.CreateAppointment(ctx, &rpc.AppointmentInput{PatientID: p.ID, AppointmentDate: "2024-04-01T09:00:00Z"}); err != nil {
		t.Fatalf("create second: %v", err)
	}
	la, err := h.ListAppointments(ctx, &rpc.ListAppointmentsRequest{PatientID: p.ID, To: "2024-03-31"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(la.Appointments) != 1 || la.Appointments[0].ID != a.ID {
		t.Errorf("unexpected list: %+v", la.Appointments)
	}
	la, err = h.ListAppointments(ctx, &rpc.ListAppointmentsRequest{Status: model.StatusScheduled})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(la.Appointments) != 1 {
		t.Errorf("expected 1 scheduled, got %d", len(la.Appointments))
	}

	_, err = h.DeleteAppointment(authedCtx("USR_nurse", model.RoleNurse), &rpc.NumericIDRequest{ID: a.ID})
	wantCode(t, err, codes.PermissionDenied)
	if _, err := h.DeleteAppointment(ctx, &rpc.NumericIDRequest{ID: a.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = h.DeleteAppointment(ctx, &rpc.NumericIDRequest{ID: a.ID})
	wantCode(t, err, codes.NotFound)
}

func TestAppointmentUnknownProvider(t *testing.T) {
	h, _ := setup(t)
	ctx := authedCtx("USR_staff", model.RoleStaff)
	p := createPatient(t, h, ctx, "John", "Doe")
	_, err := h.CreateAppointment(ctx, &rpc.AppointmentInput{
		PatientID: p.ID, ProviderID: "USR_nobody", AppointmentDate: "2024-03-12T10:00:00Z",
	})
	wantCode(t, err, codes.FailedPrecondition)
}

// ----- visits, medications, reports -----

func TestVisitsAndMedications(t *testing.T) {
	h, st := setup(t)
	doc := seedUser(t, st, "doc", model.RoleDoctor, "password1")
	ctx := authedCtx(doc.ID, doc.Role)
	p := createPatient(t, h, ctx, "John", "Doe")

	v, err := h.AddVisit(ctx, &rpc.VisitInput{PatientID: p.ID, ChiefComplaint: "Headache", Diagnosis: "Migraine"})
	if err != nil {
		t.Fatalf("visit: %v", err)
	}
	if v.ProviderID != doc.ID || model.DatePart(v.VisitDate) != "2024-03-10" {
		t.Errorf("unexpected visit: %+v", v)
	}
	_, err = h.AddVisit(ctx, &rpc.VisitInput{PatientID: p.ID})
	wantCode(t, err, codes.InvalidArgument)

	m, err := h.AddMedication(ctx, &rpc.MedicationInput{PatientID: p.ID, MedicationName: "Sumatriptan", Dosage: "50mg"})
	if err != nil {
		t.Fatalf("medication: %v", err)
	}
	if m.StartDate == nil || model.DatePart(*m.StartDate) != "2024-03-10" || m.Prescriber != doc.ID {
		t.Errorf("unexpected medication: %+v", m)
	}
	if _, err := h.AddMedication(ctx, &rpc.MedicationInput{
		PatientID: p.ID, MedicationName: "Amoxicillin", StartDate: "2024-01-01", EndDate: "2024-01-10",
	}); err != nil {
		t.Fatalf("old medication: %v", err)
	}
	_, err = h.AddMedication(ctx, &rpc.MedicationInput{PatientID: p.ID, MedicationName: "X", StartDate: "2024-02-01", EndDate: "2024-01-01"})
	wantCode(t, err, codes.InvalidArgument)
	_, err = h.AddMedication(authedCtx("USR_nurse", model.RoleNurse), &rpc.MedicationInput{PatientID: p.ID, MedicationName: "X"})
	wantCode(t, err, codes.PermissionDenied)

	rec, err := h.GetPatientRecord(ctx, &rpc.IDRequest{ID: p.ID})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(rec.Record.Medications) != 2 {
		t.Errorf("medications: got %d", len(rec.Record.Medications))
	}
	if len(rec.ActiveMedications) != 1 || rec.ActiveMedications[0].MedicationName != "Sumatriptan" {
		t.Errorf("active: %+v", rec.ActiveMedications)
	}
	if rec.Age != 43 {
		t.Errorf("age: got %d", rec.Age)
	}
}

func TestHospitalsAndReports(t *testing.T) {
	h, st := setup(t)
	doc := seedUser(t, st, "doc", model.RoleDoctor, "password1")
	admin := seedUser(t, st, "root", model.RoleAdmin, "password1")
	docCtx := authedCtx(doc.ID, doc.Role)
	adminCtx := authedCtx(admin.ID, admin.Role)
	p := createPatient(t, h, docCtx, "John", "Doe")

	hosp, err := h.RegisterHospital(context.Background(), &rpc.HospitalInput{Name: "General", LicenseNumber: "LIC-1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if hosp.Status != model.HospitalPending {
		t.Errorf("status: got %s", hosp.Status)
	}
	_, err = h.RegisterHospital(context.Background(), &rpc.HospitalInput{Name: "Copy", LicenseNumber: "LIC-1"})
	wantCode(t, err, codes.AlreadyExists)
	_, err = h.RegisterHospital(context.Background(), &rpc.HospitalInput{Name: "No License"})
	wantCode(t, err, codes.InvalidArgument)

	report := &rpc.ReportInput{PatientID: p.ID, HospitalID: hosp.ID, Title: "Discharge", Content: "Stable"}
	_, err = h.CreateReport(docCtx, report)
	wantCode(t, err, codes.FailedPrecondition)

	_, err = h.ReviewHospital(docCtx, &rpc.ReviewHospitalRequest{ID: hosp.ID, Approve: true})
	wantCode(t, err, codes.PermissionDenied)
	_, err = h.ReviewHospital(adminCtx, &rpc.ReviewHospitalRequest{ID: hosp.ID})
	wantCode(t, err, codes.InvalidArgument)

	rv, err := h.ReviewHospital(adminCtx, &rpc.ReviewHospitalRequest{ID: hosp.ID, Approve: true})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if rv.Status != model.HospitalApproved || rv.ReviewedBy != admin.ID {
		t.Errorf("unexpected review: %+v", rv)
	}
	_, err = h.ReviewHospital(adminCtx, &rpc.ReviewHospitalRequest{ID: hosp.ID, Reason: "changed mind"})
	wantCode(t, err, codes.FailedPrecondition)
	_, err = h.ReviewHospital(adminCtx, &rpc.ReviewHospitalRequest{ID: "HOS_missing", Approve: true})
	wantCode(t, err, codes.NotFound)

	r, err := h.CreateReport(docCtx, report)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.CreatedBy != doc.ID {
		t.Errorf("created by: got %s", r.CreatedBy)
	}

	lr, err := h.ListReports(docCtx, &rpc.ListReportsRequest{HospitalID: hosp.ID})
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(lr.Reports) != 1 {
		t.Errorf("expected 1 report, got %d", len(lr.Reports))
	}
	_, err = h.ListReports(docCtx, &rpc.ListReportsRequest{})
	wantCode(t, err, codes.InvalidArgument)

	lh, err := h.ListHospitals(docCtx, &rpc.ListHospitalsRequest{Status: model.HospitalApproved})
	if err != nil {
		t.Fatalf("list hospitals: %v", err)
	}
	if len(lh.Hospitals) != 1 {
		t.Errorf("expected 1 approved hospital, got %d", len(lh.Hospitals))
	}
	_, err = h.ListHospitals(docCtx, &rpc.ListHospitalsRequest{Status: "closed"})
	wantCode(t, err, codes.InvalidArgument)
}

// ----- dashboard and suggestions -----

func TestDashboard(t *testing.T) {
	h, _ := setup(t)
	ctx := authedCtx("USR_staff", model.RoleStaff)
	p := createPatient(t, h, ctx, "John", "Doe")
	createPatient(t, h, ctx, "Jane", "Smith")
	if _, err := h.CreateAppointment(ctx, &rpc.AppointmentInput{PatientID: p.ID, Date: "2024-03-11", Time: "09:00"}); err != nil {
		t.Fatalf("appointment: %v", err)
	}

	d, err := h.GetDashboard(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalPatients != 2 || d.NewPatients != 2 || d.TotalAppointments != 1 {
		t.Errorf("unexpected counts: %+v", d)
	}
	if len(d.UpcomingAppointments) != 1 {
		t.Errorf("upcoming: got %d", len(d.UpcomingAppointments))
	}
}

func TestSuggestions(t *testing.T) {
	h, st := setup(t)
	doc := seedUser(t, st, "doc", model.RoleDoctor, "password1")
	ctx := authedCtx(doc.ID, doc.Role)
	p := createPatient(t, h, ctx, "John", "Doe")

	sr, err := h.SuggestDiagnosis(ctx, &rpc.SuggestRequest{PatientID: p.ID, Symptoms: "fever, cough"})
	if err != nil {
		t.Fatalf("diagnosis: %v", err)
	}
	if sr.Suggestion != "rest and fluids" {
		t.Errorf("suggestion: got %q", sr.Suggestion)
	}
	if _, err := h.SuggestTreatment(ctx, &rpc.SuggestRequest{PatientID: p.ID, Diagnosis: "influenza"}); err != nil {
		t.Fatalf("treatment: %v", err)
	}

	_, err = h.SuggestDiagnosis(ctx, &rpc.SuggestRequest{PatientID: p.ID})
	wantCode(t, err, codes.InvalidArgument)
	_, err = h.SuggestDiagnosis(ctx, &rpc.SuggestRequest{PatientID: "PAT_missing", Symptoms: "fever"})
	wantCode(t, err, codes.NotFound)
	_, err = h.SuggestTreatment(authedCtx("USR_nurse", model.RoleNurse), &rpc.SuggestRequest{PatientID: p.ID, Diagnosis: "flu"})
	wantCode(t, err, codes.PermissionDenied)

	bare := handler.New(st, nil, secret, zerolog.Nop())
	_, err = bare.SuggestDiagnosis(ctx, &rpc.SuggestRequest{PatientID: p.ID, Symptoms: "fever"})
	wantCode(t, err, codes.Unavailable)
}

// ----- over the wire -----

func TestServeOverGRPC(t *testing.T) {
	h, st := setup(t)
	seedUser(t, st, "doc", model.RoleDoctor, "password1")

	rl := middleware.NewRateLimiter(100, 100)
	t.Cleanup(rl.Close)
	srv := handler.NewServer(h, secret, rl, zerolog.Nop())
	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	client := rpc.NewClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = client.ListPatients(ctx, &rpc.ListPatientsRequest{})
	wantCode(t, err, codes.Unauthenticated)

	lr, err := client.Login(ctx, &rpc.LoginRequest{Username: "doc", Password: "password1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+lr.AccessToken)

	p, err := client.CreatePatient(authed, &rpc.PatientInput{FirstName: "Wire", LastName: "Test", DateOfBirth: "1990-01-01"})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	if p.Age != 34 {
		t.Errorf("age: got %d", p.Age)
	}
	lp, err := client.ListPatients(authed, &rpc.ListPatientsRequest{})
	if err != nil {
		t.Fatalf("list patients: %v", err)
	}
	if lp.Total != 1 {
		t.Errorf("total: got %d", lp.Total)
	}

	me, err := client.Me(authed, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Username != "doc" {
		t.Errorf("me: got %s", me.Username)
	}

	_, err = client.GetPatient(authed, &rpc.IDRequest{ID: "PAT_missing"})
	wantCode(t, err, codes.NotFound)
}
