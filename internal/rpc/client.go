package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"health-records-api/internal/model"
)

// Client is a typed RecordService client over any grpc connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *Client) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, MethodRefresh, in, opts)
}

func (c *Client) Logout(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, MethodLogout, in, opts)
}

func (c *Client) Me(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*model.User, error) {
	return invoke[model.User](ctx, c.cc, MethodMe, in, opts)
}

func (c *Client) CreateUser(ctx context.Context, in *CreateUserRequest, opts ...grpc.CallOption) (*model.User, error) {
	return invoke[model.User](ctx, c.cc, MethodCreateUser, in, opts)
}

func (c *Client) ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error) {
	return invoke[ListUsersResponse](ctx, c.cc, MethodListUsers, in, opts)
}

func (c *Client) CreatePatient(ctx context.Context, in *PatientInput, opts ...grpc.CallOption) (*PatientReply, error) {
	return invoke[PatientReply](ctx, c.cc, MethodCreatePatient, in, opts)
}

func (c *Client) GetPatient(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*PatientReply, error) {
	return invoke[PatientReply](ctx, c.cc, MethodGetPatient, in, opts)
}

func (c *Client) UpdatePatient(ctx context.Context, in *PatientInput, opts ...grpc.CallOption) (*PatientReply, error) {
	return invoke[PatientReply](ctx, c.cc, MethodUpdatePatient, in, opts)
}

func (c *Client) DeletePatient(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*DeletePatientResponse, error) {
	return invoke[DeletePatientResponse](ctx, c.cc, MethodDeletePatient, in, opts)
}

func (c *Client) ListPatients(ctx context.Context, in *ListPatientsRequest, opts ...grpc.CallOption) (*ListPatientsResponse, error) {
	return invoke[ListPatientsResponse](ctx, c.cc, MethodListPatients, in, opts)
}

func (c *Client) GetPatientRecord(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*PatientRecordResponse, error) {
	return invoke[PatientRecordResponse](ctx, c.cc, MethodGetPatientRecord, in, opts)
}

func (c *Client) AddContactInfo(ctx context.Context, in *model.ContactInfo, opts ...grpc.CallOption) (*model.ContactInfo, error) {
	return invoke[model.ContactInfo](ctx, c.cc, MethodAddContactInfo, in, opts)
}

func (c *Client) AddMedicalHistory(ctx context.Context, in *model.MedicalHistory, opts ...grpc.CallOption) (*model.MedicalHistory, error) {
	return invoke[model.MedicalHistory](ctx, c.cc, MethodAddMedicalHistory, in, opts)
}

func (c *Client) AddInsurance(ctx context.Context, in *InsuranceInput, opts ...grpc.CallOption) (*model.Insurance, error) {
	return invoke[model.Insurance](ctx, c.cc, MethodAddInsurance, in, opts)
}

func (c *Client) AddVitalSigns(ctx context.Context, in *VitalSignsInput, opts ...grpc.CallOption) (*VitalSignsReply, error) {
	return invoke[VitalSignsReply](ctx, c.cc, MethodAddVitalSigns, in, opts)
}

func (c *Client) ListVitalSigns(ctx context.Context, in *ListVitalSignsRequest, opts ...grpc.CallOption) (*ListVitalSignsResponse, error) {
	return invoke[ListVitalSignsResponse](ctx, c.cc, MethodListVitalSigns, in, opts)
}

func (c *Client) CreateAppointment(ctx context.Context, in *AppointmentInput, opts ...grpc.CallOption) (*AppointmentReply, error) {
	return invoke[AppointmentReply](ctx, c.cc, MethodCreateAppointment, in, opts)
}

func (c *Client) UpdateAppointment(ctx context.Context, in *AppointmentInput, opts ...grpc.CallOption) (*AppointmentReply, error) {
	return invoke[AppointmentReply](ctx, c.cc, MethodUpdateAppointment, in, opts)
}

func (c *Client) SetAppointmentStatus(ctx context.Context, in *SetStatusRequest, opts ...grpc.CallOption) (*AppointmentReply, error) {
	return invoke[AppointmentReply](ctx, c.cc, MethodSetAppointmentStatus, in, opts)
}

func (c *Client) ListAppointments(ctx context.Context, in *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	return invoke[ListAppointmentsResponse](ctx, c.cc, MethodListAppointments, in, opts)
}

func (c *Client) DeleteAppointment(ctx context.Context, in *NumericIDRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, MethodDeleteAppointment, in, opts)
}

func (c *Client) AddVisit(ctx context.Context, in *VisitInput, opts ...grpc.CallOption) (*model.Visit, error) {
	return invoke[model.Visit](ctx, c.cc, MethodAddVisit, in, opts)
}

func (c *Client) AddMedication(ctx context.Context, in *MedicationInput, opts ...grpc.CallOption) (*model.Medication, error) {
	return invoke[model.Medication](ctx, c.cc, MethodAddMedication, in, opts)
}

func (c *Client) CreateReport(ctx context.Context, in *ReportInput, opts ...grpc.CallOption) (*model.Report, error) {
	return invoke[model.Report](ctx, c.cc, MethodCreateReport, in, opts)
}

func (c *Client) ListReports(ctx context.Context, in *ListReportsRequest, opts ...grpc.CallOption) (*ListReportsResponse, error) {
	return invoke[ListReportsResponse](ctx, c.cc, MethodListReports, in, opts)
}

func (c *Client) RegisterHospital(ctx context.Context, in *HospitalInput, opts ...grpc.CallOption) (*model.Hospital, error) {
	return invoke[model.Hospital](ctx, c.cc, MethodRegisterHospital, in, opts)
}

func (c *Client) ListHospitals(ctx context.Context, in *ListHospitalsRequest, opts ...grpc.CallOption) (*ListHospitalsResponse, error) {
	return invoke[ListHospitalsResponse](ctx, c.cc, MethodListHospitals, in, opts)
}

func (c *Client) ReviewHospital(ctx context.Context, in *ReviewHospitalRequest, opts ...grpc.CallOption) (*model.Hospital, error) {
	return invoke[model.Hospital](ctx, c.cc, MethodReviewHospital, in, opts)
}

func (c *Client) GetDashboard(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*model.DashboardStats, error) {
	return invoke[model.DashboardStats](ctx, c.cc, MethodGetDashboard, in, opts)
}

func (c *Client) SuggestDiagnosis(ctx context.Context, in *SuggestRequest, opts ...grpc.CallOption) (*SuggestResponse, error) {
	return invoke[SuggestResponse](ctx, c.cc, MethodSuggestDiagnosis, in, opts)
}

func (c *Client) SuggestTreatment(ctx context.Context, in *SuggestRequest, opts ...grpc.CallOption) (*SuggestResponse, error) {
	return invoke[SuggestResponse](ctx, c.cc, MethodSuggestTreatment, in, opts)
}
