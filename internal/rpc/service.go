// Package rpc defines the records.v1.RecordService gRPC contract. Messages are
// plain Go structs carried with a JSON codec, so no generated code is needed.
package rpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/emptypb"

	"health-records-api/internal/model"
)

const (
	ServiceName = "records.v1.RecordService"
	CodecName   = "json"
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal treats an empty payload as an empty message.
func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return CodecName }

// Codec is registered under "json"; servers force it with grpc.ForceServerCodec.
var Codec encoding.Codec = jsonCodec{}

func init() { encoding.RegisterCodec(Codec) }

// FullMethod returns the "/service/method" path used by interceptors.
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

const (
	MethodLogin                = "Login"
	MethodRefresh              = "Refresh"
	MethodLogout               = "Logout"
	MethodMe                   = "Me"
	MethodCreateUser           = "CreateUser"
	MethodListUsers            = "ListUsers"
	MethodCreatePatient        = "CreatePatient"
	MethodGetPatient           = "GetPatient"
	MethodUpdatePatient        = "UpdatePatient"
	MethodDeletePatient        = "DeletePatient"
	MethodListPatients         = "ListPatients"
	MethodGetPatientRecord     = "GetPatientRecord"
	MethodAddContactInfo       = "AddContactInfo"
	MethodAddMedicalHistory    = "AddMedicalHistory"
	MethodAddInsurance         = "AddInsurance"
	MethodAddVitalSigns        = "AddVitalSigns"
	MethodListVitalSigns       = "ListVitalSigns"
	MethodCreateAppointment    = "CreateAppointment"
	MethodUpdateAppointment    = "UpdateAppointment"
	MethodSetAppointmentStatus = "SetAppointmentStatus"
	MethodListAppointments     = "ListAppointments"
	MethodDeleteAppointment    = "DeleteAppointment"
	MethodAddVisit             = "AddVisit"
	MethodAddMedication        = "AddMedication"
	MethodCreateReport         = "CreateReport"
	MethodListReports          = "ListReports"
	MethodRegisterHospital     = "RegisterHospital"
	MethodListHospitals        = "ListHospitals"
	MethodReviewHospital       = "ReviewHospital"
	MethodGetDashboard         = "GetDashboard"
	MethodSuggestDiagnosis     = "SuggestDiagnosis"
	MethodSuggestTreatment     = "SuggestTreatment"
)

type RecordServiceServer interface {
	Login(context.Context, *LoginRequest) (*TokenResponse, error)
	Refresh(context.Context, *RefreshRequest) (*TokenResponse, error)
	Logout(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Me(context.Context, *emptypb.Empty) (*model.User, error)
	CreateUser(context.Context, *CreateUserRequest) (*model.User, error)
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)

	CreatePatient(context.Context, *PatientInput) (*PatientReply, error)
	GetPatient(context.Context, *IDRequest) (*PatientReply, error)
	UpdatePatient(context.Context, *PatientInput) (*PatientReply, error)
	DeletePatient(context.Context, *IDRequest) (*DeletePatientResponse, error)
	ListPatients(context.Context, *ListPatientsRequest) (*ListPatientsResponse, error)
	GetPatientRecord(context.Context, *IDRequest) (*PatientRecordResponse, error)

	AddContactInfo(context.Context, *model.ContactInfo) (*model.ContactInfo, error)
	AddMedicalHistory(context.Context, *model.MedicalHistory) (*model.MedicalHistory, error)
	AddInsurance(context.Context, *InsuranceInput) (*model.Insurance, error)
	AddVitalSigns(context.Context, *VitalSignsInput) (*VitalSignsReply, error)
	ListVitalSigns(context.Context, *ListVitalSignsRequest) (*ListVitalSignsResponse, error)

	CreateAppointment(context.Context, *AppointmentInput) (*AppointmentReply, error)
	UpdateAppointment(context.Context, *AppointmentInput) (*AppointmentReply, error)
	SetAppointmentStatus(context.Context, *SetStatusRequest) (*AppointmentReply, error)
	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	DeleteAppointment(context.Context, *NumericIDRequest) (*emptypb.Empty, error)

	AddVisit(context.Context, *VisitInput) (*model.Visit, error)
	AddMedication(context.Context, *MedicationInput) (*model.Medication, error)
	CreateReport(context.Context, *ReportInput) (*model.Report, error)
	ListReports(context.Context, *ListReportsRequest) (*ListReportsResponse, error)

	RegisterHospital(context.Context, *HospitalInput) (*model.Hospital, error)
	ListHospitals(context.Context, *ListHospitalsRequest) (*ListHospitalsResponse, error)
	ReviewHospital(context.Context, *ReviewHospitalRequest) (*model.Hospital, error)

	GetDashboard(context.Context, *emptypb.Empty) (*model.DashboardStats, error)
	SuggestDiagnosis(context.Context, *SuggestRequest) (*SuggestResponse, error)
	SuggestTreatment(context.Context, *SuggestRequest) (*SuggestResponse, error)
}

// unary builds the method descriptor for one RPC, decoding into a fresh Req
// and running the interceptor chain the same way generated code does.
func unary[Req, Resp any](name string, call func(RecordServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(RecordServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecordServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodLogin, RecordServiceServer.Login),
		unary(MethodRefresh, RecordServiceServer.Refresh),
		unary(MethodLogout, RecordServiceServer.Logout),
		unary(MethodMe, RecordServiceServer.Me),
		unary(MethodCreateUser, RecordServiceServer.CreateUser),
		unary(MethodListUsers, RecordServiceServer.ListUsers),
		unary(MethodCreatePatient, RecordServiceServer.CreatePatient),
		unary(MethodGetPatient, RecordServiceServer.GetPatient),
		unary(MethodUpdatePatient, RecordServiceServer.UpdatePatient),
		unary(MethodDeletePatient, RecordServiceServer.DeletePatient),
		unary(MethodListPatients, RecordServiceServer.ListPatients),
		unary(MethodGetPatientRecord, RecordServiceServer.GetPatientRecord),
		unary(MethodAddContactInfo, RecordServiceServer.AddContactInfo),
		unary(MethodAddMedicalHistory, RecordServiceServer.AddMedicalHistory),
		unary(MethodAddInsurance, RecordServiceServer.AddInsurance),
		unary(MethodAddVitalSigns, RecordServiceServer.AddVitalSigns),
		unary(MethodListVitalSigns, RecordServiceServer.ListVitalSigns),
		unary(MethodCreateAppointment, RecordServiceServer.CreateAppointment),
		unary(MethodUpdateAppointment, RecordServiceServer.UpdateAppointment),
		unary(MethodSetAppointmentStatus, RecordServiceServer.SetAppointmentStatus),
		unary(MethodListAppointments, RecordServiceServer.ListAppointments),
		unary(MethodDeleteAppointment, RecordServiceServer.DeleteAppointment),
		unary(MethodAddVisit, RecordServiceServer.AddVisit),
		unary(MethodAddMedication, RecordServiceServer.AddMedication),
		unary(MethodCreateReport, RecordServiceServer.CreateReport),
		unary(MethodListReports, RecordServiceServer.ListReports),
		unary(MethodRegisterHospital, RecordServiceServer.RegisterHospital),
		unary(MethodListHospitals, RecordServiceServer.ListHospitals),
		unary(MethodReviewHospital, RecordServiceServer.ReviewHospital),
		unary(MethodGetDashboard, RecordServiceServer.GetDashboard),
		unary(MethodSuggestDiagnosis, RecordServiceServer.SuggestDiagnosis),
		unary(MethodSuggestTreatment, RecordServiceServer.SuggestTreatment),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "records/v1/records.proto",
}

func RegisterRecordServiceServer(s grpc.ServiceRegistrar, srv RecordServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
