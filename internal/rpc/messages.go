package rpc

import "health-records-api/internal/model"

// Dates in requests are "YYYY-MM-DD" or RFC 3339 strings; responses carry
// full timestamps.

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         *model.User `json:"user"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
}

type ListUsersRequest struct {
	Role string `json:"role,omitempty"`
}

type ListUsersResponse struct {
	Users []model.User `json:"users"`
}

type IDRequest struct {
	ID string `json:"id"`
}

type NumericIDRequest struct {
	ID int64 `json:"id"`
}

type PatientInput struct {
	ID           string `json:"id,omitempty"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DateOfBirth  string `json:"date_of_birth,omitempty"`
	Gender       string `json:"gender,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

type PatientReply struct {
	model.Patient
	Age int `json:"age"`
}

type ListPatientsRequest struct {
	Query  string `json:"query,omitempty"`
	Gender string `json:"gender,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type ListPatientsResponse struct {
	Patients []model.Patient `json:"patients"`
	Total    int             `json:"total"`
}

type DeletePatientResponse struct {
	Removed map[string]int64 `json:"removed"`
}

type PatientRecordResponse struct {
	Record            *model.PatientRecord `json:"record"`
	Age               int                  `json:"age"`
	ActiveMedications []model.Medication   `json:"active_medications"`
}

type InsuranceInput struct {
	PatientID         string `json:"patient_id"`
	Provider          string `json:"provider"`
	PolicyNumber      string `json:"policy_number"`
	GroupNumber       string `json:"group_number,omitempty"`
	CoverageStartDate string `json:"coverage_start_date,omitempty"`
	CoverageEndDate   string `json:"coverage_end_date,omitempty"`
	CoverageDetails   string `json:"coverage_details,omitempty"`
}

type VitalSignsInput struct {
	PatientID        string   `json:"patient_id"`
	RecordedDate     string   `json:"recorded_date,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	BloodPressure    string   `json:"blood_pressure,omitempty"`
	Pulse            *int     `json:"pulse,omitempty"`
	RespiratoryRate  *int     `json:"respiratory_rate,omitempty"`
	OxygenSaturation *float64 `json:"oxygen_saturation,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
	Height           *float64 `json:"height,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

type VitalSignsReply struct {
	model.VitalSigns
	BMICategory string `json:"bmi_category,omitempty"`
}

type ListVitalSignsRequest struct {
	PatientID string `json:"patient_id"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

type ListVitalSignsResponse struct {
	VitalSigns []VitalSignsReply `json:"vital_signs"`
}

// AppointmentInput takes either AppointmentDate as RFC 3339, or Date plus an
// optional "HH:MM" Time.
type AppointmentInput struct {
	ID              int64  `json:"id,omitempty"`
	PatientID       string `json:"patient_id"`
	ProviderID      string `json:"provider_id,omitempty"`
	AppointmentDate string `json:"appointment_date,omitempty"`
	Date            string `json:"date,omitempty"`
	Time            string `json:"time,omitempty"`
	Duration        int    `json:"duration,omitempty"`
	Status          string `json:"status,omitempty"`
	Reason          string `json:"reason,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type AppointmentReply struct {
	model.Appointment
	Date string `json:"date"`
	Time string `json:"time"`
}

type SetStatusRequest struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type ListAppointmentsRequest struct {
	PatientID  string `json:"patient_id,omitempty"`
	ProviderID string `json:"provider_id,omitempty"`
	Status     string `json:"status,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

type ListAppointmentsResponse struct {
	Appointments []AppointmentReply `json:"appointments"`
}

type VisitInput struct {
	PatientID      string `json:"patient_id"`
	VisitDate      string `json:"visit_date,omitempty"`
	ChiefComplaint string `json:"chief_complaint,omitempty"`
	Diagnosis      string `json:"diagnosis,omitempty"`
	TreatmentPlan  string `json:"treatment_plan,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type MedicationInput struct {
	PatientID      string `json:"patient_id"`
	MedicationName string `json:"medication_name"`
	Dosage         string `json:"dosage,omitempty"`
	Frequency      string `json:"frequency,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type ReportInput struct {
	PatientID  string `json:"patient_id"`
	HospitalID string `json:"hospital_id,omitempty"`
	Title      string `json:"title"`
	ReportType string `json:"report_type,omitempty"`
	Content    string `json:"content"`
}

type ListReportsRequest struct {
	PatientID  string `json:"patient_id,omitempty"`
	HospitalID string `json:"hospital_id,omitempty"`
}

type ListReportsResponse struct {
	Reports []model.Report `json:"reports"`
}

type HospitalInput struct {
	Name          string `json:"name"`
	Address       string `json:"address,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	LicenseNumber string `json:"license_number"`
}

type ListHospitalsRequest struct {
	Status string `json:"status,omitempty"`
}

type ListHospitalsResponse struct {
	Hospitals []model.Hospital `json:"hospitals"`
}

type ReviewHospitalRequest struct {
	ID      string `json:"id"`
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}

type SuggestRequest struct {
	PatientID string `json:"patient_id"`
	Symptoms  string `json:"symptoms,omitempty"`
	Diagnosis string `json:"diagnosis,omitempty"`
}

type SuggestResponse struct {
	Suggestion string `json:"suggestion"`
}
