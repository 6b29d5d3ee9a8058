package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
	RoleNurse  = "nurse"
	RoleStaff  = "staff"
)

const (
	StatusScheduled = "Scheduled"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
	StatusNoShow    = "No-show"
)

const (
	HospitalPending  = "pending"
	HospitalApproved = "approved"
	HospitalRejected = "rejected"
)

var (
	Roles               = []string{RoleAdmin, RoleDoctor, RoleNurse, RoleStaff}
	AppointmentStatuses = []string{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow}
	BloodTypes          = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
)

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	Email        string     `json:"email,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Patient struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	ProfileImage string     `json:"profile_image,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type ContactInfo struct {
	ID                    int64     `json:"id"`
	PatientID             string    `json:"patient_id"`
	Phone                 string    `json:"phone,omitempty"`
	Email                 string    `json:"email,omitempty"`
	Address               string    `json:"address,omitempty"`
	EmergencyContactName  string    `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string    `json:"emergency_contact_phone,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type MedicalHistory struct {
	ID                int64     `json:"id"`
	PatientID         string    `json:"patient_id"`
	BloodType         string    `json:"blood_type,omitempty"`
	Allergies         string    `json:"allergies,omitempty"`
	ChronicConditions string    `json:"chronic_conditions,omitempty"`
	Surgeries         string    `json:"surgeries,omitempty"`
	FamilyHistory     string    `json:"family_history,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// VitalSigns are recorded in imperial units: °F, lb and in.
type VitalSigns struct {
	ID               int64     `json:"id"`
	PatientID        string    `json:"patient_id"`
	RecordedDate     time.Time `json:"recorded_date"`
	Temperature      *float64  `json:"temperature,omitempty"`
	BloodPressure    string    `json:"blood_pressure,omitempty"`
	Pulse            *int      `json:"pulse,omitempty"`
	RespiratoryRate  *int      `json:"respiratory_rate,omitempty"`
	OxygenSaturation *float64  `json:"oxygen_saturation,omitempty"`
	Weight           *float64  `json:"weight,omitempty"`
	Height           *float64  `json:"height,omitempty"`
	BMI              *float64  `json:"bmi,omitempty"`
	RecordedBy       string    `json:"recorded_by,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Appointment struct {
	ID              int64     `json:"id"`
	PatientID       string    `json:"patient_id"`
	PatientName     string    `json:"patient_name,omitempty"`
	ProviderID      string    `json:"provider_id,omitempty"`
	AppointmentDate time.Time `json:"appointment_date"`
	Duration        int       `json:"duration"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Insurance struct {
	ID                int64      `json:"id"`
	PatientID         string     `json:"patient_id"`
	Provider          string     `json:"provider"`
	PolicyNumber      string     `json:"policy_number"`
	GroupNumber       string     `json:"group_number,omitempty"`
	CoverageStartDate *time.Time `json:"coverage_start_date,omitempty"`
	CoverageEndDate   *time.Time `json:"coverage_end_date,omitempty"`
	CoverageDetails   string     `json:"coverage_details,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type Visit struct {
	ID             int64     `json:"id"`
	PatientID      string    `json:"patient_id"`
	VisitDate      time.Time `json:"visit_date"`
	ProviderID     string    `json:"provider_id,omitempty"`
	ChiefComplaint string    `json:"chief_complaint,omitempty"`
	Diagnosis      string    `json:"diagnosis,omitempty"`
	TreatmentPlan  string    `json:"treatment_plan,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Medication struct {
	ID             int64      `json:"id"`
	PatientID      string     `json:"patient_id"`
	MedicationName string     `json:"medication_name"`
	Dosage         string     `json:"dosage,omitempty"`
	Frequency      string     `json:"frequency,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Prescriber     string     `json:"prescriber,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Report struct {
	ID         int64     `json:"id"`
	PatientID  string    `json:"patient_id"`
	HospitalID string    `json:"hospital_id,omitempty"`
	Title      string    `json:"title"`
	ReportType string    `json:"report_type,omitempty"`
	Content    string    `json:"content"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Hospital struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Address         string     `json:"address,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Email           string     `json:"email,omitempty"`
	LicenseNumber   string     `json:"license_number"`
	Status          string     `json:"status"`
	RegisteredBy    string     `json:"registered_by,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// PatientRecord is the full chart of one patient.
type PatientRecord struct {
	Patient        *Patient         `json:"patient"`
	Contacts       []ContactInfo    `json:"contacts"`
	MedicalHistory []MedicalHistory `json:"medical_history"`
	VitalSigns     []VitalSigns     `json:"vital_signs"`
	Appointments   []Appointment    `json:"appointments"`
	Insurance      []Insurance      `json:"insurance"`
	Visits         []Visit          `json:"visits"`
	Medications    []Medication     `json:"medications"`
	Reports        []Report         `json:"reports"`
}

type CountByLabel struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type DashboardStats struct {
	TotalPatients        int            `json:"total_patients"`
	TotalAppointments    int            `json:"total_appointments"`
	RecentAppointments   int            `json:"recent_appointments"`
	NewPatients          int            `json:"new_patients"`
	RecentPatients       []Patient      `json:"recent_patients"`
	UpcomingAppointments []Appointment  `json:"upcoming_appointments"`
	GenderDistribution   []CountByLabel `json:"gender_distribution"`
	AppointmentsByStatus []CountByLabel `json:"appointments_by_status"`
}
