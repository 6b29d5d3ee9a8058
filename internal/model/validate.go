package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hengadev/errsx"
)

var errRequired = errors.New("required")

// Validate returns an errsx.Map keyed by field name, or nil.
func (p *Patient) Validate() error {
	errs := errsx.Map{}
	if strings.TrimSpace(p.FirstName) == "" {
		errs.Set("first_name", errRequired)
	}
	if strings.TrimSpace(p.LastName) == "" {
		errs.Set("last_name", errRequired)
	}
	if p.DateOfBirth != nil && p.DateOfBirth.After(nowFunc()) {
		errs.Set("date_of_birth", errors.New("must not be in the future"))
	}
	return errs.AsError()
}

func (u *User) Validate() error {
	errs := errsx.Map{}
	if strings.TrimSpace(u.Username) == "" {
		errs.Set("username", errRequired)
	}
	if strings.TrimSpace(u.Name) == "" {
		errs.Set("name", errRequired)
	}
	if !IsRole(u.Role) {
		errs.Set("role", fmt.Errorf("must be one of %s", strings.Join(Roles, ", ")))
	}
	return errs.AsError()
}

func (c *ContactInfo) Validate() error {
	errs := errsx.Map{}
	if c.PatientID == "" {
		errs.Set("patient_id", errRequired)
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		errs.Set("email", errors.New("invalid address"))
	}
	if c.Phone == "" && c.Email == "" && c.Address == "" {
		errs.Set("contact", errors.New("phone, email or address required"))
	}
	return errs.AsError()
}

func (h *MedicalHistory) Validate() error {
	errs := errsx.Map{}
	if h.PatientID == "" {
		errs.Set("patient_id", errRequired)
	}
	if !IsBloodType(h.BloodType) {
		errs.Set("blood_type", fmt.Errorf("unknown blood type %q", h.BloodType))
	}
	return errs.AsError()
}

func (v *VitalSigns) Validate() error {
	errs := errsx.Map{}
	if v.PatientID == "" {
		errs.Set("patient_id", errRequired)
	}
	if v.Temperature != nil && (*v.Temperature < 80 || *v.Temperature > 115) {
		errs.Set("temperature", errors.New("out of range (80-115 °F)"))
	}
	if v.Pulse != nil && (*v.Pulse <= 0 || *v.Pulse > 300) {
		errs.Set("pulse", errors.New("out of range"))
	}
	if v.RespiratoryRate != nil && (*v.RespiratoryRate <= 0 || *v.RespiratoryRate > 100) {
		errs.Set("respiratory_rate", errors.New("out of range"))
	}
	if v.OxygenSaturation != nil && (*v.OxygenSaturation < 0 || *v.OxygenSaturation > 100) {
		errs.Set("oxygen_saturation", errors.New("must be a percentage"))
	}
	if v.Weight != nil && *v.Weight <= 0 {
		errs.Set("weight", errors.New("must be positive"))
	}
	if v.Height != nil && *v.Height <= 0 {
		errs.Set("height", errors.New("must be positive"))
	}
	if v.BloodPressure != "" {
		if _, _, err := SplitBloodPressure(v.BloodPressure); err != nil {
			errs.Set("blood_pressure", err)
		}
	}
	return errs.AsError()
}

func (a *Appointment) Validate() error {
	errs := errsx.Map{}
	if a.PatientID == "" {
		errs.Set("patient_id", errRequired)
	}
	if a.AppointmentDate.IsZero() {
		errs.Set("appointment_date", errRequired)
	}
	if a.Duration < 0 {
		errs.Set("duration", errors.New("must not be negative"))
	}
	if a.Status != "" && !IsAppointmentStatus(a.Status) {
		errs.Set("status", fmt.Errorf("must be one of %s", strings.Join(AppointmentStatuses, ", ")))
	}
	return errs.AsError()
}

func (i *Insurance) Validate() error {
	errs := errsx.Map{}
	if i.PatientID == "" {
		errs.Set("patient_id", errRequired)
	}
	if strings.TrimSpace(i.Provider) == "" {
		errs.Set("provider", errRequired)
	}
	if strings.TrimSpace(i.PolicyNumber) == "" {
		errs.Set("policy_number", errRequired)
	}
	if i.CoverageStartDate != nil && i.CoverageEndDate != nil && i.CoverageEndDate.Before(*i.CoverageStartDate) {
		errs.Set("coverage_end_date", errors.New("before coverage start"))
	}
	return errs.AsError()
}

func (m *Medication) Validate() error {
	errs := errsx.Map{}
	if m.PatientID == "" {
		errs.Set("patient_id", errRequired)
	}
	if strings.TrimSpace(m.MedicationName) == "" {
		errs.Set("medication_name", errRequired)
	}
	if m.StartDate != nil && m.EndDate != nil && m.EndDate.Before(*m.StartDate) {
		errs.Set("end_date", errors.New("before start date"))
	}
	return errs.AsError()
}

func (v *Visit) Validate() error {
	errs := errsx.Map{}
	if v.PatientID == "" {
		errs.Set("patient_id", errRequired)
	}
	if strings.TrimSpace(v.ChiefComplaint) == "" && strings.TrimSpace(v.Diagnosis) == "" {
		errs.Set("chief_complaint", errors.New("chief complaint or diagnosis required"))
	}
	return errs.AsError()
}

func (r *Report) Validate() error {
	errs := errsx.Map{}
	if r.PatientID == "" {
		errs.Set("patient_id", errRequired)
	}
	if strings.TrimSpace(r.Title) == "" {
		errs.Set("title", errRequired)
	}
	if strings.TrimSpace(r.Content) == "" {
		errs.Set("content", errRequired)
	}
	return errs.AsError()
}

func (h *Hospital) Validate() error {
	errs := errsx.Map{}
	if strings.TrimSpace(h.Name) == "" {
		errs.Set("name", errRequired)
	}
	if strings.TrimSpace(h.LicenseNumber) == "" {
		errs.Set("license_number", errRequired)
	}
	if h.Email != "" && !strings.Contains(h.Email, "@") {
		errs.Set("email", errors.New("invalid address"))
	}
	return errs.AsError()
}

// SplitBloodPressure parses "systolic/diastolic".
func SplitBloodPressure(bp string) (systolic, diastolic int, err error) {
	parts := strings.Split(strings.TrimSpace(bp), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected systolic/diastolic, got %q", bp)
	}
	systolic, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	diastolic, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("expected systolic/diastolic, got %q", bp)
	}
	if systolic <= 0 || diastolic <= 0 || diastolic >= systolic {
		return 0, 0, fmt.Errorf("implausible blood pressure %q", bp)
	}
	return systolic, diastolic, nil
}
