package model

import (
	"math"
	"strings"
	"time"
)

var nowFunc = time.Now

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// CalculateBMI returns the body-mass index for a weight in pounds and a height
// in inches, rounded to one decimal. ok is false when either value is not positive.
func CalculateBMI(weightLb, heightIn float64) (bmi float64, ok bool) {
	if weightLb <= 0 || heightIn <= 0 {
		return 0, false
	}
	v := 703 * weightLb / (heightIn * heightIn)
	return math.Round(v*10) / 10, true
}

// BMICategory maps a BMI to its standard adult weight class.
func BMICategory(bmi float64) string {
	switch {
	case bmi <= 0:
		return ""
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

// FillBMI sets v.BMI from weight and height when it was not supplied.
func (v *VitalSigns) FillBMI() {
	if v.BMI != nil || v.Weight == nil || v.Height == nil {
		return
	}
	if bmi, ok := CalculateBMI(*v.Weight, *v.Height); ok {
		v.BMI = &bmi
	}
}

func DatePart(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func TimePart(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

// ParseDate accepts a bare date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Age in whole years at now, or -1 when the date of birth is unknown.
func (p *Patient) Age(now time.Time) int {
	if p.DateOfBirth == nil {
		return -1
	}
	dob := *p.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return -1
	}
	return age
}

// ActiveOn reports whether the medication course covers day.
func (m *Medication) ActiveOn(day time.Time) bool {
	if m.StartDate != nil && day.Before(*m.StartDate) {
		return false
	}
	if m.EndDate != nil && day.After(*m.EndDate) {
		return false
	}
	return true
}

func IsRole(r string) bool { return contains(Roles, r) }
func IsAppointmentStatus(s string) bool { return contains(AppointmentStatuses, s) }
func IsBloodType(b string) bool { return b == "" || contains(BloodTypes, b) }

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
