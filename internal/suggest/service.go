package suggest

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"health-records-api/internal/model"
)

// Charts loads a patient's full record.
type Charts interface {
	PatientRecord(ctx context.Context, id string) (*model.PatientRecord, error)
}

type Service struct {
	charts Charts
	gen    Generator
	now    func() time.Time
}

func NewService(charts Charts, gen Generator) *Service {
	return &Service{charts: charts, gen: gen, now: time.Now}
}

var prompts = template.Must(template.New("prompts").Parse(`
{{define "patient"}}Patient: {{if ge .Age 0}}{{.Age}}-year-old {{end}}{{with .Gender}}{{.}}{{else}}patient{{end}}.
{{with .Conditions}}Chronic conditions: {{.}}.
{{end}}{{with .Allergies}}Allergies: {{.}}.
{{end}}{{with .Medications}}Current medications: {{.}}.
{{end}}{{with .Vitals}}Latest vitals: {{.}}.
{{end}}{{end}}
{{define "diagnosis"}}{{template "patient" .}}Presenting symptoms: {{.Symptoms}}.
List the most likely differential diagnoses with a one-line rationale each.
{{end}}
{{define "treatment"}}{{template "patient" .}}Working diagnosis: {{.Diagnosis}}.
Suggest a treatment plan, noting any interactions with current medications or allergies.
{{end}}`))

type promptData struct {
	Age         int
	Gender      string
	Conditions  string
	Allergies   string
	Medications string
	Vitals      string
	Symptoms    string
	Diagnosis   string
}

func (s *Service) SuggestDiagnosis(ctx context.Context, patientID, symptoms string) (string, error) {
	if strings.TrimSpace(symptoms) == "" {
		return "", fmt.Errorf("symptoms: required")
	}
	return s.run(ctx, "diagnosis", patientID, func(d *promptData) { d.Symptoms = strings.TrimSpace(symptoms) })
}

func (s *Service) SuggestTreatment(ctx context.Context, patientID, diagnosis string) (string, error) {
	if strings.TrimSpace(diagnosis) == "" {
		return "", fmt.Errorf("diagnosis: required")
	}
	return s.run(ctx, "treatment", patientID, func(d *promptData) { d.Diagnosis = strings.TrimSpace(diagnosis) })
}

func (s *Service) run(ctx context.Context, tmpl, patientID string, fill func(*promptData)) (string, error) {
	rec, err := s.charts.PatientRecord(ctx, patientID)
	if err != nil {
		return "", err
	}
	d := chartData(rec, s.now())
	fill(&d)

	prompt, err := Render(tmpl, d)
	if err != nil {
		return "", err
	}
	return s.gen.Generate(ctx, prompt)
}

// Render executes one of the named prompt templates.
func Render(name string, data any) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

func chartData(rec *model.PatientRecord, now time.Time) promptData {
	d := promptData{Age: rec.Patient.Age(now), Gender: strings.ToLower(rec.Patient.Gender)}

	var conditions, allergies []string
	for _, h := range rec.MedicalHistory {
		conditions = appendKnown(conditions, h.ChronicConditions)
		allergies = appendKnown(allergies, h.Allergies)
	}
	d.Conditions = strings.Join(conditions, "; ")
	d.Allergies = strings.Join(allergies, "; ")

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var meds []string
	for _, m := range rec.Medications {
		if m.ActiveOn(today) {
			meds = append(meds, strings.TrimSpace(m.MedicationName+" "+m.Dosage))
		}
	}
	d.Medications = strings.Join(meds, ", ")

	if len(rec.VitalSigns) > 0 {
		d.Vitals = describeVitals(rec.VitalSigns[0])
	}
	return d
}

func appendKnown(list []string, v string) []string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "none") {
		return list
	}
	return append(list, v)
}

func describeVitals(v model.VitalSigns) string {
	var parts []string
	if v.Temperature != nil {
		parts = append(parts, fmt.Sprintf("temperature %.1f°F", *v.Temperature))
	}
	if v.BloodPressure != "" {
		parts = append(parts, "blood pressure "+v.BloodPressure)
	}
	if v.Pulse != nil {
		parts = append(parts, fmt.Sprintf("pulse %d bpm", *v.Pulse))
	}
	if v.RespiratoryRate != nil {
		parts = append(parts, fmt.Sprintf("respiratory rate %d/min", *v.RespiratoryRate))
	}
	if v.OxygenSaturation != nil {
		parts = append(parts, fmt.Sprintf("SpO2 %.0f%%", *v.OxygenSaturation))
	}
	if v.BMI != nil {
		parts = append(parts, fmt.Sprintf("BMI %.1f (%s)", *v.BMI, model.BMICategory(*v.BMI)))
	}
	return strings.Join(parts, ", ")
}
