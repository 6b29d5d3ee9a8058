package store

import (
	"context"
	"time"

	"health-records-api/internal/model"
)

// -- vital signs --

const vitalsCols = `id, patient_id, recorded_date, temperature, blood_pressure, pulse, respiratory_rate,
	oxygen_saturation, weight, height, bmi, recorded_by, notes, created_at, updated_at`

// VitalsRange bounds recorded_date; zero values are open ends.
type VitalsRange struct {
	From, To time.Time
}

func scanVitals(r Row) (*model.VitalSigns, error) {
	v := &model.VitalSigns{}
	if err := r.Scan(&v.ID, &v.PatientID, &v.RecordedDate, &v.Temperature, &v.BloodPressure, &v.Pulse,
		&v.RespiratoryRate, &v.OxygenSaturation, &v.Weight, &v.Height, &v.BMI, &v.RecordedBy, &v.Notes,
		&v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return v, nil
}

// AddVitalSigns stores a reading. BMI is derived from weight and height when
// the caller did not supply one; a missing recorded date defaults to now.
func (s *Store) AddVitalSigns(ctx context.Context, v *model.VitalSigns) error {
	return addVitalSigns(ctx, s.db, v, s.stamp())
}

func addVitalSigns(ctx context.Context, q Querier, v *model.VitalSigns, now time.Time) error {
	v.FillBMI()
	if v.RecordedDate.IsZero() {
		v.RecordedDate = now
	}
	v.RecordedDate = utc(v.RecordedDate)
	v.CreatedAt, v.UpdatedAt = now, now
	return q.QueryRow(ctx,
		`INSERT INTO vital_signs (patient_id, recorded_date, temperature, blood_pressure, pulse, respiratory_rate,
		     oxygen_saturation, weight, height, bmi, recorded_by, notes, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14) RETURNING id`,
		v.PatientID, v.RecordedDate, v.Temperature, v.BloodPressure, v.Pulse, v.RespiratoryRate,
		v.OxygenSaturation, v.Weight, v.Height, v.BMI, v.RecordedBy, v.Notes, v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID)
}

// ListVitalSigns returns readings newest first.
func (s *Store) ListVitalSigns(ctx context.Context, patientID string, rng VitalsRange) ([]model.VitalSigns, error) {
	w := &where{}
	w.add(`patient_id = ?`, patientID)
	if !rng.From.IsZero() {
		w.add(`recorded_date >= ?`, utc(rng.From))
	}
	if !rng.To.IsZero() {
		w.add(`recorded_date <= ?`, utc(rng.To))
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+vitalsCols+` FROM vital_signs`+w.String()+` ORDER BY recorded_date DESC, id DESC`, w.args...)
	return collect(rows, err, scanVitals)
}

func (s *Store) LatestVitalSigns(ctx context.Context, patientID string) (*model.VitalSigns, error) {
	return scanVitals(s.db.QueryRow(ctx,
		`SELECT `+vitalsCols+` FROM vital_signs WHERE patient_id = $1
		 ORDER BY recorded_date DESC, id DESC LIMIT 1`, patientID))
}

func (s *Store) DeleteVitalSigns(ctx context.Context, id int64) error {
	return affected(s.db.Exec(ctx, `DELETE FROM vital_signs WHERE id = $1`, id))
}

// -- visits --

const visitCols = `id, patient_id, visit_date, provider_id, chief_complaint, diagnosis, treatment_plan, notes, created_at, updated_at`

func scanVisit(r Row) (*model.Visit, error) {
	v := &model.Visit{}
	if err := r.Scan(&v.ID, &v.PatientID, &v.VisitDate, &v.ProviderID, &v.ChiefComplaint, &v.Diagnosis,
		&v.TreatmentPlan, &v.Notes, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) AddVisit(ctx context.Context, v *model.Visit) error {
	now := s.stamp()
	if v.VisitDate.IsZero() {
		v.VisitDate = now
	}
	v.VisitDate = dateOf(v.VisitDate)
	v.CreatedAt, v.UpdatedAt = now, now
	return s.db.QueryRow(ctx,
		`INSERT INTO visit_records (patient_id, visit_date, provider_id, chief_complaint, diagnosis, treatment_plan, notes, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		v.PatientID, v.VisitDate, v.ProviderID, v.ChiefComplaint, v.Diagnosis, v.TreatmentPlan, v.Notes,
		v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID)
}

func (s *Store) ListVisits(ctx context.Context, patientID string) ([]model.Visit, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+visitCols+` FROM visit_records WHERE patient_id = $1 ORDER BY visit_date DESC, id DESC`, patientID)
	return collect(rows, err, scanVisit)
}

func (s *Store) DeleteVisit(ctx context.Context, id int64) error {
	return affected(s.db.Exec(ctx, `DELETE FROM visit_records WHERE id = $1`, id))
}

// -- medications --

const medicationCols = `id, patient_id, medication_name, dosage, frequency, start_date, end_date, prescriber, notes, created_at, updated_at`

func scanMedication(r Row) (*model.Medication, error) {
	m := &model.Medication{}
	if err := r.Scan(&m.ID, &m.PatientID, &m.MedicationName, &m.Dosage, &m.Frequency, &m.StartDate,
		&m.EndDate, &m.Prescriber, &m.Notes, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Store) AddMedication(ctx context.Context, m *model.Medication) error {
	now := s.stamp()
	m.StartDate, m.EndDate = datePtr(m.StartDate), datePtr(m.EndDate)
	m.CreatedAt, m.UpdatedAt = now, now
	return s.db.QueryRow(ctx,
		`INSERT INTO medications (patient_id, medication_name, dosage, frequency, start_date, end_date, prescriber, notes, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		m.PatientID, m.MedicationName, m.Dosage, m.Frequency, m.StartDate, m.EndDate, m.Prescriber, m.Notes,
		m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
}

func (s *Store) ListMedications(ctx context.Context, patientID string) ([]model.Medication, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+medicationCols+` FROM medications WHERE patient_id = $1 ORDER BY id`, patientID)
	return collect(rows, err, scanMedication)
}

// ActiveMedications filters the patient's medications to those whose course
// covers the given day.
func (s *Store) ActiveMedications(ctx context.Context, patientID string, day time.Time) ([]model.Medication, error) {
	all, err := s.ListMedications(ctx, patientID)
	if err != nil {
		return nil, err
	}
	d := dateOf(day)
	out := []model.Medication{}
	for _, m := range all {
		if m.ActiveOn(d) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) DeleteMedication(ctx context.Context, id int64) error {
	return affected(s.db.Exec(ctx, `DELETE FROM medications WHERE id = $1`, id))
}
