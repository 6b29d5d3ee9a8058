package store

import (
	"context"
	"time"

	"health-records-api/internal/model"
)

const appointmentCols = `a.id, a.patient_id, p.first_name || ' ' || p.last_name, COALESCE(a.provider_id, ''),
	a.appointment_date, a.duration, a.status, a.reason, a.notes, a.created_at, a.updated_at`

const appointmentFrom = ` FROM appointments a JOIN patients p ON a.patient_id = p.id`

type AppointmentFilter struct {
	PatientID  string
	ProviderID string
	Status     string
	From, To   time.Time
	Limit      int
}

func scanAppointment(r Row) (*model.Appointment, error) {
	a := &model.Appointment{}
	if err := r.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.ProviderID, &a.AppointmentDate, &a.Duration,
		&a.Status, &a.Reason, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	return createAppointment(ctx, s.db, a, s.stamp())
}

func createAppointment(ctx context.Context, q Querier, a *model.Appointment, now time.Time) error {
	if a.Status == "" {
		a.Status = model.StatusScheduled
	}
	a.AppointmentDate = utc(a.AppointmentDate)
	a.CreatedAt, a.UpdatedAt = now, now
	return q.QueryRow(ctx,
		`INSERT INTO appointments (patient_id, provider_id, appointment_date, duration, status, reason, notes, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		a.PatientID, nullable(a.ProviderID), a.AppointmentDate, a.Duration, a.Status, a.Reason, a.Notes,
		a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
}

func (s *Store) GetAppointment(ctx context.Context, id int64) (*model.Appointment, error) {
	return scanAppointment(s.db.QueryRow(ctx, `SELECT `+appointmentCols+appointmentFrom+` WHERE a.id = $1`, id))
}

func (s *Store) UpdateAppointment(ctx context.Context, a *model.Appointment) error {
	a.AppointmentDate = utc(a.AppointmentDate)
	a.UpdatedAt = s.stamp()
	return affected(s.db.Exec(ctx,
		`UPDATE appointments
		 SET provider_id=$1, appointment_date=$2, duration=$3, status=$4, reason=$5, notes=$6, updated_at=$7
		 WHERE id=$8 AND patient_id=$9`,
		nullable(a.ProviderID), a.AppointmentDate, a.Duration, a.Status, a.Reason, a.Notes, a.UpdatedAt,
		a.ID, a.PatientID,
	))
}

func (s *Store) SetAppointmentStatus(ctx context.Context, id int64, status string) error {
	return affected(s.db.Exec(ctx,
		`UPDATE appointments SET status=$1, updated_at=$2 WHERE id=$3`, status, s.stamp(), id))
}

func (s *Store) DeleteAppointment(ctx context.Context, id int64) error {
	return affected(s.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id))
}

// ListAppointments returns appointments in date order with the patient's name.
func (s *Store) ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	w := &where{}
	if f.PatientID != "" {
		w.add(`a.patient_id = ?`, f.PatientID)
	}
	if f.ProviderID != "" {
		w.add(`a.provider_id = ?`, f.ProviderID)
	}
	if f.Status != "" {
		w.add(`a.status = ?`, f.Status)
	}
	if !f.From.IsZero() {
		w.add(`a.appointment_date >= ?`, utc(f.From))
	}
	if !f.To.IsZero() {
		w.add(`a.appointment_date <= ?`, utc(f.To))
	}
	q := `SELECT ` + appointmentCols + appointmentFrom + w.String() + ` ORDER BY a.appointment_date, a.id`
	if f.Limit > 0 {
		q += ` LIMIT ` + w.arg(f.Limit)
	}
	rows, err := s.db.Query(ctx, q, w.args...)
	return collect(rows, err, scanAppointment)
}

// UpcomingAppointments returns the next n appointments at or after now.
func (s *Store) UpcomingAppointments(ctx context.Context, now time.Time, n int) ([]model.Appointment, error) {
	return s.ListAppointments(ctx, AppointmentFilter{From: now, Limit: n})
}
