package store

import (
	"context"

	"health-records-api/internal/model"
)

const reportCols = `id, patient_id, COALESCE(hospital_id, ''), title, report_type, content, created_by, created_at, updated_at`

type ReportFilter struct {
	PatientID  string
	HospitalID string
}

func scanReport(r Row) (*model.Report, error) {
	rp := &model.Report{}
	if err := r.Scan(&rp.ID, &rp.PatientID, &rp.HospitalID, &rp.Title, &rp.ReportType, &rp.Content,
		&rp.CreatedBy, &rp.CreatedAt, &rp.UpdatedAt); err != nil {
		return nil, err
	}
	return rp, nil
}

func (s *Store) CreateReport(ctx context.Context, r *model.Report) error {
	now := s.stamp()
	r.CreatedAt, r.UpdatedAt = now, now
	return s.db.QueryRow(ctx,
		`INSERT INTO reports (patient_id, hospital_id, title, report_type, content, created_by, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		r.PatientID, nullable(r.HospitalID), r.Title, r.ReportType, r.Content, r.CreatedBy, r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
}

func (s *Store) GetReport(ctx context.Context, id int64) (*model.Report, error) {
	return scanReport(s.db.QueryRow(ctx, `SELECT `+reportCols+` FROM reports WHERE id = $1`, id))
}

// ListReports returns reports newest first, optionally narrowed to one
// patient and/or hospital.
func (s *Store) ListReports(ctx context.Context, f ReportFilter) ([]model.Report, error) {
	w := &where{}
	if f.PatientID != "" {
		w.add(`patient_id = ?`, f.PatientID)
	}
	if f.HospitalID != "" {
		w.add(`hospital_id = ?`, f.HospitalID)
	}
	rows, err := s.db.Query(ctx, `SELECT `+reportCols+` FROM reports`+w.String()+` ORDER BY created_at DESC, id DESC`, w.args...)
	return collect(rows, err, scanReport)
}

func (s *Store) DeleteReport(ctx context.Context, id int64) error {
	return affected(s.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id))
}
