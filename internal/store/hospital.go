package store

import (
	"context"
	"errors"
	"fmt"

	"health-records-api/internal/model"
)

const hospitalCols = `id, name, address, phone, email, license_number, status, registered_by, reviewed_by,
	reviewed_at, rejection_reason, created_at, updated_at`

func NewHospitalID() string { return newID("HOS_") }

func scanHospital(r Row) (*model.Hospital, error) {
	h := &model.Hospital{}
	if err := r.Scan(&h.ID, &h.Name, &h.Address, &h.Phone, &h.Email, &h.LicenseNumber, &h.Status,
		&h.RegisteredBy, &h.ReviewedBy, &h.ReviewedAt, &h.RejectionReason, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return h, nil
}

// RegisterHospital files a registration in the pending state. A license
// number already on file yields ErrConflict.
func (s *Store) RegisterHospital(ctx context.Context, h *model.Hospital) error {
	if h.ID == "" {
		h.ID = NewHospitalID()
	}
	now := s.stamp()
	h.Status = model.HospitalPending
	h.ReviewedBy, h.ReviewedAt, h.RejectionReason = "", nil, ""
	h.CreatedAt, h.UpdatedAt = now, now
	_, err := s.db.Exec(ctx,
		`INSERT INTO hospitals (`+hospitalCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		h.ID, h.Name, h.Address, h.Phone, h.Email, h.LicenseNumber, h.Status, h.RegisteredBy, h.ReviewedBy,
		h.ReviewedAt, h.RejectionReason, h.CreatedAt, h.UpdatedAt,
	)
	return err
}

func (s *Store) GetHospital(ctx context.Context, id string) (*model.Hospital, error) {
	return scanHospital(s.db.QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
}

func (s *Store) ListHospitals(ctx context.Context, status string) ([]model.Hospital, error) {
	w := &where{}
	if status != "" {
		w.add(`status = ?`, status)
	}
	rows, err := s.db.Query(ctx, `SELECT `+hospitalCols+` FROM hospitals`+w.String()+` ORDER BY created_at, id`, w.args...)
	return collect(rows, err, scanHospital)
}

// ReviewHospital approves or rejects a pending registration. Only pending
// registrations can be reviewed; anything else is ErrInvalidTransition.
func (s *Store) ReviewHospital(ctx context.Context, id string, approve bool, reviewer, reason string) (*model.Hospital, error) {
	status := model.HospitalRejected
	if approve {
		status = model.HospitalApproved
		reason = ""
	}
	now := s.stamp()
	var out *model.Hospital
	err := s.inTx(ctx, func(q Querier) error {
		n, err := q.Exec(ctx,
			`UPDATE hospitals
			 SET status=$1, reviewed_by=$2, reviewed_at=$3, rejection_reason=$4, updated_at=$5
			 WHERE id=$6 AND status=$7`,
			status, reviewer, now, reason, now, id, model.HospitalPending,
		)
		if err != nil {
			return err
		}
		h, err := scanHospital(q.QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: hospital is %s", ErrInvalidTransition, h.Status)
		}
		out = h
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	return out, err
}
