package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"health-records-api/internal/model"
)

const patientCols = `id, first_name, last_name, date_of_birth, gender, profile_image, created_at, updated_at`

// patientChildTables are emptied, in this order, before a patient row is removed.
var patientChildTables = []string{
	"contact_info",
	"medical_history",
	"vital_signs",
	"appointments",
	"insurance",
	"visit_records",
	"medications",
	"reports",
}

type PatientFilter struct {
	Query  string // substring of name or id, case-insensitive
	Gender string
	Limit  int
	Offset int
}

func NewPatientID() string { return newID("PAT_") }

func scanPatient(r Row) (*model.Patient, error) {
	p := &model.Patient{}
	err := r.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender,
		&p.ProfileImage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePatient inserts p, generating an id when none is set. A duplicate id
// yields ErrConflict.
func (s *Store) CreatePatient(ctx context.Context, p *model.Patient) error {
	return createPatient(ctx, s.db, p, s.stamp())
}

func createPatient(ctx context.Context, q Querier, p *model.Patient, now time.Time) error {
	if p.ID == "" {
		p.ID = NewPatientID()
	}
	p.DateOfBirth = datePtr(p.DateOfBirth)
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := q.Exec(ctx,
		`INSERT INTO patients (`+patientCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.ProfileImage, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *Store) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	return scanPatient(s.db.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (s *Store) UpdatePatient(ctx context.Context, p *model.Patient) error {
	p.DateOfBirth = datePtr(p.DateOfBirth)
	p.UpdatedAt = s.stamp()
	err := affected(s.db.Exec(ctx,
		`UPDATE patients
		 SET first_name=$1, last_name=$2, date_of_birth=$3, gender=$4, profile_image=$5, updated_at=$6
		 WHERE id=$7`,
		p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.ProfileImage, p.UpdatedAt, p.ID,
	))
	if err != nil {
		return err
	}
	cur, err := s.GetPatient(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt = cur.CreatedAt
	return nil
}

// ListPatients returns one page of patients, newest first, and the total
// number of patients matching the filter.
func (s *Store) ListPatients(ctx context.Context, f PatientFilter) ([]model.Patient, int, error) {
	w := &where{}
	if q := strings.TrimSpace(f.Query); q != "" {
		w.add(`(LOWER(first_name || ' ' || last_name) LIKE ? OR LOWER(id) LIKE ?)`, "%"+strings.ToLower(q)+"%")
	}
	if f.Gender != "" {
		w.add(`gender = ?`, f.Gender)
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + patientCols + ` FROM patients` + w.String() +
		` ORDER BY created_at DESC, id LIMIT ` + w.arg(limit) + ` OFFSET ` + w.arg(max(f.Offset, 0))
	rows, err := s.db.Query(ctx, q, w.args...)
	out, err := collect(rows, err, scanPatient)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	return out, total, nil
}

// DeletePatient removes the patient and every dependent record in a single
// transaction. It returns the number of rows removed per table.
func (s *Store) DeletePatient(ctx context.Context, id string) (map[string]int64, error) {
	removed := make(map[string]int64, len(patientChildTables)+1)
	err := s.inTx(ctx, func(q Querier) error {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		for _, table := range patientChildTables {
			n, err := q.Exec(ctx, `DELETE FROM `+table+` WHERE patient_id = $1`, id)
			if err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
			removed[table] = n
		}
		n, err := q.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete patient: %w", err)
		}
		removed["patients"] = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// PatientRecord loads a patient together with all dependent records.
func (s *Store) PatientRecord(ctx context.Context, id string) (*model.PatientRecord, error) {
	p, err := s.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := &model.PatientRecord{Patient: p}
	if rec.Contacts, err = s.ListContactInfo(ctx, id); err != nil {
		return nil, err
	}
	if rec.MedicalHistory, err = s.ListMedicalHistory(ctx, id); err != nil {
		return nil, err
	}
	if rec.VitalSigns, err = s.ListVitalSigns(ctx, id, VitalsRange{}); err != nil {
		return nil, err
	}
	if rec.Appointments, err = s.ListAppointments(ctx, AppointmentFilter{PatientID: id}); err != nil {
		return nil, err
	}
	if rec.Insurance, err = s.ListInsurance(ctx, id); err != nil {
		return nil, err
	}
	if rec.Visits, err = s.ListVisits(ctx, id); err != nil {
		return nil, err
	}
	if rec.Medications, err = s.ListMedications(ctx, id); err != nil {
		return nil, err
	}
	if rec.Reports, err = s.ListReports(ctx, ReportFilter{PatientID: id}); err != nil {
		return nil, err
	}
	return rec, nil
}
