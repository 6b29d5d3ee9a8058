package store

import (
	"context"
	"time"

	"health-records-api/internal/model"
)

// -- contact info --

const contactCols = `id, patient_id, phone, email, address, emergency_contact_name, emergency_contact_phone, created_at, updated_at`

func scanContact(r Row) (*model.ContactInfo, error) {
	c := &model.ContactInfo{}
	if err := r.Scan(&c.ID, &c.PatientID, &c.Phone, &c.Email, &c.Address,
		&c.EmergencyContactName, &c.EmergencyContactPhone, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) AddContactInfo(ctx context.Context, c *model.ContactInfo) error {
	return addContactInfo(ctx, s.db, c, s.stamp())
}

func addContactInfo(ctx context.Context, q Querier, c *model.ContactInfo, now time.Time) error {
	c.CreatedAt, c.UpdatedAt = now, now
	return q.QueryRow(ctx,
		`INSERT INTO contact_info (patient_id, phone, email, address, emergency_contact_name, emergency_contact_phone, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		c.PatientID, c.Phone, c.Email, c.Address, c.EmergencyContactName, c.EmergencyContactPhone, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
}

func (s *Store) ListContactInfo(ctx context.Context, patientID string) ([]model.ContactInfo, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+contactCols+` FROM contact_info WHERE patient_id = $1 ORDER BY id`, patientID)
	return collect(rows, err, scanContact)
}

func (s *Store) UpdateContactInfo(ctx context.Context, c *model.ContactInfo) error {
	c.UpdatedAt = s.stamp()
	return affected(s.db.Exec(ctx,
		`UPDATE contact_info
		 SET phone=$1, email=$2, address=$3, emergency_contact_name=$4, emergency_contact_phone=$5, updated_at=$6
		 WHERE id=$7 AND patient_id=$8`,
		c.Phone, c.Email, c.Address, c.EmergencyContactName, c.EmergencyContactPhone, c.UpdatedAt, c.ID, c.PatientID,
	))
}

func (s *Store) DeleteContactInfo(ctx context.Context, id int64) error {
	return affected(s.db.Exec(ctx, `DELETE FROM contact_info WHERE id = $1`, id))
}

// -- medical history --

const historyCols = `id, patient_id, blood_type, allergies, chronic_conditions, surgeries, family_history, created_at, updated_at`

func scanHistory(r Row) (*model.MedicalHistory, error) {
	h := &model.MedicalHistory{}
	if err := r.Scan(&h.ID, &h.PatientID, &h.BloodType, &h.Allergies, &h.ChronicConditions,
		&h.Surgeries, &h.FamilyHistory, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Store) AddMedicalHistory(ctx context.Context, h *model.MedicalHistory) error {
	return addMedicalHistory(ctx, s.db, h, s.stamp())
}

func addMedicalHistory(ctx context.Context, q Querier, h *model.MedicalHistory, now time.Time) error {
	h.CreatedAt, h.UpdatedAt = now, now
	return q.QueryRow(ctx,
		`INSERT INTO medical_history (patient_id, blood_type, allergies, chronic_conditions, surgeries, family_history, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		h.PatientID, h.BloodType, h.Allergies, h.ChronicConditions, h.Surgeries, h.FamilyHistory, h.CreatedAt, h.UpdatedAt,
	).Scan(&h.ID)
}

func (s *Store) ListMedicalHistory(ctx context.Context, patientID string) ([]model.MedicalHistory, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+historyCols+` FROM medical_history WHERE patient_id = $1 ORDER BY id`, patientID)
	return collect(rows, err, scanHistory)
}

func (s *Store) UpdateMedicalHistory(ctx context.Context, h *model.MedicalHistory) error {
	h.UpdatedAt = s.stamp()
	return affected(s.db.Exec(ctx,
		`UPDATE medical_history
		 SET blood_type=$1, allergies=$2, chronic_conditions=$3, surgeries=$4, family_history=$5, updated_at=$6
		 WHERE id=$7 AND patient_id=$8`,
		h.BloodType, h.Allergies, h.ChronicConditions, h.Surgeries, h.FamilyHistory, h.UpdatedAt, h.ID, h.PatientID,
	))
}

func (s *Store) DeleteMedicalHistory(ctx context.Context, id int64) error {
	return affected(s.db.Exec(ctx, `DELETE FROM medical_history WHERE id = $1`, id))
}

// -- insurance --

const insuranceCols = `id, patient_id, provider, policy_number, group_number, coverage_start_date, coverage_end_date, coverage_details, created_at, updated_at`

func scanInsurance(r Row) (*model.Insurance, error) {
	i := &model.Insurance{}
	if err := r.Scan(&i.ID, &i.PatientID, &i.Provider, &i.PolicyNumber, &i.GroupNumber,
		&i.CoverageStartDate, &i.CoverageEndDate, &i.CoverageDetails, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Store) AddInsurance(ctx context.Context, i *model.Insurance) error {
	return addInsurance(ctx, s.db, i, s.stamp())
}

func addInsurance(ctx context.Context, q Querier, i *model.Insurance, now time.Time) error {
	i.CreatedAt, i.UpdatedAt = now, now
	i.CoverageStartDate, i.CoverageEndDate = datePtr(i.CoverageStartDate), datePtr(i.CoverageEndDate)
	return q.QueryRow(ctx,
		`INSERT INTO insurance (patient_id, provider, policy_number, group_number, coverage_start_date, coverage_end_date, coverage_details, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		i.PatientID, i.Provider, i.PolicyNumber, i.GroupNumber, i.CoverageStartDate, i.CoverageEndDate,
		i.CoverageDetails, i.CreatedAt, i.UpdatedAt,
	).Scan(&i.ID)
}

func (s *Store) ListInsurance(ctx context.Context, patientID string) ([]model.Insurance, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+insuranceCols+` FROM insurance WHERE patient_id = $1 ORDER BY id`, patientID)
	return collect(rows, err, scanInsurance)
}

func (s *Store) UpdateInsurance(ctx context.Context, i *model.Insurance) error {
	i.UpdatedAt = s.stamp()
	i.CoverageStartDate, i.CoverageEndDate = datePtr(i.CoverageStartDate), datePtr(i.CoverageEndDate)
	return affected(s.db.Exec(ctx,
		`UPDATE insurance
		 SET provider=$1, policy_number=$2, group_number=$3, coverage_start_date=$4, coverage_end_date=$5,
		     coverage_details=$6, updated_at=$7
		 WHERE id=$8 AND patient_id=$9`,
		i.Provider, i.PolicyNumber, i.GroupNumber, i.CoverageStartDate, i.CoverageEndDate,
		i.CoverageDetails, i.UpdatedAt, i.ID, i.PatientID,
	))
}

func (s *Store) DeleteInsurance(ctx context.Context, id int64) error {
	return affected(s.db.Exec(ctx, `DELETE FROM insurance WHERE id = $1`, id))
}
