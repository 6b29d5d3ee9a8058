package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"health-records-api/internal/model"
)

//go:embed fixtures/demo.yaml
var demoFixture []byte

// Fixture is the YAML shape accepted by Seed.
type Fixture struct {
	Admin    *FixtureUser     `yaml:"admin"`
	Patients []FixturePatient `yaml:"patients"`
}

type FixtureUser struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Name         string `yaml:"name"`
	Role         string `yaml:"role"`
	Email        string `yaml:"email"`
}

type FixturePatient struct {
	ID          string `yaml:"id"`
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	DateOfBirth string `yaml:"date_of_birth"`
	Gender      string `yaml:"gender"`
	Contact     *struct {
		Phone   string `yaml:"phone"`
		Email   string `yaml:"email"`
		Address string `yaml:"address"`
	} `yaml:"contact"`
	History *struct {
		BloodType         string `yaml:"blood_type"`
		Allergies         string `yaml:"allergies"`
		ChronicConditions string `yaml:"chronic_conditions"`
	} `yaml:"history"`
	Insurance *struct {
		Provider          string `yaml:"provider"`
		PolicyNumber      string `yaml:"policy_number"`
		CoverageStartDate string `yaml:"coverage_start_date"`
		CoverageEndDate   string `yaml:"coverage_end_date"`
	} `yaml:"insurance"`
	Vitals []struct {
		DaysAgo          int      `yaml:"days_ago"`
		Temperature      *float64 `yaml:"temperature"`
		BloodPressure    string   `yaml:"blood_pressure"`
		Pulse            *int     `yaml:"pulse"`
		RespiratoryRate  *int     `yaml:"respiratory_rate"`
		OxygenSaturation *float64 `yaml:"oxygen_saturation"`
		Weight           *float64 `yaml:"weight"`
		Height           *float64 `yaml:"height"`
	} `yaml:"vitals"`
}

type SeedResult struct {
	AdminCreated bool
	Patients     int
}

// DemoFixture returns the built-in demo data set.
func DemoFixture() (*Fixture, error) {
	return ParseFixture(demoFixture)
}

func ParseFixture(b []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// Seed loads f in one transaction. The admin is only created when no user has
// that username, and patients are only loaded into an empty patients table,
// so running it again is a no-op.
func (s *Store) Seed(ctx context.Context, f *Fixture) (SeedResult, error) {
	var res SeedResult
	now := s.stamp()
	err := s.inTx(ctx, func(q Querier) error {
		if f.Admin != nil {
			_, err := scanUser(q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, f.Admin.Username))
			switch {
			case errors.Is(err, ErrNotFound):
				u := &model.User{
					Username:     f.Admin.Username,
					PasswordHash: f.Admin.PasswordHash,
					Name:         f.Admin.Name,
					Role:         f.Admin.Role,
					Email:        f.Admin.Email,
				}
				if err := createUser(ctx, q, u, now); err != nil {
					return fmt.Errorf("seed admin: %w", err)
				}
				res.AdminCreated = true
			case err != nil:
				return err
			}
		}

		var n int
		if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, fp := range f.Patients {
			if err := seedPatient(ctx, q, fp, now); err != nil {
				return fmt.Errorf("seed patient %s: %w", fp.ID, err)
			}
			res.Patients++
		}
		return nil
	})
	return res, err
}

func seedPatient(ctx context.Context, q Querier, fp FixturePatient, now time.Time) error {
	p := &model.Patient{ID: fp.ID, FirstName: fp.FirstName, LastName: fp.LastName, Gender: fp.Gender}
	var err error
	if p.DateOfBirth, err = optionalDate(fp.DateOfBirth); err != nil {
		return err
	}
	if err := createPatient(ctx, q, p, now); err != nil {
		return err
	}

	if c := fp.Contact; c != nil {
		if err := addContactInfo(ctx, q, &model.ContactInfo{
			PatientID: p.ID, Phone: c.Phone, Email: c.Email, Address: c.Address,
		}, now); err != nil {
			return err
		}
	}
	if h := fp.History; h != nil {
		if err := addMedicalHistory(ctx, q, &model.MedicalHistory{
			PatientID: p.ID, BloodType: h.BloodType, Allergies: h.Allergies, ChronicConditions: h.ChronicConditions,
		}, now); err != nil {
			return err
		}
	}
	if in := fp.Insurance; in != nil {
		ins := &model.Insurance{PatientID: p.ID, Provider: in.Provider, PolicyNumber: in.PolicyNumber}
		if ins.CoverageStartDate, err = optionalDate(in.CoverageStartDate); err != nil {
			return err
		}
		if ins.CoverageEndDate, err = optionalDate(in.CoverageEndDate); err != nil {
			return err
		}
		if err := addInsurance(ctx, q, ins, now); err != nil {
			return err
		}
	}
	for _, fv := range fp.Vitals {
		v := &model.VitalSigns{
			PatientID:        p.ID,
			RecordedDate:     now.AddDate(0, 0, -fv.DaysAgo),
			Temperature:      fv.Temperature,
			BloodPressure:    fv.BloodPressure,
			Pulse:            fv.Pulse,
			RespiratoryRate:  fv.RespiratoryRate,
			OxygenSaturation: fv.OxygenSaturation,
			Weight:           fv.Weight,
			Height:           fv.Height,
		}
		if err := addVitalSigns(ctx, q, v, now); err != nil {
			return err
		}
	}
	return nil
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := model.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
