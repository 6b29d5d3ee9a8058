package store

import (
	"context"
	"fmt"
	"time"

	"health-records-api/internal/model"
)

// DashboardStats gathers the counters and short lists shown on the landing
// page. Appointment counts by status always list every known status.
func (s *Store) DashboardStats(ctx context.Context, now time.Time) (*model.DashboardStats, error) {
	now = utc(now)
	st := &model.DashboardStats{}

	counts := []struct {
		dst  *int
		sql  string
		args []any
	}{
		{&st.TotalPatients, `SELECT COUNT(*) FROM patients`, nil},
		{&st.TotalAppointments, `SELECT COUNT(*) FROM appointments`, nil},
		{&st.RecentAppointments, `SELECT COUNT(*) FROM appointments WHERE appointment_date >= $1 AND appointment_date <= $2`,
			[]any{now.AddDate(0, 0, -7), now}},
		{&st.NewPatients, `SELECT COUNT(*) FROM patients WHERE created_at >= $1`, []any{now.AddDate(0, 0, -30)}},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(ctx, c.sql, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("dashboard count: %w", err)
		}
	}

	var err error
	if st.RecentPatients, _, err = s.ListPatients(ctx, PatientFilter{Limit: 5}); err != nil {
		return nil, err
	}
	if st.UpcomingAppointments, err = s.UpcomingAppointments(ctx, now, 5); err != nil {
		return nil, err
	}
	if st.GenderDistribution, err = s.countBy(ctx,
		`SELECT gender, COUNT(*) FROM patients GROUP BY gender ORDER BY gender`); err != nil {
		return nil, err
	}
	byStatus, err := s.countBy(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	st.AppointmentsByStatus = mergeStatusCounts(byStatus)
	return st, nil
}

func (s *Store) countBy(ctx context.Context, sql string) ([]model.CountByLabel, error) {
	rows, err := s.db.Query(ctx, sql)
	return collect(rows, err, func(r Row) (*model.CountByLabel, error) {
		c := &model.CountByLabel{}
		if err := r.Scan(&c.Label, &c.Count); err != nil {
			return nil, err
		}
		return c, nil
	})
}

func mergeStatusCounts(found []model.CountByLabel) []model.CountByLabel {
	idx := make(map[string]int, len(found))
	for _, c := range found {
		idx[c.Label] = c.Count
	}
	out := make([]model.CountByLabel, 0, len(model.AppointmentStatuses)+len(found))
	for _, st := range model.AppointmentStatuses {
		out = append(out, model.CountByLabel{Label: st, Count: idx[st]})
		delete(idx, st)
	}
	for _, c := range found {
		if _, extra := idx[c.Label]; extra {
			out = append(out, c)
		}
	}
	return out
}
