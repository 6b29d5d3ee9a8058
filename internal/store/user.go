package store

import (
	"context"
	"time"

	"health-records-api/internal/model"
)

const userCols = `id, username, password_hash, name, role, email, last_login, created_at, updated_at`

func NewUserID() string { return newID("USR_") }

func scanUser(r Row) (*model.User, error) {
	u := &model.User{}
	if err := r.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Role, &u.Email,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser inserts u; a taken username yields ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	return createUser(ctx, s.db, u, s.stamp())
}

func createUser(ctx context.Context, q Querier, u *model.User, now time.Time) error {
	if u.ID == "" {
		u.ID = NewUserID()
	}
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := q.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, name, role, email, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.Username, u.PasswordHash, u.Name, u.Role, u.Email, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (s *Store) ListUsers(ctx context.Context, role string) ([]model.User, error) {
	w := &where{}
	if role != "" {
		w.add(`role = ?`, role)
	}
	rows, err := s.db.Query(ctx, `SELECT `+userCols+` FROM users`+w.String()+` ORDER BY username`, w.args...)
	return collect(rows, err, scanUser)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return affected(s.db.Exec(ctx,
		`UPDATE users SET password_hash=$1, updated_at=$2 WHERE id=$3`, hash, s.stamp(), userID))
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string) error {
	return affected(s.db.Exec(ctx, `UPDATE users SET last_login=$1 WHERE id=$2`, s.stamp(), userID))
}

// DeleteUser fails with ErrReference while appointments still name the user
// as provider.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return affected(s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id))
}
