package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}

func (s *Store) CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		id, userID, tokenHash, utc(expiresAt), false, s.stamp(),
	)
	return id, err
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	rt := &RefreshToken{}
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked, replaced_by, created_at
		 FROM refresh_tokens WHERE token_hash = $1`, tokenHash,
	).Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.Revoked, &rt.ReplacedBy, &rt.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// RotateRefreshToken revokes the old token and links it to its replacement.
func (s *Store) RotateRefreshToken(ctx context.Context, oldID, userID, newHash string, newExpiry time.Time) (string, error) {
	newID := uuid.New().String()
	err := s.inTx(ctx, func(q Querier) error {
		if err := affected(q.Exec(ctx,
			`UPDATE refresh_tokens SET revoked = $1, replaced_by = $2 WHERE id = $3 AND revoked = $4`,
			true, newID, oldID, false,
		)); err != nil {
			return err
		}
		_, err := q.Exec(ctx,
			`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
			newID, userID, newHash, utc(newExpiry), false, s.stamp(),
		)
		return err
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// RevokeAllRefreshTokens is used on logout and when a revoked token is replayed.
func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = $1 WHERE user_id = $2 AND revoked = $3`,
		true, userID, false,
	)
	return err
}
