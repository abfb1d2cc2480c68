package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/automaton-assurance/internal/domain/identity"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	const q = `
INSERT INTO sessions (id, user_id, token_hash, refresh_token_hash, expires_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.UserID, s.TokenHash, s.RefreshTokenHash, s.ExpiresAt, s.CreatedAt)
	return err
}

const sessionSelect = `
SELECT id, user_id, token_hash, refresh_token_hash, expires_at, revoked_at, created_at
FROM sessions`

func (r *SessionRepository) one(ctx context.Context, q string, args ...any) (*domain.Session, error) {
	var (
		s       domain.Session
		revoked sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, args...).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.RefreshTokenHash, &s.ExpiresAt, &revoked, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	s.RevokedAt = timePtr(revoked)
	return &s, nil
}

// FindActive matches an unrevoked, unexpired session for the access token hash.
func (r *SessionRepository) FindActive(ctx context.Context, userID, tokenHash string, now time.Time) (*domain.Session, error) {
	return r.one(ctx, sessionSelect+`
WHERE user_id=$1 AND token_hash=$2 AND revoked_at IS NULL AND expires_at > $3
LIMIT 1;`, userID, tokenHash, now)
}

func (r *SessionRepository) FindByRefresh(ctx context.Context, userID, refreshHash string) (*domain.Session, error) {
	return r.one(ctx, sessionSelect+`
WHERE user_id=$1 AND refresh_token_hash=$2 AND revoked_at IS NULL
LIMIT 1;`, userID, refreshHash)
}

func (r *SessionRepository) Rotate(ctx context.Context, id, tokenHash, refreshHash string, expiresAt time.Time) error {
	const q = `UPDATE sessions SET token_hash=$2, refresh_token_hash=$3, expires_at=$4 WHERE id=$1;`
	_, err := r.db.ExecContext(ctx, q, id, tokenHash, refreshHash, expiresAt)
	return err
}

func (r *SessionRepository) RevokeByToken(ctx context.Context, tokenHash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked_at=$2 WHERE token_hash=$1 AND revoked_at IS NULL;`, tokenHash, at)
	return err
}

func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked_at=$2 WHERE user_id=$1 AND revoked_at IS NULL;`, userID, at)
	return err
}
