package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roadwatch/damage-service/internal/domain"
)

// SessionRepository encapsulates session persistence. Sessions are
// append-only; expiry is evaluated by callers against the stored epoch
// timestamp rather than enforced by the store.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	DeleteExpired(ctx context.Context, nowEpoch int64) (int64, error)
}

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a Postgres-backed implementation.
func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepository{pool: pool}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	const query = `
        INSERT INTO sessions (token, user_id, expires_at)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		session.Token,
		session.UserID,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt)
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	const query = `
        SELECT id, token, user_id, expires_at, created_at
        FROM sessions WHERE token=$1`

	var session domain.Session
	if err := r.pool.QueryRow(ctx, query, token).Scan(
		&session.ID,
		&session.Token,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, nowEpoch int64) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= $1`
	cmd, err := r.pool.Exec(ctx, query, nowEpoch)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
