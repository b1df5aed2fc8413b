package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/mileage-skill/internal/domain"
)

type postgresSessionRepository struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgresSessionRepository returns a Postgres-backed implementation
// over the skill_sessions table.
func NewPostgresSessionRepository(pool *pgxpool.Pool, ttl time.Duration) SessionRepository {
	return &postgresSessionRepository{pool: pool, ttl: ttl}
}

func (r *postgresSessionRepository) Put(ctx context.Context, callerID string, session domain.Session) error {
	const query = `
        INSERT INTO skill_sessions (caller_id, name, role, phone4, authenticated_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (caller_id) DO UPDATE
        SET name=EXCLUDED.name, role=EXCLUDED.role, phone4=EXCLUDED.phone4,
            authenticated_at=EXCLUDED.authenticated_at, expires_at=EXCLUDED.expires_at`

	var expiresAt *time.Time
	if r.ttl > 0 {
		exp := session.AuthenticatedAt.Add(r.ttl)
		expiresAt = &exp
	}

	_, err := r.pool.Exec(ctx, query,
		callerID,
		session.Name,
		string(session.Role),
		session.Phone4,
		session.AuthenticatedAt,
		expiresAt,
	)
	return err
}

func (r *postgresSessionRepository) Get(ctx context.Context, callerID string) (*domain.Session, error) {
	const query = `
        SELECT name, role, phone4, authenticated_at
        FROM skill_sessions
        WHERE caller_id=$1 AND (expires_at IS NULL OR expires_at > NOW())`

	var (
		session domain.Session
		role    string
	)
	if err := r.pool.QueryRow(ctx, query, callerID).Scan(
		&session.Name,
		&role,
		&session.Phone4,
		&session.AuthenticatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	session.Role = domain.Role(role)
	return &session, nil
}
