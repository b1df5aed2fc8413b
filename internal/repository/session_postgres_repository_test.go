package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/mileage-skill/internal/domain"
	"github.com/spec-kit/mileage-skill/internal/persistence"
)

// newTestPool connects to POSTGRES_DSN and applies the embedded migrations.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))
	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	return pool
}

// testCallerID returns a unique caller id whose row is removed after the test.
func testCallerID(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	id := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM skill_sessions WHERE caller_id=$1`, id)
	})
	return id
}

func TestPostgresSessionRepositoryPutGet(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewPostgresSessionRepository(pool, 0)
	callerID := testCallerID(t, pool)

	_, err := repo.Get(ctx, callerID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	now := time.Now().UTC().Truncate(time.Microsecond)
	first := domain.Session{Name: "홍길동", Role: domain.RoleMember, Phone4: "5678", AuthenticatedAt: now}
	require.NoError(t, repo.Put(ctx, callerID, first))

	got, err := repo.Get(ctx, callerID)
	require.NoError(t, err)
	assert.Equal(t, "홍길동", got.Name)
	assert.Equal(t, domain.RoleMember, got.Role)
	assert.Equal(t, "5678", got.Phone4)
	assert.True(t, now.Equal(got.AuthenticatedAt), "authenticated_at round-trips")

	second := domain.Session{Name: "김스태프", Role: domain.RoleStaff, Phone4: "2222", AuthenticatedAt: now}
	require.NoError(t, repo.Put(ctx, callerID, second))

	got, err = repo.Get(ctx, callerID)
	require.NoError(t, err)
	assert.Equal(t, "김스태프", got.Name, "put overwrites")
	assert.Equal(t, domain.RoleStaff, got.Role)
}

func TestPostgresSessionRepositoryTTL(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewPostgresSessionRepository(pool, time.Hour)

	fresh := testCallerID(t, pool)
	require.NoError(t, repo.Put(ctx, fresh, domain.Session{Name: "홍길동", AuthenticatedAt: time.Now()}))
	_, err := repo.Get(ctx, fresh)
	require.NoError(t, err)

	stale := testCallerID(t, pool)
	require.NoError(t, repo.Put(ctx, stale, domain.Session{Name: "이영희", AuthenticatedAt: time.Now().Add(-2 * time.Hour)}))
	_, err = repo.Get(ctx, stale)
	assert.ErrorIs(t, err, ErrSessionNotFound, "expired rows read as absent")

	var expiresAt *time.Time
	require.NoError(t, pool.QueryRow(ctx, `SELECT expires_at FROM skill_sessions WHERE caller_id=$1`, stale).Scan(&expiresAt))
	require.NotNil(t, expiresAt)
}

func TestPostgresSessionRepositoryWithoutTTLNeverExpires(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewPostgresSessionRepository(pool, 0)
	callerID := testCallerID(t, pool)

	old := time.Now().Add(-24 * 365 * time.Hour)
	require.NoError(t, repo.Put(ctx, callerID, domain.Session{Name: "홍길동", AuthenticatedAt: old}))

	got, err := repo.Get(ctx, callerID)
	require.NoError(t, err)
	assert.Equal(t, "홍길동", got.Name)

	var expiresAt *time.Time
	require.NoError(t, pool.QueryRow(ctx, `SELECT expires_at FROM skill_sessions WHERE caller_id=$1`, callerID).Scan(&expiresAt))
	assert.Nil(t, expiresAt)
}
