package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/mileage-skill/internal/domain"
	"github.com/spec-kit/mileage-skill/internal/repository"
	apperrors "github.com/spec-kit/mileage-skill/pkg/util/errorutil"
)

type stubRows struct {
	rows  [][]string
	err   error
	calls int
}

func (s *stubRows) ListRows(context.Context) ([][]string, error) {
	s.calls++
	return s.rows, s.err
}

type failingSessions struct{ repository.SessionRepository }

func (failingSessions) Put(context.Context, string, domain.Session) error {
	return errors.New("redis down")
}

func newAuthService(roster *stubRows, sessions repository.SessionRepository) *AuthService {
	svc := NewAuthService(AuthDependencies{
		RosterRepo:  roster,
		SessionRepo: sessions,
		Layout:      domain.DefaultRosterLayout(),
	})
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestAuthenticateRecordsSession(t *testing.T) {
	ctx := context.Background()
	sessions := repository.NewMemorySessionRepository(0)
	roster := &stubRows{rows: [][]string{
		rosterRow("김스태프", "010-1111-2222", "홍길동", "010-1234-5678"),
	}}
	svc := newAuthService(roster, sessions)

	fixtures := []struct {
		name, phone4 string
		role         domain.Role
	}{
		{"홍길동", "5678", domain.RoleMember},
		{"김스태프", "2222", domain.RoleStaff},
	}
	for _, f := range fixtures {
		caller := "caller-" + f.phone4
		person, err := svc.Authenticate(ctx, caller, f.name, f.phone4)
		require.NoError(t, err)
		assert.Equal(t, f.role, person.Role)
		assert.Equal(t, f.name, person.Name)

		session, err := sessions.Get(ctx, caller)
		require.NoError(t, err)
		assert.Equal(t, f.name, session.Name)
		assert.Equal(t, f.role, session.Role)
		assert.Equal(t, f.phone4, session.Phone4)
		assert.Equal(t, svc.now(), session.AuthenticatedAt)
	}
}

func TestAuthenticateNotFoundWritesNoSession(t *testing.T) {
	ctx := context.Background()
	sessions := repository.NewMemorySessionRepository(0)
	svc := newAuthService(&stubRows{rows: [][]string{
		rosterRow("", "", "홍길동", "010-1234-5678"),
	}}, sessions)

	for _, in := range [][2]string{{"홍길동", "0000"}, {"홍길순", "5678"}} {
		_, err := svc.Authenticate(ctx, "caller", in[0], in[1])
		assert.True(t, apperrors.IsNotFound(err), in)
	}
	_, err := sessions.Get(ctx, "caller")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestAuthenticateValidation(t *testing.T) {
	roster := &stubRows{}
	svc := newAuthService(roster, repository.NewMemorySessionRepository(0))

	for _, in := range [][2]string{{"", "5678"}, {"홍길동", ""}, {"  ", " "}} {
		_, err := svc.Authenticate(context.Background(), "caller", in[0], in[1])
		assert.True(t, apperrors.IsValidation(err))
		assert.ErrorIs(t, err, ErrMissingCredentials)
	}
	assert.Zero(t, roster.calls, "validation happens before the sheet read")
}

func TestAuthenticateWithoutCallerSkipsSession(t *testing.T) {
	sessions := repository.NewMemorySessionRepository(0)
	svc := newAuthService(&stubRows{rows: [][]string{
		rosterRow("", "", "홍길동", "010-1234-5678"),
	}}, sessions)

	person, err := svc.Authenticate(context.Background(), "", "홍길동", "5678")
	require.NoError(t, err)
	assert.Equal(t, "홍길동", person.Name)

	_, err = sessions.Get(context.Background(), "")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestAuthenticatePropagatesFailures(t *testing.T) {
	upstream := apperrors.NewUpstreamUnavailable("google sheets", errors.New("503"))
	svc := newAuthService(&stubRows{err: upstream}, repository.NewMemorySessionRepository(0))
	_, err := svc.Authenticate(context.Background(), "caller", "홍길동", "5678")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstreamUnavailable))

	svc = newAuthService(&stubRows{rows: [][]string{
		rosterRow("", "", "홍길동", "010-1234-5678"),
	}}, failingSessions{})
	_, err = svc.Authenticate(context.Background(), "caller", "홍길동", "5678")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}

func TestPointsSessionRequired(t *testing.T) {
	ctx := context.Background()
	points := &stubRows{}
	svc := NewPointsService(PointsDependencies{
		PointsRepo:  points,
		SessionRepo: repository.NewMemorySessionRepository(0),
		Layout:      domain.DefaultPointsLayout(),
	})

	_, err := svc.Session(ctx, "")
	assert.ErrorIs(t, err, ErrMissingCaller)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Session(ctx, "stranger")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.True(t, apperrors.IsValidation(err))

	assert.Zero(t, points.calls)
}

func TestQueryPoints(t *testing.T) {
	ctx := context.Background()
	sessions := repository.NewMemorySessionRepository(0)
	points := &stubRows{rows: [][]string{
		pointsRow("홍길동", "1,234.5점"),
		pointsRow("이영희", "N/A"),
		pointsRow("박민수", ""),
	}}
	svc := NewPointsService(PointsDependencies{
		PointsRepo:  points,
		SessionRepo: sessions,
		Layout:      domain.DefaultPointsLayout(),
	})

	require.NoError(t, sessions.Put(ctx, "caller", domain.Session{Name: "홍길동"}))
	session, err := svc.Session(ctx, "caller")
	require.NoError(t, err)

	result, err := svc.QueryPoints(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 1234.5, *result.Record.Points)
	assert.Equal(t, "홍길동", result.Session.Name)

	for _, name := range []string{"이영희", "박민수", "없는사람"} {
		result, err := svc.QueryPoints(ctx, &domain.Session{Name: name})
		assert.True(t, apperrors.IsNotFound(err), name)
		require.NotNil(t, result)
		assert.Equal(t, name, result.Session.Name)
		assert.Nil(t, result.Record)
	}
}
