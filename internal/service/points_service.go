package service

import (
	"context"
	"errors"

	"github.com/spec-kit/mileage-skill/internal/domain"
	"github.com/spec-kit/mileage-skill/internal/repository"
	apperrors "github.com/spec-kit/mileage-skill/pkg/util/errorutil"
)

// PointsService looks up the points balance of an authenticated caller.
type PointsService struct {
	points   repository.PointsRepository
	sessions repository.SessionRepository
	layout   domain.PointsLayout
}

// PointsDependencies bundles requirements for the points service.
type PointsDependencies struct {
	PointsRepo  repository.PointsRepository
	SessionRepo repository.SessionRepository
	Layout      domain.PointsLayout
}

// PointsResult carries the caller's session and, on success, a record with
// usable points.
type PointsResult struct {
	Session *domain.Session
	Record  *domain.PointsRecord
}

// NewPointsService constructs the service.
func NewPointsService(deps PointsDependencies) *PointsService {
	return &PointsService{
		points:   deps.PointsRepo,
		sessions: deps.SessionRepo,
		layout:   deps.Layout,
	}
}

// Session returns the caller's session without touching the points sheet.
func (s *PointsService) Session(ctx context.Context, callerID string) (*domain.Session, error) {
	if callerID == "" {
		return nil, validationError(ErrMissingCaller)
	}
	session, err := s.sessions.Get(ctx, callerID)
	if errors.Is(err, repository.ErrSessionNotFound) || (err == nil && session.Name == "") {
		return nil, validationError(ErrNotAuthenticated)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return session, nil
}

// QueryPoints reads the points sheet for the session's name. A missing row
// and an unusable value are both NOT_FOUND; the result still carries the
// session so callers can name the person.
func (s *PointsService) QueryPoints(ctx context.Context, session *domain.Session) (*PointsResult, error) {
	result := &PointsResult{Session: session}

	rows, err := s.points.ListRows(ctx)
	if err != nil {
		return result, err
	}

	record, ok := MatchPoints(rows, s.layout, session.Name)
	if !ok || !record.HasPoints() {
		return result, apperrors.NewNotFound("points", map[string]any{"name": session.Name})
	}
	result.Record = record
	return result, nil
}
