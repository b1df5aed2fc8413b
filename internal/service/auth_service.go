package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/mileage-skill/internal/domain"
	"github.com/spec-kit/mileage-skill/internal/repository"
	apperrors "github.com/spec-kit/mileage-skill/pkg/util/errorutil"
)

// AuthService verifies chat users against the roster sheet.
type AuthService struct {
	roster   repository.RosterRepository
	sessions repository.SessionRepository
	layout   domain.RosterLayout
	now      func() time.Time
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	RosterRepo  repository.RosterRepository
	SessionRepo repository.SessionRepository
	Layout      domain.RosterLayout
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		roster:   deps.RosterRepo,
		sessions: deps.SessionRepo,
		layout:   deps.Layout,
		now:      time.Now,
	}
}

// Authenticate finds the roster slot matching name and phone4 and records
// a session for callerID. An empty callerID authenticates without a session.
func (s *AuthService) Authenticate(ctx context.Context, callerID, name, phone4 string) (*domain.Person, error) {
	name = strings.TrimSpace(name)
	phone4 = strings.TrimSpace(phone4)
	if name == "" || phone4 == "" {
		return nil, validationError(ErrMissingCredentials)
	}

	rows, err := s.roster.ListRows(ctx)
	if err != nil {
		return nil, err
	}

	person, ok := MatchPerson(rows, s.layout, name, phone4)
	if !ok {
		return nil, apperrors.NewNotFound("person", map[string]any{"name": name})
	}

	if callerID != "" {
		if err := s.sessions.Put(ctx, callerID, domain.SessionFromPerson(*person, s.now())); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	return person, nil
}
