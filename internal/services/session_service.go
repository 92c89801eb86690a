package services

import (
	"context"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/models"
	"github.com/espejelomar/starknet-advisor-bot/internal/personas"
	pgrepo "github.com/espejelomar/starknet-advisor-bot/internal/repositories/postgres"
	"github.com/espejelomar/starknet-advisor-bot/internal/utils"
)

type SessionService interface {
	// Resolve creates the session on first contact (persona unset) and
	// refreshes display-name hints and last_active on every call.
	Resolve(ctx context.Context, userID, username, firstName string) (*models.Session, error)
	// SetPersona switches the active advisor. firstSelection reports
	// whether the user had no persona before this call.
	SetPersona(ctx context.Context, userID string, p personas.Persona) (sess *models.Session, firstSelection bool, err error)
}

type sessionService struct {
	sessions pgrepo.SessionRepo
	now      func() time.Time
}

func NewSessionService(sessions pgrepo.SessionRepo) SessionService {
	return &sessionService{sessions: sessions, now: time.Now}
}

func (s *sessionService) Resolve(ctx context.Context, userID, username, firstName string) (*models.Session, error) {
	const op = "SessionService.Resolve"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	now := s.now().UTC()
	row := &models.Session{
		UserID:     userID,
		Username:   username,
		FirstName:  firstName,
		LastActive: now,
		CreatedAt:  now,
	}
	if err := s.sessions.Upsert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to upsert session", err)
	}

	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}
	return sess, nil
}

func (s *sessionService) SetPersona(ctx context.Context, userID string, p personas.Persona) (*models.Session, bool, error) {
	const op = "SessionService.SetPersona"

	if userID == "" {
		return nil, false, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if _, err := personas.Parse(string(p)); err != nil {
		return nil, false, err
	}

	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, false, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}
	first := !sess.HasPersona()

	now := s.now().UTC()
	if err := s.sessions.SetPersona(ctx, userID, string(p), now); err != nil {
		return nil, false, utils.E(utils.CodeInternal, op, "failed to set persona", err)
	}

	sess.CurrentAgent = string(p)
	sess.LastActive = now
	return sess, first, nil
}
