package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/models"
	pgrepo "github.com/espejelomar/starknet-advisor-bot/internal/repositories/postgres"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// AnalyticsService records usage events. Recording is fire-and-forget:
// a failed insert is logged and swallowed so it can never block or fail
// the user-visible reply.
type AnalyticsService interface {
	Record(ctx context.Context, userID string, action models.Action, metadata map[string]any)
}

type analyticsService struct {
	events pgrepo.AnalyticsRepo
	log    *logrus.Logger
	now    func() time.Time
}

func NewAnalyticsService(events pgrepo.AnalyticsRepo, log *logrus.Logger) AnalyticsService {
	return &analyticsService{events: events, log: log, now: time.Now}
}

func (s *analyticsService) Record(ctx context.Context, userID string, action models.Action, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	blob, err := json.Marshal(metadata)
	if err != nil {
		s.log.WithError(err).WithField("action", action).Warn("analytics metadata marshal failed")
		blob = []byte("{}")
	}

	ev := &models.AnalyticsEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		Metadata:  datatypes.JSON(blob),
		CreatedAt: s.now().UTC(),
	}
	if err := s.events.Insert(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"action":  action,
		}).Warn("analytics insert failed")
	}
}
