package services

import (
	"context"

	"github.com/espejelomar/starknet-advisor-bot/internal/cache"
	"github.com/espejelomar/starknet-advisor-bot/internal/models"
	pgrepo "github.com/espejelomar/starknet-advisor-bot/internal/repositories/postgres"
	"github.com/espejelomar/starknet-advisor-bot/internal/tokens"
	"github.com/sirupsen/logrus"
)

// ContextBuilder materializes the bounded conversation history supplied
// to the completion endpoint: oldest first, restricted to one
// (user, persona) partition, trimmed from the oldest end until the
// token estimate fits the budget. A ledger or cache failure degrades to
// an empty context instead of failing the request.
type ContextBuilder interface {
	Build(ctx context.Context, userID, agentType string) []models.Turn
	// Invalidate drops cached history after an append or reset.
	Invalidate(ctx context.Context, userID string, agentTypes ...string)
}

type contextBuilder struct {
	turns     pgrepo.TurnRepo
	history   cache.HistoryCache
	estimator tokens.Estimator
	maxTurns  int
	maxTokens int
	log       *logrus.Logger
}

func NewContextBuilder(turns pgrepo.TurnRepo, history cache.HistoryCache, estimator tokens.Estimator, maxTurns, maxTokens int, log *logrus.Logger) ContextBuilder {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	if maxTokens <= 0 {
		maxTokens = 3000
	}
	return &contextBuilder{
		turns:     turns,
		history:   history,
		estimator: estimator,
		maxTurns:  maxTurns,
		maxTokens: maxTokens,
		log:       log,
	}
}

func (b *contextBuilder) Build(ctx context.Context, userID, agentType string) []models.Turn {
	recent, ok := b.cachedRecent(ctx, userID, agentType)
	if !ok {
		var err error
		recent, err = b.turns.ListRecent(ctx, userID, agentType, b.maxTurns)
		if err != nil {
			// degraded mode: proceed with only the current message
			b.log.WithError(err).WithFields(logrus.Fields{
				"user_id":    userID,
				"agent_type": agentType,
			}).Warn("history read failed, building empty context")
			return nil
		}
		b.storeRecent(ctx, userID, agentType, recent)
	}

	// ListRecent returns newest first; flip to chronological order.
	ordered := make([]models.Turn, len(recent))
	for i, t := range recent {
		ordered[len(recent)-1-i] = t
	}

	return b.trim(ordered)
}

// trim drops oldest turns until the running token estimate fits.
func (b *contextBuilder) trim(ordered []models.Turn) []models.Turn {
	total := 0
	for _, t := range ordered {
		total += b.estimator.Count(t.Message)
	}
	for len(ordered) > 0 && total > b.maxTokens {
		total -= b.estimator.Count(ordered[0].Message)
		ordered = ordered[1:]
	}
	return ordered
}

func (b *contextBuilder) cachedRecent(ctx context.Context, userID, agentType string) ([]models.Turn, bool) {
	if b.history == nil {
		return nil, false
	}
	turns, hit, err := b.history.Recent(ctx, userID, agentType)
	if err != nil {
		b.log.WithError(err).Debug("history cache read failed")
		return nil, false
	}
	return turns, hit
}

func (b *contextBuilder) storeRecent(ctx context.Context, userID, agentType string, turns []models.Turn) {
	if b.history == nil {
		return
	}
	if err := b.history.StoreRecent(ctx, userID, agentType, turns); err != nil {
		b.log.WithError(err).Debug("history cache write failed")
	}
}

func (b *contextBuilder) Invalidate(ctx context.Context, userID string, agentTypes ...string) {
	if b.history == nil {
		return
	}
	if err := b.history.Invalidate(ctx, userID, agentTypes...); err != nil {
		b.log.WithError(err).Debug("history cache invalidate failed")
	}
}
