package services

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/espejelomar/starknet-advisor-bot/internal/exporters"
	"github.com/espejelomar/starknet-advisor-bot/internal/models"
	"github.com/espejelomar/starknet-advisor-bot/internal/personas"
	"github.com/espejelomar/starknet-advisor-bot/internal/providers/llm"
	"github.com/espejelomar/starknet-advisor-bot/internal/ratelimit"
	pgrepo "github.com/espejelomar/starknet-advisor-bot/internal/repositories/postgres"
	"github.com/espejelomar/starknet-advisor-bot/internal/transport"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Admitter is the rate-limiter boundary.
type Admitter interface {
	Admit(userID string) ratelimit.Decision
}

const exportLimit = 50

// Orchestrator owns the per-event control flow: rate check, session
// resolution, command dispatch or completion round-trip, persistence,
// analytics, reply. All collaborators are injected.
type Orchestrator struct {
	limiter   Admitter
	sessions  SessionService
	contexts  ContextBuilder
	provider  llm.Provider
	turns     pgrepo.TurnRepo
	analytics AnalyticsService
	log       *logrus.Logger

	completionTimeout time.Duration
	now               func() time.Time

	// userLocks serializes the rate-check-to-persist span per user so
	// ledger order matches receive order under concurrent sends.
	userLocks sync.Map // userID -> *sync.Mutex
}

type OrchestratorConfig struct {
	CompletionTimeout time.Duration
}

func NewOrchestrator(
	limiter Admitter,
	sessions SessionService,
	contexts ContextBuilder,
	provider llm.Provider,
	turns pgrepo.TurnRepo,
	analytics AnalyticsService,
	log *logrus.Logger,
	cfg OrchestratorConfig,
) *Orchestrator {
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = 60 * time.Second
	}
	return &Orchestrator{
		limiter:           limiter,
		sessions:          sessions,
		contexts:          contexts,
		provider:          provider,
		turns:             turns,
		analytics:         analytics,
		log:               log,
		completionTimeout: cfg.CompletionTimeout,
		now:               time.Now,
	}
}

func (o *Orchestrator) userLock(userID string) *sync.Mutex {
	v, _ := o.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Handle processes one inbound event and returns exactly one reply.
// Nothing here is fatal: every failure path degrades to a user-safe
// reply and leaves the orchestrator ready for the next event.
func (o *Orchestrator) Handle(ctx context.Context, ev transport.Event) *transport.Reply {
	lock := o.userLock(ev.UserID)
	lock.Lock()
	defer lock.Unlock()

	dec := o.limiter.Admit(ev.UserID)
	if !dec.Allowed {
		o.analytics.Record(ctx, ev.UserID, models.ActionRateLimited, map[string]any{
			"retry_after_seconds": int(dec.RetryAfter.Seconds()),
		})
		return rateLimitedReply(dec.RetryAfter)
	}

	sess, err := o.sessions.Resolve(ctx, ev.UserID, ev.Username, ev.FirstName)
	if err != nil {
		o.log.WithError(err).WithField("user_id", ev.UserID).Error("session resolve failed")
		// persona state is unknown during a session store outage; only
		// stateless commands proceed, everything else gets the apology
		// rather than a wrong onboarding prompt
		switch ev.Command {
		case transport.CmdStart:
			return o.handleStart(ctx, ev)
		case transport.CmdHelp:
			return helpReply()
		default:
			return apologyReply()
		}
	}

	switch ev.Command {
	case transport.CmdNone:
		return o.handleMessage(ctx, ev, sess)
	case transport.CmdStart:
		return o.handleStart(ctx, ev)
	case transport.CmdProductManager:
		return o.handleSelect(ctx, ev, personas.ProductManager)
	case transport.CmdInvestor:
		return o.handleSelect(ctx, ev, personas.Investor)
	case transport.CmdReset:
		return o.handleReset(ctx, ev, sess)
	case transport.CmdStats:
		return o.handleStats(ctx, ev)
	case transport.CmdHelp:
		return helpReply()
	case transport.CmdExport:
		return o.handleExport(ctx, ev, sess)
	default:
		return helpReply()
	}
}

func (o *Orchestrator) handleStart(ctx context.Context, ev transport.Event) *transport.Reply {
	o.analytics.Record(ctx, ev.UserID, models.ActionBotStarted, map[string]any{
		"username":   ev.Username,
		"first_name": ev.FirstName,
	})
	return welcomeReply(ev.FirstName)
}

func (o *Orchestrator) handleSelect(ctx context.Context, ev transport.Event, p personas.Persona) *transport.Reply {
	_, first, err := o.sessions.SetPersona(ctx, ev.UserID, p)
	if err != nil {
		o.log.WithError(err).WithField("user_id", ev.UserID).Error("persona switch failed")
		return apologyReply()
	}

	profile := personas.ProfileFor(p)
	action := models.ActionAgentSwitched
	if first {
		action = models.ActionAgentSelected
	}
	o.analytics.Record(ctx, ev.UserID, action, map[string]any{
		"agent_type": string(p),
		"agent_name": profile.Name,
	})

	if first {
		return selectedReply(profile)
	}
	return switchedReply(profile)
}

func (o *Orchestrator) handleReset(ctx context.Context, ev transport.Event, sess *models.Session) *transport.Reply {
	if !sess.HasPersona() {
		return onboardingReply()
	}

	// reset is scoped to the active persona; other personas keep their
	// history and the session row survives
	if err := o.turns.DeleteForUser(ctx, ev.UserID, sess.CurrentAgent); err != nil {
		o.log.WithError(err).WithField("user_id", ev.UserID).Error("reset failed")
		return apologyReply()
	}
	o.contexts.Invalidate(ctx, ev.UserID, sess.CurrentAgent)

	profile := personas.ProfileFor(personas.Persona(sess.CurrentAgent))
	o.analytics.Record(ctx, ev.UserID, models.ActionReset, map[string]any{
		"agent_type": sess.CurrentAgent,
		"agent_name": profile.Name,
	})
	return resetReply(profile)
}

func (o *Orchestrator) handleStats(ctx context.Context, ev transport.Event) *transport.Reply {
	st, err := o.turns.Stats(ctx, ev.UserID)
	if err != nil {
		o.log.WithError(err).WithField("user_id", ev.UserID).Error("stats query failed")
		return apologyReply()
	}

	now := o.now().UTC()
	o.analytics.Record(ctx, ev.UserID, models.ActionStatsViewed, map[string]any{
		"total_messages": st.TotalMessages,
		"pm_messages":    st.ByPersona[string(personas.ProductManager)],
		"vc_messages":    st.ByPersona[string(personas.Investor)],
	})
	return statsReply(ev.FirstName, st, now)
}

func (o *Orchestrator) handleExport(ctx context.Context, ev transport.Event, sess *models.Session) *transport.Reply {
	if !sess.HasPersona() {
		return onboardingReply()
	}

	recent, err := o.turns.ListRecent(ctx, ev.UserID, sess.CurrentAgent, exportLimit)
	if err != nil {
		o.log.WithError(err).WithField("user_id", ev.UserID).Error("export read failed")
		return apologyReply()
	}
	if len(recent) == 0 {
		return &transport.Reply{Text: "No conversation history to export."}
	}

	// ListRecent is newest first; the transcript wants send order
	ordered := make([]models.Turn, len(recent))
	for i, t := range recent {
		ordered[len(recent)-1-i] = t
	}

	now := o.now().UTC()
	o.analytics.Record(ctx, ev.UserID, models.ActionExported, map[string]any{
		"agent_type": sess.CurrentAgent,
		"turns":      len(ordered),
	})
	return &transport.Reply{
		Text: "✅ Export complete!",
		Document: &transport.Document{
			Name:    exporters.Filename(now),
			Content: exporters.Markdown(ordered, ev.FirstName, now),
			Caption: "📝 Your conversation in Markdown format",
		},
	}
}

func (o *Orchestrator) handleMessage(ctx context.Context, ev transport.Event, sess *models.Session) *transport.Reply {
	if !sess.HasPersona() {
		return onboardingReply()
	}

	persona := personas.Persona(sess.CurrentAgent)
	profile := personas.ProfileFor(persona)
	receivedAt := o.now().UTC()

	history := o.contexts.Build(ctx, ev.UserID, sess.CurrentAgent)

	cctx, cancel := context.WithTimeout(ctx, o.completionTimeout)
	defer cancel()
	comp, err := o.provider.Complete(cctx, llm.Request{
		Profile: profile,
		History: history,
		Message: ev.Text,
	})

	userTurn := &models.Turn{
		ID:        uuid.NewString(),
		UserID:    ev.UserID,
		Username:  ev.Username,
		FirstName: ev.FirstName,
		AgentType: sess.CurrentAgent,
		Role:      models.RoleUser,
		Message:   ev.Text,
		CreatedAt: receivedAt,
	}

	if err != nil {
		kind := llm.FailureKind(err)
		o.log.WithError(err).WithFields(logrus.Fields{
			"user_id":    ev.UserID,
			"agent_type": sess.CurrentAgent,
			"failure":    kind,
		}).Error("completion failed")

		if perr := o.turns.AppendPair(ctx, userTurn, nil); perr != nil {
			o.log.WithError(perr).WithField("user_id", ev.UserID).Error("user turn append failed")
		}
		o.contexts.Invalidate(ctx, ev.UserID, sess.CurrentAgent)

		o.analytics.Record(ctx, ev.UserID, models.ActionMessageError, map[string]any{
			"agent_type": sess.CurrentAgent,
			"failure":    kind,
			"error":      truncate(err.Error(), 100),
		})
		return apologyReply()
	}

	answer := llm.FormatResponse(comp.Text, profile)
	assistantTurn := &models.Turn{
		ID:         uuid.NewString(),
		UserID:     ev.UserID,
		Username:   ev.Username,
		FirstName:  ev.FirstName,
		AgentType:  sess.CurrentAgent,
		Role:       models.RoleAssistant,
		Message:    answer,
		TokensUsed: comp.TotalTokens,
		CreatedAt:  o.now().UTC(),
	}

	if perr := o.turns.AppendPair(ctx, userTurn, assistantTurn); perr != nil {
		// tolerated: the exchange happened, the reply still goes out
		o.log.WithError(perr).WithField("user_id", ev.UserID).Error("turn append failed")
	}
	o.contexts.Invalidate(ctx, ev.UserID, sess.CurrentAgent)

	o.analytics.Record(ctx, ev.UserID, models.ActionMessageDone, map[string]any{
		"agent_type":      sess.CurrentAgent,
		"message_length":  len(ev.Text),
		"response_length": len(answer),
		"tokens_used":     comp.TotalTokens,
	})

	// FormatResponse emits markdown, so the reply goes out in Markdown mode
	return &transport.Reply{Text: answer}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
