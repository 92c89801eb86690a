package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/models"
	"github.com/espejelomar/starknet-advisor-bot/internal/providers/llm"
	"github.com/espejelomar/starknet-advisor-bot/internal/ratelimit"
	pgrepo "github.com/espejelomar/starknet-advisor-bot/internal/repositories/postgres"
)

// In-memory fakes for the storage and provider boundaries.

type fakeTurnRepo struct {
	mu     sync.Mutex
	seq    int
	turns  []models.Turn
	order  map[string]int // turn ID -> insertion sequence
	failed bool
}

func newFakeTurnRepo() *fakeTurnRepo {
	return &fakeTurnRepo{order: make(map[string]int)}
}

func (r *fakeTurnRepo) fail() { r.failed = true }

func (r *fakeTurnRepo) AppendPair(ctx context.Context, user *models.Turn, assistant *models.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed {
		return errors.New("ledger unavailable")
	}
	r.seq++
	r.order[user.ID] = r.seq
	r.turns = append(r.turns, *user)
	if assistant != nil {
		r.seq++
		r.order[assistant.ID] = r.seq
		r.turns = append(r.turns, *assistant)
	}
	return nil
}

func (r *fakeTurnRepo) ListRecent(ctx context.Context, userID, agentType string, limit int) ([]models.Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed {
		return nil, errors.New("ledger unavailable")
	}
	var matched []models.Turn
	for _, t := range r.turns {
		if t.UserID == userID && t.AgentType == agentType {
			matched = append(matched, t)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return r.order[matched[i].ID] > r.order[matched[j].ID]
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *fakeTurnRepo) DeleteForUser(ctx context.Context, userID, agentType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.turns[:0]
	for _, t := range r.turns {
		if t.UserID == userID && (agentType == "" || t.AgentType == agentType) {
			continue
		}
		kept = append(kept, t)
	}
	r.turns = kept
	return nil
}

func (r *fakeTurnRepo) Stats(ctx context.Context, userID string) (*pgrepo.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := &pgrepo.UserStats{ByPersona: make(map[string]int64)}
	for _, t := range r.turns {
		if t.UserID != userID {
			continue
		}
		out.TotalTokens += int64(t.TokensUsed)
		if out.FirstTurnAt == nil || t.CreatedAt.Before(*out.FirstTurnAt) {
			at := t.CreatedAt
			out.FirstTurnAt = &at
		}
		if t.Role == models.RoleUser {
			out.TotalMessages++
			out.ByPersona[t.AgentType]++
		}
	}
	return out, nil
}

// all returns a snapshot in insertion order.
func (r *fakeTurnRepo) all() []models.Turn {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]models.Turn, len(r.turns))
	copy(snapshot, r.turns)
	sort.SliceStable(snapshot, func(i, j int) bool {
		return r.order[snapshot[i].ID] < r.order[snapshot[j].ID]
	})
	return snapshot
}

func (r *fakeTurnRepo) forUser(userID string) []models.Turn {
	var out []models.Turn
	for _, t := range r.all() {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	failed   bool
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]models.Session)}
}

func (r *fakeSessionRepo) fail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = true
}

func (r *fakeSessionRepo) Upsert(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed {
		return errors.New("session store unavailable")
	}
	if existing, ok := r.sessions[s.UserID]; ok {
		existing.Username = s.Username
		existing.FirstName = s.FirstName
		existing.LastActive = s.LastActive
		r.sessions[s.UserID] = existing
		return nil
	}
	r.sessions[s.UserID] = *s
	return nil
}

func (r *fakeSessionRepo) Get(ctx context.Context, userID string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed {
		return nil, errors.New("session store unavailable")
	}
	s, ok := r.sessions[userID]
	if !ok {
		return nil, errors.New("not found")
	}
	return &s, nil
}

func (r *fakeSessionRepo) SetPersona(ctx context.Context, userID, agentType string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[userID]
	s.UserID = userID
	s.CurrentAgent = agentType
	s.LastActive = at
	r.sessions[userID] = s
	return nil
}

type fakeAnalyticsRepo struct {
	mu     sync.Mutex
	events []models.AnalyticsEvent
}

func (r *fakeAnalyticsRepo) Insert(ctx context.Context, ev *models.AnalyticsEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
	return nil
}

func (r *fakeAnalyticsRepo) byAction(action models.Action) []models.AnalyticsEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AnalyticsEvent
	for _, ev := range r.events {
		if ev.Action == action {
			out = append(out, ev)
		}
	}
	return out
}

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (p *fakeProvider) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	text := p.text
	if text == "" {
		text = "What problem are you solving?"
	}
	return &llm.Completion{Text: text, TotalTokens: 42}, nil
}

func (p *fakeProvider) Close() error { return nil }

type allowAll struct{}

func (allowAll) Admit(string) ratelimit.Decision {
	return ratelimit.Decision{Allowed: true}
}
