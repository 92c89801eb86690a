package llm

import (
	"context"
	"errors"

	"github.com/espejelomar/starknet-advisor-bot/internal/models"
	"github.com/espejelomar/starknet-advisor-bot/internal/personas"
)

// Typed upstream failures. The orchestrator treats them all the same
// (user turn persisted, apology reply); the distinction only feeds the
// analytics metadata.
var (
	ErrTimeout             = errors.New("completion timed out")
	ErrUpstreamRateLimited = errors.New("upstream rate limited")
	ErrMalformed           = errors.New("malformed completion response")
)

// Request carries the persona instruction profile, the bounded history
// (oldest first) and the current user message.
type Request struct {
	Profile personas.Profile
	History []models.Turn
	Message string
}

// Completion is a successful provider response.
type Completion struct {
	Text        string
	TotalTokens int
}

type Provider interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
	Close() error
}

// FailureKind labels a provider error for analytics metadata.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrUpstreamRateLimited):
		return "rate_limited_upstream"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "upstream_error"
	}
}
