package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/models"
	"github.com/espejelomar/starknet-advisor-bot/internal/tokens"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTurn(t *testing.T, repo *fakeTurnRepo, userID, agentType, text string) {
	t.Helper()
	err := repo.AppendPair(context.Background(), &models.Turn{
		ID:        uuid.NewString(),
		UserID:    userID,
		AgentType: agentType,
		Role:      models.RoleUser,
		Message:   text,
		CreatedAt: time.Now().UTC(),
	}, nil)
	require.NoError(t, err)
}

func TestBuildIsScopedToPersonaPartition(t *testing.T) {
	repo := newFakeTurnRepo()
	seedTurn(t, repo, "u1", "pm", "pm question")
	seedTurn(t, repo, "u1", "vc", "vc question")
	seedTurn(t, repo, "u2", "pm", "someone else")

	b := NewContextBuilder(repo, nil, tokens.NewHeuristic(), 10, 3000, quietLogger())

	got := b.Build(context.Background(), "u1", "pm")
	require.Len(t, got, 1)
	assert.Equal(t, "pm question", got[0].Message)
}

func TestBuildReturnsOldestFirst(t *testing.T) {
	repo := newFakeTurnRepo()
	for i := 0; i < 5; i++ {
		seedTurn(t, repo, "u1", "pm", fmt.Sprintf("msg %d", i))
	}

	b := NewContextBuilder(repo, nil, tokens.NewHeuristic(), 10, 3000, quietLogger())
	got := b.Build(context.Background(), "u1", "pm")

	require.Len(t, got, 5)
	for i, turn := range got {
		assert.Equal(t, fmt.Sprintf("msg %d", i), turn.Message)
	}
}

func TestBuildTrimsOldestUnderTokenBudget(t *testing.T) {
	repo := newFakeTurnRepo()
	long := strings.Repeat("x", 400) // ~100 tokens on the heuristic
	for i := 0; i < 5; i++ {
		seedTurn(t, repo, "u1", "pm", fmt.Sprintf("%s %d", long, i))
	}

	// budget fits roughly two turns
	b := NewContextBuilder(repo, nil, tokens.NewHeuristic(), 10, 210, quietLogger())
	got := b.Build(context.Background(), "u1", "pm")

	require.Len(t, got, 2)
	assert.Contains(t, got[0].Message, " 3")
	assert.Contains(t, got[1].Message, " 4")
}

func TestBuildHonorsTurnLimit(t *testing.T) {
	repo := newFakeTurnRepo()
	for i := 0; i < 15; i++ {
		seedTurn(t, repo, "u1", "pm", fmt.Sprintf("msg %d", i))
	}

	b := NewContextBuilder(repo, nil, tokens.NewHeuristic(), 10, 100000, quietLogger())
	got := b.Build(context.Background(), "u1", "pm")

	require.Len(t, got, 10)
	assert.Equal(t, "msg 5", got[0].Message, "oldest turns beyond the limit are excluded")
	assert.Equal(t, "msg 14", got[9].Message)
}

func TestBuildDegradesToEmptyOnLedgerFailure(t *testing.T) {
	repo := newFakeTurnRepo()
	seedTurn(t, repo, "u1", "pm", "before the outage")
	repo.fail()

	b := NewContextBuilder(repo, nil, tokens.NewHeuristic(), 10, 3000, quietLogger())
	got := b.Build(context.Background(), "u1", "pm")

	assert.Empty(t, got, "ledger outage degrades to an empty context")
}

func TestSwitchingPersonaStartsFreshContext(t *testing.T) {
	repo := newFakeTurnRepo()
	seedTurn(t, repo, "u1", "pm", "old pm thread")

	b := NewContextBuilder(repo, nil, tokens.NewHeuristic(), 10, 3000, quietLogger())

	assert.Empty(t, b.Build(context.Background(), "u1", "vc"),
		"pre-switch turns are excluded from the new persona's prompt")
	assert.Len(t, b.Build(context.Background(), "u1", "pm"), 1,
		"the old persona's turns are still stored")
}
