package telegram

import (
	"testing"

	"github.com/espejelomar/starknet-advisor-bot/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMessage(t *testing.T) {
	ev, ok := Normalize(Update{
		UpdateID: 7,
		Message: &Message{
			From: &User{ID: 42, Username: "ada", FirstName: "Ada"},
			Chat: Chat{ID: 420},
			Text: "How do I price my product?",
		},
	})

	require.True(t, ok)
	assert.Equal(t, "42", ev.UserID)
	assert.Equal(t, int64(420), ev.ChatID)
	assert.Equal(t, "ada", ev.Username)
	assert.Equal(t, "Ada", ev.FirstName)
	assert.Equal(t, "How do I price my product?", ev.Text)
	assert.Equal(t, transport.CmdNone, ev.Command)
}

func TestNormalizeCommandMessage(t *testing.T) {
	ev, ok := Normalize(Update{
		Message: &Message{
			From: &User{ID: 42},
			Chat: Chat{ID: 420},
			Text: "/reset",
		},
	})

	require.True(t, ok)
	assert.Equal(t, transport.CmdReset, ev.Command)
}

func TestNormalizeCallback(t *testing.T) {
	ev, ok := Normalize(Update{
		CallbackQuery: &CallbackQuery{
			ID:      "cb-1",
			From:    &User{ID: 42, FirstName: "Ada"},
			Message: &Message{Chat: Chat{ID: 420}},
			Data:    transport.CallbackSelectVC,
		},
	})

	require.True(t, ok)
	assert.Equal(t, "42", ev.UserID)
	assert.Equal(t, int64(420), ev.ChatID)
	assert.Equal(t, "cb-1", ev.CallbackID)
	assert.Equal(t, transport.CmdInvestor, ev.Command)
}

func TestNormalizeDropsUnknownCallbackData(t *testing.T) {
	_, ok := Normalize(Update{
		CallbackQuery: &CallbackQuery{
			ID:      "cb-1",
			From:    &User{ID: 42},
			Message: &Message{Chat: Chat{ID: 420}},
			Data:    "select_ceo",
		},
	})
	assert.False(t, ok)
}

func TestNormalizeDropsCallbackWithoutMessage(t *testing.T) {
	// expired inline keyboard: no message means no chat to reply into
	_, ok := Normalize(Update{
		CallbackQuery: &CallbackQuery{
			ID:   "cb-1",
			From: &User{ID: 42},
			Data: transport.CallbackSelectPM,
		},
	})
	assert.False(t, ok)
}

func TestNormalizeDropsUnusableUpdates(t *testing.T) {
	_, ok := Normalize(Update{})
	assert.False(t, ok, "empty update")

	_, ok = Normalize(Update{Message: &Message{Chat: Chat{ID: 1}, Text: "hi"}})
	assert.False(t, ok, "message without sender")

	_, ok = Normalize(Update{Message: &Message{From: &User{ID: 42}, Chat: Chat{ID: 1}}})
	assert.False(t, ok, "message without text, e.g. a photo")
}
