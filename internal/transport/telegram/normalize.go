package telegram

import (
	"strconv"

	"github.com/espejelomar/starknet-advisor-bot/internal/transport"
)

// Normalize converts a raw update into the event shape the orchestrator
// consumes. The second return is false for update kinds the bot ignores.
func Normalize(u Update) (transport.Event, bool) {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		cb := u.CallbackQuery
		// Telegram omits the message on taps against expired inline
		// keyboards; with no chat to answer into, drop the update
		if cb.Message == nil {
			return transport.Event{}, false
		}
		ev := transport.Event{
			UserID:     strconv.FormatInt(cb.From.ID, 10),
			ChatID:     cb.Message.Chat.ID,
			Username:   cb.From.Username,
			FirstName:  cb.From.FirstName,
			Command:    transport.ParseCallback(cb.Data),
			CallbackID: cb.ID,
		}
		if ev.Command == transport.CmdNone {
			return transport.Event{}, false
		}
		return ev, true

	case u.Message != nil && u.Message.From != nil && u.Message.Text != "":
		m := u.Message
		return transport.Event{
			UserID:    strconv.FormatInt(m.From.ID, 10),
			ChatID:    m.Chat.ID,
			Username:  m.From.Username,
			FirstName: m.From.FirstName,
			Text:      m.Text,
			Command:   transport.ParseCommand(m.Text),
		}, true

	default:
		return transport.Event{}, false
	}
}
