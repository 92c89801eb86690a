// Package transport defines the normalized message-event shape exchanged
// between the inbound adapters (long-poller or webhook receiver) and the
// orchestrator. Both modes deliver the same Event and accept the same
// Reply, so the core never knows which transport is active.
package transport

// Event is one inbound user interaction.
type Event struct {
	UserID    string
	ChatID    int64
	Username  string
	FirstName string

	// Text is the raw message text (empty for pure callback taps).
	Text string
	// Command is the parsed intent, CmdNone for a plain message.
	Command Command
	// CallbackID is set when the event originated from an inline
	// keyboard tap and must be acknowledged.
	CallbackID string
}

// Choice is one interactive button offered with a reply.
type Choice struct {
	Label string
	Data  string
}

// Document is a file attached to a reply.
type Document struct {
	Name    string
	Content []byte
	Caption string
}

// Reply is the single outbound effect of handling an event.
type Reply struct {
	Text     string
	HTML     bool // render as HTML, falling back to plain text on parse failure
	Choices  [][]Choice
	Document *Document
}
