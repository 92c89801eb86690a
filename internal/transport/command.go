package transport

import "strings"

// Command is the closed set of non-conversational intents. Adding a
// command means extending this enum and the orchestrator's dispatch
// switch together.
type Command int

const (
	CmdNone Command = iota
	CmdStart
	CmdProductManager
	CmdInvestor
	CmdReset
	CmdStats
	CmdHelp
	CmdExport
)

func (c Command) String() string {
	switch c {
	case CmdStart:
		return "start"
	case CmdProductManager:
		return "pm"
	case CmdInvestor:
		return "vc"
	case CmdReset:
		return "reset"
	case CmdStats:
		return "stats"
	case CmdHelp:
		return "help"
	case CmdExport:
		return "export"
	default:
		return "none"
	}
}

// ParseCommand maps a message text to a command. Only slash-prefixed
// first words count; "/cmd@botname" addressing is tolerated.
func ParseCommand(text string) Command {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return CmdNone
	}
	word := text
	if i := strings.IndexAny(word, " \t\n"); i >= 0 {
		word = word[:i]
	}
	if i := strings.IndexByte(word, '@'); i >= 0 {
		word = word[:i]
	}

	switch word {
	case "/start":
		return CmdStart
	case "/pm":
		return CmdProductManager
	case "/vc":
		return CmdInvestor
	case "/reset":
		return CmdReset
	case "/stats":
		return CmdStats
	case "/help":
		return CmdHelp
	case "/export":
		return CmdExport
	default:
		return CmdNone
	}
}

// Callback data values used on inline keyboards.
const (
	CallbackSelectPM     = "select_pm"
	CallbackSelectVC     = "select_vc"
	CallbackExportMarkdn = "export_markdown"
)

// ParseCallback maps inline keyboard data to a command.
func ParseCallback(data string) Command {
	switch data {
	case CallbackSelectPM:
		return CmdProductManager
	case CallbackSelectVC:
		return CmdInvestor
	case CallbackExportMarkdn:
		return CmdExport
	default:
		return CmdNone
	}
}
