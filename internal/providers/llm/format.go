package llm

import (
	"fmt"
	"strings"

	"github.com/espejelomar/starknet-advisor-bot/internal/personas"
)

var frameworks = []string{"RICE", "Jobs-to-be-Done", "Growth Loop", "TAM", "CAC", "LTV", "PMF"}

// FormatResponse applies the bot's markdown conventions to raw advisor
// text: numbered questions, bulleted action items, bolded framework
// names, a persona header and a next-step footer.
func FormatResponse(content string, profile personas.Profile) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	formatted := make([]string, 0, len(lines)+4)
	questions := 0

	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			formatted = append(formatted, "")
		case strings.HasSuffix(line, "?"):
			questions++
			if questions <= 7 {
				formatted = append(formatted, fmt.Sprintf("**%d.** %s", questions, line))
			} else {
				formatted = append(formatted, "• "+line)
			}
		case strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•"):
			formatted = append(formatted, "• "+strings.TrimSpace(line[1:]))
		case mentionsFramework(line):
			for _, fw := range frameworks {
				line = strings.ReplaceAll(line, fw, "**"+fw+"**")
			}
			formatted = append(formatted, line)
		case len(line) < 50 && !strings.HasSuffix(line, ".") && !strings.HasSuffix(line, "!") && !strings.HasSuffix(line, ":"):
			// short line without terminal punctuation reads as a section header
			formatted = append(formatted, "\n**"+line+"**")
		default:
			formatted = append(formatted, line)
		}
	}

	out := strings.Join(formatted, "\n")

	lower := strings.ToLower(out)
	if !strings.Contains(lower, "next step") && !strings.Contains(lower, "action item") {
		out += "\n\n**💡 Next Step:** Reflect on the above questions and share your thoughts on the most challenging one."
	}

	return fmt.Sprintf("%s **Response:**\n\n%s", profile.HeaderEmoji, out)
}

func mentionsFramework(line string) bool {
	for _, fw := range frameworks {
		if strings.Contains(line, fw) {
			return true
		}
	}
	return false
}
