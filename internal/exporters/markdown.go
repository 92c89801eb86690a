package exporters

import (
	"fmt"
	"strings"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/models"
)

var htmlToMarkdown = strings.NewReplacer(
	"<b>", "**", "</b>", "**",
	"<i>", "*", "</i>", "*",
	`<a href="`, "[", `">`, "](", "</a>", ")",
)

// Markdown renders a chronological transcript for the /export command.
func Markdown(turns []models.Turn, firstName string, now time.Time) []byte {
	if firstName == "" {
		firstName = "Founder"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Startup Advisory Session\n\n")
	fmt.Fprintf(&b, "**Date**: %s  \n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "**User**: %s  \n", firstName)
	fmt.Fprintf(&b, "**Total Messages**: %d\n\n---\n\n## Conversation\n\n", len(turns))

	for _, t := range turns {
		role := "**You**"
		if t.Role == models.RoleAssistant {
			role = "**Advisor**"
		}
		fmt.Fprintf(&b, "\n### %s (%s)\n\n%s\n\n---\n",
			role,
			t.CreatedAt.Format("2006-01-02"),
			htmlToMarkdown.Replace(t.Message),
		)
	}

	return []byte(b.String())
}

// Filename builds the timestamped document name.
func Filename(now time.Time) string {
	return "conversation_" + now.Format("20060102_150405") + ".md"
}
