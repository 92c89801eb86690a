package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/personas"
	pgrepo "github.com/espejelomar/starknet-advisor-bot/internal/repositories/postgres"
	"github.com/espejelomar/starknet-advisor-bot/internal/transport"
)

func personaKeyboard() [][]transport.Choice {
	return [][]transport.Choice{
		{{Label: personas.ProfileFor(personas.ProductManager).Name, Data: transport.CallbackSelectPM}},
		{{Label: personas.ProfileFor(personas.Investor).Name, Data: transport.CallbackSelectVC}},
	}
}

func welcomeReply(firstName string) *transport.Reply {
	if firstName == "" {
		firstName = "Founder"
	}
	text := fmt.Sprintf(`Welcome to Starknet Startup Advisor Bot (Beta).

Hello %s. I provide AI-powered guidance through two specialized advisors:

**Product Manager**
Strategic product development guidance
- Challenges your assumptions about users
- Questions your product-market fit approach
- Probes your growth and retention strategies
- Helps prioritize features that matter

**VC/Angel Investor**
Early-stage investment perspective
- Questions market size and opportunity
- Challenges your competitive positioning
- Probes unit economics and metrics
- Tests your fundraising readiness

Choose your advisor to begin:`, firstName)

	return &transport.Reply{Text: text, Choices: personaKeyboard()}
}

func onboardingReply() *transport.Reply {
	return &transport.Reply{
		Text:    "Pick an advisor first so I know how to help:",
		Choices: personaKeyboard(),
	}
}

func selectedReply(profile personas.Profile) *transport.Reply {
	prompts := strings.Join(profile.StarterPrompts, "\n- ")
	text := fmt.Sprintf(`%s selected.

I'll challenge your thinking and ask probing questions to help refine your strategy.

Start by sharing:
- %s

Or tell me about your startup.

Switch advisors anytime with /pm or /vc`, profile.Name, prompts)

	return &transport.Reply{Text: text}
}

func switchedReply(profile personas.Profile) *transport.Reply {
	return &transport.Reply{
		Text: fmt.Sprintf("✅ Switched to **%s**\n\nHow can I help you?", profile.Name),
	}
}

func resetReply(profile personas.Profile) *transport.Reply {
	return &transport.Reply{
		Text: fmt.Sprintf("🔄 **Conversation Reset!**\n\nYour conversation history with %s has been cleared.\n\nLet's start fresh! What would you like to discuss?", profile.Name),
	}
}

func rateLimitedReply(retryAfter time.Duration) *transport.Reply {
	minutes := int(retryAfter.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return &transport.Reply{
		Text: fmt.Sprintf("⚠️ Rate limit reached. Please wait %d minutes.\n\nThis limit helps ensure quality service for all users.", minutes),
	}
}

func apologyReply() *transport.Reply {
	return &transport.Reply{
		Text: "I apologize, but I'm having trouble processing your request. Please try again.",
	}
}

func helpReply() *transport.Reply {
	return &transport.Reply{Text: `**How to use this bot:**

**Commands:**
- /start - Choose your advisor
- /pm - Switch to Product Manager
- /vc - Switch to VC/Angel Investor
- /reset - Clear conversation history
- /stats - View your usage stats
- /export - Export your conversation
- /help - Show this help message

**Tips:**
- Be specific about your startup/product
- Ask follow-up questions
- Share your challenges openly
- The AI has internet access for current data

**Beta Version**
This bot is in beta. Your feedback helps improve it.
Report bugs or suggestions to @espejelomar`}
}

func statsReply(firstName string, st *pgrepo.UserStats, now time.Time) *transport.Reply {
	if firstName == "" {
		firstName = "Founder"
	}

	memberSince := "Today"
	daysActive := 0
	if st.FirstTurnAt != nil {
		memberSince = st.FirstTurnAt.Format("January 02, 2006")
		daysActive = int(now.Sub(*st.FirstTurnAt).Hours() / 24)
	}

	pm := st.ByPersona[string(personas.ProductManager)]
	vc := st.ByPersona[string(personas.Investor)]
	favorite := "Both equally!"
	switch {
	case pm > vc:
		favorite = "🚀 Product Manager"
	case vc > pm:
		favorite = "🦈 VC/Angel"
	}

	text := fmt.Sprintf(`📊 <b>Your Statistics</b>

👤 <b>User:</b> %s
📅 <b>Member Since:</b> %s
⏱️ <b>Days Active:</b> %d

💬 <b>Total Messages:</b> %d
├─ 🚀 PM: %d
└─ 🦈 VC: %d

⭐ <b>Favorite:</b> %s

<i>Beta version • Feedback: @espejelomar</i>`,
		firstName, memberSince, daysActive, st.TotalMessages, pm, vc, favorite)

	return &transport.Reply{Text: text, HTML: true}
}
