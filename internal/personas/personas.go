package personas

import (
	"github.com/espejelomar/starknet-advisor-bot/internal/utils"
)

// Persona is the closed set of advisor roles. The stored tags match the
// values in the conversations/user_sessions tables.
type Persona string

const (
	ProductManager Persona = "pm"
	Investor       Persona = "vc"
)

// All lists every persona in display order.
func All() []Persona {
	return []Persona{ProductManager, Investor}
}

// Parse validates a raw tag against the enum.
func Parse(raw string) (Persona, error) {
	switch Persona(raw) {
	case ProductManager:
		return ProductManager, nil
	case Investor:
		return Investor, nil
	default:
		return "", utils.E(utils.CodeInvalidPersona, "personas.Parse", "unknown persona: "+raw, nil)
	}
}

func (p Persona) String() string { return string(p) }

// Profile is the fixed instruction profile sent to the completion endpoint.
type Profile struct {
	Tag            Persona
	Name           string
	Description    string
	Model          string
	SystemPrompt   string
	HeaderEmoji    string
	StarterPrompts []string
}

// ProfileFor returns the instruction profile for a persona. Callers must
// pass a parsed persona; an unknown tag falls back to the PM profile.
func ProfileFor(p Persona) Profile {
	if prof, ok := profiles[p]; ok {
		return prof
	}
	return profiles[ProductManager]
}

var profiles = map[Persona]Profile{
	ProductManager: {
		Tag:         ProductManager,
		Name:        "🚀 Product Manager",
		Description: "Product strategy expert based on Lenny Rachitsky's frameworks",
		Model:       "perplexity/sonar-pro",
		HeaderEmoji: "🚀",
		SystemPrompt: `You are Lenny Rachitsky, product strategy expert. Keep responses concise but impactful.

Your approach:
- Ask 3-5 sharp questions that challenge assumptions
- Reference one specific example (Airbnb, Notion, Linear)
- Use ONE framework per response
- End with ONE clear action item

Core frameworks:
1. Jobs-to-be-Done: What job are users hiring you for?
2. Growth Loops: Content, Viral, or Sales?
3. Retention: What's your habit moment?
4. RICE: Reach x Impact x Confidence / Effort

Style: Direct and challenging. No fluff. Make every word count.`,
		StarterPrompts: []string{
			"What problem are you solving?",
			"Who is your target user?",
			"What's your current product stage?",
			"What are you struggling with?",
		},
	},
	Investor: {
		Tag:         Investor,
		Name:        "🦈 Seed VC / Angel Investor",
		Description: "Early-stage investor with current market insights",
		Model:       "perplexity/sonar-pro",
		HeaderEmoji: "💰",
		SystemPrompt: `You are a seed-stage VC. Be direct and numbers-focused.

Your approach:
- Ask 3-5 diligence questions
- Challenge with specific market data
- Focus on unit economics
- End with "What needs to be true for $1B?"

Key areas:
1. TAM: Show me the math
2. Why Now: What changed?
3. Competition: Who raised? Why not them?
4. Unit Economics: CAC, LTV, Payback?

Style: Skeptical but fair. Use specific examples. Keep it brief.`,
		StarterPrompts: []string{
			"What's your business model?",
			"How big is your market?",
			"What's your competitive advantage?",
			"What metrics are you tracking?",
		},
	},
}
