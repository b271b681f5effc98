package prompt

// PersonaID names one of the persona instruction blocks.
type PersonaID string

const (
	PersonaMentor   PersonaID = "mentor"
	PersonaHype     PersonaID = "hype"
	PersonaBalanced PersonaID = "balanced"
)

// Persona is a style instruction block selected by a profile's tone of voice.
type Persona struct {
	ID    PersonaID
	Title string
	Rules []string
}

// personaPolicy maps tone thresholds to personas. The first matching row wins;
// the last row has no bound and catches the 41-69 band.
var personaPolicy = []struct {
	matches func(tone int) bool
	persona Persona
}{
	{
		matches: func(tone int) bool { return tone <= 40 },
		persona: Persona{
			ID:    PersonaMentor,
			Title: "PERSONA: MENTOR / STRATEGIST (REALIST)",
			Rules: []string{
				`Style: straight talk. No detours, no embellishment.`,
				`Open with a hard truth or a pattern break.`,
				`Use dramatic pauses and dry, declarative language.`,
			},
		},
	},
	{
		matches: func(tone int) bool { return tone >= 70 },
		persona: Persona{
			ID:    PersonaHype,
			Title: "PERSONA: POPULAR RETAIL (HYPE / TIKTOK)",
			Rules: []string{
				`Everyday language: talk like a normal person chatting with a friend, not like a poet.`,
				`React, don't describe: "Listen to that crunch!" instead of "The crackling sound".`,
				`If you don't know a specific, use a placeholder: "(SAY WHAT MAKES YOUR DOUGH DIFFERENT)". Never invent sensory detail.`,
				`MANDATORY: address the viewer directly with "you", "your", "we".`,
				`Focus: hunger, desire, urgency.`,
			},
		},
	},
	{
		matches: func(int) bool { return true },
		persona: Persona{
			ID:    PersonaBalanced,
			Title: "PERSONA: BALANCED PROFESSIONAL",
			Rules: []string{
				`Confident and assured. Focus on the clear benefit.`,
			},
		},
	},
}

// PersonaFor selects the persona for a tone value in [0,100].
func PersonaFor(tone int) Persona {
	for _, row := range personaPolicy {
		if row.matches(tone) {
			return row.persona
		}
	}
	return personaPolicy[len(personaPolicy)-1].persona
}

// Block renders the persona as prompt text.
func (p Persona) Block() string {
	return renderBlock(p.Title, p.Rules)
}
