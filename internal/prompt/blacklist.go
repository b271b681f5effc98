package prompt

// Blacklist holds the phrases the model must never use and the fixes it
// should apply instead.
type Blacklist struct {
	Forbidden [][]string
	Fixes     []string
}

// DefaultBlacklist is injected into every prompt.
var DefaultBlacklist = Blacklist{
	Forbidden: [][]string{
		{"Symphony", "Dancing", "Lulling", "Glistening", "Crackling", "Cozy"},
		{"Unique experience", "Unrivaled", "Game changer", "Phenomenal", "Explosion of flavors"},
		{"Come check it out", "We're waiting for you", "An invitation to your palate"},
		{"Treat yourself", "Savor", "Feel the aroma"},
	},
	Fixes: []string{
		`Instead of inventing poetry, USE AN ALL-CAPS PLACEHOLDER: "(EXPLAIN HOW YOU MAKE IT HERE)".`,
		`Instead of "Feel the aroma", say "The smell of this is unreal."`,
		`Instead of "Unrivaled flavor", say "Nothing like it in town."`,
	},
}

// Block renders the blacklist. withPenalty adds the warning line used in
// full generations.
func (b Blacklist) Block(withPenalty bool) string {
	var rules []string
	if withPenalty {
		rules = append(rules, "Using any word below makes the script count as BAD.")
	}
	rules = append(rules, "FORBIDDEN:")
	for _, group := range b.Forbidden {
		rules = append(rules, "  "+quoteJoin(group))
	}
	rules = append(rules, "HOW TO FIX:")
	for _, fix := range b.Fixes {
		rules = append(rules, "  "+fix)
	}
	return renderBlock("BLACKLISTED WORDS (NO POETRY, NO RADIO-AD VOICE):", rules)
}
