package prompt

// Duration is a target video length token.
type Duration string

const (
	Duration30s Duration = "30s"
	Duration45s Duration = "45s"
	Duration60s Duration = "60s"
	Duration90s Duration = "90s"

	DefaultDuration = Duration30s
)

var durationPolicy = map[Duration]string{
	Duration30s: "DURATION 30s: Short and blunt. At most 2 sentences per segment. Focus on immediate impact.",
	Duration45s: "DURATION 45s: Medium pace. Build a visual connection before selling.",
	Duration60s: "DURATION 60s: Complete narrative. Develop the problem in the (U) segment.",
	Duration90s: renderBlock("DURATION 90s (RETENTION / BEHIND-THE-SCENES VIDEO):", []string{
		"MANDATORY: tell a real STORY or show a real BEHIND-THE-SCENES moment.",
		`FORBIDDEN TO INVENT POETRY: if you don't know the technical detail (which seasoning, which technique), do NOT invent a "symphony of flavors".`,
		`USE PLACEHOLDERS: write "(EXPLAIN YOUR SEASONING SECRET HERE)" or "(SHOW THE RAW PIECE HERE)".`,
		"The owner will fill that part in with their own authority.",
	}),
}

// Known reports whether d is one of the four supported durations.
func (d Duration) Known() bool {
	_, ok := durationPolicy[d]
	return ok
}

// DurationRuleFor returns the constraint block for d. Unknown durations
// yield no block.
func DurationRuleFor(d Duration) (string, bool) {
	rule, ok := durationPolicy[d]
	return rule, ok
}
