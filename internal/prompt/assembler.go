// Package prompt assembles the model prompts for script generation and
// segment remixes. Everything here is pure: the same input always renders
// the same bytes.
package prompt

import (
	"fmt"
	"strings"

	"github.com/illegalcall/reelwriter/internal/models"
)

const (
	// TemperatureGuided is used when reference examples were found.
	TemperatureGuided float32 = 0.7
	// TemperatureExploratory is used without examples and for remixes.
	TemperatureExploratory float32 = 0.9

	remixReferenceChars = 100
	identityStatement   = "You are a viral content creator specialized in the AURA method."
	remixNotice         = "You are REMIXING (rewriting) a single segment only."
	sectionRule         = "---"
)

// Request is a fully assembled model call.
type Request struct {
	System      string
	User        string
	Temperature float32
}

// GenerationInput carries everything a full script generation needs.
type GenerationInput struct {
	Profile         models.Profile
	Duration        Duration
	Offer           string
	MandatoryPhrase string
	ExampleSource   models.ExampleSource
	Examples        []models.Script
}

// RemixInput carries everything a single-segment remix needs.
type RemixInput struct {
	Profile  models.Profile
	Segment  models.SegmentKey
	Context  string
	Examples []models.Script
}

type Assembler struct {
	blacklist Blacklist
}

func NewAssembler() *Assembler {
	return &Assembler{blacklist: DefaultBlacklist}
}

// Generation builds the prompt for a full four-segment script.
func (a *Assembler) Generation(in GenerationInput) Request {
	durationRule, _ := DurationRuleFor(in.Duration)

	sections := []string{
		identityStatement,
		PersonaFor(in.Profile.Tone()).Block(),
		durationRule,
		generationExamplesBlock(in.ExampleSource, in.Examples),
		sectionRule + "\n" + a.blacklist.Block(true),
		sectionRule + "\n" + generationContextBlock(in),
		`Return JSON: {"hook_type": string, "content": {"a": {"audio": string, "visual": string}, ` +
			`"u": {"audio": string, "visual": string}, "r": {"audio": string, "visual": string}, ` +
			`"a_final": {"audio": string, "visual": string}}}`,
	}

	temperature := TemperatureExploratory
	if len(in.Examples) > 0 {
		temperature = TemperatureGuided
	}

	return Request{
		System:      joinSections(sections),
		User:        fmt.Sprintf("Create an AURA script of %s.", in.Duration),
		Temperature: temperature,
	}
}

// Remix builds the prompt for rewriting a single segment.
func (a *Assembler) Remix(in RemixInput) Request {
	sections := []string{
		identityStatement + "\n" + remixNotice,
		PersonaFor(in.Profile.Tone()).Block(),
		remixExamplesBlock(in.Examples),
		ObjectiveFor(in.Segment),
		sectionRule + "\n" + a.blacklist.Block(false),
		remixContextBlock(in),
		`Return ONLY the JSON for this segment: {"audio": string, "visual": string}`,
	}

	return Request{
		System: joinSections(sections),
		User: fmt.Sprintf("Rewrite the '%s' segment following your persona and the style references.",
			strings.ToUpper(string(in.Segment))),
		Temperature: TemperatureExploratory,
	}
}

func generationExamplesBlock(source models.ExampleSource, examples []models.Script) string {
	if len(examples) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "LEARNING SOURCE: %s\n", sourceLabel(source))
	b.WriteString("WARNING: These are this owner's BEST scripts.\n")
	b.WriteString("Study the STRUCTURE, the RHYTHM (short sentences) and the AGGRESSIVENESS below.\n")
	b.WriteString("YOU MUST MATCH OR EXCEED THIS QUALITY:\n")
	for i, ex := range examples {
		fmt.Fprintf(&b, "\n[REFERENCE %d]:\n", i+1)
		fmt.Fprintf(&b, "(A): %s\n", ex.Content.A.Audio)
		fmt.Fprintf(&b, "(U): %s\n", ex.Content.U.Audio)
		fmt.Fprintf(&b, "(R): %s\n", ex.Content.R.Audio)
		fmt.Fprintf(&b, "(A): %s\n", ex.Content.AFinal.Audio)
	}
	b.WriteString("-----------------------------------")
	return b.String()
}

func remixExamplesBlock(examples []models.Script) string {
	if len(examples) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("STYLE REFERENCES (THE OWNER'S QUALITY BAR):\n")
	b.WriteString("When rewriting the segment, keep the same tone, aggressiveness and sentence length as these approved examples:")
	for i, ex := range examples {
		fmt.Fprintf(&b, "\n[REF %d]: %s...", i+1, truncateRunes(ex.Content.A.Audio, remixReferenceChars))
	}
	return b.String()
}

func generationContextBlock(in GenerationInput) string {
	var b strings.Builder
	b.WriteString("CONTEXT:\n")
	fmt.Fprintf(&b, "Name: %s\n", in.Profile.Name)
	fmt.Fprintf(&b, "City: %s\n", in.Profile.City)
	fmt.Fprintf(&b, "OFFER: %q", in.Offer)
	if phrase := strings.TrimSpace(in.MandatoryPhrase); phrase != "" {
		fmt.Fprintf(&b, "\nMANDATORY PHRASE: %q", phrase)
	}
	return b.String()
}

func remixContextBlock(in RemixInput) string {
	context := strings.TrimSpace(in.Context)
	if context == "" {
		context = "General offer for the " + in.Profile.Niche + " niche"
	}
	return fmt.Sprintf("VIDEO CONTEXT (OFFER / THEME):\n%q", context)
}

func sourceLabel(source models.ExampleSource) string {
	switch source {
	case models.SourceViral:
		return "CHAMPIONS (VIRAL)"
	case models.SourceReady:
		return "APPROVED (READY)"
	}
	return "PREVIOUS SCRIPTS"
}

func renderBlock(title string, rules []string) string {
	var b strings.Builder
	b.WriteString(title)
	for _, rule := range rules {
		b.WriteString("\n- ")
		b.WriteString(rule)
	}
	return b.String()
}

func joinSections(sections []string) string {
	kept := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}

func quoteJoin(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + w + `"`
	}
	return strings.Join(quoted, ", ") + "."
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
