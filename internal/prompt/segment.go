package prompt

import (
	"github.com/illegalcall/reelwriter/internal/models"
)

const genericObjective = "Rewrite this passage with more impact."

var segmentObjectives = map[models.SegmentKey]string{
	models.SegmentOpening: "OBJECTIVE: VISUAL HOOK OR SHOCKING CLAIM. No obvious questions (\"Do you like pizza?\"). " +
		"Break the pattern in the first 3 seconds. If the persona is Hype, use an exaggerated reaction.",
	models.SegmentUniverse: "OBJECTIVE: SENSORY CONNECTION. Describe the setting. If you don't know the technical detail, " +
		"use an all-caps PLACEHOLDER: (EXPLAIN THE PROCESS HERE).",
	models.SegmentRetention: "OBJECTIVE: LOGIC AND RETENTION. Justify the offer. Use real scarcity (\"Only 10 left\"). " +
		"No \"Unmissable\" or \"Amazing\".",
	models.SegmentAction: "OBJECTIVE: CALL TO ACTION (CTA). Be blunt and direct: \"Tap the link\", \"Order now\". " +
		"Nothing like \"come and taste\".",
}

// ObjectiveFor returns the remix objective for a segment. Unknown keys get a
// generic rewrite instruction instead of an error.
func ObjectiveFor(key models.SegmentKey) string {
	if objective, ok := segmentObjectives[key]; ok {
		return objective
	}
	return genericObjective
}
