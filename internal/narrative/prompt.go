package narrative

import (
	"fmt"
	"strings"

	"github.com/kamilpajak/diagnosa/pkg/engine"
	"github.com/kamilpajak/diagnosa/pkg/models"
)

// promptResults is how many ranked hypotheses are shown to the model.
const promptResults = 5

const systemPrompt = `You are a senior laptop and PC repair technician explaining a diagnosis to a customer.

The diagnosis was computed with Dempster-Shafer evidence theory. For each damage you get:
- belief: mass committed to this damage by the evidence
- plausibility: the most the damage could be supported if all uncertainty went its way
- uncertainty: mass the evidence left uncommitted

Rules:
1. Do not change, recompute or re-rank the numbers. Explain them.
2. If a contradiction is reported, say plainly that the symptom combination is unlikely on one device and mention the alternative suggestions.
3. If the result is inconclusive, say so and ask the customer to re-check the symptoms.
4. Mention the remedy, estimated repair cost and repair time of the top damage when known.

Answer in Bahasa Indonesia, in at most three short paragraphs.`

// BuildPrompt renders a finished report into a conversation for a model.
// cat supplies names and repair details for the codes in the report.
func BuildPrompt(report *models.DiagnosisReport, cat engine.Catalog) []Message {
	var sb strings.Builder

	sb.WriteString("## Selected symptoms\n")
	if len(report.SymptomCodes) == 0 {
		sb.WriteString("None recognised.\n")
	}
	for _, code := range report.SymptomCodes {
		name := code
		if s, ok := cat.Symptom(code); ok {
			name = fmt.Sprintf("%s (%s, category %s)", s.Code, s.Name, s.Category)
		}
		fmt.Fprintf(&sb, "- %s\n", name)
	}

	sb.WriteString("\n## Ranked damages\n")
	switch {
	case report.Conflict != nil:
		fmt.Fprintf(&sb, "Inconclusive: the evidence is totally conflicting (K=%.4f at symptom %s).\n",
			report.Conflict.K, report.Conflict.SymptomCode)
	case len(report.Results) == 0:
		sb.WriteString("No damage could be ranked from the selected symptoms.\n")
	}
	for _, r := range report.Top(promptResults) {
		fmt.Fprintf(&sb, "%d. %s %s: belief %.3f, plausibility %.3f, uncertainty %.3f, confidence %s\n",
			r.Rank, r.Code, r.Name, r.Belief, r.Plausibility, r.Uncertainty, r.ConfidenceLevel.English())
		if len(r.ContributingSymptoms) > 0 {
			fmt.Fprintf(&sb, "   supported by: %s\n", strings.Join(r.ContributingSymptoms, ", "))
		}
	}

	if top := report.Top(1); len(top) == 1 {
		if d, ok := cat.Damage(top[0].Code); ok {
			sb.WriteString("\n## Top damage details\n")
			writeField(&sb, "Severity", d.Severity)
			writeField(&sb, "Remedy", d.Remedy)
			writeField(&sb, "Repair cost", d.RepairCost)
			writeField(&sb, "Repair time", d.RepairTime)
		}
	}

	ca := report.Contradiction
	sb.WriteString("\n## Consistency\n")
	fmt.Fprintf(&sb, "Coherence score %.2f across %d categories (correlated: %t).\n",
		report.Coherence.CorrelationScore, report.Coherence.DistinctCategories, report.Coherence.IsCorrelated)
	if ca.HasContradiction {
		fmt.Fprintf(&sb, "Contradiction severity: %s\n", ca.Severity)
		for _, m := range ca.Matches {
			fmt.Fprintf(&sb, "- %s: %s\n", strings.Join(m.MatchedSymptoms, " + "), m.Reason)
		}
		if len(ca.AlternativeSuggestions) > 0 {
			fmt.Fprintf(&sb, "Alternative suggestions: %s\n", strings.Join(ca.AlternativeSuggestions, ", "))
		}
	} else {
		sb.WriteString("No contradiction detected.\n")
	}

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: sb.String()},
	}
}

func writeField(sb *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(sb, "- %s: %s\n", label, value)
	}
}
