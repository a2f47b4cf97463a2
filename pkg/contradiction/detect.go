package contradiction

import "github.com/kamilpajak/diagnosa/pkg/models"

// Detect checks an evidence set against every rule. A rule matches when at
// least two of its symptoms are present. The aggregate severity is the
// highest severity among matched rules.
func (t *Table) Detect(codes []string) models.ContradictionAnalysis {
	present := make(map[string]bool, len(codes))
	for _, c := range codes {
		present[c] = true
	}

	ca := models.ContradictionAnalysis{
		MatchedRuleIDs:         []string{},
		Severity:               models.SeverityNone,
		AlternativeSuggestions: []string{},
	}
	for _, r := range t.Rules {
		var matched []string
		for _, s := range distinct(r.Symptoms) {
			if present[s] {
				matched = append(matched, s)
			}
		}
		if len(matched) < 2 {
			continue
		}

		ca.HasContradiction = true
		ca.MatchedRuleIDs = append(ca.MatchedRuleIDs, r.ID)
		ca.Matches = append(ca.Matches, models.RuleMatch{
			RuleID:                 r.ID,
			MatchedSymptoms:        matched,
			Reason:                 r.Reason,
			Severity:               r.Severity,
			AlternativeExplanation: r.AlternativeExplanation,
		})
		if r.Severity.Rank() > ca.Severity.Rank() {
			ca.Severity = r.Severity
		}
	}
	return ca
}

// Suggest proposes alternative hypothesis names for a contradictory
// evidence set, walking the priority list in order. Names are returned
// unresolved and deduplicated.
func (t *Table) Suggest(codes []string) []string {
	present := make(map[string]bool, len(codes))
	for _, c := range codes {
		present[c] = true
	}

	seen := make(map[string]bool)
	out := []string{}
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}

	for _, p := range t.Priorities {
		for _, s := range p.Symptoms {
			if present[s] {
				add(p.Suggestions)
				break
			}
		}
	}
	if len(out) == 0 {
		add(t.Fallback)
	}
	return out
}

// Analyze runs Detect and, only when a contradiction is found, Suggest.
func (t *Table) Analyze(codes []string) models.ContradictionAnalysis {
	ca := t.Detect(codes)
	if ca.HasContradiction {
		ca.AlternativeSuggestions = t.Suggest(codes)
	}
	return ca
}
