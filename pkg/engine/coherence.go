package engine

import (
	"math"
	"strings"

	"github.com/kamilpajak/diagnosa/pkg/models"
)

// contradictionPenalty scales the coherence score of contradictory evidence.
const contradictionPenalty = 0.3

// maxCorrelatedCategories is the widest category spread still considered coherent.
const maxCorrelatedCategories = 3

// Coherence scores how well a set of symptoms hangs together, independent
// of the Dempster-Shafer numbers:
//
//	score = 1 − (distinctCategories − 1) / symptomCount
//
// multiplied by 0.3 when the evidence is contradictory.
func Coherence(symptoms []models.Symptom, ca models.ContradictionAnalysis) models.Coherence {
	n := len(symptoms)
	if n == 0 {
		return models.Coherence{}
	}

	categories := make(map[string]bool, n)
	for _, s := range symptoms {
		categories[strings.ToLower(strings.TrimSpace(s.Category))] = true
	}
	distinct := len(categories)

	score := 1 - float64(distinct-1)/float64(n)
	if ca.HasContradiction {
		score *= contradictionPenalty
	}

	return models.Coherence{
		CorrelationScore:   math.Min(1, math.Max(0, score)),
		IsCorrelated:       distinct >= 1 && distinct <= maxCorrelatedCategories && n >= 2 && ca.Severity != models.SeverityHigh,
		DistinctCategories: distinct,
	}
}
