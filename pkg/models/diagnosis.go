package models

// ConfidenceLevel is the categorical confidence tier of a hypothesis.
// Values are the labels shown to end users.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "Tinggi"
	ConfidenceMedium ConfidenceLevel = "Sedang"
	ConfidenceLow    ConfidenceLevel = "Rendah"
)

// Belief thresholds for the confidence tiers. Presentation layers depend on
// these values; do not change them.
const (
	HighBeliefThreshold   = 0.70
	MediumBeliefThreshold = 0.40
)

// ClassifyBelief buckets a belief value into a confidence tier.
func ClassifyBelief(belief float64) ConfidenceLevel {
	switch {
	case belief >= HighBeliefThreshold:
		return ConfidenceHigh
	case belief >= MediumBeliefThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// English returns the lowercase English name of the tier.
func (c ConfidenceLevel) English() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	}
	return ""
}

// MassAssignment records the mass a single symptom assigned to a hypothesis.
type MassAssignment struct {
	Symptom string  `json:"symptom"`
	Mass    float64 `json:"mass"`
}

// HypothesisResult is the scored outcome for one damage hypothesis.
type HypothesisResult struct {
	Rank                 int              `json:"rank"`
	Code                 string           `json:"code"`
	Name                 string           `json:"name"`
	Belief               float64          `json:"belief"`
	Plausibility         float64          `json:"plausibility"`
	Uncertainty          float64          `json:"uncertainty"`
	ConfidenceLevel      ConfidenceLevel  `json:"confidence_level"`
	ContributingSymptoms []string         `json:"contributing_symptoms"`
	MassAssignments      []MassAssignment `json:"mass_assignments"`
}
