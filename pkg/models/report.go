package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity ranks how implausible a contradiction is.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities: high > medium > low > none. Unknown values rank as none.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Valid reports whether s is a severity a rule may carry.
func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// RuleMatch describes one contradiction rule triggered by the evidence.
type RuleMatch struct {
	RuleID                 string   `json:"rule_id"`
	MatchedSymptoms        []string `json:"matched_symptoms"`
	Reason                 string   `json:"reason"`
	Severity               Severity `json:"severity"`
	AlternativeExplanation string   `json:"alternative_explanation,omitempty"`
}

// ContradictionAnalysis is the result of checking evidence against the rule table.
type ContradictionAnalysis struct {
	HasContradiction       bool        `json:"has_contradiction"`
	MatchedRuleIDs         []string    `json:"matched_rule_ids"`
	Matches                []RuleMatch `json:"matches,omitempty"`
	Severity               Severity    `json:"severity"`
	AlternativeSuggestions []string    `json:"alternative_suggestions"`
}

// Coherence summarizes how internally consistent the evidence set is.
type Coherence struct {
	CorrelationScore   float64 `json:"correlation_score"`
	IsCorrelated       bool    `json:"is_correlated"`
	DistinctCategories int     `json:"distinct_categories"`
}

// WarningKind classifies a non-fatal problem found while diagnosing.
type WarningKind string

const (
	WarningUnknownSymptom  WarningKind = "unknown_symptom_code"
	WarningInvalidEvidence WarningKind = "invalid_evidence"
)

// Warning is a non-fatal problem with one symptom of the request.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

// ConflictOutcome is set when the evidence fully contradicts itself and
// Dempster's rule cannot be applied.
type ConflictOutcome struct {
	K           float64 `json:"k"`
	SymptomCode string  `json:"symptom_code,omitempty"` // operand that hit the conflict; empty for a prior seed
	Message     string  `json:"message"`
}

// DiagnosisReport is the complete output of one diagnosis request.
type DiagnosisReport struct {
	ID            uuid.UUID             `json:"id"`
	SymptomCodes  []string              `json:"symptom_codes"`
	Results       []HypothesisResult    `json:"results"`
	Contradiction ContradictionAnalysis `json:"contradiction"`
	Coherence     Coherence             `json:"coherence"`
	Warnings      []Warning             `json:"warnings,omitempty"`
	Conflict      *ConflictOutcome      `json:"conflict,omitempty"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// Inconclusive returns true if the evidence could not be combined.
func (r *DiagnosisReport) Inconclusive() bool {
	return r.Conflict != nil
}

// Top returns at most n results; n <= 0 returns all of them.
func (r *DiagnosisReport) Top(n int) []HypothesisResult {
	if n <= 0 || n >= len(r.Results) {
		return r.Results
	}
	return r.Results[:n]
}
