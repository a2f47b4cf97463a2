// Package engine turns a set of observed symptoms into a ranked diagnosis.
//
// Diagnose never mutates the catalog or the request and performs no I/O.
// Its results, warnings, contradiction analysis and coherence depend only on
// the inputs; the report ID and GeneratedAt timestamp are fresh on every
// call. An Engine keeps no state between calls and may be shared by any
// number of goroutines.
package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kamilpajak/diagnosa/pkg/belief"
	"github.com/kamilpajak/diagnosa/pkg/contradiction"
	"github.com/kamilpajak/diagnosa/pkg/evidence"
	"github.com/kamilpajak/diagnosa/pkg/models"
)

// Request is one diagnosis request. Device filtering, if any, is applied
// to the catalog before calling Diagnose.
type Request struct {
	SelectedSymptomCodes []string `json:"selected_symptom_codes"`
}

// Config configures an Engine.
type Config struct {
	// Rules is the contradiction table; nil selects contradiction.Default().
	Rules *contradiction.Table

	// DisablePriorSeeds skips folding {damage: prior, Θ: 1 − prior} into
	// the evidence before the symptoms.
	DisablePriorSeeds bool
}

// Engine holds immutable configuration only.
type Engine struct {
	rules *contradiction.Table
	seeds bool
}

// New creates an Engine.
func New(cfg Config) *Engine {
	rules := cfg.Rules
	if rules == nil {
		rules = contradiction.Default()
	}
	return &Engine{rules: rules, seeds: !cfg.DisablePriorSeeds}
}

// Rules returns the contradiction table in use.
func (e *Engine) Rules() *contradiction.Table {
	return e.rules
}

// observation is an accepted symptom with its normalized mass function.
type observation struct {
	symptom models.Symptom
	mass    evidence.MassFunction
}

// Diagnose combines the evidence of the selected symptoms and scores every
// damage in the catalog. It never fails: unknown codes and malformed mass
// functions become warnings, an empty evidence set yields no results, and
// total conflict is reported in DiagnosisReport.Conflict.
func (e *Engine) Diagnose(cat Catalog, req Request) *models.DiagnosisReport {
	report := &models.DiagnosisReport{
		ID:           uuid.New(),
		SymptomCodes: []string{},
		Results:      []models.HypothesisResult{},
		GeneratedAt:  time.Now().UTC(),
	}

	symptoms, warnings := resolve(cat, req.SelectedSymptomCodes)
	for _, s := range symptoms {
		report.SymptomCodes = append(report.SymptomCodes, s.Code)
	}

	report.Contradiction = e.rules.Analyze(report.SymptomCodes)
	report.Coherence = Coherence(symptoms, report.Contradiction)

	observations, rejected := normalize(cat, symptoms)
	warnings = append(warnings, rejected...)
	if len(observations) == 0 {
		report.Warnings = warnings
		return report
	}

	var operands []evidence.MassFunction
	var labels []string
	if e.seeds {
		seeds, labelsForSeeds, invalid := priorSeeds(cat.Damages)
		operands = append(operands, seeds...)
		labels = append(labels, labelsForSeeds...)
		warnings = append(warnings, invalid...)
	}
	for _, o := range observations {
		operands = append(operands, o.mass)
		labels = append(labels, o.symptom.Code)
	}
	report.Warnings = warnings

	combined, err := evidence.Fold(operands...)
	if err != nil {
		var ce *evidence.ConflictingEvidenceError
		if errors.As(err, &ce) {
			report.Conflict = &models.ConflictOutcome{
				K:           ce.K,
				SymptomCode: labels[ce.Step],
				Message:     err.Error(),
			}
		}
		return report
	}

	report.Results = rank(score(cat.Damages, combined, observations))
	return report
}

// resolve deduplicates the requested codes, drops unknown ones with a
// warning and returns the known symptoms in ascending code order. Codes
// match case-insensitively.
func resolve(cat Catalog, codes []string) ([]models.Symptom, []models.Warning) {
	index := make(map[string]models.Symptom, len(cat.Symptoms))
	for _, s := range cat.Symptoms {
		key := strings.ToUpper(s.Code)
		if _, dup := index[key]; !dup {
			index[key] = s
		}
	}

	seen := make(map[string]bool, len(codes))
	var symptoms []models.Symptom
	var warnings []models.Warning
	for _, raw := range codes {
		code := strings.TrimSpace(raw)
		key := strings.ToUpper(code)
		if code == "" || seen[key] {
			continue
		}
		seen[key] = true

		s, ok := index[key]
		if !ok {
			warnings = append(warnings, models.Warning{
				Kind:    models.WarningUnknownSymptom,
				Code:    code,
				Message: fmt.Sprintf("unknown symptom code %q ignored", code),
			})
			continue
		}
		symptoms = append(symptoms, s)
	}

	sort.Slice(symptoms, func(i, j int) bool { return symptoms[i].Code < symptoms[j].Code })
	sort.SliceStable(warnings, func(i, j int) bool { return warnings[i].Code < warnings[j].Code })
	return symptoms, warnings
}

// normalize validates each symptom's mass function. Symptoms whose mass
// function is malformed or names a damage outside the catalog are rejected.
func normalize(cat Catalog, symptoms []models.Symptom) ([]observation, []models.Warning) {
	known := make(map[string]bool, len(cat.Damages))
	for _, d := range cat.Damages {
		known[d.Code] = true
	}

	var out []observation
	var warnings []models.Warning
	for _, s := range symptoms {
		m, err := evidence.Normalize(s.MassFunction)
		if err == nil {
			for _, h := range m.Hypotheses() {
				if !known[h] {
					err = fmt.Errorf("mass function names unknown damage %q", h)
					break
				}
			}
		}
		if err != nil {
			warnings = append(warnings, models.Warning{
				Kind:    models.WarningInvalidEvidence,
				Code:    s.Code,
				Message: fmt.Sprintf("symptom %s rejected: %v", s.Code, err),
			})
			continue
		}
		out = append(out, observation{symptom: s, mass: m})
	}
	return out, warnings
}

// priorSeeds returns one seed per damage in ascending code order. The
// label of a seed is empty so conflicts can be told apart from symptoms.
func priorSeeds(damages []models.Damage) ([]evidence.MassFunction, []string, []models.Warning) {
	sorted := make([]models.Damage, len(damages))
	copy(sorted, damages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })

	var seeds []evidence.MassFunction
	var labels []string
	var warnings []models.Warning
	seen := make(map[string]bool, len(sorted))
	for _, d := range sorted {
		if seen[d.Code] {
			continue
		}
		seen[d.Code] = true

		m, err := evidence.PriorSeed(d.Code, d.PriorProbability)
		if err != nil {
			warnings = append(warnings, models.Warning{
				Kind:    models.WarningInvalidEvidence,
				Code:    d.Code,
				Message: fmt.Sprintf("prior of damage %s ignored: %v", d.Code, err),
			})
			continue
		}
		seeds = append(seeds, m)
		labels = append(labels, "")
	}
	return seeds, labels, warnings
}

func score(damages []models.Damage, combined evidence.MassFunction, observations []observation) []models.HypothesisResult {
	seen := make(map[string]bool, len(damages))
	results := make([]models.HypothesisResult, 0, len(damages))
	for _, d := range damages {
		if seen[d.Code] {
			continue
		}
		seen[d.Code] = true

		iv := belief.Compute(combined, d.Code)
		r := models.HypothesisResult{
			Code:                 d.Code,
			Name:                 d.Name,
			Belief:               iv.Belief,
			Plausibility:         iv.Plausibility,
			Uncertainty:          iv.Uncertainty,
			ConfidenceLevel:      models.ClassifyBelief(iv.Belief),
			ContributingSymptoms: []string{},
			MassAssignments:      []models.MassAssignment{},
		}
		for _, o := range observations {
			if mass := o.mass.Mass(d.Code); mass > 0 {
				r.ContributingSymptoms = append(r.ContributingSymptoms, o.symptom.Code)
				r.MassAssignments = append(r.MassAssignments, models.MassAssignment{Symptom: o.symptom.Code, Mass: mass})
			}
		}
		results = append(results, r)
	}
	return results
}

// rank orders results by belief, then plausibility (both descending), then
// code, and assigns 1-based ranks.
func rank(results []models.HypothesisResult) []models.HypothesisResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Belief != results[j].Belief {
			return results[i].Belief > results[j].Belief
		}
		if results[i].Plausibility != results[j].Plausibility {
			return results[i].Plausibility > results[j].Plausibility
		}
		return results[i].Code < results[j].Code
	})

	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
