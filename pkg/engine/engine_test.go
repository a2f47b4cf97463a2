package engine

import (
	"sync"
	"testing"

	"github.com/kamilpajak/diagnosa/pkg/contradiction"
	"github.com/kamilpajak/diagnosa/pkg/evidence"
	"github.com/kamilpajak/diagnosa/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() Catalog {
	return Catalog{
		Damages: []models.Damage{
			{Code: "A", Name: "Damage A", PriorProbability: 0.1},
			{Code: "B", Name: "Damage B", PriorProbability: 0.2},
			{Code: "C", Name: "Damage C", PriorProbability: 0.05},
		},
		Symptoms: []models.Symptom{
			{Code: "S1", Category: "power", MassFunction: map[string]float64{"A": 0.6}},
			{Code: "S2", Category: "display", MassFunction: map[string]float64{"A": 0.3, "B": 0.5}},
			{Code: "S3", Category: "power", MassFunction: map[string]float64{"B": 0.4}},
			{Code: "ONLY_A", Category: "boot", MassFunction: map[string]float64{"A": 1.0}},
			{Code: "ONLY_B", Category: "boot", MassFunction: map[string]float64{"B": 1.0}},
			{Code: "BROKEN", Category: "boot", MassFunction: map[string]float64{"A": 0.8, "B": 0.7}},
			{Code: "STRAY", Category: "boot", MassFunction: map[string]float64{"Z": 0.5}},
		},
	}
}

func noSeeds() *Engine {
	return New(Config{Rules: &contradiction.Table{}, DisablePriorSeeds: true})
}

func resultByCode(t *testing.T, report *models.DiagnosisReport, code string) models.HypothesisResult {
	t.Helper()
	for _, r := range report.Results {
		if r.Code == code {
			return r
		}
	}
	t.Fatalf("no result for %s", code)
	return models.HypothesisResult{}
}

func TestDiagnose_EmptyRequest(t *testing.T) {
	report := noSeeds().Diagnose(testCatalog(), Request{})

	require.NotNil(t, report.Results)
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Warnings)
	assert.Nil(t, report.Conflict)
	assert.False(t, report.Contradiction.HasContradiction)
	assert.Equal(t, models.Coherence{}, report.Coherence)
}

func TestDiagnose_WorkedExample(t *testing.T) {
	report := noSeeds().Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S2", "S1"}})

	require.Len(t, report.Results, 3)
	assert.Equal(t, []string{"S1", "S2"}, report.SymptomCodes)

	a := report.Results[0]
	assert.Equal(t, "A", a.Code)
	assert.Equal(t, 1, a.Rank)
	assert.InDelta(t, 0.6, a.Belief, 1e-9)
	assert.InDelta(t, 0.6+0.1142857143, a.Plausibility, 1e-9)
	assert.InDelta(t, 0.1142857143, a.Uncertainty, 1e-9)
	assert.Equal(t, models.ConfidenceMedium, a.ConfidenceLevel)
	assert.Equal(t, []string{"S1", "S2"}, a.ContributingSymptoms)
	assert.Equal(t, []models.MassAssignment{{Symptom: "S1", Mass: 0.6}, {Symptom: "S2", Mass: 0.3}}, a.MassAssignments)

	b := report.Results[1]
	assert.Equal(t, "B", b.Code)
	assert.InDelta(t, 0.2857142857, b.Belief, 1e-9)
	assert.Equal(t, models.ConfidenceLow, b.ConfidenceLevel)
	assert.Equal(t, []string{"S2"}, b.ContributingSymptoms)

	c := report.Results[2]
	assert.Equal(t, "C", c.Code)
	assert.Equal(t, 0.0, c.Belief)
	assert.Empty(t, c.ContributingSymptoms)
	assert.NotNil(t, c.ContributingSymptoms)
}

func TestDiagnose_BeliefNeverExceedsPlausibility(t *testing.T) {
	report := New(Config{}).Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S1", "S2", "S3"}})
	require.NotEmpty(t, report.Results)

	var total float64
	for _, r := range report.Results {
		assert.LessOrEqual(t, r.Belief, r.Plausibility, r.Code)
		total += r.Belief
	}
	assert.InDelta(t, 1.0, total+report.Results[0].Uncertainty, evidence.Tolerance)
}

func TestDiagnose_UnknownCodeIsWarning(t *testing.T) {
	report := noSeeds().Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S1", "NOPE"}})

	assert.Equal(t, []string{"S1"}, report.SymptomCodes)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, models.WarningUnknownSymptom, report.Warnings[0].Kind)
	assert.Equal(t, "NOPE", report.Warnings[0].Code)

	assert.InDelta(t, 0.6, resultByCode(t, report, "A").Belief, 1e-12)
}

func TestDiagnose_OnlyUnknownCodes(t *testing.T) {
	report := noSeeds().Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"X1", "X2"}})
	assert.Empty(t, report.Results)
	assert.Len(t, report.Warnings, 2)
}

func TestDiagnose_InvalidEvidenceRejected(t *testing.T) {
	report := noSeeds().Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"BROKEN", "STRAY", "S3"}})

	require.Len(t, report.Warnings, 2)
	for _, w := range report.Warnings {
		assert.Equal(t, models.WarningInvalidEvidence, w.Kind)
	}
	assert.Equal(t, "BROKEN", report.Warnings[0].Code)
	assert.Equal(t, "STRAY", report.Warnings[1].Code)

	b := resultByCode(t, report, "B")
	assert.InDelta(t, 0.4, b.Belief, 1e-12)
	assert.Equal(t, []string{"S3"}, b.ContributingSymptoms)
}

func TestDiagnose_DuplicatesCollapse(t *testing.T) {
	once := noSeeds().Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S1"}})
	twice := noSeeds().Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S1", " S1", "S1"}})

	assert.Equal(t, once.SymptomCodes, twice.SymptomCodes)
	assert.Equal(t, once.Results, twice.Results)
}

func TestDiagnose_CodesMatchCaseInsensitively(t *testing.T) {
	upper := noSeeds().Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S1", "S2"}})
	mixed := noSeeds().Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"s1", " S2", "s2"}})

	assert.Equal(t, []string{"S1", "S2"}, mixed.SymptomCodes)
	assert.Empty(t, mixed.Warnings)
	assert.Equal(t, upper.Results, mixed.Results)
}

func TestDiagnose_ReportMetadataIsFresh(t *testing.T) {
	eng := noSeeds()
	first := eng.Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S1"}})
	second := eng.Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S1"}})

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.GeneratedAt.IsZero())
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Coherence, second.Coherence)
}

func TestDiagnose_OrderIndependent(t *testing.T) {
	eng := New(Config{})
	first := eng.Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S3", "S1", "S2"}})
	second := eng.Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S2", "S3", "S1"}})

	assert.Equal(t, first.Results, second.Results)
}

func TestDiagnose_TotalConflict(t *testing.T) {
	report := noSeeds().Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"ONLY_A", "ONLY_B"}})

	require.NotNil(t, report.Conflict)
	assert.True(t, report.Inconclusive())
	assert.Equal(t, 1.0, report.Conflict.K)
	assert.Equal(t, "ONLY_B", report.Conflict.SymptomCode)
	assert.Empty(t, report.Results)
}

func TestDiagnose_PriorSeeds(t *testing.T) {
	withSeeds := New(Config{Rules: &contradiction.Table{}})
	report := withSeeds.Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S1"}})

	c := resultByCode(t, report, "C")
	assert.Greater(t, c.Belief, 0.0, "seeded hypotheses keep non-zero belief")
	assert.Empty(t, c.ContributingSymptoms, "priors are not symptom contributions")

	without := noSeeds().Diagnose(testCatalog(), Request{SelectedSymptomCodes: []string{"S1"}})
	assert.Equal(t, 0.0, resultByCode(t, without, "C").Belief)
}

func TestDiagnose_InvalidPriorIsSkipped(t *testing.T) {
	cat := testCatalog()
	cat.Damages[2].PriorProbability = 0.9

	report := New(Config{Rules: &contradiction.Table{}}).Diagnose(cat, Request{SelectedSymptomCodes: []string{"S1"}})
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "C", report.Warnings[0].Code)
	assert.Equal(t, 0.0, resultByCode(t, report, "C").Belief)
}

func TestDiagnose_RankTieBreaks(t *testing.T) {
	cat := Catalog{
		Damages: []models.Damage{{Code: "Y", PriorProbability: 0.1}, {Code: "X", PriorProbability: 0.1}},
		Symptoms: []models.Symptom{
			{Code: "S", Category: "c", MassFunction: map[string]float64{"X": 0.3, "Y": 0.3}},
		},
	}
	report := noSeeds().Diagnose(cat, Request{SelectedSymptomCodes: []string{"S"}})

	require.Len(t, report.Results, 2)
	assert.Equal(t, "X", report.Results[0].Code)
	assert.Equal(t, "Y", report.Results[1].Code)
	assert.Equal(t, 2, report.Results[1].Rank)
}

func TestDiagnose_ContradictionDoesNotChangeNumbers(t *testing.T) {
	rules := &contradiction.Table{Rules: []contradiction.Rule{
		{ID: "s1_vs_s2", Symptoms: []string{"S1", "S2"}, Reason: "r", Severity: models.SeverityHigh},
	}}
	req := Request{SelectedSymptomCodes: []string{"S1", "S2"}}

	plain := New(Config{Rules: &contradiction.Table{}}).Diagnose(testCatalog(), req)
	flagged := New(Config{Rules: rules}).Diagnose(testCatalog(), req)

	assert.False(t, plain.Contradiction.HasContradiction)
	assert.True(t, flagged.Contradiction.HasContradiction)
	assert.Equal(t, models.SeverityHigh, flagged.Contradiction.Severity)
	assert.Equal(t, []string{"s1_vs_s2"}, flagged.Contradiction.MatchedRuleIDs)
	assert.Equal(t, plain.Results, flagged.Results)
	assert.False(t, flagged.Coherence.IsCorrelated)
}

func TestDiagnose_Concurrent(t *testing.T) {
	eng := New(Config{})
	cat := testCatalog()
	want := eng.Diagnose(cat, Request{SelectedSymptomCodes: []string{"S1", "S2", "S3"}}).Results

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := eng.Diagnose(cat, Request{SelectedSymptomCodes: []string{"S3", "S2", "S1"}})
			assert.Equal(t, want, got.Results)
		}()
	}
	wg.Wait()
}

func TestDiagnose_DoesNotMutateCatalog(t *testing.T) {
	cat := testCatalog()
	before := testCatalog()

	New(Config{}).Diagnose(cat, Request{SelectedSymptomCodes: []string{"S1", "S2", "BROKEN"}})
	assert.Equal(t, before, cat)
}
