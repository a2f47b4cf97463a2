package evidence

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNormalize(t *testing.T, raw map[string]float64) MassFunction {
	t.Helper()
	m, err := Normalize(raw)
	require.NoError(t, err)
	return m
}

func TestNormalize_AddsTheta(t *testing.T) {
	m := mustNormalize(t, map[string]float64{"K001": 0.6, "K002": 0.25})

	assert.InDelta(t, 0.6, m.Mass("K001"), 1e-12)
	assert.InDelta(t, 0.25, m.Mass("K002"), 1e-12)
	assert.InDelta(t, 0.15, m.Theta(), 1e-12)
	assert.InDelta(t, 1.0, m.Sum(), Tolerance)
	assert.Equal(t, []string{"K001", "K002"}, m.Hypotheses())
}

func TestNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]float64
	}{
		{"zero mass", map[string]float64{"K001": 0}},
		{"negative mass", map[string]float64{"K001": -0.1}},
		{"mass above one", map[string]float64{"K001": 1.2}},
		{"NaN mass", map[string]float64{"K001": math.NaN()}},
		{"sum above one", map[string]float64{"K001": 0.7, "K002": 0.4}},
		{"empty code", map[string]float64{"": 0.3}},
		{"inconsistent theta", map[string]float64{"K001": 0.3, Theta: 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidEvidence))

			var ie *InvalidEvidenceError
			assert.True(t, errors.As(err, &ie))
		})
	}
}

func TestNormalize_SumWithinTolerance(t *testing.T) {
	m := mustNormalize(t, map[string]float64{"K001": 0.5, "K002": 0.5000005})
	assert.Equal(t, 0.0, m.Theta())
}

func TestNormalize_Idempotent(t *testing.T) {
	m := mustNormalize(t, map[string]float64{"K001": 0.3, "K004": 0.45})
	again := mustNormalize(t, m.Map())
	assert.Equal(t, m, again)

	m1 := mustNormalize(t, map[string]float64{"A": 0.6})
	m2 := mustNormalize(t, map[string]float64{"A": 0.3, "B": 0.5})
	combined, err := Combine(m1, m2)
	require.NoError(t, err)
	assert.Equal(t, combined, mustNormalize(t, combined.Map()))
}

func TestNormalize_SumsToOne(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for range 200 {
		raw := randomMasses(rng)
		m := mustNormalize(t, raw)
		assert.InDelta(t, 1.0, m.Sum(), Tolerance)
	}
}

func TestZeroValueIsVacuous(t *testing.T) {
	var m MassFunction
	assert.Equal(t, 1.0, m.Theta())
	assert.Empty(t, m.Hypotheses())
	assert.True(t, m.Equal(Vacuous(), 0))
}

func TestPriorSeed(t *testing.T) {
	m, err := PriorSeed("K003", 0.15)
	require.NoError(t, err)
	assert.InDelta(t, 0.15, m.Mass("K003"), 1e-12)
	assert.InDelta(t, 0.85, m.Theta(), 1e-12)

	_, err = PriorSeed("K003", 0.6)
	assert.ErrorIs(t, err, ErrInvalidEvidence)
	_, err = PriorSeed("K003", 0)
	assert.ErrorIs(t, err, ErrInvalidEvidence)
}

func TestCombine_WorkedExample(t *testing.T) {
	m1 := mustNormalize(t, map[string]float64{"A": 0.6})
	m2 := mustNormalize(t, map[string]float64{"A": 0.3, "B": 0.5})

	assert.InDelta(t, 0.30, Conflict(m1, m2), 1e-12)

	m12, err := Combine(m1, m2)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, m12.Mass("A"), 1e-9)
	assert.InDelta(t, 0.2857142857, m12.Mass("B"), 1e-9)
	assert.InDelta(t, 0.1142857143, m12.Theta(), 1e-9)
	assert.InDelta(t, 1.0, m12.Sum(), Tolerance)
}

func TestCombine_TotalConflict(t *testing.T) {
	m1 := mustNormalize(t, map[string]float64{"A": 1.0})
	m2 := mustNormalize(t, map[string]float64{"B": 1.0})

	m12, err := Combine(m1, m2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflictingEvidence)

	var ce *ConflictingEvidenceError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1.0, ce.K)
	assert.False(t, math.IsNaN(m12.Theta()))
}

func TestCombine_NearTotalConflict(t *testing.T) {
	m1 := mustNormalize(t, map[string]float64{"A": 1.0})
	m2 := mustNormalize(t, map[string]float64{"B": 1 - 1e-12})

	_, err := Combine(m1, m2)
	assert.ErrorIs(t, err, ErrConflictingEvidence)
}

func TestCombine_IdentityLaw(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 100 {
		m := mustNormalize(t, randomMasses(rng))

		left, err := Combine(Vacuous(), m)
		require.NoError(t, err)
		right, err := Combine(m, Vacuous())
		require.NoError(t, err)

		assert.True(t, left.Equal(m, Tolerance), "vacuous ⊕ %s = %s", m, left)
		assert.True(t, right.Equal(m, Tolerance), "%s ⊕ vacuous = %s", m, right)
	}
}

func TestCombine_CommutativeAndAssociative(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for range 100 {
		m1 := mustNormalize(t, randomMasses(rng))
		m2 := mustNormalize(t, randomMasses(rng))
		m3 := mustNormalize(t, randomMasses(rng))

		ab, err := Combine(m1, m2)
		require.NoError(t, err)
		ba, err := Combine(m2, m1)
		require.NoError(t, err)
		assert.True(t, ab.Equal(ba, Tolerance))

		left, err := Combine(ab, m3)
		require.NoError(t, err)
		bc, err := Combine(m2, m3)
		require.NoError(t, err)
		right, err := Combine(m1, bc)
		require.NoError(t, err)
		assert.True(t, left.Equal(right, Tolerance), "(m1⊕m2)⊕m3=%s m1⊕(m2⊕m3)=%s", left, right)

		perm, err := Fold(m3, m1, m2)
		require.NoError(t, err)
		assert.True(t, left.Equal(perm, Tolerance))
		assert.InDelta(t, 1.0, perm.Sum(), Tolerance)
	}
}

func TestFold_Deterministic(t *testing.T) {
	m1 := mustNormalize(t, map[string]float64{"K001": 0.35, "K002": 0.2})
	m2 := mustNormalize(t, map[string]float64{"K002": 0.5, "K003": 0.1})
	m3 := mustNormalize(t, map[string]float64{"K001": 0.15})

	first, err := Fold(m1, m2, m3)
	require.NoError(t, err)
	for range 20 {
		again, err := Fold(m1, m2, m3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFold_ReportsConflictStep(t *testing.T) {
	m1 := mustNormalize(t, map[string]float64{"A": 0.5})
	m2 := mustNormalize(t, map[string]float64{"A": 1.0})
	m3 := mustNormalize(t, map[string]float64{"B": 1.0})

	_, err := Fold(m1, m2, m3)
	var ce *ConflictingEvidenceError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Step)
	assert.Contains(t, err.Error(), "operand 2")
}

func TestFold_Empty(t *testing.T) {
	m, err := Fold()
	require.NoError(t, err)
	assert.True(t, m.Equal(Vacuous(), 0))
}

// randomMasses builds a valid raw map over a small frame, leaving some
// mass on Θ so that chains of combinations never hit total conflict.
func randomMasses(rng *rand.Rand) map[string]float64 {
	frame := []string{"A", "B", "C", "D"}
	raw := map[string]float64{}
	budget := 0.9
	for _, h := range frame {
		if rng.IntN(2) == 0 {
			continue
		}
		v := rng.Float64() * budget * 0.6
		if v <= 0 {
			continue
		}
		raw[h] = v
		budget -= v
	}
	return raw
}
