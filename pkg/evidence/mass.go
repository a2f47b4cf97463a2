// Package evidence implements Dempster-Shafer mass functions whose focal
// elements are single hypotheses or the universal element Θ, and the
// combination of such mass functions with Dempster's rule.
//
// A MassFunction can only be built through Normalize, Vacuous, PriorSeed or
// Combine, so every value in circulation sums to 1 within Tolerance.
package evidence

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Theta is the key used for the universal element in map form.
const Theta = "Θ"

// Tolerance is the floating point slack allowed on mass sums.
const Tolerance = 1e-6

// ErrInvalidEvidence is matched by every *InvalidEvidenceError.
var ErrInvalidEvidence = errors.New("invalid evidence")

// InvalidEvidenceError describes a raw mass map that cannot be normalized.
type InvalidEvidenceError struct {
	Hypothesis string  // offending key, empty when the sum is the problem
	Value      float64 // offending value or sum
	Reason     string
}

func (e *InvalidEvidenceError) Error() string {
	if e.Hypothesis != "" {
		return fmt.Sprintf("invalid evidence: mass %q=%g %s", e.Hypothesis, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid evidence: total mass %g %s", e.Value, e.Reason)
}

func (e *InvalidEvidenceError) Unwrap() error { return ErrInvalidEvidence }

// MassFunction is a normalized mass assignment. The zero value is the
// vacuous mass function (all mass on Θ).
type MassFunction struct {
	masses map[string]float64 // singleton focal elements, every value > 0
	theta  float64
}

// Normalize validates a raw mass map and completes it with Θ.
//
// Every hypothesis mass must lie in (0, 1] and their sum must not exceed 1
// beyond Tolerance. The residual 1 − Σ is assigned to Θ. A Θ entry in raw is
// accepted when it is consistent with the other masses, so normalizing the
// Map of a MassFunction returns the same value.
func Normalize(raw map[string]float64) (MassFunction, error) {
	masses := make(map[string]float64, len(raw))
	var sum float64
	for _, code := range sortedKeys(raw) {
		if code == Theta {
			continue
		}
		v := raw[code]
		switch {
		case strings.TrimSpace(code) == "":
			return MassFunction{}, &InvalidEvidenceError{Hypothesis: code, Value: v, Reason: "has an empty hypothesis code"}
		case math.IsNaN(v) || v <= 0:
			return MassFunction{}, &InvalidEvidenceError{Hypothesis: code, Value: v, Reason: "must be greater than 0"}
		case v > 1:
			return MassFunction{}, &InvalidEvidenceError{Hypothesis: code, Value: v, Reason: "must not exceed 1"}
		}
		masses[code] = v
		sum += v
	}
	if sum > 1+Tolerance {
		return MassFunction{}, &InvalidEvidenceError{Value: sum, Reason: "exceeds 1"}
	}

	theta := math.Max(0, 1-sum)
	if t, ok := raw[Theta]; ok {
		if math.IsNaN(t) || t < 0 || math.Abs(sum+t-1) > Tolerance {
			return MassFunction{}, &InvalidEvidenceError{Hypothesis: Theta, Value: t, Reason: "is inconsistent with the hypothesis masses"}
		}
		theta = t
	}

	return MassFunction{masses: masses, theta: theta}, nil
}

// Vacuous returns the mass function that commits nothing: Θ = 1.
func Vacuous() MassFunction {
	return MassFunction{}
}

// PriorSeed returns {code: prior, Θ: 1 − prior}, used to keep hypotheses
// untouched by the evidence from collapsing to zero.
func PriorSeed(code string, prior float64) (MassFunction, error) {
	if math.IsNaN(prior) || prior <= 0 || prior > 0.5 {
		return MassFunction{}, &InvalidEvidenceError{Hypothesis: code, Value: prior, Reason: "prior must be in (0, 0.5]"}
	}
	return Normalize(map[string]float64{code: prior})
}

// Mass returns the mass on a hypothesis, or on Θ when code is Theta.
func (m MassFunction) Mass(code string) float64 {
	if code == Theta {
		return m.Theta()
	}
	return m.masses[code]
}

// Theta returns the uncommitted mass.
func (m MassFunction) Theta() float64 {
	if len(m.masses) == 0 {
		return 1
	}
	return m.theta
}

// Hypotheses returns the singleton focal elements in ascending order.
func (m MassFunction) Hypotheses() []string {
	return sortedKeys(m.masses)
}

// Sum returns the total mass including Θ.
func (m MassFunction) Sum() float64 {
	sum := m.Theta()
	for _, code := range m.Hypotheses() {
		sum += m.masses[code]
	}
	return sum
}

// Map returns a copy of the mass function including the Θ entry.
func (m MassFunction) Map() map[string]float64 {
	out := make(map[string]float64, len(m.masses)+1)
	for code, v := range m.masses {
		out[code] = v
	}
	out[Theta] = m.Theta()
	return out
}

// Equal reports whether two mass functions agree on every focal element within tol.
func (m MassFunction) Equal(o MassFunction, tol float64) bool {
	if math.Abs(m.Theta()-o.Theta()) > tol {
		return false
	}
	for code, v := range m.masses {
		if math.Abs(v-o.masses[code]) > tol {
			return false
		}
	}
	for code, v := range o.masses {
		if math.Abs(v-m.masses[code]) > tol {
			return false
		}
	}
	return true
}

func (m MassFunction) String() string {
	var b strings.Builder
	b.WriteString("{")
	for _, code := range m.Hypotheses() {
		fmt.Fprintf(&b, "%s: %.4f, ", code, m.masses[code])
	}
	fmt.Fprintf(&b, "%s: %.4f}", Theta, m.Theta())
	return b.String()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
