package evidence

import (
	"errors"
	"fmt"
)

// ConflictEpsilon is how close K may get to 1 before combination is refused.
const ConflictEpsilon = 1e-9

// ErrConflictingEvidence is matched by every *ConflictingEvidenceError.
var ErrConflictingEvidence = errors.New("conflicting evidence")

// ConflictingEvidenceError reports total (or near-total) conflict between
// two mass functions. Dempster's rule is undefined in that case.
type ConflictingEvidenceError struct {
	K    float64
	Step int // index of the Fold operand that caused the conflict, -1 for Combine
}

func (e *ConflictingEvidenceError) Error() string {
	if e.Step >= 0 {
		return fmt.Sprintf("conflicting evidence: K=%.6f at operand %d", e.K, e.Step)
	}
	return fmt.Sprintf("conflicting evidence: K=%.6f", e.K)
}

func (e *ConflictingEvidenceError) Unwrap() error { return ErrConflictingEvidence }

// Conflict returns K, the mass Dempster's rule assigns to pairs of
// different singleton hypotheses.
func Conflict(m1, m2 MassFunction) float64 {
	var k float64
	for _, a := range m1.Hypotheses() {
		for _, b := range m2.Hypotheses() {
			if a != b {
				k += m1.masses[a] * m2.masses[b]
			}
		}
	}
	return k
}

// Combine applies Dempster's rule to two mass functions.
//
// With singleton focal elements the rule reduces to
//
//	m12(h) = [m1(h)m2(h) + m1(h)m2(Θ) + m1(Θ)m2(h)] / (1 − K)
//	m12(Θ) = m1(Θ)m2(Θ) / (1 − K)
//
// When K ≥ 1 − ConflictEpsilon no division is attempted and a
// *ConflictingEvidenceError carrying K is returned.
func Combine(m1, m2 MassFunction) (MassFunction, error) {
	k := Conflict(m1, m2)
	if k >= 1-ConflictEpsilon {
		return MassFunction{}, &ConflictingEvidenceError{K: k, Step: -1}
	}

	norm := 1 - k
	t1, t2 := m1.Theta(), m2.Theta()

	masses := make(map[string]float64, len(m1.masses)+len(m2.masses))
	for _, h := range union(m1, m2) {
		a, b := m1.masses[h], m2.masses[h]
		if v := (a*b + a*t2 + t1*b) / norm; v > 0 {
			masses[h] = v
		}
	}

	return MassFunction{masses: masses, theta: t1 * t2 / norm}, nil
}

// Fold combines the vacuous mass function with every operand, left to right.
// Callers fix the operand order so that rounding is reproducible.
func Fold(fns ...MassFunction) (MassFunction, error) {
	acc := Vacuous()
	for i, m := range fns {
		next, err := Combine(acc, m)
		if err != nil {
			var ce *ConflictingEvidenceError
			if errors.As(err, &ce) {
				ce.Step = i
			}
			return MassFunction{}, err
		}
		acc = next
	}
	return acc, nil
}

func union(m1, m2 MassFunction) []string {
	seen := make(map[string]float64, len(m1.masses)+len(m2.masses))
	for h := range m1.masses {
		seen[h] = 0
	}
	for h := range m2.masses {
		seen[h] = 0
	}
	return sortedKeys(seen)
}
