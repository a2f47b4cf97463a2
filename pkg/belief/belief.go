// Package belief derives belief, plausibility and uncertainty from a
// combined mass function whose focal elements are singletons and Θ.
package belief

import "github.com/kamilpajak/diagnosa/pkg/evidence"

// Interval is the belief interval [Belief, Plausibility] of one hypothesis.
type Interval struct {
	Belief       float64 `json:"belief"`
	Plausibility float64 `json:"plausibility"`
	Uncertainty  float64 `json:"uncertainty"`
}

// Compute returns the belief interval for a hypothesis.
// Bel(h) = m(h), Pl(h) = m(h) + m(Θ), Uncertainty(h) = m(Θ).
func Compute(m evidence.MassFunction, code string) Interval {
	bel := m.Mass(code)
	theta := m.Theta()
	return Interval{
		Belief:       bel,
		Plausibility: bel + theta,
		Uncertainty:  theta,
	}
}
