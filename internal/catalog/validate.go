package catalog

import (
	"fmt"
	"sort"

	"github.com/kamilpajak/diagnosa/pkg/engine"
	"github.com/kamilpajak/diagnosa/pkg/evidence"
)

// Issue is one problem found in a catalog.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Code + ": " + i.Message
}

// Validate lints a catalog snapshot. The engine tolerates every issue
// reported here by skipping the offending entry, so an issue means part of
// the catalog is silently unused at diagnosis time.
func Validate(cat engine.Catalog) []Issue {
	var issues []Issue
	add := func(code, format string, args ...any) {
		issues = append(issues, Issue{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	damages := make(map[string]bool, len(cat.Damages))
	for _, d := range cat.Damages {
		switch {
		case d.Code == "":
			add("", "damage %q has no code", d.Name)
			continue
		case damages[d.Code]:
			add(d.Code, "duplicate damage code")
			continue
		}
		damages[d.Code] = true

		if d.Name == "" {
			add(d.Code, "damage has no name")
		}
		if d.PriorProbability <= 0 || d.PriorProbability > 0.5 {
			add(d.Code, "prior probability %g outside (0, 0.5]", d.PriorProbability)
		}
	}

	symptoms := make(map[string]bool, len(cat.Symptoms))
	for _, s := range cat.Symptoms {
		switch {
		case s.Code == "":
			add("", "symptom %q has no code", s.Name)
			continue
		case symptoms[s.Code]:
			add(s.Code, "duplicate symptom code")
			continue
		}
		symptoms[s.Code] = true

		if s.Category == "" {
			add(s.Code, "symptom has no category")
		}

		m, err := evidence.Normalize(s.MassFunction)
		if err != nil {
			add(s.Code, "invalid mass function: %v", err)
			continue
		}
		if len(m.Hypotheses()) == 0 {
			add(s.Code, "mass function is vacuous")
		}
		for _, h := range m.Hypotheses() {
			if !damages[h] {
				add(s.Code, "mass function names unknown damage %q", h)
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Code < issues[j].Code })
	return issues
}
