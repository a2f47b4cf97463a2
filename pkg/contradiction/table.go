// Package contradiction detects symptom selections that are logically
// implausible for a single device and proposes alternative hypotheses.
//
// Rules and suggestion priorities are declarative data. The default table is
// embedded from rules.yaml and parsed once; other tables can be loaded with
// Load or Parse.
package contradiction

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kamilpajak/diagnosa/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule is a group of symptoms that should not be observed together.
type Rule struct {
	ID                     string          `yaml:"id" json:"id"`
	Symptoms               []string        `yaml:"symptoms" json:"contradictory_symptoms"`
	Reason                 string          `yaml:"reason" json:"reason"`
	Severity               models.Severity `yaml:"severity" json:"severity"`
	AlternativeExplanation string          `yaml:"alternative_explanation,omitempty" json:"alternative_explanation,omitempty"`
}

// Priority is one entry of the alternative suggestion heuristic.
type Priority struct {
	Category    string   `yaml:"category" json:"category"`
	Symptoms    []string `yaml:"symptoms" json:"symptoms"`
	Suggestions []string `yaml:"suggestions" json:"suggestions"`
}

// Table is an immutable set of contradiction rules and suggestion priorities.
type Table struct {
	Rules      []Rule     `yaml:"rules" json:"rules"`
	Priorities []Priority `yaml:"priorities" json:"priorities"`
	Fallback   []string   `yaml:"fallback" json:"fallback"`
}

var loadDefault = sync.OnceValues(func() (*Table, error) {
	return Parse(defaultRules)
})

// Default returns the embedded rule table. It panics if the embedded
// document is invalid, which the package tests rule out.
func Default() *Table {
	t, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("contradiction: embedded rules: %v", err))
	}
	return t
}

// Load reads a YAML rule table from r.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule table: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML rule table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse rule table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks every rule and priority entry.
func (t *Table) Validate() error {
	var errs []error
	ids := make(map[string]bool, len(t.Rules))
	for i, r := range t.Rules {
		if strings.TrimSpace(r.ID) == "" {
			errs = append(errs, fmt.Errorf("rule %d: missing id", i))
		} else if ids[r.ID] {
			errs = append(errs, fmt.Errorf("rule %s: duplicate id", r.ID))
		}
		ids[r.ID] = true

		if n := len(distinct(r.Symptoms)); n < 2 {
			errs = append(errs, fmt.Errorf("rule %s: needs at least 2 distinct symptoms, has %d", r.ID, n))
		}
		if !r.Severity.Valid() {
			errs = append(errs, fmt.Errorf("rule %s: invalid severity %q", r.ID, r.Severity))
		}
		if strings.TrimSpace(r.Reason) == "" {
			errs = append(errs, fmt.Errorf("rule %s: missing reason", r.ID))
		}
	}
	for i, p := range t.Priorities {
		if len(p.Symptoms) == 0 || len(p.Suggestions) == 0 {
			errs = append(errs, fmt.Errorf("priority %d (%s): needs symptoms and suggestions", i, p.Category))
		}
	}
	return errors.Join(errs...)
}

// Rule returns the rule with the given id.
func (t *Table) Rule(id string) (Rule, bool) {
	for _, r := range t.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

func distinct(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
