package diagnosa

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/kamilpajak/diagnosa/internal/narrative"
	"github.com/kamilpajak/diagnosa/pkg/models"
)

func printReport(w io.Writer, r *models.DiagnosisReport) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)
	yellow := color.New(color.FgYellow)

	if len(r.SymptomCodes) > 0 {
		_, _ = dim.Fprintf(w, "Symptoms: %s\n", strings.Join(r.SymptomCodes, ", "))
	}
	for _, warning := range r.Warnings {
		_, _ = yellow.Fprintf(w, "Warning: %s\n", warning.Message)
	}
	fmt.Fprintln(w)

	printContradiction(w, r)

	switch {
	case r.Conflict != nil:
		_, _ = color.New(color.FgRed, color.Bold).Fprintln(w, "INCONCLUSIVE")
		fmt.Fprintf(w, "The selected symptoms contradict each other completely (K=%.4f at %s).\n",
			r.Conflict.K, r.Conflict.SymptomCode)
		fmt.Fprintln(w, "Re-check the symptoms and try again.")
		return
	case len(r.Results) == 0:
		fmt.Fprintln(w, "No known symptoms selected; nothing to diagnose.")
		return
	}

	_, _ = bold.Fprintln(w, "DIAGNOSIS")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCODE\tDAMAGE\tBELIEF\tPLAUSIBILITY\tUNCERTAINTY\tCONFIDENCE")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.3f\t%.3f\t%.3f\t%s\n",
			res.Rank, res.Code, res.Name, res.Belief, res.Plausibility, res.Uncertainty,
			confidenceColor(res.ConfidenceLevel).Sprint(string(res.ConfidenceLevel)))
	}
	_ = tw.Flush()

	top := r.Results[0]
	fmt.Fprintln(w)
	printBeliefBar(w, top)
	if len(top.MassAssignments) > 0 {
		parts := make([]string, len(top.MassAssignments))
		for i, ma := range top.MassAssignments {
			parts[i] = fmt.Sprintf("%s=%.2f", ma.Symptom, ma.Mass)
		}
		_, _ = dim.Fprintf(w, "  Evidence: %s\n", strings.Join(parts, ", "))
	}

	c := r.Coherence
	correlated := "not correlated"
	if c.IsCorrelated {
		correlated = "correlated"
	}
	_, _ = dim.Fprintf(w, "  Coherence: %.2f across %d categories (%s)\n", c.CorrelationScore, c.DistinctCategories, correlated)
}

func printContradiction(w io.Writer, r *models.DiagnosisReport) {
	ca := r.Contradiction
	if !ca.HasContradiction {
		return
	}

	header := color.New(color.FgYellow, color.Bold)
	if ca.Severity == models.SeverityHigh {
		header = color.New(color.FgRed, color.Bold)
	}
	_, _ = header.Fprintf(w, "CONTRADICTION (%s)\n", strings.ToUpper(string(ca.Severity)))
	for _, m := range ca.Matches {
		fmt.Fprintf(w, "- %s: %s\n", strings.Join(m.MatchedSymptoms, " + "), m.Reason)
		if m.AlternativeExplanation != "" {
			_, _ = color.New(color.FgHiBlack).Fprintf(w, "  %s\n", m.AlternativeExplanation)
		}
	}
	if len(ca.AlternativeSuggestions) > 0 {
		fmt.Fprintf(w, "Consider instead: %s\n", strings.Join(ca.AlternativeSuggestions, ", "))
	}
	fmt.Fprintln(w)
}

func confidenceColor(c models.ConfidenceLevel) *color.Color {
	switch c {
	case models.ConfidenceHigh:
		return color.New(color.FgGreen)
	case models.ConfidenceMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// printBeliefBar draws belief as a solid bar and the uncertainty that could
// still go to the damage as a shaded tail.
func printBeliefBar(w io.Writer, res models.HypothesisResult) {
	const barWidth = 24
	filled := int(res.Belief*barWidth + 0.5)
	open := int(res.Plausibility*barWidth+0.5) - filled
	if filled > barWidth {
		filled = barWidth
	}
	if open < 0 {
		open = 0
	}
	if filled+open > barWidth {
		open = barWidth - filled
	}

	fmt.Fprintf(w, "  %s %s: ", res.Code, res.Name)
	_, _ = confidenceColor(res.ConfidenceLevel).Fprint(w, strings.Repeat("█", filled))
	fmt.Fprint(w, strings.Repeat("▒", open), strings.Repeat("░", barWidth-filled-open))
	_, _ = color.New(color.FgHiBlack).Fprintf(w, " [%.0f%%, %.0f%%]\n", res.Belief*100, res.Plausibility*100)
}

func printExplanation(w io.Writer, e *narrative.Explanation) {
	fmt.Fprintln(w)
	_, _ = color.New(color.Bold).Fprintln(w, "EXPLANATION")
	fmt.Fprintln(w, strings.TrimSpace(e.Text))
	_, _ = color.New(color.FgHiBlack).Fprintf(w, "\n%s\nModel: %s/%s\n", strings.Repeat("-", 60), e.Provider, e.Model)
}
