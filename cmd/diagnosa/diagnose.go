package diagnosa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/kamilpajak/diagnosa/internal/narrative"
	"github.com/kamilpajak/diagnosa/pkg/engine"
	"github.com/kamilpajak/diagnosa/pkg/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	diagnoseDevice   string
	diagnoseTop      int
	diagnoseFormat   string
	diagnoseNoPriors bool
	diagnoseExplain  bool
	diagnoseProvider string
	diagnoseModel    string
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <symptom-code>...",
	Short: "Rank probable damages for a set of symptoms",
	Long: `Combine the evidence of the given symptom codes and rank every damage in
the catalog by belief.

Codes may be given as separate arguments or comma separated. Unknown codes
are reported and ignored.

Examples:
  diagnosa diagnose G001 G002
  diagnosa diagnose G020,G021 --device laptop --top 3
  diagnosa diagnose G005 G007 --format json
  diagnosa diagnose G013 --explain --provider anthropic`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVarP(&diagnoseDevice, "device", "d", "", "Device type; symptoms for other devices are treated as unknown")
	diagnoseCmd.Flags().IntVarP(&diagnoseTop, "top", "n", 5, "Number of damages to show (0 for all)")
	diagnoseCmd.Flags().StringVarP(&diagnoseFormat, "format", "f", "text", "Output format (text, json)")
	diagnoseCmd.Flags().BoolVar(&diagnoseNoPriors, "no-priors", false, "Do not seed the evidence with damage priors")
	diagnoseCmd.Flags().BoolVarP(&diagnoseExplain, "explain", "e", false, "Ask a language model to explain the result")
	diagnoseCmd.Flags().StringVarP(&diagnoseProvider, "provider", "p", "", "Only use this provider for --explain (google, openai, anthropic)")
	diagnoseCmd.Flags().StringVarP(&diagnoseModel, "model", "m", "", "Model name for --provider")
}

type diagnoseOutput struct {
	Report      *models.DiagnosisReport `json:"report"`
	Explanation *narrative.Explanation  `json:"explanation,omitempty"`
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	if diagnoseFormat != "text" && diagnoseFormat != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", diagnoseFormat)
	}
	if diagnoseTop < 0 {
		return fmt.Errorf("--top must not be negative")
	}

	ctx := cmd.Context()
	cat, err := loadCatalog(ctx)
	if err != nil {
		return err
	}
	rules, err := cfg.LoadRules()
	if err != nil {
		return err
	}

	eng := engine.New(engine.Config{
		Rules:             rules,
		DisablePriorSeeds: diagnoseNoPriors || cfg.Engine.DisablePriorSeeds,
	})
	cat = cat.ForDevice(diagnoseDevice)
	report := eng.Diagnose(cat, engine.Request{SelectedSymptomCodes: splitCodes(args)})
	report.Results = report.Top(diagnoseTop)

	out := diagnoseOutput{Report: report}
	if diagnoseExplain {
		out.Explanation, err = explain(ctx, cmd.ErrOrStderr(), report, cat)
		if err != nil {
			_, _ = color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "Explanation unavailable: %v\n", err)
		}
	}

	if diagnoseFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printReport(cmd.OutOrStdout(), report)
	if out.Explanation != nil {
		printExplanation(cmd.OutOrStdout(), out.Explanation)
	}
	return nil
}

// splitCodes accepts "G001 G002" as well as "G001,G002".
func splitCodes(args []string) []string {
	var codes []string
	for _, arg := range args {
		for _, code := range strings.Split(arg, ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, strings.ToUpper(code))
			}
		}
	}
	return codes
}

func explain(ctx context.Context, stderr io.Writer, report *models.DiagnosisReport, cat engine.Catalog) (*narrative.Explanation, error) {
	if diagnoseProvider != "" {
		p, err := narrative.ParseProvider(diagnoseProvider)
		if err != nil {
			return nil, err
		}
		cfg.OnlyProvider(p)
		if diagnoseModel != "" {
			cfg.Narrative.Models[0].Model = diagnoseModel
		}
	}

	chain := cfg.BuildChain(logger)
	if chain.Len() == 0 {
		return nil, fmt.Errorf("%w: set GOOGLE_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY", narrative.ErrNoModelAvailable)
	}

	if isTerminal(stderr) {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(stderr))
		s.Suffix = " Generating explanation..."
		s.Start()
		defer s.Stop()
	} else if logger.Core().Enabled(zap.InfoLevel) {
		chain.WithEmitter(&narrative.TextEmitter{W: stderr})
	}

	return narrative.NewExplainer(chain).Explain(ctx, report, cat)
}
