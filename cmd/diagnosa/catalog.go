package diagnosa

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/kamilpajak/diagnosa/internal/catalog"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the damage and symptom catalog",
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Lint the catalog and the contradiction rules against it",
	Long: `Check reports catalog entries the engine would skip at diagnosis time:
duplicate codes, priors outside (0, 0.5], mass functions that do not
normalize or name unknown damages. It also reports contradiction rules
that reference symptoms missing from the catalog.

Exits non-zero when any issue is found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		rules, err := cfg.LoadRules()
		if err != nil {
			return err
		}

		issues := catalog.Validate(cat)
		for _, r := range rules.Rules {
			for _, code := range r.Symptoms {
				if _, ok := cat.Symptom(code); !ok {
					issues = append(issues, catalog.Issue{Code: r.ID, Message: fmt.Sprintf("rule references unknown symptom %q", code)})
				}
			}
		}

		w := cmd.OutOrStdout()
		if len(issues) == 0 {
			_, _ = color.New(color.FgGreen).Fprintf(w, "ok: %d damages, %d symptoms, %d rules\n",
				len(cat.Damages), len(cat.Symptoms), len(rules.Rules))
			return nil
		}

		red := color.New(color.FgRed)
		for _, issue := range issues {
			_, _ = red.Fprintln(w, issue.String())
		}
		return fmt.Errorf("%d catalog issue(s) found", len(issues))
	},
}

func init() {
	catalogCmd.AddCommand(catalogCheckCmd)
}
