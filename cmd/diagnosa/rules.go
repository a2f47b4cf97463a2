package diagnosa

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rulesYAML bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the contradiction rules and suggestion priorities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := cfg.LoadRules()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if rulesYAML {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(table)
		}

		bold := color.New(color.Bold)
		dim := color.New(color.FgHiBlack)

		_, _ = bold.Fprintln(w, "RULES")
		for _, r := range table.Rules {
			fmt.Fprintf(w, "%-28s %-6s %s\n", r.ID, r.Severity, strings.Join(r.Symptoms, ", "))
			_, _ = dim.Fprintf(w, "  %s\n", r.Reason)
		}

		fmt.Fprintln(w)
		_, _ = bold.Fprintln(w, "SUGGESTION PRIORITIES")
		for i, p := range table.Priorities {
			fmt.Fprintf(w, "%d. %s [%s]: %s\n", i+1, p.Category, strings.Join(p.Symptoms, ", "), strings.Join(p.Suggestions, ", "))
		}
		fmt.Fprintf(w, "Fallback: %s\n", strings.Join(table.Fallback, ", "))
		return nil
	},
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesYAML, "yaml", false, "Print the rule table as YAML")
}
