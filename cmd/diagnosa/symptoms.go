package diagnosa

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/kamilpajak/diagnosa/pkg/models"
	"github.com/spf13/cobra"
)

var (
	symptomsDevice string
	symptomsFormat string
)

var symptomsCmd = &cobra.Command{
	Use:   "symptoms",
	Short: "List the symptoms of the catalog, grouped by category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		symptoms := cat.ForDevice(symptomsDevice).Symptoms

		if symptomsFormat == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(symptoms)
		}

		byCategory := map[string][]models.Symptom{}
		var categories []string
		for _, s := range symptoms {
			if _, ok := byCategory[s.Category]; !ok {
				categories = append(categories, s.Category)
			}
			byCategory[s.Category] = append(byCategory[s.Category], s)
		}
		sort.Strings(categories)

		bold := color.New(color.Bold)
		w := cmd.OutOrStdout()
		for _, category := range categories {
			_, _ = bold.Fprintln(w, category)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, s := range byCategory[category] {
				device := s.DeviceType
				if device == "" {
					device = "any"
				}
				fmt.Fprintf(tw, "  %s\t%s\t(%s)\n", s.Code, s.Name, device)
			}
			_ = tw.Flush()
		}
		return nil
	},
}

func init() {
	symptomsCmd.Flags().StringVarP(&symptomsDevice, "device", "d", "", "Only symptoms that apply to this device type")
	symptomsCmd.Flags().StringVarP(&symptomsFormat, "format", "f", "text", "Output format (text, json)")
}
