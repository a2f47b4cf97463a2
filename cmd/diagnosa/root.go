package diagnosa

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/kamilpajak/diagnosa/internal/config"
	"github.com/kamilpajak/diagnosa/internal/logging"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath  string
	catalogPath string
	logLevel    string
	noColor     bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "diagnosa",
	Short: "Device failure diagnosis with Dempster-Shafer evidence",
	Long: `Diagnosa ranks probable laptop and PC failures from observed symptoms.

Each symptom carries partial belief about the damages it indicates. The
evidence is combined with Dempster's rule, every damage gets a belief,
plausibility and uncertainty, and symptom combinations that cannot happen
on one device are flagged as contradictions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if catalogPath != "" {
			cfg.Catalog.Path = catalogPath
			cfg.Catalog.DatabaseURL = ""
		}

		// logging.level from the config file applies to the server only.
		logger, err = logging.New(logLevel, true)
		if err != nil {
			return err
		}

		if noColor || !isTerminal(cmd.OutOrStdout()) {
			color.NoColor = true
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "c", "", "Catalog file (YAML or JSON); overrides config and DATABASE_URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(symptomsCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(versionCmd)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
