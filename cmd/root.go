package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/acs-cli/internal/config"
)

var cfg *config.Config

// Persistent flags that override config values when set.
var (
	flagYear      string
	flagDataset   string
	flagVariables []string
	flagFormat    string
	flagOut       string
)

var rootCmd = &cobra.Command{
	Use:   "acs",
	Short: "Query the Census American Community Survey API",
	Long:  "Fetches ACS housing and demographic estimates by geography, renames variable codes to readable fields, derives occupancy percentages, and renders, stores, or serves the results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		applyFlagOverrides(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.SilenceUsage = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagYear, "year", "", "survey year (default from config)")
	pf.StringVar(&flagDataset, "dataset", "", "dataset, e.g. acs5 or acs1 (default from config)")
	pf.StringSliceVar(&flagVariables, "variables", nil, "variable codes to request (default: the built-in catalog)")
	pf.StringVarP(&flagFormat, "format", "f", "table", "output format: table, json, csv, yaml, xlsx")
	pf.StringVarP(&flagOut, "out", "o", "", "write output to a file instead of stdout")
}

// applyFlagOverrides copies explicitly set persistent flags onto c.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("year") {
		c.ACS.Year = flagYear
	}
	if flags.Changed("dataset") {
		c.ACS.Dataset = flagDataset
	}
	if flags.Changed("variables") {
		c.ACS.Variables = flagVariables
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
