package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/acs-cli/pkg/acs"
)

var variablesCmd = &cobra.Command{
	Use:   "variables",
	Short: "List the variable catalog and geography aliases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeResult(cmd, catalogResult())
	},
}

// catalogResult presents the variable catalog as a result so it renders in
// every output format.
func catalogResult() *acs.Result {
	vars := acs.Catalog()
	records := make([]acs.Record, len(vars))
	for i, v := range vars {
		records[i] = acs.Record{"code": v.Code, "field": v.Field}
	}
	return acs.NewResult([]string{"code", "field"}, records)
}

func init() {
	rootCmd.AddCommand(variablesCmd)
}
