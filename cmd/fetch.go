package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/acs-cli/pkg/acs"
)

// Geography selection flags shared by fetch and load.
var (
	flagState string
	flagGeo   []string
	flagIn    []string
)

func addGeographyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagState, "state", "s", "", "state FIPS code, e.g. 09 or 9 (required)")
	cmd.Flags().StringSliceVar(&flagGeo, "geo", nil, "geography ids to fetch (default: all)")
	cmd.Flags().StringSliceVar(&flagIn, "in", nil, "extra containment as key:value, repeatable")
}

// queryFromFlags builds a Query for geoType from the shared geography flags.
func queryFromFlags(geoType string) (acs.Query, error) {
	state, err := parseState(flagState)
	if err != nil {
		return acs.Query{}, err
	}
	containments, err := parseContainments(flagIn)
	if err != nil {
		return acs.Query{}, err
	}
	return acs.Query{
		State:         state,
		GeographyType: acs.ResolveGeography(geoType),
		Geography:     splitIDs(flagGeo),
		Containments:  containments,
	}, nil
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <geography>",
	Short: "Fetch ACS data for any geography type",
	Long: `Fetches the configured variables for a geography type within a state.

The geography may be a wire name ("county", "place") or an alias
("census_tract", "zcta", "congressional_district").

Examples:
  acs fetch county --state 09 --geo 001,003
  acs fetch census_tract --state 09 --in county:001 -f csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		q, err := queryFromFlags(args[0])
		if err != nil {
			return err
		}
		client, err := newClient(cfg.ACS)
		if err != nil {
			return err
		}

		res, err := client.GetData(ctx, q)
		if err != nil {
			return eris.Wrap(err, "fetch")
		}
		return writeResult(cmd, res)
	},
}

func init() {
	addGeographyFlags(fetchCmd)
	rootCmd.AddCommand(fetchCmd)
}
