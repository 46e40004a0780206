package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/acs-cli/pkg/acs"
)

// geographyFetch calls one of the client's convenience operations.
type geographyFetch func(ctx context.Context, c *acs.Client, state string, ids []string) (*acs.Result, error)

type geographyCommand struct {
	use   string
	short string
	args  cobra.PositionalArgs
	fetch geographyFetch
}

// single adapts a one-id operation; a missing id means all.
func single(fn func(c *acs.Client, ctx context.Context, state, id string) (*acs.Result, error)) geographyFetch {
	return func(ctx context.Context, c *acs.Client, state string, ids []string) (*acs.Result, error) {
		id := acs.Wildcard
		if len(ids) > 0 {
			id = ids[0]
		}
		return fn(c, ctx, state, id)
	}
}

var geographyCommands = []geographyCommand{
	{
		use:   "state",
		short: "State-level data",
		args:  cobra.NoArgs,
		fetch: func(ctx context.Context, c *acs.Client, state string, _ []string) (*acs.Result, error) {
			return c.GetState(ctx, state)
		},
	},
	{
		use:   "zcta [zcta...]",
		short: "Zip code tabulation areas in a state",
		fetch: func(ctx context.Context, c *acs.Client, state string, ids []string) (*acs.Result, error) {
			return c.GetZCTA(ctx, state, ids...)
		},
	},
	{
		use:   "districts [district...]",
		short: "Congressional districts in a state",
		fetch: func(ctx context.Context, c *acs.Client, state string, ids []string) (*acs.Result, error) {
			return c.GetCongressionalDistricts(ctx, state, ids...)
		},
	},
	{
		use:   "counties [county...]",
		short: "Counties in a state",
		fetch: func(ctx context.Context, c *acs.Client, state string, ids []string) (*acs.Result, error) {
			return c.GetCounties(ctx, state, ids...)
		},
	},
	{
		use:   "places [place...]",
		short: "Places (cities, towns, CDPs) in a state",
		fetch: func(ctx context.Context, c *acs.Client, state string, ids []string) (*acs.Result, error) {
			return c.GetPlaces(ctx, state, ids...)
		},
	},
	{
		use:   "sldu [district...]",
		short: "State legislative districts, upper chamber",
		fetch: func(ctx context.Context, c *acs.Client, state string, ids []string) (*acs.Result, error) {
			return c.GetStateLegislativeDistrictsUpper(ctx, state, ids...)
		},
	},
	{
		use:   "sldl [district...]",
		short: "State legislative districts, lower chamber",
		fetch: func(ctx context.Context, c *acs.Client, state string, ids []string) (*acs.Result, error) {
			return c.GetStateLegislativeDistrictsLower(ctx, state, ids...)
		},
	},
	{
		use:   "tracts [tract]",
		short: "Census tracts in a state; a 6-digit code or 11-digit GEOID selects one",
		args:  cobra.MaximumNArgs(1),
		fetch: single((*acs.Client).GetCensusTracts),
	},
	{
		use:   "subdivisions [subdivision]",
		short: "County subdivisions in a state; a 5-digit code or 10-digit GEOID selects one",
		args:  cobra.MaximumNArgs(1),
		fetch: single((*acs.Client).GetCountySubdivisions),
	},
}

func (g geographyCommand) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   g.use,
		Short: g.short,
		Args:  g.args,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate("fetch"); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			state, err := parseState(flagState)
			if err != nil {
				return err
			}
			client, err := newClient(cfg.ACS)
			if err != nil {
				return err
			}

			res, err := g.fetch(ctx, client, state, splitIDs(args))
			if err != nil {
				return eris.Wrap(err, cmd.Name())
			}
			return writeResult(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&flagState, "state", "s", "", "state FIPS code, e.g. 09 or 9 (required)")
	return cmd
}

func init() {
	for _, g := range geographyCommands {
		rootCmd.AddCommand(g.command())
	}
}
