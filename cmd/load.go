package main

import (
	"fmt"
	"maps"
	"os/signal"
	"slices"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/acs-cli/internal/store"
	"github.com/sells-group/acs-cli/pkg/acs"
)

var loadCmd = &cobra.Command{
	Use:   "load <geography>",
	Short: "Fetch ACS data and upsert it into the configured store",
	Long: `Fetches a geography like "fetch" and saves every record to the store
configured under "store" (SQLite by default). Records are keyed by year,
dataset, geography and GEOID, so reloading replaces earlier rows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("load"); err != nil {
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

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		res, err := client.GetData(ctx, q)
		if err != nil {
			return eris.Wrap(err, "load: fetch")
		}

		batch := store.NewBatch(client.Year(), client.Dataset(), q.GeographyType)
		n, err := st.SaveRecords(ctx, batch, res.Records())
		if err != nil {
			return eris.Wrap(err, "load: save records")
		}

		zap.L().Info("load complete",
			zap.String("batch_id", batch.ID),
			zap.String("geography", q.GeographyType),
			zap.Int("fetched", res.Len()),
			zap.Int64("saved", n),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d records (batch %s)\n", n, batch.ID)
		return nil
	},
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List records saved by load",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("load"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		geography, _ := cmd.Flags().GetString("geography")
		limit, _ := cmd.Flags().GetInt("limit")
		stored, err := st.ListRecords(ctx, store.RecordFilter{
			Year:      cfg.ACS.Year,
			Dataset:   cfg.ACS.Dataset,
			Geography: acs.ResolveGeography(geography),
			Limit:     limit,
		})
		if err != nil {
			return eris.Wrap(err, "records")
		}
		return writeResult(cmd, storedResult(stored))
	},
}

// storedResult flattens stored records into a result with the key columns
// first, followed by the data fields in first-seen order.
func storedResult(stored []store.StoredRecord) *acs.Result {
	cols := []string{"geo_id", "geography", "batch_id"}
	seen := map[string]bool{"geo_id": true, "geography": true, "batch_id": true}
	records := make([]acs.Record, len(stored))
	for i, s := range stored {
		rec := acs.Record{"geo_id": s.GeoID, "geography": s.Geography, "batch_id": s.BatchID}
		for _, col := range slices.Sorted(maps.Keys(s.Data)) {
			rec[col] = s.Data[col]
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
		records[i] = rec
	}
	return acs.NewResult(cols, records)
}

func init() {
	addGeographyFlags(loadCmd)
	recordsCmd.Flags().String("geography", "", "only records of this geography type")
	recordsCmd.Flags().Int("limit", 100, "maximum records to list")
	rootCmd.AddCommand(loadCmd, recordsCmd)
}
