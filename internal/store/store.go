// Package store persists fetched ACS records so repeated loads of the same
// geography replace earlier rows instead of duplicating them.
package store

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/acs-cli/internal/config"
	"github.com/sells-group/acs-cli/pkg/acs"
)

// Batch identifies one load. Every record saved with a batch carries its ID.
type Batch struct {
	ID        string    `json:"id"`
	Year      string    `json:"year"`
	Dataset   string    `json:"dataset"`
	Geography string    `json:"geography"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// NewBatch starts a batch for records of one year, dataset and geography type.
func NewBatch(year, dataset, geography string) Batch {
	return Batch{
		ID:        uuid.New().String(),
		Year:      year,
		Dataset:   dataset,
		Geography: geography,
		LoadedAt:  time.Now().UTC(),
	}
}

// StoredRecord is a record as persisted, with its key columns.
type StoredRecord struct {
	Year      string     `json:"year"`
	Dataset   string     `json:"dataset"`
	Geography string     `json:"geography"`
	GeoID     string     `json:"geo_id"`
	Name      string     `json:"name"`
	BatchID   string     `json:"batch_id"`
	LoadedAt  time.Time  `json:"loaded_at"`
	Data      acs.Record `json:"data"`
}

// RecordFilter narrows ListRecords. Empty fields match everything.
type RecordFilter struct {
	Year      string
	Dataset   string
	Geography string
	Limit     int
}

func (f RecordFilter) limit() int {
	if f.Limit <= 0 {
		return 1000
	}
	return f.Limit
}

// Store is a sink for normalized records keyed by year, dataset, geography
// type and geo id.
type Store interface {
	SaveRecords(ctx context.Context, batch Batch, records []acs.Record) (int64, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]StoredRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the Store configured by cfg. The caller owns Close.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, cfg.Table)
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL, cfg.Table)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateTable(table string) error {
	if !tableNamePattern.MatchString(table) {
		return eris.Errorf("store: invalid table name %q", table)
	}
	return nil
}

// recordRow is the column form shared by both sinks.
type recordRow struct {
	geoID string
	name  string
	data  []byte
}

// toRows keys each record by its geography identifier and encodes the whole
// record as JSON.
func toRows(records []acs.Record) ([]recordRow, error) {
	rows := make([]recordRow, 0, len(records))
	for i, rec := range records {
		geoID := acs.GeoID(rec)
		if geoID == "" {
			return nil, eris.Errorf("store: record %d has no geography identifier", i)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, eris.Wrapf(err, "store: marshal record %s", geoID)
		}
		rows = append(rows, recordRow{
			geoID: geoID,
			name:  rec.String(acs.FieldGeographyName),
			data:  data,
		})
	}
	return rows, nil
}

func decodeData(raw []byte) (acs.Record, error) {
	var rec acs.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal record data")
	}
	return rec, nil
}
