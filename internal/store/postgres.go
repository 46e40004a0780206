package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/acs-cli/internal/db"
	"github.com/sells-group/acs-cli/pkg/acs"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool  db.Pool
	table string
}

var recordColumns = []string{"year", "dataset", "geography", "geo_id", "name", "data", "batch_id", "loaded_at"}

var recordKeys = []string{"year", "dataset", "geography", "geo_id"}

// NewPostgres creates a PostgresStore with a connection pool writing to table.
func NewPostgres(ctx context.Context, connString, table string) (*PostgresStore, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

func (s *PostgresStore) migrationSQL() string {
	t := pgx.Identifier{s.table}.Sanitize()
	idx := pgx.Identifier{"idx_" + s.table + "_batch_id"}.Sanitize()
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	year      TEXT NOT NULL,
	dataset   TEXT NOT NULL,
	geography TEXT NOT NULL,
	geo_id    TEXT NOT NULL,
	name      TEXT NOT NULL DEFAULT '',
	data      JSONB NOT NULL,
	batch_id  TEXT NOT NULL,
	loaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (year, dataset, geography, geo_id)
);

CREATE INDEX IF NOT EXISTS %s ON %s(batch_id);
`, t, idx, t)
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, s.migrationSQL())
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveRecords upserts records under batch. A record already stored for the
// same key is replaced.
func (s *PostgresStore) SaveRecords(ctx context.Context, batch Batch, records []acs.Record) (int64, error) {
	rows, err := toRows(records)
	if err != nil {
		return 0, err
	}

	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any{batch.Year, batch.Dataset, batch.Geography, r.geoID, r.name, r.data, batch.ID, batch.LoadedAt}
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        s.table,
		Columns:      recordColumns,
		ConflictKeys: recordKeys,
	}, values)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert records")
	}

	zap.L().Info("postgres: saved records",
		zap.String("batch_id", batch.ID),
		zap.String("table", s.table),
		zap.Int64("rows", n),
	)
	return n, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]StoredRecord, error) {
	query := fmt.Sprintf(
		`SELECT year, dataset, geography, geo_id, name, data, batch_id, loaded_at FROM %s WHERE 1=1`,
		pgx.Identifier{s.table}.Sanitize(),
	)
	var args []any
	addFilter := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		query += fmt.Sprintf(" AND %s = $%d", col, len(args))
	}
	addFilter("year", filter.Year)
	addFilter("dataset", filter.Dataset)
	addFilter("geography", filter.Geography)

	args = append(args, filter.limit())
	query += fmt.Sprintf(" ORDER BY geo_id LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		var (
			r   StoredRecord
			raw []byte
		)
		if err := rows.Scan(&r.Year, &r.Dataset, &r.Geography, &r.GeoID, &r.Name, &raw, &r.BatchID, &r.LoadedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		if r.Data, err = decodeData(raw); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list records iterate")
}
