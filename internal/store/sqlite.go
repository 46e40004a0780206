package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/acs-cli/pkg/acs"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn, table string) (*SQLiteStore, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, table: table}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	year      TEXT NOT NULL,
	dataset   TEXT NOT NULL,
	geography TEXT NOT NULL,
	geo_id    TEXT NOT NULL,
	name      TEXT NOT NULL DEFAULT '',
	data      TEXT NOT NULL,
	batch_id  TEXT NOT NULL,
	loaded_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (year, dataset, geography, geo_id)
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_batch_id ON %[1]s(batch_id);
`, s.table))
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRecords upserts records under batch in a single transaction.
func (s *SQLiteStore) SaveRecords(ctx context.Context, batch Batch, records []acs.Record) (int64, error) {
	rows, err := toRows(records)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
INSERT INTO %s (year, dataset, geography, geo_id, name, data, batch_id, loaded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (year, dataset, geography, geo_id) DO UPDATE SET
	name = excluded.name,
	data = excluded.data,
	batch_id = excluded.batch_id,
	loaded_at = excluded.loaded_at`, s.table))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, r := range rows {
		res, err := stmt.ExecContext(ctx,
			batch.Year, batch.Dataset, batch.Geography, r.geoID, r.name, string(r.data), batch.ID, batch.LoadedAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert record %s", r.geoID)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}

	zap.L().Info("sqlite: saved records",
		zap.String("batch_id", batch.ID),
		zap.String("table", s.table),
		zap.Int64("rows", n),
	)
	return n, nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]StoredRecord, error) {
	query := fmt.Sprintf(
		`SELECT year, dataset, geography, geo_id, name, data, batch_id, loaded_at FROM %s WHERE 1=1`,
		s.table,
	)
	var args []any
	if filter.Year != "" {
		query += ` AND year = ?`
		args = append(args, filter.Year)
	}
	if filter.Dataset != "" {
		query += ` AND dataset = ?`
		args = append(args, filter.Dataset)
	}
	if filter.Geography != "" {
		query += ` AND geography = ?`
		args = append(args, filter.Geography)
	}
	query += ` ORDER BY geo_id LIMIT ?`
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close() //nolint:errcheck

	var out []StoredRecord
	for rows.Next() {
		var (
			r   StoredRecord
			raw string
		)
		if err := rows.Scan(&r.Year, &r.Dataset, &r.Geography, &r.GeoID, &r.Name, &raw, &r.BatchID, &r.LoadedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		if r.Data, err = decodeData([]byte(raw)); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}
