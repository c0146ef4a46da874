package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteCatalog implements Catalog using modernc.org/sqlite.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteCatalog, error) {
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
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteCatalog{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS stp_raster (
	layer_name TEXT PRIMARY KEY,
	file_name  TEXT NOT NULL,
	file_path  TEXT NOT NULL,
	weight     REAL NOT NULL DEFAULT 0,
	category   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_stp_raster_category ON stp_raster(category);
`

const sqliteUpsert = `INSERT INTO stp_raster (layer_name, file_name, file_path, weight, category)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (layer_name) DO UPDATE SET
	file_name = excluded.file_name,
	file_path = excluded.file_path,
	weight = excluded.weight,
	category = excluded.category`

func (c *SQLiteCatalog) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

func (c *SQLiteCatalog) Get(ctx context.Context, layerName string) (*Entry, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT layer_name, file_name, file_path, weight, category FROM stp_raster WHERE layer_name = ?`,
		layerName,
	)
	var e Entry
	err := row.Scan(&e.LayerName, &e.FileName, &e.FilePath, &e.Weight, &e.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get %s", layerName)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get %s", layerName)
	}
	return &e, nil
}

func (c *SQLiteCatalog) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `SELECT layer_name, file_name, file_path, weight, category FROM stp_raster WHERE 1=1`
	var args []any
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY layer_name`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rasters")
	}
	defer rows.Close() //nolint:errcheck

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.LayerName, &e.FileName, &e.FilePath, &e.Weight, &e.Category); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan raster")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list rasters iterate")
}

func (c *SQLiteCatalog) Put(ctx context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, sqliteUpsert, e.LayerName, e.FileName, e.FilePath, e.Weight, e.Category)
	return eris.Wrapf(err, "sqlite: put %s", e.LayerName)
}

// Import upserts entries in a single transaction.
func (c *SQLiteCatalog) Import(ctx context.Context, entries []Entry) (int64, error) {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: import: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: import: prepare")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.LayerName, e.FileName, e.FilePath, e.Weight, e.Category); err != nil {
			return 0, eris.Wrapf(err, "sqlite: import %s", e.LayerName)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: import: commit tx")
	}
	return n, nil
}
