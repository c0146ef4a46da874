package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/iitbhu2k25/Dss-muskan/internal/db"
)

const table = "stp_raster"

var columns = []string{"layer_name", "file_name", "file_path", "weight", "category"}

// PostgresCatalog implements Catalog on a pgx pool.
type PostgresCatalog struct {
	pool db.Pool
}

// NewPostgres wraps an open pool.
func NewPostgres(pool db.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

// OpenPostgres connects to dsn and returns a catalog owning the pool.
func OpenPostgres(ctx context.Context, dsn string, poolCfg db.PoolConfig) (*PostgresCatalog, error) {
	pool, err := db.Connect(ctx, dsn, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open catalog")
	}
	return &PostgresCatalog{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS stp_raster (
	layer_name TEXT PRIMARY KEY,
	file_name  TEXT NOT NULL,
	file_path  TEXT NOT NULL,
	weight     DOUBLE PRECISION NOT NULL DEFAULT 0,
	category   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_stp_raster_category ON stp_raster(category);
`

func (c *PostgresCatalog) Migrate(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate catalog")
}

func (c *PostgresCatalog) Close() error {
	c.pool.Close()
	return nil
}

func (c *PostgresCatalog) Get(ctx context.Context, layerName string) (*Entry, error) {
	row := c.pool.QueryRow(ctx,
		`SELECT layer_name, file_name, file_path, weight, category FROM stp_raster WHERE layer_name = $1`,
		layerName,
	)
	var e Entry
	err := row.Scan(&e.LayerName, &e.FileName, &e.FilePath, &e.Weight, &e.Category)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get %s", layerName)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get %s", layerName)
	}
	return &e, nil
}

func (c *PostgresCatalog) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `SELECT layer_name, file_name, file_path, weight, category FROM stp_raster WHERE 1=1`
	var args []any
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += ` AND category = $1`
	}
	query += ` ORDER BY layer_name`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rasters")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.LayerName, &e.FileName, &e.FilePath, &e.Weight, &e.Category); err != nil {
			return nil, eris.Wrap(err, "postgres: scan raster")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list rasters iterate")
}

func (c *PostgresCatalog) Put(ctx context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := c.pool.Exec(ctx,
		`INSERT INTO stp_raster (layer_name, file_name, file_path, weight, category)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (layer_name) DO UPDATE SET
		   file_name = EXCLUDED.file_name,
		   file_path = EXCLUDED.file_path,
		   weight = EXCLUDED.weight,
		   category = EXCLUDED.category`,
		e.LayerName, e.FileName, e.FilePath, e.Weight, e.Category,
	)
	return eris.Wrapf(err, "postgres: put %s", e.LayerName)
}

// Import bulk-loads entries with COPY and merges them on layer_name.
func (c *PostgresCatalog) Import(ctx context.Context, entries []Entry) (int64, error) {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, err
		}
		rows = append(rows, []any{e.LayerName, e.FileName, e.FilePath, e.Weight, e.Category})
	}
	n, err := db.BulkUpsert(ctx, c.pool, db.UpsertConfig{
		Table:        table,
		Columns:      columns,
		ConflictKeys: []string{"layer_name"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import rasters")
	}
	return n, nil
}
