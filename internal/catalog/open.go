package catalog

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/iitbhu2k25/Dss-muskan/internal/db"
)

// Options selects and configures a backend.
type Options struct {
	Driver string // "postgres" or "sqlite"
	DSN    string
	Pool   db.PoolConfig
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Catalog, error) {
	if opts.DSN == "" {
		return nil, eris.New("catalog: no dsn configured")
	}
	switch opts.Driver {
	case "postgres", "postgresql":
		return OpenPostgres(ctx, opts.DSN, opts.Pool)
	case "sqlite", "":
		return NewSQLite(opts.DSN)
	}
	return nil, eris.Errorf("catalog: unknown driver %q", opts.Driver)
}
