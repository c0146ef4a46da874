package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/boundary"
	"github.com/iitbhu2k25/Dss-muskan/internal/catalog"
	"github.com/iitbhu2k25/Dss-muskan/internal/db"
	"github.com/iitbhu2k25/Dss-muskan/internal/fetcher"
	"github.com/iitbhu2k25/Dss-muskan/internal/pipeline"
	"github.com/iitbhu2k25/Dss-muskan/internal/resilience"
	"github.com/iitbhu2k25/Dss-muskan/pkg/geoserver"
)

// pipelineEnv holds the collaborators built for the priority, classify and
// batch commands.
type pipelineEnv struct {
	Catalog    catalog.Catalog // may be nil
	Boundaries *boundary.AdminSource
	Pipeline   *pipeline.Pipeline
	boundsPool db.Pool
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Catalog != nil {
		_ = pe.Catalog.Close()
	}
	if pe.boundsPool != nil {
		pe.boundsPool.Close()
	}
}

// initPipeline validates the configuration for mode and wires the catalog,
// boundary database, fetchers and GeoServer client into a Pipeline.
// Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	env := &pipelineEnv{}

	var resolver pipeline.Resolver
	if mode != "classify" {
		cat, err := initCatalog(ctx)
		if err != nil {
			return nil, err
		}
		env.Catalog = cat
		resolver = &catalog.Resolver{Catalog: cat, BaseDir: cfg.Catalog.BaseDir}
	}

	var bounds pipeline.BoundarySource
	if cfg.Boundary.DatabaseURL != "" && mode != "classify" {
		src, pool, err := initBoundaries(ctx)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Boundaries, env.boundsPool = src, pool
		bounds = src
	} else {
		zap.L().Debug("boundary.database_url not set, administrative boundaries disabled")
	}

	env.Pipeline = pipeline.New(cfg, resolver, bounds, initGeoServer(), initFetcher())
	return env, nil
}

func initCatalog(ctx context.Context) (catalog.Catalog, error) {
	cat, err := catalog.Open(ctx, catalog.Options{
		Driver: cfg.Catalog.Driver,
		DSN:    cfg.Catalog.DatabaseURL,
		Pool:   cfg.Catalog.Pool,
	})
	if err != nil {
		return nil, err
	}
	if err := cat.Migrate(ctx); err != nil {
		_ = cat.Close()
		return nil, eris.Wrap(err, "migrate catalog")
	}
	return cat, nil
}

func initBoundaries(ctx context.Context) (*boundary.AdminSource, db.Pool, error) {
	pool, err := db.Connect(ctx, cfg.Boundary.DatabaseURL, cfg.Boundary.Pool)
	if err != nil {
		return nil, nil, eris.Wrap(err, "connect boundary database")
	}
	return boundary.NewAdminSource(pool, cfg.Boundary.Schema), pool, nil
}

func initGeoServer() geoserver.Client {
	gs := cfg.GeoServer
	retry := resilience.FromConfig(gs.MaxAttempts, gs.InitialBackoffMS, gs.MaxBackoffMS, gs.Multiplier, -1)
	return geoserver.NewClient(gs.URL, gs.Username, gs.Password,
		geoserver.WithRetry(retry),
		geoserver.WithFormat(gs.Format),
		geoserver.WithTimeout(time.Duration(gs.TimeoutSecs)*time.Second),
	)
}

func initFetcher() *fetcher.Materializer {
	f := cfg.Fetch
	retry := resilience.FromConfig(f.MaxAttempts, 0, 0, 0, -1)
	return fetcher.NewMaterializer(
		fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:         f.UserAgent,
			Timeout:           time.Duration(f.TimeoutSecs) * time.Second,
			RequestsPerSecond: f.RequestsPerSecond,
			Retry:             retry,
		}),
		fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(f.FTPTimeoutSecs) * time.Second,
			Retry:   retry,
		}),
	)
}
