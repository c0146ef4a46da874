// Package geoserver provides a client for the GeoServer REST API: workspace
// setup, coverage upload and download, and SLD style management.
package geoserver

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/resilience"
)

// Client defines the GeoServer operations used to publish and style rasters.
type Client interface {
	// EnsureWorkspace creates the workspace when it does not exist.
	EnsureWorkspace(ctx context.Context, workspace string) error
	// UploadCoverage publishes a raster file and its sidecars as a new
	// coverage store and layer named coverage.
	UploadCoverage(ctx context.Context, workspace, store, coverage, rasterPath string) error
	// UploadStyle stores an SLD document under name in the workspace.
	UploadStyle(ctx context.Context, workspace, name string, sld []byte) error
	// ApplyStyle sets the default style of a layer.
	ApplyStyle(ctx context.Context, workspace, layer, style string) error
	// DownloadCoverage fetches a published coverage as an Esri ASCII grid.
	DownloadCoverage(ctx context.Context, workspace, layer, destPath string) error
}

// Option configures the GeoServer client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry sets the retry policy for every request. The default is a
// single attempt.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithFormat sets the coverage store type used for uploads (default
// "arcgrid").
func WithFormat(format string) Option {
	return func(c *httpClient) {
		c.format = format
	}
}

// WithTimeout sets the HTTP client timeout. Zero keeps the default of two
// minutes.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	baseURL  string
	username string
	password string
	format   string
	retry    resilience.RetryConfig
	http     *http.Client
}

// NewClient creates a client for the GeoServer at baseURL, e.g.
// "http://localhost:8080/geoserver".
func NewClient(baseURL, username, password string, opts ...Option) Client {
	c := &httpClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		format:   "arcgrid",
		retry:    resilience.NoRetry(),
		http: &http.Client{
			Timeout: 2 * time.Minute,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("geoserver", "rest request")
	}
	return c
}

type request struct {
	method      string
	path        string
	query       url.Values
	contentType string
	accept      string
	body        func() (io.Reader, error)
}

// do sends req and returns the response body. Statuses outside 2xx are
// errors; 429 and 5xx are marked transient so the retry policy applies.
func (c *httpClient) do(ctx context.Context, req request) ([]byte, int, error) {
	type result struct {
		body   []byte
		status int
	}
	res, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (result, error) {
		u := c.baseURL + req.path
		if len(req.query) > 0 {
			u += "?" + req.query.Encode()
		}

		var body io.Reader
		if req.body != nil {
			b, err := req.body()
			if err != nil {
				return result{}, err
			}
			body = b
		}

		httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
		if err != nil {
			return result{}, eris.Wrap(err, "geoserver: create request")
		}
		httpReq.SetBasicAuth(c.username, c.password)
		if req.contentType != "" {
			httpReq.Header.Set("Content-Type", req.contentType)
		}
		if req.accept != "" {
			httpReq.Header.Set("Accept", req.accept)
		}

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return result{}, resilience.NewTransientError(eris.Wrapf(err, "geoserver: %s %s", req.method, req.path), 0)
		}
		data, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return result{}, eris.Wrap(readErr, "geoserver: read response body")
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return result{body: data, status: resp.StatusCode}, nil
		}

		statusErr := eris.Errorf("geoserver: %s %s: status %d: %s", req.method, req.path, resp.StatusCode, truncate(data))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return result{status: resp.StatusCode}, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return result{status: resp.StatusCode}, &StatusError{Code: resp.StatusCode, err: statusErr}
	})
	return res.body, res.status, err
}

// StatusError is a non-transient HTTP failure.
type StatusError struct {
	Code int
	err  error
}

func (e *StatusError) Error() string { return e.err.Error() }
func (e *StatusError) Unwrap() error { return e.err }

// IsNotFound reports whether err is a 404 from GeoServer.
func IsNotFound(err error) bool {
	var se *StatusError
	return eris.As(err, &se) && se.Code == http.StatusNotFound
}

func truncate(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

func staticBody(b []byte) func() (io.Reader, error) {
	return func() (io.Reader, error) { return bytes.NewReader(b), nil }
}

func (c *httpClient) EnsureWorkspace(ctx context.Context, workspace string) error {
	_, _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/rest/workspaces/" + url.PathEscape(workspace),
		accept: "application/json",
	})
	if err == nil {
		return nil
	}
	if !IsNotFound(err) {
		return eris.Wrapf(err, "geoserver: get workspace %s", workspace)
	}

	payload, err := json.Marshal(map[string]any{"workspace": map[string]string{"name": workspace}})
	if err != nil {
		return eris.Wrap(err, "geoserver: marshal workspace")
	}
	if _, _, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/rest/workspaces",
		contentType: "application/json",
		body:        staticBody(payload),
	}); err != nil {
		return eris.Wrapf(err, "geoserver: create workspace %s", workspace)
	}
	zap.L().Info("geoserver: created workspace", zap.String("workspace", workspace))
	return nil
}

func (c *httpClient) UploadCoverage(ctx context.Context, workspace, store, coverage, rasterPath string) error {
	archive, err := bundle(rasterPath)
	if err != nil {
		return err
	}

	_, _, err = c.do(ctx, request{
		method: http.MethodPut,
		path: fmt.Sprintf("/rest/workspaces/%s/coveragestores/%s/file.%s",
			url.PathEscape(workspace), url.PathEscape(store), c.format),
		query:       url.Values{"configure": {"first"}, "coverageName": {coverage}},
		contentType: "application/zip",
		body:        staticBody(archive),
	})
	if err != nil {
		return eris.Wrapf(err, "geoserver: upload coverage %s", coverage)
	}
	zap.L().Info("geoserver: published coverage",
		zap.String("workspace", workspace),
		zap.String("store", store),
		zap.String("layer", coverage),
	)
	return nil
}

// bundle zips a raster with its sidecar files (same stem, any extension).
func bundle(rasterPath string) ([]byte, error) {
	stem := strings.TrimSuffix(rasterPath, filepath.Ext(rasterPath))
	files, err := filepath.Glob(globEscape(stem) + ".*")
	if err != nil {
		return nil, eris.Wrap(err, "geoserver: list raster files")
	}
	if len(files) == 0 {
		return nil, eris.Errorf("geoserver: raster %s not found", rasterPath)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		if err := addToZip(zw, f); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, eris.Wrap(err, "geoserver: close zip")
	}
	return buf.Bytes(), nil
}

func addToZip(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "geoserver: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return eris.Wrapf(err, "geoserver: zip %s", path)
	}
	if _, err := io.Copy(w, f); err != nil {
		return eris.Wrapf(err, "geoserver: zip %s", path)
	}
	return nil
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}

func (c *httpClient) UploadStyle(ctx context.Context, workspace, name string, sld []byte) error {
	_, _, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/rest/workspaces/%s/styles", url.PathEscape(workspace)),
		query:       url.Values{"name": {name}},
		contentType: "application/vnd.ogc.sld+xml",
		body:        staticBody(sld),
	})
	if err != nil {
		return eris.Wrapf(err, "geoserver: upload style %s", name)
	}
	return nil
}

func (c *httpClient) ApplyStyle(ctx context.Context, workspace, layer, style string) error {
	payload, err := json.Marshal(map[string]any{
		"layer": map[string]any{
			"defaultStyle": map[string]string{"name": style, "workspace": workspace},
		},
	})
	if err != nil {
		return eris.Wrap(err, "geoserver: marshal layer")
	}
	_, _, err = c.do(ctx, request{
		method:      http.MethodPut,
		path:        fmt.Sprintf("/rest/layers/%s:%s", url.PathEscape(workspace), url.PathEscape(layer)),
		contentType: "application/json",
		body:        staticBody(payload),
	})
	if err != nil {
		return eris.Wrapf(err, "geoserver: apply style %s to %s", style, layer)
	}
	zap.L().Info("geoserver: applied style", zap.String("layer", layer), zap.String("style", style))
	return nil
}

func (c *httpClient) DownloadCoverage(ctx context.Context, workspace, layer, destPath string) error {
	body, _, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/%s/wcs", url.PathEscape(workspace)),
		query: url.Values{
			"service":    {"WCS"},
			"version":    {"2.0.1"},
			"request":    {"GetCoverage"},
			"coverageId": {workspace + "__" + layer},
			"format":     {"application/arcgrid"},
		},
	})
	if err != nil {
		return eris.Wrapf(err, "geoserver: download coverage %s", layer)
	}
	if err := os.WriteFile(destPath, body, 0o644); err != nil {
		return eris.Wrapf(err, "geoserver: write %s", destPath)
	}
	return nil
}
