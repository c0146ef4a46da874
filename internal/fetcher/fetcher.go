// Package fetcher downloads remote raster and boundary inputs (HTTP(S) and
// FTP) into a run's scratch directory and unpacks zipped bundles.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher downloads one URL scheme.
type Fetcher interface {
	// Download returns the body at url. The caller closes it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile writes the body at url to path and returns the byte count.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// IsRemote reports whether ref is an http, https or ftp URL.
func IsRemote(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// Materializer turns input references into local file paths.
type Materializer struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewMaterializer returns a Materializer over the given fetchers.
func NewMaterializer(httpFetcher, ftpFetcher Fetcher) *Materializer {
	return &Materializer{HTTP: httpFetcher, FTP: ftpFetcher}
}

// Materialize returns ref unchanged when it is a local path. Remote refs are
// downloaded into dir, keeping the URL's base name, and the local path is
// returned.
func (m *Materializer) Materialize(ctx context.Context, ref, dir string) (string, error) {
	if !IsRemote(ref) {
		return ref, nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: parse %s", ref)
	}

	var f Fetcher
	switch strings.ToLower(u.Scheme) {
	case "ftp":
		f = m.FTP
	default:
		f = m.HTTP
	}
	if f == nil {
		return "", eris.Errorf("fetcher: no fetcher configured for %s", u.Scheme)
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		name = "download-" + uuid.New().String()[:8]
	}
	dst := filepath.Join(dir, name)
	n, err := f.DownloadToFile(ctx, ref, dst)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: download %s", u.Redacted())
	}
	zap.L().Debug("fetcher: downloaded input",
		zap.String("url", u.Redacted()),
		zap.String("path", dst),
		zap.Int64("bytes", n),
	)
	return dst, nil
}
