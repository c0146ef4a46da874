package raster

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Scratch is a per-run working directory for intermediate artifacts.
type Scratch struct {
	id   string
	dir  string
	once sync.Once
	err  error
}

// NewScratch creates <base>/run-<uuid>. An empty base uses the OS temp dir.
func NewScratch(base string) (*Scratch, error) {
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, eris.Wrapf(err, "scratch: create base %s", base)
	}
	id := uuid.New().String()
	dir := filepath.Join(base, "run-"+id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "scratch: create %s", dir)
	}
	return &Scratch{id: id, dir: dir}, nil
}

// ID is the run identifier embedded in the directory name.
func (s *Scratch) ID() string { return s.id }

// Dir is the scratch directory.
func (s *Scratch) Dir() string { return s.dir }

// Path returns a unique file path "<stem>_<uuid8><ext>" inside the directory.
func (s *Scratch) Path(stem, ext string) string {
	return filepath.Join(s.dir, stem+"_"+uuid.New().String()[:8]+ext)
}

// Cleanup removes the directory and everything in it. Safe to call more
// than once.
func (s *Scratch) Cleanup() error {
	s.once.Do(func() {
		if err := os.RemoveAll(s.dir); err != nil {
			s.err = eris.Wrapf(err, "scratch: remove %s", s.dir)
		}
	})
	return s.err
}
