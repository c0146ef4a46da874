package raster

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// AAIGrid reads and writes Esri ASCII grids (.asc) with a .prj sidecar.
type AAIGrid struct{}

// Name implements Driver.
func (AAIGrid) Name() string { return "AAIGrid" }

// Extensions implements Driver.
func (AAIGrid) Extensions() []string { return []string{".asc"} }

type ascHeader struct {
	ncols, nrows   int
	xll, yll       float64
	center         bool
	dx, dy         float64
	nodata         *float64
	firstDataLine  string
	headerComplete bool
}

// ReadProfile implements Driver.
func (d AAIGrid) ReadProfile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, eris.Wrapf(err, "aaigrid: open %s", path)
	}
	defer func() { _ = f.Close() }()

	h, _, err := readASCHeader(bufio.NewReader(f))
	if err != nil {
		return Profile{}, eris.Wrapf(err, "aaigrid: %s", path)
	}
	return d.profile(path, h)
}

// Read implements Driver.
func (d AAIGrid) Read(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "aaigrid: open %s", path)
	}
	defer func() { _ = f.Close() }()

	h, br, err := readASCHeader(bufio.NewReader(f))
	if err != nil {
		return nil, eris.Wrapf(err, "aaigrid: %s", path)
	}
	p, err := d.profile(path, h)
	if err != nil {
		return nil, err
	}

	r := New(p)
	n := 0
	consume := func(line string) error {
		for _, tok := range strings.Fields(line) {
			if n >= len(r.Data) {
				return eris.Errorf("more than %d values", len(r.Data))
			}
			v, err := strconv.ParseFloat(tok, 32)
			if err != nil {
				return eris.Wrapf(err, "value %d", n)
			}
			r.Data[n] = float32(v)
			n++
		}
		return nil
	}

	if err := consume(h.firstDataLine); err != nil {
		return nil, eris.Wrapf(err, "aaigrid: %s", path)
	}
	for {
		line, readErr := br.ReadString('\n')
		if err := consume(line); err != nil {
			return nil, eris.Wrapf(err, "aaigrid: %s", path)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, eris.Wrapf(readErr, "aaigrid: read %s", path)
		}
	}
	if n != len(r.Data) {
		return nil, eris.Errorf("aaigrid: %s has %d values, want %d", path, n, len(r.Data))
	}
	return r, nil
}

func (AAIGrid) profile(path string, h ascHeader) (Profile, error) {
	c, err := ReadPrj(path)
	if err != nil {
		return Profile{}, err
	}
	xll, yll := h.xll, h.yll
	if h.center {
		xll -= h.dx / 2
		yll -= h.dy / 2
	}
	p := Profile{
		CRS:       c,
		Transform: NorthUp(xll, yll+float64(h.nrows)*h.dy, h.dx, h.dy),
		Width:     h.ncols,
		Height:    h.nrows,
		BandCount: 1,
		DataType:  DataTypeFloat32,
		NoData:    h.nodata,
	}
	if err := p.Validate(); err != nil {
		return Profile{}, eris.Wrapf(err, "aaigrid: %s", path)
	}
	return p, nil
}

// readASCHeader parses "key value" lines until the first numeric line,
// which is returned in firstDataLine.
func readASCHeader(br *bufio.Reader) (ascHeader, *bufio.Reader, error) {
	var h ascHeader
	seen := map[string]bool{}
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return h, br, eris.Wrap(err, "read header")
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			if err == io.EOF {
				break
			}
			continue
		}
		if _, numErr := strconv.ParseFloat(fields[0], 64); numErr == nil {
			h.firstDataLine = line
			h.headerComplete = true
			break
		}
		if len(fields) < 2 {
			return h, br, eris.Errorf("malformed header line %q", strings.TrimSpace(line))
		}
		key := strings.ToLower(fields[0])
		v, perr := strconv.ParseFloat(fields[1], 64)
		if perr != nil {
			return h, br, eris.Wrapf(perr, "header %s", key)
		}
		seen[key] = true
		switch key {
		case "ncols":
			h.ncols = int(v)
		case "nrows":
			h.nrows = int(v)
		case "xllcorner":
			h.xll = v
		case "yllcorner":
			h.yll = v
		case "xllcenter":
			h.xll, h.center = v, true
		case "yllcenter":
			h.yll, h.center = v, true
		case "cellsize":
			h.dx, h.dy = v, v
		case "dx":
			h.dx = v
		case "dy":
			h.dy = v
		case "nodata_value":
			nd := v
			h.nodata = &nd
		}
		if err == io.EOF {
			break
		}
	}

	for _, k := range []string{"ncols", "nrows"} {
		if !seen[k] {
			return h, br, eris.Errorf("header missing %s", k)
		}
	}
	if h.dx <= 0 || h.dy <= 0 {
		return h, br, eris.New("header missing cellsize")
	}
	if !h.headerComplete && h.ncols*h.nrows > 0 {
		return h, br, eris.New("no pixel values")
	}
	return h, br, nil
}

// Write implements Driver. The raster must be north-up.
func (AAIGrid) Write(path string, r *Raster) error {
	if !r.Transform.IsNorthUp() {
		return eris.Errorf("aaigrid: %s: rotated rasters are not supported", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "aaigrid: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	dx, dy := r.Transform[1], -r.Transform[5]
	fmt.Fprintf(w, "ncols %d\nnrows %d\n", r.Width, r.Height)
	fmt.Fprintf(w, "xllcorner %s\nyllcorner %s\n", formatFloat(r.Transform[0]), formatFloat(r.Transform[3]-float64(r.Height)*dy))
	if dx == dy {
		fmt.Fprintf(w, "cellsize %s\n", formatFloat(dx))
	} else {
		fmt.Fprintf(w, "dx %s\ndy %s\n", formatFloat(dx), formatFloat(dy))
	}
	if r.NoData != nil {
		fmt.Fprintf(w, "NODATA_value %s\n", formatFloat(*r.NoData))
	}

	for row := 0; row < r.Height; row++ {
		for col := 0; col < r.Width; col++ {
			if col > 0 {
				_ = w.WriteByte(' ')
			}
			i := r.Index(col, row)
			_, _ = w.WriteString(formatPixel(r, i))
		}
		_ = w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		return eris.Wrapf(err, "aaigrid: write %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "aaigrid: close %s", path)
	}
	return WritePrj(path, r.CRS)
}

func formatPixel(r *Raster, i int) string {
	v := r.Data[i]
	if r.NoData != nil && r.Valid != nil && !r.Valid[i] {
		return formatFloat(*r.NoData)
	}
	if math.IsNaN(float64(v)) {
		if r.NoData != nil {
			return formatFloat(*r.NoData)
		}
		return "nan"
	}
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
