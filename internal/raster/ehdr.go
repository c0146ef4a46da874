package raster

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// EHdr reads and writes Esri float grids: raw float32 pixels (.flt or .bil)
// described by a .hdr file, with a .prj sidecar for the CRS.
type EHdr struct{}

// Name implements Driver.
func (EHdr) Name() string { return "EHdr" }

// Extensions implements Driver.
func (EHdr) Extensions() []string { return []string{".flt", ".bil"} }

type ehdrHeader struct {
	ncols, nrows, nbands int
	ulx, uly             float64
	xdim, ydim           float64
	order                binary.ByteOrder
	nodata               *float64
}

func hdrPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".hdr"
}

func readEHdrHeader(path string) (ehdrHeader, error) {
	h := ehdrHeader{nbands: 1, order: binary.LittleEndian}
	f, err := os.Open(hdrPath(path))
	if err != nil {
		return h, eris.Wrapf(err, "ehdr: open %s", hdrPath(path))
	}
	defer func() { _ = f.Close() }()

	var corner struct {
		set      bool
		xll, yll float64
	}
	seen := map[string]bool{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		key, val := strings.ToLower(fields[0]), fields[1]
		seen[key] = true
		switch key {
		case "byteorder":
			if strings.HasPrefix(strings.ToUpper(val), "M") {
				h.order = binary.BigEndian
			}
			continue
		case "pixeltype":
			if !strings.EqualFold(val, "float") {
				return h, eris.Errorf("ehdr: %s: unsupported pixeltype %s", path, val)
			}
			continue
		case "layout":
			if !strings.EqualFold(val, "bil") {
				return h, eris.Errorf("ehdr: %s: unsupported layout %s", path, val)
			}
			continue
		}

		v, perr := strconv.ParseFloat(val, 64)
		if perr != nil {
			return h, eris.Wrapf(perr, "ehdr: %s: header %s", path, key)
		}
		switch key {
		case "ncols":
			h.ncols = int(v)
		case "nrows":
			h.nrows = int(v)
		case "nbands":
			h.nbands = int(v)
		case "nbits":
			if v != 32 {
				return h, eris.Errorf("ehdr: %s: unsupported nbits %g", path, v)
			}
		case "ulxmap":
			h.ulx = v
		case "ulymap":
			h.uly = v
		case "xllcorner":
			corner.set, corner.xll = true, v
		case "yllcorner":
			corner.set, corner.yll = true, v
		case "cellsize":
			h.xdim, h.ydim = v, v
		case "xdim":
			h.xdim = v
		case "ydim":
			h.ydim = v
		case "nodata", "nodata_value":
			nd := v
			h.nodata = &nd
		}
	}
	if err := sc.Err(); err != nil {
		return h, eris.Wrapf(err, "ehdr: read %s", hdrPath(path))
	}

	if !seen["ncols"] || !seen["nrows"] {
		return h, eris.Errorf("ehdr: %s: header missing ncols/nrows", path)
	}
	if h.xdim <= 0 || h.ydim <= 0 {
		return h, eris.Errorf("ehdr: %s: header missing pixel size", path)
	}
	if h.nbands < 1 {
		return h, eris.Errorf("ehdr: %s: invalid nbands %d", path, h.nbands)
	}
	if corner.set {
		// Esri .flt headers give the lower-left corner instead of the
		// upper-left pixel centre.
		h.ulx = corner.xll + h.xdim/2
		h.uly = corner.yll + float64(h.nrows)*h.ydim - h.ydim/2
	}
	return h, nil
}

func (h ehdrHeader) profile(path string) (Profile, error) {
	c, err := ReadPrj(path)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{
		CRS:       c,
		Transform: NorthUp(h.ulx-h.xdim/2, h.uly+h.ydim/2, h.xdim, h.ydim),
		Width:     h.ncols,
		Height:    h.nrows,
		BandCount: h.nbands,
		DataType:  DataTypeFloat32,
		NoData:    h.nodata,
	}
	if err := p.Validate(); err != nil {
		return Profile{}, eris.Wrapf(err, "ehdr: %s", path)
	}
	return p, nil
}

// ReadProfile implements Driver.
func (EHdr) ReadProfile(path string) (Profile, error) {
	h, err := readEHdrHeader(path)
	if err != nil {
		return Profile{}, err
	}
	return h.profile(path)
}

// Read implements Driver. Multi-band files are band-interleaved by line;
// only band 1 is returned.
func (EHdr) Read(path string) (*Raster, error) {
	h, err := readEHdrHeader(path)
	if err != nil {
		return nil, err
	}
	p, err := h.profile(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ehdr: open %s", path)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, eris.Wrapf(err, "ehdr: stat %s", path)
	}
	want := int64(h.ncols) * int64(h.nrows) * int64(h.nbands) * 4
	if st.Size() < want {
		return nil, eris.Errorf("ehdr: %s is %d bytes, want %d", path, st.Size(), want)
	}

	r := New(p)
	rowBytes := make([]byte, h.ncols*4)
	br := bufio.NewReader(f)
	for row := 0; row < h.nrows; row++ {
		for band := 0; band < h.nbands; band++ {
			if _, err := io.ReadFull(br, rowBytes); err != nil {
				return nil, eris.Wrapf(err, "ehdr: read %s row %d", path, row)
			}
			if band != 0 {
				continue
			}
			for col := 0; col < h.ncols; col++ {
				bits := h.order.Uint32(rowBytes[col*4:])
				r.Data[row*h.ncols+col] = math.Float32frombits(bits)
			}
		}
	}
	return r, nil
}

// Write implements Driver. Always writes one little-endian float32 band.
func (EHdr) Write(path string, r *Raster) error {
	if !r.Transform.IsNorthUp() {
		return eris.Errorf("ehdr: %s: rotated rasters are not supported", path)
	}
	xdim, ydim := r.Transform[1], -r.Transform[5]

	var hdr strings.Builder
	fmt.Fprintf(&hdr, "BYTEORDER I\nLAYOUT BIL\nNROWS %d\nNCOLS %d\nNBANDS 1\nNBITS 32\nPIXELTYPE FLOAT\n", r.Height, r.Width)
	fmt.Fprintf(&hdr, "ULXMAP %s\nULYMAP %s\n", formatFloat(r.Transform[0]+xdim/2), formatFloat(r.Transform[3]-ydim/2))
	fmt.Fprintf(&hdr, "XDIM %s\nYDIM %s\n", formatFloat(xdim), formatFloat(ydim))
	if r.NoData != nil {
		fmt.Fprintf(&hdr, "NODATA %s\n", formatFloat(*r.NoData))
	}
	if err := os.WriteFile(hdrPath(path), []byte(hdr.String()), 0o644); err != nil {
		return eris.Wrapf(err, "ehdr: write %s", hdrPath(path))
	}

	buf := make([]byte, len(r.Data)*4)
	for i, v := range r.Data {
		if r.NoData != nil && ((r.Valid != nil && !r.Valid[i]) || math.IsNaN(float64(v))) {
			v = float32(*r.NoData)
		}
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return eris.Wrapf(err, "ehdr: write %s", path)
	}
	return WritePrj(path, r.CRS)
}
