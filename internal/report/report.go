// Package report summarises a classified raster per class and writes the
// summary as an Excel workbook or CSV.
package report

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
	"github.com/iitbhu2k25/Dss-muskan/internal/style"
)

// ClassStat is the pixel tally of one class.
type ClassStat struct {
	Class      int
	Label      string
	Color      string
	UpperBound float64
	Pixels     int
	Share      float64 // fraction of valid pixels, 0..1
	Area       float64 // CRS units squared
}

// Summary is the per-class breakdown of a raster.
type Summary struct {
	Layer       string
	ValidPixels int
	Classes     []ClassStat
}

// Header is the column order used by both writers.
var Header = []string{"class", "label", "color", "upper_bound", "pixels", "share_pct", "area"}

// Summarize assigns each valid pixel to the first class whose break is not
// below it. Values above the last break fall in the last class.
func Summarize(layer string, r *raster.Raster, s *style.Scheme) *Summary {
	n := s.Len()
	sum := &Summary{Layer: layer, Classes: make([]ClassStat, n)}
	for i := range sum.Classes {
		sum.Classes[i] = ClassStat{
			Class:      i + 1,
			Label:      at(s.Labels, i),
			Color:      at(s.Colors, i),
			UpperBound: s.Breaks[i],
		}
	}
	if n == 0 {
		return sum
	}

	for i, v := range r.Data {
		if !r.ValidAt(i) || math.IsNaN(float64(v)) {
			continue
		}
		sum.ValidPixels++
		sum.Classes[classOf(float64(v), s.Breaks)].Pixels++
	}

	pixelArea := r.Transform.PixelArea()
	for i := range sum.Classes {
		c := &sum.Classes[i]
		c.Area = float64(c.Pixels) * pixelArea
		if sum.ValidPixels > 0 {
			c.Share = float64(c.Pixels) / float64(sum.ValidPixels)
		}
	}
	return sum
}

func classOf(v float64, breaks []float64) int {
	for i, b := range breaks {
		if v <= b {
			return i
		}
	}
	return len(breaks) - 1
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func (c ClassStat) record() []string {
	return []string{
		strconv.Itoa(c.Class),
		c.Label,
		c.Color,
		strconv.FormatFloat(c.UpperBound, 'g', -1, 64),
		strconv.Itoa(c.Pixels),
		strconv.FormatFloat(c.Share*100, 'f', 2, 64),
		strconv.FormatFloat(c.Area, 'f', 2, 64),
	}
}

// WriteCSV writes the header and one record per class.
func WriteCSV(w io.Writer, s *Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, c := range s.Classes {
		if err := cw.Write(c.record()); err != nil {
			return eris.Wrap(err, "report: write csv record")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteXLSX writes the summary to a workbook with one "classes" sheet.
func WriteXLSX(path string, s *Summary) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("classes")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}
	for _, c := range s.Classes {
		row := sheet.AddRow()
		row.AddCell().SetInt(c.Class)
		row.AddCell().SetString(c.Label)
		row.AddCell().SetString(c.Color)
		row.AddCell().SetFloat(c.UpperBound)
		row.AddCell().SetInt(c.Pixels)
		row.AddCell().SetFloat(math.Round(c.Share*10000) / 100)
		row.AddCell().SetFloat(c.Area)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

// Write picks the format from the file extension: .xlsx or .csv.
func Write(path string, s *Summary) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return WriteXLSX(path, s)
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "report: create %s", path)
		}
		if err := WriteCSV(f, s); err != nil {
			_ = f.Close()
			return err
		}
		return eris.Wrapf(f.Close(), "report: close %s", path)
	}
	return eris.Errorf("report: unsupported report format %q (want .xlsx or .csv)", filepath.Ext(path))
}
