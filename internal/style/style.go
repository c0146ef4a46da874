// Package style classifies a finished raster into equal-interval classes,
// colours them from a named ramp and renders the result as an SLD document.
package style

import (
	"math"

	"go.uber.org/zap"

	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

// DefaultClasses is the class count used when none is given.
const DefaultClasses = 5

// DefaultLabels is the five-step vocabulary used when the caller supplies
// none, or one whose length does not match the class count.
var DefaultLabels = []string{"very low", "low", "moderate", "high", "very high"}

// Scheme pairs class breaks with colours and labels. All three slices have
// the same length.
type Scheme struct {
	Breaks []float64
	Colors []string
	Labels []string
}

// Len is the number of classes.
func (s *Scheme) Len() int {
	return len(s.Breaks)
}

// Classify returns classes equally spaced breaks from the minimum to the
// maximum of values. NaN values are ignored. When every value is equal the
// breaks all take that value.
func Classify(values []float32, classes int) ([]float64, error) {
	const op = "style: classify"
	if classes < 1 {
		return nil, failure.Validationf(op, "class count must be at least 1, got %d", classes)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	if math.IsInf(lo, 1) {
		return nil, failure.Validationf(op, "raster contains no valid data")
	}

	breaks := make([]float64, classes)
	if lo == hi || classes == 1 {
		for i := range breaks {
			breaks[i] = lo
		}
		return breaks, nil
	}
	step := (hi - lo) / float64(classes-1)
	for i := range breaks {
		breaks[i] = lo + float64(i)*step
	}
	breaks[classes-1] = hi
	return breaks, nil
}

// Labels returns one label per class. vocab is used as-is when its length
// equals classes; otherwise DefaultLabels is spread proportionally over the
// class indices.
func Labels(classes int, vocab []string) []string {
	if classes <= 0 {
		return nil
	}
	if len(vocab) == classes {
		return append([]string(nil), vocab...)
	}
	out := make([]string, classes)
	last := len(DefaultLabels) - 1
	for i := range out {
		idx := 0
		if classes > 1 {
			idx = int(math.Round(float64(i) * float64(last) / float64(classes-1)))
		}
		out[i] = DefaultLabels[idx]
	}
	return out
}

// Build classifies the valid pixels of r and attaches colours and labels.
// An empty ramp name means blue_to_red; an unknown one falls back to it with
// a warning.
func Build(r *raster.Raster, classes int, ramp string, vocab []string) (*Scheme, error) {
	breaks, err := Classify(r.ValidValues(), classes)
	if err != nil {
		return nil, err
	}
	if name, ok := ResolveRamp(ramp); !ok && ramp != "" {
		zap.L().Warn("style: unknown colour ramp",
			zap.String("ramp", ramp),
			zap.String("using", name),
			zap.Strings("supported", Ramps()),
		)
	}
	return &Scheme{
		Breaks: breaks,
		Colors: Colors(classes, ramp),
		Labels: Labels(classes, vocab),
	}, nil
}
