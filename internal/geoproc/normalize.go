package geoproc

import (
	"math"
	"strings"

	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
)

// Epsilon keeps min-max normalization finite for uniform layers.
const Epsilon = 1e-6

// Normalization selects how aligned layers are scaled before overlay.
type Normalization string

// Normalization modes.
const (
	// NormMinMax clamps negatives to 0 then scales to [0, 1).
	NormMinMax Normalization = "minmax"
	// NormNone passes values through for layers that are already scaled.
	NormNone Normalization = "none"
)

// ParseNormalization accepts "minmax" (default when empty) or "none".
func ParseNormalization(s string) (Normalization, error) {
	switch Normalization(strings.ToLower(strings.TrimSpace(s))) {
	case "", NormMinMax:
		return NormMinMax, nil
	case NormNone:
		return NormNone, nil
	}
	return NormMinMax, failure.Validationf("geoproc: normalization", "unknown normalization %q", s)
}

// Normalize scales a in place and returns it. With NormMinMax, negatives
// become 0 and each value maps to (x-min)/(max-min+Epsilon); min and max
// ignore NaN, and NaN values stay NaN.
func Normalize(a []float32, mode Normalization) []float32 {
	if mode == NormNone {
		return a
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range a {
		if v < 0 {
			a[i] = 0
			v = 0
		}
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	if math.IsInf(lo, 1) {
		// All NaN (or empty).
		return a
	}
	span := hi - lo + Epsilon
	for i, v := range a {
		if math.IsNaN(float64(v)) {
			continue
		}
		a[i] = float32((float64(v) - lo) / span)
	}
	return a
}
