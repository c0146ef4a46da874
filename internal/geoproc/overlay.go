package geoproc

import (
	"math"

	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

// OverlayResult is the weighted sum of the aligned layers on the reference
// profile.
type OverlayResult struct {
	Data    []float32
	Profile raster.Profile
}

// Raster wraps the result as a raster.
func (o *OverlayResult) Raster() *raster.Raster {
	return &raster.Raster{Profile: o.Profile, Data: o.Data}
}

// WeightedOverlay computes Σ arrays[i]·weights[i] per pixel. Weights are not
// normalised. NaN sums become 0 and infinities are clamped to ±MaxFloat32.
func WeightedOverlay(arrays [][]float32, weights []float64, ref raster.Profile) (*OverlayResult, error) {
	const op = "geoproc: overlay"
	if len(arrays) == 0 {
		return nil, failure.Validationf(op, "no layers to combine")
	}
	if len(arrays) != len(weights) {
		return nil, failure.Validationf(op, "%d weights for %d layers", len(weights), len(arrays))
	}
	n := ref.Size()
	for i, a := range arrays {
		if len(a) != n {
			return nil, failure.Validationf(op, "layer %d has %d pixels, grid has %d", i, len(a), n)
		}
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, failure.Validationf(op, "weight %d is %g; weights must be finite and non-negative", i, w)
		}
	}

	sum := make([]float64, n)
	for k, a := range arrays {
		w := weights[k]
		for i, v := range a {
			sum[i] += float64(v) * w
		}
	}

	out := make([]float32, n)
	for i, s := range sum {
		out[i] = finite32(s)
	}
	return &OverlayResult{Data: out, Profile: ref}, nil
}

func finite32(v float64) float32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxFloat32:
		return math.MaxFloat32
	case v < -math.MaxFloat32:
		return -math.MaxFloat32
	}
	return float32(v)
}
