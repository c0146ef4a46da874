package geoproc

import (
	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

// ConstraintMask binarizes a nearest-neighbour aligned constraint layer:
// values ≥ 1 become 1, everything else (NaN included) 0.
func ConstraintMask(aligned []float32) []float32 {
	mask := make([]float32, len(aligned))
	for i, v := range aligned {
		if v >= 1 {
			mask[i] = 1
		}
	}
	return mask
}

// ApplyConstraint multiplies the overlay by the mask. A 0 in the mask vetoes
// the pixel regardless of its score.
func ApplyConstraint(overlay *OverlayResult, mask []float32) (*raster.Raster, error) {
	if len(mask) != len(overlay.Data) {
		return nil, failure.Validationf("geoproc: constraint", "mask has %d pixels, overlay has %d", len(mask), len(overlay.Data))
	}
	out := raster.New(overlay.Profile)
	for i, v := range overlay.Data {
		out.Data[i] = v * mask[i]
	}
	return out, nil
}
