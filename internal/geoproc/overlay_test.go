package geoproc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
)

func TestWeightedOverlay_SelectsLayer(t *testing.T) {
	ref := profileAt(0, 20, 10, 2, 2)
	a := []float32{1, 2, 3, 4}
	b := []float32{9, 9, 9, 9}
	c := []float32{5, 5, 5, 5}

	res, err := WeightedOverlay([][]float32{a, b, c}, []float64{1, 0, 0}, ref)
	require.NoError(t, err)
	assert.Equal(t, a, res.Data)
	assert.Equal(t, ref, res.Profile)
}

func TestWeightedOverlay_Linear(t *testing.T) {
	ref := profileAt(0, 20, 10, 2, 1)
	a := []float32{1, 3}
	b := []float32{2, 5}

	ab, err := WeightedOverlay([][]float32{a, b}, []float64{0.25, 0.75}, ref)
	require.NoError(t, err)
	onlyA, err := WeightedOverlay([][]float32{a}, []float64{0.25}, ref)
	require.NoError(t, err)
	onlyB, err := WeightedOverlay([][]float32{b}, []float64{0.75}, ref)
	require.NoError(t, err)

	for i := range ab.Data {
		assert.InDelta(t, onlyA.Data[i]+onlyB.Data[i], ab.Data[i], 1e-6)
	}
}

func TestWeightedOverlay_ScalesWithWeights(t *testing.T) {
	ref := profileAt(0, 20, 10, 3, 1)
	arrays := [][]float32{{1, 3, 0.5}, {2, 5, 0.25}, {0, 1, 4}}
	weights := []float64{0.2, 0.3, 0.5}

	base, err := WeightedOverlay(arrays, weights, ref)
	require.NoError(t, err)

	for _, k := range []float64{0, 0.5, 2, 10} {
		scaled := make([]float64, len(weights))
		for i, w := range weights {
			scaled[i] = w * k
		}
		res, err := WeightedOverlay(arrays, scaled, ref)
		require.NoError(t, err)
		for i := range res.Data {
			assert.InDelta(t, float64(base.Data[i])*k, res.Data[i], 1e-5, "k=%g pixel %d", k, i)
		}
	}
}

func TestWeightedOverlay_PermutationInvariant(t *testing.T) {
	ref := profileAt(0, 20, 10, 3, 1)
	a := []float32{1, 3, 0.5}
	b := []float32{2, 5, 0.25}
	c := []float32{0, 1, 4}

	want, err := WeightedOverlay([][]float32{a, b, c}, []float64{0.2, 0.3, 0.5}, ref)
	require.NoError(t, err)

	perms := []struct {
		arrays  [][]float32
		weights []float64
	}{
		{[][]float32{c, b, a}, []float64{0.5, 0.3, 0.2}},
		{[][]float32{b, c, a}, []float64{0.3, 0.5, 0.2}},
		{[][]float32{a, c, b}, []float64{0.2, 0.5, 0.3}},
	}
	for _, p := range perms {
		got, err := WeightedOverlay(p.arrays, p.weights, ref)
		require.NoError(t, err)
		for i := range got.Data {
			assert.InDelta(t, want.Data[i], got.Data[i], 1e-6, "pixel %d", i)
		}
	}
}

func TestWeightedOverlay_WeightsNotNormalised(t *testing.T) {
	ref := profileAt(0, 10, 10, 1, 1)
	res, err := WeightedOverlay([][]float32{{10}, {20}}, []float64{2, 3}, ref)
	require.NoError(t, err)
	assert.Equal(t, float32(80), res.Data[0])
}

func TestWeightedOverlay_NaNBecomesZero(t *testing.T) {
	ref := profileAt(0, 10, 10, 2, 1)
	res, err := WeightedOverlay([][]float32{{float32(math.NaN()), 1}}, []float64{1}, ref)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, res.Data)
}

func TestWeightedOverlay_ClampsOverflow(t *testing.T) {
	ref := profileAt(0, 10, 10, 1, 1)
	res, err := WeightedOverlay([][]float32{{math.MaxFloat32}}, []float64{10}, ref)
	require.NoError(t, err)
	assert.Equal(t, float32(math.MaxFloat32), res.Data[0])
}

func TestWeightedOverlay_Validation(t *testing.T) {
	ref := profileAt(0, 20, 10, 2, 1)
	layer := []float32{1, 2}

	tests := []struct {
		name    string
		arrays  [][]float32
		weights []float64
	}{
		{"no layers", nil, nil},
		{"weight count", [][]float32{layer, layer}, []float64{1}},
		{"size mismatch", [][]float32{{1, 2, 3}}, []float64{1}},
		{"negative weight", [][]float32{layer}, []float64{-0.5}},
		{"nan weight", [][]float32{layer}, []float64{math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WeightedOverlay(tt.arrays, tt.weights, ref)
			require.Error(t, err)
			assert.True(t, failure.Is(err, failure.KindValidation))
		})
	}
}

func TestOverlayResult_Raster(t *testing.T) {
	ref := profileAt(0, 10, 10, 1, 1)
	res, err := WeightedOverlay([][]float32{{4}}, []float64{0.5}, ref)
	require.NoError(t, err)
	r := res.Raster()
	assert.Equal(t, float32(2), r.Data[0])
	assert.Equal(t, 1, r.Width)
}
