package style

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

func TestClassify_Linspace(t *testing.T) {
	breaks, err := Classify([]float32{2, 0, 1, 0.5}, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, breaks)
}

func TestClassify_Uniform(t *testing.T) {
	breaks, err := Classify([]float32{15, 15, 15}, 5)
	require.NoError(t, err)
	assert.Equal(t, []float64{15, 15, 15, 15, 15}, breaks)
}

func TestClassify_SingleClass(t *testing.T) {
	breaks, err := Classify([]float32{1, 9}, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, breaks)
}

func TestClassify_IgnoresNaN(t *testing.T) {
	breaks, err := Classify([]float32{float32(math.NaN()), 4, 8}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 6, 8}, breaks)
}

func TestClassify_Errors(t *testing.T) {
	_, err := Classify(nil, 5)
	assert.True(t, failure.Is(err, failure.KindValidation))

	_, err = Classify([]float32{float32(math.NaN())}, 5)
	assert.True(t, failure.Is(err, failure.KindValidation))

	_, err = Classify([]float32{1}, 0)
	assert.True(t, failure.Is(err, failure.KindValidation))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, DefaultLabels, Labels(5, nil))
	assert.Equal(t, []string{"very low", "moderate", "very high"}, Labels(3, nil))
	assert.Equal(t, []string{"very low"}, Labels(1, nil))
	assert.Len(t, Labels(9, nil), 9)
	assert.Equal(t, "very high", Labels(9, nil)[8])

	custom := []string{"avoid", "consider", "prefer"}
	assert.Equal(t, custom, Labels(3, custom))
	// Length mismatch falls back to the default vocabulary.
	assert.Equal(t, DefaultLabels, Labels(5, custom))
	assert.Nil(t, Labels(0, nil))
}

func TestBuild_ValidPixelsOnly(t *testing.T) {
	p := raster.Profile{Width: 2, Height: 2, Transform: raster.NorthUp(0, 2, 1, 1)}
	r := raster.New(p)
	copy(r.Data, []float32{0, 10, 20, 100})
	r.Valid = []bool{false, true, true, false}

	s, err := Build(r, 3, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 15, 20}, s.Breaks)
	assert.Equal(t, 3, s.Len())
	assert.Len(t, s.Colors, 3)
	assert.Len(t, s.Labels, 3)

	r.Valid = []bool{false, false, false, false}
	_, err = Build(r, 3, "", nil)
	assert.True(t, failure.Is(err, failure.KindValidation))
}

func TestBuild_UnknownRampWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	p := raster.Profile{Width: 2, Height: 1, Transform: raster.NorthUp(0, 1, 1, 1)}
	r := raster.New(p)
	copy(r.Data, []float32{0, 1})

	s, err := Build(r, 2, "rainbow", nil)
	require.NoError(t, err)
	assert.Equal(t, Colors(2, RampBlueToRed), s.Colors)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "style: unknown colour ramp", entry.Message)
	assert.Equal(t, "rainbow", entry.ContextMap()["ramp"])

	_, err = Build(r, 2, "viridis", nil)
	require.NoError(t, err)
	_, err = Build(r, 2, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
}
