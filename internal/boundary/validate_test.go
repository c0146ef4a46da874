package boundary

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/iitbhu2k25/Dss-muskan/internal/failure"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ring    []float64
		wantErr string
	}{
		{"valid", square(0, 0, 1, 1), ""},
		{"unclosed", []float64{0, 0, 1, 0, 1, 1, 0, 1}, "not closed"},
		{"too few points", []float64{0, 0, 1, 0, 0, 0}, "need at least 4"},
		{"zero area", []float64{0, 0, 1, 0, 2, 0, 0, 0}, "zero area"},
		{"nan", []float64{0, 0, math.NaN(), 0, 1, 1, 0, 0}, "non-finite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(multi(t, polygon(tt.ring)), utm())
			err := g.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	empty := New(geom.NewMultiPolygon(geom.XY), utm())
	assert.Error(t, empty.Validate())
}

func TestRepair_ClosesAndOrients(t *testing.T) {
	// Clockwise shell, unclosed, with a duplicated vertex.
	shell := []float64{0, 0, 0, 10, 0, 10, 10, 10, 10, 0}
	// Counter-clockwise hole.
	hole := square(2, 2, 4, 4)
	g := New(multi(t, polygon(shell, hole)), utm())
	require.Error(t, g.Validate())

	r := g.Repair()
	require.NoError(t, r.Validate())
	p := r.Polygons.Polygon(0)
	require.Equal(t, 2, p.NumLinearRings())
	assert.Less(t, xy.SignedArea(geom.XY, p.LinearRing(0).FlatCoords()), 0.0, "shell counter-clockwise")
	assert.Greater(t, xy.SignedArea(geom.XY, p.LinearRing(1).FlatCoords()), 0.0, "hole clockwise")
	assert.Len(t, p.LinearRing(0).FlatCoords(), 10)
}

func TestRepair_DropsDegenerate(t *testing.T) {
	bad := polygon([]float64{0, 0, 1, 0, 2, 0, 0, 0})
	good := polygon(square(5, 5, 6, 6))
	g := New(multi(t, bad, good), utm())

	r := g.Repair()
	assert.Equal(t, 1, r.NumPolygons())
}

func TestEnsureValid(t *testing.T) {
	ok := New(multi(t, polygon(square(0, 0, 1, 1))), utm())
	got, err := EnsureValid(ok)
	require.NoError(t, err)
	assert.Same(t, ok, got)

	fixable := New(multi(t, polygon([]float64{0, 0, 1, 0, 1, 1, 0, 1})), utm())
	got, err = EnsureValid(fixable)
	require.NoError(t, err)
	assert.NoError(t, got.Validate())

	hopeless := New(multi(t, polygon([]float64{0, 0, 1, 1, 2, 2, 0, 0})), utm())
	_, err = EnsureValid(hopeless)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindGeometry))
}
