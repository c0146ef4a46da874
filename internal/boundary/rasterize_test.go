package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iitbhu2k25/Dss-muskan/internal/raster"
)

func TestContains_Hole(t *testing.T) {
	g := New(multi(t, polygon(square(0, 0, 10, 10), square(4, 4, 6, 6))), utm())
	assert.True(t, g.Contains(1, 1))
	assert.False(t, g.Contains(5, 5))
	assert.False(t, g.Contains(11, 5))
}

func TestRasterize_MatchesContains(t *testing.T) {
	g := New(multi(t,
		polygon(square(3, 3, 47, 47), square(13, 13, 27, 37)),
		polygon([]float64{60, 3, 97, 3, 60, 41, 60, 3}),
	), utm())
	tr := raster.NorthUp(0, 100, 10, 10)

	mask := g.Rasterize(tr, 10, 10)
	for row := 0; row < 10; row++ {
		for col := 0; col < 10; col++ {
			x, y := tr.Apply(float64(col)+0.5, float64(row)+0.5)
			assert.Equal(t, g.Contains(x, y), mask[row*10+col], "pixel %d,%d", col, row)
		}
	}
}

func TestRasterize_FullCover(t *testing.T) {
	g := New(multi(t, polygon(square(0, 0, 40, 30))), utm())
	mask := g.Rasterize(raster.NorthUp(0, 30, 10, 10), 4, 3)
	for i, v := range mask {
		assert.True(t, v, "pixel %d", i)
	}
}

func TestRasterize_Empty(t *testing.T) {
	g := New(multi(t, polygon(square(0, 0, 1, 1))), utm())
	assert.Empty(t, g.Rasterize(raster.NorthUp(0, 1, 1, 1), 0, 0))
}
