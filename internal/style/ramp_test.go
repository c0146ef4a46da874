package style

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hexColor = regexp.MustCompile(`^#[0-9A-F]{6}$`)

func TestColors_BlueToRed(t *testing.T) {
	assert.Equal(t, []string{"#0000FF", "#7F7FFF", "#FFFFFF", "#FF7F7F", "#FF0000"}, Colors(5, RampBlueToRed))
}

func TestColors_GreenToRed(t *testing.T) {
	want := []string{"#00FF00", "#3FBF00", "#7F7F00", "#BF3F00", "#FF0000"}
	assert.Equal(t, want, Colors(5, RampGreenToRed))
	assert.Equal(t, want, Colors(5, "greenTOred"))
}

func TestColors_AnchorEndpoints(t *testing.T) {
	v := Colors(5, RampViridis)
	assert.Equal(t, "#440154", v[0])
	assert.Equal(t, "#21908C", v[2])
	assert.Equal(t, "#FDE725", v[4])

	tr := Colors(2, RampTerrain)
	assert.Equal(t, []string{"#00005C", "#FFFFFF"}, tr)

	sp := Colors(7, RampSpectral)
	assert.Equal(t, "#D53E4F", sp[0])
	assert.Equal(t, "#3288BD", sp[6])
}

func TestColors_UnknownFallsBack(t *testing.T) {
	assert.Equal(t, Colors(4, RampBlueToRed), Colors(4, "rainbow"))
	_, ok := ResolveRamp("rainbow")
	assert.False(t, ok)
}

func TestColors_WellFormed(t *testing.T) {
	for _, ramp := range Ramps() {
		for n := 1; n <= 12; n++ {
			colors := Colors(n, ramp)
			assert.Len(t, colors, n)
			for _, c := range colors {
				assert.Regexp(t, hexColor, c, "ramp %s n=%d", ramp, n)
			}
		}
	}
	assert.Nil(t, Colors(0, RampViridis))
}

func TestColors_SingleClass(t *testing.T) {
	assert.Equal(t, []string{"#0000FF"}, Colors(1, RampBlueToRed))
}

func TestRamps(t *testing.T) {
	assert.ElementsMatch(t, []string{RampBlueToRed, RampGreenToRed, RampViridis, RampTerrain, RampSpectral}, Ramps())
}
