package style

import (
	"fmt"
	"sort"
	"strings"
)

// Ramp names.
const (
	RampBlueToRed  = "blue_to_red"
	RampGreenToRed = "green_to_red"
	RampViridis    = "viridis"
	RampTerrain    = "terrain"
	RampSpectral   = "spectral"
)

type rgb [3]float64

var anchorRamps = map[string][]rgb{
	RampViridis: {
		{68, 1, 84},
		{59, 82, 139},
		{33, 144, 140},
		{93, 201, 99},
		{253, 231, 37},
	},
	RampTerrain: {
		{0, 0, 92},
		{0, 128, 255},
		{0, 255, 128},
		{255, 255, 0},
		{128, 64, 0},
		{255, 255, 255},
	},
	RampSpectral: {
		{213, 62, 79},
		{253, 174, 97},
		{254, 224, 139},
		{230, 245, 152},
		{171, 221, 164},
		{102, 194, 165},
		{50, 136, 189},
	},
}

var rampAliases = map[string]string{
	"greentored": RampGreenToRed,
	"bluetored":  RampBlueToRed,
}

// Ramps lists the supported ramp names.
func Ramps() []string {
	names := []string{RampBlueToRed, RampGreenToRed}
	for name := range anchorRamps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveRamp maps a user-supplied name to a supported ramp. Unknown names
// resolve to blue_to_red; ok is false in that case.
func ResolveRamp(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if alias, found := rampAliases[n]; found {
		n = alias
	}
	switch n {
	case RampBlueToRed, RampGreenToRed:
		return n, true
	}
	if _, found := anchorRamps[n]; found {
		return n, true
	}
	return RampBlueToRed, false
}

// Colors returns n upper-case #RRGGBB colours sampled from the named ramp at
// t = i / max(1, n-1).
func Colors(n int, ramp string) []string {
	if n <= 0 {
		return nil
	}
	name, _ := ResolveRamp(ramp)
	out := make([]string, n)
	for i := range out {
		t := float64(i) / float64(max(1, n-1))
		var c [3]int
		switch name {
		case RampBlueToRed:
			c = blueToRed(t)
		case RampGreenToRed:
			c = [3]int{int(t * 255), int(255 * (1 - t)), 0}
		default:
			c = interpolate(anchorRamps[name], t)
		}
		out[i] = hex(c)
	}
	return out
}

// blueToRed runs blue to white over the first half and white to red over
// the second.
func blueToRed(t float64) [3]int {
	if t < 0.5 {
		v := int(t * 2 * 255)
		return [3]int{v, v, 255}
	}
	v := int(255 - (t-0.5)*2*255)
	return [3]int{255, v, v}
}

func interpolate(anchors []rgb, t float64) [3]int {
	segments := len(anchors) - 1
	idx := min(int(t*float64(segments)), segments-1)
	f := t*float64(segments) - float64(idx)
	a, b := anchors[idx], anchors[idx+1]
	var c [3]int
	for k := range c {
		c[k] = int(a[k]*(1-f) + b[k]*f)
	}
	return c
}

func hex(c [3]int) string {
	for k := range c {
		c[k] = min(255, max(0, c[k]))
	}
	return fmt.Sprintf("#%02X%02X%02X", c[0], c[1], c[2])
}
