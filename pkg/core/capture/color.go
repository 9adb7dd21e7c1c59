package capture

import (
	"image/color"
	"strconv"
	"strings"
)

// parseHex converts #rgb or #rrggbb to a color with the given alpha in [0,1].
// Invalid input yields transparent black.
func parseHex(s string, alpha float64) color.NRGBA {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(clamp01(alpha)*255 + 0.5),
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// opacity treats zero as fully opaque, matching unset CSS opacity.
func opacity(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return clamp01(v)
}
