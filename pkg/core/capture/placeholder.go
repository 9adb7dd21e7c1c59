package capture

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/adstudio/pkg/fonts"
)

// PlaceholderText is drawn on the image produced when every strategy fails.
const PlaceholderText = "Image generation failed"

// Placeholder draws a solid error image of the given pixel size.
func Placeholder(width, height int) image.Image {
	width, height = max(width, 1), max(height, 1)
	dc := gg.NewContext(width, height)
	dc.SetColor(color.NRGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff})
	dc.Clear()

	size := math.Max(12, float64(min(width, height))/16)
	if face, err := fonts.FallbackFace(size, true, false); err == nil {
		dc.SetFontFace(face)
	}
	dc.SetColor(color.NRGBA{R: 0xf9, G: 0xfa, B: 0xfb, A: 0xff})
	dc.DrawStringAnchored(PlaceholderText, float64(width)/2, float64(height)/2, 0.5, 0.5)
	return dc.Image()
}
