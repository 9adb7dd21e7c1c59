package capture

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/font"

	"github.com/matzehuels/adstudio/pkg/core/scene"
)

// Rasterizer turns a scene into a bitmap at the given device scale. The
// returned image should be scale times the scene's preview size.
type Rasterizer interface {
	Name() string
	Rasterize(ctx context.Context, s *scene.Scene, scale float64) (image.Image, error)
}

// FaceSource provides font faces for text layers.
type FaceSource interface {
	Face(fontURL string, size float64, bold, italic bool) (font.Face, error)
}

// FamilySource maps a font URL onto a CSS family name.
type FamilySource interface {
	Family(fontURL string) string
}

// FontWaiter blocks until pending fonts have resolved.
type FontWaiter interface {
	Wait(ctx context.Context) error
}

// safeRasterize converts panics from third-party renderers into errors.
func safeRasterize(ctx context.Context, r Rasterizer, s *scene.Scene, scale float64) (img image.Image, err error) {
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("%s rasterizer panicked: %v", r.Name(), p)
		}
	}()
	img, err = r.Rasterize(ctx, s, scale)
	if err == nil && img == nil {
		err = fmt.Errorf("%s rasterizer returned no image", r.Name())
	}
	return img, err
}
