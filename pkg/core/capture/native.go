package capture

import (
	"context"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/adstudio/pkg/core/scene"
	"github.com/matzehuels/adstudio/pkg/fonts"
)

// NativeRasterizer draws scenes in-process with gg. It does not shape
// complex scripts; right-to-left text is aligned but not reordered.
type NativeRasterizer struct {
	faces FaceSource
}

// NewNativeRasterizer creates a rasterizer that takes faces from faces, or
// from the embedded Go fonts if faces is nil.
func NewNativeRasterizer(faces FaceSource) *NativeRasterizer {
	if faces == nil {
		faces = fallbackFaces{}
	}
	return &NativeRasterizer{faces: faces}
}

// Name returns "native".
func (r *NativeRasterizer) Name() string { return "native" }

// Rasterize draws every layer of s in order.
func (r *NativeRasterizer) Rasterize(ctx context.Context, s *scene.Scene, scale float64) (image.Image, error) {
	w, h := s.Size()
	dc := gg.NewContext(int(math.Round(w*scale)), int(math.Round(h*scale)))
	p := painter{dc: dc, scale: scale, faces: r.faces}

	var err error
	s.View(func(root *scene.Element) {
		for _, e := range root.Children {
			if err = ctx.Err(); err != nil {
				return
			}
			switch e.Kind {
			case scene.KindImage:
				p.image(e)
			case scene.KindOverlay:
				p.overlay(e)
			case scene.KindHeadline, scene.KindDescription:
				err = p.text(e)
			case scene.KindCTA:
				err = p.button(e)
			}
			if err != nil {
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

type painter struct {
	dc    *gg.Context
	scale float64
	faces FaceSource
}

func (p painter) box(e *scene.Element) (x, y, w, h float64) {
	t := e.EffectiveTransform()
	return (e.Box.X + t.DX) * p.scale, (e.Box.Y + t.DY) * p.scale, e.Box.W * p.scale, e.Box.H * p.scale
}

func (p painter) image(e *scene.Element) {
	x, y, w, h := p.box(e)
	dc := p.dc
	dc.SetColor(parseHex(e.Style.Background, 1))
	dc.DrawRectangle(x, y, w, h)
	dc.Fill()

	rect, ok := e.CoverRect()
	if !ok {
		if e.Image != nil && e.Image.Err() != nil {
			p.unavailable(x, y, w, h)
		}
		return
	}
	rw := int(math.Round(rect.Width * p.scale))
	rh := int(math.Round(rect.Height * p.scale))
	if rw <= 0 || rh <= 0 {
		return
	}
	scaled := imaging.Resize(e.Image.Image(), rw, rh, imaging.Lanczos)

	dc.Push()
	dc.DrawRectangle(x, y, w, h)
	dc.Clip()
	dc.DrawImage(scaled, int(math.Round(x+rect.Left*p.scale)), int(math.Round(y+rect.Top*p.scale)))
	dc.ResetClip()
	dc.Pop()
}

func (p painter) unavailable(x, y, w, h float64) {
	dc := p.dc
	dc.SetColor(color.NRGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xff})
	dc.DrawRectangle(x, y, w, h)
	dc.Fill()
	if face, err := fonts.FallbackFace(14*p.scale, false, false); err == nil {
		dc.SetFontFace(face)
	}
	dc.SetColor(color.NRGBA{R: 0xd1, G: 0xd5, B: 0xdb, A: 0xff})
	dc.DrawStringAnchored("Image unavailable", x+w/2, y+h/2, 0.5, 0.5)
}

func (p painter) overlay(e *scene.Element) {
	x, y, w, h := p.box(e)
	dc := p.dc
	if e.Style.BackdropBlur > 0 {
		area := image.Rect(int(x), int(y), int(x+w), int(y+h))
		blurred := imaging.Blur(imaging.Crop(dc.Image(), area), e.Style.BackdropBlur*p.scale/2)
		dc.DrawImage(blurred, area.Min.X, area.Min.Y)
	}

	g := e.Style.Gradient
	if g == nil || len(g.Stops) == 0 {
		return
	}
	// CSS angles: 0deg points up, 90deg right.
	rad := g.Angle * math.Pi / 180
	dx, dy := math.Sin(rad), -math.Cos(rad)
	half := (math.Abs(w*dx) + math.Abs(h*dy)) / 2
	cx, cy := x+w/2, y+h/2
	grad := gg.NewLinearGradient(cx-dx*half, cy-dy*half, cx+dx*half, cy+dy*half)
	for _, s := range g.Stops {
		grad.AddColorStop(s.At, parseHex(s.Color, s.Alpha))
	}
	dc.SetFillStyle(grad)
	if e.Style.Radius > 0 {
		dc.DrawRoundedRectangle(x, y, w, h, e.Style.Radius*p.scale)
	} else {
		dc.DrawRectangle(x, y, w, h)
	}
	dc.Fill()
}

func (p painter) face(st scene.Style) error {
	size := st.FontSize * p.scale
	if size <= 0 {
		size = 16 * p.scale
	}
	face, err := p.faces.Face(st.FontURL, size, st.FontWeight >= 600, st.Italic)
	if err != nil {
		return err
	}
	p.dc.SetFontFace(face)
	return nil
}

func (p painter) text(e *scene.Element) error {
	if err := p.face(e.Style); err != nil {
		return err
	}
	x, y, w, h := p.box(e)
	dc := p.dc
	txt := e.Text
	if e.Style.Uppercase {
		txt = strings.ToUpper(txt)
	}
	lh := e.Style.LineHeight
	if lh <= 0 {
		lh = 1.2
	}
	lines := dc.WordWrap(txt, w)
	total := float64(len(lines)) * dc.FontHeight() * lh
	top := y + (h-total)/2

	align := gg.AlignCenter
	switch e.Style.Align {
	case scene.AlignStart:
		align = gg.AlignLeft
		if e.Style.Direction == scene.RTL {
			align = gg.AlignRight
		}
	case scene.AlignEnd:
		align = gg.AlignRight
		if e.Style.Direction == scene.RTL {
			align = gg.AlignLeft
		}
	}

	if e.Style.Shadow {
		dc.SetColor(color.NRGBA{A: 100})
		dc.DrawStringWrapped(txt, x+1.5*p.scale, top+1.5*p.scale, 0, 0, w, lh, align)
	}
	dc.SetColor(parseHex(e.Style.Color, opacity(e.Style.Opacity)))
	dc.DrawStringWrapped(txt, x, top, 0, 0, w, lh, align)
	return nil
}

func (p painter) button(e *scene.Element) error {
	x, y, w, h := p.box(e)
	dc := p.dc
	r := math.Min(e.Style.Radius*p.scale, h/2)

	if e.Style.Shadow {
		dc.SetColor(color.NRGBA{A: 64})
		dc.DrawRoundedRectangle(x, y+2*p.scale, w, h, r)
		dc.Fill()
	}
	if e.Style.Background != "" {
		dc.SetColor(parseHex(e.Style.Background, 1))
		dc.DrawRoundedRectangle(x, y, w, h, r)
		dc.Fill()
	}
	if e.Style.BorderWidth > 0 {
		dc.SetColor(parseHex(e.Style.BorderColor, 1))
		dc.SetLineWidth(e.Style.BorderWidth * p.scale)
		dc.DrawRoundedRectangle(x, y, w, h, r)
		dc.Stroke()
	}

	if err := p.face(e.Style); err != nil {
		return err
	}
	txt := e.Text
	if e.Style.Uppercase {
		txt = strings.ToUpper(txt)
	}
	dc.SetColor(parseHex(e.Style.Color, 1))
	dc.DrawStringAnchored(txt, x+w/2, y+h/2, 0.5, 0.35)
	return nil
}

type fallbackFaces struct{}

func (fallbackFaces) Face(_ string, size float64, bold, italic bool) (font.Face, error) {
	return fonts.FallbackFace(size, bold, italic)
}

var _ Rasterizer = (*NativeRasterizer)(nil)
