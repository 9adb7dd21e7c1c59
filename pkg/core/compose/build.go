package compose

import (
	"math"
	"unicode/utf8"

	"github.com/matzehuels/adstudio/pkg/core/fit"
	"github.com/matzehuels/adstudio/pkg/core/scene"
)

// ImageSource hands out image handles for URLs.
type ImageSource interface {
	Handle(url string) *scene.ImageHandle
}

// FontSource registers fonts for asynchronous loading.
type FontSource interface {
	Register(url string)
}

// BuildOptions are the collaborators [Build] uses. All fields are optional.
type BuildOptions struct {
	Images  ImageSource
	Fonts   FontSource
	PanMode fit.PanMode
}

// Element ids assigned by Build.
const (
	IDImage       = "image"
	IDOverlay     = "overlay"
	IDHeadline    = "headline"
	IDDescription = "description"
	IDCTA         = "cta"
)

const sideMargin = 0.08

// Build renders st into a new scene sized to the platform's preview box.
func Build(st State, opts BuildOptions) (*scene.Scene, error) {
	st.FillDefaults()
	p, err := PlatformByID(st.Platform)
	if err != nil {
		return nil, err
	}
	cw, ch := p.PreviewSize()

	// Resolve descriptors and direction once for the whole render.
	grad := GradientFor(st.Template, st.Colors)
	text := TextFor(st.Template, st.Colors)
	btn := ButtonFor(st.Template, st.Colors)
	tmpl, _ := Lookup(st.Template)
	dir, align := direction(st.Language, text.Align)

	s := scene.New(cw, ch)
	s.SetLanguage(st.Language, dir == scene.RTL)
	if st.FontURL != "" {
		s.AddFont(st.FontURL)
		if opts.Fonts != nil {
			opts.Fonts.Register(st.FontURL)
		}
	}

	s.Append(imageLayer(st, opts, cw, ch))
	s.Append(&scene.Element{
		ID:    IDOverlay,
		Kind:  scene.KindOverlay,
		Label: "Color overlay",
		Box:   scene.Box{X: 0, Y: ch * (1 - grad.Band), W: cw, H: ch * grad.Band},
		Style: scene.Style{
			Gradient:     &grad.Gradient,
			BackdropBlur: grad.BackdropBlur,
			Radius:       grad.Radius,
		},
	})

	blockW := text.Width * cw
	headSize := text.HeadlineSize * cw
	descSize := text.DescriptionSize * cw

	if st.Headline != "" {
		h := textHeight(st.Headline, headSize, text.LineHeight, blockW)
		s.Append(&scene.Element{
			ID:    IDHeadline,
			Kind:  scene.KindHeadline,
			Label: "Headline: " + st.Headline,
			Text:  st.Headline,
			Box:   place(cw, ch, blockW, h, tmpl.Anchors.Headline, align, st.Positions.Headline),
			Style: scene.Style{
				Color:         st.Colors.Text,
				FontURL:       st.FontURL,
				FontSize:      headSize,
				FontWeight:    text.HeadlineWeight,
				LineHeight:    text.LineHeight,
				LetterSpacing: text.LetterSpacing,
				Uppercase:     text.Uppercase,
				Italic:        text.Italic,
				Align:         align,
				Direction:     dir,
				Shadow:        text.Shadow,
			},
		})
	}

	if st.Description != "" {
		h := textHeight(st.Description, descSize, text.LineHeight, blockW)
		s.Append(&scene.Element{
			ID:    IDDescription,
			Kind:  scene.KindDescription,
			Label: "Description: " + st.Description,
			Text:  st.Description,
			Box:   place(cw, ch, blockW, h, tmpl.Anchors.Description, align, st.Positions.Description),
			Style: scene.Style{
				Color:      st.Colors.Description,
				Opacity:    text.DescriptionAlpha,
				FontURL:    st.FontURL,
				FontSize:   descSize,
				FontWeight: 400,
				LineHeight: text.LineHeight,
				Italic:     text.Italic,
				Align:      align,
				Direction:  dir,
			},
		})
	}

	if st.CTA != "" {
		fs := btn.FontSize * cw
		w := estimateWidth(st.CTA, fs) + 2*btn.PaddingX
		h := fs*1.2 + 2*btn.PaddingY
		nudge := btn.HoverNudge
		if dir == scene.RTL {
			nudge = -nudge
		}
		style := scene.Style{
			Background: st.Colors.CTA,
			Color:      st.Colors.Text,
			FontURL:    st.FontURL,
			FontSize:   fs,
			FontWeight: btn.FontWeight,
			Uppercase:  btn.Uppercase,
			Align:      scene.AlignCenter,
			Direction:  dir,
			Padding:    btn.PaddingY,
			Radius:     btn.Radius,
			Shadow:     btn.Shadow,
		}
		if btn.Ghost {
			style.Background = ""
			style.Color = st.Colors.CTA
			style.BorderColor = st.Colors.CTA
			style.BorderWidth = btn.BorderWidth
		}
		s.Append(&scene.Element{
			ID:             IDCTA,
			Kind:           scene.KindCTA,
			Label:          "Call to action: " + st.CTA,
			Text:           st.CTA,
			Box:            place(cw, ch, w, h, tmpl.Anchors.CTA, align, st.Positions.CTA),
			Style:          style,
			HoverTransform: scene.Transform{DX: nudge},
		})
	}

	return s, nil
}

func imageLayer(st State, opts BuildOptions, cw, ch float64) *scene.Element {
	e := &scene.Element{
		ID:      IDImage,
		Kind:    scene.KindImage,
		Label:   "Background image",
		Box:     scene.Box{W: cw, H: ch},
		Style:   scene.Style{Background: st.Colors.Accent},
		Pan:     scene.Point{X: st.Positions.Image.X, Y: st.Positions.Image.Y},
		PanMode: opts.PanMode,
	}
	if st.ImageURL != "" && opts.Images != nil {
		e.Image = opts.Images.Handle(st.ImageURL)
	}
	return e
}

// place positions a block of size w×h centered vertically on the anchor and
// horizontally according to align, then adds the user offset.
func place(cw, ch, w, h, anchor float64, align scene.Align, pos Position) scene.Box {
	var x float64
	switch align {
	case scene.AlignStart:
		x = cw * sideMargin
	case scene.AlignEnd:
		x = cw - w - cw*sideMargin
	default:
		x = (cw - w) / 2
	}
	return scene.Box{
		X: x + pos.X,
		Y: anchor*ch - h/2 + pos.Y,
		W: w,
		H: h,
	}
}

// estimateWidth approximates the advance of s at the given font size. The
// rasterizers measure real glyphs; this only sizes the layout box.
func estimateWidth(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size * 0.56
}

func textHeight(s string, size, lineHeight, width float64) float64 {
	if lineHeight <= 0 {
		lineHeight = 1.2
	}
	lines := math.Max(1, math.Ceil(estimateWidth(s, size)/width))
	return lines * size * lineHeight
}
