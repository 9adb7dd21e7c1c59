package compose

import (
	"sort"

	"github.com/matzehuels/adstudio/pkg/core/scene"
)

// TemplateID names a template. Any string is accepted; unknown values resolve
// to [TemplateMinimal].
type TemplateID string

const (
	TemplateMinimal            TemplateID = "minimal"
	TemplateStandard           TemplateID = "standard"
	TemplateModern             TemplateID = "modern"
	TemplateBold               TemplateID = "bold"
	TemplateElegant            TemplateID = "elegant"
	TemplateLuxuryJewelry      TemplateID = "luxury-jewelry"
	TemplateOverlayBottomGlass TemplateID = "overlay-bottom-glass"
	TemplateVibrant            TemplateID = "vibrant"
	TemplateCorporate          TemplateID = "corporate"
)

// DefaultTemplate is used when no template is chosen.
const DefaultTemplate = TemplateMinimal

// ColorScheme holds the five editable colors plus overlay opacity.
type ColorScheme struct {
	Accent         string  `json:"accent" toml:"accent"`
	CTA            string  `json:"cta" toml:"cta"`
	Overlay        string  `json:"overlay" toml:"overlay"`
	Text           string  `json:"text" toml:"text"`
	Description    string  `json:"description" toml:"description"`
	OverlayOpacity float64 `json:"overlay_opacity" toml:"overlay_opacity"`
}

// GradientStyle describes the overlay layer.
type GradientStyle struct {
	Gradient scene.Gradient
	// Band is the fraction of the container height covered, measured from
	// the bottom. 1 covers everything.
	Band         float64
	BackdropBlur float64
	Radius       float64
}

// TextStyle describes the headline and description blocks. Sizes are
// fractions of the container width so they scale with the platform.
type TextStyle struct {
	HeadlineSize     float64
	HeadlineWeight   int
	DescriptionSize  float64
	DescriptionAlpha float64
	LineHeight       float64
	LetterSpacing    float64
	Uppercase        bool
	Italic           bool
	Align            scene.Align
	Shadow           bool
	Width            float64 // block width as a fraction of the container
}

// ButtonStyle describes the call-to-action button.
type ButtonStyle struct {
	FontSize    float64 // fraction of container width
	FontWeight  int
	PaddingX    float64
	PaddingY    float64
	Radius      float64
	Uppercase   bool
	Ghost       bool // transparent fill with a border in the CTA color
	BorderWidth float64
	Shadow      bool
	HoverNudge  float64 // arrow nudge on hover, in pixels
}

// Anchors are the default vertical centers of the content layers, as
// fractions of the container height.
type Anchors struct {
	Headline    float64
	Description float64
	CTA         float64
}

// Template is a named visual preset.
type Template struct {
	ID          TemplateID  `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Scheme      ColorScheme `json:"scheme"`
	Anchors     Anchors     `json:"-"`

	gradient func(ColorScheme) GradientStyle
	text     func(ColorScheme) TextStyle
	button   func(ColorScheme) ButtonStyle
}

var centered = Anchors{Headline: 0.36, Description: 0.55, CTA: 0.74}
var bottom = Anchors{Headline: 0.58, Description: 0.74, CTA: 0.88}

func fade(color string, top, bottom float64) scene.Gradient {
	return scene.Gradient{Angle: 180, Stops: []scene.Stop{
		{Color: color, Alpha: top, At: 0},
		{Color: color, Alpha: bottom, At: 1},
	}}
}

func flat(color string, alpha float64) scene.Gradient {
	return scene.Gradient{Angle: 180, Stops: []scene.Stop{
		{Color: color, Alpha: alpha, At: 0},
		{Color: color, Alpha: alpha, At: 1},
	}}
}

var baseText = TextStyle{
	HeadlineSize:     0.07,
	HeadlineWeight:   700,
	DescriptionSize:  0.032,
	DescriptionAlpha: 0.9,
	LineHeight:       1.2,
	Align:            scene.AlignCenter,
	Width:            0.8,
}

var baseButton = ButtonStyle{
	FontSize:   0.028,
	FontWeight: 600,
	PaddingX:   28,
	PaddingY:   12,
	Radius:     8,
	HoverNudge: 4,
}

var registry = map[TemplateID]Template{
	TemplateMinimal: {
		ID: TemplateMinimal, Name: "Minimal", Description: "Light overlay, clean type",
		Scheme:   ColorScheme{Accent: "#111827", CTA: "#111827", Overlay: "#000000", Text: "#FFFFFF", Description: "#F3F4F6", OverlayOpacity: 0.3},
		Anchors:  centered,
		gradient: func(c ColorScheme) GradientStyle { return GradientStyle{Gradient: flat(c.Overlay, c.OverlayOpacity), Band: 1} },
		text:     func(ColorScheme) TextStyle { return baseText },
		button:   func(ColorScheme) ButtonStyle { return baseButton },
	},
	TemplateStandard: {
		ID: TemplateStandard, Name: "Standard", Description: "Bottom fade with solid button",
		Scheme:   ColorScheme{Accent: "#2563EB", CTA: "#2563EB", Overlay: "#000000", Text: "#FFFFFF", Description: "#E5E7EB", OverlayOpacity: 0.5},
		Anchors:  centered,
		gradient: func(c ColorScheme) GradientStyle { return GradientStyle{Gradient: fade(c.Overlay, 0.1, c.OverlayOpacity), Band: 1} },
		text: func(ColorScheme) TextStyle {
			t := baseText
			t.Shadow = true
			return t
		},
		button: func(ColorScheme) ButtonStyle {
			b := baseButton
			b.Shadow = true
			return b
		},
	},
	TemplateModern: {
		ID: TemplateModern, Name: "Modern", Description: "Diagonal tint, rounded pill button",
		Scheme:  ColorScheme{Accent: "#4A90E2", CTA: "#4A90E2", Overlay: "#0F172A", Text: "#FFFFFF", Description: "#CBD5E1", OverlayOpacity: 0.55},
		Anchors: centered,
		gradient: func(c ColorScheme) GradientStyle {
			return GradientStyle{Band: 1, Gradient: scene.Gradient{Angle: 135, Stops: []scene.Stop{
				{Color: c.Overlay, Alpha: c.OverlayOpacity, At: 0},
				{Color: c.Accent, Alpha: c.OverlayOpacity * 0.6, At: 1},
			}}}
		},
		text: func(ColorScheme) TextStyle {
			t := baseText
			t.HeadlineWeight = 800
			t.LetterSpacing = -0.5
			return t
		},
		button: func(ColorScheme) ButtonStyle {
			b := baseButton
			b.Radius = 999
			b.PaddingX = 32
			return b
		},
	},
	TemplateBold: {
		ID: TemplateBold, Name: "Bold", Description: "Heavy uppercase type on a dark wash",
		Scheme:   ColorScheme{Accent: "#F59E0B", CTA: "#EF4444", Overlay: "#000000", Text: "#FFFFFF", Description: "#FDE68A", OverlayOpacity: 0.65},
		Anchors:  centered,
		gradient: func(c ColorScheme) GradientStyle { return GradientStyle{Gradient: flat(c.Overlay, c.OverlayOpacity), Band: 1} },
		text: func(ColorScheme) TextStyle {
			t := baseText
			t.HeadlineSize = 0.085
			t.HeadlineWeight = 900
			t.Uppercase = true
			t.Shadow = true
			return t
		},
		button: func(ColorScheme) ButtonStyle {
			b := baseButton
			b.Uppercase = true
			b.FontWeight = 800
			b.Radius = 0
			return b
		},
	},
	TemplateElegant: {
		ID: TemplateElegant, Name: "Elegant", Description: "Serif-friendly spacing with a ghost button",
		Scheme:   ColorScheme{Accent: "#D4AF37", CTA: "#D4AF37", Overlay: "#1C1917", Text: "#FAFAF9", Description: "#D6D3D1", OverlayOpacity: 0.45},
		Anchors:  centered,
		gradient: func(c ColorScheme) GradientStyle { return GradientStyle{Gradient: fade(c.Overlay, c.OverlayOpacity*0.5, c.OverlayOpacity), Band: 1} },
		text: func(ColorScheme) TextStyle {
			t := baseText
			t.HeadlineWeight = 400
			t.Italic = true
			t.LetterSpacing = 1
			t.LineHeight = 1.35
			return t
		},
		button: func(ColorScheme) ButtonStyle {
			b := baseButton
			b.Ghost = true
			b.BorderWidth = 1.5
			b.Radius = 2
			b.FontWeight = 500
			return b
		},
	},
	TemplateLuxuryJewelry: {
		ID: TemplateLuxuryJewelry, Name: "Luxury Jewelry", Description: "Deep vignette with gold accents",
		Scheme:  ColorScheme{Accent: "#C9A227", CTA: "#C9A227", Overlay: "#0B0B0B", Text: "#F5E6C8", Description: "#E7D8B1", OverlayOpacity: 0.6},
		Anchors: Anchors{Headline: 0.4, Description: 0.57, CTA: 0.76},
		gradient: func(c ColorScheme) GradientStyle {
			return GradientStyle{Band: 1, Gradient: scene.Gradient{Angle: 180, Stops: []scene.Stop{
				{Color: c.Overlay, Alpha: c.OverlayOpacity, At: 0},
				{Color: c.Overlay, Alpha: c.OverlayOpacity * 0.4, At: 0.5},
				{Color: c.Overlay, Alpha: c.OverlayOpacity, At: 1},
			}}}
		},
		text: func(ColorScheme) TextStyle {
			t := baseText
			t.HeadlineSize = 0.06
			t.HeadlineWeight = 300
			t.Uppercase = true
			t.LetterSpacing = 4
			t.DescriptionAlpha = 0.8
			return t
		},
		button: func(ColorScheme) ButtonStyle {
			b := baseButton
			b.Ghost = true
			b.BorderWidth = 1
			b.Radius = 0
			b.Uppercase = true
			b.FontWeight = 400
			return b
		},
	},
	TemplateOverlayBottomGlass: {
		ID: TemplateOverlayBottomGlass, Name: "Bottom Glass", Description: "Frosted panel across the lower third",
		Scheme:  ColorScheme{Accent: "#38BDF8", CTA: "#FFFFFF", Overlay: "#0F172A", Text: "#FFFFFF", Description: "#E2E8F0", OverlayOpacity: 0.4},
		Anchors: bottom,
		gradient: func(c ColorScheme) GradientStyle {
			return GradientStyle{Gradient: flat(c.Overlay, c.OverlayOpacity), Band: 0.45, BackdropBlur: 12, Radius: 0}
		},
		text: func(ColorScheme) TextStyle {
			t := baseText
			t.HeadlineSize = 0.06
			t.Width = 0.86
			return t
		},
		button: func(ColorScheme) ButtonStyle {
			b := baseButton
			b.Radius = 12
			b.Shadow = true
			return b
		},
	},
	TemplateVibrant: {
		ID: TemplateVibrant, Name: "Vibrant", Description: "Saturated two-tone gradient",
		Scheme:  ColorScheme{Accent: "#EC4899", CTA: "#8B5CF6", Overlay: "#7C3AED", Text: "#FFFFFF", Description: "#FCE7F3", OverlayOpacity: 0.5},
		Anchors: centered,
		gradient: func(c ColorScheme) GradientStyle {
			return GradientStyle{Band: 1, Gradient: scene.Gradient{Angle: 90, Stops: []scene.Stop{
				{Color: c.Overlay, Alpha: c.OverlayOpacity, At: 0},
				{Color: c.Accent, Alpha: c.OverlayOpacity, At: 1},
			}}}
		},
		text: func(ColorScheme) TextStyle {
			t := baseText
			t.HeadlineWeight = 800
			t.Shadow = true
			return t
		},
		button: func(ColorScheme) ButtonStyle {
			b := baseButton
			b.Radius = 999
			b.Shadow = true
			b.HoverNudge = 6
			return b
		},
	},
	TemplateCorporate: {
		ID: TemplateCorporate, Name: "Corporate", Description: "Left-aligned copy over a side fade",
		Scheme:  ColorScheme{Accent: "#0EA5E9", CTA: "#0369A1", Overlay: "#0C4A6E", Text: "#FFFFFF", Description: "#E0F2FE", OverlayOpacity: 0.7},
		Anchors: centered,
		gradient: func(c ColorScheme) GradientStyle {
			return GradientStyle{Band: 1, Gradient: scene.Gradient{Angle: 90, Stops: []scene.Stop{
				{Color: c.Overlay, Alpha: c.OverlayOpacity, At: 0},
				{Color: c.Overlay, Alpha: 0, At: 0.75},
			}}}
		},
		text: func(ColorScheme) TextStyle {
			t := baseText
			t.Align = scene.AlignStart
			t.Width = 0.6
			return t
		},
		button: func(ColorScheme) ButtonStyle {
			b := baseButton
			b.Radius = 4
			return b
		},
	},
}

// Lookup returns the template for id, falling back to minimal. The boolean
// reports whether id was recognized.
func Lookup(id TemplateID) (Template, bool) {
	if t, ok := registry[id]; ok {
		return t, true
	}
	return registry[TemplateMinimal], false
}

// Templates returns all registered templates sorted by id.
func Templates() []Template {
	out := make([]Template, 0, len(registry))
	for _, t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GradientFor resolves the overlay descriptor for id with the given colors.
func GradientFor(id TemplateID, c ColorScheme) GradientStyle {
	t, _ := Lookup(id)
	return t.gradient(c)
}

// TextFor resolves the text descriptor for id with the given colors.
func TextFor(id TemplateID, c ColorScheme) TextStyle {
	t, _ := Lookup(id)
	return t.text(c)
}

// ButtonFor resolves the button descriptor for id with the given colors.
func ButtonFor(id TemplateID, c ColorScheme) ButtonStyle {
	t, _ := Lookup(id)
	return t.button(c)
}
