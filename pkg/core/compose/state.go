package compose

import (
	"strings"

	adserrors "github.com/matzehuels/adstudio/pkg/errors"
)

// Position is a pixel offset from a layer's default placement.
type Position struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
}

// Positions holds the four independently movable offsets.
type Positions struct {
	Image       Position `json:"image" toml:"image"`
	Headline    Position `json:"headline" toml:"headline"`
	Description Position `json:"description" toml:"description"`
	CTA         Position `json:"cta" toml:"cta"`
}

// Reset zeroes every position.
func (p *Positions) Reset() { *p = Positions{} }

// Get returns the position of a layer.
func (p Positions) Get(l Layer) Position {
	switch l {
	case LayerImage:
		return p.Image
	case LayerHeadline:
		return p.Headline
	case LayerDescription:
		return p.Description
	case LayerCTA:
		return p.CTA
	}
	return Position{}
}

// Set updates the position of a layer. Unknown layers are ignored.
func (p *Positions) Set(l Layer, pos Position) {
	switch l {
	case LayerImage:
		p.Image = pos
	case LayerHeadline:
		p.Headline = pos
	case LayerDescription:
		p.Description = pos
	case LayerCTA:
		p.CTA = pos
	}
}

// State is everything needed to render one ad.
type State struct {
	Name        string      `json:"name" toml:"name"`
	Headline    string      `json:"headline" toml:"headline"`
	Description string      `json:"description" toml:"description"`
	CTA         string      `json:"cta" toml:"cta"`
	Positions   Positions   `json:"positions" toml:"positions"`
	FontURL     string      `json:"font_url" toml:"font_url"`
	Template    TemplateID  `json:"template" toml:"template"`
	Colors      ColorScheme `json:"colors" toml:"colors"`
	Platform    string      `json:"platform" toml:"platform"`
	Language    string      `json:"language" toml:"language"`
	ImageURL    string      `json:"image_url" toml:"image_url"`
}

// NewState returns a fresh state seeded with the template's color scheme.
func NewState(template TemplateID) State {
	t, _ := Lookup(template)
	return State{
		Template: template,
		Colors:   t.Scheme,
		Platform: DefaultPlatform,
		Language: "en",
	}
}

// ApplyTemplate switches template, resetting positions and colors.
func (s *State) ApplyTemplate(template TemplateID) {
	t, _ := Lookup(template)
	s.Template = template
	s.Colors = t.Scheme
	s.Positions.Reset()
}

// FillDefaults replaces empty colors with the template scheme and empty
// platform/language with defaults. A zero overlay opacity counts as unset.
func (s *State) FillDefaults() {
	t, _ := Lookup(s.Template)
	c := &s.Colors
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.Accent, t.Scheme.Accent)
	fill(&c.CTA, t.Scheme.CTA)
	fill(&c.Overlay, t.Scheme.Overlay)
	fill(&c.Text, t.Scheme.Text)
	fill(&c.Description, t.Scheme.Description)
	if c.OverlayOpacity == 0 {
		c.OverlayOpacity = t.Scheme.OverlayOpacity
	}
	fill(&s.Platform, DefaultPlatform)
	fill(&s.Language, "en")
	if s.Template == "" {
		s.Template = DefaultTemplate
	}
}

// Validate checks user-supplied fields. Unknown templates are not an error.
// The image may only be an http(s) or data: URL and the font an http(s)
// URL; use [State.ValidateLocal] where local image files are allowed.
func (s State) Validate() error { return s.validate(false) }

// ValidateLocal is [State.Validate] but also accepts local image paths and
// file:// URLs, for callers that read from the user's own disk.
func (s State) ValidateLocal() error { return s.validate(true) }

func (s State) validate(local bool) error {
	if err := adserrors.ValidateAdName(s.Name); err != nil {
		return err
	}
	if _, err := PlatformByID(s.Platform); err != nil {
		return err
	}
	for _, c := range []string{s.Colors.Accent, s.Colors.CTA, s.Colors.Overlay, s.Colors.Text, s.Colors.Description} {
		if err := adserrors.ValidateHexColor(c); err != nil {
			return err
		}
	}
	if s.Colors.OverlayOpacity < 0 || s.Colors.OverlayOpacity > 1 {
		return adserrors.New(adserrors.ErrCodeInvalidInput, "overlay opacity %v out of range [0,1]", s.Colors.OverlayOpacity)
	}
	if s.ImageURL != "" {
		if err := ValidateImageRef(s.ImageURL, local); err != nil {
			return err
		}
	}
	if s.FontURL != "" {
		if err := adserrors.ValidateURL(s.FontURL); err != nil {
			return err
		}
	}
	return nil
}

// ValidateImageRef checks an image reference: http(s) and data: URLs are
// always accepted, file:// URLs and bare paths only when local is set.
func ValidateImageRef(ref string, local bool) error {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return adserrors.ValidateURL(ref)
	case local && strings.HasPrefix(ref, "file://"):
		return nil
	case local && ref != "" && !strings.Contains(ref, "://"):
		return nil
	}
	return adserrors.New(adserrors.ErrCodeInvalidURL, "image must be an http(s) or data: URL, got %q", shortRef(ref))
}
