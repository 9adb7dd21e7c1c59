package scene

// Align is horizontal text alignment.
type Align string

const (
	AlignStart  Align = "start"
	AlignCenter Align = "center"
	AlignEnd    Align = "end"
)

// Direction is the inline text direction.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

// Stop is one color stop of a linear gradient. At is in [0,1].
type Stop struct {
	Color string  `json:"color"`
	Alpha float64 `json:"alpha"`
	At    float64 `json:"at"`
}

// Gradient is a linear gradient; Angle follows CSS (0 = to top, 180 = to bottom).
type Gradient struct {
	Angle float64 `json:"angle"`
	Stops []Stop  `json:"stops"`
}

// Style is the resolved visual description of an element. Colors are CSS hex
// strings.
type Style struct {
	Background    string    `json:"background,omitempty"`
	Gradient      *Gradient `json:"gradient,omitempty"`
	Opacity       float64   `json:"opacity,omitempty"`
	Color         string    `json:"color,omitempty"`
	FontURL       string    `json:"font_url,omitempty"`
	FontSize      float64   `json:"font_size,omitempty"`
	FontWeight    int       `json:"font_weight,omitempty"`
	LineHeight    float64   `json:"line_height,omitempty"`
	LetterSpacing float64   `json:"letter_spacing,omitempty"`
	Uppercase     bool      `json:"uppercase,omitempty"`
	Italic        bool      `json:"italic,omitempty"`
	Align         Align     `json:"align,omitempty"`
	Direction     Direction `json:"direction,omitempty"`
	Padding       float64   `json:"padding,omitempty"`
	Radius        float64   `json:"radius,omitempty"`
	BorderColor   string    `json:"border_color,omitempty"`
	BorderWidth   float64   `json:"border_width,omitempty"`
	Shadow        bool      `json:"shadow,omitempty"`
	BackdropBlur  float64   `json:"backdrop_blur,omitempty"`
}

func (s Style) clone() Style {
	if s.Gradient != nil {
		g := *s.Gradient
		g.Stops = append([]Stop(nil), s.Gradient.Stops...)
		s.Gradient = &g
	}
	return s
}
