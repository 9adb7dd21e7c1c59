package fit

import (
	"errors"
	"math"

	adserrors "github.com/matzehuels/adstudio/pkg/errors"
)

// ErrInvalidGeometry is returned when a dimension passed to the fit engine is
// not a finite positive number.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Rect is the placement of the scaled image relative to the container's
// top-left corner.
type Rect struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
}

// Scale returns the factor applied to the natural width.
func (r Rect) Scale(naturalWidth float64) float64 {
	if naturalWidth <= 0 {
		return 0
	}
	return r.Width / naturalWidth
}

// Size is a width/height pair.
type Size struct {
	Width  float64
	Height float64
}

// Valid reports whether both dimensions are finite and positive.
func (s Size) Valid() bool {
	return positive(s.Width) && positive(s.Height)
}

// PanMode selects how pan offsets are treated by [Fit].
type PanMode int

const (
	// PanClamped limits the offset so the image never uncovers the container.
	PanClamped PanMode = iota
	// PanUnbounded applies the offset as-is, allowing visible gaps.
	PanUnbounded
)

// String returns the mode name.
func (m PanMode) String() string {
	if m == PanUnbounded {
		return "unbounded"
	}
	return "clamped"
}

// ComputeCover returns the cover rectangle for an image of the given natural
// size inside a container, translated by (offsetX, offsetY).
//
// The scale is max(containerW/naturalW, containerH/naturalH); the scaled image
// is centered and the offset is added afterwards without clamping.
func ComputeCover(naturalW, naturalH, containerW, containerH, offsetX, offsetY float64) (Rect, error) {
	if err := checkDims(naturalW, naturalH, containerW, containerH); err != nil {
		return Rect{}, err
	}
	if math.IsNaN(offsetX) || math.IsNaN(offsetY) || math.IsInf(offsetX, 0) || math.IsInf(offsetY, 0) {
		return Rect{}, invalid("offset (%v, %v) is not finite", offsetX, offsetY)
	}

	scale := math.Max(containerW/naturalW, containerH/naturalH)
	w := naturalW * scale
	h := naturalH * scale

	return Rect{
		Width:  w,
		Height: h,
		Left:   (containerW-w)/2 + offsetX,
		Top:    (containerH-h)/2 + offsetY,
	}, nil
}

// ClampOffset limits an offset so that the cover rectangle still fully covers
// the container. The allowed range on each axis is half the overflow.
func ClampOffset(naturalW, naturalH, containerW, containerH, offsetX, offsetY float64) (x, y float64, err error) {
	centered, err := ComputeCover(naturalW, naturalH, containerW, containerH, 0, 0)
	if err != nil {
		return 0, 0, err
	}
	maxX := (centered.Width - containerW) / 2
	maxY := (centered.Height - containerH) / 2
	return clamp(offsetX, -maxX, maxX), clamp(offsetY, -maxY, maxY), nil
}

// Fit computes the cover rectangle for the given pan mode.
func Fit(natural, container Size, offsetX, offsetY float64, mode PanMode) (Rect, error) {
	if mode == PanClamped {
		var err error
		offsetX, offsetY, err = ClampOffset(natural.Width, natural.Height, container.Width, container.Height, offsetX, offsetY)
		if err != nil {
			return Rect{}, err
		}
	}
	return ComputeCover(natural.Width, natural.Height, container.Width, container.Height, offsetX, offsetY)
}

func checkDims(naturalW, naturalH, containerW, containerH float64) error {
	switch {
	case !positive(naturalW) || !positive(naturalH):
		return invalid("natural size %vx%v must be positive", naturalW, naturalH)
	case !positive(containerW) || !positive(containerH):
		return invalid("container size %vx%v must be positive", containerW, containerH)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return adserrors.Wrap(adserrors.ErrCodeInvalidGeometry, ErrInvalidGeometry, format, args...)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return 0
	}
	return math.Min(math.Max(v, lo), hi)
}
