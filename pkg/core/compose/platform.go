package compose

import (
	"sort"

	adserrors "github.com/matzehuels/adstudio/pkg/errors"
)

// CaptureScale is the device scale used for export. The preview is rendered
// at half the output size so a 2x capture restores the platform size.
const CaptureScale = 2

// Platform is a social network placement with a fixed output size.
type Platform struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// PreviewSize returns the on-screen preview size.
func (p Platform) PreviewSize() (w, h float64) {
	return float64(p.Width) / CaptureScale, float64(p.Height) / CaptureScale
}

// AspectRatio returns width divided by height.
func (p Platform) AspectRatio() float64 {
	return float64(p.Width) / float64(p.Height)
}

// DefaultPlatform is used when no platform is chosen.
const DefaultPlatform = "facebook"

var platforms = map[string]Platform{
	"facebook":        {ID: "facebook", Name: "Facebook", Width: 1200, Height: 628},
	"instagram":       {ID: "instagram", Name: "Instagram", Width: 1080, Height: 1080},
	"instagram-story": {ID: "instagram-story", Name: "Instagram Story", Width: 1080, Height: 1920},
	"twitter":         {ID: "twitter", Name: "Twitter", Width: 1200, Height: 675},
	"linkedin":        {ID: "linkedin", Name: "LinkedIn", Width: 1200, Height: 627},
	"pinterest":       {ID: "pinterest", Name: "Pinterest", Width: 1000, Height: 1500},
}

// PlatformByID returns the platform with the given id.
func PlatformByID(id string) (Platform, error) {
	if id == "" {
		id = DefaultPlatform
	}
	p, ok := platforms[id]
	if !ok {
		return Platform{}, adserrors.New(adserrors.ErrCodeInvalidPlatform, "unknown platform %q", id)
	}
	return p, nil
}

// Platforms returns all platforms sorted by id.
func Platforms() []Platform {
	out := make([]Platform, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
