// Package fonts registers web fonts for ad rendering.
//
// A [Registry] loads fonts asynchronously from Google Fonts CSS2 URLs
// (https://fonts.googleapis.com/css2?family=Roboto:wght@400) or from direct
// TTF/OTF URLs. Until a font resolves, [Registry.Face] returns the embedded Go
// fonts, so previews never block on the network. Capture calls
// [Registry.Wait] before rasterizing so the final frame uses the real font.
package fonts

import (
	"net/url"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FallbackFamily is the CSS family list used while a custom font loads.
const FallbackFamily = `'Go', 'Helvetica Neue', Arial, sans-serif`

var fallbacks = func() map[variant]*opentype.Font {
	m := make(map[variant]*opentype.Font, 4)
	for v, data := range map[variant][]byte{
		{}:                         goregular.TTF,
		{bold: true}:               gobold.TTF,
		{italic: true}:             goitalic.TTF,
		{bold: true, italic: true}: gobolditalic.TTF,
	} {
		f, err := opentype.Parse(data)
		if err != nil {
			panic("fonts: embedded font: " + err.Error())
		}
		m[v] = f
	}
	return m
}()

type variant struct {
	bold   bool
	italic bool
}

// FamilyFromURL extracts the font family name from a font URL.
//
// For Google Fonts URLs the family query parameter is used, with any axis
// suffix removed: "family=Open+Sans:wght@400" yields "Open Sans". For direct
// font files the file name without extension is returned. It returns "" if no
// family can be determined.
func FamilyFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	if i := strings.Index(raw, "family="); i >= 0 {
		fam := raw[i+len("family="):]
		if j := strings.IndexAny(fam, ":&;"); j >= 0 {
			fam = fam[:j]
		}
		if dec, err := url.QueryUnescape(fam); err == nil {
			fam = dec
		}
		return strings.TrimSpace(fam)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	name := u.Path
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

// IsGoogleCSS reports whether raw points at a Google Fonts stylesheet rather
// than a font file.
func IsGoogleCSS(raw string) bool {
	return strings.Contains(raw, "fonts.googleapis.com/css")
}

// FallbackFace returns an embedded Go font face of the requested style.
func FallbackFace(size float64, bold, italic bool) (font.Face, error) {
	return newFace(fallbacks[variant{bold: bold, italic: italic}], size)
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
