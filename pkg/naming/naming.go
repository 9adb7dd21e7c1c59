// Package naming builds the artifact filenames that gallery listing and
// search depend on.
//
// A name is seven dash-separated tokens:
//
//	{ddMMyy}-{name}-{platform}-{language}-{template}-{accent hex}-{font slug}
//
// Everything is lower-cased, any run of characters outside [a-z0-9-] becomes
// a single dash, and leading and trailing dashes are removed. The format is
// load-bearing for existing stored artifacts; do not change it.
package naming

import (
	"regexp"
	"strings"
	"time"

	"github.com/matzehuels/adstudio/pkg/fonts"
)

// Params are the inputs to [GenerateAdName].
type Params struct {
	Name     string
	Platform string
	Language string
	Template string
	Accent   string // hex color, with or without '#'
	FontURL  string
	Date     time.Time
}

// DefaultFontSlug is used when no font URL is set.
const DefaultFontSlug = "default"

var invalidRun = regexp.MustCompile(`[^a-z0-9-]+`)
var dashRun = regexp.MustCompile(`-{2,}`)

// GenerateAdName returns the filename stem for an ad. It is a pure function
// of p.
func GenerateAdName(p Params) string {
	font := DefaultFontSlug
	if p.FontURL != "" {
		font = fonts.FamilyFromURL(p.FontURL)
	}
	tokens := []string{
		p.Date.Format("020106"),
		p.Name,
		p.Platform,
		p.Language,
		p.Template,
		strings.TrimPrefix(p.Accent, "#"),
		font,
	}
	return Sanitize(strings.Join(tokens, "-"))
}

// Sanitize lower-cases s, collapses every run of characters outside
// [a-z0-9-] into one dash and trims dashes from both ends.
func Sanitize(s string) string {
	s = strings.ToLower(s)
	s = invalidRun.ReplaceAllString(s, "-")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// FileName returns the stem plus extension.
func FileName(p Params, ext string) string {
	return GenerateAdName(p) + "." + strings.TrimPrefix(ext, ".")
}
