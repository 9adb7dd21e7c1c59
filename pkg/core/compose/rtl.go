package compose

import (
	"strings"

	"github.com/matzehuels/adstudio/pkg/core/scene"
)

var rtlLanguages = map[string]bool{
	"ar": true, "he": true, "fa": true, "ur": true, "yi": true,
	"ps": true, "sd": true, "ug": true, "ku": true, "dv": true,
}

// IsRTL reports whether lang is written right-to-left. Region subtags are
// ignored, so "ar-EG" and "he_IL" are RTL.
func IsRTL(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return rtlLanguages[lang]
}

// direction returns the text direction and the alignment to use for a block
// whose template alignment is align. Start/end alignments mirror under RTL;
// center stays centered.
func direction(lang string, align scene.Align) (scene.Direction, scene.Align) {
	if !IsRTL(lang) {
		return scene.LTR, align
	}
	switch align {
	case scene.AlignStart:
		return scene.RTL, scene.AlignEnd
	case scene.AlignEnd:
		return scene.RTL, scene.AlignStart
	default:
		return scene.RTL, align
	}
}
