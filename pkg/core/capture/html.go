package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/matzehuels/adstudio/pkg/core/scene"
	adserrors "github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/fonts"
)

// RenderHTML serializes a scene into a standalone HTML document whose #ad
// element has exactly the scene's preview size. Loaded images are inlined as
// PNG data URLs so the page needs no network access apart from web fonts.
func RenderHTML(s *scene.Scene, families FamilySource) []byte {
	w, h := s.Size()
	lang, rtl := s.Language()
	dir := "ltr"
	if rtl {
		dir = "rtl"
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&buf, "<html lang=\"%s\" dir=\"%s\"><head><meta charset=\"utf-8\">\n", html.EscapeString(lang), dir)
	writeFontLinks(&buf, s.Fonts())
	buf.WriteString("<style>html,body{margin:0;padding:0;background:transparent}")
	buf.WriteString("#ad{position:relative;overflow:hidden}")
	buf.WriteString("#ad>div{position:absolute;box-sizing:border-box}")
	buf.WriteString(".txt{display:flex;flex-direction:column;justify-content:center;white-space:pre-wrap;word-wrap:break-word}")
	buf.WriteString(".btn{display:flex;align-items:center;justify-content:center;white-space:nowrap}")
	buf.WriteString("</style></head><body>\n")
	fmt.Fprintf(&buf, "<div id=\"ad\" role=\"img\" style=\"width:%.2fpx;height:%.2fpx\">\n", w, h)

	s.View(func(root *scene.Element) {
		for _, e := range root.Children {
			writeElement(&buf, e, families)
		}
	})

	buf.WriteString("</div>\n</body></html>\n")
	return buf.Bytes()
}

// writeFontLinks loads every http(s) font. Other URLs are dropped.
func writeFontLinks(buf *bytes.Buffer, urls []string) {
	for _, u := range urls {
		if adserrors.ValidateURL(u) != nil {
			continue
		}
		if fonts.IsGoogleCSS(u) {
			fmt.Fprintf(buf, "<link rel=\"stylesheet\" href=\"%s\">\n", html.EscapeString(u))
			continue
		}
		fmt.Fprintf(buf, "<style>@font-face{font-family:%s;src:url(%s)}</style>\n", cssString(fonts.FamilyFromURL(u)), cssString(u))
	}
}

// cssString quotes s as a CSS string that is also safe inside a <style>
// element and a double-quoted style attribute.
func cssString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch {
		case r == '\'' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '"' || r == '<' || r == '>' || r == '&' || r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func writeElement(buf *bytes.Buffer, e *scene.Element, families FamilySource) {
	var css strings.Builder
	t := e.EffectiveTransform()
	fmt.Fprintf(&css, "left:%.2fpx;top:%.2fpx;width:%.2fpx;height:%.2fpx;", e.Box.X+t.DX, e.Box.Y+t.DY, e.Box.W, e.Box.H)
	if t.Scale != 0 && t.Scale != 1 {
		fmt.Fprintf(&css, "transform:scale(%.3f);", t.Scale)
	}
	label := html.EscapeString(e.Label)

	switch e.Kind {
	case scene.KindImage:
		fmt.Fprintf(&css, "background:%s;overflow:hidden;", cssColor(e.Style.Background, 1))
		fmt.Fprintf(buf, "<div data-layer=\"image\" aria-label=\"%s\" style=\"%s\">", label, css.String())
		if r, ok := e.CoverRect(); ok {
			if src, err := dataURL(e.Image); err == nil {
				fmt.Fprintf(buf, "<img alt=\"\" src=\"%s\" style=\"position:absolute;left:%.2fpx;top:%.2fpx;width:%.2fpx;height:%.2fpx;max-width:none\">",
					src, r.Left, r.Top, r.Width, r.Height)
			}
		} else if e.Image != nil && e.Image.Err() != nil {
			buf.WriteString("<span style=\"position:absolute;inset:0;display:flex;align-items:center;justify-content:center;background:#374151;color:#d1d5db;font:14px sans-serif\">Image unavailable</span>")
		}
		buf.WriteString("</div>\n")

	case scene.KindOverlay:
		if g := e.Style.Gradient; g != nil && len(g.Stops) > 0 {
			fmt.Fprintf(&css, "background:%s;", cssGradient(g))
		}
		if e.Style.BackdropBlur > 0 {
			fmt.Fprintf(&css, "backdrop-filter:blur(%.1fpx);", e.Style.BackdropBlur)
		}
		if e.Style.Radius > 0 {
			fmt.Fprintf(&css, "border-radius:%.1fpx;", e.Style.Radius)
		}
		fmt.Fprintf(buf, "<div data-layer=\"overlay\" aria-hidden=\"true\" style=\"%s\"></div>\n", css.String())

	case scene.KindHeadline, scene.KindDescription:
		writeTextCSS(&css, e.Style, families)
		fmt.Fprintf(buf, "<div class=\"txt\" data-layer=\"%s\" aria-label=\"%s\" style=\"%s\">%s</div>\n",
			e.Kind, label, css.String(), html.EscapeString(e.Text))

	case scene.KindCTA:
		writeTextCSS(&css, e.Style, families)
		if e.Style.Background != "" {
			fmt.Fprintf(&css, "background:%s;", cssColor(e.Style.Background, 1))
		}
		if e.Style.BorderWidth > 0 {
			fmt.Fprintf(&css, "border:%.1fpx solid %s;", e.Style.BorderWidth, cssColor(e.Style.BorderColor, 1))
		}
		fmt.Fprintf(&css, "border-radius:%.1fpx;", math.Min(e.Style.Radius, e.Box.H/2))
		if e.Style.Shadow {
			css.WriteString("box-shadow:0 2px 6px rgba(0,0,0,.25);")
		}
		fmt.Fprintf(buf, "<div class=\"btn\" role=\"button\" data-layer=\"cta\" aria-label=\"%s\" style=\"%s\">%s</div>\n",
			label, css.String(), html.EscapeString(e.Text))
	}
}

func writeTextCSS(css *strings.Builder, st scene.Style, families FamilySource) {
	family := fonts.FallbackFamily
	if f := textFamily(st.FontURL, families); f != "" {
		family = cssString(f) + ", " + fonts.FallbackFamily
	}
	fmt.Fprintf(css, "font-family:%s;", family)
	fmt.Fprintf(css, "font-size:%.2fpx;", st.FontSize)
	if st.FontWeight > 0 {
		fmt.Fprintf(css, "font-weight:%d;", st.FontWeight)
	}
	if st.LineHeight > 0 {
		fmt.Fprintf(css, "line-height:%.2f;", st.LineHeight)
	}
	if st.LetterSpacing != 0 {
		fmt.Fprintf(css, "letter-spacing:%.1fpx;", st.LetterSpacing)
	}
	if st.Uppercase {
		css.WriteString("text-transform:uppercase;")
	}
	if st.Italic {
		css.WriteString("font-style:italic;")
	}
	fmt.Fprintf(css, "color:%s;", cssColor(st.Color, opacity(st.Opacity)))
	if st.Direction != "" {
		fmt.Fprintf(css, "direction:%s;", st.Direction)
	}
	if st.Align != "" {
		fmt.Fprintf(css, "text-align:%s;", st.Align)
	}
	if st.Shadow {
		css.WriteString("text-shadow:0 2px 4px rgba(0,0,0,.4);")
	}
}

// textFamily prefers the registry's name for fontURL and falls back to the
// name the URL itself implies.
func textFamily(fontURL string, families FamilySource) string {
	if fontURL == "" {
		return ""
	}
	if families != nil {
		if f := families.Family(fontURL); f != "" {
			return f
		}
	}
	return fonts.FamilyFromURL(fontURL)
}

func cssColor(hex string, alpha float64) string {
	c := parseHex(hex, alpha)
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.R, c.G, c.B, float64(c.A)/255)
}

func cssGradient(g *scene.Gradient) string {
	stops := make([]string, len(g.Stops))
	for i, s := range g.Stops {
		stops[i] = fmt.Sprintf("%s %.1f%%", cssColor(s.Color, s.Alpha), s.At*100)
	}
	return fmt.Sprintf("linear-gradient(%.0fdeg, %s)", g.Angle, strings.Join(stops, ", "))
}

func dataURL(h *scene.ImageHandle) (string, error) {
	data, err := Encode(h.Image(), FormatPNG, 0)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
