package capture

import (
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/matzehuels/adstudio/pkg/core/scene"
)

type staticFamilies map[string]string

func (f staticFamilies) Family(url string) string { return f[url] }

func TestRenderHTML(t *testing.T) {
	s := scene.New(600, 314)
	s.SetLanguage("ar", true)
	s.AddFont("https://fonts.googleapis.com/css2?family=Cairo:wght@400")
	s.Append(&scene.Element{ID: "image", Kind: scene.KindImage, Label: "Background",
		Box:   scene.Box{W: 600, H: 314},
		Image: scene.ResolvedImage("mem://a", image.NewNRGBA(image.Rect(0, 0, 40, 20))),
		Style: scene.Style{Background: "#4a90e2"}})
	s.Append(&scene.Element{ID: "headline", Kind: scene.KindHeadline, Label: "Headline",
		Text:  "<Sale> & more",
		Box:   scene.Box{X: 10, Y: 20, W: 300, H: 60},
		Style: scene.Style{FontURL: "https://fonts.googleapis.com/css2?family=Cairo:wght@400", FontSize: 28, Color: "#ffffff", Direction: scene.RTL}})
	s.Append(&scene.Element{ID: "cta", Kind: scene.KindCTA, Label: "Call to action", Text: "Buy",
		Box: scene.Box{X: 10, Y: 100, W: 80, H: 30}, HoverTransform: scene.Transform{DX: 4}, Hovered: true,
		Style: scene.Style{Background: "#ff0000", Radius: 40}})

	doc := string(RenderHTML(s, staticFamilies{"https://fonts.googleapis.com/css2?family=Cairo:wght@400": "Cairo"}))

	for _, want := range []string{
		`<html lang="ar" dir="rtl">`,
		`<link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Cairo:wght@400">`,
		`id="ad"`,
		`width:600.00px;height:314.00px`,
		`data:image/png;base64,`,
		`&lt;Sale&gt; &amp; more`,
		`font-family:'Cairo', `,
		`direction:rtl;`,
		`left:14.00px`,          // hovered CTA carries its nudge
		`border-radius:15.0px;`, // clamped to half the height
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if strings.Contains(doc, "<Sale>") {
		t.Error("text was not escaped")
	}
}

func TestRenderHTMLBrokenImage(t *testing.T) {
	s := scene.New(100, 100)
	h := scene.NewImageHandle("https://example.invalid/x.png")
	h.Resolve(nil, errors.New("load failed"))
	s.Append(&scene.Element{ID: "image", Kind: scene.KindImage, Label: "Background", Image: h,
		Box: scene.Box{W: 100, H: 100}})

	doc := string(RenderHTML(s, nil))
	if !strings.Contains(doc, "Image unavailable") {
		t.Error("broken image should render the unavailable notice")
	}
	if strings.Contains(doc, "<img") {
		t.Error("broken image should not emit an img tag")
	}
}

func TestRenderHTMLEscapesFontURLs(t *testing.T) {
	s := scene.New(100, 100)
	bad := "https://evil.example/a.ttf?x=</style><script>alert(1)</script>"
	s.AddFont(bad)
	s.AddFont("javascript:alert(1)")
	s.Append(&scene.Element{ID: "headline", Kind: scene.KindHeadline, Text: "Hi",
		Box:   scene.Box{W: 100, H: 40},
		Style: scene.Style{FontURL: bad, FontSize: 20, Color: "#ffffff"}})

	doc := string(RenderHTML(s, staticFamilies{bad: `Evil" onload="x`}))
	for _, unwanted := range []string{"<script", "</style><script", "javascript:", `" onload=`} {
		if strings.Contains(doc, unwanted) {
			t.Errorf("document contains %q:\n%s", unwanted, doc)
		}
	}
	if !strings.Contains(doc, `src:url('https://evil.example/a.ttf?x=\3c /style\3e \3c script\3e alert(1)\3c /script\3e ')`) {
		t.Errorf("font URL not escaped as a CSS string:\n%s", doc)
	}
	if !strings.Contains(doc, `font-family:'Evil\22  onload=\22 x', `) {
		t.Errorf("family not escaped as a CSS string:\n%s", doc)
	}
}

func TestCSSString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Roboto", `'Roboto'`},
		{"Noto Sans Arabic", `'Noto Sans Arabic'`},
		{`it's`, `'it\'s'`},
		{`a\b`, `'a\\b'`},
		{"a\nb", `'a\a b'`},
		{"</style>", `'\3c /style\3e '`},
	}
	for _, tt := range tests {
		if got := cssString(tt.in); got != tt.want {
			t.Errorf("cssString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestChromeRasterizerNamesSessionFonts(t *testing.T) {
	roboto := "https://fonts.googleapis.com/css2?family=Roboto:wght@400"
	s := scene.New(100, 100)
	s.AddFont(roboto)
	s.Append(&scene.Element{ID: "headline", Kind: scene.KindHeadline, Text: "Hi",
		Box:   scene.Box{W: 100, H: 40},
		Style: scene.Style{FontURL: roboto, FontSize: 20, Color: "#ffffff"}})

	// As configured by the CLI: no families until a session supplies them.
	base := NewChromeRasterizer(WithExecPath(""))
	if doc := string(RenderHTML(s, base.families)); !strings.Contains(doc, `font-family:'Roboto', `) {
		t.Errorf("font family missing without a registry:\n%s", doc)
	}

	session := base.ForFamilies(staticFamilies{roboto: "Roboto Flex"})
	if doc := string(RenderHTML(s, session.families)); !strings.Contains(doc, `font-family:'Roboto Flex', `) {
		t.Errorf("session family not used:\n%s", doc)
	}
	if base.families != nil {
		t.Error("ForFamilies modified the shared rasterizer")
	}
	var nilChrome *ChromeRasterizer
	if nilChrome.ForFamilies(staticFamilies{}) != nil {
		t.Error("ForFamilies on nil should stay nil")
	}
}
