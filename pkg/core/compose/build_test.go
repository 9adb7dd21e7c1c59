package compose

import (
	"image"
	"testing"

	"github.com/matzehuels/adstudio/pkg/core/fit"
	"github.com/matzehuels/adstudio/pkg/core/scene"
	adserrors "github.com/matzehuels/adstudio/pkg/errors"
)

type staticImages map[string]*scene.ImageHandle

func (m staticImages) Handle(url string) *scene.ImageHandle {
	if h, ok := m[url]; ok {
		return h
	}
	return scene.NewImageHandle(url)
}

type fontLog []string

func (f *fontLog) Register(url string) { *f = append(*f, url) }

func sampleState() State {
	st := NewState(TemplateModern)
	st.Name = "Summer Sale"
	st.Headline = "Summer Sale"
	st.Description = "Up to 50% off everything"
	st.CTA = "Shop now"
	st.ImageURL = "https://example.com/beach.jpg"
	st.FontURL = "https://fonts.googleapis.com/css2?family=Roboto:wght@400"
	return st
}

func TestBuildLayerOrder(t *testing.T) {
	var fonts fontLog
	s, err := Build(sampleState(), BuildOptions{Fonts: &fonts})
	if err != nil {
		t.Fatal(err)
	}

	var kinds []scene.Kind
	var labels []string
	s.View(func(root *scene.Element) {
		for _, e := range root.Children {
			kinds = append(kinds, e.Kind)
			labels = append(labels, e.Label)
		}
	})
	if len(kinds) != len(scene.LayerOrder) {
		t.Fatalf("layers = %v, want %v", kinds, scene.LayerOrder)
	}
	for i, k := range scene.LayerOrder {
		if kinds[i] != k {
			t.Errorf("layer %d = %q, want %q", i, kinds[i], k)
		}
		if labels[i] == "" {
			t.Errorf("layer %q has no accessible label", kinds[i])
		}
	}

	if w, h := s.Size(); w != 600 || h != 314 {
		t.Errorf("scene size = %vx%v, want 600x314", w, h)
	}
	if len(fonts) != 1 || fonts[0] != sampleState().FontURL {
		t.Errorf("registered fonts = %v", fonts)
	}
}

func TestBuildOmitsEmptyText(t *testing.T) {
	st := sampleState()
	st.Description = ""
	st.CTA = ""
	s, err := Build(st, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Find(IDDescription); ok {
		t.Error("empty description should not produce a layer")
	}
	if _, ok := s.Find(IDCTA); ok {
		t.Error("empty CTA should not produce a layer")
	}
	if _, ok := s.Find(IDHeadline); !ok {
		t.Error("headline missing")
	}
}

func TestBuildRTL(t *testing.T) {
	st := sampleState()
	st.Template = TemplateCorporate // start-aligned
	st.Language = "ar"
	s, err := Build(st, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, rtl := s.Language(); !rtl {
		t.Error("scene not marked RTL")
	}
	for _, id := range []string{IDHeadline, IDDescription, IDCTA} {
		e, ok := s.Find(id)
		if !ok {
			t.Fatalf("%s missing", id)
		}
		if e.Style.Direction != scene.RTL {
			t.Errorf("%s direction = %q, want rtl", id, e.Style.Direction)
		}
	}
	head, _ := s.Find(IDHeadline)
	if head.Style.Align != scene.AlignEnd {
		t.Errorf("headline align = %q, want end", head.Style.Align)
	}
	cta, _ := s.Find(IDCTA)
	if cta.HoverTransform.DX >= 0 {
		t.Errorf("RTL hover nudge = %v, want negative", cta.HoverTransform.DX)
	}
}

func TestBuildAppliesPositions(t *testing.T) {
	st := sampleState()
	base, _ := Build(st, BuildOptions{})
	st.Positions.Headline = Position{X: 15, Y: -20}
	moved, _ := Build(st, BuildOptions{})

	a, _ := base.Find(IDHeadline)
	b, _ := moved.Find(IDHeadline)
	if b.Box.X-a.Box.X != 15 || b.Box.Y-a.Box.Y != -20 {
		t.Errorf("headline moved by (%v, %v), want (15, -20)", b.Box.X-a.Box.X, b.Box.Y-a.Box.Y)
	}
	da, _ := base.Find(IDDescription)
	db, _ := moved.Find(IDDescription)
	if da.Box != db.Box {
		t.Error("moving the headline moved the description")
	}
}

func TestBuildImageLayerFits(t *testing.T) {
	st := sampleState()
	st.Positions.Image = Position{X: 10}
	images := staticImages{st.ImageURL: scene.ResolvedImage(st.ImageURL, image.NewNRGBA(image.Rect(0, 0, 1200, 600)))}

	s, err := Build(st, BuildOptions{Images: images, PanMode: fit.PanUnbounded})
	if err != nil {
		t.Fatal(err)
	}
	img, _ := s.Find(IDImage)
	if img.Style.Background != st.Colors.Accent {
		t.Errorf("image background = %q, want accent %q", img.Style.Background, st.Colors.Accent)
	}
	r, ok := img.CoverRect()
	if !ok {
		t.Fatal("cover rect unavailable for a loaded image")
	}
	want, _ := fit.ComputeCover(1200, 600, 600, 314, 10, 0)
	if r != want {
		t.Errorf("cover = %+v, want %+v", r, want)
	}
}

func TestBuildInvalidPlatform(t *testing.T) {
	st := sampleState()
	st.Platform = "myspace"
	if _, err := Build(st, BuildOptions{}); !adserrors.Is(err, adserrors.ErrCodeInvalidPlatform) {
		t.Errorf("err = %v, want INVALID_PLATFORM", err)
	}
}

func TestBuildGarbageTemplate(t *testing.T) {
	st := sampleState()
	st.Template = "does-not-exist"
	st.Colors = ColorScheme{}
	s, err := Build(st, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	overlay, ok := s.Layer(scene.KindOverlay)
	if !ok || overlay.Style.Gradient == nil {
		t.Error("garbage template should still produce an overlay gradient")
	}
}
