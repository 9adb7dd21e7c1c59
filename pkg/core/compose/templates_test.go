package compose

import (
	"math"
	"testing"

	"github.com/matzehuels/adstudio/pkg/core/scene"
)

func checkDescriptors(t *testing.T, id TemplateID) {
	t.Helper()
	c := NewState(id).Colors
	g := GradientFor(id, c)
	if len(g.Gradient.Stops) < 2 {
		t.Errorf("%q: gradient has %d stops", id, len(g.Gradient.Stops))
	}
	if g.Band <= 0 || g.Band > 1 {
		t.Errorf("%q: band = %v", id, g.Band)
	}
	for _, s := range g.Gradient.Stops {
		if s.Color == "" || math.IsNaN(s.Alpha) || s.Alpha < 0 || s.Alpha > 1 {
			t.Errorf("%q: malformed stop %+v", id, s)
		}
	}

	tx := TextFor(id, c)
	if tx.HeadlineSize <= 0 || tx.DescriptionSize <= 0 || tx.Width <= 0 || tx.Width > 1 {
		t.Errorf("%q: malformed text style %+v", id, tx)
	}
	switch tx.Align {
	case scene.AlignStart, scene.AlignCenter, scene.AlignEnd:
	default:
		t.Errorf("%q: align = %q", id, tx.Align)
	}

	b := ButtonFor(id, c)
	if b.FontSize <= 0 || b.FontWeight <= 0 || b.PaddingX <= 0 {
		t.Errorf("%q: malformed button style %+v", id, b)
	}
}

func TestStyleResolutionTotal(t *testing.T) {
	ids := []TemplateID{"", "MODERN", "modern ", "no-such-template", "<script>", "🎨", "luxury_jewelry"}
	for _, tmpl := range Templates() {
		ids = append(ids, tmpl.ID)
	}
	for _, id := range ids {
		t.Run(string(id), func(t *testing.T) {
			checkDescriptors(t, id)
		})
	}
}

func TestUnknownTemplateFallsBackToMinimal(t *testing.T) {
	c := NewState(TemplateMinimal).Colors
	got := TextFor("garbage", c)
	want := TextFor(TemplateMinimal, c)
	if got != want {
		t.Errorf("TextFor(garbage) = %+v, want minimal %+v", got, want)
	}
	if _, ok := Lookup("garbage"); ok {
		t.Error("Lookup(garbage) reported a known template")
	}
	if tmpl, ok := Lookup(TemplateModern); !ok || tmpl.ID != TemplateModern {
		t.Errorf("Lookup(modern) = %q, %v", tmpl.ID, ok)
	}
}

func TestTemplatesSorted(t *testing.T) {
	all := Templates()
	if len(all) != 9 {
		t.Errorf("len(Templates()) = %d, want 9", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("templates not sorted at %d: %q >= %q", i, all[i-1].ID, all[i].ID)
		}
	}
}

func TestIsRTL(t *testing.T) {
	tests := []struct {
		lang string
		want bool
	}{
		{"ar", true},
		{"he", true},
		{"fa", true},
		{"ur", true},
		{"AR-eg", true},
		{"he_IL", true},
		{"en", false},
		{"de-DE", false},
		{"", false},
		{"arx", false},
	}
	for _, tt := range tests {
		if got := IsRTL(tt.lang); got != tt.want {
			t.Errorf("IsRTL(%q) = %v, want %v", tt.lang, got, tt.want)
		}
	}
}

func TestDirectionMirrorsAlignment(t *testing.T) {
	tests := []struct {
		lang      string
		align     scene.Align
		wantDir   scene.Direction
		wantAlign scene.Align
	}{
		{"en", scene.AlignStart, scene.LTR, scene.AlignStart},
		{"ar", scene.AlignStart, scene.RTL, scene.AlignEnd},
		{"ar", scene.AlignEnd, scene.RTL, scene.AlignStart},
		{"he", scene.AlignCenter, scene.RTL, scene.AlignCenter},
	}
	for _, tt := range tests {
		dir, align := direction(tt.lang, tt.align)
		if dir != tt.wantDir || align != tt.wantAlign {
			t.Errorf("direction(%q, %q) = %q, %q; want %q, %q", tt.lang, tt.align, dir, align, tt.wantDir, tt.wantAlign)
		}
	}
}

func TestPlatforms(t *testing.T) {
	p, err := PlatformByID("instagram-story")
	if err != nil {
		t.Fatal(err)
	}
	if w, h := p.PreviewSize(); w != 540 || h != 960 {
		t.Errorf("preview = %vx%v, want 540x960", w, h)
	}
	if _, err := PlatformByID("myspace"); err == nil {
		t.Error("unknown platform should fail")
	}
	if p, err := PlatformByID(""); err != nil || p.ID != DefaultPlatform {
		t.Errorf("empty platform = %q, %v", p.ID, err)
	}
	if n := len(Platforms()); n != 6 {
		t.Errorf("len(Platforms()) = %d, want 6", n)
	}
}
