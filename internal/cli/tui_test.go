package cli

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/adstudio/pkg/core/carousel"
	"github.com/matzehuels/adstudio/pkg/core/compose"
	"github.com/matzehuels/adstudio/pkg/pipeline"
)

// writePNG writes a 64×64 image that is dark where dark(x, y) holds.
func writePNG(t *testing.T, path string, dark func(x, y int) bool) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := color.Gray{Y: 230}
			if dark(x, y) {
				c.Y = 20
			}
			img.SetGray(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newBrowseTest(t *testing.T) (BrowseModel, *compose.Session) {
	t.Helper()
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	writePNG(t, a, func(x, _ int) bool { return x < 32 })
	writePNG(t, b, func(_, y int) bool { return y < 32 })

	set, err := carousel.NewSourceSet(a, b)
	if err != nil {
		t.Fatal(err)
	}
	st := compose.NewState(compose.TemplateMinimal)
	st.Name, st.Headline, st.CTA = "Browse Test", "Hello", "Go"

	sess, err := compose.NewSession(st,
		compose.WithSources(set),
		compose.WithLoader(compose.NewImageLoader(compose.WithLocalFiles())),
		compose.WithNavigatorOptions(carousel.WithGrace(time.Millisecond)),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sess.Close() })

	runner := pipeline.NewRunner(nil, nil, nil)
	runner.LocalFiles = true
	t.Cleanup(func() { runner.Close() })
	return NewBrowseModel(context.Background(), sess, runner, false, dir), sess
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseNavigate(t *testing.T) {
	m, sess := newBrowseTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m.Update(key("right"))
	if err := sess.Navigator().WaitIdle(ctx); err != nil {
		t.Fatalf("navigation never settled: %v", err)
	}
	if got := sess.Navigator().Index(); got != 1 {
		t.Errorf("Index() after right = %d, want 1", got)
	}
	if !strings.HasSuffix(sess.State().ImageURL, "b.png") {
		t.Errorf("ImageURL = %q, want b.png", sess.State().ImageURL)
	}

	m.Update(key("h"))
	if err := sess.Navigator().WaitIdle(ctx); err != nil {
		t.Fatalf("navigation never settled: %v", err)
	}
	if got := sess.Navigator().Index(); got != 0 {
		t.Errorf("Index() after h = %d, want 0", got)
	}
}

func TestBrowseCycleTemplateAndPlatform(t *testing.T) {
	m, sess := newBrowseTest(t)

	before := sess.State()
	m.Update(key("t"))
	m.Update(key("p"))
	after := sess.State()

	if after.Template == before.Template {
		t.Errorf("template did not change from %q", before.Template)
	}
	if after.Platform == before.Platform {
		t.Errorf("platform did not change from %q", before.Platform)
	}

	// Cycling through every template returns to the start.
	for i := 1; i < len(compose.Templates()); i++ {
		m.Update(key("t"))
	}
	if got := sess.State().Template; got != before.Template {
		t.Errorf("full template cycle ended at %q, want %q", got, before.Template)
	}
}

func TestBrowseRender(t *testing.T) {
	m, _ := newBrowseTest(t)

	next, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("enter should start a render")
	}
	bm := next.(BrowseModel)
	if !bm.busy {
		t.Error("model should be busy while rendering")
	}

	msg := cmd()
	next, _ = bm.Update(msg)
	bm = next.(BrowseModel)
	if bm.Err != nil {
		t.Fatalf("render error: %v", bm.Err)
	}
	if bm.Rendered == nil {
		t.Fatal("Rendered should be set")
	}
	path := filepath.Join(bm.outDir, bm.Rendered.FileName)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("rendered file missing: %v", err)
	}
	if !strings.Contains(bm.View(), "wrote ") {
		t.Error("view should report the written file")
	}
}

func TestBrowseDedupe(t *testing.T) {
	m, _ := newBrowseTest(t)

	next, cmd := m.Update(key("d"))
	if cmd == nil {
		t.Fatal("d should start duplicate detection")
	}
	next, _ = next.(BrowseModel).Update(cmd())
	if view := next.(BrowseModel).View(); !strings.Contains(view, "no duplicates") {
		t.Errorf("view should report no duplicates:\n%s", view)
	}
}

func TestBrowseQuit(t *testing.T) {
	m, _ := newBrowseTest(t)

	for _, k := range []string{"q", "esc"} {
		var msg tea.KeyMsg
		if k == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		} else {
			msg = key(k)
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s should quit", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should return tea.Quit", k)
		}
	}
}

func TestBrowseView(t *testing.T) {
	m, _ := newBrowseTest(t)
	view := m.View()

	for _, want := range []string{"Browse Test", "a.png", "b.png", "template", "platform"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
