package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/adstudio/pkg/core/scene"
)

// fakeRasterizer records how it was called and returns a blank bitmap.
type fakeRasterizer struct {
	name  string
	err   error
	gate  chan struct{} // when set, Rasterize blocks until it is closed
	check func(s *scene.Scene)

	active    atomic.Int32
	maxActive atomic.Int32
	calls     atomic.Int32

	mu    sync.Mutex
	sizes []float64
}

func (f *fakeRasterizer) Name() string { return f.name }

func (f *fakeRasterizer) Rasterize(ctx context.Context, s *scene.Scene, scale float64) (image.Image, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxActive.Load()
		if n <= m || f.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	f.calls.Add(1)
	w, h := s.Size()
	f.mu.Lock()
	f.sizes = append(f.sizes, w)
	f.mu.Unlock()

	if f.check != nil {
		f.check(s)
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return image.NewNRGBA(image.Rect(0, 0, int(w*scale), int(h*scale))), nil
}

func (f *fakeRasterizer) rasterized() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.sizes...)
}

func testScene(w float64) *scene.Scene {
	s := scene.New(w, 50)
	s.Append(&scene.Element{ID: "cta", Kind: scene.KindCTA, Label: "Call to action", Text: "Go",
		Box: scene.Box{X: 10, Y: 10, W: 40, H: 20}, HoverTransform: scene.Transform{DX: 4}})
	return s
}

func fastOptions(opts ...Option) []Option {
	return append([]Option{
		WithSettleDelay(0),
		WithMinInterval(0),
		WithImageTimeout(20 * time.Millisecond),
		WithFontTimeout(20 * time.Millisecond),
	}, opts...)
}

func TestCaptureNativeScale(t *testing.T) {
	c := New(fastOptions()...)
	art, err := c.Capture(context.Background(), testScene(100))
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if art.Width != 200 || art.Height != 100 {
		t.Errorf("artifact size = %dx%d, want 200x100", art.Width, art.Height)
	}
	if art.Strategy != "native" || art.Degraded {
		t.Errorf("strategy = %q degraded = %v", art.Strategy, art.Degraded)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(art.Data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 200 || cfg.Height != 100 {
		t.Errorf("encoded size = %dx%d, want 200x100", cfg.Width, cfg.Height)
	}
}

func TestCapturePlaceholderWhenEverythingFails(t *testing.T) {
	s := testScene(100)
	broken := scene.NewImageHandle("https://example.invalid/a.png")
	broken.Resolve(nil, errors.New("404"))
	s.Append(&scene.Element{ID: "image", Kind: scene.KindImage, Label: "Background", Image: broken,
		Box: scene.Box{W: 100, H: 50}})
	s.Append(&scene.Element{ID: "hang", Kind: scene.KindImage, Label: "Never loads",
		Image: scene.NewImageHandle("https://example.invalid/b.png")})

	primary := &fakeRasterizer{name: "chrome", err: errors.New("browser crashed")}
	c := New(fastOptions(WithPrimary(primary))...)

	start := time.Now()
	art, err := c.Capture(context.Background(), s)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("capture waited %v on a hanging image", time.Since(start))
	}
	if !art.Degraded || art.Strategy != StrategyPlaceholder {
		t.Errorf("strategy = %q degraded = %v, want placeholder", art.Strategy, art.Degraded)
	}
	if len(art.Data) == 0 {
		t.Fatal("placeholder artifact is empty")
	}
	if _, err := png.Decode(bytes.NewReader(art.Data)); err != nil {
		t.Errorf("placeholder is not a valid PNG: %v", err)
	}
}

type panicRasterizer struct{}

func (panicRasterizer) Name() string { return "panicky" }
func (panicRasterizer) Rasterize(context.Context, *scene.Scene, float64) (image.Image, error) {
	panic("boom")
}

func TestCaptureFallsBackAfterPanic(t *testing.T) {
	fallback := &fakeRasterizer{name: "fallback"}
	c := New(fastOptions(WithPrimary(panicRasterizer{}), WithFallback(fallback))...)
	art, err := c.Capture(context.Background(), testScene(100))
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if art.Strategy != "fallback" || art.Degraded {
		t.Errorf("strategy = %q degraded = %v, want fallback", art.Strategy, art.Degraded)
	}
}

func TestCaptureResizesWrongSizedOutput(t *testing.T) {
	c := New(fastOptions(WithPrimary(&fakeRasterizer{name: "fake"}), WithScale(3))...)
	art, err := c.Capture(context.Background(), testScene(100))
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(art.Data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 300 || cfg.Height != 150 {
		t.Errorf("encoded size = %dx%d, want 300x150", cfg.Width, cfg.Height)
	}
}

func TestCaptureNeutralizesHoverAndUnmounts(t *testing.T) {
	live := testScene(100)
	live.SetHovered("cta", true)
	stage := scene.NewStage()

	var sawHover, sawLive bool
	var mounted int
	primary := &fakeRasterizer{name: "fake", check: func(s *scene.Scene) {
		sawHover = live.HoverActive() || s.HoverActive()
		sawLive = s == live
		mounted = stage.Len()
	}}
	c := New(fastOptions(WithPrimary(primary), WithStage(stage))...)
	if _, err := c.Capture(context.Background(), live); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if sawHover {
		t.Error("hover state was active during rasterization")
	}
	if sawLive {
		t.Error("rasterizer received the live scene instead of a clone")
	}
	if mounted != 1 {
		t.Errorf("stage held %d mounts during rasterization, want 1", mounted)
	}
	if !live.HoverActive() {
		t.Error("hover state was not restored")
	}
	if n := stage.Len(); n != 0 {
		t.Errorf("stage still holds %d mounts", n)
	}
}

func TestCaptureUnmountsOnFailure(t *testing.T) {
	stage := scene.NewStage()
	c := New(fastOptions(WithPrimary(&fakeRasterizer{name: "fake", err: errors.New("fail")}), WithStage(stage))...)
	if _, err := c.Capture(context.Background(), testScene(100)); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if n := stage.Len(); n != 0 {
		t.Errorf("stage still holds %d mounts", n)
	}
}

func TestCaptureNeverInterleaves(t *testing.T) {
	primary := &fakeRasterizer{name: "fake"}
	c := New(fastOptions(WithPrimary(primary))...)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Capture(context.Background(), testScene(100)); err != nil {
				t.Errorf("Capture: %v", err)
			}
		}()
	}
	wg.Wait()

	if m := primary.maxActive.Load(); m != 1 {
		t.Errorf("max concurrent rasterizations = %d, want 1", m)
	}
	if n := c.Stage().Len(); n != 0 {
		t.Errorf("stage still holds %d mounts", n)
	}
}

// waitPending polls until the pending job captures a scene of width w.
func waitPending(t *testing.T, c *Capturer, w float64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		ok := c.pending != nil
		if ok {
			pw, _ := c.pending.scene.Size()
			ok = pw == w
		}
		c.mu.Unlock()
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("pending job never picked up scene of width %v", w)
}

func waitCalls(t *testing.T, f *fakeRasterizer, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.calls.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("rasterizer called %d times, want %d", f.calls.Load(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCaptureCoalescesPendingRequests(t *testing.T) {
	gate := make(chan struct{})
	primary := &fakeRasterizer{name: "fake", gate: gate}
	c := New(fastOptions(WithPrimary(primary))...)

	type result struct {
		art *Artifact
		err error
	}
	first := make(chan result, 1)
	second := make(chan result, 1)
	third := make(chan result, 1)

	go func() { a, err := c.Capture(context.Background(), testScene(100)); first <- result{a, err} }()
	waitCalls(t, primary, 1)

	go func() { a, err := c.Capture(context.Background(), testScene(110)); second <- result{a, err} }()
	waitPending(t, c, 110)
	go func() { a, err := c.Capture(context.Background(), testScene(120)); third <- result{a, err} }()
	waitPending(t, c, 120)

	close(gate)
	r1, r2, r3 := <-first, <-second, <-third
	for _, r := range []result{r1, r2, r3} {
		if r.err != nil {
			t.Fatalf("Capture: %v", r.err)
		}
	}
	if r2.art != r3.art {
		t.Error("coalesced callers received different artifacts")
	}
	if n := primary.calls.Load(); n != 2 {
		t.Errorf("rasterizer ran %d times, want 2", n)
	}
	got := primary.rasterized()
	if len(got) != 2 || got[0] != 100 || got[1] != 120 {
		t.Errorf("rasterized widths = %v, want [100 120]", got)
	}
}

func TestCaptureCallerCancelDoesNotAbortJob(t *testing.T) {
	gate := make(chan struct{})
	primary := &fakeRasterizer{name: "fake", gate: gate}
	c := New(fastOptions(WithPrimary(primary))...)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Capture(ctx, testScene(100))
		errc <- err
	}()
	waitCalls(t, primary, 1)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	close(gate)
	art, err := c.Capture(context.Background(), testScene(100))
	if err != nil {
		t.Fatalf("Capture after cancel: %v", err)
	}
	if art.Degraded {
		t.Error("capture after cancel degraded")
	}
	if n := c.Stage().Len(); n != 0 {
		t.Errorf("stage still holds %d mounts", n)
	}
}

func TestCaptureMinInterval(t *testing.T) {
	c := New(
		WithPrimary(&fakeRasterizer{name: "fake"}),
		WithSettleDelay(0),
		WithMinInterval(80*time.Millisecond),
	)
	if _, err := c.Capture(context.Background(), testScene(100)); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if _, err := c.Capture(context.Background(), testScene(100)); err != nil {
		t.Fatal(err)
	}
	if el := time.Since(start); el < 60*time.Millisecond {
		t.Errorf("second job started after %v, want the min interval", el)
	}
}

func TestCaptureJPEG(t *testing.T) {
	c := New(fastOptions(WithFormat(FormatJPEG, 80))...)
	art, err := c.Capture(context.Background(), testScene(100))
	if err != nil {
		t.Fatal(err)
	}
	if art.ContentType() != "image/jpeg" {
		t.Errorf("content type = %q", art.ContentType())
	}
	if len(art.Data) < 3 || art.Data[0] != 0xff || art.Data[1] != 0xd8 {
		t.Error("artifact is not a JPEG")
	}
}
