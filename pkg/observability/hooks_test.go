package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

type countingNav struct {
	NoopNavigationHooks
	mu      sync.Mutex
	changes [][2]int
}

func (c *countingNav) OnIndexChange(from, to int) {
	c.mu.Lock()
	c.changes = append(c.changes, [2]int{from, to})
	c.mu.Unlock()
}

type capturePipeline struct{ NoopPipelineHooks }
type captureCapture struct{ NoopCaptureHooks }
type captureCache struct{ NoopCacheHooks }
type captureHTTP struct{ NoopHTTPHooks }

func TestRegistry(t *testing.T) {
	t.Cleanup(Reset)

	tests := []struct {
		name    string
		install func()
		get     func() any
		isNoop  func(any) bool
	}{
		{"pipeline", func() { SetPipelineHooks(&capturePipeline{}) }, func() any { return Pipeline() },
			func(h any) bool { _, ok := h.(NoopPipelineHooks); return ok }},
		{"capture", func() { SetCaptureHooks(&captureCapture{}) }, func() any { return Capture() },
			func(h any) bool { _, ok := h.(NoopCaptureHooks); return ok }},
		{"navigation", func() { SetNavigationHooks(&countingNav{}) }, func() any { return Navigation() },
			func(h any) bool { _, ok := h.(NoopNavigationHooks); return ok }},
		{"cache", func() { SetCacheHooks(&captureCache{}) }, func() any { return Cache() },
			func(h any) bool { _, ok := h.(NoopCacheHooks); return ok }},
		{"http", func() { SetHTTPHooks(&captureHTTP{}) }, func() any { return HTTP() },
			func(h any) bool { _, ok := h.(NoopHTTPHooks); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			if !tt.isNoop(tt.get()) {
				t.Fatal("default should be the no-op hooks")
			}
			tt.install()
			if tt.isNoop(tt.get()) {
				t.Fatal("installed hooks not returned")
			}
			Reset()
			if !tt.isNoop(tt.get()) {
				t.Error("Reset should restore the no-op hooks")
			}
		})
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	t.Cleanup(Reset)

	nav := &countingNav{}
	SetNavigationHooks(nav)
	SetNavigationHooks(nil)
	SetCaptureHooks(nil)

	Navigation().OnIndexChange(2, 3)
	if len(nav.changes) != 1 || nav.changes[0] != [2]int{2, 3} {
		t.Errorf("changes = %v", nav.changes)
	}
	if _, ok := Capture().(NoopCaptureHooks); !ok {
		t.Error("nil capture hooks should leave the default in place")
	}
}

func TestConcurrentReadsDuringInstall(t *testing.T) {
	t.Cleanup(Reset)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				Navigation().OnIndexChange(j, j+1)
				Cache().OnCacheHit(context.Background(), "artifact")
			}
		}()
	}
	for i := 0; i < 50; i++ {
		SetNavigationHooks(&countingNav{})
		SetCacheHooks(&captureCache{})
	}
	wg.Wait()
}

func TestLogHooks(t *testing.T) {
	t.Cleanup(Reset)

	var buf bytes.Buffer
	NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})).Install()

	ctx := context.Background()
	Pipeline().OnGenerateComplete(ctx, "161026-summer-sale.png", 40*time.Millisecond, nil)
	Capture().OnStrategyFailed(ctx, "chrome", errors.New("no browser"))
	Navigation().OnLockTimeout(3)
	Cache().OnCacheMiss(ctx, "image")
	HTTP().OnResponse(ctx, "GET", "cdn.example.com", "/hero.jpg", 200, time.Millisecond)

	out := buf.String()
	for _, want := range []string{"161026-summer-sale.png", "no browser", "lock timed out", "cache miss", "cdn.example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksQuietAboveDebug(t *testing.T) {
	t.Cleanup(Reset)

	var buf bytes.Buffer
	NewLogHooks(log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})).Install()
	Navigation().OnConfirm(1, time.Millisecond)

	if buf.Len() != 0 {
		t.Errorf("info-level logger wrote %q", buf.String())
	}
}
