package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/matzehuels/adstudio/pkg/core/scene"
)

// ChromeOption configures a [ChromeRasterizer].
type ChromeOption func(*ChromeRasterizer)

// WithChromeTimeout bounds a single screenshot, browser startup included.
func WithChromeTimeout(d time.Duration) ChromeOption {
	return func(r *ChromeRasterizer) { r.timeout = d }
}

// WithExecPath points at a specific Chrome or Chromium binary.
func WithExecPath(path string) ChromeOption {
	return func(r *ChromeRasterizer) {
		if path != "" {
			r.allocOpts = append(r.allocOpts, chromedp.ExecPath(path))
		}
	}
}

// ChromeRasterizer screenshots the scene's HTML rendering in headless
// Chrome. Each call starts its own browser.
type ChromeRasterizer struct {
	allocOpts []chromedp.ExecAllocatorOption
	timeout   time.Duration
	families  FamilySource
}

// NewChromeRasterizer creates a rasterizer with a 20s timeout.
func NewChromeRasterizer(opts ...ChromeOption) *ChromeRasterizer {
	r := &ChromeRasterizer{timeout: 20 * time.Second}
	r.allocOpts = append(r.allocOpts, chromedp.DefaultExecAllocatorOptions[:]...)
	r.allocOpts = append(r.allocOpts,
		chromedp.Flag("headless", "new"),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ForFamilies returns a copy of r that names fonts through f. Runners
// call it per session so the HTML carries that session's font families.
func (r *ChromeRasterizer) ForFamilies(f FamilySource) *ChromeRasterizer {
	if r == nil {
		return nil
	}
	c := *r
	c.families = f
	return &c
}

// Name returns "chrome".
func (r *ChromeRasterizer) Name() string { return "chrome" }

// Rasterize renders s to HTML, loads it from a temp file and captures the
// #ad element at the given device scale.
func (r *ChromeRasterizer) Rasterize(ctx context.Context, s *scene.Scene, scale float64) (image.Image, error) {
	f, err := os.CreateTemp("", "adstudio-*.html")
	if err != nil {
		return nil, fmt.Errorf("create temp page: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(RenderHTML(s, r.families)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp page: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocOpts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	w, h := s.Size()
	var buf []byte
	var fontsReady bool
	if err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(w+0.5), int64(h+0.5), chromedp.EmulateScale(scale)),
		chromedp.Navigate("file://"+f.Name()),
		chromedp.Poll(`document.fonts.status === "loaded"`, &fontsReady, chromedp.WithPollingTimeout(5*time.Second)),
		chromedp.Screenshot("#ad", &buf, chromedp.ByID, chromedp.NodeVisible),
	); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}

var _ Rasterizer = (*ChromeRasterizer)(nil)
