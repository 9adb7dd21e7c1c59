package capture

import (
	"context"
	"image"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/adstudio/pkg/core/scene"
	adserrors "github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/observability"
)

// Defaults for the capture protocol.
const (
	DefaultScale        = 2.0
	DefaultImageTimeout = 1500 * time.Millisecond
	DefaultFontTimeout  = time.Second
	DefaultSettleDelay  = 150 * time.Millisecond
	DefaultMinInterval  = 500 * time.Millisecond
)

// StrategyPlaceholder names the placeholder in [Artifact.Strategy].
const StrategyPlaceholder = "placeholder"

// Artifact is an encoded capture.
type Artifact struct {
	Data     []byte
	Format   Format
	Width    int
	Height   int
	Strategy string // rasterizer that produced the image
	Degraded bool   // true when the placeholder was emitted
	Duration time.Duration
}

// ContentType returns the artifact's MIME type.
func (a *Artifact) ContentType() string { return a.Format.ContentType() }

// Option configures a [Capturer].
type Option func(*Capturer)

// WithPrimary sets the first rasterization strategy.
func WithPrimary(r Rasterizer) Option { return func(c *Capturer) { c.primary = r } }

// WithFallback sets the second rasterization strategy.
func WithFallback(r Rasterizer) Option { return func(c *Capturer) { c.fallback = r } }

// WithFonts sets what capture waits on before rasterizing.
func WithFonts(f FontWaiter) Option { return func(c *Capturer) { c.fonts = f } }

// WithStage sets the off-screen stage clones are mounted on.
func WithStage(s *scene.Stage) Option { return func(c *Capturer) { c.stage = s } }

// WithScale sets the device scale (default 2).
func WithScale(s float64) Option { return func(c *Capturer) { c.scale = s } }

// WithFormat sets the output encoding and JPEG quality.
func WithFormat(f Format, quality int) Option {
	return func(c *Capturer) { c.format, c.quality = f, quality }
}

// WithImageTimeout caps the wait for each image.
func WithImageTimeout(d time.Duration) Option { return func(c *Capturer) { c.imageTimeout = d } }

// WithFontTimeout caps the wait for fonts.
func WithFontTimeout(d time.Duration) Option { return func(c *Capturer) { c.fontTimeout = d } }

// WithSettleDelay sets the pause after fonts resolve.
func WithSettleDelay(d time.Duration) Option { return func(c *Capturer) { c.settle = d } }

// WithMinInterval sets the minimum spacing between jobs.
func WithMinInterval(d time.Duration) Option { return func(c *Capturer) { c.minInterval = d } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Capturer) {
		if l != nil {
			c.logger = l
		}
	}
}

// Capturer rasterizes scenes one job at a time.
type Capturer struct {
	primary      Rasterizer
	fallback     Rasterizer
	fonts        FontWaiter
	stage        *scene.Stage
	scale        float64
	format       Format
	quality      int
	imageTimeout time.Duration
	fontTimeout  time.Duration
	settle       time.Duration
	minInterval  time.Duration
	logger       *log.Logger

	jobs atomic.Uint64

	mu      sync.Mutex
	running bool
	pending *job
	lastEnd time.Time
}

type job struct {
	id    uint64
	ctx   context.Context
	scene *scene.Scene
	done  chan struct{}
	art   *Artifact
	err   error
}

// New creates a capturer. Without options it uses the native rasterizer as
// the only strategy and encodes PNG at 2x.
func New(opts ...Option) *Capturer {
	c := &Capturer{
		scale:        DefaultScale,
		format:       FormatPNG,
		imageTimeout: DefaultImageTimeout,
		fontTimeout:  DefaultFontTimeout,
		settle:       DefaultSettleDelay,
		minInterval:  DefaultMinInterval,
		logger:       log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.primary == nil {
		c.primary = NewNativeRasterizer(nil)
	}
	if c.stage == nil {
		c.stage = scene.NewStage()
	}
	return c
}

// Stage returns the stage clones are mounted on.
func (c *Capturer) Stage() *scene.Stage { return c.stage }

// Capture rasterizes s and returns the encoded artifact.
//
// If a job is running, the request waits as the single pending job; if a
// pending job already exists, the request joins it and the pending job
// captures the most recently requested scene. Cancelling ctx abandons the
// wait but never the job itself.
func (c *Capturer) Capture(ctx context.Context, s *scene.Scene) (*Artifact, error) {
	c.mu.Lock()
	var j *job
	switch {
	case !c.running:
		j = c.newJob(ctx, s)
		c.running = true
		go c.run(j)
	case c.pending == nil:
		j = c.newJob(ctx, s)
		c.pending = j
	default:
		j = c.pending
		j.scene = s
	}
	c.mu.Unlock()

	select {
	case <-j.done:
		return j.art, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Capturer) newJob(ctx context.Context, s *scene.Scene) *job {
	return &job{
		id:    c.jobs.Add(1),
		ctx:   context.WithoutCancel(ctx),
		scene: s,
		done:  make(chan struct{}),
	}
}

func (c *Capturer) run(j *job) {
	for j != nil {
		c.mu.Lock()
		var wait time.Duration
		if !c.lastEnd.IsZero() {
			wait = c.minInterval - time.Since(c.lastEnd)
		}
		c.mu.Unlock()
		if wait > 0 {
			time.Sleep(wait)
		}
		// A late joiner may have replaced the scene while we slept.
		c.mu.Lock()
		if c.pending == j {
			c.pending = nil
		}
		s := j.scene
		c.mu.Unlock()

		j.art, j.err = c.capture(j.ctx, j.id, s)

		c.mu.Lock()
		c.lastEnd = time.Now()
		close(j.done)
		j = c.pending
		c.pending = nil
		if j == nil {
			c.running = false
		}
		c.mu.Unlock()
	}
}

func (c *Capturer) capture(ctx context.Context, id uint64, s *scene.Scene) (*Artifact, error) {
	start := time.Now()
	hooks := observability.Capture()
	hooks.OnCaptureStart(ctx, id)

	// 1. images
	c.waitImages(ctx, s)

	// 2. fonts, then settle
	c.waitFonts(ctx)
	if c.settle > 0 {
		time.Sleep(c.settle)
	}

	// 3. hover state; restored in 6.
	restore := s.NeutralizeHover()
	var mount *scene.Mount
	defer func() {
		restore()
		if mount != nil {
			mount.Unmount()
		}
	}()

	// 4. off-screen clone
	mount = c.stage.Mount(s.Clone())

	// 5. rasterize
	w, h := s.Size()
	pw, ph := int(math.Round(w*c.scale)), int(math.Round(h*c.scale))
	img, strategy := c.rasterize(ctx, mount.Scene, pw, ph)
	degraded := strategy == StrategyPlaceholder

	data, err := Encode(img, c.format, c.quality)
	if err != nil && !degraded {
		c.logger.Error("encode failed, emitting placeholder", "strategy", strategy, "err", err)
		strategy, degraded = StrategyPlaceholder, true
		data, err = Encode(Placeholder(pw, ph), c.format, c.quality)
	}
	if err != nil {
		err = adserrors.Wrap(adserrors.ErrCodeCapture, err, "encode %s", c.format)
		hooks.OnCaptureComplete(ctx, id, strategy, degraded, time.Since(start), err)
		return nil, err
	}

	art := &Artifact{
		Data:     data,
		Format:   c.format,
		Width:    pw,
		Height:   ph,
		Strategy: strategy,
		Degraded: degraded,
		Duration: time.Since(start),
	}
	hooks.OnCaptureComplete(ctx, id, strategy, degraded, art.Duration, nil)
	return art, nil
}

func (c *Capturer) waitImages(ctx context.Context, s *scene.Scene) {
	var g errgroup.Group
	for _, h := range s.Images() {
		g.Go(func() error {
			wctx, cancel := context.WithTimeout(ctx, c.imageTimeout)
			defer cancel()
			if err := h.Wait(wctx); err != nil {
				c.logger.Warn("image not ready for capture", "url", h.URL, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Capturer) waitFonts(ctx context.Context) {
	if c.fonts == nil {
		return
	}
	fctx, cancel := context.WithTimeout(ctx, c.fontTimeout)
	defer cancel()
	if err := c.fonts.Wait(fctx); err != nil {
		c.logger.Warn("fonts not ready for capture", "err", err)
	}
}

// rasterize walks the strategy chain and always returns an image of the
// requested pixel size.
func (c *Capturer) rasterize(ctx context.Context, s *scene.Scene, pw, ph int) (image.Image, string) {
	for _, r := range []Rasterizer{c.primary, c.fallback} {
		if r == nil {
			continue
		}
		img, err := safeRasterize(ctx, r, s, c.scale)
		if err != nil {
			c.logger.Warn("rasterizer failed", "strategy", r.Name(), "err", err)
			observability.Capture().OnStrategyFailed(ctx, r.Name(), err)
			continue
		}
		if b := img.Bounds(); b.Dx() != pw || b.Dy() != ph {
			img = imaging.Resize(img, pw, ph, imaging.Lanczos)
		}
		return img, r.Name()
	}
	c.logger.Error("all rasterizers failed, emitting placeholder")
	return Placeholder(pw, ph), StrategyPlaceholder
}
