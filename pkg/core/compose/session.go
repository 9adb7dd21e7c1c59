package compose

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/adstudio/pkg/core/capture"
	"github.com/matzehuels/adstudio/pkg/core/carousel"
	"github.com/matzehuels/adstudio/pkg/core/fit"
	"github.com/matzehuels/adstudio/pkg/core/scene"
	"github.com/matzehuels/adstudio/pkg/fonts"
)

// SessionOption configures a [Session].
type SessionOption func(*Session)

// WithLoader sets the image loader behind the session's preload cache.
func WithLoader(l Loader) SessionOption { return func(s *Session) { s.loader = l } }

// WithFontRegistry sets the font registry. The session closes it.
func WithFontRegistry(r *fonts.Registry) SessionOption { return func(s *Session) { s.fonts = r } }

// WithCaptureOptions are passed to the session's capturer after the
// session's own defaults.
func WithCaptureOptions(opts ...capture.Option) SessionOption {
	return func(s *Session) { s.captureOpts = append(s.captureOpts, opts...) }
}

// WithNavigatorOptions are passed to the carousel navigator.
func WithNavigatorOptions(opts ...carousel.NavigatorOption) SessionOption {
	return func(s *Session) { s.navOpts = append(s.navOpts, opts...) }
}

// WithSources seeds the carousel with candidate image URLs.
func WithSources(set *carousel.SourceSet) SessionOption { return func(s *Session) { s.sources = set } }

// WithPanMode selects clamped or unbounded image panning.
func WithPanMode(m fit.PanMode) SessionOption { return func(s *Session) { s.panMode = m } }

// WithSessionLogger sets the logger shared by the session's components.
func WithSessionLogger(l *log.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session is one editing session. It owns the image cache, font registry,
// drag controller, carousel and capturer, and tears them all down on Close.
type Session struct {
	loader      Loader
	fonts       *fonts.Registry
	sources     *carousel.SourceSet
	panMode     fit.PanMode
	captureOpts []capture.Option
	navOpts     []carousel.NavigatorOption
	logger      *log.Logger

	cache    *PreloadCache
	drag     *DragController
	nav      *carousel.Navigator
	tracker  *fit.Tracker
	capturer *capture.Capturer

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	imageRect  fit.Rect
	hasRect    bool
	natural    fit.Size
	hasNatural bool
	closed     bool
}

// NewSession starts a session for st.
func NewSession(st State, opts ...SessionOption) (*Session, error) {
	st.FillDefaults()
	p, err := PlatformByID(st.Platform)
	if err != nil {
		return nil, err
	}

	s := &Session{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = NewImageLoader(WithLoaderLogger(s.logger))
	}
	if s.fonts == nil {
		s.fonts = fonts.NewRegistry(fonts.WithLogger(s.logger))
	}
	if s.sources == nil {
		s.sources = &carousel.SourceSet{}
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.state = st
	s.cache = NewPreloadCache(s.loader)
	s.tracker = fit.NewTracker(s.setImageRect, fit.WithPanMode(s.panMode), fit.WithLogger(s.logger))
	s.tracker.Resize(fit.Size{Width: float64(p.Width) / 2, Height: float64(p.Height) / 2})
	s.drag = NewDragController(st.Positions, WithDragListener(s.moved))

	s.capturer = capture.New(append([]capture.Option{
		capture.WithFonts(s.fonts),
		capture.WithPrimary(capture.NewNativeRasterizer(s.fonts)),
		capture.WithLogger(s.logger),
	}, s.captureOpts...)...)

	s.nav = carousel.NewNavigator(s.sources, append([]carousel.NavigatorOption{
		carousel.WithLogger(s.logger),
		carousel.OnIndexChanged(s.indexChanged),
	}, s.navOpts...)...)
	s.cache.Preload(s.sources.URLs()...)

	if st.ImageURL == "" {
		if src, ok := s.sources.Current(); ok {
			s.state.ImageURL = src.URL
		}
	}
	s.watchImage(s.state.ImageURL)
	return s, nil
}

// State returns the composition state including the current positions.
func (s *Session) State() State {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	st.Positions = s.drag.Positions()
	return st
}

// Update applies fn to the state. Changing the template resets positions and
// colors to the template's; changing the platform re-fits the image.
func (s *Session) Update(fn func(*State)) error {
	prev := s.State()
	next := prev
	fn(&next)
	next.FillDefaults()
	p, err := PlatformByID(next.Platform)
	if err != nil {
		return err
	}
	if next.Template != prev.Template {
		next.ApplyTemplate(next.Template)
	}

	s.mu.Lock()
	s.state = next
	if next.ImageURL != prev.ImageURL {
		s.hasNatural = false
	}
	if next.Platform != prev.Platform {
		s.installPanClampLocked()
	}
	s.mu.Unlock()

	if next.Positions != prev.Positions {
		s.drag.Reset()
		for _, l := range []Layer{LayerImage, LayerHeadline, LayerDescription, LayerCTA} {
			s.drag.Set(l, next.Positions.Get(l))
		}
	}
	if next.Platform != prev.Platform {
		s.tracker.Resize(fit.Size{Width: float64(p.Width) / 2, Height: float64(p.Height) / 2})
		s.reclampPan()
	}
	if next.ImageURL != prev.ImageURL {
		s.watchImage(next.ImageURL)
	}
	return nil
}

// Drag returns the session's drag controller.
func (s *Session) Drag() *DragController { return s.drag }

// Navigator returns the carousel navigator.
func (s *Session) Navigator() *carousel.Navigator { return s.nav }

// Sources returns the carousel's source set.
func (s *Session) Sources() *carousel.SourceSet { return s.sources }

// Images returns the session's preload cache.
func (s *Session) Images() *PreloadCache { return s.cache }

// Fonts returns the session's font registry.
func (s *Session) Fonts() *fonts.Registry { return s.fonts }

// Capturer returns the session's capturer.
func (s *Session) Capturer() *capture.Capturer { return s.capturer }

// ImageRect returns the last cover rectangle computed for the background
// image, once its size is known.
func (s *Session) ImageRect() (fit.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageRect, s.hasRect
}

// Render builds a scene from the current state.
func (s *Session) Render() (*scene.Scene, error) {
	return Build(s.State(), BuildOptions{Images: s.cache, Fonts: s.fonts, PanMode: s.panMode})
}

// Capture renders the current state and rasterizes it.
func (s *Session) Capture(ctx context.Context) (*capture.Artifact, error) {
	sc, err := s.Render()
	if err != nil {
		return nil, err
	}
	return s.capturer.Capture(ctx, sc)
}

// Close stops timers, cancels pending loads and releases cached images.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.nav.Close()
	s.tracker.Stop()
	err := s.cache.Close()
	if ferr := s.fonts.Close(); err == nil {
		err = ferr
	}
	return err
}

// indexChanged shows the newly selected carousel image and confirms the
// change once it has loaded.
func (s *Session) indexChanged(i int) {
	src, ok := s.sources.At(i)
	if !ok {
		return
	}
	s.mu.Lock()
	if s.state.ImageURL != src.URL {
		s.state.ImageURL, s.hasNatural = src.URL, false
	}
	s.mu.Unlock()
	s.watchImage(src.URL)

	h := s.cache.Handle(src.URL)
	go func() {
		// Failed loads still confirm: the layer renders its placeholder.
		select {
		case <-h.Done():
			s.nav.Confirm(i)
		case <-s.ctx.Done():
		}
	}()
}

// watchImage feeds the image's natural size to the fit tracker and pan
// clamp once it loads.
func (s *Session) watchImage(url string) {
	if url == "" {
		return
	}
	h := s.cache.Handle(url)
	go func() {
		if err := h.Wait(s.ctx); err != nil {
			return
		}
		natural, ok := h.NaturalSize()
		if !ok {
			return
		}
		s.mu.Lock()
		current := s.state.ImageURL == url
		if current {
			s.natural, s.hasNatural = natural, true
			s.installPanClampLocked()
		}
		s.mu.Unlock()
		if !current {
			return
		}
		s.tracker.SetNatural(natural)
		s.reclampPan()
	}()
}

// installPanClampLocked bounds image pans by the loaded image and the
// current platform's preview. s.mu must be held.
func (s *Session) installPanClampLocked() {
	if s.panMode != fit.PanClamped || !s.hasNatural {
		return
	}
	p, err := PlatformByID(s.state.Platform)
	if err != nil {
		return
	}
	natural := s.natural
	cw, ch := p.PreviewSize()
	s.drag.SetPanClamp(func(pos Position) Position {
		x, y, err := fit.ClampOffset(natural.Width, natural.Height, cw, ch, pos.X, pos.Y)
		if err != nil {
			return pos
		}
		return Position{X: x, Y: y}
	})
}

// reclampPan passes the image offset through the current clamp and on to
// the fit tracker.
func (s *Session) reclampPan() {
	pan := s.drag.Positions().Image
	if !s.drag.Set(LayerImage, pan) {
		s.tracker.Pan(pan.X, pan.Y)
	}
}

func (s *Session) moved(l Layer, pos Position) {
	if l == LayerImage {
		s.tracker.Pan(pos.X, pos.Y)
	}
}

func (s *Session) setImageRect(r fit.Rect) {
	s.mu.Lock()
	s.imageRect, s.hasRect = r, true
	s.mu.Unlock()
}
