package fit

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultResizeDebounce is how long container resizes are coalesced before
// the fit is recomputed.
const DefaultResizeDebounce = 200 * time.Millisecond

// TrackerOption configures a [Tracker].
type TrackerOption func(*Tracker)

// WithResizeDebounce overrides [DefaultResizeDebounce].
func WithResizeDebounce(d time.Duration) TrackerOption {
	return func(t *Tracker) { t.debounce = d }
}

// WithPanMode selects clamped or unbounded panning.
func WithPanMode(m PanMode) TrackerOption {
	return func(t *Tracker) { t.mode = m }
}

// WithLogger sets the logger used for geometry warnings.
func WithLogger(l *log.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// Tracker keeps an image layer's cover rectangle in sync with its container
// size and pan offset.
//
// Resizes are debounced; pan changes apply immediately. Nothing is delivered
// until both the natural image size and the container size are known.
type Tracker struct {
	mu        sync.Mutex
	natural   Size
	container Size
	offsetX   float64
	offsetY   float64
	mode      PanMode
	debounce  time.Duration
	timer     *time.Timer
	gen       uint64
	last      Rect
	hasLast   bool
	stopped   bool
	onFit     func(Rect)
	logger    *log.Logger
}

// NewTracker creates a tracker that calls onFit with every recomputed rect.
func NewTracker(onFit func(Rect), opts ...TrackerOption) *Tracker {
	t := &Tracker{
		debounce: DefaultResizeDebounce,
		onFit:    onFit,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetNatural records the image's natural size, typically once it has loaded.
func (t *Tracker) SetNatural(s Size) {
	t.mu.Lock()
	t.natural = s
	r, ok := t.recomputeLocked()
	t.mu.Unlock()
	t.deliver(r, ok)
}

// Resize schedules a recompute for the new container size. Calls arriving
// within the debounce window collapse into one.
func (t *Tracker) Resize(s Size) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	if t.debounce <= 0 {
		t.container = s
		r, ok := t.recomputeLocked()
		t.mu.Unlock()
		t.deliver(r, ok)
		return
	}
	t.timer = time.AfterFunc(t.debounce, func() {
		t.mu.Lock()
		if t.stopped || gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.container = s
		r, ok := t.recomputeLocked()
		t.mu.Unlock()
		t.deliver(r, ok)
	})
	t.mu.Unlock()
}

// Pan sets the pan offset and recomputes immediately.
func (t *Tracker) Pan(x, y float64) {
	t.mu.Lock()
	t.offsetX, t.offsetY = x, y
	r, ok := t.recomputeLocked()
	t.mu.Unlock()
	t.deliver(r, ok)
}

// Offset returns the stored pan offset. In clamped mode this is the clamped
// value that was actually applied.
func (t *Tracker) Offset() (x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offsetX, t.offsetY
}

// Rect returns the last computed rectangle, if any.
func (t *Tracker) Rect() (Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last, t.hasLast
}

// Stop cancels any pending resize and silences further callbacks.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *Tracker) recomputeLocked() (Rect, bool) {
	if t.stopped || !t.natural.Valid() || !t.container.Valid() {
		return Rect{}, false
	}
	if t.mode == PanClamped {
		x, y, err := ClampOffset(t.natural.Width, t.natural.Height, t.container.Width, t.container.Height, t.offsetX, t.offsetY)
		if err == nil {
			t.offsetX, t.offsetY = x, y
		}
	}
	r, err := ComputeCover(t.natural.Width, t.natural.Height, t.container.Width, t.container.Height, t.offsetX, t.offsetY)
	if err != nil {
		t.logger.Warn("skipping fit", "err", err)
		return Rect{}, false
	}
	t.last, t.hasLast = r, true
	return r, true
}

func (t *Tracker) deliver(r Rect, ok bool) {
	if ok && t.onFit != nil {
		t.onFit(r)
	}
}
