package carousel

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/adstudio/pkg/observability"
)

// Timing defaults for the confirmation lock.
const (
	DefaultGrace   = 200 * time.Millisecond
	DefaultTimeout = 1500 * time.Millisecond

	// SafeAttempts is how many full request/confirm cycles SetIndexSafely
	// runs before force-setting the index.
	SafeAttempts = 3
)

// State is the navigation lock state.
type State int

const (
	Idle State = iota
	ChangeRequested
	AwaitingConfirmation
	Locked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ChangeRequested:
		return "change-requested"
	case AwaitingConfirmation:
		return "awaiting-confirmation"
	case Locked:
		return "locked"
	}
	return "unknown"
}

const noTarget = -1

// NavigatorOption configures a [Navigator].
type NavigatorOption func(*Navigator)

// WithGrace sets the settle delay after a change resolves.
func WithGrace(d time.Duration) NavigatorOption { return func(n *Navigator) { n.grace = d } }

// WithTimeout sets how long a change waits for confirmation.
func WithTimeout(d time.Duration) NavigatorOption { return func(n *Navigator) { n.timeout = d } }

// WithLogger sets the logger for lock timeouts and force-sets.
func WithLogger(l *log.Logger) NavigatorOption {
	return func(n *Navigator) {
		if l != nil {
			n.logger = l
		}
	}
}

// OnIndexChanged registers fn to run after every index change. It is called
// without the navigator's lock held, so fn may call [Navigator.Confirm].
func OnIndexChanged(fn func(index int)) NavigatorOption {
	return func(n *Navigator) { n.onChange = fn }
}

// Navigator serializes index changes on a [SourceSet].
type Navigator struct {
	set      *SourceSet
	grace    time.Duration
	timeout  time.Duration
	onChange func(int)
	logger   *log.Logger

	mu        sync.Mutex
	state     State
	current   int // index being shown
	settled   int // index as of the last time the lock was released
	pending   int
	resolving bool // confirmed or timed out, waiting out the grace period
	confirmed bool // outcome of the last resolved change
	started   time.Time
	gen       uint64
	timer     *time.Timer
	idle      chan struct{}
	closed    bool
}

// NewNavigator creates a navigator over set, starting at set's current index.
func NewNavigator(set *SourceSet, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		set:     set,
		grace:   DefaultGrace,
		timeout: DefaultTimeout,
		logger:  log.New(io.Discard),
		pending: noTarget,
		idle:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.current = set.Index()
	n.settled = n.current
	close(n.idle)
	return n
}

// State returns the current lock state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Index returns the index currently shown.
func (n *Navigator) Index() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Pending returns the queued target, if any.
func (n *Navigator) Pending() (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pending, n.pending != noTarget
}

// Next moves one image forward, wrapping at the end.
func (n *Navigator) Next() { n.request(func(base, _ int) int { return base + 1 }) }

// Prev moves one image back, wrapping at the start.
func (n *Navigator) Prev() { n.request(func(base, _ int) int { return base - 1 }) }

// Go moves to index i. Out-of-range indices are clamped with a warning.
func (n *Navigator) Go(i int) {
	n.request(func(_, size int) int { return n.clamp(i, size) })
}

func (n *Navigator) clamp(i, size int) int {
	if i < 0 || i >= size {
		c := min(max(i, 0), size-1)
		n.logger.Warn("carousel index out of range, clamping", "index", i, "len", size, "clamped", c)
		return c
	}
	return i
}

// request resolves target against the last settled index. While a change is
// in flight the result replaces any pending target.
func (n *Navigator) request(target func(base, size int) int) {
	size := n.set.Len()
	if size == 0 {
		return
	}
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	t := wrap(target(n.settled, size), size)
	if n.state != Idle {
		n.pending = t
		n.mu.Unlock()
		return
	}
	if t == n.current {
		n.mu.Unlock()
		return
	}
	notify := n.beginLocked(t)
	n.mu.Unlock()
	notify()
}

// beginLocked starts a change to t. The returned function must be called
// after the lock is released.
func (n *Navigator) beginLocked(t int) (notify func()) {
	if n.state == Idle {
		n.idle = make(chan struct{})
	}
	n.state = ChangeRequested
	n.resolving = false
	from := n.current
	n.current = t
	n.set.SetIndex(t)
	n.started = time.Now()
	observability.Navigation().OnIndexChange(from, t)

	n.state = AwaitingConfirmation
	n.gen++
	gen := n.gen
	n.stopTimerLocked()
	n.timer = time.AfterFunc(n.timeout, func() { n.expire(gen) })

	fn := n.onChange
	return func() {
		if fn != nil {
			fn(t)
		}
	}
}

// Confirm reports that the image at index has loaded. It returns false if
// no change to index is awaiting confirmation.
func (n *Navigator) Confirm(index int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != AwaitingConfirmation || n.resolving || index != n.current {
		return false
	}
	observability.Navigation().OnConfirm(index, time.Since(n.started))
	n.scheduleReleaseLocked(true)
	return true
}

func (n *Navigator) expire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if gen != n.gen || n.state != AwaitingConfirmation || n.resolving {
		return
	}
	n.state = Locked
	n.logger.Warn("carousel change not confirmed, forcing lock open", "index", n.current, "timeout", n.timeout)
	observability.Navigation().OnLockTimeout(n.current)
	n.scheduleReleaseLocked(false)
}

// scheduleReleaseLocked opens the lock after the grace period. A confirmed
// change stays in AwaitingConfirmation until then.
func (n *Navigator) scheduleReleaseLocked(confirmed bool) {
	n.resolving = true
	n.gen++
	gen := n.gen
	n.stopTimerLocked()
	n.timer = time.AfterFunc(n.grace, func() { n.release(gen, confirmed) })
}

func (n *Navigator) release(gen uint64, confirmed bool) {
	n.mu.Lock()
	if gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.state = Idle
	n.settled = n.current
	n.confirmed = confirmed
	close(n.idle)

	notify := func() {}
	if p := n.pending; p != noTarget {
		n.pending = noTarget
		if p != n.current {
			notify = n.beginLocked(p)
		}
	}
	n.mu.Unlock()
	notify()
}

func (n *Navigator) stopTimerLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

// WaitIdle blocks until the lock is released with nothing pending.
func (n *Navigator) WaitIdle(ctx context.Context) error {
	for {
		n.mu.Lock()
		if n.state == Idle && n.pending == noTarget {
			n.mu.Unlock()
			return nil
		}
		ch := n.idle
		n.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SetIndexSafely moves to index i and waits for the change to be confirmed.
// Each of up to [SafeAttempts] attempts runs a full request/confirm cycle;
// if none is confirmed the index is force-set and an error is logged. The
// only error returned is ctx's.
func (n *Navigator) SetIndexSafely(ctx context.Context, i int) error {
	size := n.set.Len()
	if size == 0 {
		return nil
	}
	i = n.clamp(i, size)

	for attempt := 1; attempt <= SafeAttempts; attempt++ {
		if err := n.WaitIdle(ctx); err != nil {
			return err
		}
		n.mu.Lock()
		if n.closed {
			n.mu.Unlock()
			return nil
		}
		if n.state != Idle {
			// Someone else started a change between WaitIdle and here.
			n.mu.Unlock()
			attempt--
			continue
		}
		notify := n.beginLocked(i)
		n.mu.Unlock()
		notify()

		if err := n.WaitIdle(ctx); err != nil {
			return err
		}
		n.mu.Lock()
		ok := n.confirmed && n.current == i
		n.mu.Unlock()
		if ok {
			return nil
		}
		n.logger.Warn("carousel change attempt failed", "index", i, "attempt", attempt)
	}

	n.forceSet(i)
	return nil
}

func (n *Navigator) forceSet(i int) {
	n.mu.Lock()
	n.gen++
	n.stopTimerLocked()
	n.current, n.settled = i, i
	n.pending = noTarget
	n.set.SetIndex(i)
	if n.state != Idle {
		n.state = Idle
		close(n.idle)
	}
	fn := n.onChange
	n.mu.Unlock()

	n.logger.Error("carousel index force-set after failed confirmations", "index", i, "attempts", SafeAttempts)
	observability.Navigation().OnForceSet(i)
	if fn != nil {
		fn(i)
	}
}

// Close stops pending timers. Later requests are ignored.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	n.gen++
	n.stopTimerLocked()
	n.pending = noTarget
	if n.state != Idle {
		n.state = Idle
		close(n.idle)
	}
}
