package compose

import (
	"sync"

	"github.com/matzehuels/adstudio/pkg/core/scene"
)

// Layer names a draggable layer.
type Layer = scene.Kind

const (
	LayerImage       = scene.KindImage
	LayerHeadline    = scene.KindHeadline
	LayerDescription = scene.KindDescription
	LayerCTA         = scene.KindCTA
)

func draggable(l Layer) bool {
	switch l {
	case LayerImage, LayerHeadline, LayerDescription, LayerCTA:
		return true
	}
	return false
}

// DragOption configures a [DragController].
type DragOption func(*DragController)

// WithDragListener is called after every position change, outside the
// controller's lock.
func WithDragListener(fn func(Layer, Position)) DragOption {
	return func(d *DragController) { d.listener = fn }
}

// WithPanClamp installs a function that limits the image pan offset.
func WithPanClamp(fn func(Position) Position) DragOption {
	return func(d *DragController) { d.clampPan = fn }
}

// DragController tracks press-drag-release gestures for the movable layers.
// Only one layer can be dragged at a time; pointer events for any other
// layer are ignored until the active drag is released.
type DragController struct {
	mu        sync.Mutex
	positions Positions
	active    Layer
	dragging  bool
	origin    Position // pointer at press
	start     Position // layer position at press
	listener  func(Layer, Position)
	clampPan  func(Position) Position
}

// NewDragController starts from the given positions.
func NewDragController(initial Positions, opts ...DragOption) *DragController {
	d := &DragController{positions: initial}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Press begins a drag of layer at pointer (x, y). It returns false if another
// layer is already being dragged or the layer is not draggable.
func (d *DragController) Press(l Layer, x, y float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dragging || !draggable(l) {
		return false
	}
	d.active, d.dragging = l, true
	d.origin = Position{X: x, Y: y}
	d.start = d.positions.Get(l)
	return true
}

// Move follows the pointer for the active layer. Moves for other layers are
// ignored and return false.
func (d *DragController) Move(l Layer, x, y float64) bool {
	d.mu.Lock()
	if !d.dragging || l != d.active {
		d.mu.Unlock()
		return false
	}
	pos := Position{X: d.start.X + x - d.origin.X, Y: d.start.Y + y - d.origin.Y}
	pos = d.setLocked(l, pos)
	fn := d.listener
	d.mu.Unlock()

	if fn != nil {
		fn(l, pos)
	}
	return true
}

// Release ends the drag of l. The last position is kept.
func (d *DragController) Release(l Layer) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.dragging || l != d.active {
		return false
	}
	d.dragging = false
	d.active = ""
	return true
}

// Active returns the layer being dragged, if any.
func (d *DragController) Active() (Layer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active, d.dragging
}

// Set assigns a position directly, as from a numeric input. It is rejected
// while a different layer is being dragged.
func (d *DragController) Set(l Layer, pos Position) bool {
	d.mu.Lock()
	if !draggable(l) || (d.dragging && d.active != l) {
		d.mu.Unlock()
		return false
	}
	pos = d.setLocked(l, pos)
	fn := d.listener
	d.mu.Unlock()

	if fn != nil {
		fn(l, pos)
	}
	return true
}

// Positions returns the current positions.
func (d *DragController) Positions() Positions {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.positions
}

// Reset cancels any drag and zeroes all positions.
func (d *DragController) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.positions.Reset()
	d.dragging = false
	d.active = ""
}

// SetPanClamp replaces the image pan clamp, e.g. once the image size is known.
func (d *DragController) SetPanClamp(fn func(Position) Position) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clampPan = fn
}

func (d *DragController) setLocked(l Layer, pos Position) Position {
	if l == LayerImage && d.clampPan != nil {
		pos = d.clampPan(pos)
	}
	d.positions.Set(l, pos)
	return pos
}
