// Package scene is the in-memory layer tree that a composed ad is rendered
// into.
//
// A [Scene] plays the role a live DOM subtree plays in a browser editor: it is
// the thing interactive editing mutates and the thing capture rasterizes. It
// carries a root [Element] sized to the preview box and, below it, the layers
// in paint order: image, overlay, headline, description, cta.
//
// Scenes are safe for concurrent use. Capture never rasterizes the live scene;
// it takes a deep [Scene.Clone] and mounts it on an off-screen [Stage].
package scene

import (
	"sync"

	"github.com/matzehuels/adstudio/pkg/core/fit"
)

// Kind identifies the role of an element in the layer stack.
type Kind string

const (
	KindRoot        Kind = "root"
	KindImage       Kind = "image"
	KindOverlay     Kind = "overlay"
	KindHeadline    Kind = "headline"
	KindDescription Kind = "description"
	KindCTA         Kind = "cta"
)

// LayerOrder is the bottom-to-top paint order of the root's children.
var LayerOrder = []Kind{KindImage, KindOverlay, KindHeadline, KindDescription, KindCTA}

// Box is an axis-aligned rectangle in preview pixels, relative to the parent.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Point is a pixel offset.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform is a translate + scale applied on top of an element's box.
type Transform struct {
	DX    float64 `json:"dx,omitempty"`
	DY    float64 `json:"dy,omitempty"`
	Scale float64 `json:"scale,omitempty"`
}

// IsZero reports whether the transform is the identity.
func (t Transform) IsZero() bool {
	return t.DX == 0 && t.DY == 0 && (t.Scale == 0 || t.Scale == 1)
}

// Element is one node of the layer tree.
type Element struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Label string `json:"label"` // accessible description, required for every layer
	Box   Box    `json:"box"`
	Style Style  `json:"style"`
	Text  string `json:"text,omitempty"`

	// HoverTransform is applied only while Hovered is set. Capture clears
	// Hovered so the frame shows the rest state.
	HoverTransform Transform `json:"hover_transform,omitempty"`
	Hovered        bool      `json:"hovered,omitempty"`

	// Image layer only.
	Image   *ImageHandle `json:"-"`
	Pan     Point        `json:"pan,omitempty"`
	PanMode fit.PanMode  `json:"pan_mode,omitempty"`

	Children []*Element `json:"children,omitempty"`
}

// EffectiveTransform returns the transform currently applied to the element.
func (e *Element) EffectiveTransform() Transform {
	if e.Hovered {
		return e.HoverTransform
	}
	return Transform{}
}

func (e *Element) clone() *Element {
	c := *e
	c.Style = e.Style.clone()
	if len(e.Children) > 0 {
		c.Children = make([]*Element, len(e.Children))
		for i, ch := range e.Children {
			c.Children[i] = ch.clone()
		}
	}
	return &c
}

func (e *Element) walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, ch := range e.Children {
		if !ch.walk(fn) {
			return false
		}
	}
	return true
}

// Scene is a mutex-guarded layer tree with a fixed preview size.
type Scene struct {
	mu       sync.RWMutex
	root     *Element
	width    float64
	height   float64
	lang     string
	rtl      bool
	fontURLs []string
}

// New creates an empty scene with a root element of the given preview size.
func New(width, height float64) *Scene {
	return &Scene{
		width:  width,
		height: height,
		root: &Element{
			ID:    "root",
			Kind:  KindRoot,
			Label: "Ad preview",
			Box:   Box{W: width, H: height},
		},
	}
}

// Size returns the preview size of the root box.
func (s *Scene) Size() (w, h float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// SetLanguage records the content language and direction.
func (s *Scene) SetLanguage(lang string, rtl bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang, s.rtl = lang, rtl
}

// Language returns the content language and whether it is right-to-left.
func (s *Scene) Language() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang, s.rtl
}

// AddFont records a font URL the scene's text depends on.
func (s *Scene) AddFont(url string) {
	if url == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.fontURLs {
		if u == url {
			return
		}
	}
	s.fontURLs = append(s.fontURLs, url)
}

// Fonts returns the font URLs referenced by the scene.
func (s *Scene) Fonts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.fontURLs...)
}

// Append adds a layer on top of the current stack.
func (s *Scene) Append(e *Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root.Children = append(s.root.Children, e)
}

// View calls fn with the root under a read lock. fn must not retain or mutate
// the tree.
func (s *Scene) View(fn func(root *Element)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.root)
}

// Update calls fn with the root under the write lock.
func (s *Scene) Update(fn func(root *Element)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.root)
}

// Find returns a copy of the element with the given id.
func (s *Scene) Find(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *Element
	s.root.walk(func(e *Element) bool {
		if e.ID == id {
			found = e
			return false
		}
		return true
	})
	if found == nil {
		return Element{}, false
	}
	return *found.clone(), true
}

// Layer returns a copy of the first element of the given kind.
func (s *Scene) Layer(k Kind) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.root.Children {
		if ch.Kind == k {
			return *ch.clone(), true
		}
	}
	return Element{}, false
}

// Images returns every image handle in the tree.
func (s *Scene) Images() []*ImageHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ImageHandle
	s.root.walk(func(e *Element) bool {
		if e.Image != nil {
			out = append(out, e.Image)
		}
		return true
	})
	return out
}

// SetHovered marks the element with the given id as hovered or not.
func (s *Scene) SetHovered(id string, hovered bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := false
	s.root.walk(func(e *Element) bool {
		if e.ID == id {
			e.Hovered = hovered
			ok = true
			return false
		}
		return true
	})
	return ok
}

// NeutralizeHover clears every hover state and returns a function that puts
// the previous states back. The restore function is safe to call once.
func (s *Scene) NeutralizeHover() (restore func()) {
	s.mu.Lock()
	var hovered []*Element
	s.root.walk(func(e *Element) bool {
		if e.Hovered {
			hovered = append(hovered, e)
			e.Hovered = false
		}
		return true
	})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, e := range hovered {
				e.Hovered = true
			}
		})
	}
}

// HoverActive reports whether any element is currently hovered.
func (s *Scene) HoverActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active := false
	s.root.walk(func(e *Element) bool {
		if e.Hovered {
			active = true
			return false
		}
		return true
	})
	return active
}

// Clone returns a deep copy of the scene. Image handles are shared since they
// are immutable once resolved.
func (s *Scene) Clone() *Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Scene{
		root:     s.root.clone(),
		width:    s.width,
		height:   s.height,
		lang:     s.lang,
		rtl:      s.rtl,
		fontURLs: append([]string(nil), s.fontURLs...),
	}
}

// CoverRect returns where the element's image is drawn inside its box. It is
// only available once the image has loaded.
func (e *Element) CoverRect() (fit.Rect, bool) {
	if e.Image == nil {
		return fit.Rect{}, false
	}
	natural, ok := e.Image.NaturalSize()
	if !ok {
		return fit.Rect{}, false
	}
	r, err := fit.Fit(natural, fit.Size{Width: e.Box.W, Height: e.Box.H}, e.Pan.X, e.Pan.Y, e.PanMode)
	if err != nil {
		return fit.Rect{}, false
	}
	return r, true
}
