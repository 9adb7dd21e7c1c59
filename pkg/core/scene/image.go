package scene

import (
	"context"
	"image"
	"sync"

	"github.com/matzehuels/adstudio/pkg/core/fit"
)

// ImageHandle is an image whose load completes asynchronously. It resolves
// exactly once, either with a decoded image or with an error.
type ImageHandle struct {
	URL string

	once sync.Once
	done chan struct{}
	img  image.Image
	err  error
}

// NewImageHandle returns an unresolved handle for url.
func NewImageHandle(url string) *ImageHandle {
	return &ImageHandle{URL: url, done: make(chan struct{})}
}

// ResolvedImage returns a handle that is already loaded with img.
func ResolvedImage(url string, img image.Image) *ImageHandle {
	h := NewImageHandle(url)
	h.Resolve(img, nil)
	return h
}

// Resolve completes the handle. Only the first call has an effect.
func (h *ImageHandle) Resolve(img image.Image, err error) {
	h.once.Do(func() {
		h.img, h.err = img, err
		close(h.done)
	})
}

// Done is closed once the handle has resolved.
func (h *ImageHandle) Done() <-chan struct{} { return h.done }

// Resolved reports whether the load finished, successfully or not.
func (h *ImageHandle) Resolved() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Loaded reports whether the image decoded successfully.
func (h *ImageHandle) Loaded() bool {
	return h.Resolved() && h.err == nil && h.img != nil
}

// Image returns the decoded image, or nil if not loaded.
func (h *ImageHandle) Image() image.Image {
	if !h.Resolved() {
		return nil
	}
	return h.img
}

// Err returns the load error, or nil if loading succeeded or is pending.
func (h *ImageHandle) Err() error {
	if !h.Resolved() {
		return nil
	}
	return h.err
}

// NaturalSize returns the intrinsic size once the image has loaded.
func (h *ImageHandle) NaturalSize() (fit.Size, bool) {
	img := h.Image()
	if img == nil {
		return fit.Size{}, false
	}
	b := img.Bounds()
	return fit.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}, true
}

// Wait blocks until the handle resolves or ctx is done.
func (h *ImageHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
