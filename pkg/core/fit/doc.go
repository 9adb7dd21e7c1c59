// Package fit computes "cover" placement of an image inside a container.
//
// Cover fit scales an image so it fully fills its container, cropping any
// overflow, and then translates it by a user-chosen pan offset. An offset of
// {0,0} is always exactly centered.
//
// # Geometry
//
// [ComputeCover] is a pure function: it never clamps the offset, so callers
// that need the image to keep covering the container use [Fit] with
// [PanClamped] (the default) or [ClampOffset] directly. Unbounded panning is
// available as the explicit [PanUnbounded] mode.
//
// Invalid geometry (zero, negative or NaN sizes) fails fast with
// [ErrInvalidGeometry]. This usually means the caller asked for a fit before
// the image reported its natural size.
//
// # Live updates
//
// [Tracker] re-runs the fit whenever the container is resized (debounced)
// or the pan offset changes (immediately), and delivers the new [Rect] to a
// callback. It stays silent until the natural image size is known.
package fit
