// Package capture flattens a composed [scene.Scene] into an encoded raster.
//
// [Capturer.Capture] runs a fixed protocol:
//
//  1. wait for every image in the scene (capped per image)
//  2. wait for fonts, then pause briefly so text can reflow
//  3. clear hover-only transforms on the live scene
//  4. clone the scene and mount the clone on an off-screen [scene.Stage]
//  5. rasterize the clone at 2x with the primary [Rasterizer], then the
//     fallback, then [Placeholder]
//  6. restore the hover state
//  7. unmount the clone
//
// Steps 6 and 7 always run. Capture always yields an image unless encoding
// the placeholder itself fails.
//
// A Capturer runs one job at a time. While a job runs, one further request
// is held as pending; any more requests join that pending job and share its
// result. Jobs are spaced by a minimum interval.
//
// # Strategies
//
//   - [ChromeRasterizer] renders the scene to HTML and screenshots it in
//     headless Chrome via chromedp.
//   - [NativeRasterizer] draws the scene with fogleman/gg and
//     disintegration/imaging; it needs no external process.
package capture
