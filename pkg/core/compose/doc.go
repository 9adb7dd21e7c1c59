// Package compose turns an ad's editing state into a layered [scene.Scene].
//
// # Templates
//
// A template is a named visual preset. Three pure resolvers map a template
// identifier onto style descriptors:
//
//   - [GradientFor]: the overlay layer
//   - [TextFor]: headline and description blocks
//   - [ButtonFor]: the call-to-action button
//
// Unknown identifiers resolve to the "minimal" template, so every string
// yields a complete descriptor.
//
// # Building
//
// [Build] resolves the template once, computes text direction once from the
// language, and stacks the layers in fixed order: image, overlay, headline,
// description, cta. Content layers are positioned at their template anchor
// plus their own [Position]; the image layer is cover-fitted using its pan
// offset once its natural size is known.
//
// # Editing
//
// [DragController] moves one layer at a time, [ImageLoader] fetches images
// through a session-scoped [PreloadCache], and [Session] owns all of these
// together with the capturer and carousel navigator for one editing session.
package compose
