// Package pkg provides the core libraries for Adstudio ad composition.
//
// # Overview
//
// Adstudio turns an ad's editing state (copy, colors, a background image,
// a template and a target platform) into a layered scene, rasterizes it at
// the platform's output size and keeps a gallery of the results. The pkg
// directory is organized into three areas:
//
//  1. [core] - Domain logic (image fitting, scene tree, composition, capture, carousel)
//  2. Infrastructure - Caching, storage backends, fonts, the remote renderer
//  3. [pipeline] - Orchestration (compose → capture → persist)
//
// # Architecture
//
// The typical data flow through Adstudio:
//
//	compose.State (name, copy, colors, positions, image URL)
//	         ↓
//	    [core/compose] package (template styles + layout → scene)
//	         ↓
//	    [core/capture] package (chrome or native rasterizer → PNG/JPEG)
//	         ↓
//	    [storage] package (object store + gallery record)
//
// # Quick Start
//
// Render an ad to bytes:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/adstudio/pkg/cache"
//	    "github.com/matzehuels/adstudio/pkg/core/compose"
//	    "github.com/matzehuels/adstudio/pkg/pipeline"
//	)
//
//	st := compose.NewState(compose.DefaultTemplate)
//	st.Name, st.Headline, st.CTA = "Summer Sale", "Up to 50% off", "Shop now"
//
//	r := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	defer r.Close()
//	res, _ := r.Generate(context.Background(), pipeline.Options{State: st})
//	os.WriteFile(res.FileName, res.Artifact.Data, 0o644)
//
// # Main Packages
//
// ## Core Domain Logic
//
// [core/fit] - Cover placement of an image inside a container, with pan
// offsets clamped (or left free) inside the overflow.
//
// [core/scene] - The layer tree a composed ad renders from: boxes, text,
// gradients, buttons and image handles with load status.
//
// [core/compose] - Templates, platforms and the editing [compose.Session]
// that ties state, drag positions, the carousel and image loading together.
//
// [core/capture] - Rasterizers (headless Chrome, native gg) with a
// fallback chain and a placeholder when both fail.
//
// [core/carousel] - Background image sets, a navigator that serializes
// changes until the image settles, and duplicate detection by average hash.
//
// ## Infrastructure
//
// [storage] - Object stores (memory, filesystem, S3) and gallery record
// stores (memory, SQLite, MongoDB), opened from config by storage/backend.
//
// [cache] - TTL byte cache for rendered artifacts and fonts: file, Redis
// or null.
//
// [fonts] - Web font registry backed by Google Fonts CSS with Go fonts
// as the offline fallback.
//
// [remote] - Client for the server-side renderer used when local capture
// degrades.
//
// [naming] - Artifact file names that gallery search relies on.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/core/carousel/...      # Specific package
//
// [core]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/core
// [core/fit]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/core/fit
// [core/scene]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/core/scene
// [core/compose]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/core/compose
// [core/capture]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/core/capture
// [core/carousel]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/core/carousel
// [compose.Session]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/core/compose#Session
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/pipeline
// [storage]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/storage
// [cache]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/cache
// [fonts]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/fonts
// [remote]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/remote
// [naming]: https://pkg.go.dev/github.com/matzehuels/adstudio/pkg/naming
package pkg
