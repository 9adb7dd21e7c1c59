// Package pipeline turns an ad composition into a stored artifact.
//
// This package implements the generate flow shared by the CLI and the API:
//
//  1. Compose: validate the state and build the layered scene
//  2. Capture: rasterize it (cached by a hash of the composition)
//  3. Name: derive the metadata-bearing file name
//  4. Fallback: hand degraded captures to the remote renderer, if configured
//  5. Persist: upload the raster and record it in the gallery
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	runner.Objects, runner.Records = stores.Objects, stores.Records
//	result, err := runner.Generate(ctx, pipeline.Options{
//	    State:  st,
//	    Upload: true,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.FileName, result.URL)
package pipeline

import (
	"time"

	"github.com/matzehuels/adstudio/pkg/cache"
	"github.com/matzehuels/adstudio/pkg/core/capture"
	"github.com/matzehuels/adstudio/pkg/core/compose"
	"github.com/matzehuels/adstudio/pkg/naming"
	"github.com/matzehuels/adstudio/pkg/storage"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultFormat is the output format when none is given.
	DefaultFormat = capture.FormatPNG

	// DefaultQuality is the JPEG quality.
	DefaultQuality = 92

	// DefaultArtifactTTL is how long rendered ads stay cached.
	DefaultArtifactTTL = 7 * 24 * time.Hour

	// DefaultFontTTL is how long downloaded fonts stay cached.
	DefaultFontTTL = 30 * 24 * time.Hour

	// ObjectPrefix is the object-store directory generated ads go to.
	ObjectPrefix = "ads/"
)

// =============================================================================
// Options
// =============================================================================

// Options configure one Generate call.
type Options struct {
	State   compose.State  `json:"state"`
	Format  capture.Format `json:"format,omitempty"`
	Quality int            `json:"quality,omitempty"`

	// Upload stores the artifact and creates a gallery record.
	Upload bool `json:"upload,omitempty"`
	// Refresh ignores cached artifacts.
	Refresh bool `json:"refresh,omitempty"`
	// Date stamps the file name; zero means now.
	Date time.Time `json:"-"`

	validated bool
}

// ValidateAndSetDefaults fills defaults and validates the state. It is
// idempotent. Local image paths are rejected.
func (o *Options) ValidateAndSetDefaults() error {
	return o.validate(false)
}

func (o *Options) validate(local bool) error {
	if o.validated {
		return nil
	}
	o.State.FillDefaults()
	validate := o.State.Validate
	if local {
		validate = o.State.ValidateLocal
	}
	if err := validate(); err != nil {
		return err
	}
	f, err := capture.ParseFormat(string(o.Format))
	if err != nil {
		return err
	}
	o.Format = f
	if o.Quality <= 0 {
		o.Quality = DefaultQuality
	}
	o.validated = true
	return nil
}

// NamingParams returns the inputs to the file name.
func (o *Options) NamingParams(date time.Time) naming.Params {
	return naming.Params{
		Name:     o.State.Name,
		Platform: o.State.Platform,
		Language: o.State.Language,
		Template: string(o.State.Template),
		Accent:   o.State.Colors.Accent,
		FontURL:  o.State.FontURL,
		Date:     date,
	}
}

// ArtifactKeyOpts returns the cache key options for the encoding.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	q := 0
	if o.Format == capture.FormatJPEG {
		q = o.Quality
	}
	return cache.ArtifactKeyOpts{Format: string(o.Format), Quality: q, Scale: compose.CaptureScale}
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of Generate.
type Result struct {
	Artifact *capture.Artifact
	FileName string

	// URL is where the ad can be fetched: the remote renderer's URL when
	// the fallback was used, otherwise the object-store URL after upload.
	URL string
	// Remote reports whether URL came from the remote renderer.
	Remote bool

	Record *storage.AdRecord

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains stage timings.
type Stats struct {
	CaptureTime time.Duration
	RemoteTime  time.Duration
	UploadTime  time.Duration
}

// CacheInfo tracks which stages hit the cache.
type CacheInfo struct {
	CaptureHit bool
}
