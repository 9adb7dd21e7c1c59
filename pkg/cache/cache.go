// Package cache stores byte blobs under string keys with a time-to-live.
//
// Three backends are provided:
//
//   - [FileCache]: one file per key under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for servers
//   - [NullCache]: stores nothing, for tests and --no-cache
//
// Keys are built with a [Keyer] so that every caller hashes the same inputs
// the same way. Two things are cached: downloaded font files, keyed by URL,
// and rendered ad artifacts, keyed by a hash of everything that affects the
// pixels.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry. A miss is (nil, false, nil);
// errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and reports how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Keyer builds cache keys.
type Keyer interface {
	// AssetKey names a downloaded asset such as a font file.
	AssetKey(kind, url string) string
	// ArtifactKey names a rendered ad. compositionHash identifies the
	// composition; opts carry the encoding parameters.
	ArtifactKey(compositionHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the encoding parameters that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format  string  `json:"format"`
	Quality int     `json:"quality,omitempty"`
	Scale   float64 `json:"scale"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// AssetKey returns "asset:<kind>:<sha256(url)>".
func (DefaultKeyer) AssetKey(kind, url string) string {
	return hashKey("asset:"+kind, url)
}

// ArtifactKey returns "artifact:<sha256(hash, opts)>".
func (DefaultKeyer) ArtifactKey(compositionHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", compositionHash, opts)
}

var _ Keyer = DefaultKeyer{}
