// Package observability lets a binary observe ad generation, capture,
// carousel navigation, cache traffic and outgoing HTTP without the core
// packages importing a metrics or tracing framework.
//
// Each event category is an interface with a no-op default. Binaries swap
// in real implementations once at startup; libraries only ever read:
//
//	observability.NewLogHooks(logger).Install()
//
//	observability.Capture().OnCaptureStart(ctx, job)
//	observability.Navigation().OnConfirm(index, wait)
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the ad generation pipeline.
type PipelineHooks interface {
	OnGenerateStart(ctx context.Context, platform, template string)
	OnGenerateComplete(ctx context.Context, fileName string, duration time.Duration, err error)

	OnUploadComplete(ctx context.Context, path string, size int, duration time.Duration, err error)
}

// =============================================================================
// Capture Hooks
// =============================================================================

// CaptureHooks receives events from the capture pipeline.
type CaptureHooks interface {
	OnCaptureStart(ctx context.Context, jobID uint64)
	// OnStrategyFailed fires when a rasterizer fails and the next one is tried.
	OnStrategyFailed(ctx context.Context, strategy string, err error)
	OnCaptureComplete(ctx context.Context, jobID uint64, strategy string, degraded bool, duration time.Duration, err error)
}

// =============================================================================
// Navigation Hooks
// =============================================================================

// NavigationHooks receives events from the carousel navigator. They fire
// under the navigator lock and must not call back into it.
type NavigationHooks interface {
	OnIndexChange(from, to int)
	OnConfirm(index int, wait time.Duration)
	OnLockTimeout(index int)
	OnForceSet(index int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError fires for transport failures; HTTP error statuses go to OnResponse.
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnGenerateStart(context.Context, string, string)                       {}
func (NoopPipelineHooks) OnGenerateComplete(context.Context, string, time.Duration, error)      {}
func (NoopPipelineHooks) OnUploadComplete(context.Context, string, int, time.Duration, error) {}

// NoopCaptureHooks is a no-op implementation of CaptureHooks.
type NoopCaptureHooks struct{}

func (NoopCaptureHooks) OnCaptureStart(context.Context, uint64)          {}
func (NoopCaptureHooks) OnStrategyFailed(context.Context, string, error) {}
func (NoopCaptureHooks) OnCaptureComplete(context.Context, uint64, string, bool, time.Duration, error) {
}

// NoopNavigationHooks is a no-op implementation of NavigationHooks.
type NoopNavigationHooks struct{}

func (NoopNavigationHooks) OnIndexChange(int, int)          {}
func (NoopNavigationHooks) OnConfirm(int, time.Duration)    {}
func (NoopNavigationHooks) OnLockTimeout(int)               {}
func (NoopNavigationHooks) OnForceSet(int)                  {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Registry
// =============================================================================

// registry is an immutable snapshot of the installed hooks. Setters copy it,
// so readers on hot paths never take a lock.
type registry struct {
	pipeline   PipelineHooks
	capture    CaptureHooks
	navigation NavigationHooks
	cache      CacheHooks
	http       HTTPHooks
}

var (
	current atomic.Pointer[registry]
	writeMu sync.Mutex
)

func init() { Reset() }

func update(fn func(*registry)) {
	writeMu.Lock()
	defer writeMu.Unlock()
	next := *current.Load()
	fn(&next)
	current.Store(&next)
}

// SetPipelineHooks installs h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(r *registry) { r.pipeline = h })
	}
}

// SetCaptureHooks installs h. A nil h is ignored.
func SetCaptureHooks(h CaptureHooks) {
	if h != nil {
		update(func(r *registry) { r.capture = h })
	}
}

// SetNavigationHooks installs h. A nil h is ignored.
func SetNavigationHooks(h NavigationHooks) {
	if h != nil {
		update(func(r *registry) { r.navigation = h })
	}
}

// SetCacheHooks installs h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(r *registry) { r.cache = h })
	}
}

// SetHTTPHooks installs h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(r *registry) { r.http = h })
	}
}

func Pipeline() PipelineHooks     { return current.Load().pipeline }
func Capture() CaptureHooks       { return current.Load().capture }
func Navigation() NavigationHooks { return current.Load().navigation }
func Cache() CacheHooks           { return current.Load().cache }
func HTTP() HTTPHooks             { return current.Load().http }

// Reset restores the no-op hooks.
func Reset() {
	writeMu.Lock()
	defer writeMu.Unlock()
	current.Store(&registry{
		pipeline:   NoopPipelineHooks{},
		capture:    NoopCaptureHooks{},
		navigation: NoopNavigationHooks{},
		cache:      NoopCacheHooks{},
		http:       NoopHTTPHooks{},
	})
}
