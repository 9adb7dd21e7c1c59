package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level log lines.
// The CLI installs it when running verbosely.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log through l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{Logger: l}
}

// Install registers h for all hook categories.
func (h *LogHooks) Install() {
	SetPipelineHooks(h)
	SetCaptureHooks(h)
	SetNavigationHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnGenerateStart(_ context.Context, platform, template string) {
	h.Logger.Debug("generate", "platform", platform, "template", template)
}

func (h *LogHooks) OnGenerateComplete(_ context.Context, fileName string, d time.Duration, err error) {
	h.Logger.Debug("generated", "file", fileName, "took", d.Round(time.Millisecond), "err", err)
}

func (h *LogHooks) OnUploadComplete(_ context.Context, path string, size int, d time.Duration, err error) {
	h.Logger.Debug("uploaded", "path", path, "bytes", size, "took", d.Round(time.Millisecond), "err", err)
}

func (h *LogHooks) OnCaptureStart(_ context.Context, jobID uint64) {
	h.Logger.Debug("capture", "job", jobID)
}

func (h *LogHooks) OnStrategyFailed(_ context.Context, strategy string, err error) {
	h.Logger.Debug("raster strategy failed", "strategy", strategy, "err", err)
}

func (h *LogHooks) OnCaptureComplete(_ context.Context, jobID uint64, strategy string, degraded bool, d time.Duration, err error) {
	h.Logger.Debug("captured", "job", jobID, "strategy", strategy, "degraded", degraded, "took", d.Round(time.Millisecond), "err", err)
}

func (h *LogHooks) OnIndexChange(from, to int) {
	h.Logger.Debug("carousel", "from", from, "to", to)
}

func (h *LogHooks) OnConfirm(index int, wait time.Duration) {
	h.Logger.Debug("carousel confirmed", "index", index, "after", wait.Round(time.Millisecond))
}

func (h *LogHooks) OnLockTimeout(index int) {
	h.Logger.Debug("carousel lock timed out", "index", index)
}

func (h *LogHooks) OnForceSet(index int) {
	h.Logger.Debug("carousel index forced", "index", index)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http done", "method", method, "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ PipelineHooks   = (*LogHooks)(nil)
	_ CaptureHooks    = (*LogHooks)(nil)
	_ NavigationHooks = (*LogHooks)(nil)
	_ CacheHooks      = (*LogHooks)(nil)
	_ HTTPHooks       = (*LogHooks)(nil)
)
