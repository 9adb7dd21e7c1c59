// Package cli implements the adstudio command-line interface.
//
// The commands render ads from TOML ad specs, serve the HTTP API, browse
// and prune the gallery, list templates and platforms, detect duplicate
// carousel images and browse a carousel interactively. The CLI is built
// using cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - render: Render an ad spec to a PNG or JPEG, optionally uploading it
//   - serve: Run the HTTP API
//   - gallery: List, show and delete generated ads
//   - templates, platforms: Print the catalogs
//   - dedupe: Flag carousel images that look identical
//   - browse: Interactive carousel and template browser
//   - cache: Manage the artifact and font cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and
// --log-file to keep a size-capped copy of the log on disk. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Configuration
//
// Settings come from ~/.config/adstudio/config.toml (or --config), then a
// .env file in the working directory, then ADSTUDIO_* environment variables.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps that writes to
// w. At debug level it also reports the calling file and line.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    level <= log.DebugLevel,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times a multi-stage operation. step logs each stage at debug
// level with the time since the previous stage; done logs the total.
// Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
	steps  int
}

func newProgress(l *log.Logger) *progress {
	now := time.Now()
	return &progress{logger: l, start: now, last: now}
}

// step logs the end of one stage.
func (p *progress) step(stage string, keyvals ...any) {
	now := time.Now()
	p.steps++
	kv := append([]any{"took", now.Sub(p.last).Round(time.Millisecond)}, keyvals...)
	p.logger.Debug(stage, kv...)
	p.last = now
}

// done logs msg with the total elapsed time, e.g.
// "Rendered 010624-summer-sale-....png (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger attaches l to ctx for loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
