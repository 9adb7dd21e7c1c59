package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name       string
		level      log.Level
		logFunc    func(*log.Logger)
		wantLog    bool
		wantCaller bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("msg") }, true, false},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("msg") }, false, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("msg") }, true, true},
		{"warn at debug level", log.DebugLevel, func(l *log.Logger) { l.Warn("msg") }, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))

			if got := buf.Len() > 0; got != tt.wantLog {
				t.Fatalf("wrote output = %v, want %v", got, tt.wantLog)
			}
			if !tt.wantLog {
				return
			}
			if got := strings.Contains(buf.String(), "log_test.go"); got != tt.wantCaller {
				t.Errorf("caller reported = %v, want %v: %q", got, tt.wantCaller, buf.String())
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)

	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug logged at info level: %q", buf.String())
	}

	c.SetLogLevel(log.DebugLevel)
	c.Logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug not logged after SetLogLevel: %q", buf.String())
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.DebugLevel))

	time.Sleep(5 * time.Millisecond)
	prog.step("captured", "strategy", "native")
	prog.step("uploaded")
	prog.done("Rendered ad.png")

	out := buf.String()
	for _, want := range []string{"captured", "strategy=native", "took=", "uploaded", "Rendered ad.png ("} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if prog.steps != 2 {
		t.Errorf("steps = %d, want 2", prog.steps)
	}
}

func TestProgressStepsHiddenAtInfo(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))

	prog.step("captured")
	if buf.Len() != 0 {
		t.Errorf("step logged at info level: %q", buf.String())
	}
	prog.done("done")
	if !strings.Contains(buf.String(), "done (") {
		t.Errorf("done output = %q", buf.String())
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext without a logger should return log.Default()")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), l)
	if loggerFromContext(ctx) != l {
		t.Error("loggerFromContext should return the attached logger")
	}
}
