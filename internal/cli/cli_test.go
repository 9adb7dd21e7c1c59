package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/adstudio/pkg/cache"
	"github.com/matzehuels/adstudio/pkg/core/compose"
	"github.com/matzehuels/adstudio/pkg/pipeline"
	"github.com/matzehuels/adstudio/pkg/storage/backend"
)

// captureStdout redirects command output for the duration of the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

// isolate points config, cache and storage at temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("ADSTUDIO_OBJECT_STORE", backend.Filesystem)
	t.Setenv("ADSTUDIO_RECORD_STORE", backend.Filesystem)
	t.Setenv("ADSTUDIO_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("ADSTUDIO_CHROME", "false")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := captureStdout(t)
	var logs bytes.Buffer
	c := New(&logs, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(&logs)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()

	want := []string{"render", "serve", "gallery", "templates", "platforms", "dedupe", "browse", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestTemplatesCommand(t *testing.T) {
	isolate(t)
	out, err := execute(t, "templates")
	if err != nil {
		t.Fatalf("templates error: %v", err)
	}
	for _, tpl := range compose.Templates() {
		if !strings.Contains(out, string(tpl.ID)) {
			t.Errorf("output missing template %q", tpl.ID)
		}
	}
	if !strings.Contains(out, string(compose.DefaultTemplate)+" *") {
		t.Error("default template should be marked")
	}
}

func TestPlatformsCommand(t *testing.T) {
	isolate(t)
	out, err := execute(t, "platforms")
	if err != nil {
		t.Fatalf("platforms error: %v", err)
	}
	if !strings.Contains(out, "1080×1080") {
		t.Errorf("output missing instagram size:\n%s", out)
	}
	if !strings.Contains(out, compose.DefaultPlatform+" *") {
		t.Error("default platform should be marked")
	}
}

func TestCachePathCommand(t *testing.T) {
	dir := isolate(t)
	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if want := filepath.Join(dir, "cache", appName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("missing cache dir should report empty:\n%s", out)
	}

	fc, err := cache.NewFileCache(filepath.Join(dir, "cache", appName))
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"artifact:a", "asset:font:b"} {
		if err := fc.Set(context.Background(), k, []byte("x"), 0); err != nil {
			t.Fatal(err)
		}
	}
	out, err = execute(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !strings.Contains(out, "Cleared 2 cached entries") {
		t.Errorf("output = %q", out)
	}
}

func TestCacheClearUnreachableRedis(t *testing.T) {
	isolate(t)
	t.Setenv("ADSTUDIO_REDIS_ADDR", "127.0.0.1:1")
	if _, err := execute(t, "cache", "clear"); err == nil {
		t.Error("clearing an unreachable redis should fail")
	}
}

func TestGalleryCommands(t *testing.T) {
	isolate(t)

	// Seed the gallery through the same stores the commands open.
	c := New(&bytes.Buffer{}, log.InfoLevel)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	c.Config = cfg
	ctx := context.Background()
	runner, err := c.newRunner(ctx, runnerOpts{noCache: true, stores: true})
	if err != nil {
		t.Fatalf("newRunner() error: %v", err)
	}
	st := compose.NewState(compose.TemplateMinimal)
	st.Name, st.Headline, st.CTA, st.Platform = "Gallery Ad", "Hello", "Go", "instagram"
	res, err := runner.Generate(ctx, pipeline.Options{State: st, Upload: true})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	runner.Close()
	if res.Record == nil {
		t.Fatal("Generate() with upload should record the ad")
	}
	id := res.Record.ID

	out, err := execute(t, "gallery", "list")
	if err != nil {
		t.Fatalf("gallery list error: %v", err)
	}
	if !strings.Contains(out, id) || !strings.Contains(out, "Gallery Ad") {
		t.Errorf("gallery list output missing ad:\n%s", out)
	}

	out, err = execute(t, "gallery", "show", id)
	if err != nil {
		t.Fatalf("gallery show error: %v", err)
	}
	if !strings.Contains(out, res.Record.FileName) {
		t.Errorf("gallery show output missing file name:\n%s", out)
	}

	if _, err := execute(t, "gallery", "delete", id); err != nil {
		t.Fatalf("gallery delete error: %v", err)
	}
	if _, err := execute(t, "gallery", "show", id); err == nil {
		t.Error("gallery show should fail after delete")
	}
}

func TestDedupeNeedsTwoImages(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "dedupe", "/tmp/only.png"); err == nil {
		t.Error("dedupe with one image should fail")
	}
}

func TestRenderCommand(t *testing.T) {
	dir := isolate(t)
	spec := writeFile(t, dir, "ad.toml", `
[ad]
name = "Render Test"
headline = "Hello"
cta = "Go"
platform = "instagram"
`)
	out := filepath.Join(dir, "ad.png")
	if _, err := execute(t, "render", spec, "-o", out, "--no-cache"); err != nil {
		t.Fatalf("render error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("rendered file missing: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("rendered file is not a PNG")
	}
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := execute(t, "completion", shell)
		if err != nil {
			t.Fatalf("completion %s error: %v", shell, err)
		}
		if !strings.Contains(out, appName) {
			t.Errorf("%s script does not mention %s", shell, appName)
		}
	}
	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("unknown shell should fail")
	}
}
