package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/adstudio/pkg/core/compose"
	"github.com/matzehuels/adstudio/pkg/pipeline"
	"github.com/matzehuels/adstudio/pkg/storage"
	"github.com/matzehuels/adstudio/pkg/storage/filesystem"
	"github.com/matzehuels/adstudio/pkg/storage/memory"
)

const adBody = `{"state":{"name":"Summer Sale","headline":"Hello","cta":"Shop","platform":"instagram"}}`

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *pipeline.Runner) {
	t.Helper()
	r := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	r.Objects = memory.NewObjectStore("https://cdn.example.com")
	r.Records = memory.NewRecordStore()
	r.Now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	srv := httptest.NewServer(New(r, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv, r
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestCatalogs(t *testing.T) {
	srv, _ := newTestServer(t)

	templates := decode[[]compose.Template](t, get(t, srv.URL+"/api/templates"))
	if len(templates) != len(compose.Templates()) {
		t.Errorf("templates = %d, want %d", len(templates), len(compose.Templates()))
	}

	platforms := decode[[]compose.Platform](t, get(t, srv.URL+"/api/platforms"))
	found := false
	for _, p := range platforms {
		if p.ID == "instagram" && p.Width == 1080 && p.Height == 1080 {
			found = true
		}
	}
	if !found {
		t.Errorf("instagram missing from %+v", platforms)
	}

	health := decode[healthResponse](t, get(t, srv.URL+"/api/health"))
	if health.Status != "ok" {
		t.Errorf("health = %+v", health)
	}
}

func TestPreviewDownload(t *testing.T) {
	srv, r := newTestServer(t)

	resp := post(t, srv.URL+"/api/preview", adBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	cd := resp.Header.Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment; filename=010624-summer-sale-instagram-en-minimal-") || !strings.HasSuffix(cd, ".png") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}

	recs, _ := r.Records.List(context.Background(), storage.ListOptions{})
	if len(recs) != 0 {
		t.Errorf("preview created %d records", len(recs))
	}
}

func TestGenerateAndGallery(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv.URL+"/api/generate", adBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	gen := decode[generateResponse](t, resp)
	if gen.Record == nil || gen.Width != 1080 || gen.Height != 1080 || gen.Degraded {
		t.Fatalf("generate = %+v", gen)
	}
	if gen.URL != "https://cdn.example.com/ads/"+gen.FileName {
		t.Errorf("URL = %q", gen.URL)
	}

	list := decode[[]storage.AdRecord](t, get(t, srv.URL+"/api/ads?q=summer&platform=instagram&limit=5"))
	if len(list) != 1 || list[0].ID != gen.Record.ID {
		t.Fatalf("list = %+v", list)
	}
	if empty := decode[[]storage.AdRecord](t, get(t, srv.URL+"/api/ads?platform=twitter")); len(empty) != 0 {
		t.Errorf("twitter list = %+v", empty)
	}

	rec := decode[storage.AdRecord](t, get(t, srv.URL+"/api/ads/"+gen.Record.ID))
	if rec.FileName != gen.FileName {
		t.Errorf("get = %+v", rec)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/ads/"+gen.Record.ID, nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", del.StatusCode)
	}
	if resp := get(t, srv.URL+"/api/ads/"+gen.Record.ID); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d", resp.StatusCode)
	}
}

func TestErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		do     func() *http.Response
		status int
		code   string
	}{
		{"malformed json", func() *http.Response { return post(t, srv.URL+"/api/generate", "{") }, 400, "INVALID_INPUT"},
		{"empty name", func() *http.Response { return post(t, srv.URL+"/api/preview", `{"state":{"name":" "}}`) }, 400, "INVALID_INPUT"},
		{"bad color", func() *http.Response {
			return post(t, srv.URL+"/api/generate", `{"state":{"name":"x","colors":{"accent":"red"}}}`)
		}, 400, "INVALID_COLOR"},
		{"bad platform", func() *http.Response {
			return post(t, srv.URL+"/api/preview", `{"state":{"name":"x","platform":"myspace"}}`)
		}, 400, "INVALID_PLATFORM"},
		{"bad format", func() *http.Response { return post(t, srv.URL+"/api/preview", `{"state":{"name":"x"},"format":"gif"}`) }, 400, "INVALID_FORMAT"},
		{"local image path", func() *http.Response {
			return post(t, srv.URL+"/api/preview", `{"state":{"name":"x","image_url":"/etc/passwd"}}`)
		}, 400, "INVALID_URL"},
		{"file image url", func() *http.Response {
			return post(t, srv.URL+"/api/generate", `{"state":{"name":"x","image_url":"file:///etc/passwd"}}`)
		}, 400, "INVALID_URL"},
		{"script font url", func() *http.Response {
			return post(t, srv.URL+"/api/preview", `{"state":{"name":"x","font_url":"javascript:alert(1)"}}`)
		}, 400, "INVALID_URL"},
		{"bad limit", func() *http.Response { return get(t, srv.URL+"/api/ads?limit=-1") }, 400, "INVALID_INPUT"},
		{"missing ad", func() *http.Response { return get(t, srv.URL+"/api/ads/nope") }, 404, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.do()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decode[errorResponse](t, resp)
			if body.Code != tt.code || body.Error == "" {
				t.Errorf("body = %+v, want code %s", body, tt.code)
			}
		})
	}
}

func TestFilesRoute(t *testing.T) {
	dir := t.TempDir()
	objects, err := filesystem.NewObjectStore(dir, "/files")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := objects.Upload(context.Background(), "ads/x.png", []byte("png"), storage.UploadOptions{}); err != nil {
		t.Fatal(err)
	}

	srv, _ := newTestServer(t, WithFiles("/files", dir))
	resp := get(t, srv.URL+"/files/ads/x.png")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if data, _ := io.ReadAll(resp.Body); string(data) != "png" {
		t.Errorf("body = %q", data)
	}
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, WithAllowedOrigins("https://studio.example.com"))

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/generate", nil)
	req.Header.Set("Origin", "https://studio.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://studio.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	r := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(r).ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
