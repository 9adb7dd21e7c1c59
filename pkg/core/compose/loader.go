package compose

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/adstudio/pkg/core/scene"
	adserrors "github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/httputil"
	"github.com/matzehuels/adstudio/pkg/observability"
)

const (
	defaultImageTimeout = 15 * time.Second
	defaultRetryDelay   = 250 * time.Millisecond
	maxImageBytes       = 32 << 20
)

// ErrClosed is returned for loads requested after the cache was closed.
var ErrClosed = errors.New("preload cache closed")

// LoaderOption configures an [ImageLoader].
type LoaderOption func(*ImageLoader)

// WithHTTPClient sets the client used for remote images.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *ImageLoader) { l.client = c }
}

// WithRetryDelay sets the pause before the single automatic retry.
func WithRetryDelay(d time.Duration) LoaderOption {
	return func(l *ImageLoader) { l.retryDelay = d }
}

// WithLocalFiles lets the loader read file:// URLs and local paths. Without
// it only http(s) and data: URLs are loaded.
func WithLocalFiles() LoaderOption {
	return func(l *ImageLoader) { l.localFiles = true }
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(lg *log.Logger) LoaderOption {
	return func(l *ImageLoader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// ImageLoader fetches and decodes images from http(s) URLs and base64 data
// URLs, plus file:// URLs and local paths when built with [WithLocalFiles].
// Transient failures are retried once.
type ImageLoader struct {
	client     *http.Client
	retryDelay time.Duration
	localFiles bool
	logger     *log.Logger
}

// NewImageLoader creates a loader with a 15s HTTP timeout.
func NewImageLoader(opts ...LoaderOption) *ImageLoader {
	l := &ImageLoader{
		client:     &http.Client{Timeout: defaultImageTimeout},
		retryDelay: defaultRetryDelay,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches and decodes the image at ref.
func (l *ImageLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	if err := ValidateImageRef(ref, l.localFiles); err != nil {
		return nil, err
	}
	var data []byte
	err := httputil.Retry(ctx, 2, l.retryDelay, func() error {
		var err error
		data, err = l.read(ctx, ref)
		if err != nil {
			l.logger.Debug("image fetch failed", "url", ref, "err", err)
		}
		return err
	})
	if adserrors.Is(err, adserrors.ErrCodeInvalidURL) {
		return nil, err
	}
	if err != nil {
		return nil, adserrors.Wrap(adserrors.ErrCodeImageLoad, err, "load %s", shortRef(ref))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, adserrors.Wrap(adserrors.ErrCodeImageLoad, err, "decode %s", shortRef(ref))
	}
	return img, nil
}

func (l *ImageLoader) read(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return l.fetch(ctx, ref)
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURL(ref)
	case strings.HasPrefix(ref, "file://"):
		u, err := url.Parse(ref)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(u.Path)
	default:
		return os.ReadFile(ref)
	}
}

func (l *ImageLoader) fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := l.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		if errors.Is(err, httputil.ErrNonPublicAddress) {
			return nil, adserrors.Wrap(adserrors.ErrCodeInvalidURL, err, "image host %s is not public", req.URL.Hostname())
		}
		return nil, &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckResponse(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if !strings.HasSuffix(meta, ";base64") {
		s, err := url.PathUnescape(payload)
		return []byte(s), err
	}
	return base64.StdEncoding.DecodeString(payload)
}

func shortRef(ref string) string {
	if strings.HasPrefix(ref, "data:") && len(ref) > 40 {
		return ref[:40] + "..."
	}
	return ref
}

// =============================================================================
// Preload Cache
// =============================================================================

// Loader loads a decoded image.
type Loader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// PreloadCache maps image URLs to handles for the lifetime of an editing
// session. Each URL is loaded at most once; entries are never evicted until
// [PreloadCache.Close].
type PreloadCache struct {
	loader Loader
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	handles map[string]*scene.ImageHandle
	closed  bool
	wg      sync.WaitGroup
}

// NewPreloadCache creates a cache that loads through loader.
func NewPreloadCache(loader Loader) *PreloadCache {
	ctx, cancel := context.WithCancel(context.Background())
	return &PreloadCache{
		loader:  loader,
		ctx:     ctx,
		cancel:  cancel,
		handles: make(map[string]*scene.ImageHandle),
	}
}

// Handle returns the handle for ref, starting the load on first use.
func (c *PreloadCache) Handle(ref string) *scene.ImageHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.handles[ref]; ok {
		return h
	}
	h := scene.NewImageHandle(ref)
	if c.closed {
		h.Resolve(nil, ErrClosed)
		return h
	}
	c.handles[ref] = h
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		img, err := c.loader.Load(c.ctx, ref)
		h.Resolve(img, err)
	}()
	return h
}

// Preload starts loading every ref without waiting.
func (c *PreloadCache) Preload(refs ...string) {
	for _, r := range refs {
		c.Handle(r)
	}
}

// Fetch returns the decoded image for ref, waiting for the load.
func (c *PreloadCache) Fetch(ctx context.Context, ref string) (image.Image, error) {
	h := c.Handle(ref)
	if err := h.Wait(ctx); err != nil {
		return nil, err
	}
	return h.Image(), nil
}

// Len returns the number of cached URLs.
func (c *PreloadCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

// Close cancels pending loads, waits for them to finish and drops all
// entries.
func (c *PreloadCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	c.handles = make(map[string]*scene.ImageHandle)
	c.mu.Unlock()
	return nil
}

var (
	_ ImageSource = (*PreloadCache)(nil)
	_ Loader      = (*ImageLoader)(nil)
)
