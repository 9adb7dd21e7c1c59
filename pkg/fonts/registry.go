package fonts

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/adstudio/pkg/cache"
	adserrors "github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/httputil"
)

// Status is the load state of a registered font.
type Status int

const (
	StatusUnknown Status = iota
	StatusPending
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Google serves TTF sources to user agents without WOFF2 support.
const legacyUserAgent = "Mozilla/5.0 (Windows NT 6.1) AppleWebKit/534.30 (KHTML, like Gecko) Safari/534.30"

const maxFontBytes = 16 << 20

var cssSrcRe = regexp.MustCompile(`src:\s*url\(([^)]+)\)`)

// Option configures a [Registry].
type Option func(*Registry)

// WithHTTPClient sets the client used to fetch stylesheets and font files.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) { r.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRetryDelay sets the pause before the single retry of a failed fetch.
func WithRetryDelay(d time.Duration) Option {
	return func(r *Registry) { r.retryDelay = d }
}

// WithCache keeps downloaded font files in c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(r *Registry) {
		if c != nil {
			r.cache = c
			r.cacheTTL = ttl
		}
	}
}

type entry struct {
	done   chan struct{}
	font   *opentype.Font
	family string
	err    error
}

// Registry loads fonts by URL and hands out faces. It is safe for concurrent
// use; concurrent registrations of one URL share a single download.
type Registry struct {
	client     *http.Client
	logger     *log.Logger
	retryDelay time.Duration
	group      singleflight.Group
	cache      cache.Cache
	cacheTTL   time.Duration
	keyer      cache.Keyer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries map[string]*entry
	changed chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     log.New(io.Discard),
		retryDelay: 250 * time.Millisecond,
		cache:      cache.NewNullCache(),
		keyer:      cache.NewDefaultKeyer(),
		ctx:        ctx,
		cancel:     cancel,
		entries:    make(map[string]*entry),
		changed:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register starts loading the font at rawURL. It returns immediately and is a
// no-op for URLs already registered.
func (r *Registry) Register(rawURL string) {
	if rawURL == "" {
		return
	}
	r.mu.Lock()
	if _, ok := r.entries[rawURL]; ok || r.ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	e := &entry{done: make(chan struct{}), family: FamilyFromURL(rawURL)}
	r.entries[rawURL] = e
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		v, err, _ := r.group.Do(rawURL, func() (any, error) {
			return r.load(r.ctx, rawURL)
		})
		if err != nil {
			r.logger.Warn("font load failed, using fallback", "url", rawURL, "err", err)
			e.err = adserrors.Wrap(adserrors.ErrCodeFontLoad, err, "load font %s", rawURL)
		} else {
			e.font = v.(*opentype.Font)
			r.logger.Debug("font ready", "family", e.family)
		}
		close(e.done)
		r.notify()
	}()
}

// Wait blocks until every registered font has resolved or ctx is done. Font
// failures are not returned; those fonts render with the fallback.
func (r *Registry) Wait(ctx context.Context) error {
	r.mu.Lock()
	pending := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		pending = append(pending, e)
	}
	r.mu.Unlock()

	for _, e := range pending {
		select {
		case <-e.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Status returns the load state of rawURL.
func (r *Registry) Status(rawURL string) Status {
	r.mu.Lock()
	e, ok := r.entries[rawURL]
	r.mu.Unlock()
	if !ok {
		return StatusUnknown
	}
	select {
	case <-e.done:
		if e.err != nil {
			return StatusFailed
		}
		return StatusReady
	default:
		return StatusPending
	}
}

// Changed returns a channel that is closed the next time any font resolves.
// Callers re-render and then call Changed again.
func (r *Registry) Changed() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed
}

// Face returns a face for rawURL at size points. If the font is not ready
// (or rawURL is empty) an embedded Go font of the requested style is used.
// Faces are not safe for concurrent use; callers get a fresh one each time.
func (r *Registry) Face(rawURL string, size float64, bold, italic bool) (font.Face, error) {
	f := r.resolved(rawURL)
	if f == nil {
		return FallbackFace(size, bold, italic)
	}
	return newFace(f, size)
}

// Family returns the CSS family name for rawURL, or "" if unknown.
func (r *Registry) Family(rawURL string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[rawURL]; ok {
		return e.family
	}
	return FamilyFromURL(rawURL)
}

// Close cancels outstanding downloads and waits for them to stop. Fonts
// registered afterwards are ignored.
func (r *Registry) Close() error {
	// Register checks ctx and calls wg.Add under mu, so no Add can race
	// the Wait below.
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	return nil
}

func (r *Registry) resolved(rawURL string) *opentype.Font {
	if rawURL == "" {
		return nil
	}
	r.mu.Lock()
	e, ok := r.entries[rawURL]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-e.done:
		return e.font
	default:
		return nil
	}
}

func (r *Registry) notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *Registry) load(ctx context.Context, rawURL string) (*opentype.Font, error) {
	key := r.keyer.AssetKey("font", rawURL)
	if data, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		if f, err := opentype.Parse(data); err == nil {
			return f, nil
		}
	}
	data, err := r.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
		r.logger.Debug("font cache write failed", "url", rawURL, "err", err)
	}
	return f, nil
}

func (r *Registry) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	fileURL := rawURL
	if IsGoogleCSS(rawURL) {
		css, err := r.get(ctx, rawURL, legacyUserAgent)
		if err != nil {
			return nil, err
		}
		m := cssSrcRe.FindSubmatch(css)
		if m == nil {
			return nil, errors.New("no font source in stylesheet")
		}
		fileURL = trimQuotes(string(m[1]))
	}
	return r.get(ctx, fileURL, "")
}

func (r *Registry) get(ctx context.Context, rawURL, userAgent string) ([]byte, error) {
	var body []byte
	err := httputil.Retry(ctx, 2, r.retryDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		if userAgent != "" {
			req.Header.Set("User-Agent", userAgent)
		}
		resp, err := r.client.Do(req)
		if errors.Is(err, httputil.ErrNonPublicAddress) {
			return err
		}
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		defer resp.Body.Close()
		if err := httputil.CheckStatus(resp.StatusCode); err != nil {
			return err
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxFontBytes))
		return err
	})
	return body, err
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
