// Package remote calls the server-side renderer: a separate HTTP service
// that takes the captured image and the ad's metadata as a multipart form
// and returns the URL of the image it generated.
//
// The pipeline uses it as a fallback when local capture degraded to the
// placeholder.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/charmbracelet/log"

	adserrors "github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/httputil"
	"github.com/matzehuels/adstudio/pkg/observability"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultAttempts   = 2
	DefaultRetryDelay = 500 * time.Millisecond

	maxResponseBytes = 1 << 20
)

// Colors mirror the ad's color scheme.
type Colors struct {
	Accent         string  `json:"accent"`
	CTA            string  `json:"cta"`
	Overlay        string  `json:"overlay"`
	Text           string  `json:"text"`
	Description    string  `json:"description"`
	OverlayOpacity float64 `json:"overlay_opacity"`
}

// Metadata is the JSON part of the form.
type Metadata struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	CTA         string `json:"cta"`
	Colors      Colors `json:"colors"`
	FontURL     string `json:"font_url"`
	Template    string `json:"template"`
	Platform    string `json:"platform"`
	Language    string `json:"language"`
}

type response struct {
	URL      string `json:"url"`
	ImageURL string `json:"image_url"`
	Error    string `json:"error"`
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets the underlying client.
func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.http = c } }

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option { return func(cl *Client) { cl.timeout = d } }

// WithAttempts sets how many times a transient failure is tried.
func WithAttempts(n int) Option { return func(cl *Client) { cl.attempts = n } }

// WithRetryDelay sets the initial pause between attempts.
func WithRetryDelay(d time.Duration) Option { return func(cl *Client) { cl.retryDelay = d } }

// WithToken sends token as a bearer credential.
func WithToken(token string) Option { return func(cl *Client) { cl.token = token } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// Client posts render requests to one endpoint.
type Client struct {
	endpoint   string
	http       *http.Client
	timeout    time.Duration
	attempts   int
	retryDelay time.Duration
	token      string
	logger     *log.Logger
}

// New creates a client for endpoint, which must be an http(s) URL.
func New(endpoint string, opts ...Option) (*Client, error) {
	if err := adserrors.ValidateURL(endpoint); err != nil {
		return nil, err
	}
	c := &Client{
		endpoint:   endpoint,
		http:       http.DefaultClient,
		timeout:    DefaultTimeout,
		attempts:   DefaultAttempts,
		retryDelay: DefaultRetryDelay,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the renderer URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Render uploads image with meta and returns the generated image's URL.
func (c *Client) Render(ctx context.Context, image []byte, fileName string, meta Metadata) (string, error) {
	body, contentType, err := encodeForm(image, fileName, meta)
	if err != nil {
		return "", adserrors.Wrap(adserrors.ErrCodeInternal, err, "encode render request")
	}

	var url string
	err = httputil.Retry(ctx, c.attempts, c.retryDelay, func() error {
		var err error
		url, err = c.post(ctx, body, contentType)
		if err != nil {
			c.logger.Debug("remote render attempt failed", "endpoint", c.endpoint, "err", err)
		}
		return err
	})
	switch {
	case err == nil:
		return url, nil
	case adserrors.Coded(err):
		return "", err
	case ctx.Err() != nil:
		return "", adserrors.Wrap(adserrors.ErrCodeTimeout, err, "remote render")
	default:
		return "", adserrors.Wrap(adserrors.ErrCodeNetwork, err, "remote render")
	}
}

func (c *Client) post(ctx context.Context, body []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return "", &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &httputil.RetryableError{Err: err}
	}
	var r response
	decodeErr := json.Unmarshal(raw, &r)

	if err := httputil.CheckResponse(resp); err != nil {
		if decodeErr == nil && r.Error != "" {
			c.logger.Debug("remote renderer error", "status", resp.StatusCode, "message", r.Error)
		}
		return "", err
	}
	if decodeErr != nil {
		return "", adserrors.Wrap(adserrors.ErrCodeNetwork, decodeErr, "decode renderer response")
	}
	if r.Error != "" {
		return "", adserrors.New(adserrors.ErrCodeCapture, "renderer: %s", r.Error)
	}
	if u := firstNonEmpty(r.URL, r.ImageURL); u != "" {
		return u, nil
	}
	return "", adserrors.New(adserrors.ErrCodeNetwork, "renderer response has no image URL")
}

func encodeForm(image []byte, fileName string, meta Metadata) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+escapeQuotes(fileName)+`"`)
	h.Set("Content-Type", http.DetectContentType(image))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("metadata", string(metaJSON)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
