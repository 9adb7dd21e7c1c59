package pipeline

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/adstudio/pkg/cache"
	"github.com/matzehuels/adstudio/pkg/core/capture"
	"github.com/matzehuels/adstudio/pkg/core/compose"
	adserrors "github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/fonts"
	"github.com/matzehuels/adstudio/pkg/naming"
	"github.com/matzehuels/adstudio/pkg/observability"
	"github.com/matzehuels/adstudio/pkg/remote"
	"github.com/matzehuels/adstudio/pkg/storage"
)

// Runner executes the generate pipeline. Both CLI and API use it.
//
// The Runner holds no per-ad state; each Generate call opens and closes its
// own editing session, so one Runner may serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Objects and Records persist uploads. Both are optional.
	Objects storage.ObjectStore
	Records storage.RecordStore

	// Remote renders degraded captures server-side. Optional.
	Remote *remote.Client

	// Chrome, when set, becomes the primary rasterizer with the native
	// renderer as its fallback.
	Chrome *capture.ChromeRasterizer

	// LocalFiles lets compositions reference images on the local disk.
	// Leave it off when states come from untrusted clients.
	LocalFiles bool

	// HTTPClient, when set, fetches images and fonts.
	HTTPClient *http.Client

	// SessionOptions are applied to every session after the runner's own.
	SessionOptions []compose.SessionOption

	// Now stamps file names. Defaults to time.Now.
	Now func() time.Time
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Now:    time.Now,
	}
}

// Generate runs compose → capture → name → fallback → persist.
func (r *Runner) Generate(ctx context.Context, opts Options) (result *Result, err error) {
	if err := opts.validate(r.LocalFiles); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, opts.State.Platform, string(opts.State.Template))
	start := time.Now()
	defer func() {
		name := ""
		if result != nil {
			name = result.FileName
		}
		hooks.OnGenerateComplete(ctx, name, time.Since(start), err)
	}()

	result = &Result{}

	// Stage 1+2: Compose and capture
	captureStart := time.Now()
	art, hit, err := r.CaptureWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Artifact = art
	result.Stats.CaptureTime = time.Since(captureStart)
	result.CacheInfo.CaptureHit = hit

	r.Logger.Info("captured ad",
		"strategy", art.Strategy,
		"width", art.Width,
		"height", art.Height,
		"cached", hit,
		"duration", result.Stats.CaptureTime)

	// Stage 3: Name
	result.FileName = r.fileName(opts, art)

	// Stage 4: Remote fallback
	if art.Degraded && r.Remote != nil {
		remoteStart := time.Now()
		url, err := r.Remote.Render(ctx, art.Data, result.FileName, RemoteMetadata(opts.State, art))
		result.Stats.RemoteTime = time.Since(remoteStart)
		if err != nil {
			r.Logger.Warn("remote render failed, keeping placeholder", "err", err)
		} else {
			result.URL, result.Remote = url, true
			r.Logger.Info("rendered remotely", "url", url, "duration", result.Stats.RemoteTime)
		}
	}

	// Stage 5: Persist
	if opts.Upload {
		if err := r.persist(ctx, opts, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// CaptureWithCacheInfo captures the ad, consulting the artifact cache, and
// reports whether the result came from the cache. Degraded captures are
// never cached.
func (r *Runner) CaptureWithCacheInfo(ctx context.Context, opts Options) (*capture.Artifact, bool, error) {
	if err := opts.validate(r.LocalFiles); err != nil {
		return nil, false, err
	}

	hash, err := cache.HashJSON(opts.State)
	if err != nil {
		return nil, false, adserrors.Wrap(adserrors.ErrCodeInternal, err, "hash composition")
	}
	key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts())
	cacheHooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if art, err := artifactFromBytes(data, opts.Format); err == nil {
				cacheHooks.OnCacheHit(ctx, key)
				return art, true, nil
			}
		}
		cacheHooks.OnCacheMiss(ctx, key)
	}

	sess, err := r.NewSession(opts.State, capture.WithFormat(opts.Format, opts.Quality))
	if err != nil {
		return nil, false, err
	}
	defer sess.Close()

	art, err := sess.Capture(ctx)
	if err != nil {
		return nil, false, err
	}
	if !art.Degraded {
		if err := r.Cache.Set(ctx, key, art.Data, DefaultArtifactTTL); err == nil {
			cacheHooks.OnCacheSet(ctx, key, len(art.Data))
		} else {
			r.Logger.Debug("artifact cache write failed", "err", err)
		}
	}
	return art, false, nil
}

// Preview captures and names the ad. It skips the remote fallback and never
// uploads.
func (r *Runner) Preview(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	art, hit, err := r.CaptureWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Result{
		Artifact:  art,
		FileName:  r.fileName(opts, art),
		Stats:     Stats{CaptureTime: time.Since(start)},
		CacheInfo: CacheInfo{CaptureHit: hit},
	}, nil
}

// Capture is a convenience wrapper that discards the cache hit info.
func (r *Runner) Capture(ctx context.Context, opts Options) (*capture.Artifact, error) {
	art, _, err := r.CaptureWithCacheInfo(ctx, opts)
	return art, err
}

// NewSession opens an editing session wired to the runner's font cache and
// rasterizers. extra capture options are applied last.
func (r *Runner) NewSession(st compose.State, extra ...capture.Option) (*compose.Session, error) {
	fontOpts := []fonts.Option{
		fonts.WithLogger(r.Logger),
		fonts.WithCache(r.Cache, DefaultFontTTL),
	}
	loaderOpts := []compose.LoaderOption{compose.WithLoaderLogger(r.Logger)}
	if r.HTTPClient != nil {
		fontOpts = append(fontOpts, fonts.WithHTTPClient(r.HTTPClient))
		loaderOpts = append(loaderOpts, compose.WithHTTPClient(r.HTTPClient))
	}
	if r.LocalFiles {
		loaderOpts = append(loaderOpts, compose.WithLocalFiles())
	}
	reg := fonts.NewRegistry(fontOpts...)

	var capOpts []capture.Option
	if r.Chrome != nil {
		capOpts = append(capOpts,
			capture.WithPrimary(r.Chrome.ForFamilies(reg)),
			capture.WithFallback(capture.NewNativeRasterizer(reg)),
		)
	}
	capOpts = append(capOpts, extra...)

	opts := []compose.SessionOption{
		compose.WithFontRegistry(reg),
		compose.WithLoader(compose.NewImageLoader(loaderOpts...)),
		compose.WithSessionLogger(r.Logger),
		compose.WithCaptureOptions(capOpts...),
	}
	opts = append(opts, r.SessionOptions...)
	sess, err := compose.NewSession(st, opts...)
	if err != nil {
		reg.Close()
		return nil, err
	}
	return sess, nil
}

// DeleteAd removes a gallery record and its stored object.
func (r *Runner) DeleteAd(ctx context.Context, id string) error {
	if r.Records == nil {
		return storage.NotFound("record", id)
	}
	rec, err := r.Records.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.Objects != nil && rec.ImagePath != "" {
		if err := r.Objects.Delete(ctx, rec.ImagePath); err != nil {
			return err
		}
	}
	return r.Records.Delete(ctx, id)
}

// Close releases resources held by the runner (the cache and record store).
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Records != nil {
		if cerr := r.Records.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (r *Runner) persist(ctx context.Context, opts Options, result *Result) error {
	art := result.Artifact
	rec := &storage.AdRecord{
		Name:        opts.State.Name,
		FileName:    result.FileName,
		Platform:    opts.State.Platform,
		Language:    opts.State.Language,
		Template:    string(opts.State.Template),
		Headline:    opts.State.Headline,
		Description: opts.State.Description,
		CTA:         opts.State.CTA,
		AccentColor: opts.State.Colors.Accent,
		FontURL:     opts.State.FontURL,
		ImageURL:    result.URL,
		Width:       art.Width,
		Height:      art.Height,
	}

	if r.Objects != nil && !result.Remote {
		path := ObjectPrefix + result.FileName
		start := time.Now()
		url, err := r.Objects.Upload(ctx, path, art.Data, storage.UploadOptions{
			ContentType: art.ContentType(),
			Upsert:      true,
		})
		result.Stats.UploadTime = time.Since(start)
		observability.Pipeline().OnUploadComplete(ctx, path, len(art.Data), result.Stats.UploadTime, err)
		if err != nil {
			return storage.Wrap(err, "upload %s", path)
		}
		result.URL = url
		rec.ImagePath, rec.ImageURL = path, url
		r.Logger.Info("uploaded ad", "path", path, "bytes", len(art.Data))
	}

	if r.Records != nil {
		if err := r.Records.Create(ctx, rec); err != nil {
			return storage.Wrap(err, "record %s", result.FileName)
		}
		result.Record = rec
	}
	return nil
}

// RemoteMetadata describes st for the remote renderer.
func RemoteMetadata(st compose.State, art *capture.Artifact) remote.Metadata {
	c := st.Colors
	return remote.Metadata{
		Width:       art.Width,
		Height:      art.Height,
		Headline:    st.Headline,
		Description: st.Description,
		CTA:         st.CTA,
		Colors: remote.Colors{
			Accent:         c.Accent,
			CTA:            c.CTA,
			Overlay:        c.Overlay,
			Text:           c.Text,
			Description:    c.Description,
			OverlayOpacity: c.OverlayOpacity,
		},
		FontURL:  st.FontURL,
		Template: string(st.Template),
		Platform: st.Platform,
		Language: st.Language,
	}
}

func artifactFromBytes(data []byte, f capture.Format) (*capture.Artifact, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &capture.Artifact{
		Data:     data,
		Format:   f,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Strategy: "cache",
	}, nil
}

func (r *Runner) fileName(opts Options, art *capture.Artifact) string {
	date := opts.Date
	if date.IsZero() {
		date = r.now()
	}
	return naming.FileName(opts.NamingParams(date), art.Format.Ext())
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
