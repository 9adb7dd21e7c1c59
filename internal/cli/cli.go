package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/adstudio/pkg/buildinfo"
	"github.com/matzehuels/adstudio/pkg/cache"
	"github.com/matzehuels/adstudio/pkg/core/capture"
	"github.com/matzehuels/adstudio/pkg/httputil"
	"github.com/matzehuels/adstudio/pkg/logstore"
	"github.com/matzehuels/adstudio/pkg/observability"
	"github.com/matzehuels/adstudio/pkg/pipeline"
	"github.com/matzehuels/adstudio/pkg/remote"
	"github.com/matzehuels/adstudio/pkg/storage/backend"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "adstudio"

	// publicFetchTimeout bounds image and font downloads made for the API.
	publicFetchTimeout = 15 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	console    io.Writer
	configPath string
	logFile    string
	logs       *logstore.Store
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:  newLogger(w, level),
		Config:  DefaultConfig(),
		console: w,
	}
}

// SetLogLevel updates the logger's level. Debug level also installs the
// logging observability hooks.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	c.Logger.SetReportCaller(level <= log.DebugLevel)
	if level <= log.DebugLevel {
		observability.NewLogHooks(c.Logger).Install()
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Adstudio composes and renders social media ads",
		Long:         `Adstudio composes layered social media ads from an image, copy and a template, renders them at platform size and keeps a gallery of the results.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/adstudio/config.toml)")
	root.PersistentFlags().StringVar(&c.logFile, "log-file", "", "keep a size-capped copy of the log in this file")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.galleryCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.platformsCommand())
	root.AddCommand(c.dedupeCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads configuration and attaches the log store.
func (c *CLI) setup() error {
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	if c.logFile != "" && c.logs == nil {
		store, err := logstore.New(logstore.DefaultCap, logstore.WithFile(c.logFile))
		if err != nil {
			return err
		}
		c.logs = store
		c.Logger.SetOutput(store.Tee(c.console))
	}
	return nil
}

func (c *CLI) teardown() error {
	if c.logs != nil {
		c.Logger.SetOutput(c.console)
		c.logs = nil
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts selects what newRunner wires up.
type runnerOpts struct {
	noCache bool
	stores  bool
	// local allows images from the local disk.
	local bool
	// publicOnly restricts image and font fetches to public hosts.
	publicOnly bool
}

// newRunner creates a pipeline runner for CLI use. Close it when done; that
// also closes the cache and the record store.
func (c *CLI) newRunner(ctx context.Context, opts runnerOpts) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(ch, c.keyer(), c.Logger)
	r.LocalFiles = opts.local
	if opts.publicOnly {
		r.HTTPClient = httputil.NewPublicClient(publicFetchTimeout)
	}

	if opts.stores {
		stores, err := backend.Open(ctx, c.Config.Storage, c.Logger)
		if err != nil {
			ch.Close()
			return nil, err
		}
		r.Objects, r.Records = stores.Objects, stores.Records
	}

	if u := c.Config.Remote.URL; u != "" {
		timeout, err := duration(c.Config.Remote.Timeout, remote.DefaultTimeout)
		if err != nil {
			r.Close()
			return nil, err
		}
		rc, err := remote.New(u,
			remote.WithToken(c.Config.Remote.Token),
			remote.WithTimeout(timeout),
			remote.WithLogger(c.Logger))
		if err != nil {
			r.Close()
			return nil, err
		}
		r.Remote = rc
	}

	if c.Config.Chrome.Enabled {
		chromeOpts := []capture.ChromeOption{capture.WithExecPath(c.Config.Chrome.ExecPath)}
		if c.Config.Chrome.Timeout != "" {
			d, err := duration(c.Config.Chrome.Timeout, 0)
			if err != nil {
				r.Close()
				return nil, err
			}
			chromeOpts = append(chromeOpts, capture.WithChromeTimeout(d))
		}
		r.Chrome = capture.NewChromeRasterizer(chromeOpts...)
	}
	return r, nil
}

// newCache opens the configured cache: Redis when an address is set,
// otherwise files under the cache directory.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.Config.Cache.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, c.Config.Cache.Redis)
		if err != nil {
			c.Logger.Warn("redis unavailable, caching disabled", "addr", c.Config.Cache.Redis.Addr, "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// keyer returns the cache keyer, scoped when configured. nil means the
// default keyer.
func (c *CLI) keyer() cache.Keyer {
	if c.Config.Cache.Scope == "" {
		return nil
	}
	return cache.NewScopedKeyer(nil, c.Config.Cache.Scope+":")
}

// cacheDir returns the configured cache directory or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// openStores opens only the storage backends.
func (c *CLI) openStores(ctx context.Context) (*backend.Stores, error) {
	return backend.Open(ctx, c.Config.Storage, nil)
}

// stdout is where command output goes.
var stdout io.Writer = os.Stdout
