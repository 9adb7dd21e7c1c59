package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adstudio/internal/server"
	"github.com/matzehuels/adstudio/pkg/storage/backend"
)

type serveOpts struct {
	addr    string
	noCache bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API: template and platform catalogs, preview downloads,
ad generation and the gallery. Files written by the filesystem object store
are served under the configured public URL path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact and font cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	runner, err := c.newRunner(ctx, runnerOpts{
		noCache:    opts.noCache,
		stores:     true,
		publicOnly: !c.Config.Server.AllowPrivateFetch,
	})
	if err != nil {
		return err
	}
	defer runner.Close()

	addr := opts.addr
	if addr == "" {
		addr = c.Config.Server.Addr
	}

	srvOpts := []server.Option{server.WithLogger(c.Logger)}
	if len(c.Config.Server.Origins) > 0 {
		srvOpts = append(srvOpts, server.WithAllowedOrigins(c.Config.Server.Origins...))
	}
	if prefix, dir, ok := localFiles(c.Config.Storage); ok {
		srvOpts = append(srvOpts, server.WithFiles(prefix, dir))
		c.Logger.Info("serving files", "prefix", prefix, "dir", dir)
	}

	return server.New(runner, srvOpts...).ListenAndServe(ctx, addr)
}

// localFiles reports whether the object store writes to local disk under a
// path-only public URL the server should serve.
func localFiles(cfg backend.Config) (prefix, dir string, ok bool) {
	if cfg.Objects != backend.Filesystem || !strings.HasPrefix(cfg.PublicURL, "/") {
		return "", "", false
	}
	return strings.TrimSuffix(cfg.PublicURL, "/"), backend.ObjectRoot(cfg), true
}
