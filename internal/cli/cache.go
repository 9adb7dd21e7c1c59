package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adstudio/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered-ad and font cache",
	}
	cmd.AddCommand(c.cacheClearCommand(), c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached renders and fonts",
		Long: `Remove all cached renders and fonts.

With a Redis cache configured, only keys under the configured prefix are
removed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, where, err := c.clearableCache(ctx)
			if err != nil {
				return err
			}
			if store == nil {
				printInfo("Cache is empty")
				return nil
			}
			defer store.Close()

			n, err := store.(cache.Clearer).Clear(ctx)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("%s", where)
			return nil
		},
	}
}

// clearableCache opens the configured cache for clearing. Unlike newCache
// it reports an unreachable Redis instead of degrading to no cache. A nil
// cache means there is nothing to clear.
func (c *CLI) clearableCache(ctx context.Context) (cache.Cache, string, error) {
	if cfg := c.Config.Cache.Redis; cfg.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
		}
		return rc, fmt.Sprintf("Redis: %s (prefix %q)", cfg.Addr, cfg.Prefix), nil
	}

	dir, err := c.cacheDir()
	if err != nil {
		return nil, "", fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, "", nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, "", err
	}
	return fc, "Directory: " + dir, nil
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(*cobra.Command, []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(stdout, dir)
			return nil
		},
	}
}
