package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/adstudio/pkg/cache"
	"github.com/matzehuels/adstudio/pkg/storage/backend"
)

// envPrefix prefixes every environment override.
const envPrefix = "ADSTUDIO_"

// Config is the on-disk configuration (config.toml), after .env and
// environment overrides have been applied.
type Config struct {
	Cache   CacheConfig    `toml:"cache"`
	Storage backend.Config `toml:"storage"`
	Remote  RemoteConfig   `toml:"remote"`
	Chrome  ChromeConfig   `toml:"chrome"`
	Server  ServerConfig   `toml:"server"`
}

// CacheConfig selects the artifact and font cache. A Redis address wins
// over the directory. Scope prefixes every key so deployments can share a
// cache.
type CacheConfig struct {
	Dir   string            `toml:"dir"`
	Scope string            `toml:"scope"`
	Redis cache.RedisConfig `toml:"redis"`
}

// RemoteConfig points at the server-side renderer used for degraded
// captures. An empty URL disables it.
type RemoteConfig struct {
	URL     string `toml:"url"`
	Token   string `toml:"token"`
	Timeout string `toml:"timeout"`
}

// ChromeConfig enables headless Chrome as the primary rasterizer. It is on
// by default when a Chrome or Chromium binary is found on PATH.
type ChromeConfig struct {
	Enabled  bool   `toml:"enabled"`
	ExecPath string `toml:"exec_path"`
	Timeout  string `toml:"timeout"`
}

// ServerConfig configures `adstudio serve`. Images and fonts named in API
// requests are only fetched from public hosts unless AllowPrivateFetch is
// set.
type ServerConfig struct {
	Addr              string   `toml:"addr"`
	Origins           []string `toml:"origins"`
	AllowPrivateFetch bool     `toml:"allow_private_fetch"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Cache:   CacheConfig{Redis: cache.RedisConfig{Prefix: appName + ":"}},
		Storage: backend.Defaults(),
		Chrome:  ChromeConfig{Enabled: detectChrome(exec.LookPath)},
		Server:  ServerConfig{Addr: ":8080"},
	}
}

// chromeBinaries are the names chromedp itself looks for.
var chromeBinaries = []string{
	"headless_shell",
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"google-chrome-beta",
	"google-chrome-unstable",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// detectChrome reports whether any known Chrome binary resolves.
func detectChrome(lookPath func(string) (string, error)) bool {
	for _, name := range chromeBinaries {
		if _, err := lookPath(name); err == nil {
			return true
		}
	}
	return false
}

// LoadConfig reads path (or the default location when path is empty),
// loads .env from the working directory and applies ADSTUDIO_* overrides.
// A missing file is not an error unless path was given explicitly.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		if p, err := configFile(); err == nil {
			path = p
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides fields from the environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	str("CACHE_DIR", &c.Cache.Dir)
	str("CACHE_SCOPE", &c.Cache.Scope)
	str("REDIS_ADDR", &c.Cache.Redis.Addr)
	str("REDIS_PASSWORD", &c.Cache.Redis.Password)
	str("REDIS_PREFIX", &c.Cache.Redis.Prefix)

	str("OBJECT_STORE", &c.Storage.Objects)
	str("RECORD_STORE", &c.Storage.Records)
	str("DATA_DIR", &c.Storage.Path)
	str("PUBLIC_URL", &c.Storage.PublicURL)
	str("S3_BUCKET", &c.Storage.S3Bucket)
	str("S3_PREFIX", &c.Storage.S3Prefix)
	str("SQLITE_PATH", &c.Storage.SQLitePath)
	str("MONGO_URI", &c.Storage.MongoURI)
	str("MONGO_DATABASE", &c.Storage.MongoDatabase)
	str("MONGO_COLLECTION", &c.Storage.MongoCollection)

	str("REMOTE_URL", &c.Remote.URL)
	str("REMOTE_TOKEN", &c.Remote.Token)
	str("CHROME_PATH", &c.Chrome.ExecPath)
	str("ADDR", &c.Server.Addr)

	if v, ok := lookup(envPrefix + "REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", envPrefix, err)
		}
		c.Cache.Redis.DB = n
	}
	if v, ok := lookup(envPrefix + "CHROME"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sCHROME: %w", envPrefix, err)
		}
		c.Chrome.Enabled = b
	}
	if v, ok := lookup(envPrefix + "ALLOW_PRIVATE_FETCH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sALLOW_PRIVATE_FETCH: %w", envPrefix, err)
		}
		c.Server.AllowPrivateFetch = b
	}
	if v, ok := lookup(envPrefix + "ORIGINS"); ok {
		c.Server.Origins = splitList(v)
	}
	return nil
}

// duration parses s, returning def for an empty string.
func duration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// =============================================================================
// Paths
// =============================================================================

// configFile returns the default config path (~/.config/adstudio/config.toml).
func configFile() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/adstudio/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
