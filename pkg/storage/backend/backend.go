// Package backend opens the object and record stores named in
// configuration.
package backend

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	adserrors "github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/storage"
	"github.com/matzehuels/adstudio/pkg/storage/filesystem"
	"github.com/matzehuels/adstudio/pkg/storage/memory"
	"github.com/matzehuels/adstudio/pkg/storage/mongo"
	"github.com/matzehuels/adstudio/pkg/storage/s3"
	"github.com/matzehuels/adstudio/pkg/storage/sqlite"
)

// Backend names.
const (
	Memory     = "memory"
	Filesystem = "filesystem"
	S3         = "s3"
	SQLite     = "sqlite"
	Mongo      = "mongo"
)

// Config selects and configures the stores.
type Config struct {
	Objects string `toml:"objects"` // memory, filesystem or s3
	Records string `toml:"records"` // memory, filesystem, sqlite or mongo

	Path      string `toml:"path"`       // filesystem root
	PublicURL string `toml:"public_url"` // base of returned object URLs

	S3Bucket string `toml:"s3_bucket"`
	S3Prefix string `toml:"s3_prefix"`

	SQLitePath string `toml:"sqlite_path"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Defaults returns a configuration that keeps everything under ./data.
func Defaults() Config {
	return Config{
		Objects:    Filesystem,
		Records:    SQLite,
		Path:       "data",
		PublicURL:  "/files",
		SQLitePath: filepath.Join("data", "adstudio.db"),
	}
}

// Stores is an opened pair of stores.
type Stores struct {
	Objects storage.ObjectStore
	Records storage.RecordStore

	// Root is the filesystem object root, if Objects is a filesystem store.
	Root string
}

// Close closes the record store.
func (s *Stores) Close() error {
	if s.Records == nil {
		return nil
	}
	return s.Records.Close()
}

// Open opens the stores named in cfg. Empty backend names fall back to
// memory.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Stores, error) {
	objects, root, err := openObjects(ctx, cfg)
	if err != nil {
		return nil, err
	}
	records, err := openRecords(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("storage ready", "objects", nameOr(cfg.Objects), "records", nameOr(cfg.Records))
	}
	return &Stores{Objects: objects, Records: records, Root: root}, nil
}

func nameOr(s string) string {
	if s == "" {
		return Memory
	}
	return s
}

func openObjects(ctx context.Context, cfg Config) (storage.ObjectStore, string, error) {
	switch cfg.Objects {
	case "", Memory:
		return memory.NewObjectStore(cfg.PublicURL), "", nil
	case Filesystem:
		root := ObjectRoot(cfg)
		st, err := filesystem.NewObjectStore(root, cfg.PublicURL)
		return st, root, err
	case S3:
		var opts []s3.Option
		if cfg.PublicURL != "" {
			opts = append(opts, s3.WithPublicURL(cfg.PublicURL))
		}
		if cfg.S3Prefix != "" {
			opts = append(opts, s3.WithPrefix(cfg.S3Prefix))
		}
		st, err := s3.New(ctx, cfg.S3Bucket, opts...)
		return st, "", err
	}
	return nil, "", adserrors.New(adserrors.ErrCodeInvalidInput, "unknown object store %q", cfg.Objects)
}

func openRecords(ctx context.Context, cfg Config) (storage.RecordStore, error) {
	switch cfg.Records {
	case "", Memory:
		return memory.NewRecordStore(), nil
	case Filesystem:
		return filesystem.NewRecordStore(filepath.Join(pathOr(cfg.Path), "records"))
	case SQLite:
		dsn := cfg.SQLitePath
		if dsn == "" {
			dsn = filepath.Join(pathOr(cfg.Path), "adstudio.db")
		}
		if dsn != ":memory:" {
			if err := ensureDir(filepath.Dir(dsn)); err != nil {
				return nil, err
			}
		}
		return sqlite.Open(ctx, dsn)
	case Mongo:
		if cfg.MongoURI == "" {
			return nil, adserrors.New(adserrors.ErrCodeInvalidInput, "mongo record store needs a URI")
		}
		return mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	}
	return nil, adserrors.New(adserrors.ErrCodeInvalidInput, "unknown record store %q", cfg.Records)
}

// ObjectRoot returns the directory the filesystem object store uses.
func ObjectRoot(cfg Config) string {
	return filepath.Join(pathOr(cfg.Path), "objects")
}

func pathOr(p string) string {
	if p == "" {
		return "data"
	}
	return p
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return adserrors.Wrap(adserrors.ErrCodeStorage, err, "create %s", dir)
	}
	return nil
}
