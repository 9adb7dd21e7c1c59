// Package storage defines the collaborators that persist generated ads: an
// [ObjectStore] for the raster files and a [RecordStore] for the gallery
// rows that describe them.
//
// Backends live in sub-packages:
//
//   - memory: in-process maps, for tests and ephemeral servers
//   - filesystem: files under a base directory
//   - s3: objects in an S3 bucket (aws-sdk-go-v2)
//   - sqlite: records in a SQLite database (modernc.org/sqlite)
//   - mongo: records in a MongoDB collection
//
// Package backend selects and opens them from configuration.
package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	adserrors "github.com/matzehuels/adstudio/pkg/errors"
)

// ErrNotFound is returned when a record or object does not exist.
var ErrNotFound = adserrors.New(adserrors.ErrCodeNotFound, "not found")

// ErrExists is returned by Upload when the path exists and Upsert is false.
var ErrExists = adserrors.New(adserrors.ErrCodeStorage, "object already exists")

// UploadOptions control an upload.
type UploadOptions struct {
	ContentType string
	Upsert      bool
}

// Object is a stored file.
type Object struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	URL         string    `json:"url"`
	ModTime     time.Time `json:"mod_time"`
}

// ObjectStore stores raster files and hands out public URLs for them.
type ObjectStore interface {
	// Upload stores data at path and returns its public URL.
	Upload(ctx context.Context, path string, data []byte, opts UploadOptions) (string, error)
	// Download returns the bytes stored at path.
	Download(ctx context.Context, path string) ([]byte, error)
	// List returns the objects whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Delete removes path. Deleting a missing path is not an error.
	Delete(ctx context.Context, path string) error
}

// AdRecord is one gallery row.
type AdRecord struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	FileName    string    `json:"file_name" bson:"file_name"`
	Platform    string    `json:"platform" bson:"platform"`
	Language    string    `json:"language" bson:"language"`
	Template    string    `json:"template" bson:"template"`
	Headline    string    `json:"headline" bson:"headline"`
	Description string    `json:"description" bson:"description"`
	CTA         string    `json:"cta" bson:"cta"`
	AccentColor string    `json:"accent_color" bson:"accent_color"`
	FontURL     string    `json:"font_url" bson:"font_url"`
	ImagePath   string    `json:"image_path" bson:"image_path"`
	ImageURL    string    `json:"image_url" bson:"image_url"`
	Width       int       `json:"width" bson:"width"`
	Height      int       `json:"height" bson:"height"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// ListOptions filter a record listing.
type ListOptions struct {
	// Query matches name, headline and file name, case-insensitively.
	Query string
	// Platform restricts results to one platform.
	Platform string
	// Limit caps the number of results; zero means no limit.
	Limit int
}

// RecordStore stores gallery rows. List returns newest first.
type RecordStore interface {
	Create(ctx context.Context, rec *AdRecord) error
	List(ctx context.Context, opts ListOptions) ([]AdRecord, error)
	Get(ctx context.Context, id string) (*AdRecord, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Prepare assigns an ID and creation time to rec where they are missing.
func Prepare(rec *AdRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

// Matches reports whether rec passes the filters in opts. Limit is ignored.
func (opts ListOptions) Matches(rec AdRecord) bool {
	if opts.Platform != "" && rec.Platform != opts.Platform {
		return false
	}
	if opts.Query == "" {
		return true
	}
	q := strings.ToLower(opts.Query)
	for _, f := range []string{rec.Name, rec.Headline, rec.FileName} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// NotFound wraps ErrNotFound with what was looked up.
func NotFound(kind, id string) error {
	return adserrors.Wrap(adserrors.ErrCodeNotFound, ErrNotFound, "%s %q", kind, id)
}

// Wrap marks err as a storage failure.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if adserrors.Coded(err) {
		return err
	}
	return adserrors.Wrap(adserrors.ErrCodeStorage, err, format, args...)
}
