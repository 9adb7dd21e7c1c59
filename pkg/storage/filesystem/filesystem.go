// Package filesystem stores objects and records under a base directory.
//
// Objects are plain files. Records are JSON documents in a "records"
// sub-directory, one file per ID.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	adserrors "github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/storage"
)

// ObjectStore stores objects as files under a root directory.
type ObjectStore struct {
	root    string
	baseURL string
}

// NewObjectStore creates the root directory if needed. URLs handed out are
// baseURL + "/" + path; serve root at baseURL to make them resolvable.
func NewObjectStore(root, baseURL string) (*ObjectStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, storage.Wrap(err, "create %s", root)
	}
	return &ObjectStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root returns the directory objects are stored in.
func (s *ObjectStore) Root() string { return s.root }

func (s *ObjectStore) file(path string) (string, error) {
	if err := adserrors.ValidatePath(path); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(path)), nil
}

// Upload implements storage.ObjectStore. Files are written to a temporary
// name and renamed so readers never see partial data.
func (s *ObjectStore) Upload(_ context.Context, path string, data []byte, opts storage.UploadOptions) (string, error) {
	name, err := s.file(path)
	if err != nil {
		return "", err
	}
	if !opts.Upsert {
		if _, err := os.Stat(name); err == nil {
			return "", storage.ErrExists
		}
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return "", storage.Wrap(err, "create directory for %s", path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(name), ".upload-*")
	if err != nil {
		return "", storage.Wrap(err, "upload %s", path)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", storage.Wrap(err, "upload %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", storage.Wrap(err, "upload %s", path)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		os.Remove(tmp.Name())
		return "", storage.Wrap(err, "upload %s", path)
	}
	return s.baseURL + "/" + path, nil
}

// Download implements storage.ObjectStore.
func (s *ObjectStore) Download(_ context.Context, path string) ([]byte, error) {
	name, err := s.file(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.NotFound("object", path)
	}
	return data, storage.Wrap(err, "download %s", path)
}

// List implements storage.ObjectStore.
func (s *ObjectStore) List(_ context.Context, prefix string) ([]storage.Object, error) {
	var out []storage.Object
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, storage.Object{
			Path:    rel,
			Size:    info.Size(),
			URL:     s.baseURL + "/" + rel,
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, storage.Wrap(err, "list %q", prefix)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Delete implements storage.ObjectStore.
func (s *ObjectStore) Delete(_ context.Context, path string) error {
	name, err := s.file(path)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storage.Wrap(err, "delete %s", path)
	}
	return nil
}

// =============================================================================
// Records
// =============================================================================

// RecordStore stores each record as a JSON file.
type RecordStore struct {
	dir string
}

// NewRecordStore creates dir if needed.
func NewRecordStore(dir string) (*RecordStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storage.Wrap(err, "create %s", dir)
	}
	return &RecordStore{dir: dir}, nil
}

func (s *RecordStore) file(id string) (string, error) {
	if id == "" || filepath.Base(id) != id || id == "." || id == ".." {
		return "", adserrors.New(adserrors.ErrCodeInvalidInput, "invalid record id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Create implements storage.RecordStore.
func (s *RecordStore) Create(_ context.Context, rec *storage.AdRecord) error {
	storage.Prepare(rec)
	name, err := s.file(rec.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return storage.Wrap(err, "encode record")
	}
	return storage.Wrap(os.WriteFile(name, data, 0o644), "write record %s", rec.ID)
}

// List implements storage.RecordStore.
func (s *RecordStore) List(ctx context.Context, opts storage.ListOptions) ([]storage.AdRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, storage.Wrap(err, "list records")
	}
	var out []storage.AdRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		rec, err := s.Get(ctx, strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		if opts.Matches(*rec) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Get implements storage.RecordStore.
func (s *RecordStore) Get(_ context.Context, id string) (*storage.AdRecord, error) {
	name, err := s.file(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.NotFound("record", id)
	}
	if err != nil {
		return nil, storage.Wrap(err, "read record %s", id)
	}
	var rec storage.AdRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, storage.Wrap(err, "decode record %s", id)
	}
	return &rec, nil
}

// Delete implements storage.RecordStore.
func (s *RecordStore) Delete(_ context.Context, id string) error {
	name, err := s.file(id)
	if err != nil {
		return err
	}
	if err := os.Remove(name); errors.Is(err, fs.ErrNotExist) {
		return storage.NotFound("record", id)
	} else if err != nil {
		return storage.Wrap(err, "delete record %s", id)
	}
	return nil
}

// Close implements storage.RecordStore.
func (s *RecordStore) Close() error { return nil }

var (
	_ storage.ObjectStore = (*ObjectStore)(nil)
	_ storage.RecordStore = (*RecordStore)(nil)
)
