// Package memory provides in-process object and record stores.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/storage"
)

// =============================================================================
// Objects
// =============================================================================

type object struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// ObjectStore keeps objects in a map. URLs are baseURL + "/" + path.
type ObjectStore struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]object
}

// NewObjectStore creates an empty store.
func NewObjectStore(baseURL string) *ObjectStore {
	return &ObjectStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string]object),
	}
}

func (s *ObjectStore) url(path string) string {
	return s.baseURL + "/" + path
}

// Upload implements storage.ObjectStore.
func (s *ObjectStore) Upload(_ context.Context, path string, data []byte, opts storage.UploadOptions) (string, error) {
	if err := errors.ValidatePath(path); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[path]; ok && !opts.Upsert {
		return "", storage.ErrExists
	}
	s.objects[path] = object{
		data:        append([]byte(nil), data...),
		contentType: opts.ContentType,
		modTime:     time.Now(),
	}
	return s.url(path), nil
}

// Download implements storage.ObjectStore.
func (s *ObjectStore) Download(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[path]
	if !ok {
		return nil, storage.NotFound("object", path)
	}
	return append([]byte(nil), o.data...), nil
}

// List implements storage.ObjectStore.
func (s *ObjectStore) List(_ context.Context, prefix string) ([]storage.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Object
	for p, o := range s.objects {
		if strings.HasPrefix(p, prefix) {
			out = append(out, storage.Object{
				Path:        p,
				Size:        int64(len(o.data)),
				ContentType: o.contentType,
				URL:         s.url(p),
				ModTime:     o.modTime,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Delete implements storage.ObjectStore.
func (s *ObjectStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

// =============================================================================
// Records
// =============================================================================

// RecordStore keeps gallery rows in a map.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]storage.AdRecord
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]storage.AdRecord)}
}

// Create implements storage.RecordStore.
func (s *RecordStore) Create(_ context.Context, rec *storage.AdRecord) error {
	storage.Prepare(rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = *rec
	return nil
}

// List implements storage.RecordStore.
func (s *RecordStore) List(_ context.Context, opts storage.ListOptions) ([]storage.AdRecord, error) {
	s.mu.RLock()
	out := make([]storage.AdRecord, 0, len(s.records))
	for _, r := range s.records {
		if opts.Matches(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Get implements storage.RecordStore.
func (s *RecordStore) Get(_ context.Context, id string) (*storage.AdRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, storage.NotFound("record", id)
	}
	return &r, nil
}

// Delete implements storage.RecordStore.
func (s *RecordStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return storage.NotFound("record", id)
	}
	delete(s.records, id)
	return nil
}

// Close implements storage.RecordStore.
func (s *RecordStore) Close() error { return nil }

var (
	_ storage.ObjectStore = (*ObjectStore)(nil)
	_ storage.RecordStore = (*RecordStore)(nil)
)
