// Package logstore keeps recent log output in a size-capped buffer,
// optionally mirrored to a file.
//
// After every write the stored length is at most the cap. When a write
// would exceed it, whole entries are dropped from the front. An entry that
// is larger than the cap on its own is not stored at all, but it still
// reaches the console writer passed to [Store.Tee].
package logstore

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// DefaultCap is the default stored size in bytes.
const DefaultCap = 256 << 10

// Option configures a [Store].
type Option func(*Store)

// WithFile mirrors the stored log to path. Entries are appended to the file,
// which is rewritten from the buffer once it grows past twice the cap. The
// file is loaded on creation.
func WithFile(path string) Option { return func(s *Store) { s.path = path } }

// Store is a capped, append-only log buffer. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	cap     int
	buf     []byte
	path    string
	dropped int
	// fileSize is the size of the file at path.
	fileSize int
}

// New creates a store holding at most limit bytes. A non-positive limit
// selects [DefaultCap].
func New(limit int, opts ...Option) (*Store, error) {
	if limit <= 0 {
		limit = DefaultCap
	}
	s := &Store{cap: limit}
	for _, opt := range opts {
		opt(s)
	}
	if s.path != "" {
		data, err := os.ReadFile(s.path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		s.buf = data
		s.fileSize = len(data)
		s.trim(0)
	}
	return s, nil
}

// Write appends p as one entry. It never fails because the entry is too
// large; such entries are counted in [Store.Dropped] instead.
func (s *Store) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(p) > s.cap {
		s.dropped++
		return len(p), nil
	}
	s.trim(len(p))
	s.buf = append(s.buf, p...)
	return len(p), s.persist(p)
}

// trim drops whole lines from the front until n more bytes fit.
func (s *Store) trim(n int) {
	for len(s.buf)+n > s.cap {
		i := bytes.IndexByte(s.buf, '\n')
		if i < 0 || i+1 >= len(s.buf) {
			s.buf = s.buf[:0]
			return
		}
		s.buf = s.buf[i+1:]
	}
}

// persist appends p, the entry just added to buf, to the file.
func (s *Store) persist(p []byte) error {
	if s.path == "" {
		return nil
	}
	if s.fileSize+len(p) > 2*s.cap {
		return s.rewrite()
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	n, err := f.Write(p)
	s.fileSize += n
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// rewrite replaces the file with the buffer.
func (s *Store) rewrite() error {
	if s.path == "" {
		return nil
	}
	if err := os.WriteFile(s.path, s.buf, 0o644); err != nil {
		return err
	}
	s.fileSize = len(s.buf)
	return nil
}

// Bytes returns a copy of the stored log.
func (s *Store) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf...)
}

// Len returns the stored size.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Cap returns the size limit.
func (s *Store) Cap() int { return s.cap }

// Dropped returns how many entries were too large to store.
func (s *Store) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Clear empties the store and its file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = s.buf[:0]
	return s.rewrite()
}

// Tee returns a writer that sends every entry to console and to the store.
// Store errors are swallowed so logging never fails because of persistence.
func (s *Store) Tee(console io.Writer) io.Writer {
	return teeWriter{console: console, store: s}
}

type teeWriter struct {
	console io.Writer
	store   *Store
}

func (t teeWriter) Write(p []byte) (int, error) {
	_, _ = t.store.Write(p)
	return t.console.Write(p)
}
