// Package sqlite stores gallery records in a SQLite database using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/adstudio/pkg/storage"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS ads (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	file_name    TEXT NOT NULL,
	platform     TEXT NOT NULL,
	language     TEXT NOT NULL,
	template     TEXT NOT NULL,
	headline     TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	cta          TEXT NOT NULL DEFAULT '',
	accent_color TEXT NOT NULL DEFAULT '',
	font_url     TEXT NOT NULL DEFAULT '',
	image_path   TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	width        INTEGER NOT NULL DEFAULT 0,
	height       INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS ads_created_at ON ads (created_at DESC)`,
}

const columns = `id, name, file_name, platform, language, template, headline, description,
	cta, accent_color, font_url, image_path, image_url, width, height, created_at`

// Store is a SQLite-backed storage.RecordStore.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and ensures the
// schema exists. Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storage.Wrap(err, "open sqlite %s", dsn)
	}
	// One connection: an in-memory database is per connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, storage.Wrap(err, "create schema")
		}
	}
	return &Store{db: db}, nil
}

// Create implements storage.RecordStore.
func (s *Store) Create(ctx context.Context, rec *storage.AdRecord) error {
	storage.Prepare(rec)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ads (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.FileName, rec.Platform, rec.Language, rec.Template,
		rec.Headline, rec.Description, rec.CTA, rec.AccentColor, rec.FontURL,
		rec.ImagePath, rec.ImageURL, rec.Width, rec.Height, rec.CreatedAt.UnixNano(),
	)
	return storage.Wrap(err, "insert record %s", rec.ID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (storage.AdRecord, error) {
	var r storage.AdRecord
	var created int64
	err := row.Scan(&r.ID, &r.Name, &r.FileName, &r.Platform, &r.Language, &r.Template,
		&r.Headline, &r.Description, &r.CTA, &r.AccentColor, &r.FontURL,
		&r.ImagePath, &r.ImageURL, &r.Width, &r.Height, &created)
	r.CreatedAt = time.Unix(0, created).UTC()
	return r, err
}

// List implements storage.RecordStore.
func (s *Store) List(ctx context.Context, opts storage.ListOptions) ([]storage.AdRecord, error) {
	var where []string
	var args []any
	if opts.Platform != "" {
		where = append(where, "platform = ?")
		args = append(args, opts.Platform)
	}
	if opts.Query != "" {
		like := "%" + escapeLike(strings.ToLower(opts.Query)) + "%"
		where = append(where, `(lower(name) LIKE ? ESCAPE '\' OR lower(headline) LIKE ? ESCAPE '\' OR lower(file_name) LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}
	q := `SELECT ` + columns + ` FROM ads`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storage.Wrap(err, "list records")
	}
	defer rows.Close()

	var out []storage.AdRecord
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, storage.Wrap(err, "scan record")
		}
		out = append(out, r)
	}
	return out, storage.Wrap(rows.Err(), "list records")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Get implements storage.RecordStore.
func (s *Store) Get(ctx context.Context, id string) (*storage.AdRecord, error) {
	r, err := scan(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM ads WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFound("record", id)
	}
	if err != nil {
		return nil, storage.Wrap(err, "get record %s", id)
	}
	return &r, nil
}

// Delete implements storage.RecordStore.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ads WHERE id = ?`, id)
	if err != nil {
		return storage.Wrap(err, "delete record %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.NotFound("record", id)
	}
	return nil
}

// Close implements storage.RecordStore.
func (s *Store) Close() error { return s.db.Close() }

var _ storage.RecordStore = (*Store)(nil)
