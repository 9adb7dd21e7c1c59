package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/matzehuels/adstudio/pkg/errors"
	"github.com/matzehuels/adstudio/pkg/storage"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name        string
		cfg         Config
		wantObjects string
		wantRecords string
		wantRoot    bool
	}{
		{"empty is memory", Config{}, "*memory.ObjectStore", "*memory.RecordStore", false},
		{"filesystem", Config{Objects: Filesystem, Records: Filesystem, Path: dir}, "*filesystem.ObjectStore", "*filesystem.RecordStore", true},
		{"sqlite", Config{Objects: Memory, Records: SQLite, SQLitePath: filepath.Join(dir, "db", "ads.db")}, "*memory.ObjectStore", "*sqlite.Store", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Open(context.Background(), tt.cfg, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()
			if got := fmt.Sprintf("%T", st.Objects); got != tt.wantObjects {
				t.Errorf("Objects = %s, want %s", got, tt.wantObjects)
			}
			if got := fmt.Sprintf("%T", st.Records); got != tt.wantRecords {
				t.Errorf("Records = %s, want %s", got, tt.wantRecords)
			}
			if (st.Root != "") != tt.wantRoot {
				t.Errorf("Root = %q", st.Root)
			}
			if err := st.Records.Create(context.Background(), &storage.AdRecord{Name: "x"}); err != nil {
				t.Errorf("Create: %v", err)
			}
		})
	}
}

func TestOpenRejectsUnknown(t *testing.T) {
	tests := []Config{
		{Objects: "ftp"},
		{Records: "postgres"},
		{Records: Mongo},
		{Objects: S3},
	}
	for _, cfg := range tests {
		_, err := Open(context.Background(), cfg, nil)
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Open(%+v) err = %v, want INVALID_INPUT", cfg, err)
		}
	}
}
