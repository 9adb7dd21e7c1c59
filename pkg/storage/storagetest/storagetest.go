// Package storagetest holds behaviour checks shared by every storage
// backend.
package storagetest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/adstudio/pkg/storage"
)

// ObjectStore checks upload, overwrite protection, listing and deletion.
func ObjectStore(t *testing.T, st storage.ObjectStore) {
	t.Helper()
	ctx := context.Background()

	url, err := st.Upload(ctx, "ads/a.png", []byte("aaa"), storage.UploadOptions{ContentType: "image/png"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasSuffix(url, "ads/a.png") {
		t.Errorf("URL = %q, want suffix ads/a.png", url)
	}

	if _, err := st.Upload(ctx, "ads/a.png", []byte("bbb"), storage.UploadOptions{}); !errors.Is(err, storage.ErrExists) {
		t.Errorf("second Upload err = %v, want ErrExists", err)
	}
	if _, err := st.Upload(ctx, "ads/a.png", []byte("ccc"), storage.UploadOptions{Upsert: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	data, err := st.Download(ctx, "ads/a.png")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "ccc" {
		t.Errorf("Download = %q, want ccc", data)
	}

	if _, err := st.Upload(ctx, "ads/b.png", []byte("b"), storage.UploadOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Upload(ctx, "other/c.png", []byte("c"), storage.UploadOptions{}); err != nil {
		t.Fatal(err)
	}
	objs, err := st.List(ctx, "ads/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objs) != 2 || objs[0].Path != "ads/a.png" || objs[1].Path != "ads/b.png" {
		t.Errorf("List(ads/) = %+v", objs)
	}
	if objs[0].Size != 3 {
		t.Errorf("size = %d, want 3", objs[0].Size)
	}

	if _, err := st.Upload(ctx, "../escape.png", nil, storage.UploadOptions{}); err == nil {
		t.Error("Upload accepted a traversal path")
	}

	if err := st.Delete(ctx, "ads/a.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Download(ctx, "ads/a.png"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download after Delete err = %v, want ErrNotFound", err)
	}
	if err := st.Delete(ctx, "ads/a.png"); err != nil {
		t.Errorf("deleting a missing object: %v", err)
	}
}

// RecordStore checks creation, filtered newest-first listing, lookup and
// deletion.
func RecordStore(t *testing.T, st storage.RecordStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	recs := []*storage.AdRecord{
		{Name: "Summer Sale", Platform: "facebook", Headline: "Sun", CreatedAt: base},
		{Name: "Winter", Platform: "instagram", Headline: "Snow sale", CreatedAt: base.Add(time.Hour)},
		{Name: "Spring", Platform: "facebook", Headline: "Bloom", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, r := range recs {
		if err := st.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if r.ID == "" {
			t.Fatal("Create did not assign an ID")
		}
	}

	tests := []struct {
		name string
		opts storage.ListOptions
		want []string
	}{
		{"all newest first", storage.ListOptions{}, []string{"Spring", "Winter", "Summer Sale"}},
		{"query matches name and headline", storage.ListOptions{Query: "SALE"}, []string{"Winter", "Summer Sale"}},
		{"platform", storage.ListOptions{Platform: "facebook"}, []string{"Spring", "Summer Sale"}},
		{"limit", storage.ListOptions{Limit: 1}, []string{"Spring"}},
		{"no match", storage.ListOptions{Query: "autumn"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var names []string
			for _, r := range got {
				names = append(names, r.Name)
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Errorf("List = %v, want %v", names, tt.want)
			}
		})
	}

	got, err := st.Get(ctx, recs[1].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Winter" || !got.CreatedAt.Equal(recs[1].CreatedAt) {
		t.Errorf("Get = %+v", got)
	}

	if err := st.Delete(ctx, recs[1].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Get(ctx, recs[1].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get after Delete err = %v, want ErrNotFound", err)
	}
	if err := st.Delete(ctx, recs[1].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}
