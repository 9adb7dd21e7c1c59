package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/matzehuels/adstudio/pkg/storage"
)

func TestFilter(t *testing.T) {
	if f := filter(storage.ListOptions{}); len(f) != 0 {
		t.Errorf("empty options produced filter %v", f)
	}

	f := filter(storage.ListOptions{Platform: "facebook", Query: "50% off (today)"})
	if f["platform"] != "facebook" {
		t.Errorf("platform filter = %v", f["platform"])
	}
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 3 {
		t.Fatalf("$or = %#v", f["$or"])
	}
	re := or[0].(bson.M)["name"].(primitive.Regex)
	if re.Pattern != `50% off \(today\)` || re.Options != "i" {
		t.Errorf("regex = %+v, want escaped case-insensitive pattern", re)
	}
}

func TestRecordBSONUsesIDField(t *testing.T) {
	data, err := bson.Marshal(storage.AdRecord{ID: "abc", Name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["_id"] != "abc" {
		t.Errorf("_id = %v, want abc", doc["_id"])
	}
	if doc["name"] != "x" {
		t.Errorf("name = %v", doc["name"])
	}
}
