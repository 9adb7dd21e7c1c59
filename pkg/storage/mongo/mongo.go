// Package mongo stores gallery records in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/adstudio/pkg/storage"
)

// Defaults for [Open].
const (
	DefaultDatabase   = "adstudio"
	DefaultCollection = "ads"
	connectTimeout    = 10 * time.Second
)

// Store is a MongoDB-backed storage.RecordStore.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to uri and uses database.collection. Empty names select the
// defaults.
func Open(ctx context.Context, uri, database, collection string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, storage.Wrap(err, "connect mongo")
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storage.Wrap(err, "ping mongo")
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(cctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storage.Wrap(err, "create index")
	}
	return &Store{client: client, coll: coll}, nil
}

// Create implements storage.RecordStore.
func (s *Store) Create(ctx context.Context, rec *storage.AdRecord) error {
	storage.Prepare(rec)
	_, err := s.coll.InsertOne(ctx, rec)
	return storage.Wrap(err, "insert record %s", rec.ID)
}

// filter translates list options into a query document.
func filter(opts storage.ListOptions) bson.M {
	f := bson.M{}
	if opts.Platform != "" {
		f["platform"] = opts.Platform
	}
	if opts.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(opts.Query), Options: "i"}
		f["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"headline": re},
			bson.M{"file_name": re},
		}
	}
	return f
}

// List implements storage.RecordStore.
func (s *Store) List(ctx context.Context, opts storage.ListOptions) ([]storage.AdRecord, error) {
	find := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}
	cur, err := s.coll.Find(ctx, filter(opts), find)
	if err != nil {
		return nil, storage.Wrap(err, "list records")
	}
	var out []storage.AdRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, storage.Wrap(err, "decode records")
	}
	return out, nil
}

// Get implements storage.RecordStore.
func (s *Store) Get(ctx context.Context, id string) (*storage.AdRecord, error) {
	var rec storage.AdRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.NotFound("record", id)
	}
	if err != nil {
		return nil, storage.Wrap(err, "get record %s", id)
	}
	return &rec, nil
}

// Delete implements storage.RecordStore.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storage.Wrap(err, "delete record %s", id)
	}
	if res.DeletedCount == 0 {
		return storage.NotFound("record", id)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ storage.RecordStore = (*Store)(nil)
