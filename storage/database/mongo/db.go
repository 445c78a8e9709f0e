package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/enghaven/portal/core"
)

// CollectionName is the mongo collection holding one document per app collection.
const CollectionName = "documents"

type document struct {
	ID        string    `bson:"_id"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type DB struct {
	client *mongo.Client
	docs   *mongo.Collection
}

var _ core.DocumentStore = (*DB)(nil)

func Open(ctx context.Context, uri, dbName string) (*DB, error) {
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging mongo")
	}
	return &DB{client: client, docs: client.Database(dbName).Collection(CollectionName)}, nil
}

func (db *DB) Get(ctx context.Context, collection string) ([]byte, error) {
	var doc document
	if err := db.docs.FindOne(ctx, bson.M{"_id": collection}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "finding %s", collection)
	}
	return []byte(doc.Data), nil
}

func (db *DB) Set(ctx context.Context, collection string, data []byte) error {
	doc := document{ID: collection, Data: string(data), UpdatedAt: time.Now().UTC()}
	_, err := db.docs.ReplaceOne(ctx, bson.M{"_id": collection}, doc, options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "replacing %s", collection)
}

func (db *DB) Ping(ctx context.Context) error { return db.client.Ping(ctx, readpref.Primary()) }

func (db *DB) Close() error { return db.client.Disconnect(context.Background()) }
