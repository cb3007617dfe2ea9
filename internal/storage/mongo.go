package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lembretes/internal/reminder"
)

const mongoDocumentID = "lembretes"

// MongoStorage keeps the whole collection in one document, mirroring the
// document-bin layout: {_id: "lembretes", lembretes: [...]}.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoDocument struct {
	ID        string               `bson:"_id"`
	Lembretes []*reminder.Reminder `bson:"lembretes"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

// NewMongoStorage creates a new MongoDB storage instance
func NewMongoStorage(connectionString, databaseName string) (*MongoStorage, error) {
	if connectionString == "" {
		return nil, unavailable("mongo connection string is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Test the connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(databaseName).Collection("lembretes"),
	}, nil
}

// Close closes the MongoDB connection
func (ms *MongoStorage) Close(ctx context.Context) error {
	return ms.client.Disconnect(ctx)
}

func (ms *MongoStorage) Type() string {
	return TypeMongo
}

func (ms *MongoStorage) Load(ctx context.Context) ([]*reminder.Reminder, error) {
	var doc mongoDocument
	err := ms.collection.FindOne(ctx, bson.M{"_id": mongoDocumentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []*reminder.Reminder{}, nil
		}
		return nil, &RemoteError{Op: "mongo load", Err: err}
	}
	if doc.Lembretes == nil {
		return []*reminder.Reminder{}, nil
	}
	return doc.Lembretes, nil
}

func (ms *MongoStorage) ReplaceAll(ctx context.Context, items []*reminder.Reminder) error {
	if items == nil {
		items = []*reminder.Reminder{}
	}
	doc := mongoDocument{
		ID:        mongoDocumentID,
		Lembretes: items,
		UpdatedAt: time.Now().UTC(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := ms.collection.ReplaceOne(ctx, bson.M{"_id": mongoDocumentID}, doc, opts); err != nil {
		return &RemoteError{Op: "mongo replace", Err: err}
	}
	return nil
}

func (ms *MongoStorage) Clear(ctx context.Context) error {
	if _, err := ms.collection.DeleteOne(ctx, bson.M{"_id": mongoDocumentID}); err != nil {
		return &RemoteError{Op: "mongo delete", Err: err}
	}
	return nil
}
