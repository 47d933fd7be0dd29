package auditstore

import (
	"context"
	"time"

	"mileage-service/common/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	databaseName   = "audit"
	collectionName = "events"
)

// Entry is one audit event persisted to MongoDB
type Entry struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	EventName string    `bson:"event_name" json:"event_name"`
	ActorID   string    `bson:"actor_id" json:"actor_id"`
	Metadata  string    `bson:"metadata" json:"metadata"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Store wraps the MongoDB collection holding audit events
type Store struct {
	client *mongo.Client
}

func New(client *mongo.Client) *Store {
	return &Store{client: client}
}

func (s *Store) collection() *mongo.Collection {
	return s.client.Database(databaseName).Collection(collectionName)
}

// Insert writes one audit entry, stamping the insertion time
func (s *Store) Insert(ctx context.Context, entry Entry) error {
	entry.ID = ""
	entry.CreatedAt = time.Now()

	_, err := s.collection().InsertOne(ctx, bson.M{
		"event_name": entry.EventName,
		"actor_id":   entry.ActorID,
		"metadata":   entry.Metadata,
		"status":     entry.Status,
		"created_at": entry.CreatedAt,
	})
	if err != nil {
		logger.Error("Error inserting audit entry", "error", err)
		return err
	}
	return nil
}

// Recent returns the latest audit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []Entry{}
	for cursor.Next(ctx) {
		var entry Entry
		if err := cursor.Decode(&entry); err != nil {
			logger.Error("Error decoding audit entry", "error", err)
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, cursor.Err()
}

// ByActor returns entries for one actor, newest first
func (s *Store) ByActor(ctx context.Context, actorID string, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection().Find(ctx, bson.M{"actor_id": actorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []Entry{}
	for cursor.Next(ctx) {
		var entry Entry
		if err := cursor.Decode(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, cursor.Err()
}
