package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB and pings it within timeout.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the repository and user lookups rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		"vehicles":              {{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique}},
		"jobs":                  {{Keys: bson.D{{Key: "entry_date", Value: 1}, {Key: "status", Value: 1}}}},
		"schedule":              {{Keys: bson.D{{Key: "date", Value: 1}}}},
		"shift_notes":           {{Keys: bson.D{{Key: "date", Value: 1}}}},
		collJobTechnicians:      {{Keys: bson.D{{Key: "job_id", Value: 1}}}},
		collScheduleTechnicians: {{Keys: bson.D{{Key: "schedule_id", Value: 1}}}},
		collJobParts:            {{Keys: bson.D{{Key: "job_id", Value: 1}, {Key: "position", Value: 1}}}},
		UsersCollection:         {{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique}, {Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
	}
	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
