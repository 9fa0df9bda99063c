package storage

import (
	"context"
	"fmt"
	"time"

	"chatkeep/internal/config"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// UserCollection holds account records.
	UserCollection = "Users"
	// QueryCollection holds one document per answered query.
	QueryCollection = "user_queries"
)

// Open connects to the document database named in the config.
func Open(cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.DatabaseURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(cfg.DatabaseName), nil
}

// EnsureIndexes creates the unique and query indexes the stores rely on.
// Username and email uniqueness is arbitrated here, at the store level,
// not by application locking.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := db.Collection(UserCollection)
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	queries := db.Collection(QueryCollection)
	_, err = queries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create query index: %w", err)
	}
	return nil
}
