package querylog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"chatkeep/internal/models"
	"chatkeep/internal/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Service appends and reads immutable query/response records.
type Service struct {
	queries *mongo.Collection
}

// NewService builds a query log over the user_queries collection.
func NewService(db *mongo.Database) *Service {
	return &Service{queries: db.Collection(storage.QueryCollection)}
}

// Record appends one exchange. Both sides must be populated; a record is
// never written for a partial response.
func (s *Service) Record(ctx context.Context, userID bson.ObjectID, query, response string) error {
	if userID.IsZero() {
		return errors.New("user id is required")
	}
	if query == "" || response == "" {
		return errors.New("query and response are required")
	}
	rec := models.QueryRecord{
		ID:        bson.NewObjectID(),
		UserID:    userID,
		Query:     query,
		Response:  response,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.queries.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("record query: %w", err)
	}
	return nil
}

// ListByUser returns every record for the user, in no guaranteed order.
func (s *Service) ListByUser(ctx context.Context, userID bson.ObjectID) ([]models.QueryRecord, error) {
	return s.find(ctx, bson.M{"user": userID}, nil)
}

// SearchByUser returns the user's records whose query text contains the
// substring case-insensitively, ordered by creation time ascending. An
// empty substring matches everything.
func (s *Service) SearchByUser(ctx context.Context, userID bson.ObjectID, substring string) ([]models.QueryRecord, error) {
	filter := bson.M{"user": userID}
	if substring != "" {
		filter["query"] = bson.M{"$regex": regexp.QuoteMeta(substring), "$options": "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return s.find(ctx, filter, opts)
}

func (s *Service) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]models.QueryRecord, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = s.queries.Find(ctx, filter, opts)
	} else {
		cursor, err = s.queries.Find(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("find queries: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]models.QueryRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode queries: %w", err)
	}
	return records, nil
}
