package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// QueryRecord is one completed question/answer exchange. Records are only
// written once a full response exists and are immutable afterwards.
type QueryRecord struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    bson.ObjectID `bson:"user" json:"-"`
	Query     string        `bson:"query" json:"query"`
	Response  string        `bson:"response" json:"response"`
	CreatedAt time.Time     `bson:"created_at" json:"-"`
}
