package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is a registered account. Password always holds the bcrypt hash,
// never the raw credential.
type User struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string        `bson:"username" json:"username"`
	Email     string        `bson:"email" json:"email"`
	Password  string        `bson:"password" json:"-"`
	UserImage bson.ObjectID `bson:"userImage,omitempty" json:"image,omitempty"`
	EntryDate time.Time     `bson:"entryDate" json:"entryDate"`
}
