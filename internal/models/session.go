package models

import "go.mongodb.org/mongo-driver/v2/bson"

// Session is the identity snapshot captured at login time. It is not
// refreshed when the user record changes; callers get the point-in-time
// view that was persisted with the session token.
type Session struct {
	UserID   bson.ObjectID `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Image    bson.ObjectID `json:"image,omitempty"`
}
