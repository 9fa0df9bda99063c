package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatkeep/internal/models"
	"chatkeep/internal/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDuplicate indicates the username or email is already registered.
	ErrDuplicate = errors.New("username or email already exists")
	// ErrNotFound indicates no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates the password comparison failed.
	ErrInvalidCredentials = errors.New("invalid password")
)

// Service handles the user credential lifecycle.
type Service struct {
	users *mongo.Collection
	log   *zap.Logger
}

// NewService builds an account service over the users collection.
func NewService(db *mongo.Database, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: db.Collection(storage.UserCollection), log: log}
}

// CreateUser hashes the password and persists a new user. Fails with
// ErrDuplicate when the username or email is taken; nothing is written
// on failure.
func (s *Service) CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, errors.New("username, email and password are required")
	}

	filter := bson.M{"$or": bson.A{bson.M{"username": username}, bson.M{"email": email}}}
	err := s.users.FindOne(ctx, filter).Err()
	switch {
	case err == nil:
		return nil, ErrDuplicate
	case errors.Is(err, mongo.ErrNoDocuments):
		// free to create
	default:
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:        bson.NewObjectID(),
		Username:  username,
		Email:     email,
		Password:  string(hash),
		EntryDate: time.Now().UTC(),
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		// concurrent signups race to the unique index
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user created", zap.String("username", username))
	return user, nil
}

// VerifyCredentials resolves the username and compares the password hash.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"username": strings.TrimSpace(username)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// AttachImage links an uploaded blob to the user record.
func (s *Service) AttachImage(ctx context.Context, userID, fileID bson.ObjectID) error {
	res, err := s.users.UpdateByID(ctx, userID, bson.M{"$set": bson.M{"userImage": fileID}})
	if err != nil {
		return fmt.Errorf("attach image: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByID loads a user by object id.
func (s *Service) FindByID(ctx context.Context, userID bson.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}
