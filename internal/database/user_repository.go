// internal/database/user_repository.go
package database

import (
	"context"
	"errors"
	"time"

	"post-board/internal/models"
	"post-board/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserDocument represents the MongoDB schema for a user
type UserDocument struct {
	ID             string    `bson:"_id"`            // MongoDB primary key
	Username       string    `bson:"username"`       // Unique username
	HashedPassword string    `bson:"hashedPassword"` // bcrypt hash
	CreatedAt      time.Time `bson:"createdAt"`      // Account creation timestamp
}

// CreateUser inserts a new user; the unique username index turns races into DuplicateUsername.
func (m *MongoDB) CreateUser(ctx context.Context, user *models.User) error {
	doc := UserDocument{
		ID:             user.ID,
		Username:       user.Username,
		HashedPassword: user.HashedPassword,
		CreatedAt:      user.CreatedAt,
	}

	_, err := m.Users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return utils.NewAppError(utils.ErrDuplicateUsername, "Username already exists", err)
	}
	if err != nil {
		return utils.NewDatabaseError("Failed to save user", err)
	}
	return nil
}

// GetUser retrieves a user from MongoDB by their ID
func (m *MongoDB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": userID})
}

// GetUserByUsername retrieves a user from MongoDB by their username
func (m *MongoDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"username": username})
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrNotFound, "User not found", err)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to get user", err)
	}

	return &models.User{
		ID:             doc.ID,
		Username:       doc.Username,
		HashedPassword: doc.HashedPassword,
		CreatedAt:      doc.CreatedAt,
	}, nil
}
