// Package repository provides MongoDB-backed persistence for the
// authentication and todo services. Driver-level errors are translated
// into application errors at this boundary so the service layer never
// inspects mongo error values.
package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/avetrov/todo-api/internal/apperror"
	"github.com/avetrov/todo-api/internal/models"
)

const usersCollection = "users"

// MongoUserRepository implements user persistence against MongoDB.
type MongoUserRepository struct {
	// Users is the collection handle used for all user queries.
	Users *mongo.Collection
}

// NewMongoUserRepository creates a MongoUserRepository on the given
// database. database must be a handle obtained from a connected client.
func NewMongoUserRepository(database *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{Users: database.Collection(usersCollection)}
}

// CreateUser inserts a new user record and returns it with the stored
// id. A duplicate email (unique index violation) is reported as a
// conflict.
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	res, err := r.Users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperror.NewConflictError("email already in use", err)
		}
		return nil, apperror.NewStoreError("failed to create user", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return user, nil
}

// FindUserByEmail fetches the user with the given email.
func (r *MongoUserRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperror.NewNotFoundError("user not found", err)
		}
		return nil, apperror.NewStoreError("failed to find user", err)
	}
	return &user, nil
}

// FindUserByToken fetches the user with the given id whose token list
// still contains the exact token string with the "auth" purpose. This
// is the revocation check: a logged-out token no longer matches even
// though its signature stays valid.
func (r *MongoUserRepository) FindUserByToken(ctx context.Context, id primitive.ObjectID, token string) (*models.User, error) {
	filter := bson.M{
		"_id":           id,
		"tokens.token":  token,
		"tokens.access": models.AccessAuth,
	}

	var user models.User
	err := r.Users.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperror.NewNotFoundError("user not found", err)
		}
		return nil, apperror.NewStoreError("failed to find user", err)
	}
	return &user, nil
}

// AddToken appends a token entry to the user's token list.
func (r *MongoUserRepository) AddToken(ctx context.Context, id primitive.ObjectID, entry models.TokenEntry) error {
	_, err := r.Users.UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"tokens": entry},
	})
	if err != nil {
		return apperror.NewStoreError("failed to store token", err)
	}
	return nil
}

// RemoveToken removes the matching token entry from the user's token
// list. Removing a token that is not present is a no-op.
func (r *MongoUserRepository) RemoveToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := r.Users.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"tokens": bson.M{"token": token}},
	})
	if err != nil {
		return apperror.NewStoreError("failed to remove token", err)
	}
	return nil
}
