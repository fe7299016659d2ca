package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
)

// UserUpdate is a partial update; nil fields are left untouched. Setting
// PasswordHash also stamps passwordChangedAt, which invalidates every token
// issued before the change.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *models.Role
	IsActive     *bool
}

// UserStore is the identity collection the auth core runs against.
type UserStore interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id bson.ObjectID, upd UserUpdate) (*models.User, error)
}

type mongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore() UserStore {
	return &mongoUserStore{col: OpenCollection("users")}
}

func (s *mongoUserStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *mongoUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, bson.M{"email": NormalizeEmail(email)}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *mongoUserStore) Insert(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	_, err := s.col.InsertOne(ctx, user)
	if err != nil && IsDuplicateKey(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *mongoUserStore) Update(ctx context.Context, id bson.ObjectID, upd UserUpdate) (*models.User, error) {
	now := time.Now().UTC()
	set := bson.M{"updatedAt": now}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = NormalizeEmail(*upd.Email)
	}
	if upd.PasswordHash != nil {
		set["passwordHash"] = *upd.PasswordHash
		set["passwordChangedAt"] = now
	}
	if upd.Role != nil {
		set["role"] = *upd.Role
	}
	if upd.IsActive != nil {
		set["isActive"] = *upd.IsActive
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil && IsDuplicateKey(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// NormalizeEmail fixes the case policy at every write and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsDuplicateKey reports whether err is a Mongo unique index violation.
func IsDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 11000 || ce.Code == 11001) {
		return true
	}

	// Fallback
	return err != nil && strings.Contains(err.Error(), "E11000 duplicate key error")
}
