package utils

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/config"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/database"
	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/models"
)

// SeedAdminUser creates the default admin if absent. The $setOnInsert upsert
// plus the unique email index make it idempotent and safe to run from several
// process starts at once.
func SeedAdminUser(ctx context.Context, usersCol *mongo.Collection, cfg *config.Config) (bool, error) {
	email := database.NormalizeEmail(cfg.AdminEmail)
	pass := cfg.AdminPassword

	if email == "" || pass == "" {
		return false, fmt.Errorf("missing ADMIN_EMAIL or ADMIN_PASSWORD env vars")
	}

	hash, err := HashPassword(pass)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()

	filter := bson.M{"email": email}
	update := bson.M{
		"$setOnInsert": bson.M{
			"name":         "Administrator",
			"email":        email,
			"passwordHash": hash,
			"role":         models.RoleAdmin,
			"isActive":     true,
			"createdAt":    now,
			"updatedAt":    now,
		},
	}

	opts := options.UpdateOne().SetUpsert(true)

	res, err := usersCol.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if database.IsDuplicateKey(err) {
			// Lost the race to another process; the admin exists.
			return false, nil
		}
		return false, fmt.Errorf("seed admin upsert failed: %w", err)
	}

	return res.UpsertedCount == 1, nil
}
