package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/ajaysundarmurugaiyan/Task-Manager-backend/config"
)

var (
	dbClient *mongo.Client
	dbName   string
	connOnce sync.Once
	connErr  error
)

// Connect establishes the Mongo client once and pings the primary.
func Connect(cfg *config.Config) error {
	connOnce.Do(func() {
		serverAPI := options.ServerAPI(options.ServerAPIVersion1)
		opts := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(serverAPI)

		client, err := mongo.Connect(opts)
		if err != nil {
			connErr = fmt.Errorf("mongo connect: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			connErr = fmt.Errorf("mongo ping: %w", err)
			return
		}

		dbClient = client
		dbName = cfg.DatabaseName
	})
	return connErr
}

func OpenCollection(collectionName string) *mongo.Collection {
	return dbClient.Database(dbName).Collection(collectionName)
}

// EnsureIndexes creates the indexes the application relies on. The unique
// email index is what makes concurrent registration and admin seeding safe;
// the (userId, date) index enforces one attendance record per user per day.
func EnsureIndexes(ctx context.Context) error {
	users := OpenCollection("users")
	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users email index: %w", err)
	}

	attendance := OpenCollection("attendance")
	_, err = attendance.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("attendance userId+date index: %w", err)
	}

	tasks := OpenCollection("tasks")
	_, err = tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "status", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("tasks assignedTo+status index: %w", err)
	}

	return nil
}
