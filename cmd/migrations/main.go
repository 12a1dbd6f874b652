// Command migrations bootstraps the MongoDB collections and indexes the
// reservation engine relies on. It is safe to run repeatedly.
package main

import (
	"context"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fleetbook/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load("migrations")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)

	ensureIndexes(ctx, cfg, db.Collection("reservations"), []mongo.IndexModel{
		{
			// Conflict scans and the vehicle calendar.
			Keys: bson.D{
				{Key: "vehicle_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "start_time", Value: 1},
			},
			Options: options.Index().SetName("vehicle_status_start"),
		},
		{
			// Per-requester active and history listings.
			Keys: bson.D{
				{Key: "requester_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("requester_status_created"),
		},
		{
			// Completion sweep over elapsed approved reservations.
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "end_time", Value: 1},
			},
			Options: options.Index().SetName("status_end"),
		},
	})

	ensureIndexes(ctx, cfg, db.Collection("vehicles"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("slug_unique").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "brand", Value: 1},
			},
			Options: options.Index().SetName("status_brand"),
		},
	})

	ensureIndexes(ctx, cfg, db.Collection("accounts"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	})

	cfg.Log.Info("Migrations completed")
}

func ensureIndexes(ctx context.Context, cfg *config.Config, coll *mongo.Collection, models []mongo.IndexModel) {
	names, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		cfg.Log.Fatal("Failed to create indexes", "collection", coll.Name(), "error", err)
	}
	cfg.Log.Info("Indexes ensured", "collection", coll.Name(), "indexes", names)
}
