package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	reserrors "fleetbook/internal/reservations/errors"
	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/model"
)

const (
	vehicleCollection = "vehicles"
	queryTimeout      = 5 * time.Second
)

// VehicleFilter narrows catalog listings. Zero values mean no constraint.
type VehicleFilter struct {
	Status       model.VehicleStatus
	Brand        string
	Transmission string
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)
	FindBySlug(ctx context.Context, slug string) (*model.Vehicle, error)
	FindAll(ctx context.Context, filter VehicleFilter, limit int, offset int64) ([]*model.Vehicle, error)
	Count(ctx context.Context, filter VehicleFilter) (int64, error)
}

type mongoVehicleRepository struct {
	collection *mongo.Collection
}

func NewMongoVehicleRepository(client *mongo.Client, dbName string) VehicleRepository {
	return &mongoVehicleRepository{
		collection: client.Database(dbName).Collection(vehicleCollection),
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

func mapStorageErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Unavailable("vehicle catalog", err)
	}
	return err
}

func (f VehicleFilter) query() bson.M {
	query := bson.M{}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.Brand != "" {
		query["brand"] = f.Brand
	}
	if f.Transmission != "" {
		query["transmission"] = f.Transmission
	}
	return query
}

func (r *mongoVehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, vehicle); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("vehicle slug already exists")
		}
		return mapStorageErr(err)
	}
	return nil
}

func (r *mongoVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoVehicleRepository) FindBySlug(ctx context.Context, slug string) (*model.Vehicle, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *mongoVehicleRepository) findOne(ctx context.Context, filter bson.M) (*model.Vehicle, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var vehicle model.Vehicle
	err := r.collection.FindOne(ctx, filter).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reserrors.ErrVehicleNotFound
		}
		return nil, mapStorageErr(err)
	}
	return &vehicle, nil
}

func (r *mongoVehicleRepository) FindAll(ctx context.Context, filter VehicleFilter, limit int, offset int64) ([]*model.Vehicle, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "brand", Value: 1}, {Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	defer cursor.Close(ctx)

	vehicles := []*model.Vehicle{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, mapStorageErr(err)
	}
	return vehicles, nil
}

func (r *mongoVehicleRepository) Count(ctx context.Context, filter VehicleFilter) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, filter.query())
	if err != nil {
		return 0, mapStorageErr(err)
	}
	return n, nil
}
