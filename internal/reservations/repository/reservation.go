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
	reservationCollection = "reservations"
	queryTimeout          = 5 * time.Second
)

// ReservationRepository is the persistence boundary for reservations.
// Implementations never interpret status semantics; that belongs to the
// state machine and service.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)

	// UpdateStatus persists the status and transition timestamps only,
	// conditional on the reservation still being in the from status; a
	// concurrent transition surfaces as ErrStatusChanged. The stored price
	// is never rewritten.
	UpdateStatus(ctx context.Context, reservation *model.Reservation, from model.Status) error

	FindBlocking(ctx context.Context) ([]*model.Reservation, error)
	FindBlockingByVehicle(ctx context.Context, vehicleID string) ([]*model.Reservation, error)

	FindActiveByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, error)
	CountActiveByRequester(ctx context.Context, requesterID string) (int64, error)
	FindHistoryByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, error)
	CountHistoryByRequester(ctx context.Context, requesterID string) (int64, error)

	FindApprovedEndedBefore(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error)
	FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error)
}

type mongoReservationRepository struct {
	collection *mongo.Collection
}

func NewMongoReservationRepository(client *mongo.Client, dbName string) ReservationRepository {
	return &mongoReservationRepository{
		collection: client.Database(dbName).Collection(reservationCollection),
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// mapStorageErr converts driver failures into the service error vocabulary.
func mapStorageErr(err error, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Unavailable(operation, err)
	}
	return err
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("reservation already exists")
		}
		return mapStorageErr(err, "reservation storage")
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var reservation model.Reservation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reserrors.ErrNotFound
		}
		return nil, mapStorageErr(err, "reservation storage")
	}
	return &reservation, nil
}

func (r *mongoReservationRepository) UpdateStatus(ctx context.Context, reservation *model.Reservation, from model.Status) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	update := bson.M{
		"status": reservation.Status,
	}
	if reservation.ApprovedAt != nil {
		update["approved_at"] = reservation.ApprovedAt
	}
	if reservation.CompletedAt != nil {
		update["completed_at"] = reservation.CompletedAt
	}
	if reservation.CancelledAt != nil {
		update["cancelled_at"] = reservation.CancelledAt
	}

	// Compare-and-set on the prior status so a transition that raced with
	// another one fails instead of resurrecting a stale read.
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": reservation.ID, "status": from},
		bson.M{"$set": update},
	)
	if err != nil {
		return mapStorageErr(err, "reservation storage")
	}
	if result.MatchedCount == 0 {
		return reserrors.ErrStatusChanged
	}
	return nil
}

func (r *mongoReservationRepository) FindBlocking(ctx context.Context) ([]*model.Reservation, error) {
	return r.find(ctx, bson.M{"status": bson.M{"$in": model.BlockingStatuses}}, nil)
}

func (r *mongoReservationRepository) FindBlockingByVehicle(ctx context.Context, vehicleID string) ([]*model.Reservation, error) {
	filter := bson.M{
		"vehicle_id": vehicleID,
		"status":     bson.M{"$in": model.BlockingStatuses},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
}

func activeFilter(requesterID string) bson.M {
	return bson.M{
		"requester_id": requesterID,
		"status":       bson.M{"$in": model.BlockingStatuses},
	}
}

func historyFilter(requesterID string) bson.M {
	return bson.M{
		"requester_id": requesterID,
		"status": bson.M{"$in": []model.Status{
			model.StatusCompleted, model.StatusCancelled, model.StatusRejected,
		}},
	}
}

// Active reservations read soonest-first; history reads newest-first.
func (r *mongoReservationRepository) FindActiveByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, activeFilter(requesterID), opts)
}

func (r *mongoReservationRepository) CountActiveByRequester(ctx context.Context, requesterID string) (int64, error) {
	return r.count(ctx, activeFilter(requesterID))
}

func (r *mongoReservationRepository) FindHistoryByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return r.find(ctx, historyFilter(requesterID), opts)
}

func (r *mongoReservationRepository) CountHistoryByRequester(ctx context.Context, requesterID string) (int64, error) {
	return r.count(ctx, historyFilter(requesterID))
}

func (r *mongoReservationRepository) FindApprovedEndedBefore(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error) {
	filter := bson.M{
		"status":   model.StatusApproved,
		"end_time": bson.M{"$lte": cutoff},
	}
	return r.find(ctx, filter, nil)
}

func (r *mongoReservationRepository) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.Reservation, error) {
	filter := bson.M{
		"status":     model.StatusPending,
		"created_at": bson.M{"$lt": cutoff},
	}
	return r.find(ctx, filter, nil)
}

func (r *mongoReservationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, filter, opts)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, mapStorageErr(err, "reservation storage")
	}
	defer cursor.Close(ctx)

	reservations := []*model.Reservation{}
	if err := cursor.All(ctx, &reservations); err != nil {
		return nil, mapStorageErr(err, "reservation storage")
	}
	return reservations, nil
}

func (r *mongoReservationRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, mapStorageErr(err, "reservation storage")
	}
	return n, nil
}
