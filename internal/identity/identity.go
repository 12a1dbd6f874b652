// Package identity resolves accounts for the reservation engine. It is the
// minimal surface the transition guards need; authentication itself lives
// upstream of this service.
package identity

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	reserrors "fleetbook/internal/reservations/errors"
	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/model"
)

const (
	accountCollection = "accounts"
	queryTimeout      = 5 * time.Second
)

type Service struct {
	collection *mongo.Collection
}

func NewService(client *mongo.Client, dbName string) *Service {
	return &Service{
		collection: client.Database(dbName).Collection(accountCollection),
	}
}

func (s *Service) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var account model.Account
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reserrors.ErrAccountNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Unavailable("identity lookup", err)
		}
		return nil, err
	}
	return &account, nil
}
