package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"fleetbook/internal/fleet/repository"
	reserrors "fleetbook/internal/reservations/errors"
	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/logger"
	"fleetbook/pkg/model"
)

// VehicleService is the fleet catalog. It also satisfies the reservation
// engine's Catalog dependency via GetVehicle.
type VehicleService interface {
	Register(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
	GetBySlug(ctx context.Context, slug string) (*model.Vehicle, error)
	List(ctx context.Context, filter repository.VehicleFilter, limit int, offset int64) ([]*model.Vehicle, int64, error)
}

type vehicleService struct {
	repo     repository.VehicleRepository
	validate *validator.Validate
	log      *logger.Logger
}

func NewVehicleService(repo repository.VehicleRepository, log *logger.Logger) VehicleService {
	return &vehicleService{
		repo:     repo,
		validate: validator.New(),
		log:      log,
	}
}

func (s *vehicleService) Register(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error) {
	if vehicle.Status == "" {
		vehicle.Status = model.VehicleAvailable
	}
	if err := s.validate.Struct(vehicle); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			details := make(map[string]any, len(validationErrors))
			for _, fe := range validationErrors {
				details[fe.Field()] = fe.Tag()
			}
			return nil, apperrors.Validation("vehicle validation failed", details)
		}
		return nil, apperrors.InvalidInput("invalid vehicle")
	}

	vehicle.ID = uuid.NewString()
	vehicle.CreatedAt = time.Now().UTC()
	if err := s.repo.Create(ctx, vehicle); err != nil {
		return nil, err
	}

	s.log.Info("vehicle registered", "vehicle_id", vehicle.ID, "slug", vehicle.Slug)
	return vehicle, nil
}

func (s *vehicleService) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, id)
	}
	return vehicle, nil
}

func (s *vehicleService) GetBySlug(ctx context.Context, slug string) (*model.Vehicle, error) {
	vehicle, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, mapNotFound(err, slug)
	}
	return vehicle, nil
}

func (s *vehicleService) List(ctx context.Context, filter repository.VehicleFilter, limit int, offset int64) ([]*model.Vehicle, int64, error) {
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	vehicles, err := s.repo.FindAll(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return vehicles, total, nil
}

func mapNotFound(err error, id string) error {
	if errors.Is(err, reserrors.ErrVehicleNotFound) {
		return apperrors.NotFoundWithID("vehicle", id)
	}
	return err
}
