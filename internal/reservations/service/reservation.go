package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fleetbook/internal/reservations/availability"
	reserrors "fleetbook/internal/reservations/errors"
	"fleetbook/internal/reservations/notify"
	"fleetbook/internal/reservations/pricing"
	"fleetbook/internal/reservations/repository"
	"fleetbook/internal/reservations/statemachine"
	"fleetbook/internal/reservations/validator"
	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/logger"
	"fleetbook/pkg/model"
)

// Catalog resolves vehicles. Implemented by the fleet service.
type Catalog interface {
	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
}

// Identity resolves accounts. Implemented by the identity service.
type Identity interface {
	GetAccount(ctx context.Context, id string) (*model.Account, error)
}

type ReservationService interface {
	Create(ctx context.Context, req *validator.CreateReservationRequest) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	Approve(ctx context.Context, id, operatorID string) (*model.Reservation, error)
	Cancel(ctx context.Context, id, actorID string) (*model.Reservation, error)
	Complete(ctx context.Context, id, actorID string, force bool) (*model.Reservation, error)

	ListActive(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error)
	ListHistory(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error)

	// VehicleCalendar lists the blocking reservations holding a vehicle's
	// schedule, soonest first.
	VehicleCalendar(ctx context.Context, vehicleID string) ([]*model.Reservation, error)

	// CompleteElapsed and ExpirePending are the scheduled sweep entry points.
	CompleteElapsed(ctx context.Context, now time.Time) (int, error)
	ExpirePending(ctx context.Context, now time.Time) (int, error)

	// WarmAvailability seeds the in-memory index from storage. Must run
	// before the HTTP surface accepts traffic.
	WarmAvailability(ctx context.Context) error
}

// Settings are the booking policies the service applies.
type Settings struct {
	// DefaultCleaningBuffer applies to vehicles that do not declare their own.
	DefaultCleaningBuffer time.Duration
	// PendingTTL expires unapproved reservations after this age. Zero disables.
	PendingTTL time.Duration
}

type reservationService struct {
	repo      repository.ReservationRepository
	index     *availability.Index
	catalog   Catalog
	identity  Identity
	notifier  notify.Notifier
	validator *validator.ReservationValidator
	settings  Settings
	log       *logger.Logger

	now func() time.Time
}

func NewReservationService(
	repo repository.ReservationRepository,
	index *availability.Index,
	catalog Catalog,
	identity Identity,
	notifier notify.Notifier,
	v *validator.ReservationValidator,
	settings Settings,
	log *logger.Logger,
) ReservationService {
	return &reservationService{
		repo:      repo,
		index:     index,
		catalog:   catalog,
		identity:  identity,
		notifier:  notifier,
		validator: v,
		settings:  settings,
		log:       log,
		now:       time.Now,
	}
}

func (s *reservationService) Create(ctx context.Context, req *validator.CreateReservationRequest) (*model.Reservation, error) {
	if err := s.validator.ValidateCreate(req); err != nil {
		return nil, err
	}

	if _, err := s.identity.GetAccount(ctx, req.RequesterID); err != nil {
		return nil, mapLookupErr(err, "account", req.RequesterID)
	}

	vehicle, err := s.catalog.GetVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, mapLookupErr(err, "vehicle", req.VehicleID)
	}
	if vehicle.Status != model.VehicleAvailable {
		return nil, apperrors.VehicleUnavailable(vehicle.ID, string(vehicle.Status))
	}

	window, err := model.NewTimeWindow(req.Kind, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if window.Start.Before(now) {
		return nil, apperrors.InvalidWindow("start_time cannot be in the past")
	}

	total, err := pricing.Total(vehicle.RateCard, req.Kind, window)
	if err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		ID:              uuid.NewString(),
		VehicleID:       vehicle.ID,
		RequesterID:     req.RequesterID,
		Kind:            req.Kind,
		Window:          window,
		TotalPriceCents: total,
		Status:          model.StatusPending,
		CreatedAt:       now,
	}

	buffer := vehicle.CleaningBuffer()
	if buffer == 0 {
		buffer = s.settings.DefaultCleaningBuffer
	}

	// The overlap check and the insert happen inside the vehicle's
	// critical section, so two racing requests cannot both pass.
	err = s.index.CheckAndReserve(ctx, vehicle.ID, reservation.ID, window, buffer, func(ctx context.Context) error {
		return s.repo.Create(ctx, reservation)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation created",
		"reservation_id", reservation.ID,
		"vehicle_id", vehicle.ID,
		"requester_id", req.RequesterID,
		"kind", string(req.Kind),
		"total_price_cents", total,
	)
	s.notifier.Notify(ctx, notify.EventCreated, reservation)
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, "reservation", id)
	}
	return reservation, nil
}

func (s *reservationService) Approve(ctx context.Context, id, operatorID string) (*model.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, "reservation", id)
	}

	actor, err := s.actor(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	from := reservation.Status
	if err := statemachine.Approve(reservation, actor, s.now().UTC()); err != nil {
		return nil, err
	}

	// Approval keeps the hold; only the status changes.
	if err := s.repo.UpdateStatus(ctx, reservation, from); err != nil {
		return nil, s.mapTransitionErr(ctx, err, id)
	}

	s.log.Info("reservation approved", "reservation_id", id, "operator_id", operatorID)
	s.notifier.Notify(ctx, notify.EventApproved, reservation)
	return reservation, nil
}

func (s *reservationService) Cancel(ctx context.Context, id, actorID string) (*model.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, "reservation", id)
	}

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	from := reservation.Status
	if err := statemachine.Cancel(reservation, actor, s.now().UTC()); err != nil {
		return nil, err
	}

	if err := s.releaseAndPersist(ctx, reservation, from); err != nil {
		return nil, err
	}

	s.log.Info("reservation cancelled",
		"reservation_id", id,
		"actor_id", actorID,
		"status", string(reservation.Status),
	)
	s.notifier.Notify(ctx, notify.EventForStatus(reservation.Status), reservation)
	return reservation, nil
}

func (s *reservationService) Complete(ctx context.Context, id, actorID string, force bool) (*model.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, "reservation", id)
	}

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	from := reservation.Status
	if err := statemachine.Complete(reservation, actor, s.now().UTC(), force); err != nil {
		return nil, err
	}

	if err := s.releaseAndPersist(ctx, reservation, from); err != nil {
		return nil, err
	}

	s.log.Info("reservation completed", "reservation_id", id, "actor_id", actorID, "forced", force)
	s.notifier.Notify(ctx, notify.EventCompleted, reservation)
	return reservation, nil
}

func (s *reservationService) ListActive(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	total, err := s.repo.CountActiveByRequester(ctx, requesterID)
	if err != nil {
		return nil, 0, err
	}
	reservations, err := s.repo.FindActiveByRequester(ctx, requesterID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

func (s *reservationService) ListHistory(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	total, err := s.repo.CountHistoryByRequester(ctx, requesterID)
	if err != nil {
		return nil, 0, err
	}
	reservations, err := s.repo.FindHistoryByRequester(ctx, requesterID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

func (s *reservationService) VehicleCalendar(ctx context.Context, vehicleID string) ([]*model.Reservation, error) {
	if _, err := s.catalog.GetVehicle(ctx, vehicleID); err != nil {
		return nil, mapLookupErr(err, "vehicle", vehicleID)
	}
	return s.repo.FindBlockingByVehicle(ctx, vehicleID)
}

func (s *reservationService) CompleteElapsed(ctx context.Context, now time.Time) (int, error) {
	elapsed, err := s.repo.FindApprovedEndedBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, reservation := range elapsed {
		from := reservation.Status
		if err := statemachine.Complete(reservation, statemachine.System, now, false); err != nil {
			// Lost the race with a manual transition; nothing to do.
			continue
		}
		if err := s.releaseAndPersist(ctx, reservation, from); err != nil {
			s.log.Error("sweep failed to complete reservation",
				"reservation_id", reservation.ID, "error", err)
			continue
		}
		s.notifier.Notify(ctx, notify.EventCompleted, reservation)
		completed++
	}
	return completed, nil
}

func (s *reservationService) ExpirePending(ctx context.Context, now time.Time) (int, error) {
	if s.settings.PendingTTL <= 0 {
		return 0, nil
	}

	stale, err := s.repo.FindPendingCreatedBefore(ctx, now.Add(-s.settings.PendingTTL))
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, reservation := range stale {
		from := reservation.Status
		if err := statemachine.Cancel(reservation, statemachine.System, now); err != nil {
			continue
		}
		if err := s.releaseAndPersist(ctx, reservation, from); err != nil {
			s.log.Error("sweep failed to expire reservation",
				"reservation_id", reservation.ID, "error", err)
			continue
		}
		s.notifier.Notify(ctx, notify.EventForStatus(reservation.Status), reservation)
		expired++
	}
	return expired, nil
}

func (s *reservationService) WarmAvailability(ctx context.Context) error {
	blocking, err := s.repo.FindBlocking(ctx)
	if err != nil {
		return err
	}
	for _, reservation := range blocking {
		s.index.Load(reservation.VehicleID, reservation.ID, reservation.Window)
	}
	s.log.Info("availability index warmed", "holds", len(blocking))
	return nil
}

// releaseAndPersist frees the vehicle slot and records the terminal status
// as one unit; the hold only drops once the conditional write succeeds.
func (s *reservationService) releaseAndPersist(ctx context.Context, reservation *model.Reservation, from model.Status) error {
	err := s.index.Release(ctx, reservation.VehicleID, reservation.ID, func(ctx context.Context) error {
		return s.repo.UpdateStatus(ctx, reservation, from)
	})
	if err != nil {
		return s.mapTransitionErr(ctx, err, reservation.ID)
	}
	return nil
}

// mapTransitionErr resolves a failed conditional status write by re-reading
// the reservation and reporting where it actually ended up.
func (s *reservationService) mapTransitionErr(ctx context.Context, err error, id string) error {
	if !errors.Is(err, reserrors.ErrStatusChanged) {
		return mapLookupErr(err, "reservation", id)
	}

	current, readErr := s.repo.FindByID(ctx, id)
	if readErr != nil {
		return mapLookupErr(readErr, "reservation", id)
	}
	if current.Status.Terminal() {
		return apperrors.TerminalState(string(current.Status))
	}
	return apperrors.Conflict(fmt.Sprintf("reservation moved to %s concurrently", current.Status))
}

func (s *reservationService) actor(ctx context.Context, accountID string) (statemachine.Actor, error) {
	account, err := s.identity.GetAccount(ctx, accountID)
	if err != nil {
		return statemachine.Actor{}, mapLookupErr(err, "account", accountID)
	}
	return statemachine.Actor{ID: account.ID, Operator: account.Operator}, nil
}

func mapLookupErr(err error, resource, id string) error {
	switch {
	case errors.Is(err, reserrors.ErrNotFound),
		errors.Is(err, reserrors.ErrVehicleNotFound),
		errors.Is(err, reserrors.ErrAccountNotFound):
		return apperrors.NotFoundWithID(resource, id)
	default:
		return err
	}
}
