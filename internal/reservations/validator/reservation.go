package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/model"
)

// CreateReservationRequest is the wire shape for booking a vehicle.
// Window semantics (minimum shift length, calendar-day rule) are enforced
// by model.NewTimeWindow, not here.
type CreateReservationRequest struct {
	VehicleID   string     `json:"vehicle_id" validate:"required"`
	RequesterID string     `json:"requester_id" validate:"required"`
	Kind        model.Kind `json:"kind" validate:"required,reservation_kind"`
	StartTime   time.Time  `json:"start_time" validate:"required"`
	EndTime     time.Time  `json:"end_time" validate:"required"`
}

type ActionRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
	Force   bool   `json:"force,omitempty"`
}

type ReservationValidator struct {
	validate *validator.Validate
}

func NewReservationValidator() *ReservationValidator {
	v := validator.New()
	_ = v.RegisterValidation("reservation_kind", validateKind)
	return &ReservationValidator{validate: v}
}

func validateKind(fl validator.FieldLevel) bool {
	switch model.Kind(fl.Field().String()) {
	case model.KindHourlyShift, model.KindDaily:
		return true
	}
	return false
}

func (rv *ReservationValidator) ValidateCreate(req *CreateReservationRequest) error {
	return rv.check(req)
}

func (rv *ReservationValidator) ValidateAction(req *ActionRequest) error {
	return rv.check(req)
}

func (rv *ReservationValidator) check(req any) error {
	err := rv.validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.InvalidInput("invalid request body")
	}

	details := make(map[string]any, len(validationErrors))
	for _, fe := range validationErrors {
		details[strings.ToLower(fe.Field())] = describeFailure(fe)
	}
	return apperrors.Validation("request validation failed", details)
}

func describeFailure(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "reservation_kind":
		return fmt.Sprintf("must be one of: %s, %s", model.KindHourlyShift, model.KindDaily)
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
