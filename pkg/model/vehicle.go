package model

import "time"

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleMaintenance VehicleStatus = "maintenance"
	VehicleRetired     VehicleStatus = "retired"
)

// RateCard holds a vehicle's pricing in integer cents. ShiftRateCents is the
// flat charge for the mandatory 12-hour shift; HourlyRateCents is optional
// and falls back to DailyRateCents/24 when zero.
type RateCard struct {
	ShiftRateCents  int64 `json:"shift_rate_cents" bson:"shift_rate_cents" validate:"min=0"`
	DailyRateCents  int64 `json:"daily_rate_cents" bson:"daily_rate_cents" validate:"min=0"`
	HourlyRateCents int64 `json:"hourly_rate_cents,omitempty" bson:"hourly_rate_cents,omitempty" validate:"min=0"`
}

// Vehicle is owned by the fleet catalog; the reservation engine only reads it.
type Vehicle struct {
	ID           string        `json:"id,omitempty" bson:"_id,omitempty"`
	Slug         string        `json:"slug" bson:"slug" validate:"required,min=2,max=120"`
	Brand        string        `json:"brand" bson:"brand" validate:"required,min=1,max=100"`
	Name         string        `json:"name" bson:"name" validate:"required,min=1,max=200"`
	Transmission string        `json:"transmission" bson:"transmission" validate:"required,oneof=automatic manual"`
	FuelType     string        `json:"fuel_type" bson:"fuel_type" validate:"required,min=2,max=50"`
	Seats        int           `json:"seats" bson:"seats" validate:"required,min=1,max=20"`
	Status       VehicleStatus `json:"status" bson:"status" validate:"required,oneof=available maintenance retired"`
	RateCard     RateCard      `json:"rate_card" bson:"rate_card"`

	// Hours blocked around each reservation for cleaning between trips.
	// Zero disables the buffer.
	CleaningBufferHours int `json:"cleaning_buffer_hours" bson:"cleaning_buffer_hours" validate:"min=0,max=48"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (v *Vehicle) CleaningBuffer() time.Duration {
	return time.Duration(v.CleaningBufferHours) * time.Hour
}
