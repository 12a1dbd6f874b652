package model

import "time"

type Kind string

const (
	KindHourlyShift Kind = "hourly_shift"
	KindDaily       Kind = "daily"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	// StatusRejected marks an operator cancellation before approval.
	StatusRejected Status = "rejected"
)

// BlockingStatuses are the statuses that count toward conflict detection.
var BlockingStatuses = []Status{StatusPending, StatusApproved}

func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusApproved
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// Reservation references its vehicle and requester by id only; both are owned
// by collaborators. Reservations are never deleted, only status-terminated,
// so the collection doubles as the audit history.
type Reservation struct {
	ID          string `json:"id,omitempty" bson:"_id,omitempty"`
	VehicleID   string `json:"vehicle_id" bson:"vehicle_id" validate:"required"`
	RequesterID string `json:"requester_id" bson:"requester_id" validate:"required"`

	Kind   Kind       `json:"kind" bson:"kind" validate:"required,oneof=hourly_shift daily"`
	Window TimeWindow `json:"window" bson:",inline"`

	// Computed once at creation from the vehicle's rate card; immutable after.
	TotalPriceCents int64 `json:"total_price_cents" bson:"total_price_cents"`

	Status    Status    `json:"status" bson:"status" validate:"required,oneof=pending approved completed cancelled rejected"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	ApprovedAt  *time.Time `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}
