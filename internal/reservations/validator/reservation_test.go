package validator

import (
	"testing"
	"time"

	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/model"
)

func TestValidateCreate(t *testing.T) {
	rv := NewReservationValidator()
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	valid := CreateReservationRequest{
		VehicleID:   "veh-1",
		RequesterID: "acc-1",
		Kind:        model.KindDaily,
		StartTime:   start,
		EndTime:     start.Add(24 * time.Hour),
	}

	tests := []struct {
		name    string
		mutate  func(*CreateReservationRequest)
		wantErr bool
	}{
		{"valid daily request", func(*CreateReservationRequest) {}, false},
		{"valid shift request", func(r *CreateReservationRequest) { r.Kind = model.KindHourlyShift }, false},
		{"missing vehicle", func(r *CreateReservationRequest) { r.VehicleID = "" }, true},
		{"missing requester", func(r *CreateReservationRequest) { r.RequesterID = "" }, true},
		{"missing kind", func(r *CreateReservationRequest) { r.Kind = "" }, true},
		{"unknown kind", func(r *CreateReservationRequest) { r.Kind = "weekly" }, true},
		{"missing start", func(r *CreateReservationRequest) { r.StartTime = time.Time{} }, true},
		{"missing end", func(r *CreateReservationRequest) { r.EndTime = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := rv.ValidateCreate(&req)
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeValidation) {
					t.Fatalf("error = %v, want VALIDATION_ERROR", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateAction(t *testing.T) {
	rv := NewReservationValidator()

	if err := rv.ValidateAction(&ActionRequest{ActorID: "acc-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rv.ValidateAction(&ActionRequest{}); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("error = %v, want VALIDATION_ERROR", err)
	}
}
