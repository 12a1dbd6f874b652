package statemachine

import (
	"testing"
	"time"

	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/model"
)

var (
	requester = Actor{ID: "acc-1"}
	operator  = Actor{ID: "op-1", Operator: true}
)

func newReservation(status model.Status, start, end time.Time) *model.Reservation {
	return &model.Reservation{
		ID:          "res-1",
		VehicleID:   "veh-1",
		RequesterID: requester.ID,
		Kind:        model.KindDaily,
		Window:      model.TimeWindow{Start: start, End: end},
		Status:      status,
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to model.Status
		want     bool
	}{
		{model.StatusPending, model.StatusApproved, true},
		{model.StatusPending, model.StatusCancelled, true},
		{model.StatusPending, model.StatusRejected, true},
		{model.StatusPending, model.StatusCompleted, false},
		{model.StatusApproved, model.StatusCompleted, true},
		{model.StatusApproved, model.StatusCancelled, true},
		{model.StatusApproved, model.StatusRejected, false},
		{model.StatusCompleted, model.StatusCancelled, false},
		{model.StatusCancelled, model.StatusApproved, false},
		{model.StatusRejected, model.StatusApproved, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestApprove(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("operator approves pending", func(t *testing.T) {
		r := newReservation(model.StatusPending, now.Add(time.Hour), now.Add(25*time.Hour))
		if err := Approve(r, operator, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Status != model.StatusApproved {
			t.Errorf("status = %s, want approved", r.Status)
		}
		if r.ApprovedAt == nil || !r.ApprovedAt.Equal(now) {
			t.Errorf("ApprovedAt = %v, want %v", r.ApprovedAt, now)
		}
	})

	t.Run("requester cannot approve", func(t *testing.T) {
		r := newReservation(model.StatusPending, now.Add(time.Hour), now.Add(25*time.Hour))
		err := Approve(r, requester, now)
		if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
			t.Fatalf("error = %v, want UNAUTHORIZED", err)
		}
		if r.Status != model.StatusPending {
			t.Errorf("status changed on failed guard: %s", r.Status)
		}
	})

	t.Run("terminal reservation", func(t *testing.T) {
		r := newReservation(model.StatusCancelled, now.Add(time.Hour), now.Add(25*time.Hour))
		err := Approve(r, operator, now)
		if !apperrors.HasCode(err, apperrors.CodeTerminalState) {
			t.Fatalf("error = %v, want TERMINAL_STATE", err)
		}
	})

	t.Run("already approved", func(t *testing.T) {
		r := newReservation(model.StatusApproved, now.Add(time.Hour), now.Add(25*time.Hour))
		err := Approve(r, operator, now)
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("error = %v, want CONFLICT", err)
		}
	})
}

func TestCancel(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("requester cancels own pending", func(t *testing.T) {
		r := newReservation(model.StatusPending, now.Add(time.Hour), now.Add(25*time.Hour))
		if err := Cancel(r, requester, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Status != model.StatusCancelled {
			t.Errorf("status = %s, want cancelled", r.Status)
		}
		if r.CancelledAt == nil {
			t.Error("CancelledAt not stamped")
		}
	})

	t.Run("operator rejects someone else's pending", func(t *testing.T) {
		r := newReservation(model.StatusPending, now.Add(time.Hour), now.Add(25*time.Hour))
		if err := Cancel(r, operator, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Status != model.StatusRejected {
			t.Errorf("status = %s, want rejected", r.Status)
		}
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		r := newReservation(model.StatusPending, now.Add(time.Hour), now.Add(25*time.Hour))
		err := Cancel(r, Actor{ID: "acc-2"}, now)
		if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
			t.Fatalf("error = %v, want UNAUTHORIZED", err)
		}
	})

	t.Run("approved before start", func(t *testing.T) {
		r := newReservation(model.StatusApproved, now.Add(time.Hour), now.Add(25*time.Hour))
		if err := Cancel(r, requester, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Status != model.StatusCancelled {
			t.Errorf("status = %s, want cancelled", r.Status)
		}
	})

	t.Run("approved trip already started", func(t *testing.T) {
		r := newReservation(model.StatusApproved, now.Add(-time.Hour), now.Add(23*time.Hour))
		err := Cancel(r, requester, now)
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("error = %v, want CONFLICT", err)
		}
		if r.Status != model.StatusApproved {
			t.Errorf("status changed on failed guard: %s", r.Status)
		}
	})

	t.Run("terminal is idempotent-safe", func(t *testing.T) {
		r := newReservation(model.StatusCompleted, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
		err := Cancel(r, operator, now)
		if !apperrors.HasCode(err, apperrors.CodeTerminalState) {
			t.Fatalf("error = %v, want TERMINAL_STATE", err)
		}
	})
}

func TestComplete(t *testing.T) {
	now := time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)

	t.Run("approved after window end", func(t *testing.T) {
		r := newReservation(model.StatusApproved, now.Add(-26*time.Hour), now.Add(-time.Hour))
		if err := Complete(r, System, now, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Status != model.StatusCompleted {
			t.Errorf("status = %s, want completed", r.Status)
		}
		if r.CompletedAt == nil || !r.CompletedAt.Equal(now) {
			t.Errorf("CompletedAt = %v, want %v", r.CompletedAt, now)
		}
	})

	t.Run("window still running", func(t *testing.T) {
		r := newReservation(model.StatusApproved, now.Add(-time.Hour), now.Add(23*time.Hour))
		err := Complete(r, requester, now, false)
		if !apperrors.HasCode(err, apperrors.CodeTooEarly) {
			t.Fatalf("error = %v, want TOO_EARLY", err)
		}
	})

	t.Run("operator forces early completion", func(t *testing.T) {
		r := newReservation(model.StatusApproved, now.Add(-time.Hour), now.Add(23*time.Hour))
		if err := Complete(r, operator, now, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Status != model.StatusCompleted {
			t.Errorf("status = %s, want completed", r.Status)
		}
	})

	t.Run("stranger cannot complete", func(t *testing.T) {
		r := newReservation(model.StatusApproved, now.Add(-26*time.Hour), now.Add(-time.Hour))
		err := Complete(r, Actor{ID: "acc-2"}, now, false)
		if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
			t.Fatalf("error = %v, want UNAUTHORIZED", err)
		}
		if r.Status != model.StatusApproved {
			t.Errorf("status changed on failed guard: %s", r.Status)
		}
	})

	t.Run("requester completes own elapsed trip", func(t *testing.T) {
		r := newReservation(model.StatusApproved, now.Add(-26*time.Hour), now.Add(-time.Hour))
		if err := Complete(r, requester, now, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Status != model.StatusCompleted {
			t.Errorf("status = %s, want completed", r.Status)
		}
	})

	t.Run("requester cannot force", func(t *testing.T) {
		r := newReservation(model.StatusApproved, now.Add(-time.Hour), now.Add(23*time.Hour))
		err := Complete(r, requester, now, true)
		if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
			t.Fatalf("error = %v, want UNAUTHORIZED", err)
		}
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		r := newReservation(model.StatusPending, now.Add(-26*time.Hour), now.Add(-time.Hour))
		err := Complete(r, operator, now, false)
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("error = %v, want CONFLICT", err)
		}
	})

	t.Run("completed stays completed", func(t *testing.T) {
		stamped := now.Add(-time.Hour)
		r := newReservation(model.StatusCompleted, now.Add(-26*time.Hour), now.Add(-2*time.Hour))
		r.CompletedAt = &stamped
		err := Complete(r, operator, now, false)
		if !apperrors.HasCode(err, apperrors.CodeTerminalState) {
			t.Fatalf("error = %v, want TERMINAL_STATE", err)
		}
		if !r.CompletedAt.Equal(stamped) {
			t.Error("CompletedAt restamped on terminal reservation")
		}
	})
}
