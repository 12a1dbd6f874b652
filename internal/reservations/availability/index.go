// Package availability keeps an in-memory index of the blocking reservations
// per vehicle and serializes conflict checks against it. Each vehicle has its
// own mutex; a slow write for one vehicle never blocks checks for another.
package availability

import (
	"context"
	"sync"
	"time"

	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/model"
)

// Hold is one blocking reservation's claim on a vehicle's calendar.
type Hold struct {
	ReservationID string
	Window        model.TimeWindow
}

type vehicleCalendar struct {
	mu    sync.Mutex
	holds map[string]model.TimeWindow // reservation id -> window
}

// Index must be warmed from storage at startup (see Load) so that its view
// matches the persisted blocking set before the first check runs.
type Index struct {
	mu       sync.RWMutex
	vehicles map[string]*vehicleCalendar
}

func NewIndex() *Index {
	return &Index{vehicles: make(map[string]*vehicleCalendar)}
}

func (i *Index) calendar(vehicleID string) *vehicleCalendar {
	i.mu.RLock()
	cal, ok := i.vehicles[vehicleID]
	i.mu.RUnlock()
	if ok {
		return cal
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if cal, ok = i.vehicles[vehicleID]; !ok {
		cal = &vehicleCalendar{holds: make(map[string]model.TimeWindow)}
		i.vehicles[vehicleID] = cal
	}
	return cal
}

// CheckAndReserve runs the overlap check, the persist callback, and the hold
// insertion as one atomic unit scoped to the vehicle. The requested window is
// padded by buffer before comparison so back-to-back rentals keep turnaround
// time; existing holds are compared unpadded because they were padded at
// their own admission.
//
// If persist fails the hold is not taken and the error is returned as-is.
func (i *Index) CheckAndReserve(ctx context.Context, vehicleID, reservationID string, window model.TimeWindow, buffer time.Duration, persist func(context.Context) error) error {
	cal := i.calendar(vehicleID)
	cal.mu.Lock()
	defer cal.mu.Unlock()

	padded := window.Padded(buffer)
	for id, held := range cal.holds {
		if id == reservationID {
			continue
		}
		if padded.Overlaps(held) {
			return apperrors.Conflict("vehicle is already reserved for an overlapping window").
				WithDetails(map[string]any{
					"vehicle_id":     vehicleID,
					"conflicting_id": id,
				})
		}
	}

	if persist != nil {
		if err := persist(ctx); err != nil {
			return err
		}
	}

	cal.holds[reservationID] = window
	return nil
}

// Release drops a reservation's hold after the commit callback succeeds, so
// the slot only opens up once the terminal status is durably recorded.
// Releasing an unknown hold is a no-op.
func (i *Index) Release(ctx context.Context, vehicleID, reservationID string, commit func(context.Context) error) error {
	cal := i.calendar(vehicleID)
	cal.mu.Lock()
	defer cal.mu.Unlock()

	if commit != nil {
		if err := commit(ctx); err != nil {
			return err
		}
	}

	delete(cal.holds, reservationID)
	return nil
}

// Load seeds a hold without conflict checking. Warmup only; persisted state
// is the source of truth for what was admitted.
func (i *Index) Load(vehicleID, reservationID string, window model.TimeWindow) {
	cal := i.calendar(vehicleID)
	cal.mu.Lock()
	defer cal.mu.Unlock()
	cal.holds[reservationID] = window
}

// Holds returns a snapshot of the blocking windows for a vehicle.
func (i *Index) Holds(vehicleID string) []Hold {
	i.mu.RLock()
	cal, ok := i.vehicles[vehicleID]
	i.mu.RUnlock()
	if !ok {
		return nil
	}

	cal.mu.Lock()
	defer cal.mu.Unlock()
	out := make([]Hold, 0, len(cal.holds))
	for id, w := range cal.holds {
		out = append(out, Hold{ReservationID: id, Window: w})
	}
	return out
}
