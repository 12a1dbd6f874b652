package model

import (
	"fmt"
	"time"

	apperrors "fleetbook/pkg/errors"
)

// MinShiftDuration is the minimum length of an hourly-shift rental.
const MinShiftDuration = 12 * time.Hour

// TimeWindow is the half-open interval [Start, End) a reservation occupies.
type TimeWindow struct {
	Start time.Time `json:"start_time" bson:"start_time"`
	End   time.Time `json:"end_time" bson:"end_time"`
}

// NewTimeWindow validates the interval shape for the given reservation kind.
// It has no side effects and performs no availability checks.
func NewTimeWindow(kind Kind, start, end time.Time) (TimeWindow, error) {
	if start.IsZero() || end.IsZero() {
		return TimeWindow{}, apperrors.InvalidWindow("start_time and end_time are required")
	}
	if !end.After(start) {
		return TimeWindow{}, apperrors.InvalidWindow("end_time must be after start_time")
	}

	switch kind {
	case KindHourlyShift:
		if end.Sub(start) < MinShiftDuration {
			return TimeWindow{}, apperrors.InvalidWindow(
				fmt.Sprintf("hourly shift rentals must cover at least %s", MinShiftDuration))
		}
	case KindDaily:
		if calendarDaysBetween(start, end) < 1 {
			return TimeWindow{}, apperrors.InvalidWindow("daily rentals must end on a later calendar day")
		}
	default:
		return TimeWindow{}, apperrors.InvalidWindow(fmt.Sprintf("unknown reservation kind: %s", kind))
	}

	return TimeWindow{Start: start.UTC(), End: end.UTC()}, nil
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps implements half-open interval intersection:
// a.start < b.end AND b.start < a.end.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Padded widens the window on both sides. Used for cleaning buffers.
func (w TimeWindow) Padded(buffer time.Duration) TimeWindow {
	if buffer <= 0 {
		return w
	}
	return TimeWindow{Start: w.Start.Add(-buffer), End: w.End.Add(buffer)}
}

func (w TimeWindow) StartedBy(now time.Time) bool {
	return !now.Before(w.Start)
}

func (w TimeWindow) EndedBy(now time.Time) bool {
	return !now.Before(w.End)
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// calendarDaysBetween counts whole calendar-day boundaries crossed between
// the two timestamps, evaluated in the start's location. The dates are
// compared in UTC so days shortened or stretched by DST still count as one.
func calendarDaysBetween(start, end time.Time) int {
	e := end.In(start.Location())
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, time.UTC)
	return int(endDay.Sub(startDay) / (24 * time.Hour))
}
