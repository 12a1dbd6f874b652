// Package pricing computes reservation totals from a vehicle's rate card.
// Totals are pure functions of the rate card, kind, and window; they are
// computed once at creation and stored on the reservation.
package pricing

import (
	"time"

	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/model"
)

// Total returns the price in cents for renting under the given rate card
// over the window.
//
// Hourly shifts are billed as one flat shift charge covering the first
// 12 hours. Time beyond that is billed per started hour at the hourly
// rate, falling back to the daily rate divided by 24 when no hourly rate
// is configured.
//
// Daily rentals are billed per started 24-hour block, minimum one day.
func Total(card model.RateCard, kind model.Kind, window model.TimeWindow) (int64, error) {
	duration := window.Duration()
	if duration <= 0 {
		return 0, apperrors.InvalidWindow("window duration must be positive")
	}

	switch kind {
	case model.KindHourlyShift:
		return shiftTotal(card, duration)
	case model.KindDaily:
		return dailyTotal(card, duration)
	default:
		return 0, apperrors.InvalidRateCard("no rate defined for kind " + string(kind))
	}
}

func shiftTotal(card model.RateCard, duration time.Duration) (int64, error) {
	if card.ShiftRateCents <= 0 {
		return 0, apperrors.InvalidRateCard("vehicle has no shift rate configured")
	}

	total := card.ShiftRateCents
	overrun := duration - model.MinShiftDuration
	if overrun <= 0 {
		return total, nil
	}

	hourly := card.HourlyRateCents
	if hourly <= 0 {
		if card.DailyRateCents <= 0 {
			return 0, apperrors.InvalidRateCard("vehicle has no hourly or daily rate for shift overruns")
		}
		hourly = card.DailyRateCents / 24
	}

	return total + ceilDiv(int64(overrun), int64(time.Hour))*hourly, nil
}

func dailyTotal(card model.RateCard, duration time.Duration) (int64, error) {
	if card.DailyRateCents <= 0 {
		return 0, apperrors.InvalidRateCard("vehicle has no daily rate configured")
	}

	days := ceilDiv(int64(duration), int64(24*time.Hour))
	if days < 1 {
		days = 1
	}
	return days * card.DailyRateCents, nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
