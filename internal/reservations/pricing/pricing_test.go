package pricing

import (
	"testing"
	"time"

	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/model"
)

func window(t *testing.T, start time.Time, d time.Duration) model.TimeWindow {
	t.Helper()
	return model.TimeWindow{Start: start, End: start.Add(d)}
}

func TestTotal(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	card := model.RateCard{
		ShiftRateCents:  5000,
		DailyRateCents:  100000,
		HourlyRateCents: 500,
	}

	tests := []struct {
		name     string
		card     model.RateCard
		kind     model.Kind
		duration time.Duration
		want     int64
		wantCode string
	}{
		{
			name:     "shift exactly 12h is the flat rate",
			card:     card,
			kind:     model.KindHourlyShift,
			duration: 12 * time.Hour,
			want:     5000,
		},
		{
			name:     "shift overrun billed per started hour",
			card:     card,
			kind:     model.KindHourlyShift,
			duration: 14 * time.Hour,
			want:     5000 + 2*500,
		},
		{
			name:     "partial overrun hour rounds up",
			card:     card,
			kind:     model.KindHourlyShift,
			duration: 12*time.Hour + 30*time.Minute,
			want:     5000 + 500,
		},
		{
			name:     "overrun falls back to daily rate over 24",
			card:     model.RateCard{ShiftRateCents: 5000, DailyRateCents: 24000},
			kind:     model.KindHourlyShift,
			duration: 15 * time.Hour,
			want:     5000 + 3*1000,
		},
		{
			name:     "daily one exact day",
			card:     card,
			kind:     model.KindDaily,
			duration: 24 * time.Hour,
			want:     100000,
		},
		{
			name:     "daily two exact days",
			card:     model.RateCard{DailyRateCents: 100000},
			kind:     model.KindDaily,
			duration: 48 * time.Hour,
			want:     200000,
		},
		{
			name:     "daily one and a half days rounds up",
			card:     model.RateCard{DailyRateCents: 100000},
			kind:     model.KindDaily,
			duration: 36 * time.Hour,
			want:     200000,
		},
		{
			name:     "shift without shift rate",
			card:     model.RateCard{DailyRateCents: 100000},
			kind:     model.KindHourlyShift,
			duration: 12 * time.Hour,
			wantCode: apperrors.CodeInvalidRateCard,
		},
		{
			name:     "shift overrun with no fallback rate",
			card:     model.RateCard{ShiftRateCents: 5000},
			kind:     model.KindHourlyShift,
			duration: 14 * time.Hour,
			wantCode: apperrors.CodeInvalidRateCard,
		},
		{
			name:     "daily without daily rate",
			card:     model.RateCard{ShiftRateCents: 5000},
			kind:     model.KindDaily,
			duration: 24 * time.Hour,
			wantCode: apperrors.CodeInvalidRateCard,
		},
		{
			name:     "unknown kind",
			card:     card,
			kind:     model.Kind("weekly"),
			duration: 24 * time.Hour,
			wantCode: apperrors.CodeInvalidRateCard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Total(tt.card, tt.kind, window(t, start, tt.duration))
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Total() = %d, want %d", got, tt.want)
			}
			if got < 0 {
				t.Errorf("Total() = %d, totals must be non-negative", got)
			}
		})
	}
}
