package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "fleetbook/pkg/errors"
	"fleetbook/pkg/model"
)

func win(start time.Time, d time.Duration) model.TimeWindow {
	return model.TimeWindow{Start: start, End: start.Add(d)}
}

func TestCheckAndReserve(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("disjoint windows coexist", func(t *testing.T) {
		idx := NewIndex()
		if err := idx.CheckAndReserve(ctx, "veh-1", "res-1", win(base, 24*time.Hour), 0, nil); err != nil {
			t.Fatalf("first reserve: %v", err)
		}
		if err := idx.CheckAndReserve(ctx, "veh-1", "res-2", win(base.Add(24*time.Hour), 24*time.Hour), 0, nil); err != nil {
			t.Fatalf("touching windows must not conflict: %v", err)
		}
	})

	t.Run("overlap conflicts", func(t *testing.T) {
		idx := NewIndex()
		if err := idx.CheckAndReserve(ctx, "veh-1", "res-1", win(base, 24*time.Hour), 0, nil); err != nil {
			t.Fatalf("first reserve: %v", err)
		}
		err := idx.CheckAndReserve(ctx, "veh-1", "res-2", win(base.Add(12*time.Hour), 24*time.Hour), 0, nil)
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("error = %v, want CONFLICT", err)
		}
	})

	t.Run("other vehicles are independent", func(t *testing.T) {
		idx := NewIndex()
		if err := idx.CheckAndReserve(ctx, "veh-1", "res-1", win(base, 24*time.Hour), 0, nil); err != nil {
			t.Fatalf("first reserve: %v", err)
		}
		if err := idx.CheckAndReserve(ctx, "veh-2", "res-2", win(base, 24*time.Hour), 0, nil); err != nil {
			t.Fatalf("same window on another vehicle must pass: %v", err)
		}
	})

	t.Run("cleaning buffer pads the request", func(t *testing.T) {
		idx := NewIndex()
		if err := idx.CheckAndReserve(ctx, "veh-1", "res-1", win(base, 24*time.Hour), 0, nil); err != nil {
			t.Fatalf("first reserve: %v", err)
		}
		err := idx.CheckAndReserve(ctx, "veh-1", "res-2", win(base.Add(25*time.Hour), 12*time.Hour), 2*time.Hour, nil)
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("window inside the buffer must conflict, got %v", err)
		}
		if err := idx.CheckAndReserve(ctx, "veh-1", "res-3", win(base.Add(27*time.Hour), 12*time.Hour), 2*time.Hour, nil); err != nil {
			t.Fatalf("window past the buffer must pass: %v", err)
		}
	})

	t.Run("persist failure leaves no hold", func(t *testing.T) {
		idx := NewIndex()
		boom := errors.New("write failed")
		err := idx.CheckAndReserve(ctx, "veh-1", "res-1", win(base, 24*time.Hour), 0, func(context.Context) error {
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("error = %v, want persist failure passed through", err)
		}
		if holds := idx.Holds("veh-1"); len(holds) != 0 {
			t.Fatalf("holds = %v, want empty after failed persist", holds)
		}
	})
}

func TestCheckAndReserveRace(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	window := win(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), 24*time.Hour)

	const contenders = 50
	var wins, persisted atomic.Int32
	var wg sync.WaitGroup
	wg.Add(contenders)
	for n := 0; n < contenders; n++ {
		go func(n int) {
			defer wg.Done()
			err := idx.CheckAndReserve(ctx, "veh-1", fmt.Sprintf("res-%d", n), window, 0, func(context.Context) error {
				persisted.Add(1)
				return nil
			})
			if err == nil {
				wins.Add(1)
			} else if !apperrors.HasCode(err, apperrors.CodeConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(n)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("winners = %d, want exactly 1", wins.Load())
	}
	if persisted.Load() != 1 {
		t.Errorf("persist calls = %d, want exactly 1", persisted.Load())
	}
	if holds := idx.Holds("veh-1"); len(holds) != 1 {
		t.Errorf("holds = %d, want 1", len(holds))
	}
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	idx := NewIndex()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	window := win(base, 24*time.Hour)

	if err := idx.CheckAndReserve(ctx, "veh-1", "res-1", window, 0, nil); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	t.Run("failed commit keeps the hold", func(t *testing.T) {
		boom := errors.New("status write failed")
		err := idx.Release(ctx, "veh-1", "res-1", func(context.Context) error { return boom })
		if !errors.Is(err, boom) {
			t.Fatalf("error = %v, want commit failure passed through", err)
		}
		err = idx.CheckAndReserve(ctx, "veh-1", "res-2", window, 0, nil)
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("hold must survive a failed commit, got %v", err)
		}
	})

	t.Run("release frees the slot", func(t *testing.T) {
		if err := idx.Release(ctx, "veh-1", "res-1", nil); err != nil {
			t.Fatalf("release: %v", err)
		}
		if err := idx.CheckAndReserve(ctx, "veh-1", "res-2", window, 0, nil); err != nil {
			t.Fatalf("slot must be free after release: %v", err)
		}
	})

	t.Run("unknown hold is a no-op", func(t *testing.T) {
		if err := idx.Release(ctx, "veh-9", "res-9", nil); err != nil {
			t.Fatalf("release of unknown hold: %v", err)
		}
	})
}

func TestLoadSeedsWithoutChecking(t *testing.T) {
	idx := NewIndex()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	idx.Load("veh-1", "res-1", win(base, 24*time.Hour))
	idx.Load("veh-1", "res-2", win(base, 24*time.Hour)) // warmup trusts storage

	if holds := idx.Holds("veh-1"); len(holds) != 2 {
		t.Fatalf("holds = %d, want 2", len(holds))
	}

	err := idx.CheckAndReserve(context.Background(), "veh-1", "res-3", win(base, 12*time.Hour), 0, nil)
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("loaded holds must block new requests, got %v", err)
	}
}
