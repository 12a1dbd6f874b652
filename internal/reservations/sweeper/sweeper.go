// Package sweeper runs the periodic reservation maintenance job: completing
// approved reservations whose windows have ended and expiring stale pending
// ones. The sweep is idempotent; overlapping runs are prevented by cron's
// SkipIfStillRunning wrapper.
package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"fleetbook/internal/reservations/service"
	"fleetbook/pkg/logger"
)

const runTimeout = 60 * time.Second

type Sweeper struct {
	cron    *cron.Cron
	service service.ReservationService
	log     *logger.Logger
}

func New(schedule string, svc service.ReservationService, log *logger.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.DiscardLogger),
		)),
		service: svc,
		log:     log,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.Info("reservation sweeper started")
}

// Stop waits for an in-flight run to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("reservation sweeper stopped")
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	now := time.Now().UTC()

	completed, err := s.service.CompleteElapsed(ctx, now)
	if err != nil {
		s.log.Error("sweep failed to complete elapsed reservations", "error", err)
	}

	expired, err := s.service.ExpirePending(ctx, now)
	if err != nil {
		s.log.Error("sweep failed to expire pending reservations", "error", err)
	}

	if completed > 0 || expired > 0 {
		s.log.Info("sweep finished", "completed", completed, "expired", expired)
	}
}
