package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/openretail/stocksync/internal/clock"
	obsmetrics "github.com/openretail/stocksync/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type SchedulerParams struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Reconciler *Reconciler
	Trigger    *Trigger
	Config     Config `optional:"true"`
}

// Scheduler drives reconciliation: a periodic tick plus coalesced immediate
// requests. runMu serializes cycles, so a manual RunOnce while the run loop
// is mid-cycle waits instead of starting a concurrent duplicate pass.
type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	reconciler *Reconciler
	trigger    *Trigger

	runMu sync.Mutex
}

func New(p SchedulerParams) *Scheduler {
	return &Scheduler{
		log:        p.Log.Named("syncer.scheduler"),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		reconciler: p.Reconciler,
		trigger:    p.Trigger,
	}
}

// RunOnce performs a single reconciliation cycle. At most one cycle is in
// flight at any time; a caller landing mid-cycle blocks until its own turn.
func (s *Scheduler) RunOnce(ctx context.Context, trigger string) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := s.clock.Now()
	obsmetrics.Sync().IncCycle(trigger)

	err := s.reconciler.SyncAll(ctx)
	obsmetrics.Sync().ObserveCycleDuration(s.clock.Now().Sub(start))
	if err != nil {
		s.log.Warn("sync cycle finished with errors",
			zap.String("trigger", trigger),
			zap.Error(err),
		)
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	// Initial cycle catches up anything that changed while stopped.
	_ = s.RunOnce(ctx, obsmetrics.SyncTriggerInterval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx, obsmetrics.SyncTriggerInterval)
		case <-s.trigger.C():
			_ = s.RunOnce(ctx, obsmetrics.SyncTriggerImmediate)
		}
	}
}
