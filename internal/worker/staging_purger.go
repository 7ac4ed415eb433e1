package worker

import (
	"context"
	"log/slog"
	"time"

	"parcel-booking/internal/pkg/clock"
	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/pkg/errs"
	"parcel-booking/internal/usecase/shared"
)

type PurgeQueue interface {
	Due(ctx context.Context, now time.Time, limit int) ([]string, error)
	Remove(ctx context.Context, refs ...string) error
}

// StagingPurger deletes resolved staged records once their grace window has passed. Unresolved
// records are never touched.
type StagingPurger struct {
	uow   shared.UnitOfWork
	queue PurgeQueue
	cfg   config.ReconcileConfig
	clock clock.Clock
}

func NewStagingPurger(uow shared.UnitOfWork, queue PurgeQueue, cfg config.ReconcileConfig, clk clock.Clock) *StagingPurger {
	return &StagingPurger{uow: uow, queue: queue, cfg: cfg, clock: clk}
}

func (p *StagingPurger) Run(ctx context.Context) {
	runEvery(ctx, "staging_purger", p.cfg.PurgeInterval, func(ctx context.Context) error {
		_, err := p.RunOnce(ctx)
		return err
	})
}

// RunOnce drains due entries from the queue, then sweeps whatever the queue missed.
func (p *StagingPurger) RunOnce(ctx context.Context) (int64, error) {
	now := p.clock.Now()
	var purged int64

	refs, err := p.queue.Due(ctx, now, p.cfg.PurgeBatch)
	if err != nil {
		slog.Warn("purge queue unavailable, relying on sweep", "error", err.Error())
		refs = nil
	}

	done := make([]string, 0, len(refs))
	for _, ref := range refs {
		var deleted bool
		err := p.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			var err error
			deleted, err = tx.Staging().PurgeResolved(ctx, ref, now)
			return err
		})
		if err != nil {
			slog.Warn("failed to purge staged booking", "merchant_ref", ref, "error", err.Error())
			continue
		}
		if deleted {
			purged++
		}
		done = append(done, ref)
	}
	if err := p.queue.Remove(ctx, done...); err != nil {
		slog.Warn("failed to remove purged refs from queue", "error", err.Error())
	}

	var swept int64
	err = p.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		swept, err = tx.Staging().PurgeDue(ctx, now, p.cfg.PurgeBatch)
		return err
	})
	if err != nil {
		return purged, errs.Wrap(err, "sweep due staged bookings")
	}
	purged += swept

	if purged > 0 {
		slog.Info("purged staged bookings", "count", purged)
	}
	return purged, nil
}
