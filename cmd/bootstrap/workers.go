package bootstrap

import (
	"context"
	"log/slog"
	"sync"

	"parcel-booking/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("workers",
	fx.Invoke(StartWorkers),
)

func StartWorkers(lc fx.Lifecycle, relay *worker.NotificationRelay, purger *worker.StagingPurger) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				relay.Run(ctx)
			}()
			go func() {
				defer wg.Done()
				purger.Run(ctx)
			}()
			slog.Info("background workers started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			wg.Wait()
			return nil
		},
	})
}
