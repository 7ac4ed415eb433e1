package components

import (
	"parcel-booking/internal/pkg/clock"
	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/usecase/shared"
	"parcel-booking/internal/worker"

	"go.uber.org/fx"
)

var WorkerComponentsModule = fx.Module("worker",
	fx.Provide(
		NewNotificationRelay,
		NewStagingPurger,
	),
)

func NewNotificationRelay(uow shared.UnitOfWork, d worker.NotificationDispatcher, cfg config.Config, clk clock.Clock) *worker.NotificationRelay {
	return worker.NewNotificationRelay(uow, d, cfg.Notify, clk)
}

func NewStagingPurger(uow shared.UnitOfWork, q worker.PurgeQueue, cfg config.Config, clk clock.Clock) *worker.StagingPurger {
	return worker.NewStagingPurger(uow, q, cfg.Reconcile, clk)
}
