package components

import (
	"parcel-booking/internal/pkg/clock"
	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/usecase/commands"
	"parcel-booking/internal/usecase/queries"
	"parcel-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewCheckoutUseCase,
		commands.NewBookingStatusUseCase,
		NewReconciliationUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
	),
)

func NewReconciliationUseCase(
	uow shared.UnitOfWork,
	gateway commands.PaymentGateway,
	purges commands.PurgeScheduler,
	cfg config.Config,
	clk clock.Clock,
) commands.ReconciliationCommands {
	return commands.NewReconciliationUseCase(uow, gateway, purges, cfg.Reconcile, clk)
}
