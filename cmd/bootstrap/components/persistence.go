package components

import (
	"parcel-booking/internal/infra"
	"parcel-booking/internal/infra/cache"
	"parcel-booking/internal/infra/readstore"
	"parcel-booking/internal/infra/uow"
	"parcel-booking/internal/usecase/commands"
	"parcel-booking/internal/usecase/queries"
	"parcel-booking/internal/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	baseOption,
	readstoreModule,
	repositoryModule,
)

var baseOption = fx.Provide(
	NewDBTX,
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
	),
)

var repositoryModule = fx.Module("persistence/repository",
	fx.Provide(
		// UnitOfWork
		uow.NewPostgresUoW,
		// Grace-window purge queue
		fx.Annotate(
			NewPurgeQueue,
			fx.As(new(commands.PurgeScheduler)),
			fx.As(new(worker.PurgeQueue)),
		),
	),
)

type purgeQueue interface {
	commands.PurgeScheduler
	worker.PurgeQueue
}

func NewPurgeQueue(rdb *redis.Client) purgeQueue {
	if rdb == nil {
		return cache.NoopPurgeQueue{}
	}
	return cache.NewPurgeQueue(rdb)
}

func NewDBTX(pool *pgxpool.Pool) infra.DBTX {
	return pool
}
