package bootstrap

import (
	"parcel-booking/cmd/bootstrap/components"

	"go.uber.org/fx"
)

// CoreModule is everything except the HTTP layer and background workers; the operator CLI runs on it.
var CoreModule = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	RedisModule,
	GatewayModule,
	BrokerModule,
	TracingModule,
	components.PersistenceModule,
	components.UseCaseModule,
	components.WorkerComponentsModule,
)

var Module = fx.Options(
	CoreModule,
	JWTModule,
	components.HandlerModule,
	WorkerModule,
)
