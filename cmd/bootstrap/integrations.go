package bootstrap

import (
	"context"
	"log/slog"

	"parcel-booking/internal/handler/api"
	"parcel-booking/internal/infra/broker"
	"parcel-booking/internal/infra/gateway"
	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/pkg/obs"
	"parcel-booking/internal/usecase/commands"
	"parcel-booking/internal/worker"

	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		NewGateway,
		func(g gateway.Gateway) commands.PaymentGateway { return g },
		NewWebhookReader,
	),
)

var BrokerModule = fx.Module("broker",
	fx.Provide(
		NewDispatcher,
		func(d broker.Dispatcher) worker.NotificationDispatcher { return d },
	),
)

var TracingModule = fx.Module("tracing",
	fx.Invoke(StartTracing),
)

func NewGateway(cfg config.Config) (gateway.Gateway, error) {
	return gateway.New(cfg.Gateway, cfg.Server.PublicURL)
}

func NewWebhookReader(cfg config.Config, g gateway.Gateway) api.WebhookReader {
	if !cfg.Gateway.VerifyWebhookSignature {
		return api.SkipSignature(g)
	}
	return g
}

func NewDispatcher(lc fx.Lifecycle, cfg config.Config) (broker.Dispatcher, error) {
	d, err := broker.New(cfg.Notify)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return d.Close()
		},
	})

	return d, nil
}

func StartTracing(lc fx.Lifecycle, cfg config.Config) error {
	shutdown, err := obs.InitTracer(context.Background(), cfg.Tracing)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := shutdown(ctx); err != nil {
				slog.Warn("tracer shutdown failed", "error", err.Error())
			}
			return nil
		},
	})
	return nil
}
