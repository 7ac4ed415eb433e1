package components

import (
	"parcel-booking/internal/handler"
	"parcel-booking/internal/handler/api"
	"parcel-booking/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewPaymentHandler,
		api.NewBookingHandler,
		middleware.NewAuthMiddleware,
		middleware.NewRateLimiterFactory,
		func(p *api.PaymentHandler, b *api.BookingHandler) handler.Handlers {
			return handler.Handlers{Payment: p, Booking: b}
		},
		func(l *middleware.Logger, a *middleware.AuthMiddleware, rl *middleware.RateLimiterFactory) handler.Middlewares {
			return handler.Middlewares{Logger: l, Auth: a, RateLimit: rl}
		},
	),
	fx.Invoke(handler.NewRouter),
)
