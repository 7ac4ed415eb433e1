package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"parcel-booking/internal/handler/api"
	"parcel-booking/internal/handler/middleware"
	"parcel-booking/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Payment *api.PaymentHandler
	Booking *api.BookingHandler
}

type Middlewares struct {
	Logger    *middleware.Logger
	Auth      *middleware.AuthMiddleware
	RateLimit *middleware.RateLimiterFactory
}

func NewRouter(engine *gin.Engine, cfg config.Config, h Handlers, mw Middlewares) {
	setupMiddleware(engine, cfg, mw.Logger)
	setupRoutes(engine, cfg.RateLimit, h, mw)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, rates config.RateLimitConfig, h Handlers, mw Middlewares) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	redirectLimit := mw.RateLimit.New("redirect", rates.Redirect)
	payments := engine.Group("/payments")
	{
		addRoutes(payments, []route{
			{Method: http.MethodPost, Path: "/webhook", Handler: h.Payment.Webhook},
			{Method: http.MethodGet, Path: "/success", Handler: h.Payment.Success, Mw: []gin.HandlerFunc{redirectLimit}},
			{Method: http.MethodGet, Path: "/failed", Handler: h.Payment.Failed, Mw: []gin.HandlerFunc{redirectLimit}},
		})
	}

	apiGroup := engine.Group("/api")
	{
		checkoutLimit := mw.RateLimit.New("checkout", rates.Checkout)
		bookings := apiGroup.Group("/bookings")
		bookings.Use(mw.Auth.RequireAuth())
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "/checkout", Handler: h.Booking.Checkout, Mw: []gin.HandlerFunc{checkoutLimit}},
				{Method: http.MethodPost, Path: "/cod", Handler: h.Booking.CreateCOD},
				{Method: http.MethodPost, Path: "/:id/pay", Handler: h.Booking.Pay, Mw: []gin.HandlerFunc{checkoutLimit}},
				{Method: http.MethodGet, Path: "", Handler: h.Booking.List},
				{Method: http.MethodGet, Path: "/:id", Handler: h.Booking.Get},
			})
		}

		admin := apiGroup.Group("/admin/bookings")
		admin.Use(mw.Auth.RequireAuth(), mw.Auth.RequireAdmin())
		{
			addRoutes(admin, []route{
				{Method: http.MethodPatch, Path: "/:id/status", Handler: h.Booking.AdminAdvanceStatus},
				{Method: http.MethodPatch, Path: "/:id/payment", Handler: h.Booking.AdminAdvancePayment},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
