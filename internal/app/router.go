package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"haul/internal/auth"
	"haul/internal/handler"
	"haul/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler     *handler.RideHandler
	DriverHandler   *handler.DriverHandler
	CustomerHandler *handler.CustomerHandler
	StreamHandler   *handler.StreamHandler
	Tokens          *auth.TokenIssuer
	AdminToken      string
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authed := middleware.RequireAuth(deps.Tokens)
	customerOnly := middleware.RequireRole(auth.RoleCustomer)
	driverOnly := middleware.RequireRole(auth.RoleDriver)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Customer account routes.
		customers := v1.Group("/customers")
		{
			customers.POST("/register", deps.CustomerHandler.Register)
			customers.POST("/login", deps.CustomerHandler.Login)
			customers.POST("/password", authed, customerOnly, deps.CustomerHandler.ChangePassword)
		}

		// Booking routes. The customer only ever sees their private copies.
		bookings := v1.Group("/bookings", authed, customerOnly)
		{
			bookings.POST("", deps.RideHandler.CreateBooking)
			bookings.GET("", deps.RideHandler.ListBookings)
			bookings.GET("/:id", deps.RideHandler.GetBooking)
			bookings.GET("/:id/checkout", deps.RideHandler.Checkout)
		}

		// Gateway return navigations land here unauthenticated.
		v1.GET("/payments/callback/*outcome", deps.RideHandler.PaymentCallback)

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.POST("/login", deps.DriverHandler.Login)

			me := drivers.Group("", authed, driverOnly)
			{
				me.GET("/me", deps.DriverHandler.Profile)
				me.POST("/application", deps.DriverHandler.SubmitApplication)
				me.POST("/online", deps.DriverHandler.GoOnline)
				me.POST("/offline", deps.DriverHandler.GoOffline)
				me.GET("/queue", deps.DriverHandler.ListPending)
				me.GET("/queue/stream", deps.StreamHandler.StreamPending)
				me.GET("/assigned", deps.DriverHandler.ListAssigned)
				me.GET("/summary", deps.DriverHandler.WeeklySummary)
			}
		}

		// Dispatch-queue transitions.
		requests := v1.Group("/requests", authed, driverOnly)
		{
			requests.POST("/:id/accept", deps.DriverHandler.Accept)
			requests.POST("/:id/decline", deps.DriverHandler.Decline)
			requests.POST("/:id/complete", deps.DriverHandler.Complete)
		}

		// Operator routes.
		admin := v1.Group("/admin", middleware.RequireAdminToken(deps.AdminToken))
		{
			admin.POST("/drivers/:id/approve", deps.DriverHandler.Approve)
		}
	}

	return router
}
