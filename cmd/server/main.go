package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"haul/internal/app"
	"haul/internal/auth"
	"haul/internal/config"
	"haul/internal/geocode"
	"haul/internal/handler"
	"haul/internal/imagehost"
	"haul/internal/payment"
	internalRedis "haul/internal/redis"
	"haul/internal/repository/postgres"
	"haul/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, shifts := wireServer(db, redisClient, nrApp, cfg)

	// The rollover scheduler owns the Sunday export; it runs until shutdown.
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go shifts.RunRolloverScheduler(schedulerCtx)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopScheduler()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server plus the
// shift service, which main also hands to the rollover scheduler.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.ShiftService) {
	// Initialize Redis stores.
	presenceStore := internalRedis.NewPresenceStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	queueFeed := internalRedis.NewQueueFeed(redisClient)

	// Initialize repositories.
	customerRepo := postgres.NewCustomerRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	rideRepo := postgres.NewRideRequestRepository(db)
	shiftRepo := postgres.NewShiftRepository(db)

	// Initialize outbound clients.
	geocoder := geocode.NewClient(cfg.Geocoder.BaseURL, cfg.Geocoder.Timeout)
	gateway := payment.NewGateway(cfg.Payment.GatewayURL, cfg.Payment.MerchantID, cfg.Payment.CallbackURL)
	uploader := imagehost.NewClient(cfg.ImageHost.UploadURL, cfg.ImageHost.UploadPreset, cfg.ImageHost.Timeout)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Initialize services.
	lifecycleService := service.NewLifecycleService(db, rideRepo, geocoder, queueFeed)
	shiftService := service.NewShiftService(db, shiftRepo, driverRepo, presenceStore)
	dispatchService := service.NewDispatchService(rideRepo, driverRepo, presenceStore, lockStore, queueFeed, lifecycleService, shiftService)
	accountService := service.NewAccountService(customerRepo, driverRepo, tokens, uploader)
	checkoutService := service.NewCheckoutService(rideRepo, gateway)

	// Initialize handlers.
	rideHandler := handler.NewRideHandler(lifecycleService, checkoutService, rideRepo)
	driverHandler := handler.NewDriverHandler(accountService, dispatchService, shiftService)
	customerHandler := handler.NewCustomerHandler(accountService)
	streamHandler := handler.NewStreamHandler(dispatchService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:     rideHandler,
		DriverHandler:   driverHandler,
		CustomerHandler: customerHandler,
		StreamHandler:   streamHandler,
		Tokens:          tokens,
		AdminToken:      cfg.Auth.AdminToken,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, shiftService
}
