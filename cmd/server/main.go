package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cretedrive/rental-booking-backend/internal/cache"
	"github.com/cretedrive/rental-booking-backend/internal/config"
	"github.com/cretedrive/rental-booking-backend/internal/database"
	"github.com/cretedrive/rental-booking-backend/internal/handlers"
	"github.com/cretedrive/rental-booking-backend/internal/metrics"
	"github.com/cretedrive/rental-booking-backend/internal/middleware"
	"github.com/cretedrive/rental-booking-backend/internal/queue"
	"github.com/cretedrive/rental-booking-backend/internal/services"
	"github.com/cretedrive/rental-booking-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting rental booking backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// File store: primary without a database, degraded-read snapshot with one
	fileStore, err := database.NewFileBookingStore(cfg.Server.DataDir)
	if err != nil {
		logger.Fatalf("Failed to open file booking store: %v", err)
	}
	logger.WithField("path", fileStore.Path()).Info("File booking store ready")

	var (
		db           *database.PostgresDB
		bookingStore services.BookingStore = fileStore
		eventStore   services.PaymentEventStore
		staffStore   services.StaffUserStore = services.NewMemoryStaffStore()
		fallback     services.BookingReader
		snapshot     *services.SnapshotService
	)

	if cfg.Database.URL != "" {
		logger.Info("Connecting to database...")
		db, err = database.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(startupCtx); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database connection established")

		bookingRepo := database.NewBookingRepository(db.DB, logger)
		bookingStore = bookingRepo
		eventStore = database.NewPaymentEventRepository(db.DB, logger)
		staffStore = database.NewStaffUserRepository(db.DB)
		fallback = fileStore
		snapshot = services.NewSnapshotService(bookingRepo, fileStore, logger)
	} else {
		logger.Warn("DATABASE_URL not set, bookings are kept in the file store only")
	}

	// Optional infrastructure
	redisClient, err := cache.NewRedisClient(startupCtx, cfg.Redis)
	switch {
	case err != nil:
		logger.WithError(err).Warn("Redis unavailable, booking cache disabled")
	case redisClient != nil:
		defer redisClient.Close()
		logger.Info("✓ Redis booking cache enabled")
	}
	bookingCache := cache.NewBookingCache(redisClient, cfg.Redis.CacheTTL)

	publisher := queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)
	if publisher.Enabled() {
		defer publisher.Close()
		logger.WithField("queue", cfg.RabbitMQ.Queue).Info("✓ Status events published to RabbitMQ")
	}

	m := metrics.NewMetrics("rental")

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	referenceService := services.NewReferenceService(bookingStore, cfg.Booking.ReferencePrefix)
	bookingService := services.NewBookingService(
		bookingStore,
		referenceService,
		bookingCache,
		publisher,
		m,
		cfg.Booking,
		cfg.Stripe.Currency,
		logger,
	)
	stripeService := services.NewStripeService(&cfg.Stripe, logger)
	if !stripeService.IsConfigured() {
		logger.Warn("STRIPE_SECRET_KEY not set, checkout sessions will fail")
	}
	checkoutService := services.NewCheckoutService(bookingService, bookingStore, stripeService, m, cfg.Stripe.Currency, logger)
	reconciler := services.NewWebhookReconciler(bookingStore, eventStore, bookingService, m, logger)
	adminService := services.NewAdminService(bookingStore, fallback, eventStore, m, logger)
	adminAuthService := services.NewAdminAuthService(staffStore, jwtService, logger)

	if err := adminAuthService.EnsureBootstrapAdmin(startupCtx, cfg.Admin); err != nil {
		logger.Fatalf("Failed to ensure bootstrap admin: %v", err)
	}

	if snapshot != nil {
		if count, err := snapshot.Run(startupCtx); err != nil {
			logger.WithError(err).Warn("Startup snapshot failed")
		} else {
			logger.WithField("bookings", count).Info("Startup snapshot written")
		}
	}

	cronService := services.NewCronService(snapshot, bookingService, cfg.Booking, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("✓ Cron service started")

	// Initialize handlers
	var healthTarget handlers.Pinger
	if db != nil {
		healthTarget = db
	}
	healthHandler := handlers.NewHealthHandler(healthTarget, version)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, logger)
	webhookHandler := handlers.NewWebhookHandler(stripeService, reconciler, logger)
	adminHandler := handlers.NewAdminHandler(adminService, bookingService, snapshot, cronService, logger)
	adminAuthHandler := handlers.NewAdminAuthHandler(adminAuthService, logger)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 1 && cfg.CORS.AllowedOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api")
	{
		api.GET("/locations", bookingHandler.ListLocations)
		api.POST("/checkout", checkoutHandler.CreateSession)
		api.POST("/webhooks", webhookHandler.HandleStripe)

		bookings := api.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.POST("/quote", bookingHandler.Quote)
			bookings.GET("/:reference", bookingHandler.GetBooking)
		}

		api.POST("/admin/auth/login", adminAuthHandler.Login)

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService, logger))
		admin.Use(middleware.RequireRole("staff", "admin"))
		{
			admin.GET("/auth/me", adminAuthHandler.GetProfile)
			admin.GET("/bookings", adminHandler.ListBookings)
			admin.POST("/bookings", adminHandler.CreateBooking)
			admin.GET("/bookings/:reference", adminHandler.GetBooking)
			admin.GET("/bookings/:reference/events", adminHandler.ListEvents)
			admin.PATCH("/bookings/:reference/status", adminHandler.UpdateStatus)
			admin.GET("/stats", adminHandler.Stats)
			admin.POST("/snapshot", adminHandler.TriggerSnapshot)
			admin.GET("/cron/status", adminHandler.CronStatus)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
			"has_auth":   c.GetHeader("Authorization") != "",
		}
		if staff, ok := middleware.GetStaffContext(c); ok {
			fields["staff_id"] = staff.StaffID
			fields["roles"] = staff.Roles
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}
