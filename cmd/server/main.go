package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/commutelink/rideshare-backend/internal/config"
	"github.com/commutelink/rideshare-backend/internal/database"
	"github.com/commutelink/rideshare-backend/internal/devicestate"
	"github.com/commutelink/rideshare-backend/internal/events"
	"github.com/commutelink/rideshare-backend/internal/handlers"
	"github.com/commutelink/rideshare-backend/internal/middleware"
	"github.com/commutelink/rideshare-backend/internal/observability"
	"github.com/commutelink/rideshare-backend/internal/services"
	"github.com/commutelink/rideshare-backend/internal/stream"
	"github.com/commutelink/rideshare-backend/internal/ws"
	"github.com/commutelink/rideshare-backend/pkg/jwt"
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

	logger.Info("Starting CommuteLink Rideshare Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize device-scoped state store (watermarks, dismissals)
	logger.Info("Connecting to Redis...")
	stateStore := devicestate.NewStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.StateTTL)
	defer stateStore.Close()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := stateStore.Ping(ctx); err != nil {
			cancel()
			logger.Fatalf("Failed to ping Redis: %v", err)
		}
		cancel()
	}
	logger.Info("Redis connection established")

	// Initialize Kafka producer for the trip lifecycle stream
	producer := stream.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if producer != nil {
		defer producer.Close()
		logger.Infof("Kafka producer enabled on topic %s", cfg.Kafka.Topic)
	} else {
		logger.Info("Kafka producer disabled (no brokers configured)")
	}

	// Initialize repositories
	tripRepo := database.NewTripRepository(db)
	userRepo := database.NewUserRepository(db)
	notifRepo := database.NewNotificationRepository(db)
	chatRepo := database.NewChatRepository(db)
	annRepo := database.NewAnnouncementRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	bus := events.NewBus()

	tripService := services.NewTripService(tripRepo, userRepo, notifRepo, chatRepo, bus, producer, logger)
	feedService := services.NewFeedService(tripRepo, bus, logger)
	chatService := services.NewChatService(chatRepo, tripRepo, stateStore, bus, logger)
	notifService := services.NewNotificationService(notifRepo, logger)
	annService := services.NewAnnouncementService(annRepo, stateStore, cfg.Admin.TokenHash, logger)

	// Start the feed clock so expired trips drop out of views on time
	feedService.Start()

	// Initialize and start cron service
	cronService := services.NewCronService(tripRepo, chatRepo)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	// Initialize websocket hub
	hub := ws.NewHub(bus, logger)
	hub.Run()

	logger.Info("Services initialized")

	// Initialize handlers
	tripHandler := handlers.NewTripHandler(tripService)
	feedHandler := handlers.NewFeedHandler(feedService)
	chatHandler := handlers.NewChatHandler(chatService)
	notifHandler := handlers.NewNotificationHandler(notifService)
	annHandler := handlers.NewAnnouncementHandler(annService)
	userHandler := handlers.NewUserHandler(userRepo)
	wsHandler := handlers.NewWSHandler(hub, jwtService)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check and metrics endpoints
	router.GET("/health", healthCheckHandler(db, stateStore))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Live event stream (token auth via query parameter)
	router.GET("/ws", wsHandler.Connect)

	// API v1 routes (all protected)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(jwtService))
	{
		// Trip routes
		trips := v1.Group("/trips")
		{
			trips.POST("", tripHandler.CreateTrip)
			trips.GET("/feed", feedHandler.GetFeed)
			trips.GET("/mine", tripHandler.ListMine)
			trips.GET("/:id", tripHandler.GetTrip)
			trips.PUT("/:id", tripHandler.UpdateTrip)
			trips.DELETE("/:id", tripHandler.CancelTrip)
			trips.POST("/:id/close-toggle", tripHandler.ToggleClosed)

			// Passenger reconciliation
			trips.POST("/:id/join", tripHandler.RequestToJoin)
			trips.POST("/:id/approve", tripHandler.ApprovePassenger)
			trips.POST("/:id/reject", tripHandler.RejectPassenger)
			trips.POST("/:id/remove", tripHandler.RemovePassenger)
			trips.POST("/:id/leave", tripHandler.LeaveTrip)
			trips.POST("/:id/invite", tripHandler.InvitePassenger)
			trips.POST("/:id/invitation/accept", tripHandler.AcceptInvitation)
			trips.POST("/:id/invitation/reject", tripHandler.RejectInvitation)

			// Chat
			trips.GET("/:id/messages", chatHandler.ListMessages)
			trips.POST("/:id/messages", chatHandler.SendMessage)
			trips.POST("/:id/read", chatHandler.MarkRead)
			trips.GET("/:id/unread", chatHandler.UnreadCount)
		}

		// Profile sync (snapshot source for passenger entries)
		users := v1.Group("/users")
		{
			users.GET("/me", userHandler.GetProfile)
			users.PUT("/me", userHandler.SyncProfile)
		}

		// Notification inbox
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notifHandler.List)
			notifications.GET("/unread-count", notifHandler.UnreadCount)
			notifications.POST("/:id/read", notifHandler.MarkRead)
			notifications.POST("/read-all", notifHandler.MarkAllRead)
			notifications.DELETE("/:id", notifHandler.Delete)
			notifications.DELETE("", notifHandler.DeleteAll)
		}

		// Announcements
		announcements := v1.Group("/announcements")
		{
			announcements.GET("", annHandler.List)
			announcements.POST("/:id/dismiss", annHandler.Dismiss)
		}

		// Admin broadcast routes (shared token, checked in the service)
		admin := v1.Group("/admin")
		{
			admin.POST("/announcements", annHandler.Create)
			admin.DELETE("/announcements/:id", annHandler.Deactivate)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
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

	// Stop background workers before draining connections
	cronService.Stop()
	feedService.Stop()
	hub.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging and measuring HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// Record metrics against the route template, not the raw path,
		// to keep label cardinality bounded
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		statusLabel := strconv.Itoa(status)
		observability.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, statusLabel).Inc()
		observability.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, statusLabel).Observe(latency.Seconds())

		fields := logrus.Fields{
			"status":     status,
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else if status >= 500 {
			entry.Error("Request completed with server error")
		} else if status >= 400 {
			entry.Warn("Request completed with client error")
		} else {
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB, state *devicestate.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		// Check Redis connection
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		redisStatus := "healthy"
		if err := state.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"redis":     redisStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
