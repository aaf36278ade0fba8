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

	"github.com/numtrip/numtrip-backend/internal/config"
	"github.com/numtrip/numtrip-backend/internal/database"
	"github.com/numtrip/numtrip-backend/internal/handlers"
	"github.com/numtrip/numtrip-backend/internal/middleware"
	"github.com/numtrip/numtrip-backend/internal/services"
	"github.com/numtrip/numtrip-backend/pkg/jwt"
	"github.com/numtrip/numtrip-backend/pkg/notify"
	"github.com/numtrip/numtrip-backend/pkg/places"
	"github.com/numtrip/numtrip-backend/pkg/validator"
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

	logger.Info("Starting NumTrip Backend")
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

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize repositories
	businessRepo := database.NewBusinessRepository(db)
	claimRepo := database.NewClaimRepository(db)
	promoRepo := database.NewPromoCodeRepository(db)
	validationRepo := database.NewValidationRepository(db)
	adminRepo := database.NewAdminUserRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	contactValidator := validator.NewContactValidator()
	auditService := services.NewAuditService(db, cfg.Security.EnableAuditLog)
	rateLimitService := services.NewRateLimitService(db, services.RateLimitConfig{
		MaxUserRequests: cfg.Claim.RateLimit,
		UserWindow:      time.Duration(cfg.Claim.RateWindowMinutes) * time.Minute,
		MaxIPRequests:   cfg.Claim.RateLimit * 4,
		IPWindow:        time.Duration(cfg.Claim.RateWindowMinutes) * time.Minute,
	})

	// Initialize email notifier
	var notifier notify.Notifier
	if cfg.Email.Mode == "production" {
		logger.Info("Initializing email gateway in production mode...")
		notifier = notify.NewEmailGateway(notify.EmailConfig{
			APIURL: cfg.Email.APIURL,
			APIKey: cfg.Email.APIKey,
			From:   cfg.Email.From,
		})
	} else {
		logger.Info("Email gateway in development mode (codes are logged, not sent)")
		notifier = notify.NewDevNotifier(logger)
	}

	claimService := services.NewClaimService(
		db,
		claimRepo,
		businessRepo,
		notifier,
		auditService,
		logger,
		cfg.Claim.CodeLength,
		cfg.Claim.CodeTTL,
	)
	adminAuthService := services.NewAdminAuthService(adminRepo, jwtService, cfg.Security.BcryptCost)

	placesClient := places.NewClient(cfg.Places.APIKey, cfg.Places.BaseURL)
	dedupService := services.NewDedupService(businessRepo)
	importService := services.NewImportService(placesClient, dedupService, businessRepo, logger)

	logger.Info("Services initialized")

	// Initialize handlers
	claimHandler := handlers.NewClaimHandler(claimService, rateLimitService, auditService, contactValidator, logger)
	businessHandler := handlers.NewBusinessHandler(businessRepo, validationRepo, promoRepo, logger)
	promoHandler := handlers.NewPromoCodeHandler(promoRepo, businessRepo, logger)
	adminAuthHandler := handlers.NewAdminAuthHandler(adminAuthService, logger)
	adminHandler := handlers.NewAdminHandler(claimService, importService, claimRepo, businessRepo, logger)

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

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Business directory routes (public reads)
		businesses := v1.Group("/businesses")
		{
			businesses.GET("", businessHandler.ListBusinesses)
			businesses.GET("/:id", businessHandler.GetBusiness)
			businesses.GET("/:id/promo-codes", businessHandler.ListPromoCodes)

			// Protected routes (require JWT authentication)
			businessesProtected := businesses.Group("")
			businessesProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				businessesProtected.POST("/:id/claim", claimHandler.StartClaim)
				businessesProtected.POST("/:id/validations", businessHandler.CreateValidation)
				businessesProtected.POST("/:id/promo-codes", promoHandler.CreatePromoCode)
				businessesProtected.PUT("/:id/promo-codes/:promoId", promoHandler.UpdatePromoCode)
			}
		}

		// Claim routes
		claims := v1.Group("/claims")
		{
			// Code verification is public: the code itself proves control
			// of the business contact channel.
			claims.POST("/:id/verify", claimHandler.VerifyClaim)

			claimsProtected := claims.Group("")
			claimsProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				claimsProtected.GET("", claimHandler.GetUserClaims)
				claimsProtected.GET("/:id", claimHandler.GetClaim)
				claimsProtected.POST("/:id/resend", claimHandler.ResendCode)
			}
		}

		// User routes (protected)
		user := v1.Group("/user")
		user.Use(middleware.AuthMiddleware(jwtService))
		{
			user.GET("/businesses", claimHandler.GetUserBusinesses)
		}

		// Admin authentication routes (public)
		adminAuth := v1.Group("/auth/admin")
		{
			adminAuth.POST("/login", adminAuthHandler.Login)
			adminAuth.POST("/refresh", adminAuthHandler.Refresh)
		}

		// Admin routes (require admin role)
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/claims", adminHandler.ListClaims)
			admin.POST("/claims/:id/action", adminHandler.ActionClaim)
			admin.GET("/dashboard", adminHandler.GetDashboardStats)
			admin.POST("/import", adminHandler.TriggerImport)
			admin.DELETE("/promo-codes/:id", promoHandler.DeactivatePromoCode)
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

	// Graceful shutdown with timeout
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

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userID, exists := c.Get(middleware.ContextUserID); exists {
			fields["user_id"] = userID
		}
		if roles, exists := c.Get(middleware.ContextRoles); exists {
			fields["roles"] = roles
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
