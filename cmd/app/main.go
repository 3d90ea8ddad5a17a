package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "stockai-backend/docs"
	"stockai-backend/internal/common/cache"
	"stockai-backend/internal/common/config"
	"stockai-backend/internal/common/logger"
	"stockai-backend/internal/common/middleware"
	authHttp "stockai-backend/internal/features/auth/delivery/http"
	authmw "stockai-backend/internal/features/auth/middleware"
	authRepository "stockai-backend/internal/features/auth/repository"
	authRepo "stockai-backend/internal/features/auth/repository/postgres"
	authService "stockai-backend/internal/features/auth/service"
	paymentHttp "stockai-backend/internal/features/payments/delivery/http"
	orderRepository "stockai-backend/internal/features/payments/repository"
	orderRepo "stockai-backend/internal/features/payments/repository/postgres"
	paymentService "stockai-backend/internal/features/payments/service"
	userRepository "stockai-backend/internal/features/user/repository"
	userRepo "stockai-backend/internal/features/user/repository/postgres"
	userService "stockai-backend/internal/features/user/service"
	"stockai-backend/internal/platform/postgres"
	"stockai-backend/internal/platform/razorpay"
	"stockai-backend/internal/platform/redis"
)

// @title           StockAI Payments API
// @version         1.0
// @description     Payment verification and entitlement backend for the StockAI paper-trading app. Session tokens are accepted via cookie, X-Session-Token header, Bearer token or query parameter.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey SessionToken
// @in header
// @name X-Session-Token
// @description Session token issued by POST /auth/login

// @tag.name auth
// @tag.description Email login, logout and the current-user snapshot

// @tag.name payments
// @tag.description Payment order creation, verification, access checks and reverts

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.Load()

	logger.Init("stockai-backend", cfg.Debug)

	logger.Info().
		Str("version", "1.0.0").
		Bool("debug", cfg.Debug).
		Bool("test_mode", cfg.TestMode).
		Msg("Starting StockAI backend")

	// Storage is optional. Without DATABASE_URL the server still runs:
	// local tokens only, permissive GET verification, no persisted orders.
	var postgresClient *postgres.Client
	var userRepos userRepository.UserRepository
	var sessionRepos authRepository.SessionRepository
	var orderRepos orderRepository.OrderRepository

	if cfg.DatabaseEnabled() {
		var err error
		postgresClient, err = postgres.NewClient(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer postgresClient.Close()

		if err := postgresClient.RunMigrations(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}

		userRepos = userRepo.NewPostgresRepository(postgresClient.GetDB())
		sessionRepos = authRepo.NewPostgresRepository(postgresClient.GetDB())
		orderRepos = orderRepo.NewPostgresRepository(postgresClient.GetDB())

		logger.Info().Msg("Database connection established")
	} else {
		logger.Warn().Msg("DATABASE_URL not configured, running without persistence")
	}

	// Redis is optional too; a nil cache service degrades to always-miss.
	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		var err error
		redisClient, err = redis.Open(cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info().Msg("Redis connection established")
		}
	}
	cacheService := cache.NewCacheService(redisClient)

	gateway := razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	if !cfg.GatewayConfigured() {
		logger.Warn().Msg("Razorpay credentials not configured, gateway lookups disabled")
	}

	userSvc := userService.NewUserService(userRepos)
	authSvc := authService.NewAuthService(sessionRepos, userSvc)
	paymentSvc := paymentService.NewPaymentService(gateway, orderRepos, userSvc, cacheService, cfg)

	logger.Info().Msg("Services initialized")

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Errors())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Session-Token"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	setupRoutes(router, cfg, authSvc, userSvc, paymentSvc, postgresClient, redisClient)

	logger.Info().Msg("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authSvc authService.AuthService,
	userSvc userService.UserService,
	paymentSvc paymentService.PaymentService,
	postgresClient *postgres.Client,
	redisClient *goredis.Client,
) {
	v1 := router.Group("/api/v1")
	v1.Use(authmw.Session(authSvc))
	{
		authHandler := authHttp.NewAuthHandler(authSvc, userSvc)
		authHandler.RegisterRoutes(v1)

		paymentHandler := paymentHttp.NewPaymentHandler(paymentSvc, userSvc, cfg.Server.Origin)
		paymentHandler.RegisterRoutes(v1)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "stockai-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if postgresClient != nil {
			if err := postgresClient.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "postgres unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "redis unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "stockai-backend",
		})
	})
}
