package app

import (
	"context"
	"fmt"

	"agroguide_backend/database"
	"agroguide_backend/internal/config"
	"agroguide_backend/internal/handlers"
	"agroguide_backend/internal/logger"
	"agroguide_backend/internal/middleware"
	"agroguide_backend/internal/repositories"
	"agroguide_backend/internal/routes"
	"agroguide_backend/internal/services"
	"agroguide_backend/internal/services/esewa"
	"agroguide_backend/internal/services/subscription"
	"agroguide_backend/internal/validator"
	"agroguide_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	ginRouter, serviceContainer := SetupRouter(cfg, gormDB)

	// Background expiry sweep. Correctness does not depend on it; reads
	// evaluate expiry themselves.
	worker := workers.NewSubscriptionWorker(serviceContainer.SubscriptionService)
	worker.Start(context.Background())

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter wires repositories, services, handlers and routes.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, *services.ServiceContainer) {
	serviceContainer := initializeServices(cfg, gormDB)
	appHandlers := initializeHandlers(serviceContainer)

	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	ginRouter.Use(middleware.RequestIDMiddleware())
	ginRouter.Use(middleware.LoggingMiddleware())

	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter, serviceContainer
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB) *services.ServiceContainer {
	intentRepo := repositories.NewPaymentIntentRepository(gormDB)
	userRepo := repositories.NewUserRepository(gormDB)

	signer := esewa.NewSignatureService(cfg.Esewa.SecretKey)
	gatewayClient := esewa.NewClient(cfg)

	subscriptionService := subscription.NewService(userRepo)
	paymentService := services.NewPaymentService(intentRepo, subscriptionService, gatewayClient, gatewayClient, signer)
	authService := services.NewAuthService(userRepo)

	return &services.ServiceContainer{
		AuthService:         authService,
		PaymentService:      paymentService,
		SubscriptionService: subscriptionService,
	}
}

func initializeHandlers(sc *services.ServiceContainer) *handlers.AppHandlers {
	base := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(base, sc.AuthService),
		PaymentHandler:      handlers.NewPaymentHandler(base, sc.PaymentService),
		SubscriptionHandler: handlers.NewSubscriptionHandler(base, sc.SubscriptionService),
	}
}
