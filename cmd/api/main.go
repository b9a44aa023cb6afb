package main

import (
	_ "invoicer/api/swagger" // swagger docs
	"invoicer/internal/analytics"
	"invoicer/internal/config"
	"invoicer/internal/database"
	"invoicer/internal/handler"
	"invoicer/internal/metrics"
	"invoicer/internal/middleware"
	"invoicer/internal/repository"
	"invoicer/internal/service"
	"invoicer/internal/websocket"
	"invoicer/pkg/logger"
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Invoice Insights API
// @version         1.0
// @description     Invoice management with payment predictions, client risk scoring, anomaly detection and client segmentation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	metrics.Init()
	gin.SetMode(cfg.Server.GinMode)

	db, err := database.NewConnection(database.DSN(cfg.Database))
	if err != nil {
		logger.Fatal("Database connection failed", zap.Error(err))
	}
	logger.Info("Connected to PostgreSQL successfully",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name),
	)

	jwtSecret := []byte(cfg.Auth.JWTSecret)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	engine := analytics.NewEngine(analytics.Options{
		Seed: cfg.Analytics.Seed,
	})

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)

	userService := service.NewUserService(userRepo, auditRepo, txManager, jwtSecret)
	invoiceService := service.NewInvoiceService(invoiceRepo, auditRepo, txManager, wsHub, cfg.Invoice.VATRate)
	insightsService := service.NewInsightsService(invoiceRepo, engine)
	statisticsService := service.NewStatisticsService(invoiceRepo, statsRepo)
	revenueService := service.NewRevenueService(revenueRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	insightsHandler := handler.NewInsightsHandler(insightsService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService, revenueService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})
	router.GET("/metrics", metrics.MetricsHandler())

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, jwtSecret)
	})

	// API Routing
	public := router.Group("")
	protected := router.Group("", middleware.RequireAuth(jwtSecret))

	userHandler.RegisterRoutes(public, protected)
	invoiceHandler.RegisterRoutes(protected)
	insightsHandler.RegisterRoutes(protected)
	statisticsHandler.RegisterRoutes(protected)
	auditHandler.RegisterRoutes(protected)

	logger.Info("Server listening", zap.String("port", cfg.Server.Port), zap.String("mode", cfg.Server.GinMode))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
