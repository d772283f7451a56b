package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/websocket"
	"backend/internal/workflow"
	"context"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Request Management API
// @version         1.0
// @description     Equipment and vehicle request management with multi-stage approval workflows.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	logger.Info("Connected to PostgreSQL successfully")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	notifier := websocket.NewHubNotifier(wsHub, logger)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	itemRequestRepo := repository.NewItemRequestRepository(db)
	vehicleRequestRepo := repository.NewVehicleRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	// The workflow engine reads definitions through the workflow repository
	// and resolves approvers through the user repository.
	engine := workflow.NewEngine(workflowRepo, userRepo, logger)

	userService := service.NewUserService(userRepo, refreshTokenRepo, middleware.GetJWTSecret())
	departmentService := service.NewDepartmentService(departmentRepo)
	workflowService := service.NewWorkflowService(workflowRepo, vehicleRequestRepo, userRepo, auditRepo, txManager, logger)
	itemRequestService := service.NewItemRequestService(itemRequestRepo, userRepo, auditRepo, txManager, engine, notifier, logger)
	vehicleRequestService := service.NewVehicleRequestService(vehicleRequestRepo, userRepo, auditRepo, txManager, engine, notifier, logger)
	auditService := service.NewAuditService(db)
	statisticsService := service.NewStatisticsService(statisticsRepo)
	roleService := service.NewRoleService(db)

	// Permission middleware needs direct DB access for role -> permission lookups
	middleware.InitPermissionMiddleware(db)

	// Seed default roles and permissions on startup
	if err := roleService.SeedDefaultRolesAndPermissions(context.Background()); err != nil {
		logger.Warn("Failed to seed default roles and permissions", zap.Error(err))
	}

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	departmentHandler := handler.NewDepartmentHandler(departmentService)
	workflowHandler := handler.NewWorkflowHandler(workflowService)
	itemRequestHandler := handler.NewItemRequestHandler(itemRequestService)
	vehicleRequestHandler := handler.NewVehicleRequestHandler(vehicleRequestService)
	auditHandler := handler.NewAuditHandler(auditService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)
	roleHandler := handler.NewRoleHandler(roleService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	departmentHandler.RegisterRoutes(router.Group(""))
	workflowHandler.RegisterRoutes(router.Group(""))
	itemRequestHandler.RegisterRoutes(router.Group(""))
	vehicleRequestHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("Server listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("GIN_MODE") == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
