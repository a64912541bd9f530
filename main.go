package main

import (
	"log"

	"qbank/config"
	"qbank/handlers"
	"qbank/middleware"
	"qbank/models"
	"qbank/routes"
	"qbank/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize structured logging
	logger, err := config.InitLogger(cfg)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatalw("Failed to connect to database", "error", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Unit{},
		&models.Lesson{},
		&models.Question{},
		&models.Option{},
		&models.Activity{},
	)
	if err != nil {
		logger.Fatalw("Failed to migrate database", "error", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret)
	curriculumService := services.NewCurriculumService(db)
	questionService := services.NewQuestionService(db)
	activityService := services.NewActivityService(db, logger)
	storage := services.NewLocalStorage(cfg.StaticDir)
	cache := services.NewCache(redisClient, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	curriculumHandler := handlers.NewCurriculumHandler(curriculumService, activityService, cache, logger)
	questionHandler := handlers.NewQuestionHandler(questionService, curriculumService, activityService, storage, cache, logger)
	apiHandler := handlers.NewAPIHandler(questionService, curriculumService, activityService, cache, cfg.PublicBaseURL, logger)
	dashboardHandler := handlers.NewDashboardHandler(curriculumService, questionService, activityService, logger)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, curriculumHandler, questionHandler, apiHandler, dashboardHandler, cfg.JWTSecret, cfg.StaticDir)

	// Start server
	addr := cfg.BindAddress + ":" + cfg.Port
	logger.Infow("Server starting", "addr", addr)
	if err := router.Run(addr); err != nil {
		logger.Fatalw("Failed to start server", "error", err)
	}
}
