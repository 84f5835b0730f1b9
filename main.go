// File: /main.go
package main

import (
	"context"
	"log"
	"time"

	"campus-events-api/config"
	"campus-events-api/database"
	"campus-events-api/middleware"
	"campus-events-api/repositories"
	"campus-events-api/routes"
	"campus-events-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"
)

func main() {
	cfg := config.Load()

	gin.SetMode(cfg.GinMode)
	logLevel := logger.Info
	if gin.Mode() == gin.ReleaseMode {
		logLevel = logger.Warn
	}

	db, err := database.Initialize(cfg.DBDriver, cfg.DatabaseURL, logLevel)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	if cfg.SeedData {
		if err := database.SeedData(db, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
			log.Printf("Warning: Failed to seed database: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := services.NewMinioStore(ctx, cfg.Storage)
	cancel()
	if err != nil {
		log.Fatal("Failed to initialize object storage:", err)
	}

	userRepo := repositories.NewUserRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	registrationRepo := repositories.NewRegistrationRepository(db)

	emailService := services.NewEmailService(cfg)
	mediaService := services.NewMediaService(store, cfg.Storage.PublicURL)
	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(userRepo, userService, emailService, services.AuthOptions{
		JWTSecret:          cfg.JWTSecret,
		TokenTTL:           cfg.JWTExpiry,
		BcryptCost:         cfg.BcryptCost,
		FrontendURL:        cfg.FrontendURL,
		GoogleClientID:     cfg.GoogleClientID,
		GoogleTokenInfoURL: cfg.GoogleTokenInfoURL,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(routes.SetupCORS(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())

	// Uploads are capped at 5 MiB; leave room for the other form fields.
	router.MaxMultipartMemory = 8 << 20

	routes.SetupRoutes(router, cfg, routes.Services{
		Auth:          authService,
		Users:         userService,
		Activities:    services.NewActivityService(activityRepo, mediaService),
		Registrations: services.NewRegistrationService(registrationRepo, activityRepo, emailService),
		Media:         mediaService,
	})

	log.Printf("Starting Campus Events API server on port %s", cfg.Port)
	log.Printf("Health check available at: http://localhost:%s/ping", cfg.Port)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
