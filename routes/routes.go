// File: /routes/routes.go
package routes

import (
	"net/http"
	"time"

	"campus-events-api/config"
	"campus-events-api/controllers"
	"campus-events-api/middleware"
	"campus-events-api/models"
	"campus-events-api/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services groups everything the HTTP layer depends on.
type Services struct {
	Auth          *services.AuthService
	Users         *services.UserService
	Activities    *services.ActivityService
	Registrations *services.RegistrationService
	Media         *services.MediaService
}

func SetupCORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func SetupRoutes(r *gin.Engine, cfg *config.Config, svc Services) {
	authController := controllers.NewAuthController(svc.Auth)
	userController := controllers.NewUserController(svc.Users)
	eventController := controllers.NewEventController(svc.Activities)
	registrationController := controllers.NewRegistrationController(svc.Registrations)
	mediaController := controllers.NewMediaController(svc.Media)

	requireAuth := middleware.AuthMiddleware(svc.Auth)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	auth := r.Group("/auth")
	auth.Use(middleware.RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst))
	{
		auth.POST("/signup", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/forgot-password", authController.ForgotPassword)
		auth.POST("/reset-password", authController.ResetPassword)
		auth.POST("/google", authController.GoogleLogin)

		auth.GET("/me", requireAuth, authController.Me)
		auth.POST("/change-password", requireAuth, authController.ChangePassword)
	}

	events := r.Group("/events")
	{
		events.GET("", eventController.GetEvents)
		events.GET("/find/:id", eventController.GetEvent)
		events.GET("/user/:userId", eventController.GetUserEvents)
		events.GET("/search", eventController.SearchEvents)

		protected := events.Group("")
		protected.Use(requireAuth)
		protected.POST("/new", eventController.CreateEvent)
		protected.PUT("/update/:id", eventController.UpdateEvent)
		protected.DELETE("/remove/:id", eventController.DeleteEvent)
		protected.PUT("/archive/:id", eventController.ArchiveEvent())
		protected.PUT("/unarchive/:id", eventController.UnarchiveEvent())
		protected.PUT("/hide/:id", eventController.HideEvent())
		protected.PUT("/unhide/:id", eventController.UnhideEvent())
		protected.PUT("/:id/cover-image", eventController.UpdateCoverImage)
		protected.POST("/:id/attendees", eventController.AddAttendee)
		protected.DELETE("/:id/attendees/:index", eventController.RemoveAttendee)
	}

	registrations := r.Group("/event-registration")
	registrations.Use(requireAuth)
	{
		registrations.POST("/register", registrationController.Register)
		registrations.POST("/attend", registrationController.Attend)
		registrations.GET("/event/:activityId", registrationController.GetByActivity)
		registrations.GET("/user/:userId", registrationController.GetByUser)
		registrations.GET("/user/:userId/events", registrationController.GetUserEvents)
		registrations.GET("/attendees/:activityId", registrationController.GetAttendees)
		registrations.DELETE("/unregister/:id", registrationController.Unregister)
		registrations.DELETE("/unregister/event/:activityId", registrationController.UnregisterFromEvent)
		registrations.PATCH("/attendance/:id", registrationController.MarkAttendance)
		registrations.GET("/stats/:activityId", registrationController.GetStats)
	}

	users := r.Group("/users")
	users.Use(requireAuth)
	{
		users.GET("", userController.GetUsers)
		users.GET("/search", userController.SearchUsers)
		users.GET("/:id", userController.GetUser)
		users.PUT("/:id", userController.UpdateUser)
		users.PUT("/:id/role", adminOnly, userController.UpdateRole)
		users.DELETE("/:id", userController.DeleteUser)
	}

	media := r.Group("/media")
	{
		media.GET("/*key", mediaController.GetMedia)
		media.DELETE("/*key", requireAuth, adminOnly, mediaController.DeleteMedia)
	}
}
