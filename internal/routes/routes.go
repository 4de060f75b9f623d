// Package routes defines the API routing configuration. It wires
// repositories, services and handlers together and applies authentication,
// authorization and rate-limiting middleware per route group.
package routes

import (
	"time"

	"accord/internal/auth"
	"accord/internal/config"
	"accord/internal/handlers"
	"accord/internal/middleware"
	"accord/internal/models"
	"accord/internal/repositories"
	"accord/internal/services/account"
	"accord/internal/services/lockout"
	"accord/internal/services/notification"
	"accord/internal/services/ratelimit"
	"accord/internal/services/token"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	userRepo := repositories.NewUserRepository(db, repositories.CacheService)

	lockoutPolicy := lockout.NewPolicy(
		userRepo,
		config.GetIntEnv("MAX_LOGIN_ATTEMPTS", lockout.DefaultThreshold),
		config.GetDurationEnv("LOCKOUT_DURATION", lockout.DefaultLockDuration),
	)
	tokenLifecycle := token.NewLifecycle(config.GetDurationEnv("VERIFICATION_TOKEN_TTL", token.DefaultTTL))
	notifier := notification.NewService()
	accountService := account.NewService(userRepo, lockoutPolicy, tokenLifecycle, notifier)

	tokenIssuer := auth.NewTokenIssuer(
		config.GetEnv("JWT_SECRET", "accord-dev-secret"),
		"accord-api",
		config.GetDurationEnv("ACCESS_TOKEN_TTL", 30*time.Minute),
	)

	// Limiter instances are process-scoped and injected, never package
	// globals, so they can be swapped for a distributed implementation.
	authLimiter := ratelimit.NewLimiter(ratelimit.AuthConfig())
	registerLimiter := ratelimit.NewLimiter(ratelimit.RegistrationConfig())

	authHandler := handlers.NewAuthHandler(accountService, tokenIssuer)
	userHandler := handlers.NewUserHandler(accountService)
	adminHandler := handlers.NewAdminHandler(accountService)

	app.Get("/health", handlers.Health)

	// Public endpoints, rate limited
	app.Post("/register/", middleware.RateLimit(registerLimiter), userHandler.Register)
	app.Post("/login/", middleware.RateLimit(authLimiter), authHandler.Login)
	app.Get("/verify-email/:id/:token", middleware.RateLimit(authLimiter), authHandler.VerifyEmail)
	app.Post("/request-verification-email/", middleware.RateLimit(authLimiter), authHandler.RequestVerificationEmail)

	authMiddleware := middleware.NewAuthMiddleware(tokenIssuer)

	// Self-service profile endpoints
	profile := app.Group("/profile", authMiddleware.Handler)
	profile.Get("/", middleware.RequireCapability(models.CapabilityProfileRead), userHandler.GetProfile)
	profile.Put("/", middleware.RequireCapability(models.CapabilityProfileWrite), userHandler.UpdateProfile)
	profile.Post("/reset-password", middleware.RequireCapability(models.CapabilityChangePassword), userHandler.ResetPassword)

	// User management
	users := app.Group("/users", authMiddleware.Handler)
	users.Get("/", middleware.RequireCapability(models.CapabilityUsersManage), adminHandler.ListUsers)
	users.Get("/:id", middleware.RequireCapability(models.CapabilityUsersManage), adminHandler.GetUser)
	users.Put("/:id", middleware.RequireCapability(models.CapabilityUsersManage), adminHandler.UpdateUser)
	users.Delete("/:id", middleware.RequireCapability(models.CapabilityUsersManage), adminHandler.DeleteUser)
	users.Put("/:id/professional-status", middleware.RequireCapability(models.CapabilityStatusManage), adminHandler.UpdateProfessionalStatus)
	users.Put("/:id/unlock", middleware.RequireCapability(models.CapabilityUsersUnlock), adminHandler.UnlockUser)
}
