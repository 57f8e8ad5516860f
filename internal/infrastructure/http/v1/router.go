// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"melodia/internal/domain/access"
	"melodia/internal/domain/auth"
	"melodia/internal/domain/catalogs/playlist"
	"melodia/internal/domain/catalogs/singer"
	"melodia/internal/domain/catalogs/song"
	"melodia/internal/domain/catalogs/topic"
	"melodia/internal/domain/media"
	"melodia/internal/domain/orders"
	"melodia/internal/domain/users"
	"melodia/internal/infrastructure/http/v1/handlers"
	"melodia/internal/infrastructure/http/v1/middleware"
	"melodia/internal/infrastructure/storage/postgres"
	"melodia/pkg/logger"
)

// RouterConfig holds everything the HTTP layer needs wired in.
type RouterConfig struct {
	// Pool is the database connection (for health checks)
	Pool *postgres.Pool

	// Redis backs the OTP store; optional, health checks skip it when nil
	Redis *redis.Client

	// Logger for request logging
	Logger *logger.Logger

	// TokenVerifier validates access tokens
	TokenVerifier middleware.TokenVerifier

	// RoleResolver resolves roles with permissions on every guarded request
	RoleResolver middleware.RoleResolver

	AuthService     *auth.Service
	ResetService    *auth.PasswordResetService
	UsersService    *users.Service
	AccessService   *access.Service
	SongService     *song.Service
	SingerService   *singer.Service
	TopicService    *topic.Service
	PlaylistService *playlist.Service
	OrderService    *orders.Service
	MediaStore      media.Store
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints, no auth
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Redis)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	authHandler := handlers.NewAuthHandler(base, cfg.AuthService, cfg.ResetService)
	usersHandler := handlers.NewUsersHandler(base, cfg.UsersService)
	accessHandler := handlers.NewAccessHandler(base, cfg.AccessService)
	songsHandler := handlers.NewSongsHandler(base, cfg.SongService)
	singersHandler := handlers.NewSingersHandler(base, cfg.SingerService)
	topicsHandler := handlers.NewTopicsHandler(base, cfg.TopicService)
	playlistsHandler := handlers.NewPlaylistsHandler(base, cfg.PlaylistService)
	ordersHandler := handlers.NewOrdersHandler(base, cfg.OrderService)
	mediaHandler := handlers.NewMediaHandler(base, cfg.MediaStore)

	v1 := router.Group("/api/v1")
	{
		// Public: token lifecycle, password reset, self-registration
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/register", usersHandler.Register)
			authGroup.POST("/password-reset/request", authHandler.RequestPasswordReset)
			authGroup.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)
		}

		// Everything else: valid access token, then the role's permission set
		// is resolved live against the registered route pattern.
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.TokenVerifier))
		protected.Use(middleware.RequirePermission(cfg.RoleResolver))

		protected.POST("/auth/logout", authHandler.Logout)

		registerProfileRoutes(protected, usersHandler)
		registerCatalogRoutes(protected.Group("/topics"), topicsHandler)
		registerCatalogRoutes(protected.Group("/singers"), singersHandler)
		registerSongRoutes(protected, songsHandler)
		registerPlaylistRoutes(protected, playlistsHandler)
		registerOrderRoutes(protected, ordersHandler)
		registerMediaRoutes(protected, mediaHandler)
		registerAdminRoutes(protected, usersHandler, accessHandler, singersHandler, songsHandler, ordersHandler)
	}

	return router
}
