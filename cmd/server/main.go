// Package main is the entry point for the Melodia API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"melodia/internal/config"
	"melodia/internal/domain/access"
	"melodia/internal/domain/auth"
	"melodia/internal/domain/catalogs/playlist"
	"melodia/internal/domain/catalogs/singer"
	"melodia/internal/domain/catalogs/song"
	"melodia/internal/domain/catalogs/topic"
	"melodia/internal/domain/orders"
	"melodia/internal/domain/users"
	v1 "melodia/internal/infrastructure/http/v1"
	"melodia/internal/infrastructure/storage/object"
	"melodia/internal/infrastructure/storage/postgres"
	"melodia/internal/infrastructure/storage/postgres/auth_repo"
	"melodia/internal/infrastructure/storage/postgres/catalog_repo"
	"melodia/internal/infrastructure/storage/postgres/order_repo"
	redisstore "melodia/internal/infrastructure/storage/redis"
	"melodia/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting melodia server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Redis (OTP store) ---
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	defer rdb.Close()
	log.Info("redis connection established")

	// --- Object host (media) ---
	mediaStore, err := object.NewMinioStore(object.Config{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		Bucket:    cfg.Minio.Bucket,
		UseSSL:    cfg.Minio.UseSSL,
	})
	if err != nil {
		log.Fatalw("failed to configure object storage", "error", err)
	}
	if err := mediaStore.EnsureBucket(ctx); err != nil {
		log.Fatalw("failed to prepare media bucket", "error", err)
	}

	// --- Repositories ---
	userRepo := auth_repo.NewUserRepo(txManager)
	roleRepo := auth_repo.NewRoleRepo(txManager)
	permRepo := auth_repo.NewPermissionRepo(txManager)
	songRepo := catalog_repo.NewSongRepo(txManager)
	singerRepo := catalog_repo.NewSingerRepo(txManager)
	topicRepo := catalog_repo.NewTopicRepo(txManager)
	playlistRepo := catalog_repo.NewPlaylistRepo(txManager)
	orderRepo := order_repo.NewOrderRepo(txManager)

	// --- Token service ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	jwtConfig.AccessTokenTTL = cfg.JWT.AccessTokenTTL
	jwtConfig.RefreshTokenTTL = cfg.JWT.RefreshTokenTTL
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Services ---
	authService := auth.NewService(userRepo, txManager, jwtService)

	otpStore := redisstore.NewOTPStore(rdb)
	resetNotifier := postgres.NewOutboxPublisher(txManager)
	resetService := auth.NewPasswordResetService(userRepo, otpStore, resetNotifier, txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	accessService := access.NewService(roleRepo, permRepo, auditService, txManager)

	topicService := topic.NewService(topicRepo, txManager)
	singerService := singer.NewService(singerRepo, txManager)
	songService := song.NewService(songRepo, topicService, singerService, txManager)
	playlistService := playlist.NewService(playlistRepo, songService, txManager)
	orderService := orders.NewService(orderRepo, txManager)

	usersService := users.NewService(
		userRepo,
		accessService,
		singerService,
		songService,
		playlistService,
		auditService,
		txManager,
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool,
		Redis:           rdb,
		Logger:          log,
		TokenVerifier:   jwtService,
		RoleResolver:    accessService,
		AuthService:     authService,
		ResetService:    resetService,
		UsersService:    usersService,
		AccessService:   accessService,
		SongService:     songService,
		SingerService:   singerService,
		TopicService:    topicService,
		PlaylistService: playlistService,
		OrderService:    orderService,
		MediaStore:      mediaStore,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
