// @title        Chat API
// @version      1.0
// @description  Accounts, direct messages and live presence.
// @BasePath     /
//
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        jwt
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirpyerre/chat-system/internal/api"
	"github.com/sirpyerre/chat-system/internal/core/service"
	"github.com/sirpyerre/chat-system/internal/infrastructure/db/mongo"
	"github.com/sirpyerre/chat-system/internal/infrastructure/db/redis"
	"github.com/sirpyerre/chat-system/internal/infrastructure/http/handlers"
	"github.com/sirpyerre/chat-system/internal/infrastructure/media"
	"github.com/sirpyerre/chat-system/internal/infrastructure/queue"
	"github.com/sirpyerre/chat-system/internal/pkg/config"
	"github.com/sirpyerre/chat-system/internal/realtime"
	"github.com/sirpyerre/chat-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "chat-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongo.NewUserRepository(db, cfg.Mongo.Timeout)
	messages := mongo.NewMessageRepository(db, cfg.Mongo.Timeout)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure user indexes")
	}
	if err := messages.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure message indexes")
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}()

	mediaCfg := media.Config{
		Bucket:    cfg.Media.Bucket,
		Region:    cfg.Media.Region,
		Endpoint:  cfg.Media.Endpoint,
		AccessKey: cfg.Media.AccessKey,
		SecretKey: cfg.Media.SecretKey,
		PublicURL: cfg.Media.PublicURL,
	}
	s3Client, err := media.NewS3Client(ctx, mediaCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("s3 client")
	}
	uploader := media.NewS3Uploader(s3Client, mediaCfg, logger.Component("media"))

	// --- Core ---
	hub := realtime.NewHub(logger.Component("hub"))

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher := queue.NewDispatcher(cfg.DeliveryWorkers, hub, logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)

	authService := service.NewAuthService(
		users,
		uploader,
		redis.NewRevocationList(rdb),
		cfg.JWTSecret,
		cfg.TokenTTL,
		logger.Component("auth"),
	)
	messageService := service.NewMessageService(users, messages, uploader, dispatcher, logger.Component("messages"))

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Auth:     authService,
		Messages: messageService,
		Hub:      hub,
		Readiness: []handlers.NamedCheck{
			{Name: "mongodb", Check: func(ctx context.Context) error { return mongo.Ping(ctx, db) }},
			{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  !cfg.IsDevelopment(),
		Log:            logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	// Hijacked live connections are not drained by the HTTP server.
	hub.Shutdown()
	cancelWorkers()

	log.Info().Msg("shutdown complete")
}
