package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	_ "github.com/princekumarofficial/journal-service/docs"
	"github.com/princekumarofficial/journal-service/internal/cache"
	"github.com/princekumarofficial/journal-service/internal/config"
	"github.com/princekumarofficial/journal-service/internal/events"
	"github.com/princekumarofficial/journal-service/internal/http/router"
	"github.com/princekumarofficial/journal-service/internal/services/account"
	"github.com/princekumarofficial/journal-service/internal/services/feed"
	"github.com/princekumarofficial/journal-service/internal/services/journal"
	"github.com/princekumarofficial/journal-service/internal/services/media"
	"github.com/princekumarofficial/journal-service/internal/session"
	"github.com/princekumarofficial/journal-service/internal/storage/driver"
	"github.com/princekumarofficial/journal-service/internal/streak"
	"github.com/princekumarofficial/journal-service/internal/websocket"
)

// @title Journal Service API
// @version 1.0
// @description Daily journal entries with posting streaks, a public feed, likes and comments.
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config
	cfg := config.MustLoad()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// database setup
	store, err := driver.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer store.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis", slog.String("addr", cfg.Redis.Addr))

	var mediaService *media.Service
	if cfg.MinIO.Enabled() {
		mediaService, err = media.NewService(ctx, cfg)
		if err != nil {
			log.Fatal("Failed to initialize media service:", err)
		}
		slog.Info("Media uploads enabled", slog.String("bucket", cfg.MinIO.BucketName))
	} else {
		slog.Info("Media uploads disabled, no MinIO endpoint configured")
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	streaks := streak.NewEngine(streak.NewRedisCounter(redisClient), cfg.Streak.MinInterval, cfg.Streak.Window)
	sessions := session.NewRegistry(redisClient)
	feedCache := cache.NewFeedCache(redisClient)

	handler := router.New(router.Deps{
		Config:   cfg,
		Redis:    redisClient,
		Store:    store,
		Sessions: sessions,
		Accounts: account.NewService(store, sessions, streaks, feedCache, mediaService, cfg.JWT),
		Journal:  journal.NewService(store, streaks, feedCache, mediaService),
		Feed:     feed.NewService(store, feedCache, events.NewEventPublisher(hub)),
		Media:    mediaService,
		Hub:      hub,
	})

	server := http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	slog.Info("server started", slog.String("address", cfg.HTTPServer.Address), slog.String("storage", cfg.Storage.Driver))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
	}
	cancel()

	slog.Info("Server stopped")
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
