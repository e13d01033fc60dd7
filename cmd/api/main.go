package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/petermazzocco/go-messenger/internal/auth"
	"github.com/petermazzocco/go-messenger/internal/blob"
	"github.com/petermazzocco/go-messenger/internal/config"
	"github.com/petermazzocco/go-messenger/internal/handlers"
	"github.com/petermazzocco/go-messenger/internal/logging"
	"github.com/petermazzocco/go-messenger/internal/messenger"
	"github.com/petermazzocco/go-messenger/internal/metrics"
	"github.com/petermazzocco/go-messenger/internal/store"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.DevLogging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection
	db, err := store.Open(cfg.DSN, logging.Gorm(logger))
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Attachment payloads stay in postgres unless a bucket is configured
	var blobs store.Blobs
	if cfg.S3.Enabled() {
		s3, err := blob.NewS3(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("failed to configure object storage", zap.Error(err))
		}
		blobs = s3
		logger.Info("attachment payloads go to object storage", zap.String("bucket", cfg.S3.Bucket))
	}

	userStore := store.NewUsers(db)
	chatStore := store.NewChats(db)
	messageStore := store.NewMessages(db)
	attachmentStore := store.NewAttachments(db, blobs)

	users := messenger.NewUsers(userStore, attachmentStore, cfg.Limits, logger)

	metrics.Init()
	router := handlers.NewRouter(handlers.Deps{
		Users:       users,
		Chats:       messenger.NewChats(chatStore, userStore, attachmentStore, cfg.Limits, logger),
		Messages:    messenger.NewMessages(messageStore, chatStore, userStore, attachmentStore, cfg.Limits, logger),
		Attachments: messenger.NewAttachments(attachmentStore, userStore, chatStore, messageStore, cfg.Limits, logger),
		Sessions:    auth.NewSessions(cfg.SessionSecret, cfg.SessionMaxAge, cfg.SecureCookies, users),
		Log:         logger,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting API server", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
