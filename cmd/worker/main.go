// Package main runs the publish worker: received uploads are sent to YouTube.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/invisireel/backend/config"
	"github.com/invisireel/backend/internal/uploads"
	"github.com/invisireel/backend/internal/worker"
	"github.com/invisireel/backend/pkg/database"
	"github.com/invisireel/backend/pkg/queue"
	"github.com/invisireel/backend/pkg/redis"
	"github.com/invisireel/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	if rdb == nil {
		logger.Fatal("redis", zap.String("error", "REDIS_ADDR is required for the publish queue"))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		Bucket:               cfg.AWS.UploadsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	publisher, err := worker.NewYouTubePublisher(ctx, worker.YouTubeConfig{
		ClientSecretFile: cfg.YouTube.ClientSecretFile,
		TokenFile:        cfg.YouTube.TokenFile,
		PrivacyStatus:    cfg.YouTube.PrivacyStatus,
		CategoryID:       cfg.YouTube.CategoryID,
	})
	if err != nil {
		logger.Fatal("youtube", zap.Error(err))
	}

	jobQueue := queue.NewQueue(rdb.Raw(), logger)
	processor := worker.NewPublishProcessor(uploads.NewRepository(pool), s3Client, publisher, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("publish worker started", zap.String("privacy", cfg.YouTube.PrivacyStatus))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
