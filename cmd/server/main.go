package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/conf"
	"github.com/skypan-cloud/skypan-backend/internal/data"
	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	filedata "github.com/skypan-cloud/skypan-backend/internal/file/data"
	"github.com/skypan-cloud/skypan-backend/internal/file/service"
	"github.com/skypan-cloud/skypan-backend/internal/file/task"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
	"github.com/skypan-cloud/skypan-backend/internal/server"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("config loaded successfully")

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Repositories and infrastructure adapters
	contentRepo := filedata.NewContentRepo(d.DB)
	nodeRepo := filedata.NewNodeRepo(d.DB)
	versionRepo := filedata.NewVersionRepo(d.DB)
	sessionRepo := filedata.NewSessionRepo(d.DB)
	outboxRepo := filedata.NewOutboxRepo(d.DB)
	blobStore := filedata.NewBlobStore(d.MinIO)
	bus := filedata.NewStreamBus(d.Redis, config.Outbox.Stream)
	sharedCache := filedata.NewSharedCache(d.Redis)
	hotRanker := filedata.NewHotRanker(d.Redis)
	quota := filedata.NewQuotaClient(config.Quota.BaseURL, config.Quota.Timeout, config.Quota.Enabled, log)

	localCache, err := filedata.NewLocalCache(config.Cache.L1MaxEntries, config.Cache.L1MaxCost)
	if err != nil {
		log.Fatal("failed to create local cache", zap.Error(err))
	}

	// Use cases
	contentUseCase := biz.NewContentUseCase(contentRepo, blobStore, log)
	publisherUseCase := biz.NewPublisherUseCase(outboxRepo, bus, config.Outbox.MaxAttempts, log)
	cacheUseCase := biz.NewCacheUseCase(localCache, sharedCache, hotRanker, nodeRepo, config.Cache.L2TTL, config.Cache.HotLimit, log)
	versionUseCase := biz.NewVersionUseCase(versionRepo, contentUseCase, config.Version.MaxVersions, log)
	nodeUseCase := biz.NewNodeUseCase(nodeRepo, contentUseCase, versionUseCase, publisherUseCase, cacheUseCase, quota, log)
	uploadUseCase := biz.NewUploadUseCase(sessionRepo, blobStore, contentUseCase, nodeUseCase, quota,
		config.Upload.ChunkSize, config.Upload.SessionTTL, log)

	// Background maintenance
	runner := task.NewRunner(&task.Config{
		OutboxSweepInterval:  config.Outbox.SweepInterval,
		OutboxBatchSize:      config.Outbox.BatchSize,
		HotMaintInterval:     24 * time.Hour,
		SessionSweepInterval: time.Hour,
		TrashSweepInterval:   24 * time.Hour,
		TrashRetention:       time.Duration(config.Trash.RetentionDays) * 24 * time.Hour,
	}, publisherUseCase, uploadUseCase, nodeUseCase, cacheUseCase, d.Pool, d.Redis, log)
	runner.Start()
	defer runner.Stop()

	// HTTP services
	fileService := service.NewFileService(nodeUseCase, versionUseCase, log)
	uploadService := service.NewUploadService(uploadUseCase, log)
	adminService := service.NewAdminService(contentUseCase, cacheUseCase, publisherUseCase, log)

	httpServer := server.NewHTTPServer(config, log.Logger, fileService, uploadService, adminService)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
