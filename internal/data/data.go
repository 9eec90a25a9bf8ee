package data

import (
	"fmt"

	"github.com/skypan-cloud/skypan-backend/internal/conf"
	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/database"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/minio"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/redis"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/workerpool"
)

// Data bundles the shared infrastructure clients
type Data struct {
	DB     *database.DB
	Redis  *redis.Client
	MinIO  *minio.Client
	Pool   *workerpool.Pool
	Logger *logger.Logger
}

// NewData initializes all infrastructure clients and returns a cleanup func
func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	if config.Database.AutoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	redisClient, err := redis.New(&config.Redis, log)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	minioClient, err := minio.NewClient(&config.MinIO, log.Logger)
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, nil, fmt.Errorf("failed to init minio: %w", err)
	}

	pool, err := workerpool.New(&workerpool.Config{Workers: config.Worker.Workers}, log.Logger)
	if err != nil {
		minioClient.Close()
		redisClient.Close()
		db.Close()
		return nil, nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	d := &Data{
		DB:     db,
		Redis:  redisClient,
		MinIO:  minioClient,
		Pool:   pool,
		Logger: log,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")
		pool.Shutdown()
		minioClient.Close()
		redisClient.Close()
		db.Close()
	}

	return d, cleanup, nil
}
