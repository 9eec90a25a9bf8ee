package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Client wraps the MinIO client with logging and lifecycle management
type Client struct {
	client *minio.Client
	config *Config
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewClient creates a new MinIO client and verifies connectivity
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid minio config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mc, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, WrapError("connect", err, "", "")
	}

	c := &Client{
		client: mc,
		config: config,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.ensureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info("minio client connected",
		zap.String("endpoint", config.Endpoint),
		zap.String("bucket", config.Bucket),
	)
	return c, nil
}

// ensureBucket creates the configured bucket when it does not exist yet
func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return WrapError("bucket_exists", err, c.config.Bucket, "")
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, c.config.Bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		return WrapError("make_bucket", err, c.config.Bucket, "")
	}
	c.logger.Info("minio bucket created", zap.String("bucket", c.config.Bucket))
	return nil
}

// Bucket returns the configured default bucket
func (c *Client) Bucket() string {
	return c.config.Bucket
}

// Ping verifies the connection is still usable
func (c *Client) Ping(ctx context.Context) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	_, err := c.client.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return WrapError("ping", err, c.config.Bucket, "")
	}
	return nil
}

// Close marks the client as closed
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Client) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return fmt.Errorf("minio: client is closed")
	}
	return nil
}
