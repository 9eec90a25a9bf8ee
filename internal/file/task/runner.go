package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/workerpool"
)

// taskLockTTL bounds how long a crashed instance can starve a sweep
const taskLockTTL = 10 * time.Minute

// Locker serializes a sweep across instances. Lock returns a token on
// acquisition and an error when another holder has the key.
type Locker interface {
	Lock(ctx context.Context, key string, expiration time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

// Config holds the schedules for background maintenance
type Config struct {
	OutboxSweepInterval  time.Duration // redelivery sweep
	OutboxBatchSize      int
	HotMaintInterval     time.Duration // score decay and trim
	SessionSweepInterval time.Duration // stale upload session expiry
	TrashSweepInterval   time.Duration // trash retention
	TrashRetention       time.Duration
}

// DefaultConfig returns the default schedules
func DefaultConfig() *Config {
	return &Config{
		OutboxSweepInterval:  30 * time.Second,
		OutboxBatchSize:      100,
		HotMaintInterval:     24 * time.Hour,
		SessionSweepInterval: time.Hour,
		TrashSweepInterval:   24 * time.Hour,
		TrashRetention:       30 * 24 * time.Hour,
	}
}

// Runner drives the periodic maintenance loops: outbox redelivery, hot
// score decay, stale session expiry, and trash retention
type Runner struct {
	config    *Config
	publisher *biz.PublisherUseCase
	uploads   *biz.UploadUseCase
	nodes     *biz.NodeUseCase
	cache     *biz.CacheUseCase
	pool      *workerpool.Pool
	locker    Locker
	log       *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates the task runner
func NewRunner(
	config *Config,
	publisher *biz.PublisherUseCase,
	uploads *biz.UploadUseCase,
	nodes *biz.NodeUseCase,
	cache *biz.CacheUseCase,
	pool *workerpool.Pool,
	locker Locker,
	log *logger.Logger,
) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Runner{
		config:    config,
		publisher: publisher,
		uploads:   uploads,
		nodes:     nodes,
		cache:     cache,
		pool:      pool,
		locker:    locker,
		log:       log,
	}
}

// Start launches all maintenance loops
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.loop(ctx, "outbox_sweep", r.config.OutboxSweepInterval, r.sweepOutbox)
	r.loop(ctx, "hot_maintenance", r.config.HotMaintInterval, r.maintainHotRanking)
	r.loop(ctx, "session_expiry", r.config.SessionSweepInterval, r.expireSessions)
	r.loop(ctx, "trash_retention", r.config.TrashSweepInterval, r.cleanTrash)

	r.log.Info("background tasks started")
}

// Stop halts the loops and waits for in-flight runs
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.log.Info("background tasks stopped")
}

func (r *Runner) loop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.pool.Submit(func() error {
					return r.runExclusive(ctx, name, fn)
				}); err != nil {
					r.log.Warn("failed to schedule task", zap.String("task", name), zap.Error(err))
				}
			}
		}
	}()
}

// runExclusive runs one sweep under a cross-instance lock, so a fleet
// of servers performs each sweep once per tick. A busy lock means
// another instance got there first.
func (r *Runner) runExclusive(ctx context.Context, name string, fn func(context.Context) error) error {
	if r.locker == nil {
		return fn(ctx)
	}

	key := "file:task:" + name
	token, err := r.locker.Lock(ctx, key, taskLockTTL)
	if err != nil {
		r.log.Debug("task lock busy, skipping run", zap.String("task", name))
		return nil
	}
	defer func() {
		if err := r.locker.Unlock(ctx, key, token); err != nil {
			r.log.Warn("failed to release task lock", zap.String("task", name), zap.Error(err))
		}
	}()
	return fn(ctx)
}

func (r *Runner) sweepOutbox(ctx context.Context) error {
	_, err := r.publisher.RetryPending(ctx, r.config.OutboxBatchSize)
	if err != nil {
		r.log.Error("outbox sweep failed", zap.Error(err))
	}
	return err
}

func (r *Runner) maintainHotRanking(ctx context.Context) error {
	if err := r.cache.Decay(ctx); err != nil {
		r.log.Error("hot score decay failed", zap.Error(err))
		return err
	}
	if err := r.cache.Trim(ctx); err != nil {
		r.log.Error("hot ranking trim failed", zap.Error(err))
		return err
	}
	return nil
}

func (r *Runner) expireSessions(ctx context.Context) error {
	_, err := r.uploads.CleanupExpired(ctx)
	if err != nil {
		r.log.Error("session expiry failed", zap.Error(err))
	}
	return err
}

func (r *Runner) cleanTrash(ctx context.Context) error {
	cutoff := time.Now().Add(-r.config.TrashRetention)
	purged, err := r.nodes.PurgeTrashedBefore(ctx, cutoff)
	if err != nil {
		r.log.Error("trash retention sweep failed", zap.Error(err))
		return err
	}
	if purged > 0 {
		r.log.Info("trash retention sweep purged nodes", zap.Int("count", purged))
	}
	return nil
}
