package biz

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	apperrors "github.com/skypan-cloud/skypan-backend/internal/pkg/errors"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
)

// LocalCache is the in-process metadata tier
type LocalCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) bool
	Del(key string)
	Metrics() (hits, misses uint64)
}

// SharedCache is the cross-instance metadata tier
type SharedCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// HotRanker tracks per-file access scores
type HotRanker interface {
	Incr(ctx context.Context, fileID string) error
	TopN(ctx context.Context, n int64) ([]HotEntry, error)
	Score(ctx context.Context, fileID string) (float64, bool, error)
	// Rescale multiplies every score by factor and drops entries that
	// fall below min
	Rescale(ctx context.Context, factor, min float64) (int64, error)
	TrimBeyond(ctx context.Context, limit int64) (int64, error)
	Remove(ctx context.Context, fileID string) error
	Count(ctx context.Context) (int64, error)
}

// HotEntry is one file in the hot ranking
type HotEntry struct {
	FileID string  `json:"file_id"`
	Score  float64 `json:"score"`
}

// NodeLoader loads file metadata from the source of truth
type NodeLoader interface {
	GetByID(ctx context.Context, id string) (*models.FileNode, error)
}

// CacheStats reports cache effectiveness
type CacheStats struct {
	L1Hits     uint64 `json:"l1_hits"`
	L1Misses   uint64 `json:"l1_misses"`
	HotEntries int64  `json:"hot_entries"`
}

// CacheUseCase layers file metadata reads: local tier, shared tier,
// then the database. Each miss backfills the tiers above it. All
// mutations go through Invalidate so readers never see stale rows for
// longer than one round trip.
type CacheUseCase struct {
	local    LocalCache
	shared   SharedCache
	ranker   HotRanker
	loader   NodeLoader
	l2TTL    time.Duration
	hotLimit int64
	log      *logger.Logger
}

// NewCacheUseCase creates the cache use case
func NewCacheUseCase(local LocalCache, shared SharedCache, ranker HotRanker, loader NodeLoader, l2TTL time.Duration, hotLimit int64, log *logger.Logger) *CacheUseCase {
	if l2TTL <= 0 {
		l2TTL = 30 * time.Minute
	}
	if hotLimit <= 0 {
		hotLimit = 1000
	}
	return &CacheUseCase{
		local:    local,
		shared:   shared,
		ranker:   ranker,
		loader:   loader,
		l2TTL:    l2TTL,
		hotLimit: hotLimit,
		log:      log,
	}
}

func metaKey(fileID string) string {
	return "file:meta:" + fileID
}

// GetMeta returns file metadata, reading through the cache tiers
func (uc *CacheUseCase) GetMeta(ctx context.Context, fileID string) (*models.FileNode, error) {
	key := metaKey(fileID)

	if raw, ok := uc.local.Get(key); ok {
		var node models.FileNode
		if err := json.Unmarshal(raw, &node); err == nil {
			return &node, nil
		}
		uc.local.Del(key)
	}

	if raw, ok, err := uc.shared.Get(ctx, key); err == nil && ok {
		var node models.FileNode
		if err := json.Unmarshal([]byte(raw), &node); err == nil {
			uc.local.Set(key, []byte(raw))
			return &node, nil
		}
	} else if err != nil {
		uc.log.Warn("shared cache read failed", zap.String("file_id", fileID), zap.Error(err))
	}

	node, err := uc.loader.GetByID(ctx, fileID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFileNotFound, fileID)
	}

	if raw, err := json.Marshal(node); err == nil {
		uc.local.Set(key, raw)
		if err := uc.shared.Set(ctx, key, string(raw), uc.l2TTL); err != nil {
			uc.log.Warn("shared cache backfill failed", zap.String("file_id", fileID), zap.Error(err))
		}
	}
	return node, nil
}

// Invalidate evicts a file's metadata from both tiers. Called on every
// mutation before readers can observe the new row.
func (uc *CacheUseCase) Invalidate(ctx context.Context, fileID string) {
	key := metaKey(fileID)
	uc.local.Del(key)
	if err := uc.shared.Del(ctx, key); err != nil {
		uc.log.Warn("shared cache invalidation failed", zap.String("file_id", fileID), zap.Error(err))
	}
}

// RecordAccess bumps the file's hot score
func (uc *CacheUseCase) RecordAccess(ctx context.Context, fileID string) {
	if err := uc.ranker.Incr(ctx, fileID); err != nil {
		uc.log.Warn("hot score update failed", zap.String("file_id", fileID), zap.Error(err))
	}
}

// TopHot lists the n hottest files. Entries whose node is gone or
// trashed are dropped and removed from the ranking, so the list never
// names files a caller cannot reach.
func (uc *CacheUseCase) TopHot(ctx context.Context, n int64) ([]HotEntry, error) {
	if n <= 0 || n > uc.hotLimit {
		n = uc.hotLimit
	}
	entries, err := uc.ranker.TopN(ctx, uc.hotLimit)
	if err != nil {
		return nil, err
	}

	out := make([]HotEntry, 0, n)
	for _, entry := range entries {
		if int64(len(out)) == n {
			break
		}
		node, err := uc.loader.GetByID(ctx, entry.FileID)
		if err != nil || node.InTrash {
			uc.Forget(ctx, entry.FileID)
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// Decay halves every hot score and drops entries that cooled below one
// full access. Run daily so yesterday's traffic fades.
func (uc *CacheUseCase) Decay(ctx context.Context) error {
	removed, err := uc.ranker.Rescale(ctx, 0.5, 1)
	if err != nil {
		return err
	}
	uc.log.Info("hot scores decayed", zap.Int64("removed", removed))
	return nil
}

// Trim caps the ranking at the configured size, dropping the coldest
// entries first
func (uc *CacheUseCase) Trim(ctx context.Context) error {
	removed, err := uc.ranker.TrimBeyond(ctx, uc.hotLimit)
	if err != nil {
		return err
	}
	if removed > 0 {
		uc.log.Info("hot ranking trimmed", zap.Int64("removed", removed))
	}
	return nil
}

// Forget removes a purged file from the ranking
func (uc *CacheUseCase) Forget(ctx context.Context, fileID string) {
	if err := uc.ranker.Remove(ctx, fileID); err != nil {
		uc.log.Warn("hot score removal failed", zap.String("file_id", fileID), zap.Error(err))
	}
}

// Stats reports cache effectiveness counters
func (uc *CacheUseCase) Stats(ctx context.Context) (*CacheStats, error) {
	hits, misses := uc.local.Metrics()
	count, err := uc.ranker.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &CacheStats{
		L1Hits:     hits,
		L1Misses:   misses,
		HotEntries: count,
	}, nil
}
