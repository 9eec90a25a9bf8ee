package data

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/redis"
)

const hotRankingKey = "file:hot"

type hotRanker struct {
	client *redis.Client
}

// NewHotRanker tracks file access frequency in a redis sorted set
func NewHotRanker(client *redis.Client) biz.HotRanker {
	return &hotRanker{client: client}
}

func (h *hotRanker) Incr(ctx context.Context, fileID string) error {
	_, err := h.client.ZIncrBy(ctx, hotRankingKey, 1, fileID)
	return err
}

func (h *hotRanker) TopN(ctx context.Context, n int64) ([]biz.HotEntry, error) {
	members, err := h.client.ZRevRangeWithScores(ctx, hotRankingKey, 0, n-1)
	if err != nil {
		return nil, err
	}

	entries := make([]biz.HotEntry, 0, len(members))
	for _, m := range members {
		id, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, biz.HotEntry{FileID: id, Score: m.Score})
	}
	return entries, nil
}

func (h *hotRanker) Score(ctx context.Context, fileID string) (float64, bool, error) {
	score, err := h.client.ZScore(ctx, hotRankingKey, fileID)
	if err != nil {
		if redis.IsNil(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return score, true, nil
}

// Rescale multiplies every score by factor, removing entries that fall
// below min. Scores are rewritten in place member by member.
func (h *hotRanker) Rescale(ctx context.Context, factor, min float64) (int64, error) {
	members, err := h.client.ZRangeWithScores(ctx, hotRankingKey, 0, -1)
	if err != nil {
		return 0, err
	}

	var removed int64
	var keep []goredis.Z
	var drop []interface{}
	for _, m := range members {
		scaled := m.Score * factor
		if scaled < min {
			drop = append(drop, m.Member)
			removed++
			continue
		}
		keep = append(keep, goredis.Z{Score: scaled, Member: m.Member})
	}

	if len(keep) > 0 {
		if _, err := h.client.ZAdd(ctx, hotRankingKey, keep...); err != nil {
			return 0, err
		}
	}
	if len(drop) > 0 {
		if _, err := h.client.ZRem(ctx, hotRankingKey, drop...); err != nil {
			return 0, err
		}
	}
	return removed, nil
}

// TrimBeyond caps the set at limit, dropping the lowest scores first
func (h *hotRanker) TrimBeyond(ctx context.Context, limit int64) (int64, error) {
	count, err := h.client.ZCard(ctx, hotRankingKey)
	if err != nil {
		return 0, err
	}
	if count <= limit {
		return 0, nil
	}
	return h.client.ZRemRangeByRank(ctx, hotRankingKey, 0, count-limit-1)
}

func (h *hotRanker) Remove(ctx context.Context, fileID string) error {
	_, err := h.client.ZRem(ctx, hotRankingKey, fileID)
	return err
}

func (h *hotRanker) Count(ctx context.Context) (int64, error) {
	return h.client.ZCard(ctx, hotRankingKey)
}
