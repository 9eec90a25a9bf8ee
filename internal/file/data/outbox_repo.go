package data

import (
	"context"
	"time"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/database"
)

type outboxRepo struct {
	db *database.DB
}

// NewOutboxRepo creates the outbox message repository
func NewOutboxRepo(db *database.DB) biz.OutboxRepo {
	return &outboxRepo{db: db}
}

func (r *outboxRepo) Create(ctx context.Context, msg *models.OutboxMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ClaimDue flips due PENDING rows to PROCESSING in one statement.
// SKIP LOCKED keeps concurrent sweepers from fighting over the same
// rows; the returned set is exactly what this sweeper owns.
func (r *outboxRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.OutboxMessage, error) {
	var claimed []*models.OutboxMessage
	err := r.db.WithContext(ctx).Raw(`
		UPDATE outbox_messages
		SET status = ?, updated_at = ?
		WHERE id IN (
			SELECT id FROM outbox_messages
			WHERE status = ? AND next_retry_at <= ?
			ORDER BY next_retry_at
			LIMIT ?
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`,
		models.OutboxStatusProcessing, now.UTC(),
		models.OutboxStatusPending, now.UTC(), limit,
	).Scan(&claimed).Error
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *outboxRepo) MarkSuccess(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"status":     models.OutboxStatusSuccess,
			"last_error": "",
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *outboxRepo) MarkRetry(ctx context.Context, id string, attempts int, nextRetryAt time.Time, lastError string) error {
	return r.db.WithContext(ctx).Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"status":        models.OutboxStatusPending,
			"attempts":      attempts,
			"next_retry_at": nextRetryAt.UTC(),
			"last_error":    lastError,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id string, attempts int, lastError string) error {
	return r.db.WithContext(ctx).Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"status":     models.OutboxStatusFailed,
			"attempts":   attempts,
			"last_error": lastError,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *outboxRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.OutboxMessage{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
