package biz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
)

// backoffSchedule spaces out redelivery attempts. Attempts beyond the
// table reuse the last interval.
var backoffSchedule = [...]time.Duration{
	10 * time.Second,
	30 * time.Second,
	60 * time.Second,
	120 * time.Second,
	300 * time.Second,
}

// backoffFor returns the delay before the next attempt, given how many
// attempts have already been made
func backoffFor(attempts int) time.Duration {
	idx := attempts - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(backoffSchedule) {
		idx = len(backoffSchedule) - 1
	}
	return backoffSchedule[idx]
}

// OutboxRepo persists events whose delivery failed
type OutboxRepo interface {
	Create(ctx context.Context, msg *models.OutboxMessage) error
	// ClaimDue atomically flips due PENDING rows to PROCESSING and
	// returns the claimed batch; concurrent sweepers never claim the
	// same row twice
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.OutboxMessage, error)
	MarkSuccess(ctx context.Context, id string) error
	MarkRetry(ctx context.Context, id string, attempts int, nextRetryAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, id string, attempts int, lastError string) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// PublisherUseCase delivers file events with at-least-once semantics.
// Delivery is attempted inline first; only failures are persisted for
// the background sweep to retry.
type PublisherUseCase struct {
	repo        OutboxRepo
	bus         MessageBus
	maxAttempts int
	log         *logger.Logger
}

// NewPublisherUseCase creates the publisher use case
func NewPublisherUseCase(repo OutboxRepo, bus MessageBus, maxAttempts int, log *logger.Logger) *PublisherUseCase {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &PublisherUseCase{
		repo:        repo,
		bus:         bus,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// Publish attempts inline delivery; on failure the event is parked in
// the outbox, due immediately. The inline attempt does not count
// against the retry budget: the sweep gets the full maxAttempts.
func (uc *PublisherUseCase) Publish(ctx context.Context, event *FileEvent) error {
	err := uc.bus.Publish(ctx, event)
	if err == nil {
		return nil
	}

	uc.log.Warn("inline event delivery failed, parking in outbox",
		zap.String("event_id", event.EventID),
		zap.String("type", event.Type),
		zap.Error(err),
	)

	payload, perr := event.Encode()
	if perr != nil {
		return perr
	}
	now := time.Now()
	msg := &models.OutboxMessage{
		ID:          uuid.New().String(),
		EventType:   event.Type,
		FileID:      event.FileID,
		Payload:     payload,
		Status:      models.OutboxStatusPending,
		NextRetryAt: &now,
		LastError:   err.Error(),
	}
	return uc.repo.Create(ctx, msg)
}

// RetryPending claims one batch of due messages and redelivers them.
// Returns how many were delivered.
func (uc *PublisherUseCase) RetryPending(ctx context.Context, batchSize int) (int, error) {
	claimed, err := uc.repo.ClaimDue(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, err
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	delivered := 0
	for _, msg := range claimed {
		event, err := DecodeFileEvent(msg.Payload)
		if err != nil {
			// Corrupt payload can never deliver
			uc.log.Error("undecodable outbox payload", zap.String("id", msg.ID), zap.Error(err))
			if merr := uc.repo.MarkFailed(ctx, msg.ID, msg.Attempts, "undecodable payload: "+err.Error()); merr != nil {
				uc.log.Error("failed to mark outbox message", zap.String("id", msg.ID), zap.Error(merr))
			}
			continue
		}

		if err := uc.bus.Publish(ctx, event); err == nil {
			delivered++
			if merr := uc.repo.MarkSuccess(ctx, msg.ID); merr != nil {
				uc.log.Error("failed to mark outbox message delivered", zap.String("id", msg.ID), zap.Error(merr))
			}
			continue
		} else if attempts := msg.Attempts + 1; attempts >= uc.maxAttempts {
			uc.log.Error("event delivery exhausted",
				zap.String("id", msg.ID),
				zap.Int("attempts", attempts),
				zap.Error(err),
			)
			if merr := uc.repo.MarkFailed(ctx, msg.ID, attempts, err.Error()); merr != nil {
				uc.log.Error("failed to mark outbox message failed", zap.String("id", msg.ID), zap.Error(merr))
			}
		} else {
			next := time.Now().Add(backoffFor(attempts))
			if merr := uc.repo.MarkRetry(ctx, msg.ID, attempts, next, err.Error()); merr != nil {
				uc.log.Error("failed to reschedule outbox message", zap.String("id", msg.ID), zap.Error(merr))
			}
		}
	}

	uc.log.Info("outbox sweep finished",
		zap.Int("claimed", len(claimed)),
		zap.Int("delivered", delivered),
	)
	return delivered, nil
}

// Stats reports outbox row counts by status
func (uc *PublisherUseCase) Stats(ctx context.Context) (map[string]int64, error) {
	return uc.repo.CountByStatus(ctx)
}
