package data

import (
	"context"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/redis"
)

type streamBus struct {
	client *redis.Client
	stream string
}

// NewStreamBus publishes file events onto a redis stream
func NewStreamBus(client *redis.Client, stream string) biz.MessageBus {
	return &streamBus{client: client, stream: stream}
}

func (b *streamBus) Publish(ctx context.Context, event *biz.FileEvent) error {
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	_, err = b.client.XAdd(ctx, b.stream, map[string]interface{}{
		"event_id": event.EventID,
		"type":     event.Type,
		"file_id":  event.FileID,
		"payload":  payload,
	})
	return err
}
