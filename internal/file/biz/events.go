package biz

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/skypan-cloud/skypan-backend/internal/file/models"
)

// Event types emitted on file mutations
const (
	EventFileCreate = "CREATE"
	EventFileUpdate = "UPDATE"
	EventFileDelete = "DELETE"
)

// FileEvent notifies downstream consumers (search indexing, audit)
// about a file mutation. It carries enough of the node to index it
// without a read back: placement, type, and content identity.
type FileEvent struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	FileID      string    `json:"file_id"`
	OwnerID     string    `json:"owner_id"`
	ParentID    *string   `json:"parent_id,omitempty"`
	Name        string    `json:"name"`
	Hash        string    `json:"hash,omitempty"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	IsFolder    bool      `json:"is_folder"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewFileEvent builds an event for a mutation on the given node
func NewFileEvent(eventType string, node *models.FileNode) *FileEvent {
	return &FileEvent{
		EventID:     uuid.New().String(),
		Type:        eventType,
		FileID:      node.ID,
		OwnerID:     node.OwnerID,
		ParentID:    node.ParentID,
		Name:        node.Name,
		Hash:        node.Hash,
		Size:        node.Size,
		ContentType: node.ContentType,
		IsFolder:    node.IsFolder,
		OccurredAt:  time.Now().UTC(),
	}
}

// Encode serializes the event payload
func (e *FileEvent) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeFileEvent deserializes an event payload
func DecodeFileEvent(payload string) (*FileEvent, error) {
	var e FileEvent
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// MessageBus delivers events to downstream consumers
type MessageBus interface {
	Publish(ctx context.Context, event *FileEvent) error
}
