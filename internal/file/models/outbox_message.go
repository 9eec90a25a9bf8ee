package models

import (
	"time"
)

// Outbox message status
const (
	OutboxStatusPending    = "PENDING"
	OutboxStatusProcessing = "PROCESSING"
	OutboxStatusSuccess    = "SUCCESS"
	OutboxStatusFailed     = "FAILED"
)

// OutboxMessage is a domain event whose first delivery attempt failed.
// Rows are swept periodically and redelivered with backoff until they
// succeed or exhaust their attempts.
type OutboxMessage struct {
	ID          string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EventType   string     `gorm:"column:event_type;size:32;not null" json:"event_type"`
	FileID      string     `gorm:"column:file_id;type:uuid;not null;index" json:"file_id"`
	Payload     string     `gorm:"column:payload;type:text;not null" json:"payload"`
	Status      string     `gorm:"column:status;size:16;not null;default:PENDING;index:idx_outbox_status_retry,priority:1" json:"status"`
	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at;index:idx_outbox_status_retry,priority:2" json:"next_retry_at"`
	LastError   string     `gorm:"column:last_error;size:1024" json:"last_error"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name
func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
