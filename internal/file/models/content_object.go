package models

import (
	"time"
)

// Content object status
const (
	ContentStatusActive  = "ACTIVE"
	ContentStatusDeleted = "DELETED"
)

// ContentObject is a deduplicated physical blob, addressed by content hash.
// Logical files referencing the same bytes share one row and one stored
// object; RefCount tracks how many references exist.
type ContentObject struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Hash        string    `gorm:"column:hash;size:64;not null;uniqueIndex:uk_content_hash" json:"hash"`
	Size        int64     `gorm:"column:size;not null" json:"size"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	StoragePath string    `gorm:"column:storage_path;not null" json:"storage_path"`
	RefCount    int64     `gorm:"column:ref_count;not null;default:1" json:"ref_count"`
	Status      string    `gorm:"column:status;size:16;not null;default:ACTIVE" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name
func (ContentObject) TableName() string {
	return "content_objects"
}
