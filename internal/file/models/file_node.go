package models

import (
	"time"
)

// FileNode is a logical entry in a user's file tree. Folders have no
// content; files point at a ContentObject through ContentID and Hash.
type FileNode struct {
	ID          string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID     string     `gorm:"column:owner_id;type:uuid;not null;index:idx_node_owner_parent,priority:1" json:"owner_id"`
	ParentID    *string    `gorm:"column:parent_id;type:uuid;index:idx_node_owner_parent,priority:2" json:"parent_id"`
	Name        string     `gorm:"column:name;size:255;not null" json:"name"`
	IsFolder    bool       `gorm:"column:is_folder;not null;default:false" json:"is_folder"`
	ContentID   *string    `gorm:"column:content_id;type:uuid;index" json:"content_id"`
	Hash        string     `gorm:"column:hash;size:64;index" json:"hash"`
	Size        int64      `gorm:"column:size;not null;default:0" json:"size"`
	ContentType string     `gorm:"column:content_type" json:"content_type"`
	Version     int        `gorm:"column:version;not null;default:1" json:"version"`
	InTrash     bool       `gorm:"column:in_trash;not null;default:false;index" json:"in_trash"`
	TrashedAt   *time.Time `gorm:"column:trashed_at" json:"trashed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name
func (FileNode) TableName() string {
	return "file_nodes"
}
