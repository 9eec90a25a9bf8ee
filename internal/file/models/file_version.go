package models

import (
	"time"
)

// FileVersion is one historical revision of a file. Each version holds
// its own reference on the content object it points at, so old bytes
// survive until the version is pruned.
type FileVersion struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FileID    string    `gorm:"column:file_id;type:uuid;not null;uniqueIndex:uk_version_file_no,priority:1" json:"file_id"`
	VersionNo int       `gorm:"column:version_no;not null;uniqueIndex:uk_version_file_no,priority:2" json:"version_no"`
	ContentID string    `gorm:"column:content_id;type:uuid;not null" json:"content_id"`
	Hash      string    `gorm:"column:hash;size:64;not null" json:"hash"`
	Size      int64     `gorm:"column:size;not null" json:"size"`
	Comment   string    `gorm:"column:comment;size:512" json:"comment"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name
func (FileVersion) TableName() string {
	return "file_versions"
}
