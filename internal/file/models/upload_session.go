package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Upload session status
const (
	SessionStatusActive    = "ACTIVE"
	SessionStatusCompleted = "COMPLETED"
	SessionStatusCancelled = "CANCELLED"
)

// UploadSession tracks one resumable chunked upload. The set of already
// received chunk indexes is persisted so an interrupted client can ask
// which chunks are still missing and send only those.
type UploadSession struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID     string    `gorm:"column:owner_id;type:uuid;not null;index:idx_session_owner_hash,priority:1" json:"owner_id"`
	Hash        string    `gorm:"column:hash;size:64;not null;index:idx_session_owner_hash,priority:2" json:"hash"`
	FileName    string    `gorm:"column:file_name;size:255;not null" json:"file_name"`
	FolderID    *string   `gorm:"column:folder_id;type:uuid" json:"folder_id"`
	TotalSize   int64     `gorm:"column:total_size;not null" json:"total_size"`
	ChunkSize   int64     `gorm:"column:chunk_size;not null" json:"chunk_size"`
	TotalChunks int       `gorm:"column:total_chunks;not null" json:"total_chunks"`
	Received    string    `gorm:"column:received;type:text" json:"-"`
	Status      string    `gorm:"column:status;size:16;not null;default:ACTIVE;index" json:"status"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	CreatedAt   time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

// TableName specifies the table name
func (UploadSession) TableName() string {
	return "upload_sessions"
}

// ReceivedChunks parses the persisted chunk index set
func (s *UploadSession) ReceivedChunks() []int {
	if s.Received == "" {
		return nil
	}
	parts := strings.Split(s.Received, ",")
	chunks := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err == nil {
			chunks = append(chunks, n)
		}
	}
	sort.Ints(chunks)
	return chunks
}

// HasChunk reports whether the given chunk index was already received
func (s *UploadSession) HasChunk(index int) bool {
	for _, c := range s.ReceivedChunks() {
		if c == index {
			return true
		}
	}
	return false
}

// AddChunk records a received chunk index; duplicates are ignored
func (s *UploadSession) AddChunk(index int) {
	if s.HasChunk(index) {
		return
	}
	chunks := append(s.ReceivedChunks(), index)
	sort.Ints(chunks)
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = strconv.Itoa(c)
	}
	s.Received = strings.Join(parts, ",")
}

// MissingChunks returns the chunk indexes not yet received, in order
func (s *UploadSession) MissingChunks() []int {
	have := make(map[int]bool, s.TotalChunks)
	for _, c := range s.ReceivedChunks() {
		have[c] = true
	}
	missing := make([]int, 0)
	for i := 0; i < s.TotalChunks; i++ {
		if !have[i] {
			missing = append(missing, i)
		}
	}
	return missing
}

// IsComplete reports whether every chunk has been received
func (s *UploadSession) IsComplete() bool {
	return len(s.ReceivedChunks()) == s.TotalChunks
}
