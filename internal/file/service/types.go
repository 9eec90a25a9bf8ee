package service

import (
	"time"

	"github.com/skypan-cloud/skypan-backend/internal/file/models"
)

// NodeResponse is the API shape of a file tree entry
type NodeResponse struct {
	ID          string     `json:"id"`
	ParentID    *string    `json:"parent_id"`
	Name        string     `json:"name"`
	IsFolder    bool       `json:"is_folder"`
	Hash        string     `json:"hash,omitempty"`
	Size        int64      `json:"size"`
	ContentType string     `json:"content_type,omitempty"`
	Version     int        `json:"version"`
	InTrash     bool       `json:"in_trash"`
	TrashedAt   *time.Time `json:"trashed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toNodeResponse(n *models.FileNode) *NodeResponse {
	return &NodeResponse{
		ID:          n.ID,
		ParentID:    n.ParentID,
		Name:        n.Name,
		IsFolder:    n.IsFolder,
		Hash:        n.Hash,
		Size:        n.Size,
		ContentType: n.ContentType,
		Version:     n.Version,
		InTrash:     n.InTrash,
		TrashedAt:   n.TrashedAt,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func toNodeResponses(nodes []*models.FileNode) []*NodeResponse {
	items := make([]*NodeResponse, len(nodes))
	for i, n := range nodes {
		items[i] = toNodeResponse(n)
	}
	return items
}

// VersionResponse is the API shape of a file version
type VersionResponse struct {
	VersionNo int       `json:"version_no"`
	Hash      string    `json:"hash"`
	Size      int64     `json:"size"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toVersionResponse(v *models.FileVersion) *VersionResponse {
	return &VersionResponse{
		VersionNo: v.VersionNo,
		Hash:      v.Hash,
		Size:      v.Size,
		Comment:   v.Comment,
		CreatedAt: v.CreatedAt,
	}
}
