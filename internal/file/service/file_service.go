package service

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/response"
)

const (
	downloadURLExpiry     = 15 * time.Minute
	versionDownloadExpiry = time.Hour
)

// FileService exposes the file tree over HTTP
type FileService struct {
	nodes    *biz.NodeUseCase
	versions *biz.VersionUseCase
	logger   *logger.Logger
}

// NewFileService creates the file HTTP service
func NewFileService(nodes *biz.NodeUseCase, versions *biz.VersionUseCase, log *logger.Logger) *FileService {
	return &FileService{
		nodes:    nodes,
		versions: versions,
		logger:   log,
	}
}

// optionalFolderID reads the folder_id query/form value; empty means root
func optionalFolderID(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// Upload stores a whole file from a multipart form
func (s *FileService) Upload(c *gin.Context) {
	userID := c.GetString("user_id")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid file or field name is not 'file'")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read file")
		return
	}

	node, err := s.nodes.Upload(c.Request.Context(), &biz.UploadRequest{
		OwnerID:     userID,
		FolderID:    optionalFolderID(c.PostForm("folder_id")),
		Name:        header.Filename,
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Error("upload failed",
			zap.String("name", header.Filename), zap.Error(err))
		response.HandleError(c, err)
		return
	}
	response.Created(c, toNodeResponse(node))
}

// QuickUpload creates a file by hash without transferring bytes
func (s *FileService) QuickUpload(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Name        string `json:"name" binding:"required"`
		FolderID    string `json:"folder_id"`
		Hash        string `json:"hash" binding:"required,len=64"`
		Size        int64  `json:"size"`
		ContentType string `json:"content_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid parameters")
		return
	}

	node, err := s.nodes.QuickUpload(c.Request.Context(), &biz.QuickUploadRequest{
		OwnerID:     userID,
		FolderID:    optionalFolderID(req.FolderID),
		Name:        req.Name,
		Hash:        req.Hash,
		Size:        req.Size,
		ContentType: req.ContentType,
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, toNodeResponse(node))
}

// UpdateContent replaces a file's bytes with a new revision
func (s *FileService) UpdateContent(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid file or field name is not 'file'")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read file")
		return
	}

	node, err := s.nodes.UpdateContent(c.Request.Context(), userID, fileID, data, header.Header.Get("Content-Type"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, toNodeResponse(node))
}

// CreateFolder creates a folder
func (s *FileService) CreateFolder(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Name     string `json:"name" binding:"required"`
		ParentID string `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid parameters")
		return
	}

	node, err := s.nodes.CreateFolder(c.Request.Context(), userID, optionalFolderID(req.ParentID), req.Name)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, toNodeResponse(node))
}

// Get returns one node's metadata
func (s *FileService) Get(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	node, err := s.nodes.Get(c.Request.Context(), userID, fileID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, toNodeResponse(node))
}

// List returns the children of a folder (root when folder_id is empty)
func (s *FileService) List(c *gin.Context) {
	userID := c.GetString("user_id")

	nodes, err := s.nodes.List(c.Request.Context(), userID, optionalFolderID(c.Query("folder_id")))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": toNodeResponses(nodes)})
}

// Rename changes a node's name
func (s *FileService) Rename(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid parameters")
		return
	}

	node, err := s.nodes.Rename(c.Request.Context(), userID, fileID, req.Name)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, toNodeResponse(node))
}

// Move reparents a node
func (s *FileService) Move(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	var req struct {
		TargetFolderID string `json:"target_folder_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid parameters")
		return
	}

	node, err := s.nodes.Move(c.Request.Context(), userID, fileID, optionalFolderID(req.TargetFolderID))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, toNodeResponse(node))
}

// Copy duplicates a node into a target folder
func (s *FileService) Copy(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	var req struct {
		TargetFolderID string `json:"target_folder_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid parameters")
		return
	}

	node, err := s.nodes.Copy(c.Request.Context(), userID, fileID, optionalFolderID(req.TargetFolderID))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Created(c, toNodeResponse(node))
}

// Download returns a presigned URL for a file's bytes
func (s *FileService) Download(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	url, err := s.nodes.DownloadURL(c.Request.Context(), userID, fileID, downloadURLExpiry)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"url": url, "expires_in": int(downloadURLExpiry.Seconds())})
}

// Trash moves a node to the trash
func (s *FileService) Trash(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	if err := s.nodes.Trash(c.Request.Context(), userID, fileID); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, nil)
}

// Restore brings a node back from the trash
func (s *FileService) Restore(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	node, err := s.nodes.Restore(c.Request.Context(), userID, fileID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, toNodeResponse(node))
}

// ListTrash lists the owner's trashed nodes
func (s *FileService) ListTrash(c *gin.Context) {
	userID := c.GetString("user_id")

	nodes, err := s.nodes.ListTrash(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": toNodeResponses(nodes)})
}

// Purge permanently deletes a trashed node
func (s *FileService) Purge(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	if err := s.nodes.Purge(c.Request.Context(), userID, fileID); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, nil)
}

// EmptyTrash purges everything in the owner's trash
func (s *FileService) EmptyTrash(c *gin.Context) {
	userID := c.GetString("user_id")

	purged, err := s.nodes.EmptyTrash(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"purged": purged})
}

// ListVersions returns a file's revision history
func (s *FileService) ListVersions(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	// Ownership check happens through the node lookup
	if _, err := s.nodes.Get(c.Request.Context(), userID, fileID); err != nil {
		response.HandleError(c, err)
		return
	}

	versions, err := s.versions.List(c.Request.Context(), fileID)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	items := make([]*VersionResponse, len(versions))
	for i, v := range versions {
		items[i] = toVersionResponse(v)
	}
	response.Success(c, gin.H{"items": items})
}

// DownloadVersion returns a presigned URL for a recorded version's bytes
func (s *FileService) DownloadVersion(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	versionNo, err := strconv.Atoi(c.Param("no"))
	if err != nil || versionNo < 1 {
		response.BadRequest(c, "invalid version number")
		return
	}

	url, err := s.nodes.VersionDownloadURL(c.Request.Context(), userID, fileID, versionNo, versionDownloadExpiry)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"url": url, "expires_in": int(versionDownloadExpiry.Seconds())})
}

// Rollback restores a file to a recorded version
func (s *FileService) Rollback(c *gin.Context) {
	userID := c.GetString("user_id")
	fileID := c.Param("id")

	var req struct {
		VersionNo int `json:"version_no" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid parameters")
		return
	}

	node, err := s.nodes.Rollback(c.Request.Context(), userID, fileID, req.VersionNo)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, toNodeResponse(node))
}
