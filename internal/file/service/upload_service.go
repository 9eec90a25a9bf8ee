package service

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/response"
)

// UploadService exposes resumable chunked uploads over HTTP
type UploadService struct {
	uploads *biz.UploadUseCase
	logger  *logger.Logger
}

// NewUploadService creates the upload HTTP service
func NewUploadService(uploads *biz.UploadUseCase, log *logger.Logger) *UploadService {
	return &UploadService{
		uploads: uploads,
		logger:  log,
	}
}

// Init starts or resumes a chunked upload session
func (s *UploadService) Init(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		FileName    string `json:"file_name" binding:"required"`
		FolderID    string `json:"folder_id"`
		TotalSize   int64  `json:"total_size" binding:"required,min=1"`
		Hash        string `json:"hash" binding:"required,len=64"`
		ContentType string `json:"content_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid parameters")
		return
	}

	status, err := s.uploads.Init(c.Request.Context(), &biz.InitUploadRequest{
		OwnerID:     userID,
		FolderID:    optionalFolderID(req.FolderID),
		FileName:    req.FileName,
		TotalSize:   req.TotalSize,
		Hash:        req.Hash,
		ContentType: req.ContentType,
	})
	if err != nil {
		s.logger.Error("upload init failed", zap.String("file_name", req.FileName), zap.Error(err))
		response.HandleError(c, err)
		return
	}

	if status.QuickUploaded {
		response.Created(c, gin.H{
			"quick_uploaded": true,
			"node":           toNodeResponse(status.Node),
		})
		return
	}
	response.Success(c, status)
}

// UploadChunk receives one chunk of an active session
func (s *UploadService) UploadChunk(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.Param("id")

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.BadRequest(c, "invalid chunk index")
		return
	}

	file, _, err := c.Request.FormFile("chunk")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid chunk or field name is not 'chunk'")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read chunk")
		return
	}

	status, err := s.uploads.UploadChunk(c.Request.Context(), userID, sessionID, index, data)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, status)
}

// Status reports which chunks the session still needs
func (s *UploadService) Status(c *gin.Context) {
	status, err := s.uploads.Status(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, status)
}

// Complete merges the chunks and creates the file
func (s *UploadService) Complete(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.Param("id")

	node, err := s.uploads.Complete(c.Request.Context(), userID, sessionID)
	if err != nil {
		s.logger.Error("upload completion failed", zap.String("session_id", sessionID), zap.Error(err))
		response.HandleError(c, err)
		return
	}
	response.Created(c, toNodeResponse(node))
}

// Cancel aborts the session and discards its chunks
func (s *UploadService) Cancel(c *gin.Context) {
	if err := s.uploads.Cancel(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, nil)
}
