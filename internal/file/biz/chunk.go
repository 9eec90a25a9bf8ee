package biz

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	apperrors "github.com/skypan-cloud/skypan-backend/internal/pkg/errors"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
)

// SessionRepo persists resumable upload sessions
type SessionRepo interface {
	Create(ctx context.Context, s *models.UploadSession) error
	GetByID(ctx context.Context, id string) (*models.UploadSession, error)
	// FindActive returns the owner's in-flight session for a hash, if any
	FindActive(ctx context.Context, ownerID, hash string) (*models.UploadSession, error)
	// AppendChunk atomically records a received chunk index and returns
	// the updated session; concurrent appends never lose an index
	AppendChunk(ctx context.Context, id string, index int) (*models.UploadSession, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ListStaleActive(ctx context.Context, cutoff time.Time) ([]*models.UploadSession, error)
}

// InitUploadRequest starts or resumes a chunked upload
type InitUploadRequest struct {
	OwnerID     string
	FolderID    *string
	FileName    string
	TotalSize   int64
	Hash        string
	ContentType string
}

// UploadStatus reports session progress to the client
type UploadStatus struct {
	Session       *models.UploadSession `json:"session"`
	Received      []int                 `json:"received"`
	Missing       []int                 `json:"missing"`
	QuickUploaded bool                  `json:"quick_uploaded"`
	Node          *models.FileNode      `json:"node,omitempty"`
}

// UploadUseCase coordinates resumable chunked uploads: a session per
// upload, idempotent chunk receipt, server-side merge, then handoff to
// deduplicated content storage
type UploadUseCase struct {
	sessions   SessionRepo
	blobs      BlobStore
	content    *ContentUseCase
	nodes      *NodeUseCase
	quota      QuotaService
	chunkSize  int64
	sessionTTL time.Duration
	log        *logger.Logger
}

// NewUploadUseCase creates the upload use case
func NewUploadUseCase(
	sessions SessionRepo,
	blobs BlobStore,
	content *ContentUseCase,
	nodes *NodeUseCase,
	quota QuotaService,
	chunkSize int64,
	sessionTTL time.Duration,
	log *logger.Logger,
) *UploadUseCase {
	if chunkSize <= 0 {
		chunkSize = 5 * 1024 * 1024
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &UploadUseCase{
		sessions:   sessions,
		blobs:      blobs,
		content:    content,
		nodes:      nodes,
		quota:      quota,
		chunkSize:  chunkSize,
		sessionTTL: sessionTTL,
		log:        log,
	}
}

func chunkPath(sessionID string, index int) string {
	return fmt.Sprintf("chunks/%s/%d", sessionID, index)
}

func stagedPath(sessionID string) string {
	return fmt.Sprintf("chunks/%s/merged", sessionID)
}

// Init starts a chunked upload, or resumes the owner's existing active
// session for the same content. When the bytes already exist under the
// claimed hash the upload short-circuits into a quick upload.
func (uc *UploadUseCase) Init(ctx context.Context, req *InitUploadRequest) (*UploadStatus, error) {
	if req.FileName == "" || req.Hash == "" || req.TotalSize <= 0 {
		return nil, apperrors.New(apperrors.ErrInvalidParams, "file_name, hash and total_size are required")
	}
	if err := uc.quota.CheckQuota(ctx, req.OwnerID, req.TotalSize); err != nil {
		return nil, err
	}

	// Content already known: no bytes need to move at all
	if node, err := uc.nodes.QuickUpload(ctx, &QuickUploadRequest{
		OwnerID:     req.OwnerID,
		FolderID:    req.FolderID,
		Name:        req.FileName,
		Hash:        req.Hash,
		Size:        req.TotalSize,
		ContentType: req.ContentType,
	}); err == nil {
		return &UploadStatus{QuickUploaded: true, Node: node}, nil
	}

	// Resume an interrupted session for the same content
	if existing, err := uc.sessions.FindActive(ctx, req.OwnerID, req.Hash); err == nil && existing != nil {
		uc.log.Info("resuming upload session",
			zap.String("session_id", existing.ID),
			zap.Int("received", len(existing.ReceivedChunks())),
		)
		return uc.status(existing), nil
	}

	totalChunks := int((req.TotalSize + uc.chunkSize - 1) / uc.chunkSize)
	session := &models.UploadSession{
		ID:          uuid.New().String(),
		OwnerID:     req.OwnerID,
		Hash:        req.Hash,
		FileName:    req.FileName,
		FolderID:    req.FolderID,
		TotalSize:   req.TotalSize,
		ChunkSize:   uc.chunkSize,
		TotalChunks: totalChunks,
		Status:      models.SessionStatusActive,
		ContentType: req.ContentType,
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	uc.log.Info("upload session created",
		zap.String("session_id", session.ID),
		zap.Int64("total_size", req.TotalSize),
		zap.Int("total_chunks", totalChunks),
	)
	return uc.status(session), nil
}

// UploadChunk stores one chunk. Re-sending an already received index is
// a no-op, so clients can retry blindly after a network failure.
func (uc *UploadUseCase) UploadChunk(ctx context.Context, ownerID, sessionID string, index int, data []byte) (*UploadStatus, error) {
	session, err := uc.activeSession(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= session.TotalChunks {
		return nil, apperrors.New(apperrors.ErrChunkOutOfRange,
			fmt.Sprintf("index %d, session has %d chunks", index, session.TotalChunks))
	}
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidParams, "empty chunk")
	}
	if session.HasChunk(index) {
		return uc.status(session), nil
	}

	if err := uc.blobs.Put(ctx, chunkPath(sessionID, index), bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageBackend)
	}

	session, err = uc.sessions.AppendChunk(ctx, sessionID, index)
	if err != nil {
		return nil, err
	}
	return uc.status(session), nil
}

// Status reports which chunks are still missing
func (uc *UploadUseCase) Status(ctx context.Context, ownerID, sessionID string) (*UploadStatus, error) {
	session, err := uc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSessionNotFound, sessionID)
	}
	if session.OwnerID != ownerID {
		return nil, apperrors.New(apperrors.ErrFileUnauthorized)
	}
	return uc.status(session), nil
}

// Complete merges the chunks, verifies the content address, and hands
// the result to deduplicated storage. The merged bytes never bypass
// dedup: an upload whose content already exists joins the existing
// object.
func (uc *UploadUseCase) Complete(ctx context.Context, ownerID, sessionID string) (*models.FileNode, error) {
	session, err := uc.activeSession(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsComplete() {
		return nil, apperrors.New(apperrors.ErrSessionIncomplete,
			fmt.Sprintf("%d of %d chunks received", len(session.ReceivedChunks()), session.TotalChunks))
	}

	srcs := make([]string, session.TotalChunks)
	for i := 0; i < session.TotalChunks; i++ {
		srcs[i] = chunkPath(sessionID, i)
	}
	staged := stagedPath(sessionID)
	size, err := uc.blobs.Compose(ctx, staged, srcs)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageBackend, "merge failed")
	}
	if size != session.TotalSize {
		uc.discard(ctx, staged)
		return nil, apperrors.New(apperrors.ErrHashMismatch,
			fmt.Sprintf("merged size %d, expected %d", size, session.TotalSize))
	}

	hash, err := uc.hashStaged(ctx, staged)
	if err != nil {
		uc.discard(ctx, staged)
		return nil, err
	}
	if hash != session.Hash {
		// Corrupt or wrong bytes; keep the session so the client can
		// re-send chunks
		uc.discard(ctx, staged)
		return nil, apperrors.New(apperrors.ErrHashMismatch, hash)
	}

	result, err := uc.content.StoreFromPath(ctx, staged, hash, size, session.ContentType)
	if err != nil {
		return nil, err
	}

	node, err := uc.nodes.CreateFileFromContent(ctx, session.OwnerID, session.FolderID, session.FileName, result.Object)
	if err != nil {
		return nil, err
	}

	if err := uc.sessions.UpdateStatus(ctx, sessionID, models.SessionStatusCompleted); err != nil {
		uc.log.Warn("failed to mark session completed", zap.String("session_id", sessionID), zap.Error(err))
	}
	uc.removeChunks(ctx, session)

	uc.log.Info("chunked upload completed",
		zap.String("session_id", sessionID),
		zap.String("file_id", node.ID),
		zap.Bool("deduplicated", result.Deduplicated),
	)
	return node, nil
}

// Cancel aborts a session and discards its chunks
func (uc *UploadUseCase) Cancel(ctx context.Context, ownerID, sessionID string) error {
	session, err := uc.activeSession(ctx, ownerID, sessionID)
	if err != nil {
		return err
	}
	if err := uc.sessions.UpdateStatus(ctx, sessionID, models.SessionStatusCancelled); err != nil {
		return err
	}
	uc.removeChunks(ctx, session)
	uc.discard(ctx, stagedPath(sessionID))
	return nil
}

// CleanupExpired cancels sessions that stayed active past the TTL and
// reclaims their chunk storage. Returns how many were expired.
func (uc *UploadUseCase) CleanupExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-uc.sessionTTL)
	stale, err := uc.sessions.ListStaleActive(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, session := range stale {
		if err := uc.sessions.UpdateStatus(ctx, session.ID, models.SessionStatusCancelled); err != nil {
			uc.log.Warn("failed to expire session", zap.String("session_id", session.ID), zap.Error(err))
			continue
		}
		uc.removeChunks(ctx, session)
		uc.discard(ctx, stagedPath(session.ID))
		expired++
	}
	if expired > 0 {
		uc.log.Info("expired stale upload sessions", zap.Int("count", expired))
	}
	return expired, nil
}

func (uc *UploadUseCase) activeSession(ctx context.Context, ownerID, sessionID string) (*models.UploadSession, error) {
	session, err := uc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSessionNotFound, sessionID)
	}
	if session.OwnerID != ownerID {
		return nil, apperrors.New(apperrors.ErrFileUnauthorized)
	}
	if session.Status != models.SessionStatusActive {
		return nil, apperrors.New(apperrors.ErrSessionNotActive, session.Status)
	}
	return session, nil
}

func (uc *UploadUseCase) status(session *models.UploadSession) *UploadStatus {
	return &UploadStatus{
		Session:  session,
		Received: session.ReceivedChunks(),
		Missing:  session.MissingChunks(),
	}
}

// hashStaged streams the merged object through the content hasher
func (uc *UploadUseCase) hashStaged(ctx context.Context, path string) (string, error) {
	rc, err := uc.blobs.Get(ctx, path)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrStorageBackend)
	}
	defer rc.Close()

	hash, _, err := HashReader(rc)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrStorageBackend)
	}
	return hash, nil
}

func (uc *UploadUseCase) removeChunks(ctx context.Context, session *models.UploadSession) {
	for _, idx := range session.ReceivedChunks() {
		uc.discard(ctx, chunkPath(session.ID, idx))
	}
}

func (uc *UploadUseCase) discard(ctx context.Context, path string) {
	if err := uc.blobs.Remove(ctx, path); err != nil {
		uc.log.Debug("failed to remove staging object", zap.String("path", path), zap.Error(err))
	}
}
