package biz

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	apperrors "github.com/skypan-cloud/skypan-backend/internal/pkg/errors"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
)

// NodeRepo persists the logical file tree
type NodeRepo interface {
	Create(ctx context.Context, node *models.FileNode) error
	GetByID(ctx context.Context, id string) (*models.FileNode, error)
	GetOwned(ctx context.Context, ownerID, id string) (*models.FileNode, error)
	FindChildByName(ctx context.Context, ownerID string, parentID *string, name string) (*models.FileNode, error)
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*models.FileNode, error)
	Update(ctx context.Context, node *models.FileNode) error
	Delete(ctx context.Context, id string) error
	ListTrash(ctx context.Context, ownerID string) ([]*models.FileNode, error)
	ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]*models.FileNode, error)
	SumSizeByOwner(ctx context.Context, ownerID string) (int64, error)
}

// QuotaService talks to the external accounting service: CheckQuota
// gates growth before bytes are admitted, Commit reports the realized
// footprint change afterwards so the service tracks usage without
// polling. Deltas are negative when storage is released.
type QuotaService interface {
	CheckQuota(ctx context.Context, ownerID string, addBytes int64) error
	Commit(ctx context.Context, ownerID string, deltaBytes int64) error
}

// UploadRequest describes a whole-file upload
type UploadRequest struct {
	OwnerID     string
	FolderID    *string
	Name        string
	Data        []byte
	ContentType string
}

// QuickUploadRequest describes an upload satisfied purely by hash
type QuickUploadRequest struct {
	OwnerID     string
	FolderID    *string
	Name        string
	Hash        string
	Size        int64
	ContentType string
}

// NodeUseCase manages the logical file tree: uploads, folders, renames,
// moves, copies, trash, and downloads
type NodeUseCase struct {
	repo      NodeRepo
	content   *ContentUseCase
	versions  *VersionUseCase
	publisher *PublisherUseCase
	cache     *CacheUseCase
	quota     QuotaService
	log       *logger.Logger
}

// NewNodeUseCase creates the node use case
func NewNodeUseCase(
	repo NodeRepo,
	content *ContentUseCase,
	versions *VersionUseCase,
	publisher *PublisherUseCase,
	cache *CacheUseCase,
	quota QuotaService,
	log *logger.Logger,
) *NodeUseCase {
	return &NodeUseCase{
		repo:      repo,
		content:   content,
		versions:  versions,
		publisher: publisher,
		cache:     cache,
		quota:     quota,
		log:       log,
	}
}

// Upload stores a whole file and creates its tree entry
func (uc *NodeUseCase) Upload(ctx context.Context, req *UploadRequest) (*models.FileNode, error) {
	if req.Name == "" || len(req.Data) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidParams, "name and data are required")
	}
	if err := uc.checkParentFolder(ctx, req.OwnerID, req.FolderID); err != nil {
		return nil, err
	}
	if err := uc.quota.CheckQuota(ctx, req.OwnerID, int64(len(req.Data))); err != nil {
		return nil, err
	}

	result, err := uc.content.Store(ctx, req.Data, req.ContentType)
	if err != nil {
		return nil, err
	}
	return uc.CreateFileFromContent(ctx, req.OwnerID, req.FolderID, req.Name, result.Object)
}

// QuickUpload creates a file without transferring bytes, when the
// content already exists under the claimed hash. A miss tells the
// client to fall back to a real upload.
func (uc *NodeUseCase) QuickUpload(ctx context.Context, req *QuickUploadRequest) (*models.FileNode, error) {
	if req.Name == "" || req.Hash == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParams, "name and hash are required")
	}
	if err := uc.checkParentFolder(ctx, req.OwnerID, req.FolderID); err != nil {
		return nil, err
	}

	obj, err := uc.content.FindByHash(ctx, req.Hash)
	if err != nil {
		return nil, err
	}
	if req.Size > 0 && obj.Size != req.Size {
		return nil, apperrors.New(apperrors.ErrHashMismatch, "size does not match stored content")
	}
	if err := uc.quota.CheckQuota(ctx, req.OwnerID, obj.Size); err != nil {
		return nil, err
	}
	if err := uc.content.IncrementRef(ctx, obj.ID); err != nil {
		return nil, err
	}

	uc.log.Info("quick upload hit",
		zap.String("owner_id", req.OwnerID),
		zap.String("hash", req.Hash),
	)
	return uc.CreateFileFromContent(ctx, req.OwnerID, req.FolderID, req.Name, obj)
}

// CreateFileFromContent materializes a tree entry for content the
// caller already holds a reference on. The reference is handed to the
// file's first version row.
func (uc *NodeUseCase) CreateFileFromContent(ctx context.Context, ownerID string, folderID *string, name string, obj *models.ContentObject) (*models.FileNode, error) {
	name, err := uc.uniqueName(ctx, ownerID, folderID, name)
	if err != nil {
		return nil, err
	}

	node := &models.FileNode{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		ParentID:    folderID,
		Name:        name,
		ContentID:   &obj.ID,
		Hash:        obj.Hash,
		Size:        obj.Size,
		ContentType: obj.ContentType,
		Version:     1,
	}
	if err := uc.repo.Create(ctx, node); err != nil {
		return nil, err
	}

	if _, err := uc.versions.Record(ctx, node.ID, 1, obj.ID, obj.Hash, obj.Size, "initial upload"); err != nil {
		uc.log.Warn("failed to record initial version", zap.String("file_id", node.ID), zap.Error(err))
	}

	uc.publishEvent(ctx, EventFileCreate, node)
	uc.commitQuota(ctx, ownerID, obj.Size)
	return node, nil
}

// UpdateContent replaces a file's bytes, recording the new revision
func (uc *NodeUseCase) UpdateContent(ctx context.Context, ownerID, fileID string, data []byte, contentType string) (*models.FileNode, error) {
	node, err := uc.ownedFile(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if err := uc.quota.CheckQuota(ctx, ownerID, int64(len(data))-node.Size); err != nil {
		return nil, err
	}

	result, err := uc.content.Store(ctx, data, contentType)
	if err != nil {
		return nil, err
	}

	oldSize := node.Size
	node.Version++
	node.ContentID = &result.Object.ID
	node.Hash = result.Object.Hash
	node.Size = result.Object.Size
	if contentType != "" {
		node.ContentType = contentType
	}
	if err := uc.repo.Update(ctx, node); err != nil {
		return nil, err
	}

	if _, err := uc.versions.Record(ctx, node.ID, node.Version, result.Object.ID, result.Object.Hash, result.Object.Size, ""); err != nil {
		uc.log.Warn("failed to record version", zap.String("file_id", node.ID), zap.Error(err))
	}

	uc.cache.Invalidate(ctx, node.ID)
	uc.publishEvent(ctx, EventFileUpdate, node)
	uc.commitQuota(ctx, ownerID, node.Size-oldSize)
	return node, nil
}

// Rollback restores a file to one of its recorded versions. The
// restored state is appended as a new version, so history stays linear.
func (uc *NodeUseCase) Rollback(ctx context.Context, ownerID, fileID string, versionNo int) (*models.FileNode, error) {
	node, err := uc.ownedFile(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	target, err := uc.versions.Get(ctx, fileID, versionNo)
	if err != nil {
		return nil, err
	}
	obj, err := uc.versions.ResolveContent(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := uc.content.IncrementRef(ctx, obj.ID); err != nil {
		return nil, err
	}

	oldSize := node.Size
	node.Version++
	node.ContentID = &obj.ID
	node.Hash = obj.Hash
	node.Size = obj.Size
	if err := uc.repo.Update(ctx, node); err != nil {
		return nil, err
	}

	comment := fmt.Sprintf("rollback to version %d", versionNo)
	if _, err := uc.versions.Record(ctx, node.ID, node.Version, obj.ID, obj.Hash, obj.Size, comment); err != nil {
		uc.log.Warn("failed to record rollback version", zap.String("file_id", node.ID), zap.Error(err))
	}

	uc.cache.Invalidate(ctx, node.ID)
	uc.publishEvent(ctx, EventFileUpdate, node)
	uc.commitQuota(ctx, ownerID, node.Size-oldSize)
	uc.log.Info("file rolled back",
		zap.String("file_id", fileID),
		zap.Int("to_version", versionNo),
		zap.Int("new_version", node.Version),
	)
	return node, nil
}

// CreateFolder creates a folder under the given parent
func (uc *NodeUseCase) CreateFolder(ctx context.Context, ownerID string, parentID *string, name string) (*models.FileNode, error) {
	if name == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParams, "folder name is required")
	}
	if err := uc.checkParentFolder(ctx, ownerID, parentID); err != nil {
		return nil, err
	}
	if existing, err := uc.repo.FindChildByName(ctx, ownerID, parentID, name); err == nil && existing != nil {
		return nil, apperrors.New(apperrors.ErrFileNameExists, name)
	}

	node := &models.FileNode{
		ID:       uuid.New().String(),
		OwnerID:  ownerID,
		ParentID: parentID,
		Name:     name,
		IsFolder: true,
	}
	if err := uc.repo.Create(ctx, node); err != nil {
		return nil, err
	}
	uc.publishEvent(ctx, EventFileCreate, node)
	return node, nil
}

// Get returns one node's metadata through the cache, recording the
// access for hot ranking
func (uc *NodeUseCase) Get(ctx context.Context, ownerID, fileID string) (*models.FileNode, error) {
	node, err := uc.cache.GetMeta(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if node.OwnerID != ownerID {
		return nil, apperrors.New(apperrors.ErrFileUnauthorized)
	}
	uc.cache.RecordAccess(ctx, fileID)
	return node, nil
}

// List returns the children of a folder, excluding trashed entries
func (uc *NodeUseCase) List(ctx context.Context, ownerID string, folderID *string) ([]*models.FileNode, error) {
	if err := uc.checkParentFolder(ctx, ownerID, folderID); err != nil {
		return nil, err
	}
	return uc.repo.ListChildren(ctx, ownerID, folderID)
}

// Rename changes a node's name within its parent
func (uc *NodeUseCase) Rename(ctx context.Context, ownerID, fileID, newName string) (*models.FileNode, error) {
	if newName == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParams, "name is required")
	}
	node, err := uc.ownedNode(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if node.Name == newName {
		return node, nil
	}
	if existing, err := uc.repo.FindChildByName(ctx, ownerID, node.ParentID, newName); err == nil && existing != nil && existing.ID != node.ID {
		return nil, apperrors.New(apperrors.ErrFileNameExists, newName)
	}

	node.Name = newName
	if err := uc.repo.Update(ctx, node); err != nil {
		return nil, err
	}
	uc.cache.Invalidate(ctx, node.ID)
	uc.publishEvent(ctx, EventFileUpdate, node)
	return node, nil
}

// Move reparents a node. Moving a folder into its own subtree is
// rejected.
func (uc *NodeUseCase) Move(ctx context.Context, ownerID, fileID string, targetFolderID *string) (*models.FileNode, error) {
	node, err := uc.ownedNode(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if err := uc.checkParentFolder(ctx, ownerID, targetFolderID); err != nil {
		return nil, err
	}
	if node.IsFolder {
		if err := uc.checkNoCycle(ctx, node.ID, targetFolderID); err != nil {
			return nil, err
		}
	}

	name, err := uc.uniqueName(ctx, ownerID, targetFolderID, node.Name)
	if err != nil {
		return nil, err
	}
	node.Name = name
	node.ParentID = targetFolderID
	if err := uc.repo.Update(ctx, node); err != nil {
		return nil, err
	}
	uc.cache.Invalidate(ctx, node.ID)
	uc.publishEvent(ctx, EventFileUpdate, node)
	return node, nil
}

// Copy duplicates a node into the target folder. File copies share the
// original's content through a new reference; folders copy recursively.
func (uc *NodeUseCase) Copy(ctx context.Context, ownerID, fileID string, targetFolderID *string) (*models.FileNode, error) {
	node, err := uc.ownedNode(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if err := uc.checkParentFolder(ctx, ownerID, targetFolderID); err != nil {
		return nil, err
	}
	if node.IsFolder {
		if err := uc.checkNoCycle(ctx, node.ID, targetFolderID); err != nil {
			return nil, err
		}
	}
	if err := uc.quota.CheckQuota(ctx, ownerID, node.Size); err != nil {
		return nil, err
	}
	return uc.copyNode(ctx, node, targetFolderID)
}

func (uc *NodeUseCase) copyNode(ctx context.Context, src *models.FileNode, targetFolderID *string) (*models.FileNode, error) {
	if src.IsFolder {
		name, err := uc.uniqueName(ctx, src.OwnerID, targetFolderID, src.Name)
		if err != nil {
			return nil, err
		}
		folder := &models.FileNode{
			ID:       uuid.New().String(),
			OwnerID:  src.OwnerID,
			ParentID: targetFolderID,
			Name:     name,
			IsFolder: true,
		}
		if err := uc.repo.Create(ctx, folder); err != nil {
			return nil, err
		}

		children, err := uc.repo.ListChildren(ctx, src.OwnerID, &src.ID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, err := uc.copyNode(ctx, child, &folder.ID); err != nil {
				return nil, err
			}
		}
		uc.publishEvent(ctx, EventFileCreate, folder)
		return folder, nil
	}

	if src.ContentID == nil {
		return nil, apperrors.New(apperrors.ErrContentNotFound, src.ID)
	}
	if err := uc.content.IncrementRef(ctx, *src.ContentID); err != nil {
		return nil, err
	}
	obj := &models.ContentObject{
		ID:          *src.ContentID,
		Hash:        src.Hash,
		Size:        src.Size,
		ContentType: src.ContentType,
	}
	return uc.CreateFileFromContent(ctx, src.OwnerID, targetFolderID, src.Name, obj)
}

// Trash moves a node into the trash. Contents of a trashed folder stay
// attached and disappear from listings with it.
func (uc *NodeUseCase) Trash(ctx context.Context, ownerID, fileID string) error {
	node, err := uc.ownedNode(ctx, ownerID, fileID)
	if err != nil {
		return err
	}
	if node.InTrash {
		return apperrors.New(apperrors.ErrFileInTrash)
	}

	now := time.Now()
	node.InTrash = true
	node.TrashedAt = &now
	if err := uc.repo.Update(ctx, node); err != nil {
		return err
	}
	uc.cache.Invalidate(ctx, node.ID)
	// Downstream consumers treat a trashed file as gone
	uc.publishEvent(ctx, EventFileDelete, node)
	return nil
}

// Restore brings a trashed node back. When its original parent is gone
// or itself trashed, the node lands in the root folder.
func (uc *NodeUseCase) Restore(ctx context.Context, ownerID, fileID string) (*models.FileNode, error) {
	node, err := uc.repo.GetOwned(ctx, ownerID, fileID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFileNotFound, fileID)
	}
	if !node.InTrash {
		return nil, apperrors.New(apperrors.ErrFileNotInTrash)
	}

	parentID := node.ParentID
	if parentID != nil {
		parent, err := uc.repo.GetOwned(ctx, ownerID, *parentID)
		if err != nil || parent.InTrash || !parent.IsFolder {
			parentID = nil
		}
	}

	name, err := uc.uniqueName(ctx, ownerID, parentID, node.Name)
	if err != nil {
		return nil, err
	}
	node.Name = name
	node.ParentID = parentID
	node.InTrash = false
	node.TrashedAt = nil
	if err := uc.repo.Update(ctx, node); err != nil {
		return nil, err
	}
	uc.cache.Invalidate(ctx, node.ID)
	uc.publishEvent(ctx, EventFileCreate, node)
	return node, nil
}

// ListTrash returns the owner's trashed nodes
func (uc *NodeUseCase) ListTrash(ctx context.Context, ownerID string) ([]*models.FileNode, error) {
	return uc.repo.ListTrash(ctx, ownerID)
}

// Purge permanently deletes a trashed node and, for folders, its whole
// subtree. Content references are released as nodes go.
func (uc *NodeUseCase) Purge(ctx context.Context, ownerID, fileID string) error {
	node, err := uc.repo.GetOwned(ctx, ownerID, fileID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileNotFound, fileID)
	}
	if !node.InTrash {
		return apperrors.New(apperrors.ErrFileNotInTrash)
	}
	return uc.purgeNode(ctx, node)
}

func (uc *NodeUseCase) purgeNode(ctx context.Context, node *models.FileNode) error {
	if node.IsFolder {
		children, err := uc.repo.ListChildren(ctx, node.OwnerID, &node.ID)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := uc.purgeNode(ctx, child); err != nil {
				return err
			}
		}
	} else {
		if err := uc.versions.ReleaseAll(ctx, node.ID); err != nil {
			uc.log.Warn("failed to release versions", zap.String("file_id", node.ID), zap.Error(err))
		}
	}

	if err := uc.repo.Delete(ctx, node.ID); err != nil {
		return err
	}
	uc.cache.Invalidate(ctx, node.ID)
	uc.cache.Forget(ctx, node.ID)
	uc.publishEvent(ctx, EventFileDelete, node)
	if !node.IsFolder {
		uc.commitQuota(ctx, node.OwnerID, -node.Size)
	}
	return nil
}

// EmptyTrash purges everything in the owner's trash
func (uc *NodeUseCase) EmptyTrash(ctx context.Context, ownerID string) (int, error) {
	trashed, err := uc.repo.ListTrash(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, node := range trashed {
		if err := uc.purgeNode(ctx, node); err != nil {
			uc.log.Warn("failed to purge trashed node", zap.String("file_id", node.ID), zap.Error(err))
			continue
		}
		purged++
	}
	return purged, nil
}

// PurgeTrashedBefore permanently deletes nodes trashed before the
// cutoff. Used by the retention task.
func (uc *NodeUseCase) PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	expired, err := uc.repo.ListTrashedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, node := range expired {
		if err := uc.purgeNode(ctx, node); err != nil {
			uc.log.Warn("failed to purge expired node", zap.String("file_id", node.ID), zap.Error(err))
			continue
		}
		purged++
	}
	return purged, nil
}

// DownloadURL returns a presigned URL for a file's current content
func (uc *NodeUseCase) DownloadURL(ctx context.Context, ownerID, fileID string, expiry time.Duration) (string, error) {
	node, err := uc.ownedNode(ctx, ownerID, fileID)
	if err != nil {
		return "", err
	}
	if node.IsFolder {
		return "", apperrors.New(apperrors.ErrFolderNoDownload)
	}
	if node.ContentID == nil {
		return "", apperrors.New(apperrors.ErrContentNotFound, fileID)
	}
	uc.cache.RecordAccess(ctx, fileID)
	return uc.content.DownloadURL(ctx, *node.ContentID, node.Name, expiry)
}

// VersionDownloadURL returns a presigned URL for a recorded version's
// bytes, resolved through the version's content address
func (uc *NodeUseCase) VersionDownloadURL(ctx context.Context, ownerID, fileID string, versionNo int, expiry time.Duration) (string, error) {
	node, err := uc.ownedFile(ctx, ownerID, fileID)
	if err != nil {
		return "", err
	}
	target, err := uc.versions.Get(ctx, fileID, versionNo)
	if err != nil {
		return "", err
	}
	obj, err := uc.versions.ResolveContent(ctx, target)
	if err != nil {
		return "", err
	}
	return uc.content.DownloadURL(ctx, obj.ID, node.Name, expiry)
}

// UsedBytes returns the owner's logical storage footprint
func (uc *NodeUseCase) UsedBytes(ctx context.Context, ownerID string) (int64, error) {
	return uc.repo.SumSizeByOwner(ctx, ownerID)
}

// ownedNode fetches a non-trashed node owned by ownerID
func (uc *NodeUseCase) ownedNode(ctx context.Context, ownerID, fileID string) (*models.FileNode, error) {
	node, err := uc.repo.GetOwned(ctx, ownerID, fileID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrFileNotFound, fileID)
	}
	if node.InTrash {
		return nil, apperrors.New(apperrors.ErrFileInTrash)
	}
	return node, nil
}

func (uc *NodeUseCase) ownedFile(ctx context.Context, ownerID, fileID string) (*models.FileNode, error) {
	node, err := uc.ownedNode(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if node.IsFolder {
		return nil, apperrors.New(apperrors.ErrVersionForFolder)
	}
	return node, nil
}

// checkParentFolder validates the target folder exists, is a folder,
// is owned by ownerID, and is not trashed. nil means the root.
func (uc *NodeUseCase) checkParentFolder(ctx context.Context, ownerID string, folderID *string) error {
	if folderID == nil {
		return nil
	}
	folder, err := uc.repo.GetOwned(ctx, ownerID, *folderID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileNotFound, *folderID)
	}
	if !folder.IsFolder {
		return apperrors.New(apperrors.ErrInvalidParams, "target is not a folder")
	}
	if folder.InTrash {
		return apperrors.New(apperrors.ErrFileInTrash)
	}
	return nil
}

// checkNoCycle walks up from the target folder and rejects the move
// when it passes through the folder being moved
func (uc *NodeUseCase) checkNoCycle(ctx context.Context, movingID string, targetFolderID *string) error {
	current := targetFolderID
	for current != nil {
		if *current == movingID {
			return apperrors.New(apperrors.ErrFolderCycle)
		}
		node, err := uc.repo.GetByID(ctx, *current)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrFileNotFound, *current)
		}
		current = node.ParentID
	}
	return nil
}

// uniqueName resolves naming conflicts by appending " (n)" before the
// extension, the way desktop file managers do
func (uc *NodeUseCase) uniqueName(ctx context.Context, ownerID string, parentID *string, name string) (string, error) {
	existing, err := uc.repo.FindChildByName(ctx, ownerID, parentID, name)
	if err != nil || existing == nil {
		return name, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; i <= 1000; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if found, err := uc.repo.FindChildByName(ctx, ownerID, parentID, candidate); err != nil || found == nil {
			return candidate, nil
		}
	}
	return "", apperrors.New(apperrors.ErrFileNameExists, name)
}

// commitQuota reports a realized footprint change. Best effort: the
// accounting service reconciles from usage queries, so a lost delta is
// not a correctness problem.
func (uc *NodeUseCase) commitQuota(ctx context.Context, ownerID string, delta int64) {
	if delta == 0 {
		return
	}
	if err := uc.quota.Commit(ctx, ownerID, delta); err != nil {
		uc.log.Warn("quota commit failed",
			zap.String("owner_id", ownerID),
			zap.Int64("delta", delta),
			zap.Error(err),
		)
	}
}

func (uc *NodeUseCase) publishEvent(ctx context.Context, eventType string, node *models.FileNode) {
	event := NewFileEvent(eventType, node)
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.log.Error("failed to publish file event",
			zap.String("type", eventType),
			zap.String("file_id", node.ID),
			zap.Error(err),
		)
	}
}
