package biz

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	apperrors "github.com/skypan-cloud/skypan-backend/internal/pkg/errors"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
)

// VersionRepo persists file version history
type VersionRepo interface {
	Create(ctx context.Context, v *models.FileVersion) error
	ListByFile(ctx context.Context, fileID string) ([]*models.FileVersion, error)
	GetByFileAndNo(ctx context.Context, fileID string, versionNo int) (*models.FileVersion, error)
	CountByFile(ctx context.Context, fileID string) (int64, error)
	// DeleteOldest removes the oldest versions beyond keep and returns
	// the pruned rows so their content references can be released
	DeleteOldest(ctx context.Context, fileID string, keep int) ([]*models.FileVersion, error)
	DeleteByFile(ctx context.Context, fileID string) ([]*models.FileVersion, error)
}

// VersionUseCase manages per-file revision history. Every version row
// pins one reference on its content object, so historical bytes stay
// retrievable until the version is pruned.
type VersionUseCase struct {
	repo        VersionRepo
	content     *ContentUseCase
	maxVersions int
	log         *logger.Logger
}

// NewVersionUseCase creates the version use case
func NewVersionUseCase(repo VersionRepo, content *ContentUseCase, maxVersions int, log *logger.Logger) *VersionUseCase {
	if maxVersions <= 0 {
		maxVersions = 10
	}
	return &VersionUseCase{
		repo:        repo,
		content:     content,
		maxVersions: maxVersions,
		log:         log,
	}
}

// Record appends a version row for the file's current content. The
// caller hands over one content reference, owned by the new row. Older
// versions beyond the retention limit are pruned and their references
// released.
func (uc *VersionUseCase) Record(ctx context.Context, fileID string, versionNo int, contentID, hash string, size int64, comment string) (*models.FileVersion, error) {
	v := &models.FileVersion{
		ID:        uuid.New().String(),
		FileID:    fileID,
		VersionNo: versionNo,
		ContentID: contentID,
		Hash:      hash,
		Size:      size,
		Comment:   comment,
	}
	if err := uc.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	// The newest row holds the file's current state; retention counts
	// only the history behind it
	pruned, err := uc.repo.DeleteOldest(ctx, fileID, uc.maxVersions+1)
	if err != nil {
		uc.log.Warn("failed to prune old versions", zap.String("file_id", fileID), zap.Error(err))
		return v, nil
	}
	for _, old := range pruned {
		if _, err := uc.content.DecrementRef(ctx, old.ContentID); err != nil {
			uc.log.Warn("failed to release pruned version content",
				zap.String("file_id", fileID),
				zap.Int("version_no", old.VersionNo),
				zap.Error(err),
			)
		}
	}
	if len(pruned) > 0 {
		uc.log.Debug("pruned old versions",
			zap.String("file_id", fileID),
			zap.Int("count", len(pruned)),
		)
	}
	return v, nil
}

// List returns a file's versions, newest first
func (uc *VersionUseCase) List(ctx context.Context, fileID string) ([]*models.FileVersion, error) {
	return uc.repo.ListByFile(ctx, fileID)
}

// Get returns a single version of a file
func (uc *VersionUseCase) Get(ctx context.Context, fileID string, versionNo int) (*models.FileVersion, error) {
	v, err := uc.repo.GetByFileAndNo(ctx, fileID, versionNo)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrVersionNotFound)
	}
	return v, nil
}

// ResolveContent finds the content object a version points at. Lookup
// goes through the recorded hash so a rebuilt store still resolves.
func (uc *VersionUseCase) ResolveContent(ctx context.Context, v *models.FileVersion) (*models.ContentObject, error) {
	obj, err := uc.content.FindByHash(ctx, v.Hash)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrContentNotFound, v.Hash)
	}
	return obj, nil
}

// ReleaseAll deletes every version of a file and drops their content
// references. Used when a file is purged.
func (uc *VersionUseCase) ReleaseAll(ctx context.Context, fileID string) error {
	removed, err := uc.repo.DeleteByFile(ctx, fileID)
	if err != nil {
		return err
	}
	for _, v := range removed {
		if _, err := uc.content.DecrementRef(ctx, v.ContentID); err != nil {
			uc.log.Warn("failed to release version content",
				zap.String("file_id", fileID),
				zap.Int("version_no", v.VersionNo),
				zap.Error(err),
			)
		}
	}
	return nil
}
