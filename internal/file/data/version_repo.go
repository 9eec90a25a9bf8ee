package data

import (
	"context"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/database"
)

type versionRepo struct {
	db *database.DB
}

// NewVersionRepo creates the file version repository
func NewVersionRepo(db *database.DB) biz.VersionRepo {
	return &versionRepo{db: db}
}

func (r *versionRepo) Create(ctx context.Context, v *models.FileVersion) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *versionRepo) ListByFile(ctx context.Context, fileID string) ([]*models.FileVersion, error) {
	var versions []*models.FileVersion
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("version_no DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *versionRepo) GetByFileAndNo(ctx context.Context, fileID string, versionNo int) (*models.FileVersion, error) {
	var v models.FileVersion
	err := r.db.WithContext(ctx).
		Where("file_id = ? AND version_no = ?", fileID, versionNo).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *versionRepo) CountByFile(ctx context.Context, fileID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FileVersion{}).
		Where("file_id = ?", fileID).
		Count(&count).Error
	return count, err
}

// DeleteOldest removes versions beyond keep, oldest first, and returns
// the pruned rows
func (r *versionRepo) DeleteOldest(ctx context.Context, fileID string, keep int) ([]*models.FileVersion, error) {
	var pruned []*models.FileVersion
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("version_no DESC").
		Offset(keep).
		Find(&pruned).Error
	if err != nil {
		return nil, err
	}
	if len(pruned) == 0 {
		return nil, nil
	}

	ids := make([]string, len(pruned))
	for i, v := range pruned {
		ids[i] = v.ID
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.FileVersion{}).Error; err != nil {
		return nil, err
	}
	return pruned, nil
}

func (r *versionRepo) DeleteByFile(ctx context.Context, fileID string) ([]*models.FileVersion, error) {
	var versions []*models.FileVersion
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	if err := r.db.WithContext(ctx).Where("file_id = ?", fileID).Delete(&models.FileVersion{}).Error; err != nil {
		return nil, err
	}
	return versions, nil
}
