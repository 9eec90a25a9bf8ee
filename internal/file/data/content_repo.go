package data

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/database"
)

type contentRepo struct {
	db *database.DB
}

// NewContentRepo creates the content object repository
func NewContentRepo(db *database.DB) biz.ContentRepo {
	return &contentRepo{db: db}
}

func (r *contentRepo) Create(ctx context.Context, obj *models.ContentObject) error {
	return r.db.WithContext(ctx).Create(obj).Error
}

func (r *contentRepo) GetByID(ctx context.Context, id string) (*models.ContentObject, error) {
	var obj models.ContentObject
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&obj).Error; err != nil {
		return nil, err
	}
	return &obj, nil
}

func (r *contentRepo) GetByHash(ctx context.Context, hash string) (*models.ContentObject, error) {
	var obj models.ContentObject
	if err := r.db.WithContext(ctx).Where("hash = ?", hash).First(&obj).Error; err != nil {
		return nil, err
	}
	return &obj, nil
}

// IncrementRef adds a reference with a guarded update so a concurrently
// deleted row is detected instead of resurrected
func (r *contentRepo) IncrementRef(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.ContentObject{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"ref_count":  gorm.Expr("ref_count + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementRef only decrements while the count is positive; the
// condition is the concurrency guard, no row lock needed
func (r *contentRepo) DecrementRef(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ContentObject{}).
		Where("id = ? AND ref_count > 0", id).
		UpdateColumns(map[string]interface{}{
			"ref_count":  gorm.Expr("ref_count - 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteIfUnreferenced deletes only a zero-count row. RowsAffected
// picks exactly one winner when several droppers race to zero.
func (r *contentRepo) DeleteIfUnreferenced(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND ref_count = 0", id).
		Delete(&models.ContentObject{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *contentRepo) IsDuplicateHash(err error) bool {
	return database.IsDuplicateKeyError(err)
}

func (r *contentRepo) Stats(ctx context.Context) (*biz.StorageStats, error) {
	var row struct {
		ObjectCount   int64
		PhysicalBytes int64
		TotalRefs     int64
		LogicalBytes  int64
	}
	err := r.db.WithContext(ctx).Model(&models.ContentObject{}).
		Select("COUNT(*) AS object_count, " +
			"COALESCE(SUM(size), 0) AS physical_bytes, " +
			"COALESCE(SUM(ref_count), 0) AS total_refs, " +
			"COALESCE(SUM(size * ref_count), 0) AS logical_bytes").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &biz.StorageStats{
		ObjectCount:   row.ObjectCount,
		PhysicalBytes: row.PhysicalBytes,
		TotalRefs:     row.TotalRefs,
		LogicalBytes:  row.LogicalBytes,
	}
	if row.PhysicalBytes > 0 {
		stats.DedupRatio = float64(row.LogicalBytes) / float64(row.PhysicalBytes)
	}
	return stats, nil
}
