package data

import (
	"context"
	"time"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/database"
)

type nodeRepo struct {
	db *database.DB
}

// NewNodeRepo creates the file tree repository
func NewNodeRepo(db *database.DB) biz.NodeRepo {
	return &nodeRepo{db: db}
}

func (r *nodeRepo) Create(ctx context.Context, node *models.FileNode) error {
	return r.db.WithContext(ctx).Create(node).Error
}

func (r *nodeRepo) GetByID(ctx context.Context, id string) (*models.FileNode, error) {
	var node models.FileNode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&node).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *nodeRepo) GetOwned(ctx context.Context, ownerID, id string) (*models.FileNode, error) {
	var node models.FileNode
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&node).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *nodeRepo) FindChildByName(ctx context.Context, ownerID string, parentID *string, name string) (*models.FileNode, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ? AND name = ? AND in_trash = false", ownerID, name)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var node models.FileNode
	if err := query.First(&node).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *nodeRepo) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*models.FileNode, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ? AND in_trash = false", ownerID)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var nodes []*models.FileNode
	if err := query.Order("is_folder DESC, name ASC").Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *nodeRepo) Update(ctx context.Context, node *models.FileNode) error {
	return r.db.WithContext(ctx).Save(node).Error
}

func (r *nodeRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.FileNode{}).Error
}

func (r *nodeRepo) ListTrash(ctx context.Context, ownerID string) ([]*models.FileNode, error) {
	var nodes []*models.FileNode
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND in_trash = true", ownerID).
		Order("trashed_at DESC").
		Find(&nodes).Error
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *nodeRepo) ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]*models.FileNode, error) {
	var nodes []*models.FileNode
	err := r.db.WithContext(ctx).
		Where("in_trash = true AND trashed_at < ?", cutoff).
		Find(&nodes).Error
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *nodeRepo) SumSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.FileNode{}).
		Where("owner_id = ? AND is_folder = false", ownerID).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).Error
	return total, err
}
