package data

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/database"
)

type sessionRepo struct {
	db *database.DB
}

// NewSessionRepo creates the upload session repository
func NewSessionRepo(db *database.DB) biz.SessionRepo {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.UploadSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*models.UploadSession, error) {
	var s models.UploadSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindActive(ctx context.Context, ownerID, hash string) (*models.UploadSession, error) {
	var s models.UploadSession
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND hash = ? AND status = ?", ownerID, hash, models.SessionStatusActive).
		Order("created_at DESC").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AppendChunk records a chunk index under a row lock so concurrent
// chunk uploads merge their indexes instead of overwriting each other
func (r *sessionRepo) AppendChunk(ctx context.Context, id string, index int) (*models.UploadSession, error) {
	var session models.UploadSession
	err := r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&session).Error; err != nil {
			return err
		}
		session.AddChunk(index)
		return tx.Model(&models.UploadSession{}).
			Where("id = ?", id).
			UpdateColumns(map[string]interface{}{
				"received":   session.Received,
				"updated_at": time.Now().UTC(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&models.UploadSession{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *sessionRepo) ListStaleActive(ctx context.Context, cutoff time.Time) ([]*models.UploadSession, error) {
	var sessions []*models.UploadSession
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.SessionStatusActive, cutoff).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
