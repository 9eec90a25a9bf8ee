package biz

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/file/models"
	apperrors "github.com/skypan-cloud/skypan-backend/internal/pkg/errors"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
)

// ContentRepo persists deduplicated content objects
type ContentRepo interface {
	Create(ctx context.Context, obj *models.ContentObject) error
	GetByID(ctx context.Context, id string) (*models.ContentObject, error)
	GetByHash(ctx context.Context, hash string) (*models.ContentObject, error)
	// IncrementRef adds one reference; fails when the object vanished
	IncrementRef(ctx context.Context, id string) error
	// DecrementRef removes one reference; returns false when the count
	// was already zero
	DecrementRef(ctx context.Context, id string) (bool, error)
	// DeleteIfUnreferenced removes the row only when ref_count is zero;
	// returns true for the caller that actually deleted it
	DeleteIfUnreferenced(ctx context.Context, id string) (bool, error)
	// IsDuplicateHash reports whether err came from the unique hash index
	IsDuplicateHash(err error) bool
	Stats(ctx context.Context) (*StorageStats, error)
}

// BlobStore is the physical object storage backend
type BlobStore interface {
	Put(ctx context.Context, path string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
	Copy(ctx context.Context, destPath, srcPath string) error
	Compose(ctx context.Context, destPath string, srcPaths []string) (int64, error)
	PresignedURL(ctx context.Context, path, downloadName string, expiry time.Duration) (string, error)
}

// StoreResult reports how a store request was satisfied
type StoreResult struct {
	Object *models.ContentObject
	// Deduplicated is true when the bytes already existed and the
	// request joined the existing object instead of inserting
	Deduplicated bool
}

// StorageStats summarizes dedup effectiveness
type StorageStats struct {
	ObjectCount   int64   `json:"object_count"`
	PhysicalBytes int64   `json:"physical_bytes"`
	TotalRefs     int64   `json:"total_refs"`
	LogicalBytes  int64   `json:"logical_bytes"`
	DedupRatio    float64 `json:"dedup_ratio"`
}

// ContentUseCase manages deduplicated blob storage with reference counting
type ContentUseCase struct {
	repo  ContentRepo
	blobs BlobStore
	log   *logger.Logger
}

// NewContentUseCase creates the content use case
func NewContentUseCase(repo ContentRepo, blobs BlobStore, log *logger.Logger) *ContentUseCase {
	return &ContentUseCase{
		repo:  repo,
		blobs: blobs,
		log:   log,
	}
}

// HashBytes computes the content address of a byte slice
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashReader computes the content address while draining a reader
func HashReader(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// blobPath builds a per-object storage path. The object ID keeps
// concurrent writers of the same hash from clobbering each other's
// blob before the unique index picks the winner.
func blobPath(hash, id string) string {
	return fmt.Sprintf("blobs/%s/%s/%s", hash[:2], hash, id)
}

// Store saves bytes under their content address. When the same bytes
// already exist the request joins the existing object and its reference
// count grows by one.
func (uc *ContentUseCase) Store(ctx context.Context, data []byte, contentType string) (*StoreResult, error) {
	hash := HashBytes(data)

	// Fast path: hash already known
	if existing, err := uc.repo.GetByHash(ctx, hash); err == nil {
		if err := uc.repo.IncrementRef(ctx, existing.ID); err == nil {
			uc.log.Debug("content deduplicated", zap.String("hash", hash))
			existing.RefCount++
			return &StoreResult{Object: existing, Deduplicated: true}, nil
		}
		// Object got deleted between lookup and increment; fall through
		// to a fresh insert
	}

	obj := &models.ContentObject{
		ID:          uuid.New().String(),
		Hash:        hash,
		Size:        int64(len(data)),
		ContentType: contentType,
		StoragePath: blobPath(hash, uuid.New().String()),
		RefCount:    1,
		Status:      models.ContentStatusActive,
	}

	if err := uc.blobs.Put(ctx, obj.StoragePath, bytes.NewReader(data), obj.Size, contentType); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageBackend)
	}

	if err := uc.repo.Create(ctx, obj); err != nil {
		if uc.repo.IsDuplicateHash(err) {
			return uc.joinExisting(ctx, obj, hash)
		}
		uc.removeBlob(ctx, obj.StoragePath)
		return nil, err
	}

	uc.log.Info("content stored",
		zap.String("hash", hash),
		zap.Int64("size", obj.Size),
	)
	return &StoreResult{Object: obj}, nil
}

// StoreFromPath adopts an object already sitting in blob storage (the
// merged output of a chunked upload). On dedup the staged object is
// discarded; otherwise it is moved to its content-addressed home.
func (uc *ContentUseCase) StoreFromPath(ctx context.Context, stagedPath, hash string, size int64, contentType string) (*StoreResult, error) {
	if existing, err := uc.repo.GetByHash(ctx, hash); err == nil {
		if err := uc.repo.IncrementRef(ctx, existing.ID); err == nil {
			uc.removeBlob(ctx, stagedPath)
			existing.RefCount++
			return &StoreResult{Object: existing, Deduplicated: true}, nil
		}
	}

	obj := &models.ContentObject{
		ID:          uuid.New().String(),
		Hash:        hash,
		Size:        size,
		ContentType: contentType,
		StoragePath: blobPath(hash, uuid.New().String()),
		RefCount:    1,
		Status:      models.ContentStatusActive,
	}

	if err := uc.blobs.Copy(ctx, obj.StoragePath, stagedPath); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStorageBackend)
	}

	if err := uc.repo.Create(ctx, obj); err != nil {
		uc.removeBlob(ctx, obj.StoragePath)
		if uc.repo.IsDuplicateHash(err) {
			result, jerr := uc.joinExistingByHash(ctx, hash)
			if jerr == nil {
				uc.removeBlob(ctx, stagedPath)
			}
			return result, jerr
		}
		return nil, err
	}

	uc.removeBlob(ctx, stagedPath)
	return &StoreResult{Object: obj}, nil
}

// joinExisting handles losing the insert race: drop our blob, then
// attach to the winner's row.
func (uc *ContentUseCase) joinExisting(ctx context.Context, loser *models.ContentObject, hash string) (*StoreResult, error) {
	uc.removeBlob(ctx, loser.StoragePath)
	return uc.joinExistingByHash(ctx, hash)
}

func (uc *ContentUseCase) joinExistingByHash(ctx context.Context, hash string) (*StoreResult, error) {
	winner, err := uc.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrContentNotFound, hash)
	}
	if err := uc.repo.IncrementRef(ctx, winner.ID); err != nil {
		return nil, err
	}
	winner.RefCount++
	uc.log.Debug("content insert race resolved", zap.String("hash", hash))
	return &StoreResult{Object: winner, Deduplicated: true}, nil
}

// IncrementRef adds a reference to an existing content object
func (uc *ContentUseCase) IncrementRef(ctx context.Context, contentID string) error {
	return uc.repo.IncrementRef(ctx, contentID)
}

// DecrementRef drops a reference. When the last reference goes away
// exactly one caller wins the guarded delete and removes the blob.
func (uc *ContentUseCase) DecrementRef(ctx context.Context, contentID string) (bool, error) {
	obj, err := uc.repo.GetByID(ctx, contentID)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrContentNotFound, contentID)
	}

	decremented, err := uc.repo.DecrementRef(ctx, contentID)
	if err != nil {
		return false, err
	}
	if !decremented {
		// Count was already zero; a concurrent deleter owns cleanup
		return false, nil
	}

	deleted, err := uc.repo.DeleteIfUnreferenced(ctx, contentID)
	if err != nil {
		return false, err
	}
	if deleted {
		uc.removeBlob(ctx, obj.StoragePath)
		uc.log.Info("content garbage collected",
			zap.String("hash", obj.Hash),
			zap.Int64("size", obj.Size),
		)
	}
	return deleted, nil
}

// FindByHash looks up a content object by its content address
func (uc *ContentUseCase) FindByHash(ctx context.Context, hash string) (*models.ContentObject, error) {
	obj, err := uc.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrContentNotFound, hash)
	}
	return obj, nil
}

// Open returns a stream over a content object's bytes
func (uc *ContentUseCase) Open(ctx context.Context, contentID string) (io.ReadCloser, *models.ContentObject, error) {
	obj, err := uc.repo.GetByID(ctx, contentID)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrContentNotFound, contentID)
	}
	rc, err := uc.blobs.Get(ctx, obj.StoragePath)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrStorageBackend)
	}
	return rc, obj, nil
}

// DownloadURL builds a presigned URL for a content object
func (uc *ContentUseCase) DownloadURL(ctx context.Context, contentID, downloadName string, expiry time.Duration) (string, error) {
	obj, err := uc.repo.GetByID(ctx, contentID)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrContentNotFound, contentID)
	}
	url, err := uc.blobs.PresignedURL(ctx, obj.StoragePath, downloadName, expiry)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrStorageBackend)
	}
	return url, nil
}

// Stats reports dedup effectiveness across the store
func (uc *ContentUseCase) Stats(ctx context.Context) (*StorageStats, error) {
	return uc.repo.Stats(ctx)
}

func (uc *ContentUseCase) removeBlob(ctx context.Context, path string) {
	if err := uc.blobs.Remove(ctx, path); err != nil {
		uc.log.Warn("failed to remove blob", zap.String("path", path), zap.Error(err))
	}
}
