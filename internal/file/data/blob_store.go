package data

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/minio"
)

type blobStore struct {
	client *minio.Client
}

// NewBlobStore adapts the MinIO client to the blob storage interface
func NewBlobStore(client *minio.Client) biz.BlobStore {
	return &blobStore{client: client}
}

func (s *blobStore) Put(ctx context.Context, path string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, path, reader, size, &minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *blobStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.client.GetObject(ctx, path)
}

func (s *blobStore) Remove(ctx context.Context, path string) error {
	return s.client.RemoveObject(ctx, path)
}

func (s *blobStore) Copy(ctx context.Context, destPath, srcPath string) error {
	return s.client.CopyObject(ctx, destPath, srcPath)
}

// Compose merges source objects server-side and returns the merged size
func (s *blobStore) Compose(ctx context.Context, destPath string, srcPaths []string) (int64, error) {
	if _, err := s.client.ComposeObject(ctx, destPath, srcPaths); err != nil {
		return 0, err
	}
	// Compose responses do not always carry the size; stat the result
	info, err := s.client.StatObject(ctx, destPath)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

func (s *blobStore) PresignedURL(ctx context.Context, path, downloadName string, expiry time.Duration) (string, error) {
	params := make(url.Values)
	if downloadName != "" {
		params.Set("response-content-disposition", fmt.Sprintf(`attachment; filename="%s"`, downloadName))
	}
	return s.client.PresignedGetURL(ctx, path, expiry, params)
}
