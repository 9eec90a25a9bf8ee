package minio

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// PutObjectOptions represents options for uploading an object
type PutObjectOptions struct {
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// PutObject uploads an object to the default bucket
func (c *Client) PutObject(ctx context.Context, objectName string, reader io.Reader, size int64, opts *PutObjectOptions) (*ObjectInfo, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if objectName == "" {
		return nil, WrapError("put_object", ErrInvalidObjectName, c.config.Bucket, objectName)
	}

	putOpts := minio.PutObjectOptions{}
	if opts != nil {
		putOpts.ContentType = opts.ContentType
		putOpts.UserMetadata = opts.Metadata
	}

	info, err := c.client.PutObject(ctx, c.config.Bucket, objectName, reader, size, putOpts)
	if err != nil {
		return nil, WrapError("put_object", err, c.config.Bucket, objectName)
	}

	c.logger.Debug("object uploaded",
		zap.String("object", objectName),
		zap.Int64("size", info.Size),
	)
	return &ObjectInfo{
		Key:  info.Key,
		Size: info.Size,
		ETag: info.ETag,
	}, nil
}

// GetObject retrieves an object as a stream; the caller must close it
func (c *Client) GetObject(ctx context.Context, objectName string) (io.ReadCloser, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	obj, err := c.client.GetObject(ctx, c.config.Bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, WrapError("get_object", err, c.config.Bucket, objectName)
	}

	// GetObject is lazy; stat so missing objects fail here, not on first read
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if IsNotFound(err) {
			return nil, WrapError("get_object", ErrObjectNotFound, c.config.Bucket, objectName)
		}
		return nil, WrapError("get_object", err, c.config.Bucket, objectName)
	}
	return obj, nil
}

// StatObject returns metadata about an object
func (c *Client) StatObject(ctx context.Context, objectName string) (*ObjectInfo, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	info, err := c.client.StatObject(ctx, c.config.Bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		if IsNotFound(err) {
			return nil, WrapError("stat_object", ErrObjectNotFound, c.config.Bucket, objectName)
		}
		return nil, WrapError("stat_object", err, c.config.Bucket, objectName)
	}
	return &ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// RemoveObject deletes an object
func (c *Client) RemoveObject(ctx context.Context, objectName string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}

	if err := c.client.RemoveObject(ctx, c.config.Bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return WrapError("remove_object", err, c.config.Bucket, objectName)
	}
	c.logger.Debug("object removed", zap.String("object", objectName))
	return nil
}

// RemoveObjects deletes multiple objects, collecting the first error
func (c *Client) RemoveObjects(ctx context.Context, objectNames []string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}

	for _, name := range objectNames {
		if err := c.RemoveObject(ctx, name); err != nil && !IsNotFound(err) {
			return err
		}
	}
	return nil
}

// ComposeObject concatenates source objects into a destination object
// server-side, in the order given
func (c *Client) ComposeObject(ctx context.Context, destName string, srcNames []string) (*ObjectInfo, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if len(srcNames) == 0 {
		return nil, WrapError("compose_object", ErrInvalidArgument, c.config.Bucket, destName)
	}

	srcs := make([]minio.CopySrcOptions, 0, len(srcNames))
	for _, name := range srcNames {
		srcs = append(srcs, minio.CopySrcOptions{
			Bucket: c.config.Bucket,
			Object: name,
		})
	}
	dst := minio.CopyDestOptions{
		Bucket: c.config.Bucket,
		Object: destName,
	}

	info, err := c.client.ComposeObject(ctx, dst, srcs...)
	if err != nil {
		return nil, WrapError("compose_object", err, c.config.Bucket, destName)
	}

	c.logger.Debug("objects composed",
		zap.String("dest", destName),
		zap.Int("sources", len(srcNames)),
	)
	return &ObjectInfo{
		Key:  info.Key,
		Size: info.Size,
		ETag: info.ETag,
	}, nil
}

// CopyObject copies an object within the default bucket
func (c *Client) CopyObject(ctx context.Context, destName, srcName string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}

	_, err := c.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: c.config.Bucket, Object: destName},
		minio.CopySrcOptions{Bucket: c.config.Bucket, Object: srcName},
	)
	if err != nil {
		return WrapError("copy_object", err, c.config.Bucket, destName)
	}
	return nil
}
