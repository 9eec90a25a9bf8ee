package minio

import (
	"context"
	"net/url"
	"time"
)

// PresignedGetURL generates a presigned download URL for an object
func (c *Client) PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration, reqParams url.Values) (string, error) {
	if err := c.checkClosed(); err != nil {
		return "", err
	}

	u, err := c.client.PresignedGetObject(ctx, c.config.Bucket, objectName, expiry, reqParams)
	if err != nil {
		return "", WrapError("presigned_get", err, c.config.Bucket, objectName)
	}
	return u.String(), nil
}
