package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	apperrors "github.com/skypan-cloud/skypan-backend/internal/pkg/errors"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
)

// quotaClient talks to the external accounting service. Enforcement
// fails open: when the service is unreachable or answers strangely, the
// upload proceeds and the incident is logged.
type quotaClient struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewQuotaClient creates the quota service client. An empty baseURL or
// disabled flag yields a client that allows everything.
func NewQuotaClient(baseURL string, timeout time.Duration, enabled bool, log *logger.Logger) biz.QuotaService {
	if !enabled || baseURL == "" {
		return noopQuota{}
	}
	return &quotaClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *quotaClient) CheckQuota(ctx context.Context, ownerID string, addBytes int64) error {
	if addBytes <= 0 {
		return nil
	}

	endpoint := fmt.Sprintf("%s/v1/quota/check?%s", c.baseURL, url.Values{
		"owner_id": {ownerID},
		"bytes":    {strconv.FormatInt(addBytes, 10)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("quota service unreachable, allowing upload",
			zap.String("owner_id", ownerID),
			zap.Int64("bytes", addBytes),
			zap.Error(err),
		)
		return nil
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusForbidden, http.StatusPaymentRequired:
		return apperrors.New(apperrors.ErrQuotaExceeded)
	default:
		c.log.Warn("unexpected quota service status, allowing upload",
			zap.String("owner_id", ownerID),
			zap.Int("status", resp.StatusCode),
		)
		return nil
	}
}

func (c *quotaClient) Commit(ctx context.Context, ownerID string, deltaBytes int64) error {
	if deltaBytes == 0 {
		return nil
	}

	form := url.Values{
		"owner_id": {ownerID},
		"delta":    {strconv.FormatInt(deltaBytes, 10)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/quota/commit", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quota commit rejected with status %d", resp.StatusCode)
	}
	return nil
}

type noopQuota struct{}

func (noopQuota) CheckQuota(ctx context.Context, ownerID string, addBytes int64) error {
	return nil
}

func (noopQuota) Commit(ctx context.Context, ownerID string, deltaBytes int64) error {
	return nil
}
