package service

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skypan-cloud/skypan-backend/internal/file/biz"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/response"
)

// AdminService exposes operational views: dedup stats, cache stats,
// outbox health, hot files
type AdminService struct {
	content   *biz.ContentUseCase
	cache     *biz.CacheUseCase
	publisher *biz.PublisherUseCase
	logger    *logger.Logger
}

// NewAdminService creates the admin HTTP service
func NewAdminService(content *biz.ContentUseCase, cache *biz.CacheUseCase, publisher *biz.PublisherUseCase, log *logger.Logger) *AdminService {
	return &AdminService{
		content:   content,
		cache:     cache,
		publisher: publisher,
		logger:    log,
	}
}

// StorageStats reports deduplication effectiveness
func (s *AdminService) StorageStats(c *gin.Context) {
	stats, err := s.content.Stats(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, stats)
}

// CacheStats reports cache tier effectiveness
func (s *AdminService) CacheStats(c *gin.Context) {
	stats, err := s.cache.Stats(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, stats)
}

// OutboxStats reports pending and failed event deliveries
func (s *AdminService) OutboxStats(c *gin.Context) {
	counts, err := s.publisher.Stats(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, counts)
}

// HotFiles lists the most accessed files
func (s *AdminService) HotFiles(c *gin.Context) {
	n, err := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
	if err != nil || n <= 0 {
		response.BadRequest(c, "invalid limit")
		return
	}

	entries, err := s.cache.TopHot(c.Request.Context(), n)
	if err != nil {
		response.HandleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": entries})
}
