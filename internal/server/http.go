package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skypan-cloud/skypan-backend/internal/conf"
	"github.com/skypan-cloud/skypan-backend/internal/file/service"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/logger"
	"github.com/skypan-cloud/skypan-backend/internal/pkg/response"
)

type HTTPServer struct {
	server *http.Server
	logger *zap.Logger
}

func NewHTTPServer(
	config *conf.Config,
	logger *zap.Logger,
	fileService *service.FileService,
	uploadService *service.UploadService,
	adminService *service.AdminService,
) *HTTPServer {
	gin.SetMode(config.Server.Mode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	api.Use(UserMiddleware())
	{
		files := api.Group("/files")
		{
			files.POST("", fileService.Upload)
			files.POST("/quick", fileService.QuickUpload)
			files.GET("", fileService.List)
			files.GET("/:id", fileService.Get)
			files.PUT("/:id/content", fileService.UpdateContent)
			files.PUT("/:id/rename", fileService.Rename)
			files.PUT("/:id/move", fileService.Move)
			files.POST("/:id/copy", fileService.Copy)
			files.GET("/:id/download", fileService.Download)
			files.POST("/:id/trash", fileService.Trash)
			files.POST("/:id/restore", fileService.Restore)
			files.DELETE("/:id", fileService.Purge)
			files.GET("/:id/versions", fileService.ListVersions)
			files.GET("/:id/versions/:no/download", fileService.DownloadVersion)
			files.POST("/:id/rollback", fileService.Rollback)
		}

		api.POST("/folders", fileService.CreateFolder)

		trash := api.Group("/trash")
		{
			trash.GET("", fileService.ListTrash)
			trash.DELETE("", fileService.EmptyTrash)
		}

		uploads := api.Group("/uploads")
		{
			uploads.POST("/init", uploadService.Init)
			uploads.PUT("/:id/chunks/:index", uploadService.UploadChunk)
			uploads.GET("/:id", uploadService.Status)
			uploads.POST("/:id/complete", uploadService.Complete)
			uploads.DELETE("/:id", uploadService.Cancel)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/storage/stats", adminService.StorageStats)
			admin.GET("/cache/stats", adminService.CacheStats)
			admin.GET("/outbox/stats", adminService.OutboxStats)
			admin.GET("/files/hot", adminService.HotFiles)
		}
	}

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: logger,
	}
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		log.Info("HTTP request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// RequestIDMiddleware assigns every request an ID, echoed back to the
// client and carried in the request context for downstream logging
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// UserMiddleware resolves the calling user. Authentication happens at
// the gateway; this service trusts the forwarded identity header.
func UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			response.Error(c, http.StatusUnauthorized, "missing X-User-ID header")
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
