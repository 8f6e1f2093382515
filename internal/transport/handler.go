package transport

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-psr-analyzer/internal/config"
	apperrors "go-psr-analyzer/internal/errors"
	"go-psr-analyzer/internal/logger"
	"go-psr-analyzer/internal/service"
	"go-psr-analyzer/pkg/models"
)

// allowedUploadExtensions mirrors the accepted source image formats; the
// payload itself is still verified by decoding.
var allowedUploadExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// NewHandler wires the HTTP routes to the analysis service.
func NewHandler(svc service.AnalysisService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		corsMiddleware(cfg),
	)

	r.GET("/health", healthCheck(svc))

	api := r.Group("/api")
	{
		api.GET("/defaults", getDefaults(svc))
		api.POST("/upload", uploadImage(svc, cfg))
		api.GET("/uploads/:id", getUpload(svc))
		api.DELETE("/uploads/:id", deleteUpload(svc))
		api.POST("/analyze", analyzeImage(svc, cfg))
		api.POST("/preview/:panel", previewPanel(svc, cfg))
		api.POST("/export", exportResults(svc, cfg))
	}

	return r
}

func healthCheck(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Health())
	}
}

func getDefaults(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Defaults())
	}
}

func uploadImage(svc service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		file, header, err := c.Request.FormFile("image")
		if err != nil {
			respondError(c, http.StatusBadRequest, "no image provided", err)
			return
		}
		defer file.Close()

		if ext := strings.ToLower(filepath.Ext(header.Filename)); !allowedUploadExtensions[ext] {
			respondError(c, http.StatusBadRequest, "unsupported file extension",
				errors.New("allowed extensions: png, jpg, jpeg, webp"))
			return
		}

		logger.WithFields(logrus.Fields{
			"filename": header.Filename,
			"size":     header.Size,
			"ip":       c.ClientIP(),
		}).Info("Processing image upload")

		response, err := svc.Upload(ctx, file)
		if err != nil {
			respondAppError(c, "upload failed", err)
			return
		}
		c.JSON(http.StatusOK, response)
	}
}

func getUpload(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		response, err := svc.GetUpload(c.Param("id"))
		if err != nil {
			respondAppError(c, "upload lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, response)
	}
}

func deleteUpload(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteUpload(c.Param("id")); err != nil {
			respondAppError(c, "upload delete failed", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func analyzeImage(svc service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing analysis request")

		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		response, err := svc.Analyze(ctx, req)
		if err != nil {
			respondAppError(c, "analysis failed", err)
			return
		}
		c.JSON(http.StatusOK, response)
	}
}

func previewPanel(svc service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		response, err := svc.Preview(ctx, c.Param("panel"), req)
		if err != nil {
			respondAppError(c, "preview failed", err)
			return
		}
		c.JSON(http.StatusOK, response)
	}
}

func exportResults(svc service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.ExportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"image_id":  req.ImageID,
			"image_url": req.ImageURL,
			"name":      req.Name,
			"ip":        c.ClientIP(),
		}).Info("Queueing export request")

		response, err := svc.Export(ctx, req)
		if err != nil {
			respondAppError(c, "export failed", err)
			return
		}
		c.JSON(http.StatusAccepted, response)
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(corsCfg)
}

// respondAppError maps service errors onto HTTP status codes.
func respondAppError(c *gin.Context, message string, err error) {
	respondError(c, determineStatusCode(err), message, err)
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	response := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
	}
	if err != nil {
		response.Details = err.Error()
	}
	c.AbortWithStatusJSON(code, response)
}
