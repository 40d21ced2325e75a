// internal/handlers/files/files_handler.go
package files

import (
	"errors"
	"mime"
	"net/http"

	"mohandz-service/internal/pkg/response"
	"mohandz-service/internal/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FilesHandler serves stored attachments at the locators written on
// service requests: /files/{bucket}/{object path}.
type FilesHandler struct {
	bucket *storage.FSBucket
	logger *zap.Logger
}

func NewFilesHandler(bucket *storage.FSBucket, logger *zap.Logger) *FilesHandler {
	return &FilesHandler{bucket: bucket, logger: logger}
}

func (h *FilesHandler) Serve(c *gin.Context) {
	if c.Param("bucket") != h.bucket.Name() {
		response.NotFound(c, "file not found")
		return
	}

	obj, err := h.bucket.Open(c.Param("path"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrObjectMissing):
			response.NotFound(c, "file not found")
		case errors.Is(err, storage.ErrInvalidPath):
			response.Error(c, http.StatusBadRequest, "invalid file path", err)
		default:
			h.logger.Error("failed to open attachment", zap.String("path", c.Param("path")), zap.Error(err))
			response.Error(c, http.StatusInternalServerError, "failed to open file", nil)
		}
		return
	}
	defer obj.File.Close()

	headers := map[string]string{
		"Cache-Control":           "public, max-age=86400",
		"X-Content-Type-Options":  "nosniff",
		"Content-Security-Policy": "default-src 'none'; sandbox",
	}
	contentType := obj.ContentType
	if !obj.Inline() {
		contentType = "application/octet-stream"
		headers["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": obj.Name})
	}

	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.File, headers)
}
