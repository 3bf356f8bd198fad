// Package uploads relays ad images to content-addressed storage. Type and
// size are rejected locally before the provider is contacted. One attempt,
// no retries.
package uploads

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/billboard-mafia/backend/pkg/response"
	"github.com/billboard-mafia/backend/pkg/storage"
)

// Handler serves POST /upload.
type Handler struct {
	pinner   storage.Pinner
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates an upload handler. pinner may be nil when storage is not
// configured; uploads then fail with a config error.
func NewHandler(pinner storage.Pinner, maxBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{pinner: pinner, maxBytes: maxBytes, logger: logger}
}

// Upload handles POST /upload with a multipart "file" field.
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "No file provided")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !storage.AllowedImageTypes[contentType] {
		response.BadRequest(c, fmt.Sprintf("Invalid file type. Allowed: %s",
			strings.Join(storage.AllowedTypesList(), ", ")))
		return
	}
	if file.Size > h.maxBytes {
		response.BadRequest(c, fmt.Sprintf("File too large. Max size: %dMB", h.maxBytes/1024/1024))
		return
	}

	if h.pinner == nil {
		h.logger.Error("upload requested but storage is not configured")
		response.Internal(c, "IPFS upload not configured")
		return
	}

	body, err := file.Open()
	if err != nil {
		h.logger.Error("open upload", zap.Error(err))
		response.Internal(c, "Failed to upload image")
		return
	}
	defer body.Close()

	result, err := h.pinner.PinFile(c.Request.Context(), file.Filename, contentType, body, file.Size)
	if err != nil {
		h.logger.Error("pin upload", zap.Error(err), zap.String("filename", file.Filename))
		response.Internal(c, "Failed to upload image")
		return
	}

	response.OK(c, gin.H{
		"success":    true,
		"ipfsHash":   result.CID,
		"ipfsUrl":    result.URI,
		"gatewayUrl": result.GatewayURL,
	})
}
