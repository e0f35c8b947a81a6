package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixpage/pixpage/internal/application/services"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
)

// MediaHandlers accepts image uploads from the editor.
type MediaHandlers struct {
	media  *services.MediaService
	logger *logging.ChanneledLogger
}

// NewMediaHandlers creates media handlers with injected dependencies
func NewMediaHandlers(media *services.MediaService, logger *logging.ChanneledLogger) *MediaHandlers {
	return &MediaHandlers{media: media, logger: logger}
}

// UploadMedia handles POST /api/v1/admin/media
func (h *MediaHandlers) UploadMedia(c *gin.Context) {
	start := time.Now()
	h.logger.Media().Debug("Received upload request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req services.UploadInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.media.Upload(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, logging.ChannelMedia, "upload_media", err)
		return
	}

	h.logger.Media().Info("Upload request completed", "id", result.ID, "kind", req.Kind, "duration", time.Since(start))
	c.JSON(http.StatusCreated, result)
}
