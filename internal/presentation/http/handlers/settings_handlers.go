package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixpage/pixpage/internal/application/services"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
)

// SettingsHandlers handles the runtime settings of the installation.
type SettingsHandlers struct {
	settings *services.SettingsService
	logger   *logging.ChanneledLogger
}

// NewSettingsHandlers creates settings handlers with injected dependencies
func NewSettingsHandlers(settings *services.SettingsService, logger *logging.ChanneledLogger) *SettingsHandlers {
	return &SettingsHandlers{settings: settings, logger: logger}
}

// GetSettings handles GET /api/v1/admin/settings
func (h *SettingsHandlers) GetSettings(c *gin.Context) {
	views, err := h.settings.All(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, logging.ChannelSystem, "get_settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": views})
}

// UpdateSettings handles PUT /api/v1/admin/settings. The body maps setting
// keys to values; an empty value clears a stored setting.
func (h *SettingsHandlers) UpdateSettings(c *gin.Context) {
	start := time.Now()

	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	views, err := h.settings.Set(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, logging.ChannelSystem, "update_settings", err)
		return
	}

	h.logger.System().Info("Settings updated", "keys", len(req), "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{"settings": views})
}
