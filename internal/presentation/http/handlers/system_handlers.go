package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixpage/pixpage/internal/infrastructure/caching/types"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/monitoring"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/performance"
)

// Pinger checks that the database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CacheInspector reports cache sizes and hit ratios.
type CacheInspector interface {
	Stats() types.CacheStats
	Monitor() *monitoring.CacheMonitor
}

// WatchCounter reports how many payments are being followed.
type WatchCounter interface {
	Watching() int
}

// SystemHandlers serves health and log level endpoints.
type SystemHandlers struct {
	db          Pinger
	cache       CacheInspector
	watcher     WatchCounter
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	started     time.Time
}

// NewSystemHandlers creates system handlers with injected dependencies
func NewSystemHandlers(db Pinger, cache CacheInspector, watcher WatchCounter, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SystemHandlers {
	return &SystemHandlers{
		db:          db,
		cache:       cache,
		watcher:     watcher,
		logger:      logger,
		perfTracker: perfTracker,
		started:     time.Now(),
	}
}

// Health handles GET /health
func (h *SystemHandlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	database := "ok"
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Database().Error("Health check ping failed", "error", err.Error())
		status = http.StatusServiceUnavailable
		database = "unavailable"
	}

	body := gin.H{
		"status":      "ok",
		"database":    database,
		"uptime":      time.Since(h.started).Round(time.Second).String(),
		"performance": h.perfTracker.Health(),
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if h.cache != nil {
		body["cache"] = h.cache.Stats()
		body["cacheHealth"] = h.cache.Monitor().GetCacheHealth()
	}
	if h.watcher != nil {
		body["watchedPayments"] = h.watcher.Watching()
	}
	c.JSON(status, body)
}

// GetMetrics handles GET /api/v1/admin/metrics
func (h *SystemHandlers) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"overall": h.perfTracker.GetOverallStats(),
		"alerts":  h.perfTracker.Alerts(),
	})
}

// GetLogLevels handles GET /api/v1/admin/logs/levels
func (h *SystemHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.logger.GetChannelLevels())
}

// SetLogLevel handles PUT /api/v1/admin/logs/levels
func (h *SystemHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	level, err := logging.ParseLevel(req.Level)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log level", "details": err.Error()})
		return
	}
	if err := h.logger.SetChannelLevel(logging.Channel(strings.ToLower(req.Channel)), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "failed to set log level",
			"details":  err.Error(),
			"channels": h.logger.ChannelNames(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "channel": req.Channel, "level": level.String()})
}
