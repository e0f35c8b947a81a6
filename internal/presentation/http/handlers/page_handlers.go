package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixpage/pixpage/internal/application/services"
	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/performance"
)

// previewRequest carries an unsaved template to render. An empty body
// previews the stored page.
type previewRequest struct {
	Template *checkout.Template `json:"template"`
}

// aiEditRequest asks the model to change a page template.
type aiEditRequest struct {
	Command  string             `json:"command" binding:"required"`
	Template *checkout.Template `json:"template"`
	Apply    bool               `json:"apply"`
}

// PageHandlers contains all page-related HTTP handlers
type PageHandlers struct {
	pages       *services.PageService
	elements    *services.ElementService
	aiEditor    *services.TemplateAIService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewPageHandlers creates page handlers with injected dependencies
func NewPageHandlers(pages *services.PageService, elements *services.ElementService, aiEditor *services.TemplateAIService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *PageHandlers {
	return &PageHandlers{
		pages:       pages,
		elements:    elements,
		aiEditor:    aiEditor,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetAllPages handles GET /api/v1/admin/pages
func (h *PageHandlers) GetAllPages(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("get_all_pages_request", "")
	defer marker.Complete()

	pages, err := h.pages.List(c.Request.Context())
	if err != nil {
		marker.SetError(err)
		respondError(c, h.logger, logging.ChannelContent, "get_all_pages", err)
		return
	}

	h.logger.Content().Info("Get all pages request completed", "count", len(pages), "duration", time.Since(start))
	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{
		"pages": pages,
		"count": len(pages),
	})
}

// GetPage handles GET /api/v1/admin/pages/:id
func (h *PageHandlers) GetPage(c *gin.Context) {
	page, err := h.pages.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, "get_page", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreatePage handles POST /api/v1/admin/pages
func (h *PageHandlers) CreatePage(c *gin.Context) {
	start := time.Now()
	h.logger.Content().Debug("Received create page request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req services.PageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	page, err := h.pages.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, "create_page", err)
		return
	}

	h.logger.Content().Info("Create page request completed", "pageId", page.ID, "slug", page.Slug, "duration", time.Since(start))
	c.JSON(http.StatusCreated, page)
}

// UpdatePage handles PUT /api/v1/admin/pages/:id
func (h *PageHandlers) UpdatePage(c *gin.Context) {
	start := time.Now()
	id := c.Param("id")

	var req services.PageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	page, err := h.pages.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, "update_page", err)
		return
	}

	h.logger.Content().Info("Update page request completed", "pageId", id, "duration", time.Since(start))
	c.JSON(http.StatusOK, page)
}

// DeletePage handles DELETE /api/v1/admin/pages/:id
func (h *PageHandlers) DeletePage(c *gin.Context) {
	id := c.Param("id")
	if err := h.pages.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, logging.ChannelContent, "delete_page", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// PreviewPage handles POST /api/v1/admin/pages/:id/preview and answers the
// rendered editor preview document.
func (h *PageHandlers) PreviewPage(c *gin.Context) {
	start := time.Now()
	id := c.Param("id")

	var req previewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	html, err := h.elements.Preview(c.Request.Context(), id, req.Template)
	if err != nil {
		respondError(c, h.logger, logging.ChannelRender, "preview_page", err)
		return
	}

	h.logger.Render().Debug("Preview rendered", "pageId", id, "draft", req.Template != nil, "duration", time.Since(start))
	writeHTML(c, http.StatusOK, string(html))
}

// AIEditPage handles POST /api/v1/admin/pages/:id/ai-edit
func (h *PageHandlers) AIEditPage(c *gin.Context) {
	start := time.Now()
	id := c.Param("id")
	h.logger.AI().Debug("Received ai edit request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req aiEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.aiEditor.Edit(c.Request.Context(), id, req.Command, req.Template, req.Apply)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			h.logger.LogError(logging.ChannelAI, "ai_edit", err, map[string]any{"pageId": id})
			c.JSON(http.StatusBadGateway, gin.H{"error": "ai edit failed", "details": err.Error()})
			return
		}
		respondError(c, h.logger, logging.ChannelAI, "ai_edit", err)
		return
	}

	h.logger.AI().Info("AI edit request completed", "pageId", id, "applied", result.Applied, "duration", time.Since(start))
	c.JSON(http.StatusOK, result)
}
