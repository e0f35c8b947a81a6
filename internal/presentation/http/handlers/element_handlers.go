package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixpage/pixpage/internal/application/services"
	"github.com/pixpage/pixpage/internal/domain/entities/checkout"
	"github.com/pixpage/pixpage/internal/domain/layout"
	"github.com/pixpage/pixpage/internal/infrastructure/observability/logging"
)

type moveElementRequest struct {
	Position *layout.Position `json:"position" binding:"required"`
}

type reorderRequest struct {
	Bucket string   `json:"bucket" binding:"required"`
	IDs    []string `json:"ids"`
}

// ElementHandlers exposes the page editor operations.
type ElementHandlers struct {
	elements *services.ElementService
	logger   *logging.ChanneledLogger
}

// NewElementHandlers creates element handlers with injected dependencies
func NewElementHandlers(elements *services.ElementService, logger *logging.ChanneledLogger) *ElementHandlers {
	return &ElementHandlers{elements: elements, logger: logger}
}

// ListElements handles GET /api/v1/admin/pages/:id/elements
func (h *ElementHandlers) ListElements(c *gin.Context) {
	elements, err := h.elements.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, "list_elements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"elements": elements, "count": len(elements)})
}

// AddElement handles POST /api/v1/admin/pages/:id/elements
func (h *ElementHandlers) AddElement(c *gin.Context) {
	start := time.Now()
	pageID := c.Param("id")

	var req services.ElementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	element, err := h.elements.Add(c.Request.Context(), pageID, req)
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, "add_element", err)
		return
	}

	h.logger.Content().Info("Add element request completed", "pageId", pageID, "elementId", element.ID, "duration", time.Since(start))
	c.JSON(http.StatusCreated, element)
}

// UpdateElement handles PUT /api/v1/admin/pages/:id/elements/:elementId
func (h *ElementHandlers) UpdateElement(c *gin.Context) {
	var req services.ElementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	element, err := h.elements.Update(c.Request.Context(), c.Param("id"), c.Param("elementId"), req)
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, "update_element", err)
		return
	}
	c.JSON(http.StatusOK, element)
}

// DeleteElement handles DELETE /api/v1/admin/pages/:id/elements/:elementId
func (h *ElementHandlers) DeleteElement(c *gin.Context) {
	elementID := c.Param("elementId")
	if err := h.elements.Delete(c.Request.Context(), c.Param("id"), elementID); err != nil {
		respondError(c, h.logger, logging.ChannelContent, "delete_element", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": elementID})
}

// MoveElement handles PUT /api/v1/admin/pages/:id/elements/:elementId/position
func (h *ElementHandlers) MoveElement(c *gin.Context) {
	var req moveElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	element, err := h.elements.Move(c.Request.Context(), c.Param("id"), c.Param("elementId"), *req.Position)
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, "move_element", err)
		return
	}
	c.JSON(http.StatusOK, element)
}

// ReorderElements handles PUT /api/v1/admin/pages/:id/layout/order
func (h *ElementHandlers) ReorderElements(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	bucket, err := parseBucket(req.Bucket)
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, "reorder_elements", err)
		return
	}

	elements, err := h.elements.Reorder(c.Request.Context(), c.Param("id"), bucket, req.IDs)
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, "reorder_elements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bucket": bucket.String(), "elements": elements})
}

// CompactElements handles POST /api/v1/admin/pages/:id/layout/compact
func (h *ElementHandlers) CompactElements(c *gin.Context) {
	elements, err := h.elements.Compact(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, logging.ChannelContent, "compact_elements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"elements": elements, "count": len(elements)})
}

func parseBucket(name string) (layout.Bucket, error) {
	for _, b := range layout.Buckets {
		if b.String() == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown bucket %q", checkout.ErrInvalidInput, name)
}
