package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/qbexport/internal/logger"
	"github.com/timmy/qbexport/internal/repository"
	"github.com/timmy/qbexport/internal/soap"
)

// AdminHandler exposes export bookkeeping over the JSON API: progress,
// diagnostic messages, and the failed-row requeue.
type AdminHandler struct {
	svc      *soap.Service
	mappings *repository.MappingRepository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *soap.Service, mappings *repository.MappingRepository) *AdminHandler {
	return &AdminHandler{svc: svc, mappings: mappings}
}

// GetProgress returns the overall completion percentage and per-migration
// counts.
func (h *AdminHandler) GetProgress(c *gin.Context) {
	stats, percent, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		logger.CtxError(c.Request.Context(), "progress lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "progress lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"percent":    percent,
		"migrations": stats,
	})
}

// ListMessages returns diagnostic messages QuickBooks sent back, newest
// first. Supports limit/offset pagination.
func (h *AdminHandler) ListMessages(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	msgs, err := h.mappings.ListMessages(c.Request.Context(), limit, offset)
	if err != nil {
		logger.CtxError(c.Request.Context(), "message list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "message list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
		"limit":    limit,
		"offset":   offset,
	})
}

// RequeueFailed flips failed mappings back into the export queue.
func (h *AdminHandler) RequeueFailed(c *gin.Context) {
	n, err := h.svc.RequeueFailed(c.Request.Context())
	if err != nil {
		logger.CtxError(c.Request.Context(), "requeue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "requeue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requeued": n})
}
