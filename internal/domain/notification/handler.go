package notification

import (
	"fmt"
	"log/slog"
	"net/http"

	"fanout/internal/common"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the notification domain.
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SendMessage handles POST /api/v1/messages
// Fans the message out synchronously and returns one view per attempt.
func (h *Handler) SendMessage(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	views, err := h.service.Send(c.Request.Context(), &req)
	if err != nil {
		slog.Error("message dispatch failed",
			"error", err,
			"category", req.Category,
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK,
		fmt.Sprintf("Message processed successfully. Sent %d notifications.", len(views)),
		views,
	)
}

// ListCategories handles GET /api/v1/messages/categories
func (h *Handler) ListCategories(c *gin.Context) {
	common.Success(c, http.StatusOK, "Categories retrieved successfully", h.service.Categories())
}

// History handles GET /api/v1/notifications/history
// An optional user_id query parameter narrows the history to one recipient.
func (h *Handler) History(c *gin.Context) {
	views, err := h.service.History(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		slog.Error("history lookup failed", "error", err)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK,
		fmt.Sprintf("Retrieved %d notification records", len(views)),
		views,
	)
}

// ListRecipients handles GET /api/v1/recipients
func (h *Handler) ListRecipients(c *gin.Context) {
	rs, err := h.service.ListRecipients(c.Request.Context())
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, fmt.Sprintf("Retrieved %d recipients", len(rs)), rs)
}

// GetRecipient handles GET /api/v1/recipients/:id
func (h *Handler) GetRecipient(c *gin.Context) {
	r, err := h.service.GetRecipient(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, "", r)
}

// RegisterRoutes registers notification routes to the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/messages", h.SendMessage)
	rg.GET("/messages/categories", h.ListCategories)
	rg.GET("/notifications/history", h.History)
	rg.GET("/recipients", h.ListRecipients)
	rg.GET("/recipients/:id", h.GetRecipient)
}
