package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/service/notifications"
)

// NotificationHandler exposes the device registry and broadcasts.
type NotificationHandler struct {
	svc    *notifications.Service
	logger *zap.Logger
}

func NewNotificationHandler(svc *notifications.Service, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{svc: svc, logger: logger}
}

type registerDeviceRequest struct {
	Channel models.Channel `json:"channel" binding:"required"`
	Token   string         `json:"token" binding:"required"`
	Label   string         `json:"label"`
}

// Register handles POST /api/devices.
func (h *NotificationHandler) Register(c *gin.Context) {
	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	device, err := h.svc.Register(c.Request.Context(), req.Channel, req.Token, req.Label)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, device)
}

// List handles GET /api/devices.
func (h *NotificationHandler) List(c *gin.Context) {
	devices, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// Unregister handles DELETE /api/devices/:id.
func (h *NotificationHandler) Unregister(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.svc.Unregister(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Broadcast handles POST /api/notifications/broadcast.
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req models.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	result, err := h.svc.Broadcast(c.Request.Context(), req.Title, req.Body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
