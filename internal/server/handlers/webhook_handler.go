package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	service "github.com/mamadbah2/feedledger/internal/service/whatsapp"
)

const commandTimeout = 30 * time.Second

// WebhookHandler is the WhatsApp command channel. Workers send /feed and
// /totals from their phones; Meta posts them here and each one gets a reply.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger.Named("webhook")}
}

// Verify answers the hub.challenge handshake Meta runs when the callback URL is registered.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.svc.VerifyWebhookToken(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("webhook verification rejected", zap.String("mode", c.Query("hub.mode")), zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive dispatches every command in the callback and acknowledges any
// well-formed payload with 200. Meta redelivers on other statuses, and a
// redelivered /feed would be recorded twice.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	messages := payload.Messages()
	if len(messages) == 0 {
		h.logger.Debug("status callback ignored", zap.String("object", payload.Object))
		c.JSON(http.StatusOK, gin.H{"commands": 0})
		return
	}

	// Commands run to completion even if Meta drops the connection.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), commandTimeout)
	defer cancel()

	if err := h.svc.HandleWebhook(ctx, payload); err != nil {
		h.logger.Error("command replies not delivered", zap.Int("commands", len(messages)), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"commands": len(messages)})
}

// SendMessage lets an operator message a worker directly, e.g. to correct a feeding entry.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	req.To = strings.TrimPrefix(strings.TrimSpace(req.To), "+")
	if req.To == "" || strings.TrimSpace(req.Message) == "" {
		badRequest(c, h.logger, errors.New("to and message must not be blank"))
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("operator message not delivered", zap.String("to", req.To), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"to": req.To})
}
