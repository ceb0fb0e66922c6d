package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/service/batches"
)

// BatchHandler exposes batch lifecycle endpoints.
type BatchHandler struct {
	svc    *batches.Service
	logger *zap.Logger
}

func NewBatchHandler(svc *batches.Service, logger *zap.Logger) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{svc: svc, logger: logger}
}

type createBatchRequest struct {
	Name      string     `json:"name" binding:"required"`
	Species   string     `json:"species"`
	HeadCount int        `json:"head_count" binding:"gte=0"`
	StartDate *time.Time `json:"start_date"`
}

// Create handles POST /api/batches.
func (h *BatchHandler) Create(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	in := batches.CreateInput{Name: req.Name, Species: req.Species, HeadCount: req.HeadCount}
	if req.StartDate != nil {
		in.StartDate = *req.StartDate
	}

	batch, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// List handles GET /api/batches?active=true.
func (h *BatchHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	list, err := h.svc.List(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get handles GET /api/batches/:id.
func (h *BatchHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	batch, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// Close handles POST /api/batches/:id/close.
func (h *BatchHandler) Close(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	batch, err := h.svc.Close(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}
