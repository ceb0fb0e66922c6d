package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/service/costs"
)

// CostHandler exposes the cost ledger.
type CostHandler struct {
	svc    *costs.Service
	logger *zap.Logger
}

func NewCostHandler(svc *costs.Service, logger *zap.Logger) *CostHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostHandler{svc: svc, logger: logger}
}

type createCostRequest struct {
	Date        *time.Time          `json:"date"`
	Category    models.CostCategory `json:"category" binding:"required"`
	Description string              `json:"description"`
	Amount      *decimal.Decimal    `json:"amount" binding:"required"`
}

// Create handles POST /api/costs.
func (h *CostHandler) Create(c *gin.Context) {
	var req createCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	in := costs.CreateInput{Category: req.Category, Description: req.Description, Amount: *req.Amount}
	if req.Date != nil {
		in.Date = *req.Date
	}

	entry, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// Summary handles GET /api/costs?from=YYYY-MM-DD&to=YYYY-MM-DD. The to day is inclusive.
func (h *CostHandler) Summary(c *gin.Context) {
	from, err := queryDate(c, "from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !to.IsZero() {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	summary, err := h.svc.Summarize(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Get handles GET /api/costs/:id.
func (h *CostHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	entry, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Delete handles DELETE /api/costs/:id.
func (h *CostHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
