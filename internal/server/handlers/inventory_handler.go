package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/service/inventory"
)

// InventoryHandler exposes feed stock endpoints.
type InventoryHandler struct {
	svc    *inventory.Service
	logger *zap.Logger
}

func NewInventoryHandler(svc *inventory.Service, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

type addStockRequest struct {
	InventoryID    *string          `json:"inventory_id"`
	Name           string           `json:"name"`
	FeedType       models.FeedType  `json:"feed_type"`
	Bundles        *decimal.Decimal `json:"bundles" binding:"required"`
	PricePerBundle *decimal.Decimal `json:"price_per_bundle" binding:"required"`
	MassPerBundle  *decimal.Decimal `json:"mass_per_bundle"`
	Date           *time.Time       `json:"date"`
	Note           string           `json:"note"`
}

type consumeStockRequest struct {
	Bundles *decimal.Decimal `json:"bundles" binding:"required"`
	Note    string           `json:"note"`
}

// AddStock handles POST /api/inventory. Without inventory_id a new item is created.
func (h *InventoryHandler) AddStock(c *gin.Context) {
	var req addStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	id, err := parseOptionalID(req.InventoryID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	in := inventory.AddStockInput{
		InventoryID:    id,
		Name:           req.Name,
		FeedType:       req.FeedType,
		Bundles:        *req.Bundles,
		PricePerBundle: *req.PricePerBundle,
		Note:           req.Note,
	}
	if req.MassPerBundle != nil {
		in.MassPerBundle = *req.MassPerBundle
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	res, err := h.svc.AddStock(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// List handles GET /api/inventory.
func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Get handles GET /api/inventory/:id.
func (h *InventoryHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	item, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Consume handles POST /api/inventory/:id/consume.
func (h *InventoryHandler) Consume(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req consumeStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	movement, err := h.svc.ConsumeStock(c.Request.Context(), id, *req.Bundles, req.Note)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}
