package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/service/feeding"
)

// FeedingHandler exposes the feeding ledger.
type FeedingHandler struct {
	ledger *feeding.Ledger
	logger *zap.Logger
}

func NewFeedingHandler(ledger *feeding.Ledger, logger *zap.Logger) *FeedingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedingHandler{ledger: ledger, logger: logger}
}

type recordFeedingRequest struct {
	BatchID         string           `json:"batch_id" binding:"required"`
	Date            *time.Time       `json:"date"`
	FeedType        models.FeedType  `json:"feed_type"`
	Quantity        *decimal.Decimal `json:"quantity" binding:"required"`
	Price           *decimal.Decimal `json:"price" binding:"required"`
	CostRef         *string          `json:"cost_ref"`
	InventoryRef    *string          `json:"inventory_ref"`
	ConsumedBundles *decimal.Decimal `json:"consumed_bundles"`
	ISOWeek         string           `json:"iso_week"`
	Historical      bool             `json:"historical"`
	Note            string           `json:"note"`
	RecordedBy      string           `json:"recorded_by"`
}

func (r recordFeedingRequest) toInput() (feeding.RecordInput, error) {
	batchID, err := parseID(r.BatchID)
	if err != nil {
		return feeding.RecordInput{}, &feeding.ValidationError{Field: "batch_id", Message: "is not a valid id"}
	}
	costRef, err := parseOptionalID(r.CostRef)
	if err != nil {
		return feeding.RecordInput{}, &feeding.ValidationError{Field: "cost_ref", Message: "is not a valid id"}
	}
	inventoryRef, err := parseOptionalID(r.InventoryRef)
	if err != nil {
		return feeding.RecordInput{}, &feeding.ValidationError{Field: "inventory_ref", Message: "is not a valid id"}
	}

	in := feeding.RecordInput{
		BatchID:      batchID,
		FeedType:     r.FeedType,
		Quantity:     *r.Quantity,
		Price:        *r.Price,
		CostRef:      costRef,
		InventoryRef: inventoryRef,
		ISOWeek:      r.ISOWeek,
		Historical:   r.Historical,
		Note:         r.Note,
		RecordedBy:   r.RecordedBy,
	}
	if r.Date != nil {
		in.Date = *r.Date
	}
	if r.ConsumedBundles != nil {
		in.ConsumedBundles = *r.ConsumedBundles
	}
	return in, nil
}

// Record handles POST /api/feedings.
func (h *FeedingHandler) Record(c *gin.Context) {
	var req recordFeedingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	rec, err := h.ledger.RecordFeeding(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

type compensationFailure struct {
	Step  feeding.CompensationStep `json:"step"`
	Error string                   `json:"error"`
}

type deleteFeedingResponse struct {
	Deleted  *models.FeedingRecord `json:"deleted"`
	Complete bool                  `json:"complete"`
	Failures []compensationFailure `json:"failures,omitempty"`
}

// Delete handles DELETE /api/feedings/:id. The record is gone even when some
// cleanup steps failed; those are listed in the response.
func (h *FeedingHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	report, err := h.ledger.DeleteFeeding(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := deleteFeedingResponse{Deleted: report.Record, Complete: report.Complete()}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, compensationFailure{Step: f.Step, Error: f.Err.Error()})
	}
	c.JSON(http.StatusOK, resp)
}

// History handles GET /api/batches/:id/feedings?limit=.
func (h *FeedingHandler) History(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.ledger.HistoryForBatch(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// Totals handles GET /api/batches/:id/feedings/totals.
func (h *FeedingHandler) Totals(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	totals, err := h.ledger.TotalsForBatch(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// Daily handles GET /api/batches/:id/feedings/daily?days=.
func (h *FeedingHandler) Daily(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	days, err := queryInt(c, "days")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series, err := h.ledger.DailySeriesForBatch(c.Request.Context(), id, days)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, series)
}
