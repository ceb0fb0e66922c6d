package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/service/reporting"
)

// ReportHandler serves the on-demand status report.
type ReportHandler struct {
	svc    *reporting.Service
	logger *zap.Logger
	now    func() time.Time
}

func NewReportHandler(svc *reporting.Service, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger, now: time.Now}
}

type statusReportResponse struct {
	*models.StatusReport
	Text string `json:"text"`
}

// Status handles GET /api/reports/status.
func (h *ReportHandler) Status(c *gin.Context) {
	report, err := h.svc.BatchStatusReport(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, statusReportResponse{StatusReport: report, Text: reporting.RenderText(report)})
}
