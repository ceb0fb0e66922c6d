// Package reporting builds the farm status report and renders it for
// notifications and the spreadsheet export.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/repository"
	repo "github.com/mamadbah2/feedledger/internal/repository/sheets"
)

const (
	dateLayout = "2006-01-02"
	weekDays   = 7
)

// ErrExportDisabled is returned by ExportToSheet when no spreadsheet is configured.
var ErrExportDisabled = errors.New("reporting: sheets export disabled")

// FeedingSeries is the slice of the feeding ledger the report reads.
type FeedingSeries interface {
	DailySeriesUntil(ctx context.Context, batchID primitive.ObjectID, until time.Time, days int) ([]models.DailyFeeding, error)
}

// Service assembles status reports.
type Service struct {
	batches    repository.BatchStore
	inventory  repository.InventoryStore
	feedings   FeedingSeries
	sheets     repo.Repository
	sheetRange string
	loc        *time.Location
	logger     *zap.Logger
}

// NewService wires a new reporting service instance. sheets may be nil, which disables export.
func NewService(batches repository.BatchStore, inventory repository.InventoryStore, feedings FeedingSeries, sheets repo.Repository, sheetRange string, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		batches:    batches,
		inventory:  inventory,
		feedings:   feedings,
		sheets:     sheets,
		sheetRange: sheetRange,
		loc:        loc,
		logger:     logger,
	}
}

// BatchStatusReport summarises every active batch and the stock on hand.
// Week figures cover the seven calendar days ending at at.
func (s *Service) BatchStatusReport(ctx context.Context, at time.Time) (*models.StatusReport, error) {
	batches, err := s.batches.ListBatches(ctx, repository.BatchListOpts{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list active batches: %w", err)
	}

	report := &models.StatusReport{
		GeneratedAt: at.In(s.loc),
		Batches:     make([]models.BatchStatus, 0, len(batches)),
		Stock:       []models.StockLine{},
		StockMass:   decimal.Zero,
	}

	for _, b := range batches {
		series, err := s.feedings.DailySeriesUntil(ctx, b.ID, at, weekDays)
		if err != nil {
			return nil, fmt.Errorf("load weekly series for batch %s: %w", b.ID.Hex(), err)
		}

		status := models.BatchStatus{
			BatchID:   b.ID,
			Name:      b.Name,
			HeadCount: b.HeadCount,
			TotalMass: b.FeedTotalMass,
			TotalCost: b.FeedCostTotal,
			WeekMass:  decimal.Zero,
			WeekCost:  decimal.Zero,
		}
		for _, day := range series {
			status.WeekMass = status.WeekMass.Add(day.Mass)
			status.WeekCost = status.WeekCost.Add(day.Cost)
		}
		report.Batches = append(report.Batches, status)
	}

	items, err := s.inventory.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	for _, item := range items {
		line := models.StockLine{
			InventoryID: item.ID,
			Name:        item.Name,
			Bundles:     item.BundleCount,
			Mass:        item.StockMass(),
		}
		report.Stock = append(report.Stock, line)
		report.StockMass = report.StockMass.Add(line.Mass)
	}

	return report, nil
}

// RenderText formats the report as a notification body.
func RenderText(report *models.StatusReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Feeding report %s\n", report.GeneratedAt.Format(dateLayout))

	if len(report.Batches) == 0 {
		b.WriteString("No active batches.\n")
	}
	for _, st := range report.Batches {
		fmt.Fprintf(&b, "- %s: %s kg this week (%s), %s kg total (%s)",
			st.Name, st.WeekMass.StringFixed(1), st.WeekCost.StringFixed(2),
			st.TotalMass.StringFixed(1), st.TotalCost.StringFixed(2))
		if st.HeadCount > 0 {
			perHead := st.WeekMass.Div(decimal.NewFromInt(int64(st.HeadCount)))
			fmt.Fprintf(&b, ", %s kg/head", perHead.StringFixed(3))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Stock: %s kg across %d items", report.StockMass.StringFixed(1), len(report.Stock))
	return b.String()
}

// Rows renders one spreadsheet row per batch:
// date, batch, head count, week mass, week cost, total mass, total cost.
func Rows(report *models.StatusReport) [][]interface{} {
	day := report.GeneratedAt.Format(dateLayout)
	rows := make([][]interface{}, 0, len(report.Batches))
	for _, st := range report.Batches {
		rows = append(rows, []interface{}{
			day,
			st.Name,
			st.HeadCount,
			st.WeekMass.String(),
			st.WeekCost.String(),
			st.TotalMass.String(),
			st.TotalCost.String(),
		})
	}
	return rows
}

// ExportToSheet appends the report rows to the configured spreadsheet range.
func (s *Service) ExportToSheet(ctx context.Context, report *models.StatusReport) error {
	if s.sheets == nil {
		return ErrExportDisabled
	}

	rows := Rows(report)
	if err := s.sheets.AppendRows(ctx, s.sheetRange, rows); err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	s.logger.Info("report exported", zap.String("range", s.sheetRange), zap.Int("rows", len(rows)))
	return nil
}
