// Package feeding records feed consumption against livestock batches and keeps
// the batch totals, inventory stock and cost entries consistent with it.
package feeding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/metrics"
	"github.com/mamadbah2/feedledger/internal/repository"
)

const (
	DefaultHistoryLimit = 30
	DefaultSeriesDays   = 30
)

// Stores groups the collaborators the ledger reads and mutates.
type Stores struct {
	Feedings  repository.FeedingStore
	Batches   repository.BatchStore
	Inventory repository.InventoryStore
	Costs     repository.CostStore
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLocation sets the timezone used for calendar days and ISO weeks.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithDefaults overrides the default history limit and series window.
func WithDefaults(historyLimit, seriesDays int) Option {
	return func(l *Ledger) {
		if historyLimit > 0 {
			l.historyLimit = historyLimit
		}
		if seriesDays > 0 {
			l.seriesDays = seriesDays
		}
	}
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// Ledger is the feeding-record service.
//
// Batch totals are only changed through the store's atomic AddFeedTotals and
// SubtractFeedTotals, so concurrent submissions against one batch never lose updates.
type Ledger struct {
	feedings  repository.FeedingStore
	batches   repository.BatchStore
	inventory repository.InventoryStore
	costs     repository.CostStore

	logger       *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
	loc          *time.Location
	historyLimit int
	seriesDays   int
}

// NewLedger wires a ledger over the given stores.
func NewLedger(stores Stores, logger *zap.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Ledger{
		feedings:     stores.Feedings,
		batches:      stores.Batches,
		inventory:    stores.Inventory,
		costs:        stores.Costs,
		logger:       logger,
		now:          time.Now,
		loc:          time.UTC,
		historyLimit: DefaultHistoryLimit,
		seriesDays:   DefaultSeriesDays,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordInput is a feeding event submitted by a caller.
type RecordInput struct {
	BatchID         primitive.ObjectID
	Date            time.Time
	FeedType        models.FeedType
	Quantity        decimal.Decimal
	Price           decimal.Decimal
	CostRef         *primitive.ObjectID
	InventoryRef    *primitive.ObjectID
	ConsumedBundles decimal.Decimal
	ISOWeek         string
	Historical      bool
	Note            string
	RecordedBy      string
}

// Validate checks the input without touching any store.
func (in RecordInput) Validate() error {
	switch {
	case in.BatchID.IsZero():
		return &ValidationError{Field: "batch_id", Message: "is required"}
	case in.Quantity.IsNegative():
		return &ValidationError{Field: "quantity", Message: "must be greater than or equal to 0"}
	case in.Price.IsNegative():
		return &ValidationError{Field: "price", Message: "must be greater than or equal to 0"}
	case in.ConsumedBundles.IsNegative():
		return &ValidationError{Field: "consumed_bundles", Message: "must be greater than or equal to 0"}
	case in.FeedType != "" && !in.FeedType.Valid():
		return &ValidationError{Field: "feed_type", Message: fmt.Sprintf("unknown feed type %q", in.FeedType)}
	}
	return nil
}

// RecordFeeding validates the input, adds the record's quantity and total to the
// batch and persists the record. It creates no cost entry: feed cost is booked
// when stock is acquired.
func (l *Ledger) RecordFeeding(ctx context.Context, in RecordInput) (*models.FeedingRecord, error) {
	if err := in.Validate(); err != nil {
		l.metrics.FeedingRejected("validation")
		return nil, err
	}

	now := l.now().UTC()
	rec := &models.FeedingRecord{
		BatchID:         in.BatchID,
		Date:            in.Date,
		FeedType:        in.FeedType,
		Quantity:        in.Quantity,
		Price:           in.Price,
		CostRef:         in.CostRef,
		InventoryRef:    in.InventoryRef,
		ConsumedBundles: in.ConsumedBundles,
		ISOWeek:         in.ISOWeek,
		Historical:      in.Historical,
		Note:            in.Note,
		RecordedBy:      in.RecordedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if rec.Date.IsZero() {
		rec.Date = now
	}
	if rec.FeedType == "" {
		rec.FeedType = models.FeedOther
	}
	if rec.ISOWeek == "" {
		rec.ISOWeek = models.ISOWeekLabel(rec.Date.In(l.loc))
	}
	rec.ComputeTotal()

	if err := l.batches.AddFeedTotals(ctx, rec.BatchID, rec.Quantity, rec.Total); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			l.metrics.FeedingRejected("reference_not_found")
			return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, rec.BatchID.Hex())
		case errors.Is(err, repository.ErrBatchInactive):
			l.metrics.FeedingRejected("invalid_state")
			return nil, fmt.Errorf("%w: %s", ErrInvalidState, rec.BatchID.Hex())
		default:
			return nil, fmt.Errorf("update batch totals: %w", err)
		}
	}

	if err := l.feedings.CreateFeeding(ctx, rec); err != nil {
		if rerr := l.batches.SubtractFeedTotals(ctx, rec.BatchID, rec.Quantity, rec.Total); rerr != nil {
			l.logger.Error("failed to revert batch totals after insert failure",
				zap.String("batch_id", rec.BatchID.Hex()),
				zap.Stringer("quantity", rec.Quantity),
				zap.Stringer("total", rec.Total),
				zap.Error(rerr))
		}
		return nil, fmt.Errorf("persist feeding record: %w", err)
	}

	l.metrics.FeedingRecorded()
	l.logger.Info("feeding recorded",
		zap.String("id", rec.ID.Hex()),
		zap.String("batch_id", rec.BatchID.Hex()),
		zap.String("feed_type", string(rec.FeedType)),
		zap.Stringer("quantity", rec.Quantity),
		zap.Stringer("total", rec.Total))

	return rec, nil
}

// DeletionReport describes what happened after a feeding record was deleted.
type DeletionReport struct {
	Record   *models.FeedingRecord
	Failures []*CompensationError
}

// Complete reports whether every compensation step succeeded.
func (r *DeletionReport) Complete() bool {
	return len(r.Failures) == 0
}

// DeleteFeeding removes the record, then runs each cleanup step independently:
// delete the linked cost entry, revert the batch totals (never below zero) and
// restore consumed bundles to inventory with an appended entry movement.
// Cleanup failures are logged and listed in the report; they never undo the
// deletion and are never returned as the error.
func (l *Ledger) DeleteFeeding(ctx context.Context, id primitive.ObjectID) (*DeletionReport, error) {
	rec, err := l.feedings.GetFeeding(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id.Hex())
		}
		return nil, fmt.Errorf("load feeding record: %w", err)
	}

	// Deleting first means a concurrent second delete sees ErrNotFound and
	// compensation runs once.
	if err := l.feedings.DeleteFeeding(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id.Hex())
		}
		return nil, fmt.Errorf("delete feeding record: %w", err)
	}
	l.metrics.FeedingDeleted()

	report := &DeletionReport{Record: rec}

	if rec.CostRef != nil {
		l.compensate(report, StepCostEntry, func() error {
			return l.costs.DeleteCost(ctx, *rec.CostRef)
		})
	}

	l.compensate(report, StepBatchTotals, func() error {
		return l.batches.SubtractFeedTotals(ctx, rec.BatchID, rec.Quantity, rec.Total)
	})

	if rec.InventoryRef != nil && rec.ConsumedBundles.IsPositive() {
		l.compensate(report, StepInventoryStock, func() error {
			return l.restoreStock(ctx, rec)
		})
	}

	l.logger.Info("feeding deleted",
		zap.String("id", rec.ID.Hex()),
		zap.String("batch_id", rec.BatchID.Hex()),
		zap.Int("compensation_failures", len(report.Failures)))

	return report, nil
}

func (l *Ledger) compensate(report *DeletionReport, step CompensationStep, fn func() error) {
	err := fn()
	if err == nil {
		return
	}

	cerr := &CompensationError{RecordID: report.Record.ID, Step: step, Err: err}
	report.Failures = append(report.Failures, cerr)
	l.metrics.CompensationFailed(string(step))
	l.logger.Error("feeding compensation failed",
		zap.String("id", report.Record.ID.Hex()),
		zap.String("batch_id", report.Record.BatchID.Hex()),
		zap.String("step", string(step)),
		zap.Error(err))
}

func (l *Ledger) restoreStock(ctx context.Context, rec *models.FeedingRecord) error {
	inv, err := l.inventory.GetInventory(ctx, *rec.InventoryRef)
	if err != nil {
		return fmt.Errorf("load inventory %s: %w", rec.InventoryRef.Hex(), err)
	}

	mass := rec.ConsumedBundles.Mul(inv.BundleMass())
	movement := models.Movement{
		ID:        uuid.NewString(),
		Type:      models.MovementEntry,
		Bundles:   rec.ConsumedBundles,
		Mass:      mass,
		UnitPrice: inv.PricePerBundle,
		Total:     rec.ConsumedBundles.Mul(inv.PricePerBundle),
		Description: fmt.Sprintf("reversal of feeding %s: %s bundles (%s kg) returned to stock",
			rec.ID.Hex(), rec.ConsumedBundles.String(), mass.String()),
		CreatedAt: l.now().UTC(),
	}

	if err := l.inventory.ApplyMovement(ctx, inv.ID, movement); err != nil {
		return fmt.Errorf("apply reversal movement: %w", err)
	}
	return nil
}
