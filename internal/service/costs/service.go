// Package costs keeps the farm's cost ledger.
package costs

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
)

var (
	ErrInvalidInput = errors.New("costs: invalid input")
	ErrNotFound     = errors.New("costs: entry not found")
)

type Service struct {
	store  repository.CostStore
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store repository.CostStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// CreateInput describes a manually booked cost.
type CreateInput struct {
	Date        time.Time
	Category    models.CostCategory
	Description string
	Amount      decimal.Decimal
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.CostEntry, error) {
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must be greater than or equal to 0", ErrInvalidInput)
	}

	now := s.now().UTC()
	entry := &models.CostEntry{
		Date:        in.Date,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		CreatedAt:   now,
	}
	if entry.Date.IsZero() {
		entry.Date = now
	}

	if err := s.store.CreateCost(ctx, entry); err != nil {
		return nil, fmt.Errorf("create cost entry: %w", err)
	}
	s.logger.Info("cost booked",
		zap.String("id", entry.ID.Hex()),
		zap.String("category", string(entry.Category)),
		zap.Stringer("amount", entry.Amount))
	return entry, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.CostEntry, error) {
	entry, err := s.store.GetCost(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("load cost entry: %w", err)
	}
	return entry, nil
}

// Summary is the cost ledger over a date range.
type Summary struct {
	From       time.Time                               `json:"from"`
	To         time.Time                               `json:"to"`
	Entries    []*models.CostEntry                     `json:"entries"`
	ByCategory map[models.CostCategory]decimal.Decimal `json:"by_category"`
	Total      decimal.Decimal                         `json:"total"`
}

// Summarize lists entries dated within [from, to] and totals them per category.
// Zero bounds are open.
func (s *Service) Summarize(ctx context.Context, from, to time.Time) (*Summary, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, fmt.Errorf("%w: to is before from", ErrInvalidInput)
	}

	entries, err := s.store.ListCosts(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list cost entries: %w", err)
	}

	summary := &Summary{
		From:       from,
		To:         to,
		Entries:    entries,
		ByCategory: make(map[models.CostCategory]decimal.Decimal),
		Total:      decimal.Zero,
	}
	for _, e := range entries {
		summary.ByCategory[e.Category] = summary.ByCategory[e.Category].Add(e.Amount)
		summary.Total = summary.Total.Add(e.Amount)
	}
	return summary, nil
}

// Delete removes an entry. Missing entries are not an error.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.store.DeleteCost(ctx, id); err != nil {
		return fmt.Errorf("delete cost entry: %w", err)
	}
	return nil
}
