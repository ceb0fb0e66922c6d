// Package batches manages the lifecycle of livestock batches.
package batches

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
	ErrInvalidInput  = errors.New("batches: invalid input")
	ErrNotFound      = errors.New("batches: batch not found")
	ErrAlreadyClosed = errors.New("batches: batch already closed")
)

// Service exposes batch operations.
type Service struct {
	store  repository.BatchStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new batch service instance.
func NewService(store repository.BatchStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// CreateInput describes a new batch.
type CreateInput struct {
	Name      string
	Species   string
	HeadCount int
	StartDate time.Time
}

// Create opens a new active batch with zero feed totals.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Batch, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.HeadCount < 0 {
		return nil, fmt.Errorf("%w: head_count must be greater than or equal to 0", ErrInvalidInput)
	}

	now := s.now().UTC()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}

	batch := &models.Batch{
		Name:          name,
		Species:       strings.TrimSpace(in.Species),
		HeadCount:     in.HeadCount,
		StartDate:     start,
		Active:        true,
		FeedTotalMass: decimal.Zero,
		FeedCostTotal: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	s.logger.Info("batch created", zap.String("id", batch.ID.Hex()), zap.String("name", batch.Name))
	return batch, nil
}

// Get returns one batch.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.Batch, error) {
	batch, err := s.store.GetBatch(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}
	return batch, nil
}

// List returns batches ordered by start date.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*models.Batch, error) {
	batches, err := s.store.ListBatches(ctx, repository.BatchListOpts{ActiveOnly: activeOnly})
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// Close marks the batch inactive. Closed batches reject new feeding records.
func (s *Service) Close(ctx context.Context, id primitive.ObjectID) (*models.Batch, error) {
	batch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !batch.Active {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyClosed, id.Hex())
	}

	now := s.now().UTC()
	batch.Active = false
	batch.ClosedAt = &now
	batch.UpdatedAt = now

	if err := s.store.SaveBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("close batch: %w", err)
	}

	s.logger.Info("batch closed",
		zap.String("id", batch.ID.Hex()),
		zap.Stringer("feed_total_mass", batch.FeedTotalMass),
		zap.Stringer("feed_cost_total", batch.FeedCostTotal))
	return batch, nil
}
