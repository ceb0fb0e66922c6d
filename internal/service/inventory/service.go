// Package inventory manages feed stock counted in bundles. Acquisitions book a
// cost entry; consumption only moves stock.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/repository"
)

var (
	// ErrInvalidInput indicates the request could not be applied as given.
	ErrInvalidInput = errors.New("inventory: invalid input")
	// ErrNotFound indicates the inventory item does not exist.
	ErrNotFound = errors.New("inventory: item not found")
	// ErrInsufficientStock indicates more bundles were requested than are on hand.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// Service exposes stock acquisition and consumption.
type Service struct {
	inventory repository.InventoryStore
	costs     repository.CostStore
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires a new inventory service instance.
func NewService(inventory repository.InventoryStore, costs repository.CostStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{inventory: inventory, costs: costs, logger: logger, now: time.Now}
}

// AddStockInput describes a purchase of feed bundles. A nil InventoryID creates a new item.
type AddStockInput struct {
	InventoryID    *primitive.ObjectID
	Name           string
	FeedType       models.FeedType
	Bundles        decimal.Decimal
	PricePerBundle decimal.Decimal
	MassPerBundle  decimal.Decimal
	Date           time.Time
	Note           string
}

// AddStockResult carries the updated item and the cost entry booked for the purchase.
type AddStockResult struct {
	Inventory *models.InventoryRecord `json:"inventory"`
	Cost      *models.CostEntry       `json:"cost"`
}

// AddStock records an acquisition: one entry movement and exactly one cost entry.
func (s *Service) AddStock(ctx context.Context, in AddStockInput) (*AddStockResult, error) {
	if !in.Bundles.IsPositive() {
		return nil, fmt.Errorf("%w: bundles must be greater than 0", ErrInvalidInput)
	}
	if in.PricePerBundle.IsNegative() {
		return nil, fmt.Errorf("%w: price_per_bundle must be greater than or equal to 0", ErrInvalidInput)
	}
	if in.MassPerBundle.IsNegative() {
		return nil, fmt.Errorf("%w: mass_per_bundle must be greater than or equal to 0", ErrInvalidInput)
	}
	if in.FeedType != "" && !in.FeedType.Valid() {
		return nil, fmt.Errorf("%w: unknown feed type %q", ErrInvalidInput, in.FeedType)
	}

	now := s.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}

	var item *models.InventoryRecord
	if in.InventoryID == nil {
		if strings.TrimSpace(in.Name) == "" {
			return nil, fmt.Errorf("%w: name is required for a new item", ErrInvalidInput)
		}
		item = &models.InventoryRecord{
			Name:           in.Name,
			FeedType:       in.FeedType,
			BundleCount:    decimal.Zero,
			PricePerBundle: in.PricePerBundle,
			MassPerBundle:  in.MassPerBundle,
			Movements:      []models.Movement{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if item.FeedType == "" {
			item.FeedType = models.FeedOther
		}
		if !item.MassPerBundle.IsPositive() {
			item.MassPerBundle = decimal.NewFromInt(models.DefaultMassPerBundle)
		}
		if err := s.inventory.CreateInventory(ctx, item); err != nil {
			return nil, fmt.Errorf("create inventory item: %w", err)
		}
	} else {
		existing, err := s.load(ctx, *in.InventoryID)
		if err != nil {
			return nil, err
		}
		item = existing
	}

	total := in.Bundles.Mul(in.PricePerBundle)
	movement := models.Movement{
		ID:          uuid.NewString(),
		Type:        models.MovementEntry,
		Bundles:     in.Bundles,
		Mass:        in.Bundles.Mul(item.BundleMass()),
		UnitPrice:   in.PricePerBundle,
		Total:       total,
		Description: describe("purchase", in.Note),
		CreatedAt:   now,
	}
	if err := s.inventory.ApplyMovement(ctx, item.ID, movement); err != nil {
		return nil, fmt.Errorf("apply entry movement: %w", err)
	}

	cost := &models.CostEntry{
		Date:        date,
		Category:    models.CostFeed,
		Description: fmt.Sprintf("%s bundles of %s", in.Bundles.String(), item.Name),
		Amount:      total,
		SourceRef:   &item.ID,
		CreatedAt:   now,
	}
	if err := s.costs.CreateCost(ctx, cost); err != nil {
		s.logger.Error("stock added but cost entry not booked",
			zap.String("inventory_id", item.ID.Hex()),
			zap.String("movement_id", movement.ID),
			zap.Error(err))
		return nil, fmt.Errorf("book cost entry: %w", err)
	}

	updated, err := s.load(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock added",
		zap.String("inventory_id", item.ID.Hex()),
		zap.Stringer("bundles", in.Bundles),
		zap.Stringer("amount", total),
		zap.String("cost_id", cost.ID.Hex()))

	return &AddStockResult{Inventory: updated, Cost: cost}, nil
}

// ConsumeStock takes bundles out of stock with an exit movement.
func (s *Service) ConsumeStock(ctx context.Context, id primitive.ObjectID, bundles decimal.Decimal, note string) (*models.Movement, error) {
	if !bundles.IsPositive() {
		return nil, fmt.Errorf("%w: bundles must be greater than 0", ErrInvalidInput)
	}

	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	movement := models.Movement{
		ID:          uuid.NewString(),
		Type:        models.MovementExit,
		Bundles:     bundles,
		Mass:        bundles.Mul(item.BundleMass()),
		UnitPrice:   item.PricePerBundle,
		Total:       bundles.Mul(item.PricePerBundle),
		Description: describe("consumption", note),
		CreatedAt:   s.now().UTC(),
	}

	if err := s.inventory.ApplyMovement(ctx, id, movement); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, fmt.Errorf("%w: %s bundles requested, %s on hand", ErrInsufficientStock, bundles.String(), item.BundleCount.String())
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id.Hex())
		default:
			return nil, fmt.Errorf("apply exit movement: %w", err)
		}
	}

	s.logger.Info("stock consumed", zap.String("inventory_id", id.Hex()), zap.Stringer("bundles", bundles))
	return &movement, nil
}

// Get returns one inventory item.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*models.InventoryRecord, error) {
	return s.load(ctx, id)
}

// List returns every inventory item.
func (s *Service) List(ctx context.Context) ([]*models.InventoryRecord, error) {
	items, err := s.inventory.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return items, nil
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.InventoryRecord, error) {
	item, err := s.inventory.GetInventory(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("load inventory item: %w", err)
	}
	return item, nil
}

func describe(kind, note string) string {
	if note = strings.TrimSpace(note); note != "" {
		return kind + ": " + note
	}
	return kind
}
