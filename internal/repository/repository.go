// Package repository declares the persistence contracts shared by the services.
// Implementations live in the mongodb and memory subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/feedledger/internal/domain/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrBatchInactive is returned when totals are added to a closed batch.
	ErrBatchInactive = errors.New("repository: batch is not active")
	// ErrInsufficientStock is returned when an exit movement exceeds the bundles on hand.
	ErrInsufficientStock = errors.New("repository: insufficient stock")
)

// BatchListOpts filters batch listings.
type BatchListOpts struct {
	ActiveOnly bool
}

// FeedingListOpts filters feeding listings. A zero Since means no lower bound,
// a zero Limit means no limit.
type FeedingListOpts struct {
	Since time.Time
	Limit int
}

// BatchStore persists batches and their cumulative feed totals.
type BatchStore interface {
	CreateBatch(ctx context.Context, b *models.Batch) error
	GetBatch(ctx context.Context, id primitive.ObjectID) (*models.Batch, error)
	ListBatches(ctx context.Context, opts BatchListOpts) ([]*models.Batch, error)
	// SaveBatch writes descriptive fields and the active flag. Feed totals are
	// owned by AddFeedTotals and SubtractFeedTotals and are left untouched.
	SaveBatch(ctx context.Context, b *models.Batch) error
	// AddFeedTotals atomically increments the totals of an active batch.
	AddFeedTotals(ctx context.Context, id primitive.ObjectID, mass, cost decimal.Decimal) error
	// SubtractFeedTotals atomically decrements the totals, clamping each at zero.
	SubtractFeedTotals(ctx context.Context, id primitive.ObjectID, mass, cost decimal.Decimal) error
}

// FeedingStore persists feeding records.
type FeedingStore interface {
	CreateFeeding(ctx context.Context, r *models.FeedingRecord) error
	GetFeeding(ctx context.Context, id primitive.ObjectID) (*models.FeedingRecord, error)
	DeleteFeeding(ctx context.Context, id primitive.ObjectID) error
	// ListFeedings returns the batch's records newest first.
	ListFeedings(ctx context.Context, batchID primitive.ObjectID, opts FeedingListOpts) ([]*models.FeedingRecord, error)
}

// InventoryStore persists feed inventory items and their movement logs.
type InventoryStore interface {
	CreateInventory(ctx context.Context, r *models.InventoryRecord) error
	GetInventory(ctx context.Context, id primitive.ObjectID) (*models.InventoryRecord, error)
	ListInventory(ctx context.Context) ([]*models.InventoryRecord, error)
	// SaveInventory updates name, feed type, price and mass per bundle. It never
	// touches the bundle count or the movement log.
	SaveInventory(ctx context.Context, r *models.InventoryRecord) error
	// ApplyMovement appends m and adjusts the bundle count by m.BundleDelta() in one write.
	ApplyMovement(ctx context.Context, id primitive.ObjectID, m models.Movement) error
}

// CostStore persists financial ledger entries.
type CostStore interface {
	CreateCost(ctx context.Context, c *models.CostEntry) error
	GetCost(ctx context.Context, id primitive.ObjectID) (*models.CostEntry, error)
	ListCosts(ctx context.Context, from, to time.Time) ([]*models.CostEntry, error)
	// DeleteCost removes the entry; a missing entry is not an error.
	DeleteCost(ctx context.Context, id primitive.ObjectID) error
}

// DeviceStore persists notification targets.
type DeviceStore interface {
	CreateDevice(ctx context.Context, d *models.Device) error
	ListDevices(ctx context.Context) ([]*models.Device, error)
	DeleteDevice(ctx context.Context, id primitive.ObjectID) error
}

// Store bundles every persistence contract behind a single backend.
type Store interface {
	BatchStore
	FeedingStore
	InventoryStore
	CostStore
	DeviceStore
	Close(ctx context.Context) error
}
