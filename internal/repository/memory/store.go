// Package memory is an in-process implementation of repository.Store used by
// tests and by STORAGE_DRIVER=memory. Every mutation runs under a single mutex,
// which gives the same atomicity the MongoDB backend gets from single-document updates.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	batches   map[primitive.ObjectID]*models.Batch
	feedings  map[primitive.ObjectID]*models.FeedingRecord
	inventory map[primitive.ObjectID]*models.InventoryRecord
	costs     map[primitive.ObjectID]*models.CostEntry
	devices   map[primitive.ObjectID]*models.Device
}

func New() *Store {
	return &Store{
		batches:   make(map[primitive.ObjectID]*models.Batch),
		feedings:  make(map[primitive.ObjectID]*models.FeedingRecord),
		inventory: make(map[primitive.ObjectID]*models.InventoryRecord),
		costs:     make(map[primitive.ObjectID]*models.CostEntry),
		devices:   make(map[primitive.ObjectID]*models.Device),
	}
}

func assignID(id *primitive.ObjectID) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

// Batch methods

func (s *Store) CreateBatch(_ context.Context, b *models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignID(&b.ID)
	cp := *b
	s.batches[b.ID] = &cp
	return nil
}

func (s *Store) GetBatch(_ context.Context, id primitive.ObjectID) (*models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.batches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *Store) ListBatches(_ context.Context, opts repository.BatchListOpts) ([]*models.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		if opts.ActiveOnly && !b.Active {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

func (s *Store) SaveBatch(_ context.Context, b *models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.batches[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name = b.Name
	cur.Species = b.Species
	cur.HeadCount = b.HeadCount
	cur.StartDate = b.StartDate
	cur.Active = b.Active
	cur.ClosedAt = b.ClosedAt
	cur.UpdatedAt = b.UpdatedAt
	return nil
}

func (s *Store) AddFeedTotals(_ context.Context, id primitive.ObjectID, mass, cost decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !b.Active {
		return repository.ErrBatchInactive
	}
	b.FeedTotalMass = b.FeedTotalMass.Add(mass)
	b.FeedCostTotal = b.FeedCostTotal.Add(cost)
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) SubtractFeedTotals(_ context.Context, id primitive.ObjectID, mass, cost decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.FeedTotalMass = decimal.Max(decimal.Zero, b.FeedTotalMass.Sub(mass))
	b.FeedCostTotal = decimal.Max(decimal.Zero, b.FeedCostTotal.Sub(cost))
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// Feeding methods

func (s *Store) CreateFeeding(_ context.Context, r *models.FeedingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignID(&r.ID)
	cp := *r
	s.feedings[r.ID] = &cp
	return nil
}

func (s *Store) GetFeeding(_ context.Context, id primitive.ObjectID) (*models.FeedingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.feedings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) DeleteFeeding(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.feedings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.feedings, id)
	return nil
}

func (s *Store) ListFeedings(_ context.Context, batchID primitive.ObjectID, opts repository.FeedingListOpts) ([]*models.FeedingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.FeedingRecord, 0)
	for _, r := range s.feedings {
		if r.BatchID != batchID {
			continue
		}
		if !opts.Since.IsZero() && r.Date.Before(opts.Since) {
			continue
		}
		cp := *r
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].Date.After(result[j].Date)
	})

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// Inventory methods

func cloneInventory(r *models.InventoryRecord) *models.InventoryRecord {
	cp := *r
	cp.Movements = append([]models.Movement(nil), r.Movements...)
	return &cp
}

func (s *Store) CreateInventory(_ context.Context, r *models.InventoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignID(&r.ID)
	s.inventory[r.ID] = cloneInventory(r)
	return nil
}

func (s *Store) GetInventory(_ context.Context, id primitive.ObjectID) (*models.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.inventory[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneInventory(r), nil
}

func (s *Store) ListInventory(_ context.Context) ([]*models.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.InventoryRecord, 0, len(s.inventory))
	for _, r := range s.inventory {
		result = append(result, cloneInventory(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) SaveInventory(_ context.Context, r *models.InventoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.inventory[r.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name = r.Name
	cur.FeedType = r.FeedType
	cur.PricePerBundle = r.PricePerBundle
	cur.MassPerBundle = r.MassPerBundle
	cur.UpdatedAt = r.UpdatedAt
	return nil
}

func (s *Store) ApplyMovement(_ context.Context, id primitive.ObjectID, m models.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.inventory[id]
	if !ok {
		return repository.ErrNotFound
	}
	next := r.BundleCount.Add(m.BundleDelta())
	if next.IsNegative() {
		return repository.ErrInsufficientStock
	}
	r.BundleCount = next
	r.Movements = append(r.Movements, m)
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Cost methods

func (s *Store) CreateCost(_ context.Context, c *models.CostEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignID(&c.ID)
	cp := *c
	s.costs[c.ID] = &cp
	return nil
}

func (s *Store) GetCost(_ context.Context, id primitive.ObjectID) (*models.CostEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.costs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCosts(_ context.Context, from, to time.Time) ([]*models.CostEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.CostEntry, 0)
	for _, c := range s.costs {
		if !from.IsZero() && c.Date.Before(from) {
			continue
		}
		if !to.IsZero() && c.Date.After(to) {
			continue
		}
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (s *Store) DeleteCost(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.costs, id)
	return nil
}

// Device methods

func (s *Store) CreateDevice(_ context.Context, d *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	assignID(&d.ID)
	cp := *d
	s.devices[d.ID] = &cp
	return nil
}

func (s *Store) ListDevices(_ context.Context) ([]*models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Device, 0, len(s.devices))
	for _, d := range s.devices {
		cp := *d
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) DeleteDevice(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.devices, id)
	return nil
}

// Close is a no-op.
func (s *Store) Close(_ context.Context) error { return nil }
