package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/repository"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAddFeedTotals(t *testing.T) {
	ctx := context.Background()
	s := New()

	b := &models.Batch{Name: "B1", Active: true}
	require.NoError(t, s.CreateBatch(ctx, b))
	require.False(t, b.ID.IsZero())

	require.NoError(t, s.AddFeedTotals(ctx, b.ID, dec("8"), dec("12")))
	got, err := s.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.FeedTotalMass.Equal(dec("8")))
	assert.True(t, got.FeedCostTotal.Equal(dec("12")))

	err = s.AddFeedTotals(ctx, primitive.NewObjectID(), dec("1"), dec("1"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got.Active = false
	require.NoError(t, s.SaveBatch(ctx, got))
	err = s.AddFeedTotals(ctx, b.ID, dec("1"), dec("1"))
	assert.ErrorIs(t, err, repository.ErrBatchInactive)
}

func TestAddFeedTotalsConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New()
	b := &models.Batch{Name: "B1", Active: true}
	require.NoError(t, s.CreateBatch(ctx, b))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddFeedTotals(ctx, b.ID, dec("2"), dec("3"))
		}()
	}
	wg.Wait()

	got, err := s.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.FeedTotalMass.Equal(dec("100")), "mass %s", got.FeedTotalMass)
	assert.True(t, got.FeedCostTotal.Equal(dec("150")), "cost %s", got.FeedCostTotal)
}

func TestSubtractFeedTotalsClampsAtZero(t *testing.T) {
	ctx := context.Background()
	s := New()
	b := &models.Batch{Name: "B1", Active: true, FeedTotalMass: dec("5"), FeedCostTotal: dec("20")}
	require.NoError(t, s.CreateBatch(ctx, b))

	require.NoError(t, s.SubtractFeedTotals(ctx, b.ID, dec("8"), dec("12")))
	got, err := s.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.FeedTotalMass.IsZero())
	assert.True(t, got.FeedCostTotal.Equal(dec("8")))
}

func TestListFeedingsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	batchID := primitive.NewObjectID()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateFeeding(ctx, &models.FeedingRecord{BatchID: batchID, Date: base.AddDate(0, 0, i)}))
	}
	require.NoError(t, s.CreateFeeding(ctx, &models.FeedingRecord{BatchID: primitive.NewObjectID(), Date: base}))

	all, err := s.ListFeedings(ctx, batchID, repository.FeedingListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, base.AddDate(0, 0, 4), all[0].Date)
	assert.Equal(t, base, all[4].Date)

	limited, err := s.ListFeedings(ctx, batchID, repository.FeedingListOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	since, err := s.ListFeedings(ctx, batchID, repository.FeedingListOpts{Since: base.AddDate(0, 0, 3)})
	require.NoError(t, err)
	assert.Len(t, since, 2)
}

func TestApplyMovement(t *testing.T) {
	ctx := context.Background()
	s := New()
	inv := &models.InventoryRecord{Name: "grower", BundleCount: dec("3")}
	require.NoError(t, s.CreateInventory(ctx, inv))

	require.NoError(t, s.ApplyMovement(ctx, inv.ID, models.Movement{ID: "m1", Type: models.MovementEntry, Bundles: dec("2")}))
	err := s.ApplyMovement(ctx, inv.ID, models.Movement{ID: "m2", Type: models.MovementExit, Bundles: dec("6")})
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	got, err := s.GetInventory(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.BundleCount.Equal(dec("5")))
	require.Len(t, got.Movements, 1)
	assert.Equal(t, "m1", got.Movements[0].ID)

	// returned copies must not alias stored state
	got.Movements[0].ID = "changed"
	again, err := s.GetInventory(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "m1", again.Movements[0].ID)
}

func TestDeleteCostMissingIsNotAnError(t *testing.T) {
	s := New()
	assert.NoError(t, s.DeleteCost(context.Background(), primitive.NewObjectID()))
}

func TestDeleteFeedingMissing(t *testing.T) {
	s := New()
	err := s.DeleteFeeding(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSaveInventoryKeepsStockAndMovements(t *testing.T) {
	ctx := context.Background()
	s := New()
	inv := &models.InventoryRecord{Name: "grower", BundleCount: dec("3")}
	require.NoError(t, s.CreateInventory(ctx, inv))
	require.NoError(t, s.ApplyMovement(ctx, inv.ID, models.Movement{ID: "m1", Type: models.MovementEntry, Bundles: dec("1")}))

	stale := *inv
	stale.Name = "grower 25kg"
	stale.MassPerBundle = dec("25")
	require.NoError(t, s.SaveInventory(ctx, &stale))

	got, err := s.GetInventory(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "grower 25kg", got.Name)
	assert.True(t, got.BundleCount.Equal(dec("4")))
	assert.Len(t, got.Movements, 1)
}

func TestSaveBatchKeepsTotals(t *testing.T) {
	ctx := context.Background()
	s := New()
	b := &models.Batch{Name: "B1", Active: true}
	require.NoError(t, s.CreateBatch(ctx, b))

	stale := *b
	require.NoError(t, s.AddFeedTotals(ctx, b.ID, dec("4"), dec("6")))

	stale.Active = false
	require.NoError(t, s.SaveBatch(ctx, &stale))

	got, err := s.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.True(t, got.FeedTotalMass.Equal(dec("4")))
	assert.True(t, got.FeedCostTotal.Equal(dec("6")))
}
