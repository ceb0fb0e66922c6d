package feeding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHistoryForBatch(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	ledger := newTestLedger(store)
	batch := seedBatch(t, store, true, "0", "0")
	other := seedBatch(t, store, true, "0", "0")

	for i := 0; i < 35; i++ {
		_, err := ledger.RecordFeeding(ctx, RecordInput{
			BatchID:  batch.ID,
			Date:     fixedNow.Add(-time.Duration(i) * time.Hour),
			Quantity: dec("1"),
			Price:    dec("1"),
		})
		require.NoError(t, err)
	}
	_, err := ledger.RecordFeeding(ctx, RecordInput{BatchID: other.ID, Quantity: dec("1"), Price: dec("1")})
	require.NoError(t, err)

	history, err := ledger.HistoryForBatch(ctx, batch.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, DefaultHistoryLimit)
	assert.Equal(t, fixedNow, history[0].Date)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].Date.After(history[i].Date), "history must be newest first")
		assert.Equal(t, batch.ID, history[i].BatchID)
	}

	short, err := ledger.HistoryForBatch(ctx, batch.ID, 5)
	require.NoError(t, err)
	assert.Len(t, short, 5)
}

func TestTotalsForBatch(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	ledger := newTestLedger(store)
	batch := seedBatch(t, store, true, "0", "0")

	inputs := [][2]string{{"8", "1.5"}, {"2.25", "4"}, {"0", "3"}}
	for _, in := range inputs {
		_, err := ledger.RecordFeeding(ctx, RecordInput{BatchID: batch.ID, Quantity: dec(in[0]), Price: dec(in[1])})
		require.NoError(t, err)
	}

	totals, err := ledger.TotalsForBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, totals.Records)
	assert.True(t, totals.Mass.Equal(dec("10.25")), "mass %s", totals.Mass)
	assert.True(t, totals.Cost.Equal(dec("21")), "cost %s", totals.Cost)

	empty, err := ledger.TotalsForBatch(ctx, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Zero(t, empty.Records)
	assert.True(t, empty.Mass.IsZero())
}

func TestDailySeriesForBatch(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	ledger := newTestLedger(store)
	batch := seedBatch(t, store, true, "0", "0")

	day1 := fixedNow.AddDate(0, 0, -6)
	day3 := fixedNow.AddDate(0, 0, -4)
	records := []RecordInput{
		{BatchID: batch.ID, Date: day1.Add(-2 * time.Hour), Quantity: dec("8"), Price: dec("1.5")},
		{BatchID: batch.ID, Date: day1.Add(3 * time.Hour), Quantity: dec("2"), Price: dec("1.5")},
		{BatchID: batch.ID, Date: day3, Quantity: dec("5"), Price: dec("2")},
		// outside the 7-day window
		{BatchID: batch.ID, Date: fixedNow.AddDate(0, 0, -20), Quantity: dec("100"), Price: dec("1")},
	}
	for _, in := range records {
		_, err := ledger.RecordFeeding(ctx, in)
		require.NoError(t, err)
	}

	series, err := ledger.DailySeriesForBatch(ctx, batch.ID, 7)
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, "2026-10-10", series[0].Day)
	assert.True(t, series[0].Mass.Equal(dec("10")), "mass %s", series[0].Mass)
	assert.True(t, series[0].Cost.Equal(dec("15")), "cost %s", series[0].Cost)

	assert.Equal(t, "2026-10-12", series[1].Day)
	assert.True(t, series[1].Mass.Equal(dec("5")))
	assert.True(t, series[1].Cost.Equal(dec("10")))

	all, err := ledger.DailySeriesForBatch(ctx, batch.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "default window covers 30 days")
}

func TestDailySeriesUsesLedgerTimezone(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	loc := time.FixedZone("UTC-5", -5*3600)
	ledger := NewLedger(Stores{Feedings: store, Batches: store, Inventory: store, Costs: store}, nil,
		WithClock(func() time.Time { return fixedNow }), WithLocation(loc))
	batch := seedBatch(t, store, true, "0", "0")

	// 02:00 UTC on the 15th is still the 14th at UTC-5
	_, err := ledger.RecordFeeding(ctx, RecordInput{BatchID: batch.ID, Date: time.Date(2026, 10, 15, 2, 0, 0, 0, time.UTC), Quantity: dec("1"), Price: dec("1")})
	require.NoError(t, err)

	series, err := ledger.DailySeriesForBatch(ctx, batch.ID, 7)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2026-10-14", series[0].Day)
}

func TestDailySeriesWindowStartsAtMidnight(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	ledger := newTestLedger(store)
	batch := seedBatch(t, store, true, "0", "0")

	// seven days back plus half an hour is still the eighth calendar day
	for _, at := range []time.Time{fixedNow.AddDate(0, 0, -7).Add(30 * time.Minute), fixedNow} {
		_, err := ledger.RecordFeeding(ctx, RecordInput{BatchID: batch.ID, Date: at, Quantity: dec("1"), Price: dec("1")})
		require.NoError(t, err)
	}

	series, err := ledger.DailySeriesForBatch(ctx, batch.ID, 7)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2026-10-16", series[0].Day)

	// the first day of the window counts from midnight
	_, err = ledger.RecordFeeding(ctx, RecordInput{BatchID: batch.ID, Date: time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC), Quantity: dec("2"), Price: dec("1")})
	require.NoError(t, err)
	series, err = ledger.DailySeriesForBatch(ctx, batch.ID, 7)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "2026-10-10", series[0].Day)
}

func TestDailySeriesUntilPastDate(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	ledger := newTestLedger(store)
	batch := seedBatch(t, store, true, "0", "0")

	until := time.Date(2026, 10, 5, 18, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{until.AddDate(0, 0, -1), until.Add(2 * time.Hour), fixedNow} {
		_, err := ledger.RecordFeeding(ctx, RecordInput{BatchID: batch.ID, Date: at, Quantity: dec("1"), Price: dec("1")})
		require.NoError(t, err)
	}

	series, err := ledger.DailySeriesUntil(ctx, batch.ID, until, 7)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2026-10-04", series[0].Day)
}
