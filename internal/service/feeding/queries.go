package feeding

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/repository"
)

const dayLayout = "2006-01-02"

// HistoryForBatch returns the batch's most recent records, newest first.
// A non-positive limit uses the configured default.
func (l *Ledger) HistoryForBatch(ctx context.Context, batchID primitive.ObjectID, limit int) ([]*models.FeedingRecord, error) {
	if limit <= 0 {
		limit = l.historyLimit
	}

	records, err := l.feedings.ListFeedings(ctx, batchID, repository.FeedingListOpts{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("load feeding history: %w", err)
	}
	return records, nil
}

// TotalsForBatch sums mass and cost across every record of the batch.
func (l *Ledger) TotalsForBatch(ctx context.Context, batchID primitive.ObjectID) (models.FeedingTotals, error) {
	records, err := l.feedings.ListFeedings(ctx, batchID, repository.FeedingListOpts{})
	if err != nil {
		return models.FeedingTotals{}, fmt.Errorf("load feeding records: %w", err)
	}

	totals := models.FeedingTotals{BatchID: batchID, Mass: decimal.Zero, Cost: decimal.Zero}
	for _, r := range records {
		totals.Mass = totals.Mass.Add(r.Quantity)
		totals.Cost = totals.Cost.Add(r.Total)
		totals.Records++
	}
	return totals, nil
}

// DailySeriesForBatch groups the batch's records of the last days calendar
// days, today included, by day in the ledger's timezone, ascending. Days
// without records are omitted.
func (l *Ledger) DailySeriesForBatch(ctx context.Context, batchID primitive.ObjectID, days int) ([]models.DailyFeeding, error) {
	return l.DailySeriesUntil(ctx, batchID, l.now(), days)
}

// DailySeriesUntil is DailySeriesForBatch with the window ending at until
// instead of the ledger clock.
func (l *Ledger) DailySeriesUntil(ctx context.Context, batchID primitive.ObjectID, until time.Time, days int) ([]models.DailyFeeding, error) {
	if days <= 0 {
		days = l.seriesDays
	}

	since := startOfDay(until.In(l.loc)).AddDate(0, 0, -(days - 1))
	records, err := l.feedings.ListFeedings(ctx, batchID, repository.FeedingListOpts{Since: since})
	if err != nil {
		return nil, fmt.Errorf("load feeding records: %w", err)
	}

	byDay := make(map[string]*models.DailyFeeding)
	for _, r := range records {
		if r.Date.After(until) {
			continue
		}
		key := r.Date.In(l.loc).Format(dayLayout)
		entry, ok := byDay[key]
		if !ok {
			entry = &models.DailyFeeding{Day: key, Mass: decimal.Zero, Cost: decimal.Zero}
			byDay[key] = entry
		}
		entry.Mass = entry.Mass.Add(r.Quantity)
		entry.Cost = entry.Cost.Add(r.Total)
	}

	series := make([]models.DailyFeeding, 0, len(byDay))
	for _, entry := range byDay {
		series = append(series, *entry)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Day < series[j].Day })
	return series, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
