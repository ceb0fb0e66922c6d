package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/service/reporting"
)

type fakeReporter struct {
	at        time.Time
	reportErr error
	exportErr error
	exported  bool
}

func (f *fakeReporter) BatchStatusReport(_ context.Context, at time.Time) (*models.StatusReport, error) {
	f.at = at
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	return &models.StatusReport{
		GeneratedAt: at,
		Batches:     []models.BatchStatus{{Name: "Layers", WeekMass: decimal.NewFromInt(20), WeekCost: decimal.NewFromInt(30), TotalMass: decimal.NewFromInt(120), TotalCost: decimal.NewFromInt(180)}},
		StockMass:   decimal.Zero,
	}, nil
}

func (f *fakeReporter) ExportToSheet(context.Context, *models.StatusReport) error {
	f.exported = true
	return f.exportErr
}

type fakeBroadcaster struct {
	title, body string
	calls       int
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, title, body string) (models.BroadcastResult, error) {
	f.calls++
	f.title, f.body = title, body
	return models.BroadcastResult{Sent: 2}, nil
}

var fixedNow = time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)

func newTestScheduler(r Reporter, b Broadcaster) *Scheduler {
	s := NewScheduler("0 20 * * *", time.UTC, r, b, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestRunReport(t *testing.T) {
	rep := &fakeReporter{}
	bc := &fakeBroadcaster{}

	result, err := newTestScheduler(rep, bc).RunReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, fixedNow, rep.at)
	assert.True(t, rep.exported)
	assert.Equal(t, reportTitle, bc.title)
	assert.Contains(t, bc.body, "Layers: 20.0 kg this week")
}

func TestRunReportBroadcastsWhenExportFails(t *testing.T) {
	for _, exportErr := range []error{reporting.ErrExportDisabled, errors.New("quota exceeded")} {
		bc := &fakeBroadcaster{}
		_, err := newTestScheduler(&fakeReporter{exportErr: exportErr}, bc).RunReport(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, bc.calls)
	}
}

func TestRunReportStopsWhenReportFails(t *testing.T) {
	bc := &fakeBroadcaster{}
	_, err := newTestScheduler(&fakeReporter{reportErr: errors.New("db down")}, bc).RunReport(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.Zero(t, bc.calls)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler("every evening", time.UTC, &fakeReporter{}, &fakeBroadcaster{}, nil)
	assert.Error(t, s.Start())

	ok := newTestScheduler(&fakeReporter{}, &fakeBroadcaster{})
	require.NoError(t, ok.Start())
	assert.Len(t, ok.cron.Entries(), 1)
	ok.Stop()
}
