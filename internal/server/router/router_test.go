package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/feedledger/internal/config"
	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/metrics"
	"github.com/mamadbah2/feedledger/internal/repository/memory"
	"github.com/mamadbah2/feedledger/internal/server/handlers"
	"github.com/mamadbah2/feedledger/internal/service/batches"
	"github.com/mamadbah2/feedledger/internal/service/commands"
	"github.com/mamadbah2/feedledger/internal/service/costs"
	"github.com/mamadbah2/feedledger/internal/service/feeding"
	"github.com/mamadbah2/feedledger/internal/service/inventory"
	"github.com/mamadbah2/feedledger/internal/service/notifications"
	"github.com/mamadbah2/feedledger/internal/service/reporting"
	"github.com/mamadbah2/feedledger/internal/service/whatsapp"
	waclient "github.com/mamadbah2/feedledger/pkg/clients/whatsapp"
)

type recordingWhatsApp struct {
	sent []waclient.SendTextMessageRequest
}

func (r *recordingWhatsApp) SendTextMessage(_ context.Context, req waclient.SendTextMessageRequest) (*waclient.SendTextMessageResponse, error) {
	r.sent = append(r.sent, req)
	return &waclient.SendTextMessageResponse{}, nil
}

type testServer struct {
	engine *gin.Engine
	wa     *recordingWhatsApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ledger := feeding.NewLedger(feeding.Stores{Feedings: store, Batches: store, Inventory: store, Costs: store}, nil, feeding.WithMetrics(m))
	wa := &recordingWhatsApp{}
	notifier := notifications.NewService(store, map[models.Channel]notifications.Sender{
		models.ChannelWhatsApp: notifications.WhatsAppSender{Client: wa},
	}, m, nil)
	reports := reporting.NewService(store, store, ledger, nil, "", time.UTC, nil)
	messaging := whatsapp.NewMetaWhatsAppService(config.WhatsAppConfig{VerifyToken: "verify"}, wa, commands.NewService(ledger, nil), nil)

	h := Handlers{
		Batches:       handlers.NewBatchHandler(batches.NewService(store, nil), nil),
		Feedings:      handlers.NewFeedingHandler(ledger, nil),
		Inventory:     handlers.NewInventoryHandler(inventory.NewService(store, store, nil), nil),
		Costs:         handlers.NewCostHandler(costs.NewService(store, nil), nil),
		Notifications: handlers.NewNotificationHandler(notifier, nil),
		Reports:       handlers.NewReportHandler(reports, nil),
		Webhook:       handlers.NewWebhookHandler(messaging, nil),
	}
	return &testServer{engine: New(h, reg, m, nil), wa: wa}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) createBatch(t *testing.T) models.Batch {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/batches", map[string]any{"name": "Layers", "head_count": 500})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Batch](t, rec)
}

func TestFeedingLifecycle(t *testing.T) {
	s := newTestServer(t)
	batch := s.createBatch(t)

	rec := s.do(t, http.MethodPost, "/api/feedings", map[string]any{
		"batch_id":  batch.ID.Hex(),
		"quantity":  "8",
		"price":     1.5,
		"feed_type": "grower",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.FeedingRecord](t, rec)
	assert.True(t, created.Total.Equal(created.Quantity.Mul(created.Price)))
	assert.Equal(t, "12", created.Total.String())

	rec = s.do(t, http.MethodGet, "/api/batches/"+batch.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Batch](t, rec)
	assert.Equal(t, "8", got.FeedTotalMass.String())
	assert.Equal(t, "12", got.FeedCostTotal.String())

	rec = s.do(t, http.MethodGet, "/api/batches/"+batch.ID.Hex()+"/feedings/totals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	totals := decode[models.FeedingTotals](t, rec)
	assert.Equal(t, 1, totals.Records)

	rec = s.do(t, http.MethodGet, "/api/batches/"+batch.ID.Hex()+"/feedings?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.FeedingRecord](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/batches/"+batch.ID.Hex()+"/feedings/daily?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.DailyFeeding](t, rec), 1)

	rec = s.do(t, http.MethodDelete, "/api/feedings/"+created.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"complete":true`)

	rec = s.do(t, http.MethodDelete, "/api/feedings/"+created.ID.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/batches/"+batch.ID.Hex(), nil)
	got = decode[models.Batch](t, rec)
	assert.True(t, got.FeedTotalMass.IsZero())
	assert.True(t, got.FeedCostTotal.IsZero())
}

func TestFeedingErrorMapping(t *testing.T) {
	s := newTestServer(t)
	batch := s.createBatch(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing quantity", map[string]any{"batch_id": batch.ID.Hex(), "price": 1}, http.StatusBadRequest},
		{"negative price", map[string]any{"batch_id": batch.ID.Hex(), "quantity": 1, "price": -1}, http.StatusBadRequest},
		{"malformed batch id", map[string]any{"batch_id": "xyz", "quantity": 1, "price": 1}, http.StatusBadRequest},
		{"unknown batch", map[string]any{"batch_id": "65f0c1a2b3c4d5e6f7a8b9c0", "quantity": 1, "price": 1}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/feedings", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	rec := s.do(t, http.MethodPost, "/api/batches/"+batch.ID.Hex()+"/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/feedings", map[string]any{"batch_id": batch.ID.Hex(), "quantity": 1, "price": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/batches/"+batch.ID.Hex()+"/close", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/batches/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInventoryAndCosts(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/inventory", map[string]any{"name": "grower", "bundles": 10, "price_per_bundle": "62.5"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[inventory.AddStockResult](t, rec)
	require.NotNil(t, added.Inventory)
	id := added.Inventory.ID.Hex()

	rec = s.do(t, http.MethodPost, "/api/inventory/"+id+"/consume", map[string]any{"bundles": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/inventory/"+id+"/consume", map[string]any{"bundles": 40})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/inventory/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode[models.InventoryRecord](t, rec)
	assert.Equal(t, "6", item.BundleCount.String())

	rec = s.do(t, http.MethodGet, "/api/costs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[costs.Summary](t, rec)
	require.Len(t, summary.Entries, 1)
	assert.Equal(t, "625", summary.Total.String())

	rec = s.do(t, http.MethodGet, "/api/costs?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/costs/"+summary.Entries[0].ID.Hex(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDevicesAndBroadcast(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/devices", map[string]any{"channel": "whatsapp", "token": "224600000000", "label": "manager"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	device := decode[models.Device](t, rec)

	rec = s.do(t, http.MethodPost, "/api/devices", map[string]any{"channel": "fax", "token": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/notifications/broadcast", map[string]any{"title": "Hi", "body": "Feed check at 6pm"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.BroadcastResult{Sent: 1}, decode[models.BroadcastResult](t, rec))
	require.Len(t, s.wa.sent, 1)

	rec = s.do(t, http.MethodGet, "/api/devices", nil)
	assert.Len(t, decode[[]models.Device](t, rec), 1)

	rec = s.do(t, http.MethodDelete, "/api/devices/"+device.ID.Hex(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/devices/"+device.ID.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusReport(t *testing.T) {
	s := newTestServer(t)
	s.createBatch(t)

	rec := s.do(t, http.MethodGet, "/api/reports/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Contains(t, body["text"], "Layers:")
	assert.Len(t, body["batches"], 1)
}

func TestWebhookRoutes(t *testing.T) {
	s := newTestServer(t)
	batch := s.createBatch(t)

	rec := s.do(t, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify&hub.challenge=abc", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=abc", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	payload := models.WebhookPayload{Entry: []models.WebhookEntry{{Changes: []models.WebhookChange{{Value: models.WebhookValue{
		Messages: []models.InboundMessage{{From: "2246", ID: "m1", Type: "text", Text: &models.TextContent{Body: fmt.Sprintf("/feed %s 5 2", batch.ID.Hex())}}},
	}}}}}}
	rec = s.do(t, http.MethodPost, "/webhook", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, s.wa.sent, 1)
	assert.True(t, strings.HasPrefix(s.wa.sent[0].Body, "Feeding saved"), s.wa.sent[0].Body)

	rec = s.do(t, http.MethodGet, "/api/batches/"+batch.ID.Hex(), nil)
	assert.Equal(t, "10", decode[models.Batch](t, rec).FeedCostTotal.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `feedledger_http_request_duration_seconds_count{method="GET",route="/healthz",status="200"} 1`)
}
