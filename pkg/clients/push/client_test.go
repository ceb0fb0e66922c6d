package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/feedledger/internal/config"
)

func newTestServer(t *testing.T, status int, body string, seen *[]Message) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/--/api/v2/push/send", r.URL.Path)
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSend(t *testing.T) {
	var seen []Message
	srv := newTestServer(t, http.StatusOK, `{"data":[{"status":"ok","id":"ticket-1"}]}`, &seen)

	client := NewClient(config.PushConfig{BaseURL: srv.URL + "/--/api/v2"})
	ticket, err := client.Send(context.Background(), Message{To: "ExponentPushToken[abc]", Title: "Daily report", Body: "all good"})
	require.NoError(t, err)
	assert.Equal(t, "ticket-1", ticket.ID)

	require.Len(t, seen, 1)
	assert.Equal(t, "ExponentPushToken[abc]", seen[0].To)
	assert.Equal(t, "default", seen[0].Sound)
}

func TestSendDeviceNotRegistered(t *testing.T) {
	srv := newTestServer(t, http.StatusOK,
		`{"data":[{"status":"error","message":"not registered","details":{"error":"DeviceNotRegistered"}}]}`, nil)

	client := NewClient(config.PushConfig{BaseURL: srv.URL + "/--/api/v2"})
	_, err := client.Send(context.Background(), Message{To: "ExponentPushToken[gone]", Body: "x"})
	assert.ErrorIs(t, err, ErrDeviceNotRegistered)
}

func TestSendRequestError(t *testing.T) {
	srv := newTestServer(t, http.StatusBadRequest, `{"errors":[{"code":"VALIDATION_ERROR","message":"bad"}]}`, nil)

	client := NewClient(config.PushConfig{BaseURL: srv.URL + "/--/api/v2"})
	_, err := client.Send(context.Background(), Message{To: "t", Body: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VALIDATION_ERROR")

	_, err = client.Send(context.Background(), Message{Body: "x"})
	assert.Error(t, err)
}
