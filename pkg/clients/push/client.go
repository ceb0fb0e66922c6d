// Package push sends mobile notifications through the Expo push service.
package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/feedledger/internal/config"
)

// ErrDeviceNotRegistered is returned when Expo reports the token as no longer valid.
var ErrDeviceNotRegistered = errors.New("push: device not registered")

// Client sends a notification to one device token.
type Client interface {
	Send(ctx context.Context, msg Message) (*Ticket, error)
}

// Message is a single Expo push message.
type Message struct {
	To    string         `json:"to"`
	Title string         `json:"title,omitempty"`
	Body  string         `json:"body"`
	Sound string         `json:"sound,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// Ticket is Expo's per-message receipt.
type Ticket struct {
	ID      string `json:"id,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details,omitempty"`
}

type sendResponse struct {
	Data   []Ticket `json:"data"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds an Expo push client from configuration.
func NewClient(cfg config.PushConfig) *APIClient {
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.AccessToken != "" {
		c.SetAuthToken(cfg.AccessToken)
	}
	return &APIClient{httpClient: c}
}

func (c *APIClient) Send(ctx context.Context, msg Message) (*Ticket, error) {
	if msg.To == "" {
		return nil, fmt.Errorf("send push: device token is required")
	}
	if msg.Sound == "" {
		msg.Sound = "default"
	}

	result := new(sendResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody([]Message{msg}).
		SetResult(result).
		SetError(result).
		Post("/push/send")
	if err != nil {
		return nil, fmt.Errorf("send push: %w", err)
	}

	if resp.IsError() {
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("expo push error: status=%d, code=%s, message=%s",
				resp.StatusCode(), result.Errors[0].Code, result.Errors[0].Message)
		}
		return nil, fmt.Errorf("expo push error: status=%d", resp.StatusCode())
	}

	if len(result.Data) == 0 {
		return nil, fmt.Errorf("send push: empty response")
	}

	ticket := result.Data[0]
	if ticket.Status != "ok" {
		if ticket.Details.Error == "DeviceNotRegistered" {
			return &ticket, fmt.Errorf("%w: %s", ErrDeviceNotRegistered, msg.To)
		}
		return &ticket, fmt.Errorf("expo push rejected: %s", ticket.Message)
	}
	return &ticket, nil
}
