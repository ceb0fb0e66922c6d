// Package notifications keeps the device registry and fans messages out to it.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/feedledger/internal/domain/models"
	"github.com/mamadbah2/feedledger/internal/metrics"
	"github.com/mamadbah2/feedledger/internal/repository"
	"github.com/mamadbah2/feedledger/pkg/clients/push"
	"github.com/mamadbah2/feedledger/pkg/clients/whatsapp"
)

const maxParallelSends = 8

var (
	ErrInvalidDevice = errors.New("notifications: invalid device")
	ErrNotFound      = errors.New("notifications: device not found")
)

// Sender delivers one message to one device of its channel.
type Sender interface {
	Send(ctx context.Context, device *models.Device, title, body string) error
}

// Service owns the device registry and the broadcast fan-out.
type Service struct {
	store   repository.DeviceStore
	senders map[models.Channel]Sender
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires the dispatcher. Channels without a sender are skipped during broadcast.
func NewService(store repository.DeviceStore, senders map[models.Channel]Sender, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if senders == nil {
		senders = map[models.Channel]Sender{}
	}
	return &Service{store: store, senders: senders, metrics: m, logger: logger, now: time.Now}
}

// Register adds a device to the registry.
func (s *Service) Register(ctx context.Context, channel models.Channel, token, label string) (*models.Device, error) {
	token = strings.TrimSpace(token)
	switch {
	case channel != models.ChannelPush && channel != models.ChannelWhatsApp:
		return nil, fmt.Errorf("%w: unknown channel %q", ErrInvalidDevice, channel)
	case token == "":
		return nil, fmt.Errorf("%w: token is required", ErrInvalidDevice)
	}

	device := &models.Device{
		Channel:   channel,
		Token:     token,
		Label:     strings.TrimSpace(label),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateDevice(ctx, device); err != nil {
		return nil, fmt.Errorf("register device: %w", err)
	}

	s.logger.Info("device registered", zap.String("id", device.ID.Hex()), zap.String("channel", string(channel)))
	return device, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Device, error) {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

func (s *Service) Unregister(ctx context.Context, id primitive.ObjectID) error {
	err := s.store.DeleteDevice(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return fmt.Errorf("unregister device: %w", err)
	}
	return nil
}

// Broadcast sends the message to every registered device. Delivery failures are
// logged and counted but never stop the fan-out; only a registry read error is returned.
func (s *Service) Broadcast(ctx context.Context, title, body string) (models.BroadcastResult, error) {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return models.BroadcastResult{}, fmt.Errorf("list devices: %w", err)
	}

	var (
		mu     sync.Mutex
		result models.BroadcastResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSends)

	for _, device := range devices {
		device := device // per-iteration copy; go directive is 1.21 (pre-loopvar semantics)
		g.Go(func() error {
			err := s.deliver(gctx, device, title, body)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
			} else {
				result.Sent++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("broadcast finished",
		zap.String("title", title),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *Service) deliver(ctx context.Context, device *models.Device, title, body string) error {
	channel := string(device.Channel)

	sender, ok := s.senders[device.Channel]
	if !ok {
		s.metrics.Notification(channel, "skipped")
		s.logger.Warn("no sender configured for channel",
			zap.String("device_id", device.ID.Hex()),
			zap.String("channel", channel))
		return fmt.Errorf("no sender for channel %s", channel)
	}

	if err := sender.Send(ctx, device, title, body); err != nil {
		s.metrics.Notification(channel, "failed")
		s.logger.Warn("notification delivery failed",
			zap.String("device_id", device.ID.Hex()),
			zap.String("channel", channel),
			zap.Error(err))
		return err
	}

	s.metrics.Notification(channel, "sent")
	return nil
}

// PushSender adapts the Expo client to Sender.
type PushSender struct {
	Client push.Client
}

func (p PushSender) Send(ctx context.Context, device *models.Device, title, body string) error {
	_, err := p.Client.Send(ctx, push.Message{To: device.Token, Title: title, Body: body})
	return err
}

// WhatsAppSender adapts the WhatsApp Cloud API client to Sender.
type WhatsAppSender struct {
	Client whatsapp.Client
}

func (w WhatsAppSender) Send(ctx context.Context, device *models.Device, title, body string) error {
	text := body
	if title != "" {
		text = "*" + title + "*\n" + body
	}
	_, err := w.Client.SendTextMessage(ctx, whatsapp.SendTextMessageRequest{To: device.Token, Body: text})
	return err
}
