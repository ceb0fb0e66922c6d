package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channel is the delivery route used to reach a registered device.
type Channel string

const (
	ChannelPush     Channel = "push"
	ChannelWhatsApp Channel = "whatsapp"
)

// Device is a notification target: a push token or a WhatsApp number.
type Device struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Channel   Channel            `bson:"channel" json:"channel"`
	Token     string             `bson:"token" json:"token"`
	Label     string             `bson:"label,omitempty" json:"label,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// BroadcastRequest is the payload accepted by the broadcast endpoint.
type BroadcastRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

// BroadcastResult summarises a best-effort fan-out.
type BroadcastResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// OutboundMessageRequest represents a single direct message to a WhatsApp number.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}
