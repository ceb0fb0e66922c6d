package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Batch is a cohort of livestock tracked together.
type Batch struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Species       string             `bson:"species,omitempty" json:"species,omitempty"`
	HeadCount     int                `bson:"head_count" json:"head_count"`
	StartDate     time.Time          `bson:"start_date" json:"start_date"`
	Active        bool               `bson:"active" json:"active"`
	FeedTotalMass decimal.Decimal    `bson:"feed_total_mass" json:"feed_total_mass"`
	FeedCostTotal decimal.Decimal    `bson:"feed_cost_total" json:"feed_cost_total"`
	ClosedAt      *time.Time         `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
