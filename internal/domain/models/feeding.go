package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedType enumerates the feed formulations a batch can be fed.
type FeedType string

const (
	FeedStarter   FeedType = "starter"
	FeedGrower    FeedType = "grower"
	FeedFinisher  FeedType = "finisher"
	FeedGestation FeedType = "gestation"
	FeedLactation FeedType = "lactation"
	FeedOther     FeedType = "other"
)

// Valid reports whether t is one of the known feed types.
func (t FeedType) Valid() bool {
	switch t {
	case FeedStarter, FeedGrower, FeedFinisher, FeedGestation, FeedLactation, FeedOther:
		return true
	default:
		return false
	}
}

// FeedingRecord is one feeding event logged against a batch.
type FeedingRecord struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	BatchID         primitive.ObjectID  `bson:"batch_id" json:"batch_id"`
	Date            time.Time           `bson:"date" json:"date"`
	FeedType        FeedType            `bson:"feed_type" json:"feed_type"`
	Quantity        decimal.Decimal     `bson:"quantity" json:"quantity"`
	Price           decimal.Decimal     `bson:"price" json:"price"`
	Total           decimal.Decimal     `bson:"total" json:"total"`
	CostRef         *primitive.ObjectID `bson:"cost_ref,omitempty" json:"cost_ref,omitempty"`
	InventoryRef    *primitive.ObjectID `bson:"inventory_ref,omitempty" json:"inventory_ref,omitempty"`
	ConsumedBundles decimal.Decimal     `bson:"consumed_bundles" json:"consumed_bundles"`
	ISOWeek         string              `bson:"iso_week" json:"iso_week"`
	Historical      bool                `bson:"historical" json:"historical"`
	Note            string              `bson:"note,omitempty" json:"note,omitempty"`
	RecordedBy      string              `bson:"recorded_by,omitempty" json:"recorded_by,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updated_at"`
}

// ComputeTotal sets Total to Quantity * Price.
func (r *FeedingRecord) ComputeTotal() {
	r.Total = r.Quantity.Mul(r.Price)
}

// ISOWeekLabel formats t as an ISO-8601 week label such as 2026-W07.
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// FeedingTotals aggregates mass and cost over a set of feeding records.
type FeedingTotals struct {
	BatchID primitive.ObjectID `json:"batch_id"`
	Mass    decimal.Decimal    `json:"mass"`
	Cost    decimal.Decimal    `json:"cost"`
	Records int                `json:"records"`
}

// DailyFeeding is one calendar day of a feeding time series.
type DailyFeeding struct {
	Day  string          `json:"day"`
	Mass decimal.Decimal `json:"mass"`
	Cost decimal.Decimal `json:"cost"`
}
