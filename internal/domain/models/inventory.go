package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultMassPerBundle is the mass of one feed bundle when the item does not say otherwise.
const DefaultMassPerBundle = 40

// MovementType distinguishes stock entering from stock leaving inventory.
type MovementType string

const (
	MovementEntry MovementType = "entry"
	MovementExit  MovementType = "exit"
)

// Movement is an append-only inventory ledger line.
type Movement struct {
	ID          string          `bson:"id" json:"id"`
	Type        MovementType    `bson:"type" json:"type"`
	Bundles     decimal.Decimal `bson:"bundles" json:"bundles"`
	Mass        decimal.Decimal `bson:"mass" json:"mass"`
	UnitPrice   decimal.Decimal `bson:"unit_price" json:"unit_price"`
	Total       decimal.Decimal `bson:"total" json:"total"`
	Description string          `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time       `bson:"created_at" json:"created_at"`
}

// BundleDelta returns the signed change the movement applies to the bundle count.
func (m Movement) BundleDelta() decimal.Decimal {
	if m.Type == MovementExit {
		return m.Bundles.Neg()
	}
	return m.Bundles
}

// InventoryRecord is a feed stock-keeping item counted in bundles.
type InventoryRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	FeedType       FeedType           `bson:"feed_type" json:"feed_type"`
	BundleCount    decimal.Decimal    `bson:"bundle_count" json:"bundle_count"`
	PricePerBundle decimal.Decimal    `bson:"price_per_bundle" json:"price_per_bundle"`
	MassPerBundle  decimal.Decimal    `bson:"mass_per_bundle" json:"mass_per_bundle"`
	Movements      []Movement         `bson:"movements" json:"movements"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// BundleMass returns the mass of one bundle, falling back to DefaultMassPerBundle.
func (r *InventoryRecord) BundleMass() decimal.Decimal {
	if r.MassPerBundle.IsPositive() {
		return r.MassPerBundle
	}
	return decimal.NewFromInt(DefaultMassPerBundle)
}

// StockMass is the mass currently on hand.
func (r *InventoryRecord) StockMass() decimal.Decimal {
	return r.BundleCount.Mul(r.BundleMass())
}
