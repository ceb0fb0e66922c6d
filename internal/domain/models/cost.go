package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CostCategory classifies financial ledger rows.
type CostCategory string

const (
	CostFeed       CostCategory = "feed"
	CostMedication CostCategory = "medication"
	CostLabor      CostCategory = "labor"
	CostOther      CostCategory = "other"
)

func (c CostCategory) Valid() bool {
	switch c {
	case CostFeed, CostMedication, CostLabor, CostOther:
		return true
	}
	return false
}

// CostEntry is a financial ledger row representing a monetary expenditure.
type CostEntry struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Date        time.Time           `bson:"date" json:"date"`
	Category    CostCategory        `bson:"category" json:"category"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Amount      decimal.Decimal     `bson:"amount" json:"amount"`
	SourceRef   *primitive.ObjectID `bson:"source_ref,omitempty" json:"source_ref,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
}
