package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BatchStatus summarises feeding for one active batch.
type BatchStatus struct {
	BatchID   primitive.ObjectID `json:"batch_id"`
	Name      string             `json:"name"`
	HeadCount int                `json:"head_count"`
	TotalMass decimal.Decimal    `json:"total_mass"`
	TotalCost decimal.Decimal    `json:"total_cost"`
	WeekMass  decimal.Decimal    `json:"week_mass"`
	WeekCost  decimal.Decimal    `json:"week_cost"`
}

// StockLine summarises one inventory item.
type StockLine struct {
	InventoryID primitive.ObjectID `json:"inventory_id"`
	Name        string             `json:"name"`
	Bundles     decimal.Decimal    `json:"bundles"`
	Mass        decimal.Decimal    `json:"mass"`
}

// StatusReport is the farm status snapshot sent to devices and exported to the spreadsheet.
type StatusReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Batches     []BatchStatus   `json:"batches"`
	Stock       []StockLine     `json:"stock"`
	StockMass   decimal.Decimal `json:"stock_mass"`
}
