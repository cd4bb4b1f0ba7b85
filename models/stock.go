package models

import "github.com/shopspring/decimal"

// StockRecord is the persisted ticket stock counter for one resource.
// Invariants: 0 <= RemainingQuantity <= TotalQuantity, and Version is bumped
// on every successful mutation so optimistic writers can detect conflicts.
type StockRecord struct {
	ID                int64           `db:"id" json:"id"`
	ResourceID        string          `db:"resource_id" json:"resource_id"`
	TotalQuantity     int             `db:"total_quantity" json:"total_quantity"`
	RemainingQuantity int             `db:"remaining_quantity" json:"remaining_quantity"`
	Version           int64           `db:"version" json:"version"`
	UnitPrice         decimal.Decimal `db:"unit_price" json:"unit_price"`
}

func (StockRecord) TableName() string {
	return "ticket_stocks"
}
