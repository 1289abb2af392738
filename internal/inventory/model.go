package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection is the inventory collection name.
const Collection = "inventory"

// Item is one row of the inventory collection. TotalValue is derived from
// quantity and unit cost on every write.
type Item struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Quantity     int             `json:"quantity"`
	Unit         string          `json:"unit,omitempty"`
	CostPerUnit  decimal.Decimal `json:"costPerUnit"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	ReorderLevel int             `json:"reorderLevel,omitempty"`
	Supplier     string          `json:"supplier,omitempty"`
	ExpiryDate   string          `json:"expiryDate,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Deleted      bool            `json:"deleted"`
	DeletedAt    *time.Time      `json:"deletedAt,omitempty"`
}

// Recalc refreshes the derived total value.
func (it *Item) Recalc() {
	it.TotalValue = it.CostPerUnit.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// NeedsReorder reports whether the stock fell to or below the reorder
// level.
func (it Item) NeedsReorder() bool {
	return it.ReorderLevel > 0 && it.Quantity <= it.ReorderLevel
}
