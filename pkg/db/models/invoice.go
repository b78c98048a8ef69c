package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the second-precision ISO-8601 form stored in facturas.fecha.
const TimestampLayout = "2006-01-02T15:04:05"

// Invoice is one row of the append-only facturas ledger.
type Invoice struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp     string          `gorm:"column:fecha;not null"`
	PaymentMethod string          `gorm:"column:metodo_pago;not null"`
	Total         decimal.Decimal `gorm:"column:total;not null"`
	Profit        decimal.Decimal `gorm:"column:ganancia;not null"`
	Items         []LineItem      `gorm:"column:items;serializer:json;not null"`
}

func (Invoice) TableName() string {
	return "facturas"
}

// Subtotal sums unit price times quantity over the invoice lines.
func (i Invoice) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range i.Items {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

// LineItem is the frozen description/price/cost snapshot of a cart line.
// The JSON keys match the ledger written by the original desktop till.
type LineItem struct {
	Description string          `json:"descripcion"`
	Quantity    int             `json:"cantidad"`
	UnitPrice   decimal.Decimal `json:"precio"`
	UnitCost    decimal.Decimal `json:"costo"`
}

// Subtotal is unit price times quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Profit is (unit price - unit cost) times quantity.
func (l LineItem) Profit() decimal.Decimal {
	return l.UnitPrice.Sub(l.UnitCost).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// MarshalJSON writes prices as JSON numbers so older readers of the blob keep working.
func (l LineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Description string      `json:"descripcion"`
		Quantity    int         `json:"cantidad"`
		UnitPrice   json.Number `json:"precio"`
		UnitCost    json.Number `json:"costo"`
	}{
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   json.Number(l.UnitPrice.String()),
		UnitCost:    json.Number(l.UnitCost.String()),
	})
}

// ComputeProfit sums the per-line profit.
func ComputeProfit(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Profit())
	}
	return sum
}
