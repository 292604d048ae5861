package sales

import (
	"github.com/shopspring/decimal"
)

// LineItem is one product line of a marketplace order
type LineItem struct {
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// NewLineItem builds a line item from loosely typed marketplace values
func NewLineItem(name, sku string, unitPrice, quantity any) LineItem {
	return LineItem{
		Name:      name,
		SKU:       sku,
		UnitPrice: CoerceAmount(unitPrice),
		Quantity:  CoerceAmount(quantity),
	}
}

// Subtotal returns unit price × quantity
func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(i.Quantity)
}
