package sales

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// zeroedStatuses are folded order statuses that remove an order from P&L
var zeroedStatuses = map[string]struct{}{
	"cancelado":   {},
	"cancelada":   {},
	"cancelled":   {},
	"canceled":    {},
	"devolucao":   {},
	"devolvido":   {},
	"devolvida":   {},
	"returned":    {},
	"reembolsado": {},
}

// IsZeroedStatus reports whether an order in this status contributes nothing
// to P&L. Matching ignores case and accents.
func IsZeroedStatus(status string) bool {
	_, ok := zeroedStatuses[shared.Fold(status)]
	return ok
}

// FinancialInput is the raw material of one order's reconciliation
type FinancialInput struct {
	Items            []LineItem
	OrderTotal       decimal.Decimal
	ShippingReceived decimal.Decimal
	ShippingCost     decimal.Decimal
	Commission       decimal.Decimal
	ProductCost      decimal.Decimal
	ExtraCosts       decimal.Decimal
	Coupon           decimal.Decimal
	Taxes            decimal.Decimal
	Zeroed           bool
}

// FinancialBreakdown is the derived P&L view of one order. It is never persisted.
type FinancialBreakdown struct {
	Gross            decimal.Decimal `json:"gross"`
	ShippingReceived decimal.Decimal `json:"shipping_received"`
	ShippingCost     decimal.Decimal `json:"shipping_cost"`
	NetShippingCost  decimal.Decimal `json:"net_shipping_cost"`
	Commission       decimal.Decimal `json:"commission"`
	Taxes            decimal.Decimal `json:"taxes"`
	TaxPercent       decimal.Decimal `json:"tax_percent"`
	ProductCost      decimal.Decimal `json:"product_cost"`
	ExtraCosts       decimal.Decimal `json:"extra_costs"`
	Coupon           decimal.Decimal `json:"coupon"`
	NetReceivable    decimal.Decimal `json:"net_receivable"`
	Profit           decimal.Decimal `json:"profit"`
	MarginValue      decimal.Decimal `json:"margin_value"`
	MarginPercent    decimal.Decimal `json:"margin_percent"`
	Zeroed           bool            `json:"zeroed"`
}

// GrossValue is Σ unitPrice × quantity, or orderTotal when there are no items
func GrossValue(items []LineItem, orderTotal decimal.Decimal) decimal.Decimal {
	if len(items) == 0 {
		return orderTotal
	}
	gross := decimal.Zero
	for _, item := range items {
		gross = gross.Add(item.Subtotal())
	}
	return gross
}

// ComputeFinancials reconciles one order. It has no error conditions and no
// side effects. A zeroed order reports 0 for every field, margin percent included.
func ComputeFinancials(in FinancialInput) FinancialBreakdown {
	if in.Zeroed {
		return zeroBreakdown()
	}

	gross := GrossValue(in.Items, in.OrderTotal)
	netShippingReceived := in.ShippingReceived
	netShippingCost := in.ShippingCost.Sub(netShippingReceived)

	netReceivable := gross.
		Add(netShippingReceived).
		Sub(in.Commission).
		Sub(in.Taxes).
		Sub(in.Coupon)

	profit := netReceivable.
		Sub(in.ProductCost).
		Sub(in.ExtraCosts).
		Sub(netShippingCost)

	variableCosts := in.Commission.
		Add(in.Taxes).
		Add(in.ProductCost).
		Add(in.ExtraCosts).
		Add(in.Coupon).
		Add(in.ShippingCost)
	marginValue := gross.Sub(variableCosts).Add(netShippingReceived)

	taxPercent := decimal.Zero
	marginPercent := decimal.Zero
	if gross.IsPositive() {
		taxPercent = in.Taxes.Div(gross)
		marginPercent = marginValue.Div(gross).Mul(hundred)
	}

	return FinancialBreakdown{
		Gross:            gross,
		ShippingReceived: in.ShippingReceived,
		ShippingCost:     in.ShippingCost,
		NetShippingCost:  netShippingCost,
		Commission:       in.Commission,
		Taxes:            in.Taxes,
		TaxPercent:       taxPercent,
		ProductCost:      in.ProductCost,
		ExtraCosts:       in.ExtraCosts,
		Coupon:           in.Coupon,
		NetReceivable:    netReceivable,
		Profit:           profit,
		MarginValue:      marginValue,
		MarginPercent:    marginPercent,
	}
}

func zeroBreakdown() FinancialBreakdown {
	z := decimal.Zero
	return FinancialBreakdown{
		Gross:            z,
		ShippingReceived: z,
		ShippingCost:     z,
		NetShippingCost:  z,
		Commission:       z,
		Taxes:            z,
		TaxPercent:       z,
		ProductCost:      z,
		ExtraCosts:       z,
		Coupon:           z,
		NetReceivable:    z,
		Profit:           z,
		MarginValue:      z,
		MarginPercent:    z,
		Zeroed:           true,
	}
}

// CoerceAmount converts loosely typed marketplace values into a decimal.
// Missing, non-numeric and non-finite values become 0. In strings the last
// of "." or "," is the decimal mark ("12,50", "1.234,56", "1,234.56").
func CoerceAmount(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int8:
		return decimal.NewFromInt(int64(x))
	case int16:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt32(x)
	case int64:
		return decimal.NewFromInt(x)
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return fromUint(uint64(x))
	case uint16:
		return fromUint(uint64(x))
	case uint32:
		return fromUint(uint64(x))
	case uint64:
		return fromUint(x)
	case json.Number:
		return fromString(x.String())
	case string:
		return fromString(x)
	case *string:
		if x == nil {
			return decimal.Zero
		}
		return fromString(*x)
	}
	return decimal.Zero
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
}

func fromString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}

	mark, group := ",", "."
	if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
		mark, group = ".", ","
	}
	// a repeated mark only groups thousands ("1.234.567")
	if strings.Count(s, mark) > 1 {
		mark, group = "", mark
	}
	normalized := strings.ReplaceAll(s, group, "")
	if mark != "" {
		normalized = strings.Replace(normalized, mark, ".", 1)
	}
	if d, err := decimal.NewFromString(normalized); err == nil {
		return d
	}
	return decimal.Zero
}
