package sales

import "github.com/shopspring/decimal"

// FinancialSummary totals the breakdowns of a set of orders
type FinancialSummary struct {
	Orders        int             `json:"orders"`
	ZeroedOrders  int             `json:"zeroed_orders"`
	Gross         decimal.Decimal `json:"gross"`
	NetReceivable decimal.Decimal `json:"net_receivable"`
	Profit        decimal.Decimal `json:"profit"`
	MarginValue   decimal.Decimal `json:"margin_value"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
}

// Summarize adds up breakdowns. MarginPercent is weighted by gross.
func Summarize(breakdowns []FinancialBreakdown) FinancialSummary {
	s := FinancialSummary{
		Gross:         decimal.Zero,
		NetReceivable: decimal.Zero,
		Profit:        decimal.Zero,
		MarginValue:   decimal.Zero,
		MarginPercent: decimal.Zero,
	}
	for _, b := range breakdowns {
		s.Orders++
		if b.Zeroed {
			s.ZeroedOrders++
			continue
		}
		s.Gross = s.Gross.Add(b.Gross)
		s.NetReceivable = s.NetReceivable.Add(b.NetReceivable)
		s.Profit = s.Profit.Add(b.Profit)
		s.MarginValue = s.MarginValue.Add(b.MarginValue)
	}
	if s.Gross.IsPositive() {
		s.MarginPercent = s.MarginValue.Div(s.Gross).Mul(hundred)
	}
	return s
}
