package fiscal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the NF-e content sent for emission
type Invoice struct {
	NatureOfOperation string
	IssuedAt          time.Time
	IssuerCNPJ        string
	Recipient         Recipient
	Items             []InvoiceItem
	Freight           decimal.Decimal
	Discount          decimal.Decimal
	FreightMode       int
	PaymentMethod     string
}

// Recipient is the NF-e recipient (destinatário)
type Recipient struct {
	Name     string
	Document string
	Street   string
	Number   string
	District string
	City     string
	State    string
	ZipCode  string
	Email    string
}

// InvoiceItem is one NF-e product line
type InvoiceItem struct {
	Code        string
	Description string
	NCM         string
	CFOP        string
	Unit        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	ICMSOrigin  int
	ICMSCode    string
	PISCode     string
	COFINSCode  string
}

// Gross returns quantity × unit price
func (i InvoiceItem) Gross() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Total returns the sum of item gross values plus freight minus discount
func (inv Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Gross())
	}
	return total.Add(inv.Freight).Sub(inv.Discount)
}
