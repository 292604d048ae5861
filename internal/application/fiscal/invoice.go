package fiscal

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/shopspring/decimal"
)

const (
	defaultUnit        = "UN"
	defaultPISCOFINS   = "07"
	freightByIssuer    = 0
	freightNone        = 9
	defaultDescription = "Pedido marketplace"
)

// InvoiceDefaults are the issuer and tax fields the order does not carry
type InvoiceDefaults struct {
	IssuerCNPJ        string
	NatureOfOperation string
	NCM               string
	CFOP              string
	ICMSCode          string
}

// BuildInvoice maps an order to NF-e content. Orders without line items are
// invoiced as one line worth the order total.
func BuildInvoice(order *sales.Order, defaults InvoiceDefaults, issuedAt time.Time) fiscal.Invoice {
	inv := fiscal.Invoice{
		NatureOfOperation: defaults.NatureOfOperation,
		IssuedAt:          issuedAt,
		IssuerCNPJ:        defaults.IssuerCNPJ,
		Recipient: fiscal.Recipient{
			Name:     strings.TrimSpace(order.BuyerName),
			Document: order.BuyerDocument,
		},
		Freight:     order.ShippingReceived,
		Discount:    order.Coupon,
		FreightMode: freightNone,
	}
	if order.ShippingReceived.IsPositive() {
		inv.FreightMode = freightByIssuer
	}

	for i, li := range order.Items {
		code := strings.TrimSpace(li.SKU)
		if code == "" {
			code = fmt.Sprintf("%s-%d", order.ExternalID, i+1)
		}
		desc := strings.TrimSpace(li.Name)
		if desc == "" {
			desc = defaultDescription
		}
		inv.Items = append(inv.Items, newInvoiceItem(code, desc, li.Quantity, li.UnitPrice, defaults))
	}
	if len(inv.Items) == 0 {
		inv.Items = append(inv.Items, newInvoiceItem(order.ExternalID,
			defaultDescription+" "+order.ExternalID, decimal.NewFromInt(1), order.Total, defaults))
	}
	return inv
}

func newInvoiceItem(code, desc string, qty, price decimal.Decimal, d InvoiceDefaults) fiscal.InvoiceItem {
	return fiscal.InvoiceItem{
		Code:        code,
		Description: desc,
		NCM:         d.NCM,
		CFOP:        d.CFOP,
		Unit:        defaultUnit,
		Quantity:    qty,
		UnitPrice:   price,
		ICMSCode:    d.ICMSCode,
		PISCode:     defaultPISCOFINS,
		COFINSCode:  defaultPISCOFINS,
	}
}
