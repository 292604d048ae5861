package sales

import (
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Charges are the marketplace-reported amounts attached to an order
type Charges struct {
	ShippingReceived decimal.Decimal
	ShippingCost     decimal.Decimal
	Commission       decimal.Decimal
	Taxes            decimal.Decimal
	Coupon           decimal.Decimal
}

// Order is a purchase captured from a marketplace. Orders are never deleted;
// cancellation and returns are status transitions.
type Order struct {
	shared.CompanyAggregateRoot
	Platform         integration.PlatformCode
	ExternalID       string
	Status           string
	PaymentStatus    string
	ShipmentStatus   string
	Items            []LineItem
	Total            decimal.Decimal
	ShippingReceived decimal.Decimal
	ShippingCost     decimal.Decimal
	Commission       decimal.Decimal
	Taxes            decimal.Decimal
	Coupon           decimal.Decimal
	ProductCost      decimal.Decimal
	ExtraCosts       decimal.Decimal
	BuyerName        string
	BuyerDocument    string
	PlacedAt         time.Time
}

// NewOrder creates an order captured from platform
func NewOrder(companyID uuid.UUID, platform integration.PlatformCode, externalID string, items []LineItem, total decimal.Decimal) (*Order, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if !platform.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLATFORM", "Unknown sales platform: "+string(platform))
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External order ID cannot be empty")
	}

	o := &Order{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Platform:             platform,
		ExternalID:           externalID,
		Items:                items,
		Total:                total,
		PlacedAt:             time.Now(),
	}
	o.AddDomainEvent(NewOrderImportedEvent(o))
	return o, nil
}

// SetCharges replaces the marketplace-reported amounts
func (o *Order) SetCharges(c Charges) {
	o.ShippingReceived = c.ShippingReceived
	o.ShippingCost = c.ShippingCost
	o.Commission = c.Commission
	o.Taxes = c.Taxes
	o.Coupon = c.Coupon
	o.Touch()
}

// SetCosts records the linked product cost and operator-entered extra costs
func (o *Order) SetCosts(productCost, extraCosts decimal.Decimal) error {
	if productCost.IsNegative() || extraCosts.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Costs cannot be negative")
	}
	o.ProductCost = productCost
	o.ExtraCosts = extraCosts
	o.Touch()
	return nil
}

// ApplyMarketplaceUpdate folds the latest status report from the marketplace.
// It records a status change event only when the order status actually moved.
func (o *Order) ApplyMarketplaceUpdate(status, paymentStatus, shipmentStatus string) {
	previous := o.Status
	o.Status = status
	o.PaymentStatus = paymentStatus
	o.ShipmentStatus = shipmentStatus
	o.Touch()

	if previous != "" && shared.Fold(previous) != shared.Fold(status) {
		o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous))
	}
}

// IsZeroed reports whether the order is cancelled or returned
func (o *Order) IsZeroed() bool {
	return IsZeroedStatus(o.Status)
}

// FinancialInput collects the order fields that feed ComputeFinancials
func (o *Order) FinancialInput() FinancialInput {
	return FinancialInput{
		Items:            o.Items,
		OrderTotal:       o.Total,
		ShippingReceived: o.ShippingReceived,
		ShippingCost:     o.ShippingCost,
		Commission:       o.Commission,
		ProductCost:      o.ProductCost,
		ExtraCosts:       o.ExtraCosts,
		Coupon:           o.Coupon,
		Taxes:            o.Taxes,
		Zeroed:           o.IsZeroed(),
	}
}

// Financials computes the order's financial breakdown
func (o *Order) Financials() FinancialBreakdown {
	return ComputeFinancials(o.FinancialInput())
}
