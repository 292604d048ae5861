package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemModel is the JSON shape of one persisted line item
type OrderItemModel struct {
	Name      string          `json:"name"`
	SKU       string          `json:"sku,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	AggregateModel
	CompanyID        uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:uq_orders_company_platform_external,priority:1"`
	Platform         integration.PlatformCode `gorm:"type:varchar(30);not null;uniqueIndex:uq_orders_company_platform_external,priority:2"`
	ExternalID       string                   `gorm:"type:varchar(100);not null;uniqueIndex:uq_orders_company_platform_external,priority:3"`
	Status           string                   `gorm:"type:varchar(50);not null;default:'';index"`
	PaymentStatus    string                   `gorm:"type:varchar(50);not null;default:''"`
	ShipmentStatus   string                   `gorm:"type:varchar(50);not null;default:''"`
	Items            []OrderItemModel         `gorm:"type:jsonb;serializer:json"`
	Total            decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingReceived decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingCost     decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	Commission       decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	Taxes            decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	Coupon           decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	ProductCost      decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	ExtraCosts       decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	BuyerName        string                   `gorm:"type:varchar(200)"`
	BuyerDocument    string                   `gorm:"type:varchar(20)"`
	PlacedAt         time.Time                `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *sales.Order {
	o := &sales.Order{
		Platform:         m.Platform,
		ExternalID:       m.ExternalID,
		Status:           m.Status,
		PaymentStatus:    m.PaymentStatus,
		ShipmentStatus:   m.ShipmentStatus,
		Items:            make([]sales.LineItem, 0, len(m.Items)),
		Total:            m.Total,
		ShippingReceived: m.ShippingReceived,
		ShippingCost:     m.ShippingCost,
		Commission:       m.Commission,
		Taxes:            m.Taxes,
		Coupon:           m.Coupon,
		ProductCost:      m.ProductCost,
		ExtraCosts:       m.ExtraCosts,
		BuyerName:        m.BuyerName,
		BuyerDocument:    m.BuyerDocument,
		PlacedAt:         m.PlacedAt,
	}
	m.PopulateAggregateRoot(&o.BaseAggregateRoot)
	o.CompanyID = m.CompanyID
	for _, it := range m.Items {
		o.Items = append(o.Items, sales.LineItem{
			Name:      it.Name,
			SKU:       it.SKU,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return o
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *sales.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.CompanyID = o.CompanyID
	m.Platform = o.Platform
	m.ExternalID = o.ExternalID
	m.Status = o.Status
	m.PaymentStatus = o.PaymentStatus
	m.ShipmentStatus = o.ShipmentStatus
	m.Total = o.Total
	m.ShippingReceived = o.ShippingReceived
	m.ShippingCost = o.ShippingCost
	m.Commission = o.Commission
	m.Taxes = o.Taxes
	m.Coupon = o.Coupon
	m.ProductCost = o.ProductCost
	m.ExtraCosts = o.ExtraCosts
	m.BuyerName = o.BuyerName
	m.BuyerDocument = o.BuyerDocument
	m.PlacedAt = o.PlacedAt
	m.Items = make([]OrderItemModel, 0, len(o.Items))
	for _, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			Name:      it.Name,
			SKU:       it.SKU,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *sales.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
