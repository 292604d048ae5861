package integration

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Marketplace errors
// ---------------------------------------------------------------------------

var (
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")
	ErrOrderNotFound           = errors.New("integration: platform order not found")
	ErrInvalidCompanyID        = errors.New("integration: invalid company ID")
	ErrInvalidPlatformCode     = errors.New("integration: invalid platform code")
)

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode identifies a sales channel
type PlatformCode string

const (
	PlatformMercadoLivre PlatformCode = "mercado_livre"
	PlatformShopee       PlatformCode = "shopee"
	// PlatformManual marks orders keyed in by an operator
	PlatformManual PlatformCode = "manual"
)

// IsValid returns true if the platform code is known
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformMercadoLivre, PlatformShopee, PlatformManual:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns the channel name shown to operators
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformMercadoLivre:
		return "Mercado Livre"
	case PlatformShopee:
		return "Shopee"
	case PlatformManual:
		return "Manual"
	default:
		return string(c)
	}
}

// ---------------------------------------------------------------------------
// Order status vocabulary shared by the adapters
// ---------------------------------------------------------------------------

// Normalized order statuses written by adapters. They are operator-facing
// Portuguese labels; "Cancelado" and "Devolução" trigger the zeroing rule.
const (
	OrderStatusPending   = "Pendente"
	OrderStatusPaid      = "Pago"
	OrderStatusShipped   = "Enviado"
	OrderStatusDelivered = "Entregue"
	OrderStatusCancelled = "Cancelado"
	OrderStatusReturned  = "Devolução"
)

// ---------------------------------------------------------------------------
// Value objects
// ---------------------------------------------------------------------------

// MarketplaceOrder is an order as reported by a sales channel
type MarketplaceOrder struct {
	ExternalID       string
	Platform         PlatformCode
	Status           string
	RawStatus        string
	PaymentStatus    string
	ShipmentStatus   string
	BuyerName        string
	BuyerDocument    string
	Items            []MarketplaceOrderItem
	TotalAmount      decimal.Decimal
	ShippingReceived decimal.Decimal
	ShippingCost     decimal.Decimal
	Commission       decimal.Decimal
	Coupon           decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MarketplaceOrderItem is one order line as reported by a sales channel
type MarketplaceOrderItem struct {
	ItemID    string
	SKU       string
	Title     string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	SaleFee   decimal.Decimal
}

// Credential carries a company's access to one channel
type Credential struct {
	CompanyID   uuid.UUID
	Platform    PlatformCode
	SellerID    string
	ShopID      string
	AccessToken string
}

// OrderPullRequest asks a channel for orders updated in a time window
type OrderPullRequest struct {
	Credential Credential
	Since      time.Time
	Until      time.Time
	Page       int
	PageSize   int
}

// Validate checks the request and fills paging defaults
func (r *OrderPullRequest) Validate() error {
	if r.Credential.CompanyID == uuid.Nil {
		return ErrInvalidCompanyID
	}
	if !r.Credential.Platform.IsValid() || r.Credential.Platform == PlatformManual {
		return ErrInvalidPlatformCode
	}
	if r.Until.IsZero() {
		r.Until = time.Now()
	}
	if r.Since.After(r.Until) {
		return errors.New("integration: since must be before until")
	}
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 || r.PageSize > 50 {
		r.PageSize = 50
	}
	return nil
}

// OrderPullResponse is one page of orders
type OrderPullResponse struct {
	Orders     []MarketplaceOrder
	TotalCount int64
	HasMore    bool
	NextPage   int
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// MarketplaceClient pulls orders from one sales channel
type MarketplaceClient interface {
	PlatformCode() PlatformCode
	PullOrders(ctx context.Context, req *OrderPullRequest) (*OrderPullResponse, error)
	GetOrder(ctx context.Context, cred Credential, externalID string) (*MarketplaceOrder, error)
}

// CredentialProvider resolves a company's credential for a channel
type CredentialProvider interface {
	Credential(ctx context.Context, companyID uuid.UUID, platform PlatformCode) (Credential, error)
}

// Registry holds the configured marketplace clients
type Registry struct {
	clients map[PlatformCode]MarketplaceClient
}

// NewRegistry creates a registry from clients
func NewRegistry(clients ...MarketplaceClient) *Registry {
	r := &Registry{clients: make(map[PlatformCode]MarketplaceClient, len(clients))}
	for _, c := range clients {
		r.clients[c.PlatformCode()] = c
	}
	return r
}

// Get returns the client for platform
func (r *Registry) Get(platform PlatformCode) (MarketplaceClient, error) {
	c, ok := r.clients[platform]
	if !ok {
		return nil, ErrPlatformNotConfigured
	}
	return c, nil
}

// Platforms lists the configured platforms in a stable order
func (r *Registry) Platforms() []PlatformCode {
	out := make([]PlatformCode, 0, len(r.clients))
	for code := range r.clients {
		out = append(out, code)
	}
	slices.Sort(out)
	return out
}
