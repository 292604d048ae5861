package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/integration"
	infraconfig "github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// MercadoLivreProductionURL is the Mercado Livre API endpoint
const MercadoLivreProductionURL = "https://api.mercadolibre.com"

var _ integration.MarketplaceClient = (*MercadoLivreAdapter)(nil)

// MercadoLivreAdapter pulls orders from the Mercado Livre orders API
type MercadoLivreAdapter struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewMercadoLivreAdapter creates the adapter from configuration
func NewMercadoLivreAdapter(cfg infraconfig.MercadoLivreConfig) *MercadoLivreAdapter {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = MercadoLivreProductionURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &MercadoLivreAdapter{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(10, 5),
	}
}

// PlatformCode returns the platform code this adapter handles
func (a *MercadoLivreAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformMercadoLivre
}

// PullOrders returns one page of orders updated in the request window
func (a *MercadoLivreAdapter) PullOrders(ctx context.Context, req *integration.OrderPullRequest) (*integration.OrderPullResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Credential.SellerID == "" || req.Credential.AccessToken == "" {
		return nil, integration.ErrPlatformNotConfigured
	}

	offset := (req.Page - 1) * req.PageSize
	q := url.Values{}
	q.Set("seller", req.Credential.SellerID)
	q.Set("order.date_last_updated.from", req.Since.UTC().Format(time.RFC3339))
	q.Set("order.date_last_updated.to", req.Until.UTC().Format(time.RFC3339))
	q.Set("sort", "date_asc")
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(req.PageSize))

	body, err := a.get(ctx, req.Credential, "/orders/search?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp mlOrderSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrPlatformInvalidResponse, err)
	}

	out := &integration.OrderPullResponse{
		Orders:     make([]integration.MarketplaceOrder, 0, len(resp.Results)),
		TotalCount: resp.Paging.Total,
	}
	for i := range resp.Results {
		out.Orders = append(out.Orders, convertMercadoLivreOrder(&resp.Results[i]))
	}
	if int64(offset+len(resp.Results)) < resp.Paging.Total && len(resp.Results) > 0 {
		out.HasMore = true
		out.NextPage = req.Page + 1
	}
	return out, nil
}

// GetOrder fetches a single order
func (a *MercadoLivreAdapter) GetOrder(ctx context.Context, cred integration.Credential, externalID string) (*integration.MarketplaceOrder, error) {
	if _, err := strconv.ParseInt(externalID, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: invalid order id %q", integration.ErrOrderNotFound, externalID)
	}
	body, err := a.get(ctx, cred, "/orders/"+externalID)
	if err != nil {
		return nil, err
	}

	var order mlOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", integration.ErrPlatformInvalidResponse, err)
	}
	mo := convertMercadoLivreOrder(&order)
	return &mo, nil
}

func (a *MercadoLivreAdapter) get(ctx context.Context, cred integration.Credential, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("mercadolivre: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")
	return doRequest(ctx, a.httpClient, a.limiter, req)
}

func convertMercadoLivreOrder(o *mlOrder) integration.MarketplaceOrder {
	mo := integration.MarketplaceOrder{
		ExternalID:  strconv.FormatInt(o.ID, 10),
		Platform:    integration.PlatformMercadoLivre,
		Status:      mapMercadoLivreStatus(o.Status, o.Tags),
		RawStatus:   o.Status,
		BuyerName:   strings.TrimSpace(o.Buyer.FirstName + " " + o.Buyer.LastName),
		Items:       make([]integration.MarketplaceOrderItem, 0, len(o.OrderItems)),
		TotalAmount: o.TotalAmount,
		Coupon:      o.Coupon.Amount,
		CreatedAt:   o.DateCreated,
		UpdatedAt:   o.DateLastUpdated,
	}
	if mo.BuyerName == "" {
		mo.BuyerName = o.Buyer.Nickname
	}
	if len(o.Payments) > 0 {
		mo.PaymentStatus = o.Payments[0].Status
	}
	for _, p := range o.Payments {
		mo.ShippingReceived = mo.ShippingReceived.Add(p.ShippingCost)
	}

	commission := decimal.Zero
	for _, it := range o.OrderItems {
		mo.Items = append(mo.Items, integration.MarketplaceOrderItem{
			ItemID:    it.Item.ID,
			SKU:       it.Item.SellerSKU,
			Title:     it.Item.Title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			SaleFee:   it.SaleFee,
		})
		commission = commission.Add(it.SaleFee.Mul(it.Quantity))
	}
	mo.Commission = commission
	return mo
}

// mapMercadoLivreStatus maps an order status and its tags to the order status labels
func mapMercadoLivreStatus(status string, tags []string) string {
	switch status {
	case "cancelled", "invalid":
		return integration.OrderStatusCancelled
	case "paid", "partially_refunded":
		switch {
		case slices.Contains(tags, "returned"):
			return integration.OrderStatusReturned
		case slices.Contains(tags, "delivered"):
			return integration.OrderStatusDelivered
		case slices.Contains(tags, "shipped"):
			return integration.OrderStatusShipped
		}
		return integration.OrderStatusPaid
	default:
		return integration.OrderStatusPending
	}
}
