package ecommerce

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/integration"
	infraconfig "github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// ShopeeProductionURL is the Shopee Open Platform production endpoint
const ShopeeProductionURL = "https://partner.shopeemobile.com"

const (
	shopeeOrderListPath   = "/api/v2/order/get_order_list"
	shopeeOrderDetailPath = "/api/v2/order/get_order_detail"
	shopeeDetailFields    = "buyer_user_id,buyer_username,item_list,total_amount,estimated_shipping_fee,actual_shipping_fee,buyer_cpf_id"
)

var _ integration.MarketplaceClient = (*ShopeeAdapter)(nil)

// ShopeeAdapter pulls orders from the Shopee Open Platform v2 API
type ShopeeAdapter struct {
	baseURL    string
	partnerID  int64
	partnerKey string
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewShopeeAdapter creates the adapter from configuration
func NewShopeeAdapter(cfg infraconfig.ShopeeConfig) *ShopeeAdapter {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = ShopeeProductionURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ShopeeAdapter{
		baseURL:    baseURL,
		partnerID:  cfg.PartnerID,
		partnerKey: cfg.PartnerKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(10, 5),
		now:        time.Now,
	}
}

// PlatformCode returns the platform code this adapter handles
func (a *ShopeeAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformShopee
}

// PullOrders lists order numbers updated in the window, then loads their details
func (a *ShopeeAdapter) PullOrders(ctx context.Context, req *integration.OrderPullRequest) (*integration.OrderPullResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if a.partnerID == 0 || a.partnerKey == "" || req.Credential.ShopID == "" {
		return nil, integration.ErrPlatformNotConfigured
	}

	q := url.Values{}
	q.Set("time_range_field", "update_time")
	q.Set("time_from", strconv.FormatInt(req.Since.Unix(), 10))
	q.Set("time_to", strconv.FormatInt(req.Until.Unix(), 10))
	q.Set("page_size", strconv.Itoa(req.PageSize))
	q.Set("cursor", strconv.Itoa((req.Page-1)*req.PageSize))

	var list shopeeOrderListResponse
	if err := a.get(ctx, req.Credential, shopeeOrderListPath, q, &list); err != nil {
		return nil, err
	}

	out := &integration.OrderPullResponse{HasMore: list.Response.More}
	if out.HasMore {
		out.NextPage = req.Page + 1
	}
	if len(list.Response.OrderList) == 0 {
		return out, nil
	}

	sns := make([]string, 0, len(list.Response.OrderList))
	for _, o := range list.Response.OrderList {
		sns = append(sns, o.OrderSN)
	}
	orders, err := a.details(ctx, req.Credential, sns)
	if err != nil {
		return nil, err
	}
	out.Orders = orders
	out.TotalCount = int64(len(orders))
	return out, nil
}

// GetOrder fetches a single order by order_sn
func (a *ShopeeAdapter) GetOrder(ctx context.Context, cred integration.Credential, externalID string) (*integration.MarketplaceOrder, error) {
	if externalID == "" {
		return nil, integration.ErrOrderNotFound
	}
	orders, err := a.details(ctx, cred, []string{externalID})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: %s", integration.ErrOrderNotFound, externalID)
	}
	return &orders[0], nil
}

func (a *ShopeeAdapter) details(ctx context.Context, cred integration.Credential, sns []string) ([]integration.MarketplaceOrder, error) {
	q := url.Values{}
	q.Set("order_sn_list", strings.Join(sns, ","))
	q.Set("response_optional_fields", shopeeDetailFields)

	var detail shopeeOrderDetailResponse
	if err := a.get(ctx, cred, shopeeOrderDetailPath, q, &detail); err != nil {
		return nil, err
	}

	orders := make([]integration.MarketplaceOrder, 0, len(detail.Response.OrderList))
	for i := range detail.Response.OrderList {
		orders = append(orders, convertShopeeOrder(&detail.Response.OrderList[i]))
	}
	return orders, nil
}

func (a *ShopeeAdapter) get(ctx context.Context, cred integration.Credential, path string, q url.Values, out any) error {
	ts := a.now().Unix()
	q.Set("partner_id", strconv.FormatInt(a.partnerID, 10))
	q.Set("timestamp", strconv.FormatInt(ts, 10))
	q.Set("access_token", cred.AccessToken)
	q.Set("shop_id", cred.ShopID)
	q.Set("sign", a.sign(path, ts, cred.AccessToken, cred.ShopID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("shopee: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := doRequest(ctx, a.httpClient, a.limiter, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", integration.ErrPlatformInvalidResponse, err)
	}

	var env shopeeEnvelope
	_ = json.Unmarshal(body, &env)
	return shopeeError(env)
}

// sign computes the shop-level request signature:
// HMAC-SHA256(partner_key, partner_id + path + timestamp + access_token + shop_id)
func (a *ShopeeAdapter) sign(path string, ts int64, accessToken, shopID string) string {
	base := strconv.FormatInt(a.partnerID, 10) + path + strconv.FormatInt(ts, 10) + accessToken + shopID
	mac := hmac.New(sha256.New, []byte(a.partnerKey))
	mac.Write([]byte(base))
	return hex.EncodeToString(mac.Sum(nil))
}

func shopeeError(env shopeeEnvelope) error {
	switch {
	case env.Error == "":
		return nil
	case env.Error == "error_auth", env.Error == "error_permission", strings.HasPrefix(env.Error, "invalid_access_token"),
		strings.Contains(env.Error, "sign"):
		return fmt.Errorf("%w: %s: %s", integration.ErrPlatformAuthFailed, env.Error, env.Message)
	case strings.Contains(env.Error, "limit"):
		return fmt.Errorf("%w: %s: %s", integration.ErrPlatformRateLimited, env.Error, env.Message)
	case env.Error == "error_server", env.Error == "error_inner":
		return fmt.Errorf("%w: %s: %s", integration.ErrPlatformUnavailable, env.Error, env.Message)
	default:
		return fmt.Errorf("%w: %s: %s", integration.ErrPlatformRequestFailed, env.Error, env.Message)
	}
}

func convertShopeeOrder(o *shopeeOrder) integration.MarketplaceOrder {
	mo := integration.MarketplaceOrder{
		ExternalID:       o.OrderSN,
		Platform:         integration.PlatformShopee,
		Status:           mapShopeeStatus(o.OrderStatus),
		RawStatus:        o.OrderStatus,
		ShipmentStatus:   o.OrderStatus,
		BuyerName:        o.BuyerUsername,
		BuyerDocument:    o.BuyerCPFID,
		Items:            make([]integration.MarketplaceOrderItem, 0, len(o.ItemList)),
		TotalAmount:      o.TotalAmount,
		ShippingReceived: o.EstimatedShippingFee,
		ShippingCost:     o.ActualShippingFee,
		CreatedAt:        time.Unix(o.CreateTime, 0).UTC(),
		UpdatedAt:        time.Unix(o.UpdateTime, 0).UTC(),
	}
	for _, it := range o.ItemList {
		sku := it.ModelSKU
		if sku == "" {
			sku = it.ItemSKU
		}
		mo.Items = append(mo.Items, integration.MarketplaceOrderItem{
			ItemID:    strconv.FormatInt(it.ItemID, 10),
			SKU:       sku,
			Title:     it.ItemName,
			Quantity:  decimal.NewFromInt(it.ModelQuantityPurchased),
			UnitPrice: it.ModelDiscountedPrice,
		})
	}
	return mo
}

// mapShopeeStatus maps a Shopee order_status to the order status labels
func mapShopeeStatus(status string) string {
	switch status {
	case "UNPAID":
		return integration.OrderStatusPending
	case "READY_TO_SHIP", "PROCESSED", "RETRY_SHIP":
		return integration.OrderStatusPaid
	case "SHIPPED", "TO_CONFIRM_RECEIVE":
		return integration.OrderStatusShipped
	case "COMPLETED":
		return integration.OrderStatusDelivered
	case "IN_CANCEL", "CANCELLED":
		return integration.OrderStatusCancelled
	case "TO_RETURN":
		return integration.OrderStatusReturned
	default:
		return integration.OrderStatusPending
	}
}
