package ecommerce

import (
	"time"

	"github.com/shopspring/decimal"
)

// mlOrderSearchResponse is the body of GET /orders/search
type mlOrderSearchResponse struct {
	Results []mlOrder `json:"results"`
	Paging  struct {
		Total  int64 `json:"total"`
		Offset int   `json:"offset"`
		Limit  int   `json:"limit"`
	} `json:"paging"`
}

type mlOrder struct {
	ID              int64           `json:"id"`
	Status          string          `json:"status"`
	DateCreated     time.Time       `json:"date_created"`
	DateLastUpdated time.Time       `json:"date_last_updated"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Tags            []string        `json:"tags"`
	OrderItems      []mlOrderItem   `json:"order_items"`
	Payments        []mlPayment     `json:"payments"`
	Buyer           mlBuyer         `json:"buyer"`
	Shipping        struct {
		ID int64 `json:"id"`
	} `json:"shipping"`
	Coupon struct {
		Amount decimal.Decimal `json:"amount"`
	} `json:"coupon"`
}

type mlOrderItem struct {
	Item struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		SellerSKU string `json:"seller_sku"`
	} `json:"item"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	SaleFee   decimal.Decimal `json:"sale_fee"`
}

type mlPayment struct {
	Status       string          `json:"status"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
}

type mlBuyer struct {
	ID        int64  `json:"id"`
	Nickname  string `json:"nickname"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
