package ecommerce

import "github.com/shopspring/decimal"

// shopeeEnvelope carries the error fields every Shopee v2 response shares
type shopeeEnvelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

type shopeeOrderListResponse struct {
	shopeeEnvelope
	Response struct {
		More       bool   `json:"more"`
		NextCursor string `json:"next_cursor"`
		OrderList  []struct {
			OrderSN string `json:"order_sn"`
		} `json:"order_list"`
	} `json:"response"`
}

type shopeeOrderDetailResponse struct {
	shopeeEnvelope
	Response struct {
		OrderList []shopeeOrder `json:"order_list"`
	} `json:"response"`
}

type shopeeOrder struct {
	OrderSN              string            `json:"order_sn"`
	OrderStatus          string            `json:"order_status"`
	CreateTime           int64             `json:"create_time"`
	UpdateTime           int64             `json:"update_time"`
	TotalAmount          decimal.Decimal   `json:"total_amount"`
	BuyerUsername        string            `json:"buyer_username"`
	BuyerCPFID           string            `json:"buyer_cpf_id"`
	EstimatedShippingFee decimal.Decimal   `json:"estimated_shipping_fee"`
	ActualShippingFee    decimal.Decimal   `json:"actual_shipping_fee"`
	ItemList             []shopeeOrderItem `json:"item_list"`
}

type shopeeOrderItem struct {
	ItemID                 int64           `json:"item_id"`
	ItemName               string          `json:"item_name"`
	ItemSKU                string          `json:"item_sku"`
	ModelSKU               string          `json:"model_sku"`
	ModelQuantityPurchased int64           `json:"model_quantity_purchased"`
	ModelDiscountedPrice   decimal.Decimal `json:"model_discounted_price"`
}
