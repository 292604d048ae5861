package sales

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/google/uuid"
)

// OrderFinancials pairs an order's identity with its computed breakdown
type OrderFinancials struct {
	OrderID    uuid.UUID                `json:"order_id"`
	Platform   integration.PlatformCode `json:"platform"`
	ExternalID string                   `json:"external_id"`
	Status     string                   `json:"status"`
	BuyerName  string                   `json:"buyer_name"`
	PlacedAt   time.Time                `json:"placed_at"`
	FinancialBreakdown
}

// NewOrderFinancials computes the breakdown of o
func NewOrderFinancials(o *Order) OrderFinancials {
	return OrderFinancials{
		OrderID:            o.ID,
		Platform:           o.Platform,
		ExternalID:         o.ExternalID,
		Status:             o.Status,
		BuyerName:          o.BuyerName,
		PlacedAt:           o.PlacedAt,
		FinancialBreakdown: o.Financials(),
	}
}

// FinancialExporter renders a financial report to a downloadable file
type FinancialExporter interface {
	ExportFinancials(ctx context.Context, rows []OrderFinancials, summary FinancialSummary) ([]byte, error)
	ContentType() string
	Extension() string
}
