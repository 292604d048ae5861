package sales

import (
	"time"

	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ImportResult reports one marketplace import run
type ImportResult struct {
	Platform integration.PlatformCode `json:"platform"`
	Pages    int                      `json:"pages"`
	Fetched  int                      `json:"fetched"`
	Created  int                      `json:"created"`
	Updated  int                      `json:"updated"`
	Failed   int                      `json:"failed"`
	Errors   []string                 `json:"errors,omitempty"`
}

// ImportOrdersRequest is the body of a manual import
type ImportOrdersRequest struct {
	Platform string    `json:"platform" binding:"required,oneof=mercado_livre shopee"`
	Since    time.Time `json:"since" binding:"required"`
}

// UpdateCostsRequest sets operator-entered amounts on an order
type UpdateCostsRequest struct {
	ProductCost decimal.Decimal  `json:"product_cost"`
	ExtraCosts  decimal.Decimal  `json:"extra_costs"`
	Taxes       *decimal.Decimal `json:"taxes,omitempty"`
}

// FinancialsQuery filters financial listings and exports
type FinancialsQuery struct {
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=200"`
	Platform string     `form:"platform" binding:"omitempty,oneof=mercado_livre shopee manual"`
	Status   string     `form:"status"`
	Search   string     `form:"search"`
	From     *time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To       *time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
	OrderBy  string     `form:"order_by" binding:"omitempty,oneof=placed_at created_at total external_id"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToFilter converts the query to a repository filter. The repository bound
// is exclusive, so To moves to the start of the following day.
func (q FinancialsQuery) ToFilter() sales.OrderFilter {
	f := shared.DefaultFilter()
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.PageSize > 0 {
		f.PageSize = q.PageSize
	}
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	} else {
		f.OrderBy = "placed_at"
	}
	if q.OrderDir != "" {
		f.OrderDir = q.OrderDir
	}
	f.Search = q.Search
	out := sales.OrderFilter{
		Filter:   f,
		Platform: integration.PlatformCode(q.Platform),
		Status:   q.Status,
		From:     q.From,
	}
	if q.To != nil {
		end := q.To.AddDate(0, 0, 1)
		out.To = &end
	}
	return out
}

// ExportFile is a rendered financial report
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
