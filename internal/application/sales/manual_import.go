package sales

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/csvimport"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxManualImportRows   = 5000
	maxManualImportErrors = 100
)

// Manual import columns. One row per order line; order-level amounts are
// read from the first row of each order_id.
const (
	colOrderID          = "order_id"
	colPlacedAt         = "placed_at"
	colStatus           = "status"
	colBuyerName        = "buyer_name"
	colBuyerDocument    = "buyer_document"
	colSKU              = "sku"
	colItem             = "item"
	colQuantity         = "quantity"
	colUnitPrice        = "unit_price"
	colTotal            = "total"
	colShippingReceived = "shipping_received"
	colShippingCost     = "shipping_cost"
	colCommission       = "commission"
	colTaxes            = "taxes"
	colCoupon           = "coupon"
	colProductCost      = "product_cost"
	colExtraCosts       = "extra_costs"
)

var manualStatuses = []string{
	integration.OrderStatusPending,
	integration.OrderStatusPaid,
	integration.OrderStatusShipped,
	integration.OrderStatusDelivered,
	integration.OrderStatusCancelled,
	integration.OrderStatusReturned,
}

// ManualImportResult reports one spreadsheet import
type ManualImportResult struct {
	TotalRows   int                  `json:"total_rows"`
	Orders      int                  `json:"orders"`
	Created     int                  `json:"created"`
	Updated     int                  `json:"updated"`
	Failed      int                  `json:"failed"`
	Errors      []csvimport.RowError `json:"errors,omitempty"`
	TotalErrors int                  `json:"total_errors"`
	Truncated   bool                 `json:"truncated"`
}

func manualOrderRules() []csvimport.FieldRule {
	zero := decimal.Zero
	return []csvimport.FieldRule{
		csvimport.Field(colOrderID).Required().MaxLength(64).Build(),
		csvimport.Field(colPlacedAt).Required().Date().Build(),
		csvimport.Field(colStatus).OneOf(manualStatuses...).Build(),
		csvimport.Field(colBuyerName).MaxLength(200).Build(),
		csvimport.Field(colBuyerDocument).MaxLength(20).Build(),
		csvimport.Field(colSKU).MaxLength(100).Build(),
		csvimport.Field(colItem).MaxLength(500).Build(),
		csvimport.Field(colQuantity).Int().Min(decimal.NewFromInt(1)).Build(),
		csvimport.Field(colUnitPrice).Decimal().Min(zero).Build(),
		csvimport.Field(colTotal).Decimal().Min(zero).Build(),
		csvimport.Field(colShippingReceived).Decimal().Min(zero).Build(),
		csvimport.Field(colShippingCost).Decimal().Min(zero).Build(),
		csvimport.Field(colCommission).Decimal().Min(zero).Build(),
		csvimport.Field(colTaxes).Decimal().Min(zero).Build(),
		csvimport.Field(colCoupon).Decimal().Min(zero).Build(),
		csvimport.Field(colProductCost).Decimal().Min(zero).Build(),
		csvimport.Field(colExtraCosts).Decimal().Min(zero).Build(),
	}
}

// manualOrder is one order_id group of the spreadsheet
type manualOrder struct {
	line  int
	rows  []*csvimport.Row
	valid bool
}

// ImportManualOrders reads a spreadsheet of orders sold outside the
// marketplaces and upserts them as manual orders. An order with any invalid
// row is skipped whole; the other orders are still saved.
func (s *OrderService) ImportManualOrders(ctx context.Context, companyID uuid.UUID, r io.Reader) (result *ManualImportResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales", "import_manual_orders",
		telemetry.SpanAttrCompanyID, companyID.String(),
	)
	defer span.End()
	result = &ManualImportResult{}
	defer func() {
		telemetry.RecordError(span, err)
		s.metrics.RecordOrderImport(ctx, integration.PlatformManual.String(), result.Created+result.Updated, result.Failed)
	}()

	parser, err := csvimport.NewParser(r)
	if err != nil {
		if errors.Is(err, csvimport.ErrEmptyFile) || errors.Is(err, csvimport.ErrMissingHeader) {
			return result, shared.NewDomainError("INVALID_INPUT", err.Error())
		}
		return result, err
	}
	if missing := parser.MissingHeaders(colOrderID, colPlacedAt); len(missing) > 0 {
		return result, shared.NewDomainError("INVALID_INPUT", "Missing required columns: "+strings.Join(missing, ", "))
	}

	errs := csvimport.NewErrorCollection(maxManualImportErrors)
	rows, err := parser.ReadAll(maxManualImportRows, errs)
	if errors.Is(err, csvimport.ErrTooManyRows) {
		return result, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if err != nil {
		return result, err
	}
	result.TotalRows = len(rows)

	rules := manualOrderRules()
	groups, order := groupManualRows(rows)
	for _, id := range order {
		g := groups[id]
		for _, row := range g.rows {
			if !csvimport.ValidateRow(row, rules, errs) {
				g.valid = false
			}
		}
	}

	result.Orders = len(order)
	for _, id := range order {
		g := groups[id]
		if !g.valid {
			result.Failed++
			continue
		}
		mo, costs := g.toMarketplaceOrder()
		created, err := s.upsert(ctx, companyID, mo, costs)
		switch {
		case err != nil:
			result.Failed++
			errs.Add(csvimport.RowError{Line: g.line, Column: colOrderID, Code: csvimport.ErrCodeNotSaved, Message: err.Error(), Value: id})
			s.logger.Warn("Failed to import manual order",
				zap.String("external_id", id),
				zap.Int("line", g.line),
				zap.Error(err),
			)
		case created:
			result.Created++
		default:
			result.Updated++
		}
	}

	result.Errors = errs.Errors()
	result.TotalErrors = errs.Total()
	result.Truncated = errs.Truncated()

	s.logger.Info("Manual orders imported",
		zap.String("company_id", companyID.String()),
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// groupManualRows groups rows by order_id keeping first-seen order. Rows
// without an order_id form their own group so their errors are reported.
func groupManualRows(rows []*csvimport.Row) (map[string]*manualOrder, []string) {
	groups := make(map[string]*manualOrder)
	var order []string
	for _, row := range rows {
		id := row.Get(colOrderID)
		if id == "" {
			id = "#" + strconv.Itoa(row.Line)
		}
		g, ok := groups[id]
		if !ok {
			g = &manualOrder{line: row.Line, valid: true}
			groups[id] = g
			order = append(order, id)
		}
		g.rows = append(g.rows, row)
	}
	return groups, order
}

// toMarketplaceOrder maps a validated group. The returned func applies the
// operator amounts the marketplace merge would otherwise keep.
func (g *manualOrder) toMarketplaceOrder() (*integration.MarketplaceOrder, func(*sales.Order) error) {
	head := g.rows[0]
	placedAt, _ := csvimport.ParseDate(head.Get(colPlacedAt))

	mo := &integration.MarketplaceOrder{
		ExternalID:       head.Get(colOrderID),
		Platform:         integration.PlatformManual,
		Status:           canonicalStatus(head.Get(colStatus)),
		BuyerName:        head.Get(colBuyerName),
		BuyerDocument:    head.Get(colBuyerDocument),
		ShippingReceived: amount(head, colShippingReceived),
		ShippingCost:     amount(head, colShippingCost),
		Commission:       amount(head, colCommission),
		Coupon:           amount(head, colCoupon),
		CreatedAt:        placedAt,
		UpdatedAt:        placedAt,
	}

	subtotal := decimal.Zero
	for _, row := range g.rows {
		if row.Get(colItem) == "" && row.Get(colSKU) == "" {
			continue
		}
		qty := decimal.NewFromInt(1)
		if row.Get(colQuantity) != "" {
			qty = amount(row, colQuantity)
		}
		item := integration.MarketplaceOrderItem{
			SKU:       row.Get(colSKU),
			Title:     row.Get(colItem),
			Quantity:  qty,
			UnitPrice: amount(row, colUnitPrice),
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(item.Quantity))
		mo.Items = append(mo.Items, item)
	}
	if head.Get(colTotal) != "" {
		mo.TotalAmount = amount(head, colTotal)
	} else {
		mo.TotalAmount = subtotal
	}

	costs := func(o *sales.Order) error {
		if head.Get(colTaxes) != "" {
			o.SetCharges(sales.Charges{
				ShippingReceived: o.ShippingReceived,
				ShippingCost:     o.ShippingCost,
				Commission:       o.Commission,
				Taxes:            amount(head, colTaxes),
				Coupon:           o.Coupon,
			})
		}
		productCost, extraCosts := o.ProductCost, o.ExtraCosts
		if head.Get(colProductCost) != "" {
			productCost = amount(head, colProductCost)
		}
		if head.Get(colExtraCosts) != "" {
			extraCosts = amount(head, colExtraCosts)
		}
		return o.SetCosts(productCost, extraCosts)
	}
	return mo, costs
}

// amount parses a column already checked by ValidateRow; blanks are zero
func amount(row *csvimport.Row, column string) decimal.Decimal {
	d, err := csvimport.ParseDecimal(row.Get(column))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func canonicalStatus(value string) string {
	for _, st := range manualStatuses {
		if strings.EqualFold(st, value) {
			return st
		}
	}
	return integration.OrderStatusPaid
}
