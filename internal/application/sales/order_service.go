package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	importPageSize = 50
	maxImportPages = 200
	exportBaseName = "financeiro"
)

// OrderService imports marketplace orders and reports their financials
type OrderService struct {
	orders         sales.OrderRepository
	registry       *integration.Registry
	credentials    integration.CredentialProvider
	exporter       sales.FinancialExporter
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BackofficeMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orders sales.OrderRepository,
	registry *integration.Registry,
	credentials integration.CredentialProvider,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = integration.NewRegistry()
	}
	return &OrderService{
		orders:      orders,
		registry:    registry,
		credentials: credentials,
		logger:      logger,
		now:         time.Now,
	}
}

// SetExporter sets the spreadsheet exporter used by ExportFinancials
func (s *OrderService) SetExporter(exporter sales.FinancialExporter) {
	s.exporter = exporter
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *OrderService) SetMetrics(m *telemetry.BackofficeMetrics) {
	s.metrics = m
}

// ImportOrders pulls orders updated since the given time and upserts them by
// (company, platform, external id). A failed page stops the import; orders
// that fail individually are counted and skipped.
func (s *OrderService) ImportOrders(ctx context.Context, companyID uuid.UUID, platform integration.PlatformCode, since time.Time) (result *ImportResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales", "import_orders",
		telemetry.SpanAttrCompanyID, companyID.String(),
		telemetry.SpanAttrPlatform, platform.String(),
	)
	defer span.End()
	result = &ImportResult{Platform: platform}
	defer func() {
		telemetry.RecordError(span, err)
		s.metrics.RecordOrderImport(ctx, platform.String(), result.Created+result.Updated, result.Failed)
	}()

	client, err := s.registry.Get(platform)
	if err != nil {
		return result, err
	}
	cred, err := s.credentials.Credential(ctx, companyID, platform)
	if err != nil {
		return result, err
	}

	until := s.now()
	for page := 1; page <= maxImportPages; {
		resp, err := client.PullOrders(ctx, &integration.OrderPullRequest{
			Credential: cred,
			Since:      since,
			Until:      until,
			Page:       page,
			PageSize:   importPageSize,
		})
		if err != nil {
			return result, fmt.Errorf("failed to pull %s orders page %d: %w", platform, page, err)
		}
		result.Pages++
		result.Fetched += len(resp.Orders)

		for i := range resp.Orders {
			if resp.Orders[i].Platform == "" {
				resp.Orders[i].Platform = platform
			}
			created, err := s.upsert(ctx, companyID, &resp.Orders[i])
			switch {
			case err != nil:
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", resp.Orders[i].ExternalID, err))
				s.logger.Warn("Failed to import marketplace order",
					zap.String("platform", platform.String()),
					zap.String("external_id", resp.Orders[i].ExternalID),
					zap.Error(err),
				)
			case created:
				result.Created++
			default:
				result.Updated++
			}
		}

		if !resp.HasMore || resp.NextPage <= page {
			break
		}
		page = resp.NextPage
	}

	s.logger.Info("Marketplace orders imported",
		zap.String("company_id", companyID.String()),
		zap.String("platform", platform.String()),
		zap.Int("pages", result.Pages),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// ImportRecentTask returns a per-company job importing every configured
// platform over the trailing lookback window.
func (s *OrderService) ImportRecentTask(lookback time.Duration) func(ctx context.Context, companyID uuid.UUID) error {
	return func(ctx context.Context, companyID uuid.UUID) error {
		since := s.now().Add(-lookback)
		var errs error
		for _, platform := range s.registry.Platforms() {
			if _, err := s.ImportOrders(ctx, companyID, platform, since); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		return errs
	}
}

// RefreshOrder re-reads one order from its marketplace
func (s *OrderService) RefreshOrder(ctx context.Context, companyID, orderID uuid.UUID) (*sales.OrderFinancials, error) {
	order, err := s.orders.FindByID(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Platform == integration.PlatformManual {
		return nil, shared.NewDomainError("INVALID_PLATFORM", "Manual orders have no marketplace to refresh from")
	}
	client, err := s.registry.Get(order.Platform)
	if err != nil {
		return nil, err
	}
	cred, err := s.credentials.Credential(ctx, companyID, order.Platform)
	if err != nil {
		return nil, err
	}
	remote, err := client.GetOrder(ctx, cred, order.ExternalID)
	if err != nil {
		return nil, err
	}

	applyMarketplaceOrder(order, remote)
	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	out := sales.NewOrderFinancials(order)
	return &out, nil
}

// GetFinancials computes the financial breakdown of one order
func (s *OrderService) GetFinancials(ctx context.Context, companyID, orderID uuid.UUID) (*sales.OrderFinancials, error) {
	order, err := s.orders.FindByID(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}
	out := sales.NewOrderFinancials(order)
	return &out, nil
}

// ListFinancials returns a page of orders with their breakdowns
func (s *OrderService) ListFinancials(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) (shared.Paginated[sales.OrderFinancials], error) {
	orders, total, err := s.orders.FindAll(ctx, companyID, filter)
	if err != nil {
		return shared.Paginated[sales.OrderFinancials]{}, err
	}
	rows := make([]sales.OrderFinancials, len(orders))
	for i := range orders {
		rows[i] = sales.NewOrderFinancials(&orders[i])
	}
	return shared.NewPaginated(rows, total, filter.Page, filter.PageSize), nil
}

// Summary totals every order matching filter, ignoring its pagination
func (s *OrderService) Summary(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) (sales.FinancialSummary, error) {
	rows, err := s.allFinancials(ctx, companyID, filter)
	if err != nil {
		return sales.FinancialSummary{}, err
	}
	return summarize(rows), nil
}

// UpdateCosts records product, extra and tax amounts entered by an operator
func (s *OrderService) UpdateCosts(ctx context.Context, companyID, orderID uuid.UUID, req UpdateCostsRequest) (*sales.OrderFinancials, error) {
	order, err := s.orders.FindByID(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.SetCosts(req.ProductCost, req.ExtraCosts); err != nil {
		return nil, err
	}
	if req.Taxes != nil {
		if req.Taxes.IsNegative() {
			return nil, shared.NewDomainError("INVALID_COST", "Taxes cannot be negative")
		}
		order.SetCharges(sales.Charges{
			ShippingReceived: order.ShippingReceived,
			ShippingCost:     order.ShippingCost,
			Commission:       order.Commission,
			Taxes:            *req.Taxes,
			Coupon:           order.Coupon,
		})
	}
	if err := s.save(ctx, order); err != nil {
		return nil, err
	}
	out := sales.NewOrderFinancials(order)
	return &out, nil
}

// ExportFinancials renders every order matching filter to a spreadsheet
func (s *OrderService) ExportFinancials(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) (*ExportFile, error) {
	if s.exporter == nil {
		return nil, shared.NewDomainError("EXPORT_UNAVAILABLE", "Financial export is not configured")
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "sales", "export_financials",
		telemetry.SpanAttrCompanyID, companyID.String(),
	)
	defer span.End()

	rows, err := s.allFinancials(ctx, companyID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	data, err := s.exporter.ExportFinancials(ctx, rows, summarize(rows))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to export financials: %w", err)
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-%s.%s", exportBaseName, s.now().Format("20060102-150405"), s.exporter.Extension()),
		ContentType: s.exporter.ContentType(),
		Data:        data,
	}, nil
}

func (s *OrderService) allFinancials(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) ([]sales.OrderFinancials, error) {
	filter.Page = 1
	filter.PageSize = 0
	orders, _, err := s.orders.FindAll(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	rows := make([]sales.OrderFinancials, len(orders))
	for i := range orders {
		rows[i] = sales.NewOrderFinancials(&orders[i])
	}
	return rows, nil
}

// upsert stores a marketplace order and reports whether it was new. Each
// adjust func runs on the merged order before it is saved.
func (s *OrderService) upsert(ctx context.Context, companyID uuid.UUID, mo *integration.MarketplaceOrder, adjust ...func(*sales.Order) error) (bool, error) {
	order, err := s.orders.FindByExternalID(ctx, companyID, mo.Platform, mo.ExternalID)
	created := false
	switch {
	case errors.Is(err, shared.ErrNotFound):
		order, err = sales.NewOrder(companyID, mo.Platform, mo.ExternalID, lineItems(mo.Items), mo.TotalAmount)
		if err != nil {
			return false, err
		}
		created = true
	case err != nil:
		return false, err
	}

	applyMarketplaceOrder(order, mo)
	for _, fn := range adjust {
		if err := fn(order); err != nil {
			return false, err
		}
	}
	if err := s.save(ctx, order); err != nil {
		return false, err
	}
	return created, nil
}

func (s *OrderService) save(ctx context.Context, order *sales.Order) error {
	if err := s.orders.Save(ctx, order); err != nil {
		return err
	}
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, order.GetDomainEvents()...); err != nil {
			s.logger.Warn("Failed to publish order events",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
	}
	order.ClearDomainEvents()
	return nil
}

// applyMarketplaceOrder folds the marketplace view into order. Operator
// amounts (product cost, extra costs, taxes) are kept.
func applyMarketplaceOrder(order *sales.Order, mo *integration.MarketplaceOrder) {
	order.Items = lineItems(mo.Items)
	order.Total = mo.TotalAmount
	order.ApplyMarketplaceUpdate(mo.Status, mo.PaymentStatus, mo.ShipmentStatus)
	order.SetCharges(sales.Charges{
		ShippingReceived: mo.ShippingReceived,
		ShippingCost:     mo.ShippingCost,
		Commission:       mo.Commission,
		Taxes:            order.Taxes,
		Coupon:           mo.Coupon,
	})
	if mo.BuyerName != "" {
		order.BuyerName = mo.BuyerName
	}
	if mo.BuyerDocument != "" {
		order.BuyerDocument = mo.BuyerDocument
	}
	if !mo.CreatedAt.IsZero() {
		order.PlacedAt = mo.CreatedAt
	}
}

func lineItems(items []integration.MarketplaceOrderItem) []sales.LineItem {
	out := make([]sales.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, sales.NewLineItem(it.Title, it.SKU, it.UnitPrice, it.Quantity))
	}
	return out
}

func summarize(rows []sales.OrderFinancials) sales.FinancialSummary {
	breakdowns := make([]sales.FinancialBreakdown, len(rows))
	for i := range rows {
		breakdowns[i] = rows[i].FinancialBreakdown
	}
	return sales.Summarize(breakdowns)
}
