package sales

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderRepository is a mock implementation of sales.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*sales.Order, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByExternalID(ctx context.Context, companyID uuid.UUID, platform integration.PlatformCode, externalID string) (*sales.Order, error) {
	args := m.Called(ctx, companyID, platform, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) ([]sales.Order, int64, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]sales.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *sales.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockMarketplaceClient is a mock implementation of integration.MarketplaceClient
type MockMarketplaceClient struct {
	mock.Mock
	code integration.PlatformCode
}

func (m *MockMarketplaceClient) PlatformCode() integration.PlatformCode {
	return m.code
}

func (m *MockMarketplaceClient) PullOrders(ctx context.Context, req *integration.OrderPullRequest) (*integration.OrderPullResponse, error) {
	args := m.Called(ctx, req.Page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.OrderPullResponse), args.Error(1)
}

func (m *MockMarketplaceClient) GetOrder(ctx context.Context, cred integration.Credential, externalID string) (*integration.MarketplaceOrder, error) {
	args := m.Called(ctx, cred, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.MarketplaceOrder), args.Error(1)
}

// MockCredentialProvider is a mock implementation of integration.CredentialProvider
type MockCredentialProvider struct {
	mock.Mock
}

func (m *MockCredentialProvider) Credential(ctx context.Context, companyID uuid.UUID, platform integration.PlatformCode) (integration.Credential, error) {
	args := m.Called(ctx, companyID, platform)
	return args.Get(0).(integration.Credential), args.Error(1)
}

// MockExporter is a mock implementation of sales.FinancialExporter
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) ExportFinancials(ctx context.Context, rows []sales.OrderFinancials, summary sales.FinancialSummary) ([]byte, error) {
	args := m.Called(ctx, rows, summary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (m *MockExporter) Extension() string {
	return "xlsx"
}

type orderFixture struct {
	repo    *MockOrderRepository
	client  *MockMarketplaceClient
	creds   *MockCredentialProvider
	service *OrderService
}

func newOrderFixture(companyID uuid.UUID) *orderFixture {
	f := &orderFixture{
		repo:   new(MockOrderRepository),
		client: &MockMarketplaceClient{code: integration.PlatformMercadoLivre},
		creds:  new(MockCredentialProvider),
	}
	f.creds.On("Credential", mock.Anything, companyID, integration.PlatformMercadoLivre).
		Return(integration.Credential{CompanyID: companyID, Platform: integration.PlatformMercadoLivre, AccessToken: "tok"}, nil)
	f.service = NewOrderService(f.repo, integration.NewRegistry(f.client), f.creds, nil)
	f.service.now = func() time.Time { return time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC) }
	return f
}

func marketplaceOrder(id, status string) integration.MarketplaceOrder {
	return integration.MarketplaceOrder{
		ExternalID: id,
		Platform:   integration.PlatformMercadoLivre,
		Status:     status,
		BuyerName:  "Joao Souza",
		Items: []integration.MarketplaceOrderItem{{
			SKU: "SKU-1", Title: "Caneca", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50),
		}},
		TotalAmount:      decimal.NewFromInt(100),
		ShippingReceived: decimal.NewFromInt(20),
		ShippingCost:     decimal.NewFromInt(25),
		Commission:       decimal.NewFromInt(12),
		CreatedAt:        time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestOrderService_ImportOrders(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	since := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("paginates and upserts", func(t *testing.T) {
		f := newOrderFixture(companyID)
		existing, err := sales.NewOrder(companyID, integration.PlatformMercadoLivre, "200", nil, decimal.NewFromInt(1))
		require.NoError(t, err)
		existing.ApplyMarketplaceUpdate("Pago", "", "")
		require.NoError(t, existing.SetCosts(decimal.NewFromInt(30), decimal.NewFromInt(2)))

		f.client.On("PullOrders", mock.Anything, 1).Return(&integration.OrderPullResponse{
			Orders:  []integration.MarketplaceOrder{marketplaceOrder("100", "Pago")},
			HasMore: true, NextPage: 2,
		}, nil)
		f.client.On("PullOrders", mock.Anything, 2).Return(&integration.OrderPullResponse{
			Orders: []integration.MarketplaceOrder{marketplaceOrder("200", "Enviado")},
		}, nil)
		f.repo.On("FindByExternalID", mock.Anything, companyID, integration.PlatformMercadoLivre, "100").Return(nil, shared.ErrNotFound)
		f.repo.On("FindByExternalID", mock.Anything, companyID, integration.PlatformMercadoLivre, "200").Return(existing, nil)
		f.repo.On("Save", mock.Anything, mock.AnythingOfType("*sales.Order")).Return(nil)

		res, err := f.service.ImportOrders(ctx, companyID, integration.PlatformMercadoLivre, since)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Pages)
		assert.Equal(t, 2, res.Fetched)
		assert.Equal(t, 1, res.Created)
		assert.Equal(t, 1, res.Updated)
		assert.Equal(t, 0, res.Failed)

		assert.Equal(t, "Enviado", existing.Status)
		assert.True(t, existing.ProductCost.Equal(decimal.NewFromInt(30)), "operator costs survive the update")
		assert.True(t, existing.Commission.Equal(decimal.NewFromInt(12)))
		require.Len(t, existing.Items, 1)
		f.repo.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("page failure stops the import", func(t *testing.T) {
		f := newOrderFixture(companyID)
		f.client.On("PullOrders", mock.Anything, 1).Return(&integration.OrderPullResponse{
			Orders:  []integration.MarketplaceOrder{marketplaceOrder("100", "Pago")},
			HasMore: true, NextPage: 2,
		}, nil)
		f.client.On("PullOrders", mock.Anything, 2).Return(nil, integration.ErrPlatformUnavailable)
		f.repo.On("FindByExternalID", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
		f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		res, err := f.service.ImportOrders(ctx, companyID, integration.PlatformMercadoLivre, since)
		assert.ErrorIs(t, err, integration.ErrPlatformUnavailable)
		assert.Equal(t, 1, res.Pages)
		assert.Equal(t, 1, res.Created)
	})

	t.Run("order failures are counted", func(t *testing.T) {
		f := newOrderFixture(companyID)
		f.client.On("PullOrders", mock.Anything, 1).Return(&integration.OrderPullResponse{
			Orders: []integration.MarketplaceOrder{marketplaceOrder("", "Pago"), marketplaceOrder("300", "Pago")},
		}, nil)
		f.repo.On("FindByExternalID", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
		f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

		res, err := f.service.ImportOrders(ctx, companyID, integration.PlatformMercadoLivre, since)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, 1, res.Created)
		assert.Len(t, res.Errors, 1)
	})

	t.Run("platform without client", func(t *testing.T) {
		f := newOrderFixture(companyID)
		_, err := f.service.ImportOrders(ctx, companyID, integration.PlatformShopee, since)
		assert.ErrorIs(t, err, integration.ErrPlatformNotConfigured)
	})
}

func TestOrderService_ImportRecentTask(t *testing.T) {
	companyID := uuid.New()
	f := newOrderFixture(companyID)
	f.client.On("PullOrders", mock.Anything, 1).Return(nil, errors.New("boom"))

	err := f.service.ImportRecentTask(time.Hour)(context.Background(), companyID)
	assert.Error(t, err)
	f.client.AssertNumberOfCalls(t, "PullOrders", 1)
}

func TestOrderService_RefreshOrder(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	f := newOrderFixture(companyID)
	order, err := sales.NewOrder(companyID, integration.PlatformMercadoLivre, "555", nil, decimal.NewFromInt(100))
	require.NoError(t, err)
	order.ApplyMarketplaceUpdate("Pago", "", "")

	remote := marketplaceOrder("555", "Cancelado")
	f.repo.On("FindByID", mock.Anything, companyID, order.ID).Return(order, nil)
	f.client.On("GetOrder", mock.Anything, mock.Anything, "555").Return(&remote, nil)
	f.repo.On("Save", mock.Anything, order).Return(nil)

	out, err := f.service.RefreshOrder(ctx, companyID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cancelado", out.Status)
	assert.True(t, out.Zeroed)
	assert.True(t, out.Gross.IsZero())
}

func TestOrderService_Financials(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	newOrder := func(id, status string) sales.Order {
		items := []sales.LineItem{sales.NewLineItem("Caneca", "SKU-1", 50, 2)}
		o, err := sales.NewOrder(companyID, integration.PlatformMercadoLivre, id, items, decimal.NewFromInt(100))
		require.NoError(t, err)
		o.ApplyMarketplaceUpdate(status, "", "")
		o.SetCharges(sales.Charges{Commission: decimal.NewFromInt(10)})
		return *o
	}

	t.Run("get computes the breakdown", func(t *testing.T) {
		f := newOrderFixture(companyID)
		o := newOrder("1", "Pago")
		f.repo.On("FindByID", mock.Anything, companyID, o.ID).Return(&o, nil)

		out, err := f.service.GetFinancials(ctx, companyID, o.ID)
		require.NoError(t, err)
		assert.True(t, out.Gross.Equal(decimal.NewFromInt(100)))
		assert.True(t, out.NetReceivable.Equal(decimal.NewFromInt(90)))
	})

	t.Run("not found", func(t *testing.T) {
		f := newOrderFixture(companyID)
		id := uuid.New()
		f.repo.On("FindByID", mock.Anything, companyID, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.GetFinancials(ctx, companyID, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("list keeps pagination", func(t *testing.T) {
		f := newOrderFixture(companyID)
		filter := FinancialsQuery{Page: 2, PageSize: 1}.ToFilter()
		f.repo.On("FindAll", mock.Anything, companyID, filter).Return([]sales.Order{newOrder("1", "Pago")}, int64(3), nil)

		page, err := f.service.ListFinancials(ctx, companyID, filter)
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalPages)
		assert.Len(t, page.Items, 1)
	})

	t.Run("summary reads every page", func(t *testing.T) {
		f := newOrderFixture(companyID)
		f.repo.On("FindAll", mock.Anything, companyID, mock.MatchedBy(func(fl sales.OrderFilter) bool {
			return fl.PageSize == 0
		})).Return([]sales.Order{newOrder("1", "Pago"), newOrder("2", "Cancelado")}, int64(2), nil)

		sum, err := f.service.Summary(ctx, companyID, FinancialsQuery{PageSize: 1}.ToFilter())
		require.NoError(t, err)
		assert.Equal(t, 2, sum.Orders)
		assert.Equal(t, 1, sum.ZeroedOrders)
		assert.True(t, sum.Gross.Equal(decimal.NewFromInt(100)))
	})

	t.Run("update costs", func(t *testing.T) {
		f := newOrderFixture(companyID)
		o := newOrder("1", "Pago")
		f.repo.On("FindByID", mock.Anything, companyID, o.ID).Return(&o, nil)
		f.repo.On("Save", mock.Anything, &o).Return(nil)
		taxes := decimal.NewFromInt(5)

		out, err := f.service.UpdateCosts(ctx, companyID, o.ID, UpdateCostsRequest{
			ProductCost: decimal.NewFromInt(40),
			ExtraCosts:  decimal.NewFromInt(3),
			Taxes:       &taxes,
		})
		require.NoError(t, err)
		assert.True(t, out.Profit.Equal(decimal.NewFromInt(42)))
		assert.True(t, o.Commission.Equal(decimal.NewFromInt(10)))
	})

	t.Run("negative costs are rejected", func(t *testing.T) {
		f := newOrderFixture(companyID)
		o := newOrder("1", "Pago")
		f.repo.On("FindByID", mock.Anything, companyID, o.ID).Return(&o, nil)

		_, err := f.service.UpdateCosts(ctx, companyID, o.ID, UpdateCostsRequest{ProductCost: decimal.NewFromInt(-1)})
		assert.Error(t, err)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("export", func(t *testing.T) {
		f := newOrderFixture(companyID)
		exporter := new(MockExporter)
		f.service.SetExporter(exporter)
		f.repo.On("FindAll", mock.Anything, companyID, mock.Anything).Return([]sales.Order{newOrder("1", "Pago")}, int64(1), nil)
		exporter.On("ExportFinancials", mock.Anything, mock.MatchedBy(func(rows []sales.OrderFinancials) bool {
			return len(rows) == 1 && rows[0].ExternalID == "1"
		}), mock.AnythingOfType("sales.FinancialSummary")).Return([]byte("xlsx"), nil)

		file, err := f.service.ExportFinancials(ctx, companyID, FinancialsQuery{}.ToFilter())
		require.NoError(t, err)
		assert.Equal(t, []byte("xlsx"), file.Data)
		assert.True(t, strings.HasPrefix(file.Filename, "financeiro-20260510"))
		assert.True(t, strings.HasSuffix(file.Filename, ".xlsx"))
	})

	t.Run("export without exporter", func(t *testing.T) {
		f := newOrderFixture(companyID)
		_, err := f.service.ExportFinancials(ctx, companyID, FinancialsQuery{}.ToFilter())
		assert.Error(t, err)
	})
}
