package handler

import (
	"context"
	"io"
	"time"

	fiscalapp "github.com/erp/backoffice/internal/application/fiscal"
	salesapp "github.com/erp/backoffice/internal/application/sales"
	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testRouter mounts a registrar under /api/v1 with session injected the way
// the JWT middleware would
func testRouter(session *identity.Session, register func(rg *gin.RouterGroup)) *gin.Engine {
	engine := gin.New()
	api := engine.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.RequestIDKey, "req-test")
		if session != nil {
			c.Set(middleware.JWTSessionKey, *session)
			c.Set(middleware.JWTCompanyIDKey, session.CompanyID.String())
		}
		c.Next()
	})
	register(api)
	return engine
}

func ownerSession(modules ...string) *identity.Session {
	if len(modules) == 0 {
		modules = []string{"fiscal", "financeiro", "pedidos"}
	}
	s := identity.NewSession(uuid.New(), uuid.New(), "owner", nil, modules)
	return &s
}

// MockFiscalService is a mock implementation of FiscalService
type MockFiscalService struct {
	mock.Mock
}

func (m *MockFiscalService) Get(ctx context.Context, companyID, id uuid.UUID) (*fiscalapp.DocumentResponse, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscalapp.DocumentResponse), args.Error(1)
}

func (m *MockFiscalService) List(ctx context.Context, companyID uuid.UUID, filter fiscal.DocumentFilter) (shared.Paginated[fiscalapp.DocumentResponse], error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).(shared.Paginated[fiscalapp.DocumentResponse]), args.Error(1)
}

func (m *MockFiscalService) Emit(ctx context.Context, companyID, orderID uuid.UUID, env fiscal.Environment) (*fiscalapp.DocumentResponse, error) {
	args := m.Called(ctx, companyID, orderID, env)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscalapp.DocumentResponse), args.Error(1)
}

func (m *MockFiscalService) Sync(ctx context.Context, companyID, documentID uuid.UUID) (*fiscalapp.DocumentResponse, error) {
	args := m.Called(ctx, companyID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscalapp.DocumentResponse), args.Error(1)
}

func (m *MockFiscalService) Cancel(ctx context.Context, companyID, documentID uuid.UUID, justification string) (*fiscalapp.DocumentResponse, error) {
	args := m.Called(ctx, companyID, documentID, justification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscalapp.DocumentResponse), args.Error(1)
}

func (m *MockFiscalService) SyncBatch(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) fiscalapp.BatchResult {
	args := m.Called(ctx, companyID, ids)
	return args.Get(0).(fiscalapp.BatchResult)
}

func (m *MockFiscalService) SyncPending(ctx context.Context, companyID uuid.UUID) (fiscalapp.BatchResult, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(fiscalapp.BatchResult), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) ImportOrders(ctx context.Context, companyID uuid.UUID, platform integration.PlatformCode, since time.Time) (*salesapp.ImportResult, error) {
	args := m.Called(ctx, companyID, platform, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.ImportResult), args.Error(1)
}

func (m *MockOrderService) RefreshOrder(ctx context.Context, companyID, orderID uuid.UUID) (*sales.OrderFinancials, error) {
	args := m.Called(ctx, companyID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.OrderFinancials), args.Error(1)
}

func (m *MockOrderService) GetFinancials(ctx context.Context, companyID, orderID uuid.UUID) (*sales.OrderFinancials, error) {
	args := m.Called(ctx, companyID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.OrderFinancials), args.Error(1)
}

func (m *MockOrderService) ListFinancials(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) (shared.Paginated[sales.OrderFinancials], error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).(shared.Paginated[sales.OrderFinancials]), args.Error(1)
}

func (m *MockOrderService) Summary(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) (sales.FinancialSummary, error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).(sales.FinancialSummary), args.Error(1)
}

func (m *MockOrderService) UpdateCosts(ctx context.Context, companyID, orderID uuid.UUID, req salesapp.UpdateCostsRequest) (*sales.OrderFinancials, error) {
	args := m.Called(ctx, companyID, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.OrderFinancials), args.Error(1)
}

func (m *MockOrderService) ExportFinancials(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) (*salesapp.ExportFile, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.ExportFile), args.Error(1)
}

func (m *MockOrderService) ImportManualOrders(ctx context.Context, companyID uuid.UUID, r io.Reader) (*salesapp.ManualImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	args := m.Called(ctx, companyID, string(raw))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*salesapp.ManualImportResult), args.Error(1)
}
