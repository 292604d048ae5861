package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	salesapp "github.com/erp/backoffice/internal/application/sales"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func financialsRouter(session *identity.Session, svc *MockOrderService) *gin.Engine {
	return testRouter(session, NewFinancialsHandler(svc).RegisterRoutes)
}

func TestFinancialsHandler_List(t *testing.T) {
	session := ownerSession()
	svc := new(MockOrderService)
	row := sales.OrderFinancials{OrderID: uuid.New(), Platform: integration.PlatformMercadoLivre, ExternalID: "2000001"}

	svc.On("ListFinancials", mock.Anything, session.CompanyID, mock.MatchedBy(func(f sales.OrderFilter) bool {
		return f.Page == 1 && f.PageSize == 50 &&
			f.Platform == integration.PlatformMercadoLivre &&
			f.OrderBy == "placed_at" &&
			f.From != nil && f.From.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	})).Return(shared.NewPaginated([]sales.OrderFinancials{row}, 1, 1, 50), nil)

	rec, resp := doJSON(t, financialsRouter(session, svc), http.MethodGet,
		"/api/v1/financials?page_size=50&platform=mercado_livre&from=2024-03-01", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
	assert.Contains(t, string(resp.Data), `"external_id":"2000001"`)
	svc.AssertExpectations(t)
}

func TestFinancialsHandler_ListRejectsBadQuery(t *testing.T) {
	session := ownerSession()
	tests := []string{
		"/api/v1/financials?platform=amazon",
		"/api/v1/financials?from=2024-03-10&to=2024-03-01",
		"/api/v1/financials?order_dir=sideways",
	}
	for _, path := range tests {
		svc := new(MockOrderService)
		rec, _ := doJSON(t, financialsRouter(session, svc), http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		svc.AssertNotCalled(t, "ListFinancials")
	}
}

func TestFinancialsHandler_Summary(t *testing.T) {
	session := ownerSession()
	svc := new(MockOrderService)
	svc.On("Summary", mock.Anything, session.CompanyID, mock.Anything).Return(sales.FinancialSummary{
		Orders: 2,
		Gross:  decimal.RequireFromString("150.00"),
	}, nil)

	rec, resp := doJSON(t, financialsRouter(session, svc), http.MethodGet, "/api/v1/financials/summary", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"orders":2`)
	assert.Contains(t, string(resp.Data), `"gross":"150"`)
}

func TestFinancialsHandler_Export(t *testing.T) {
	session := ownerSession()

	t.Run("spreadsheet", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("ExportFinancials", mock.Anything, session.CompanyID, mock.Anything).Return(&salesapp.ExportFile{
			Filename:    "financeiro-20240301-120000.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        []byte("PK\x03\x04"),
		}, nil)

		rec, _ := doJSON(t, financialsRouter(session, svc), http.MethodGet, "/api/v1/financials/export", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename="financeiro-20240301-120000.xlsx"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
		assert.Equal(t, "PK\x03\x04", rec.Body.String())
	})

	t.Run("no exporter", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("ExportFinancials", mock.Anything, session.CompanyID, mock.Anything).
			Return(nil, shared.NewDomainError("EXPORT_UNAVAILABLE", "Financial export is not configured"))

		rec, resp := doJSON(t, financialsRouter(session, svc), http.MethodGet, "/api/v1/financials/export", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, dto.ErrCodeExportUnavailable, resp.Error.Code)
	})

	t.Run("requires export permission", func(t *testing.T) {
		svc := new(MockOrderService)
		viewer := identity.NewSession(uuid.New(), uuid.New(), "viewer", []string{"financeiro:view"}, []string{"financeiro"})
		rec, _ := doJSON(t, financialsRouter(&viewer, svc), http.MethodGet, "/api/v1/financials/export", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestFinancialsHandler_UpdateCosts(t *testing.T) {
	session := ownerSession()
	orderID := uuid.New()
	path := fmt.Sprintf("/api/v1/orders/%s/costs", orderID)

	t.Run("success", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("UpdateCosts", mock.Anything, session.CompanyID, orderID, mock.MatchedBy(func(r salesapp.UpdateCostsRequest) bool {
			return r.ProductCost.Equal(decimal.NewFromInt(40)) && r.Taxes != nil && r.Taxes.Equal(decimal.NewFromInt(5))
		})).Return(&sales.OrderFinancials{OrderID: orderID}, nil)

		rec, _ := doJSON(t, financialsRouter(session, svc), http.MethodPut, path,
			map[string]string{"product_cost": "40", "extra_costs": "0", "taxes": "5"})
		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("negative cost", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("UpdateCosts", mock.Anything, session.CompanyID, orderID, mock.Anything).
			Return(nil, shared.NewDomainError("INVALID_COST", "Costs cannot be negative"))

		rec, resp := doJSON(t, financialsRouter(session, svc), http.MethodPut, path,
			map[string]string{"product_cost": "-1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeInvalidCost, resp.Error.Code)
		assert.Empty(t, resp.Error.OperatorMessage)
	})
}

func TestFinancialsHandler_GetAndRefresh(t *testing.T) {
	session := ownerSession()
	orderID := uuid.New()
	svc := new(MockOrderService)
	svc.On("GetFinancials", mock.Anything, session.CompanyID, orderID).Return(nil, shared.ErrNotFound)
	svc.On("RefreshOrder", mock.Anything, session.CompanyID, orderID).
		Return(nil, fmt.Errorf("get order: %w", integration.ErrPlatformUnavailable))
	router := financialsRouter(session, svc)

	rec, resp := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/orders/%s/financials", orderID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)

	rec, resp = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/refresh", orderID), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, dto.ErrCodeUpstreamUnavailable, resp.Error.Code)
}

func TestFinancialsHandler_Import(t *testing.T) {
	session := ownerSession()
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("ImportOrders", mock.Anything, session.CompanyID, integration.PlatformShopee, since).
			Return(&salesapp.ImportResult{Platform: integration.PlatformShopee, Pages: 1, Fetched: 3, Created: 3}, nil)

		rec, resp := doJSON(t, financialsRouter(session, svc), http.MethodPost, "/api/v1/order-imports",
			salesapp.ImportOrdersRequest{Platform: "shopee", Since: since})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, string(resp.Data), `"created":3`)
	})

	t.Run("platform not configured", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("ImportOrders", mock.Anything, session.CompanyID, integration.PlatformShopee, since).
			Return(&salesapp.ImportResult{Platform: integration.PlatformShopee}, integration.ErrPlatformNotConfigured)

		rec, resp := doJSON(t, financialsRouter(session, svc), http.MethodPost, "/api/v1/order-imports",
			salesapp.ImportOrdersRequest{Platform: "shopee", Since: since})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, dto.ErrCodePlatformNotConfigured, resp.Error.Code)
	})

	t.Run("unknown platform", func(t *testing.T) {
		svc := new(MockOrderService)
		rec, _ := doJSON(t, financialsRouter(session, svc), http.MethodPost, "/api/v1/order-imports",
			map[string]any{"platform": "amazon", "since": since})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "ImportOrders")
	})
}

func postCSV(t *testing.T, engine *gin.Engine, field, content string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, "pedidos.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/order-imports/manual", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestFinancialsHandler_ImportManual(t *testing.T) {
	session := ownerSession()
	const csv = "order_id,placed_at\nB-1,2024-03-15\n"

	t.Run("success", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("ImportManualOrders", mock.Anything, session.CompanyID, csv).
			Return(&salesapp.ManualImportResult{TotalRows: 1, Orders: 1, Created: 1}, nil)

		rec, resp := postCSV(t, financialsRouter(session, svc), "file", csv)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, string(resp.Data), `"created":1`)
		svc.AssertExpectations(t)
	})

	t.Run("invalid file", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("ImportManualOrders", mock.Anything, session.CompanyID, "x").
			Return(nil, shared.NewDomainError("INVALID_INPUT", "Missing required columns: order_id, placed_at"))

		rec, resp := postCSV(t, financialsRouter(session, svc), "file", "x")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		svc := new(MockOrderService)
		rec, _ := postCSV(t, financialsRouter(session, svc), "upload", csv)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "ImportManualOrders")
	})
}
