package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	fiscalapp "github.com/erp/backoffice/internal/application/fiscal"
	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func fiscalRouter(session *identity.Session, svc *MockFiscalService) *gin.Engine {
	return testRouter(session, NewFiscalHandler(svc).RegisterRoutes)
}

func TestFiscalHandler_Emit(t *testing.T) {
	session := ownerSession()
	orderID := uuid.New()
	path := fmt.Sprintf("/api/v1/fiscal/orders/%s/emit", orderID)

	t.Run("default environment", func(t *testing.T) {
		svc := new(MockFiscalService)
		svc.On("Emit", mock.Anything, session.CompanyID, orderID, fiscal.Environment("")).
			Return(&fiscalapp.DocumentResponse{OrderID: orderID, Status: "autorizada"}, nil)

		rec, resp := doJSON(t, fiscalRouter(session, svc), http.MethodPost, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
		assert.Contains(t, string(resp.Data), `"status":"autorizada"`)
		svc.AssertExpectations(t)
	})

	t.Run("environment spelling is normalized", func(t *testing.T) {
		svc := new(MockFiscalService)
		svc.On("Emit", mock.Anything, session.CompanyID, orderID, fiscal.EnvironmentProduction).
			Return(&fiscalapp.DocumentResponse{OrderID: orderID}, nil)

		rec, _ := doJSON(t, fiscalRouter(session, svc), http.MethodPost, path, EmitRequest{Environment: "Produção"})
		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	tests := []struct {
		name      string
		err       error
		status    int
		code      string
		opMessage string
	}{
		{"zeroed order", fiscalapp.ErrOrderZeroed, http.StatusUnprocessableEntity, dto.ErrCodeOrderZeroed, fiscal.OperatorMessage("pedido_cancelado")},
		{"lock held", fiscalapp.ErrEmissionInProgress, http.StatusConflict, dto.ErrCodeEmissionInProgress, fiscal.OperatorMessage("emissao_em_andamento")},
		{"already authorized", fiscalapp.ErrEmissionNotAllowed, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState, fiscalapp.ErrEmissionNotAllowed.Message},
		{"order missing", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound, shared.ErrNotFound.Message},
		{"api down", fmt.Errorf("emit: %w", fiscal.ErrRemoteUnavailable), http.StatusServiceUnavailable, dto.ErrCodeUpstreamUnavailable, fiscal.OperatorMessage("api_indisponivel")},
		{"api rejected", fiscal.ErrRemoteRejected, http.StatusBadGateway, dto.ErrCodeUpstreamRejected, fiscal.OperatorMessage("requisicao_invalida")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockFiscalService)
			svc.On("Emit", mock.Anything, session.CompanyID, orderID, mock.Anything).Return(nil, tt.err)

			rec, resp := doJSON(t, fiscalRouter(session, svc), http.MethodPost, path, nil)
			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.opMessage, resp.Error.OperatorMessage)
			assert.Equal(t, "req-test", resp.Error.RequestID)
		})
	}

	t.Run("invalid order id", func(t *testing.T) {
		svc := new(MockFiscalService)
		rec, _ := doJSON(t, fiscalRouter(session, svc), http.MethodPost, "/api/v1/fiscal/orders/nope/emit", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Emit")
	})

	t.Run("operator without grant", func(t *testing.T) {
		svc := new(MockFiscalService)
		viewer := identity.NewSession(uuid.New(), uuid.New(), "operator", []string{"fiscal:view"}, []string{"fiscal"})
		rec, _ := doJSON(t, fiscalRouter(&viewer, svc), http.MethodPost, path, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		svc.AssertNotCalled(t, "Emit")
	})

	t.Run("module disabled", func(t *testing.T) {
		svc := new(MockFiscalService)
		rec, _ := doJSON(t, fiscalRouter(ownerSession("pedidos"), svc), http.MethodPost, path, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestFiscalHandler_Cancel(t *testing.T) {
	session := ownerSession()
	docID := uuid.New()
	path := fmt.Sprintf("/api/v1/fiscal/documents/%s/cancel", docID)

	t.Run("missing body", func(t *testing.T) {
		svc := new(MockFiscalService)
		rec, resp := doJSON(t, fiscalRouter(session, svc), http.MethodPost, path, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	})

	t.Run("short justification", func(t *testing.T) {
		svc := new(MockFiscalService)
		svc.On("Cancel", mock.Anything, session.CompanyID, docID, "curta").Return(nil, fiscal.ErrInvalidJustification)

		rec, resp := doJSON(t, fiscalRouter(session, svc), http.MethodPost, path, CancelRequest{Justification: "curta"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeInvalidJustification, resp.Error.Code)
		assert.Equal(t, fiscal.OperatorMessage("justificativa_invalida"), resp.Error.OperatorMessage)
	})

	t.Run("success", func(t *testing.T) {
		svc := new(MockFiscalService)
		reason := "Pedido cancelado pelo comprador"
		svc.On("Cancel", mock.Anything, session.CompanyID, docID, reason).
			Return(&fiscalapp.DocumentResponse{ID: docID, Status: "cancelada"}, nil)

		rec, resp := doJSON(t, fiscalRouter(session, svc), http.MethodPost, path, CancelRequest{Justification: reason})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, string(resp.Data), `"status":"cancelada"`)
	})
}

func TestFiscalHandler_List(t *testing.T) {
	session := ownerSession()
	svc := new(MockFiscalService)
	svc.On("List", mock.Anything, session.CompanyID, fiscal.DocumentFilter{
		Page:        2,
		PageSize:    5,
		Status:      fiscal.StatusPending,
		Environment: fiscal.EnvironmentHomologation,
	}).Return(shared.NewPaginated([]fiscalapp.DocumentResponse{{Status: "pendente"}}, 6, 2, 5), nil)

	rec, resp := doJSON(t, fiscalRouter(session, svc), http.MethodGet,
		"/api/v1/fiscal/documents?page=2&page_size=5&status=pendente&environment=homologacao", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(6), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	svc.AssertExpectations(t)

	rec, _ = doJSON(t, fiscalRouter(session, new(MockFiscalService)), http.MethodGet,
		"/api/v1/fiscal/documents?status=processando", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFiscalHandler_SyncBatch(t *testing.T) {
	session := ownerSession()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	svc := new(MockFiscalService)
	svc.On("SyncBatch", mock.Anything, session.CompanyID, ids).Return(fiscalapp.BatchResult{
		Items: []fiscalapp.ItemResult{
			{DocumentID: ids[0], OK: true, Status: "autorizada"},
			{DocumentID: ids[1], Error: "boom", OperatorMessage: fiscal.OperatorMessage("api_indisponivel")},
		},
		Succeeded: 1,
		Failed:    1,
	})

	rec, resp := doJSON(t, fiscalRouter(session, svc), http.MethodPost, "/api/v1/fiscal/sync-batch",
		SyncBatchRequest{DocumentIDs: []string{ids[0].String(), ids[1].String()}})
	assert.Equal(t, http.StatusOK, rec.Code, "partial failure is still a 200")
	var batch fiscalapp.BatchResult
	require.NoError(t, json.Unmarshal(resp.Data, &batch))
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)

	rec, _ = doJSON(t, fiscalRouter(session, new(MockFiscalService)), http.MethodPost, "/api/v1/fiscal/sync-batch",
		SyncBatchRequest{DocumentIDs: []string{"not-a-uuid"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFiscalHandler_SyncAndPending(t *testing.T) {
	session := ownerSession()
	docID := uuid.New()

	svc := new(MockFiscalService)
	svc.On("Sync", mock.Anything, session.CompanyID, docID).Return(nil, fiscal.ErrRemoteNotFound)
	svc.On("SyncPending", mock.Anything, session.CompanyID).Return(fiscalapp.BatchResult{Items: []fiscalapp.ItemResult{}}, nil)
	router := fiscalRouter(session, svc)

	rec, resp := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/fiscal/documents/%s/sync", docID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, dto.ErrCodeUpstreamNotFound, resp.Error.Code)
	assert.Equal(t, fiscal.OperatorMessage("nao_encontrado"), resp.Error.OperatorMessage)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/fiscal/sync-pending", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestFiscalHandler_NoSession(t *testing.T) {
	rec, _ := doJSON(t, fiscalRouter(nil, new(MockFiscalService)), http.MethodGet, "/api/v1/fiscal/documents", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
