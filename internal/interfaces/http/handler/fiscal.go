package handler

import (
	"context"

	fiscalapp "github.com/erp/backoffice/internal/application/fiscal"
	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FiscalService is the application surface used by FiscalHandler
type FiscalService interface {
	Get(ctx context.Context, companyID, id uuid.UUID) (*fiscalapp.DocumentResponse, error)
	List(ctx context.Context, companyID uuid.UUID, filter fiscal.DocumentFilter) (shared.Paginated[fiscalapp.DocumentResponse], error)
	Emit(ctx context.Context, companyID, orderID uuid.UUID, env fiscal.Environment) (*fiscalapp.DocumentResponse, error)
	Sync(ctx context.Context, companyID, documentID uuid.UUID) (*fiscalapp.DocumentResponse, error)
	Cancel(ctx context.Context, companyID, documentID uuid.UUID, justification string) (*fiscalapp.DocumentResponse, error)
	SyncBatch(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) fiscalapp.BatchResult
	SyncPending(ctx context.Context, companyID uuid.UUID) (fiscalapp.BatchResult, error)
}

// FiscalHandler handles NF-e endpoints
type FiscalHandler struct {
	BaseHandler
	service FiscalService
}

// NewFiscalHandler creates a new FiscalHandler
func NewFiscalHandler(service FiscalService) *FiscalHandler {
	return &FiscalHandler{service: service}
}

// EmitRequest selects the SEFAZ environment; empty means the configured default
type EmitRequest struct {
	Environment string `json:"environment" example:"homologacao"`
}

// CancelRequest carries the cancellation justification
type CancelRequest struct {
	Justification string `json:"justification" binding:"required" example:"Pedido cancelado pelo comprador antes do envio"`
}

// SyncBatchRequest lists documents to synchronize
type SyncBatchRequest struct {
	DocumentIDs []string `json:"document_ids" binding:"required,min=1,max=100,dive,uuid"`
}

// RegisterRoutes mounts the fiscal routes
func (h *FiscalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/fiscal")
	g.GET("/documents", middleware.RequirePermission(identity.PermFiscalView), h.List)
	g.GET("/documents/:id", middleware.RequirePermission(identity.PermFiscalView), h.Get)
	g.POST("/documents/:id/sync", middleware.RequirePermission(identity.PermFiscalSync), h.Sync)
	g.POST("/documents/:id/cancel", middleware.RequirePermission(identity.PermFiscalCancel), h.Cancel)
	g.POST("/orders/:id/emit", middleware.RequirePermission(identity.PermFiscalEmit), h.Emit)
	g.POST("/sync-batch", middleware.RequirePermission(identity.PermFiscalSync), h.SyncBatch)
	g.POST("/sync-pending", middleware.RequirePermission(identity.PermFiscalSync), h.SyncPending)
}

func (h *FiscalHandler) fail(c *gin.Context, err error) {
	h.HandleErrorWithOperatorMessage(c, err, fiscalapp.OperatorMessageFor(err))
}

// List godoc
// @Summary      List fiscal documents
// @Tags         fiscal
// @Produce      json
// @Param        status query string false "Local status" Enums(pendente, autorizada, rejeitada, denegada, cancelada)
// @Param        environment query string false "homologacao or producao"
// @Param        order_id query string false "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]fiscalapp.DocumentResponse}
// @Security     BearerAuth
// @Router       /fiscal/documents [get]
func (h *FiscalHandler) List(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req fiscalapp.ListDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.service.List(c.Request.Context(), session.CompanyID, req.ToFilter())
	if err != nil {
		h.fail(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
// @Summary      Get a fiscal document
// @Tags         fiscal
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} dto.Response{data=fiscalapp.DocumentResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fiscal/documents/{id} [get]
func (h *FiscalHandler) Get(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Get(c.Request.Context(), session.CompanyID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Success(c, doc)
}

// Emit godoc
// @Summary      Emit the NF-e of an order
// @Description  Sends the order's invoice for authorization and stores the answer
// @Tags         fiscal
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body EmitRequest false "Environment"
// @Success      200 {object} dto.Response{data=fiscalapp.DocumentResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fiscal/orders/{id}/emit [post]
func (h *FiscalHandler) Emit(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req EmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	env := fiscal.Environment(req.Environment)
	if parsed, ok := fiscal.ParseEnvironment(req.Environment); ok {
		env = parsed
	}

	doc, err := h.service.Emit(c.Request.Context(), session.CompanyID, orderID, env)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Success(c, doc)
}

// Sync godoc
// @Summary      Synchronize a fiscal document
// @Tags         fiscal
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} dto.Response{data=fiscalapp.DocumentResponse}
// @Security     BearerAuth
// @Router       /fiscal/documents/{id}/sync [post]
func (h *FiscalHandler) Sync(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Sync(c.Request.Context(), session.CompanyID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Success(c, doc)
}

// Cancel godoc
// @Summary      Cancel an authorized NF-e
// @Tags         fiscal
// @Accept       json
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Param        request body CancelRequest true "Justification, 15 to 255 characters"
// @Success      200 {object} dto.Response{data=fiscalapp.DocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fiscal/documents/{id}/cancel [post]
func (h *FiscalHandler) Cancel(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doc, err := h.service.Cancel(c.Request.Context(), session.CompanyID, id, req.Justification)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Success(c, doc)
}

// SyncBatch godoc
// @Summary      Synchronize several fiscal documents
// @Description  Per-document results; one failure does not stop the others
// @Tags         fiscal
// @Accept       json
// @Produce      json
// @Param        request body SyncBatchRequest true "Document IDs"
// @Success      200 {object} dto.Response{data=fiscalapp.BatchResult}
// @Security     BearerAuth
// @Router       /fiscal/sync-batch [post]
func (h *FiscalHandler) SyncBatch(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req SyncBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	ids := make([]uuid.UUID, 0, len(req.DocumentIDs))
	for _, raw := range req.DocumentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid document ID: "+raw)
			return
		}
		ids = append(ids, id)
	}

	h.Success(c, h.service.SyncBatch(c.Request.Context(), session.CompanyID, ids))
}

// SyncPending godoc
// @Summary      Synchronize every pending fiscal document
// @Tags         fiscal
// @Produce      json
// @Success      200 {object} dto.Response{data=fiscalapp.BatchResult}
// @Security     BearerAuth
// @Router       /fiscal/sync-pending [post]
func (h *FiscalHandler) SyncPending(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	result, err := h.service.SyncPending(c.Request.Context(), session.CompanyID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Success(c, result)
}
