package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	salesapp "github.com/erp/backoffice/internal/application/sales"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/sales"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderService is the application surface used by FinancialsHandler
type OrderService interface {
	ImportOrders(ctx context.Context, companyID uuid.UUID, platform integration.PlatformCode, since time.Time) (*salesapp.ImportResult, error)
	RefreshOrder(ctx context.Context, companyID, orderID uuid.UUID) (*sales.OrderFinancials, error)
	GetFinancials(ctx context.Context, companyID, orderID uuid.UUID) (*sales.OrderFinancials, error)
	ListFinancials(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) (shared.Paginated[sales.OrderFinancials], error)
	Summary(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) (sales.FinancialSummary, error)
	UpdateCosts(ctx context.Context, companyID, orderID uuid.UUID, req salesapp.UpdateCostsRequest) (*sales.OrderFinancials, error)
	ExportFinancials(ctx context.Context, companyID uuid.UUID, filter sales.OrderFilter) (*salesapp.ExportFile, error)
	ImportManualOrders(ctx context.Context, companyID uuid.UUID, r io.Reader) (*salesapp.ManualImportResult, error)
}

// maxManualImportFileSize bounds uploaded spreadsheets
const maxManualImportFileSize = 5 << 20

// FinancialsHandler handles order financial endpoints and marketplace imports
type FinancialsHandler struct {
	BaseHandler
	service OrderService
}

// NewFinancialsHandler creates a new FinancialsHandler
func NewFinancialsHandler(service OrderService) *FinancialsHandler {
	return &FinancialsHandler{service: service}
}

// RegisterRoutes mounts the financial and order routes
func (h *FinancialsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	fin := rg.Group("/financials")
	fin.GET("", middleware.RequirePermission(identity.PermFinanceView), h.List)
	fin.GET("/summary", middleware.RequirePermission(identity.PermFinanceView), h.Summary)
	fin.GET("/export", middleware.RequirePermission(identity.PermFinanceExport), h.Export)

	orders := rg.Group("/orders")
	orders.GET("/:id/financials", middleware.RequirePermission(identity.PermFinanceView), h.Get)
	orders.PUT("/:id/costs", middleware.RequirePermission(identity.PermOrdersEdit), h.UpdateCosts)
	orders.POST("/:id/refresh", middleware.RequirePermission(identity.PermOrdersImport), h.Refresh)

	rg.POST("/order-imports", middleware.RequirePermission(identity.PermOrdersImport), h.Import)
	rg.POST("/order-imports/manual", middleware.RequirePermission(identity.PermOrdersImport), h.ImportManual)
}

func (h *FinancialsHandler) bindQuery(c *gin.Context) (sales.OrderFilter, bool) {
	var q salesapp.FinancialsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return sales.OrderFilter{}, false
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		h.BadRequest(c, "'to' must not be before 'from'")
		return sales.OrderFilter{}, false
	}
	return q.ToFilter(), true
}

// List godoc
// @Summary      List order financials
// @Description  Each row carries gross, fees, net receivable, profit and margin
// @Tags         financials
// @Produce      json
// @Param        platform query string false "mercado_livre, shopee or manual"
// @Param        from query string false "Placed on or after (YYYY-MM-DD)"
// @Param        to query string false "Placed on or before (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]sales.OrderFinancials}
// @Security     BearerAuth
// @Router       /financials [get]
func (h *FinancialsHandler) List(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	filter, ok := h.bindQuery(c)
	if !ok {
		return
	}

	page, err := h.service.ListFinancials(c.Request.Context(), session.CompanyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Summary godoc
// @Summary      Summarize order financials
// @Tags         financials
// @Produce      json
// @Success      200 {object} dto.Response{data=sales.FinancialSummary}
// @Security     BearerAuth
// @Router       /financials/summary [get]
func (h *FinancialsHandler) Summary(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	filter, ok := h.bindQuery(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), session.CompanyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Export godoc
// @Summary      Export order financials as a spreadsheet
// @Tags         financials
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} file
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /financials/export [get]
func (h *FinancialsHandler) Export(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	filter, ok := h.bindQuery(c)
	if !ok {
		return
	}

	file, err := h.service.ExportFinancials(c.Request.Context(), session.CompanyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(file.Data)))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Get godoc
// @Summary      Get the financial breakdown of an order
// @Tags         financials
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=sales.OrderFinancials}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/financials [get]
func (h *FinancialsHandler) Get(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	row, err := h.service.GetFinancials(c.Request.Context(), session.CompanyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// UpdateCosts godoc
// @Summary      Set operator-entered costs of an order
// @Tags         financials
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Param        request body salesapp.UpdateCostsRequest true "Costs"
// @Success      200 {object} dto.Response{data=sales.OrderFinancials}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/costs [put]
func (h *FinancialsHandler) UpdateCosts(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req salesapp.UpdateCostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	row, err := h.service.UpdateCosts(c.Request.Context(), session.CompanyID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// Refresh godoc
// @Summary      Re-read an order from its marketplace
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=sales.OrderFinancials}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/refresh [post]
func (h *FinancialsHandler) Refresh(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	row, err := h.service.RefreshOrder(c.Request.Context(), session.CompanyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// Import godoc
// @Summary      Import marketplace orders
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body salesapp.ImportOrdersRequest true "Platform and start date"
// @Success      200 {object} dto.Response{data=salesapp.ImportResult}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /order-imports [post]
func (h *FinancialsHandler) Import(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req salesapp.ImportOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ImportOrders(c.Request.Context(), session.CompanyID, integration.PlatformCode(req.Platform), req.Since)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ImportManual godoc
// @Summary      Import orders from a spreadsheet
// @Description  CSV with one row per order line. Comma or semicolon separated, UTF-8 or Windows-1252.
// @Tags         orders
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} dto.Response{data=salesapp.ManualImportResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /order-imports/manual [post]
func (h *FinancialsHandler) ImportManual(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxManualImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "file exceeds maximum size of 5MB")
		return
	}

	result, err := h.service.ImportManualOrders(c.Request.Context(), session.CompanyID, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
