package handler

import (
	"errors"
	"net/http"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/logger"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// upstreamErrors maps adapter sentinels to API codes, checked in order
var upstreamErrors = []struct {
	err  error
	code string
}{
	{fiscal.ErrRemoteNotFound, dto.ErrCodeUpstreamNotFound},
	{fiscal.ErrRemoteUnavailable, dto.ErrCodeUpstreamUnavailable},
	{fiscal.ErrRemoteRejected, dto.ErrCodeUpstreamRejected},
	{fiscal.ErrStatusRejected, dto.ErrCodeInternal},
	{integration.ErrPlatformNotConfigured, dto.ErrCodePlatformNotConfigured},
	{integration.ErrInvalidPlatformCode, dto.ErrCodeInvalidPlatform},
	{integration.ErrOrderNotFound, dto.ErrCodeUpstreamNotFound},
	{integration.ErrPlatformAuthFailed, dto.ErrCodeUpstreamAuth},
	{integration.ErrPlatformRateLimited, dto.ErrCodeUpstreamRateLimited},
	{integration.ErrPlatformUnavailable, dto.ErrCodeUpstreamUnavailable},
	{integration.ErrPlatformRequestFailed, dto.ErrCodeUpstreamRejected},
	{integration.ErrPlatformInvalidResponse, dto.ErrCodeUpstreamRejected},
}

var upstreamMessages = map[string]string{
	dto.ErrCodeUpstreamNotFound:      "Resource not found on the remote service",
	dto.ErrCodeUpstreamUnavailable:   "Remote service is unavailable",
	dto.ErrCodeUpstreamRejected:      "Request rejected by the remote service",
	dto.ErrCodeUpstreamAuth:          "Remote service rejected the credentials",
	dto.ErrCodeUpstreamRateLimited:   "Remote service rate limit reached",
	dto.ErrCodePlatformNotConfigured: "Marketplace is not configured for this company",
	dto.ErrCodeInvalidPlatform:       "Unknown marketplace",
	dto.ErrCodeInternal:              "An unexpected error occurred",
}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// session returns the caller's session, answering 401 when there is none
func (h *BaseHandler) session(c *gin.Context) (identity.Session, bool) {
	s, ok := middleware.GetSession(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
	}
	return s, ok
}

// pathID parses a UUID path parameter, answering 400 when malformed
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Paginated sends a page of items with pagination meta
func Paginated[T any](c *gin.Context, page shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// HandleError converts service errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.HandleErrorWithOperatorMessage(c, err, "")
}

// HandleErrorWithOperatorMessage converts service errors to HTTP responses and
// attaches the operator-facing text. Domain errors win over adapter sentinels.
func (h *BaseHandler) HandleErrorWithOperatorMessage(c *gin.Context, err error, operatorMessage string) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	code, message := dto.ErrCodeInternal, "An unexpected error occurred"
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code, message = dto.NormalizeErrorCode(domainErr.Code), domainErr.Message
	} else {
		for _, u := range upstreamErrors {
			if errors.Is(err, u.err) {
				code, message = u.code, upstreamMessages[u.code]
				break
			}
		}
	}

	status := dto.GetHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("Request failed", zap.Error(err), zap.String("code", code))
	}

	resp := dto.NewErrorResponseWithRequestID(code, message, getRequestID(c))
	resp.Error.OperatorMessage = operatorMessage
	c.JSON(status, resp)
}
