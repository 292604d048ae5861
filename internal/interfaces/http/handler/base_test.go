package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/erp/backoffice/internal/domain/integration"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"domain not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped domain error", fmt.Errorf("load: %w", shared.ErrInvalidState), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"invalid cost", shared.NewDomainError("INVALID_COST", "bad"), http.StatusBadRequest, dto.ErrCodeInvalidCost},
		{"unknown domain code", shared.NewDomainError("SOMETHING_NEW", "bad"), http.StatusInternalServerError, "SOMETHING_NEW"},
		{"fiscal api down", fiscal.ErrRemoteUnavailable, http.StatusServiceUnavailable, dto.ErrCodeUpstreamUnavailable},
		{"status constraint", fiscal.ErrStatusRejected, http.StatusInternalServerError, dto.ErrCodeInternal},
		{"marketplace auth", fmt.Errorf("x: %w", integration.ErrPlatformAuthFailed), http.StatusBadGateway, dto.ErrCodeUpstreamAuth},
		{"marketplace rate limit", integration.ErrPlatformRateLimited, http.StatusTooManyRequests, dto.ErrCodeUpstreamRateLimited},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.HandleError(c, nil)
	assert.Empty(t, w.Body.String())
}
