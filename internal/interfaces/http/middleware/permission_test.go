package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func sessionRouter(session *identity.Session, mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if session != nil {
			c.Set(JWTSessionKey, *session)
		}
		c.Next()
	})
	router.POST("/emit", mw, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequirePermission(t *testing.T) {
	newSession := func(role identity.Role, perms, modules []string) *identity.Session {
		s := identity.NewSession(uuid.New(), uuid.New(), string(role), perms, modules)
		return &s
	}

	tests := []struct {
		name     string
		session  *identity.Session
		expected int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"owner with module", newSession(identity.RoleOwner, nil, []string{"fiscal"}), http.StatusOK},
		{"owner without module", newSession(identity.RoleOwner, nil, []string{"pedidos"}), http.StatusForbidden},
		{"operator with grant", newSession(identity.RoleOperator, []string{"fiscal:emit"}, []string{"fiscal"}), http.StatusOK},
		{"operator without grant", newSession(identity.RoleOperator, []string{"fiscal:view"}, []string{"fiscal"}), http.StatusForbidden},
		{"unknown role", newSession("intern", []string{"fiscal:emit"}, []string{"fiscal"}), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := sessionRouter(tt.session, RequirePermission(identity.PermFiscalEmit))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/emit", nil))
			assert.Equal(t, tt.expected, rec.Code)
			if tt.expected == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, rec).Code)
			}
		})
	}
}

func TestRequireAnyPermission(t *testing.T) {
	s := identity.NewSession(uuid.New(), uuid.New(), "viewer", []string{"fiscal:sync"}, []string{"fiscal"})
	router := sessionRouter(&s, RequireAnyPermission(identity.PermFiscalEmit, identity.PermFiscalSync))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/emit", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
