// Package router mounts the API handlers on a gin engine.
package router

import (
	"net/http"

	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by every handler that owns API routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects handlers and mounts them under /api/<version>. Probe
// routes are mounted at the root and skip the API middleware.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	probes     map[string]gin.HandlerFunc
	registrars []RouteRegistrar
}

// Option configures a Router
type Option func(*Router)

// WithAPIVersion sets the version segment of the API prefix
func WithAPIVersion(version string) Option {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithMiddleware adds middleware to the API group only
func WithMiddleware(middleware ...gin.HandlerFunc) Option {
	return func(r *Router) {
		r.middleware = append(r.middleware, middleware...)
	}
}

// WithProbe mounts an unauthenticated GET route such as /health
func WithProbe(path string, h gin.HandlerFunc) Option {
	return func(r *Router) {
		r.probes[path] = h
	}
}

// NewRouter creates a Router for engine
func NewRouter(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		probes:     make(map[string]gin.HandlerFunc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a handler for Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts probes and API routes. Unknown paths answer with the error
// envelope instead of gin's plain text 404.
func (r *Router) Setup() {
	for path, h := range r.probes {
		r.engine.GET(path, h)
	}

	api := r.engine.Group("/api/"+r.apiVersion, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", c.GetString(middleware.RequestIDKey)))
	})
}
