// Package focusnfe is the fiscal.Gateway adapter for the Focus NFe v2 REST API.
package focusnfe

import (
	"errors"
	"time"

	"github.com/erp/backoffice/internal/domain/fiscal"
	infraconfig "github.com/erp/backoffice/internal/infrastructure/config"
)

const (
	// HomologationURL is the Focus NFe sandbox endpoint
	HomologationURL = "https://homologacao.focusnfe.com.br"
	// ProductionURL is the Focus NFe production endpoint
	ProductionURL = "https://api.focusnfe.com.br"

	defaultTimeout = 30 * time.Second
)

// Errors for Focus NFe configuration and payloads
var (
	ErrMissingToken   = errors.New("focusnfe: API token is required")
	ErrUnknownEnv     = errors.New("focusnfe: unknown environment")
	ErrInvalidPayload = errors.New("focusnfe: invalid NF-e payload")
)

// Endpoint is the base URL and token of one environment
type Endpoint struct {
	BaseURL string
	Token   string
}

// Config holds the endpoints per environment and the outbound pacing
type Config struct {
	Endpoints         map[fiscal.Environment]Endpoint
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// ConfigFromApp maps the service configuration. Environments without a
// token are left out, so calls against them fail with ErrMissingToken.
func ConfigFromApp(cfg infraconfig.FocusConfig) *Config {
	c := &Config{
		Endpoints:         make(map[fiscal.Environment]Endpoint),
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}
	if cfg.HomologationToken != "" {
		c.Endpoints[fiscal.EnvironmentHomologation] = Endpoint{BaseURL: cfg.HomologationURL, Token: cfg.HomologationToken}
	}
	if cfg.ProductionToken != "" {
		c.Endpoints[fiscal.EnvironmentProduction] = Endpoint{BaseURL: cfg.ProductionURL, Token: cfg.ProductionToken}
	}
	return c
}

// Validate fills defaults
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	for env, ep := range c.Endpoints {
		if ep.BaseURL == "" {
			switch env {
			case fiscal.EnvironmentProduction:
				ep.BaseURL = ProductionURL
			default:
				ep.BaseURL = HomologationURL
			}
			c.Endpoints[env] = ep
		}
	}
	return nil
}

func (c *Config) endpoint(env fiscal.Environment) (Endpoint, error) {
	if !env.IsValid() {
		return Endpoint{}, ErrUnknownEnv
	}
	ep, ok := c.Endpoints[env]
	if !ok || ep.Token == "" {
		return Endpoint{}, ErrMissingToken
	}
	return ep, nil
}
