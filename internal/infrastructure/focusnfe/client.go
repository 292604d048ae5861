package focusnfe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/erp/backoffice/internal/domain/fiscal"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseSize bounds API and artifact downloads (10MB)
const maxResponseSize = 10 * 1024 * 1024

var _ fiscal.Gateway = (*Client)(nil)

// APIError is a non-2xx answer from Focus NFe. It unwraps to the matching
// fiscal sentinel.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("focusnfe: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("focusnfe: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// ErrorCode returns the Focus NFe error code ("codigo")
func (e *APIError) ErrorCode() string {
	return e.Code
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return fiscal.ErrRemoteNotFound
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return fiscal.ErrRemoteUnavailable
	default:
		return fiscal.ErrRemoteRejected
	}
}

// Client talks to Focus NFe
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	validate   *validator.Validate
	logger     *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Focus NFe client
func NewClient(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("focusnfe: configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Emit sends an NF-e for authorization under ref
func (c *Client) Emit(ctx context.Context, env fiscal.Environment, ref string, inv fiscal.Invoice) (*fiscal.RemoteReport, error) {
	payload := buildPayload(inv)
	if err := c.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("focusnfe: failed to encode payload: %w", err)
	}
	return c.call(ctx, env, http.MethodPost, "/v2/nfe?ref="+url.QueryEscape(ref), body)
}

// Query fetches the full current state of the invoice under ref
func (c *Client) Query(ctx context.Context, env fiscal.Environment, ref string) (*fiscal.RemoteReport, error) {
	return c.call(ctx, env, http.MethodGet, "/v2/nfe/"+url.PathEscape(ref)+"?completa=1", nil)
}

// Cancel asks SEFAZ, through Focus NFe, to cancel the authorized invoice under ref
func (c *Client) Cancel(ctx context.Context, env fiscal.Environment, ref, justification string) (*fiscal.RemoteReport, error) {
	body, err := json.Marshal(cancelPayload{Justificativa: justification})
	if err != nil {
		return nil, fmt.Errorf("focusnfe: failed to encode payload: %w", err)
	}
	return c.call(ctx, env, http.MethodDelete, "/v2/nfe/"+url.PathEscape(ref), body)
}

// Download fetches an artifact link returned by the API. Links on a
// configured host are fetched with that environment's credentials.
func (c *Client) Download(ctx context.Context, link string) ([]byte, error) {
	target, err := url.Parse(link)
	if err != nil || !target.IsAbs() {
		return nil, fmt.Errorf("focusnfe: invalid artifact link %q", link)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("focusnfe: failed to create request: %w", err)
	}
	for _, ep := range c.config.Endpoints {
		if base, err := url.Parse(ep.BaseURL); err == nil && base.Host == target.Host {
			req.SetBasicAuth(ep.Token, "")
			break
		}
	}

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, &APIError{StatusCode: status}
	}
	return body, nil
}

func (c *Client) call(ctx context.Context, env fiscal.Environment, method, path string, body []byte) (*fiscal.RemoteReport, error) {
	ep, err := c.config.endpoint(env)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(ep.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, fmt.Errorf("focusnfe: failed to create request: %w", err)
	}
	req.SetBasicAuth(ep.Token, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	respBody, status, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp nfeResponse
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &resp); err != nil && status < 300 {
			return nil, fmt.Errorf("%w: failed to parse response: %v", fiscal.ErrRemoteUnavailable, err)
		}
	}

	c.logger.Debug("Focus NFe call",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("environment", env.String()),
		zap.Int("status", status),
		zap.String("nfe_status", resp.Status),
	)

	if status >= 300 {
		return nil, &APIError{StatusCode: status, Code: resp.Codigo, Message: resp.Mensagem}
	}
	return resp.toReport(ep.BaseURL), nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", fiscal.ErrRemoteUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", fiscal.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to read response: %v", fiscal.ErrRemoteUnavailable, err)
	}
	return body, resp.StatusCode, nil
}
