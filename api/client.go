package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	errs "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxResponseBody = 1 << 20

// SessionHooks connects the client to the authentication actions.
type SessionHooks interface {
	IsAuthenticated() bool
	// RefreshAccessToken returns the new access token. A failed refresh returns
	// an error; a wait abandoned because ctx ended returns an error wrapping ctx.Err().
	RefreshAccessToken(ctx context.Context) (string, error)
	Logout()
}

// BearerFunc returns the token to present, or "" for none.
type BearerFunc func() string

// FirstNonEmpty resolves the bearer from sources in order of precedence.
func FirstNonEmpty(sources ...BearerFunc) BearerFunc {
	return func() string {
		for _, source := range sources {
			if source == nil {
				continue
			}
			if t := source(); t != "" {
				return t
			}
		}
		return ""
	}
}

// Client sends API requests through the bearer, normalization and
// refresh-and-retry pipeline.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	bearer     BearerFunc
	hooks      SessionHooks
	notifier   Notifier
	metrics    *metrics.Collector
	logger     zerolog.Logger
}

type ClientOption func(*Client)

// WithHTTPClient sends requests through a copy of httpClient, so later options
// such as WithTimeout never modify a shared client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		hc := *httpClient
		c.httpClient = &hc
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithBearer(bearer BearerFunc) ClientOption {
	return func(c *Client) {
		c.bearer = bearer
	}
}

func WithSessionHooks(hooks SessionHooks) ClientOption {
	return func(c *Client) {
		c.hooks = hooks
	}
}

func WithNotifier(notifier Notifier) ClientOption {
	return func(c *Client) {
		c.notifier = notifier
	}
}

func WithMetrics(collector *metrics.Collector) ClientOption {
	return func(c *Client) {
		c.metrics = collector
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, options ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api.New parse base URL: %w", err)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = logNotifier{logger: c.logger}
	}
	return c, nil
}

// SetSessionHooks binds the authentication actions after construction, since
// the actions themselves call endpoints through this client.
func (c *Client) SetSessionHooks(hooks SessionHooks) {
	c.hooks = hooks
}

// Do sends req and decodes a successful JSON response into out (when non-nil).
// A 401 on an authenticated session triggers one refresh and one re-issue.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	status, body, err := c.send(ctx, req)
	if err != nil {
		if !req.bare && ctx.Err() == nil {
			c.notifier.Notify(unknownErrorMessage)
		}
		return &Error{Message: unknownErrorMessage, Err: fmt.Errorf("%w: %v", errs.ErrNetwork, err)}
	}

	if status < http.StatusBadRequest {
		return decode(body, out)
	}

	message := errorMessage(body)
	if req.bare {
		return newError(status, message)
	}

	if status == http.StatusUnauthorized && !req.retried && !req.noRefresh {
		return c.handleUnauthorized(ctx, req, out, message)
	}

	if status == http.StatusUnauthorized && req.retried {
		c.metrics.Unauthorized(metrics.RetryExhausted)
	}
	c.notifier.Notify(message)
	return newError(status, message)
}

func (c *Client) handleUnauthorized(ctx context.Context, req *Request, out any, message string) error {
	if c.hooks == nil || !c.hooks.IsAuthenticated() {
		c.metrics.Unauthorized(metrics.RetryUnauthenticated)
		c.notifier.Notify(message)
		return &Error{Status: http.StatusUnauthorized, Message: "Unauthorized", Err: errs.ErrUnauthenticated}
	}

	retry := *req
	retry.retried = true

	newToken, err := c.hooks.RefreshAccessToken(ctx)
	if err == nil {
		c.metrics.Unauthorized(metrics.RetryReissued)
		c.logger.Debug().Str("path", req.Path).Msg("re-issuing request after token refresh")
		retry.bearer = newToken
		return c.Do(ctx, &retry, out)
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		// The shared refresh is still running for the other callers.
		c.logger.Debug().Str("path", req.Path).Msg("request cancelled while waiting for token refresh")
		return &Error{Status: http.StatusUnauthorized, Message: message, Err: err}
	}

	c.metrics.Unauthorized(metrics.RetryRefreshFailed)
	c.metrics.ForcedLogout()
	c.logger.Info().Str("path", req.Path).Msg("refresh failed, logging out")
	c.hooks.Logout()
	c.notifier.Notify(message)
	return newError(http.StatusUnauthorized, message)
}

func (c *Client) send(ctx context.Context, req *Request) (int, []byte, error) {
	target := c.baseURL.JoinPath(req.Path)
	if q := req.query(); len(q) > 0 {
		target.RawQuery = q.Encode()
	}

	body, contentType, err := req.body()
	if err != nil {
		return 0, nil, fmt.Errorf("encode body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return 0, nil, err
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	requestID := uuid.New().String()
	httpReq.Header.Set("X-Request-ID", requestID)
	if token := c.bearerFor(req); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).Str("request_id", requestID).Str("path", req.Path).Msg("request failed")
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Bool("retried", req.retried).
		Msg("api request")
	return resp.StatusCode, data, nil
}

func (c *Client) bearerFor(req *Request) string {
	if req.bare {
		return ""
	}
	if req.bearer != "" {
		return req.bearer
	}
	if c.bearer == nil {
		return ""
	}
	return c.bearer()
}

func newError(status int, message string) *Error {
	sentinel := errs.ErrNetwork
	if status == http.StatusUnauthorized {
		sentinel = errs.ErrUnauthenticated
	}
	return &Error{Status: status, Message: message, Err: sentinel}
}

func decode(body []byte, out any) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Message: "invalid response body", Err: fmt.Errorf("%w: %v", errs.ErrNetwork, err)}
	}
	return nil
}

// errorMessage extracts {"message": ...} or {"data": {"message": ...}} from an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message any             `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return unknownErrorMessage
	}

	var nested struct {
		Message any `json:"message"`
	}
	if len(payload.Data) > 0 {
		_ = json.Unmarshal(payload.Data, &nested)
	}

	for _, m := range []any{nested.Message, payload.Message} {
		switch v := m.(type) {
		case nil:
		case string:
			if v != "" {
				return v
			}
		default:
			return fmt.Sprint(v)
		}
	}
	return unknownErrorMessage
}
