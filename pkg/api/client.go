// Package api is a typed client for the launchpad backend REST API.
//
// Every endpoint lives under <base>/api/v1/<group>/<op>. Authenticated
// calls carry the access token in the MW-USER-ID header.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/ninja0404/launchpad-go-sdk/pkg/config"
	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

// HeaderUserID carries the access token on authenticated requests.
const HeaderUserID = "MW-USER-ID"

// Observer is notified once per finished request with the final HTTP status
// (0 when no response was received).
type Observer func(op string, status int)

// Client talks to the backend.
type Client struct {
	baseURL  string
	http     *http.Client
	retry    config.RetryConfig
	log      zerolog.Logger
	observer Observer

	mu    sync.RWMutex
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithObserver installs a per-request hook, typically a metrics counter.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithToken seeds the access token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// NewClient creates a client for cfg.URL.
func NewClient(cfg config.ServerConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: timeout},
		retry:   cfg.Retry,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the current access token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the access token. An empty token logs the client out.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// LoggedIn reports whether an access token is held.
func (c *Client) LoggedIn() bool {
	return c.Token() != ""
}

func (c *Client) get(ctx context.Context, op string, out interface{}) error {
	return c.do(ctx, op, http.MethodGet, nil, out)
}

func (c *Client) post(ctx context.Context, op string, in, out interface{}) error {
	return c.do(ctx, op, http.MethodPost, in, out)
}

// do performs one logical call, retrying transient failures. op is the
// path below /api/v1, e.g. "project/create".
func (c *Client) do(ctx context.Context, op, method string, in, out interface{}) error {
	raw, err := c.doRaw(ctx, op, method, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, op, method string, in interface{}) ([]byte, error) {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op, err)
		}
		payload = b
	}

	status := 0
	operation := func() ([]byte, error) {
		body, code, err := c.roundTrip(ctx, op, method, payload)
		status = code
		if err != nil {
			var apiErr *types.APIError
			if errors.As(err, &apiErr) && !apiErr.Temporary() {
				return nil, backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		return body, nil
	}

	notify := func(err error, d time.Duration) {
		c.log.Debug().Str("op", op).Err(err).Dur("backoff", d).Msg("retrying api call")
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.backoffPolicy()),
		backoff.WithMaxTries(c.maxTries()),
		backoff.WithNotify(notify))
	if c.observer != nil {
		c.observer(op, status)
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method string, payload []byte) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1/"+op, body)
	if err != nil {
		return nil, 0, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set(HeaderUserID, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &types.APIError{Op: op, Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) backoffPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	if c.retry.InitialBackoff > 0 {
		policy.InitialInterval = c.retry.InitialBackoff
	}
	if c.retry.MaxBackoff > 0 {
		policy.MaxInterval = c.retry.MaxBackoff
	}
	if !c.retry.Jitter {
		policy.RandomizationFactor = 0
	}
	return policy
}

func (c *Client) maxTries() uint {
	if !c.retry.Enabled || c.retry.MaxAttempts < 1 {
		return 1
	}
	return uint(c.retry.MaxAttempts)
}

// errorMessage pulls a human readable message out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if len(body.Error) > 0 {
			var s string
			if json.Unmarshal(body.Error, &s) == nil && s != "" {
				return s
			}
			if string(body.Error) != "null" && string(body.Error) != "true" {
				return string(body.Error)
			}
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
