// Package apiclient wraps the remote product API. A single Client is shared by
// the whole console; Session binds it to one operator session so that every
// request carries that session's bearer token.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Skotchmaster/pineapple_admin/pkg/logging"
)

const maxErrorBody = 1 << 20

// SessionProvider supplies the bearer token of the bound session and drops the
// session when the API rejects it. Token returns "" when no session is active.
type SessionProvider interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// UnauthenticatedListener is told about every 401 after the session was cleared
// and before the failing call returns.
type UnauthenticatedListener interface {
	Unauthenticated(ctx context.Context)
}

type ListenerFunc func(ctx context.Context)

func (f ListenerFunc) Unauthenticated(ctx context.Context) { f(ctx) }

type Envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type Client struct {
	baseURL    string
	headers    http.Header
	httpClient *http.Client
	session    SessionProvider
	listener   UnauthenticatedListener
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

func WithListener(l UnauthenticatedListener) Option {
	return func(c *Client) { c.listener = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: http.Header{"Accept": []string{"application/json"}},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a copy of c bound to p. The copy shares the transport.
func (c *Client) Session(p SessionProvider) *Client {
	cp := *c
	cp.session = p
	return &cp
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, ct, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, body, ct, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	body, ct, err := jsonBody(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, body, ct, out)
}

func (c *Client) PostForm(ctx context.Context, path string, form *Form, out any) error {
	body, ct, err := form.Encode()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, body, ct, out)
}

func (c *Client) PutForm(ctx context.Context, path string, form *Form, out any) error {
	body, ct, err := form.Encode()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, body, ct, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if err := c.authorize(ctx, req); err != nil {
		return err
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthenticated(ctx)
		}
		return apiErr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.session == nil {
		return nil
	}
	token, err := c.session.Token(ctx)
	if err != nil {
		return fmt.Errorf("read session token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func (c *Client) unauthenticated(ctx context.Context) {
	if c.session != nil {
		if err := c.session.Clear(ctx); err != nil {
			logging.FromContext(ctx).Error("session_clear_failed", "reason", "api answered 401", "error", err)
		}
	}
	if c.listener != nil {
		c.listener.Unauthenticated(ctx)
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func jsonBody(in any) (io.Reader, string, error) {
	if in == nil {
		return nil, "", nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, "", fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(b), "application/json", nil
}
