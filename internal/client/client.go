package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/you/storefront/domain"
)

const defaultTimeout = 10 * time.Second

// Config carries the client settings.
type Config struct {
	// BaseURL is the backend root, without a trailing slash.
	BaseURL string
	// Timeout bounds each request round trip. Defaults to 10s.
	Timeout time.Duration
	// HTTPClient overrides the underlying transport. Optional.
	HTTPClient *http.Client
	// Logger receives diagnostics. Defaults to a nop logger.
	Logger *zap.Logger
	// OnUnauthenticated fires when token refresh is impossible or rejected,
	// after stored credentials have been cleared. The app uses it to
	// navigate back to the login screen. Optional.
	OnUnauthenticated func()
}

// Client issues authenticated requests against the storefront backend.
// It attaches the stored bearer token to every request and transparently
// recovers from an expired access token by refreshing and retrying once.
// Safe for concurrent use.
type Client struct {
	baseURL           string
	http              *http.Client
	tokens            domain.TokenStore
	log               *zap.Logger
	onUnauthenticated func()

	refreshMu       sync.Mutex
	refreshInFlight *refreshCall
}

// New creates a client backed by the given token store.
func New(cfg Config, tokens domain.TokenStore) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:           cfg.BaseURL,
		http:              httpClient,
		tokens:            tokens,
		log:               logger,
		onUnauthenticated: cfg.OnUnauthenticated,
	}
}

// Get issues a GET request and decodes the response body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.request(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with the given body and decodes into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT request with the given body and decodes into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE request and decodes the response body into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.request(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) request(ctx context.Context, method, path string, body, out any) error {
	data, status, err := c.do(ctx, method, path, body, false)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 || status == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Error("undecodable response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Error(err))
		return &APIError{Message: genericErrorMessage, Status: status, wrapped: err}
	}
	return nil
}

// do sends one request and handles the 401 recovery path. The retried
// flag bounds recovery to a single refresh-and-retry per logical request.
func (c *Client) do(ctx context.Context, method, path string, body any, retried bool) ([]byte, int, error) {
	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, 0, &APIError{Message: genericErrorMessage, Status: 0, wrapped: err}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, newNetworkError(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	// Borrow the access token for this request only; it is never cached
	// on the client so a concurrent refresh is always picked up.
	if creds, loadErr := c.tokens.Load(ctx); loadErr == nil && creds != nil && creds.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, newNetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, newNetworkError(err)
	}

	if resp.StatusCode < http.StatusBadRequest {
		return data, resp.StatusCode, nil
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if retried {
			// Second 401 for the same logical request: terminal, never a
			// second refresh.
			return nil, resp.StatusCode, newAuthError(resp.StatusCode)
		}
		if _, refreshErr := c.refreshAccessToken(ctx); refreshErr != nil {
			return nil, resp.StatusCode, asAuthFailure(refreshErr)
		}
		return c.do(ctx, method, path, body, true)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.log.Error("server error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
	}

	return nil, resp.StatusCode, normalizeError(resp.StatusCode, data)
}

// asAuthFailure keeps refresh failures normalized: APIErrors pass through,
// anything else becomes a terminal authentication error.
func asAuthFailure(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	out := newAuthError(http.StatusUnauthorized)
	out.wrapped = errors.Join(domain.ErrUnauthenticated, err)
	return out
}

func (c *Client) notifyUnauthenticated() {
	if c.onUnauthenticated != nil {
		c.onUnauthenticated()
	}
}

// encodeBody serializes the request body and picks the Content-Type:
// multipart/form-data for a *Form payload, application/json otherwise.
func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Form:
		return b.encode()
	case []byte:
		return b, "application/json", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
}
