package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/you/storefront/domain"
)

const refreshPath = "/auth/token/refresh/"

// refreshCall is the single in-flight refresh operation. Requests that hit
// a 401 while it runs wait on done and share its outcome instead of
// starting refreshes of their own.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// refreshAccessToken coalesces concurrent refresh attempts: the first
// caller performs the network call, every later caller blocks until that
// call resolves and observes the same result. This is what stops N
// concurrent 401s from rotating the refresh token N times and invalidating
// each other.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if call := c.refreshInFlight; call != nil {
		c.refreshMu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", newNetworkError(ctx.Err())
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	c.refreshInFlight = call
	c.refreshMu.Unlock()

	call.token, call.err = c.doRefresh(ctx)

	c.refreshMu.Lock()
	c.refreshInFlight = nil
	c.refreshMu.Unlock()
	close(call.done)

	return call.token, call.err
}

// doRefresh exchanges the stored refresh token for a new access token.
// Any irrecoverable outcome clears stored credentials and fires the
// OnUnauthenticated hook before reporting failure.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	creds, err := c.tokens.Load(ctx)
	if err != nil {
		return "", &APIError{Message: genericErrorMessage, Status: 0, wrapped: err}
	}
	if creds == nil || creds.RefreshToken == "" {
		c.notifyUnauthenticated()
		out := newAuthError(http.StatusUnauthorized)
		out.wrapped = errors.Join(domain.ErrUnauthenticated, domain.ErrRefreshTokenMissing)
		return "", out
	}

	payload, _ := json.Marshal(map[string]string{"refresh": creds.RefreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", newNetworkError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.failRefreshTransport(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.failRefreshTransport(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("token refresh rejected", zap.Int("status", resp.StatusCode))
		c.forgetCredentials(ctx)
		return "", newAuthError(resp.StatusCode)
	}

	var result struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(data, &result); err != nil || result.Access == "" {
		c.log.Warn("token refresh returned an unusable body", zap.Error(err))
		c.forgetCredentials(ctx)
		return "", newAuthError(resp.StatusCode)
	}

	next := &domain.Credentials{
		AccessToken:  result.Access,
		RefreshToken: creds.RefreshToken,
	}
	// The backend may rotate the refresh token alongside the access token.
	if result.Refresh != "" {
		next.RefreshToken = result.Refresh
	}
	if err := c.tokens.Save(ctx, next); err != nil {
		return "", &APIError{Message: genericErrorMessage, Status: 0, wrapped: err}
	}

	return result.Access, nil
}

// failRefreshTransport handles a refresh call that never produced a
// response. It is still a failed refresh: stored credentials are cleared
// and the unauthenticated hook fires, same as an HTTP rejection. A
// cancelled caller is exempt; cancellation is not an auth failure and
// must not end the session.
func (c *Client) failRefreshTransport(ctx context.Context, cause error) *APIError {
	if ctx.Err() != nil {
		return newNetworkError(cause)
	}
	c.log.Warn("token refresh failed in transport", zap.Error(cause))
	c.forgetCredentials(ctx)
	return newNetworkError(errors.Join(domain.ErrUnauthenticated, cause))
}

func (c *Client) forgetCredentials(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.log.Warn("failed to clear stored credentials", zap.Error(err))
	}
	c.notifyUnauthenticated()
}
