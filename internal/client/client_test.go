package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/storefront/domain"
	"github.com/you/storefront/internal/mocks"
)

func newTestClient(t *testing.T, baseURL string, tokens domain.TokenStore, onUnauthenticated func()) *Client {
	t.Helper()
	return New(Config{
		BaseURL:           baseURL,
		Timeout:           5 * time.Second,
		OnUnauthenticated: onUnauthenticated,
	}, tokens)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7,"first_name":"Dana"}`))
	}))
	defer srv.Close()

	tokens := mocks.NewMockTokenStore()
	tokens.SeedCredentials("access-1", "refresh-1")
	c := newTestClient(t, srv.URL, tokens, nil)

	var user domain.User
	require.NoError(t, c.Get(context.Background(), "/users/me/", &user))
	assert.Equal(t, "Bearer access-1", gotAuth)
	assert.Equal(t, uint(7), user.ID)
	assert.Equal(t, "Dana", user.FirstName)
}

func TestClient_NoAuthorizationHeaderWithoutCredentials(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, mocks.NewMockTokenStore(), nil)
	require.NoError(t, c.Get(context.Background(), "/health", nil))
	assert.False(t, sawAuth)
}

func TestClient_RefreshesAndRetriesOn401(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Path)
		switch r.URL.Path {
		case "/auth/token/refresh/":
			w.Write([]byte(`{"access":"access-2","refresh":"refresh-2"}`))
		case "/orders/":
			if r.Header.Get("Authorization") != "Bearer access-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"count":3}`))
		}
	}))
	defer srv.Close()

	tokens := mocks.NewMockTokenStore()
	tokens.SeedCredentials("access-stale", "refresh-1")
	c := newTestClient(t, srv.URL, tokens, nil)

	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, c.Get(context.Background(), "/orders/", &out))
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, []string{"/orders/", "/auth/token/refresh/", "/orders/"}, requests)

	// The rotated pair replaced the stale one.
	creds := tokens.Credentials()
	require.NotNil(t, creds)
	assert.Equal(t, "access-2", creds.AccessToken)
	assert.Equal(t, "refresh-2", creds.RefreshToken)
}

func TestClient_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token/refresh/":
			w.Write([]byte(`{"access":"access-2"}`))
		default:
			if r.Header.Get("Authorization") != "Bearer access-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	tokens := mocks.NewMockTokenStore()
	tokens.SeedCredentials("access-stale", "refresh-1")
	c := newTestClient(t, srv.URL, tokens, nil)

	require.NoError(t, c.Get(context.Background(), "/users/me/", nil))
	creds := tokens.Credentials()
	require.NotNil(t, creds)
	assert.Equal(t, "access-2", creds.AccessToken)
	assert.Equal(t, "refresh-1", creds.RefreshToken)
}

func TestClient_RetriesAtMostOncePerRequest(t *testing.T) {
	var endpointHits, refreshHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token/refresh/" {
			atomic.AddInt32(&refreshHits, 1)
			w.Write([]byte(`{"access":"access-2"}`))
			return
		}
		atomic.AddInt32(&endpointHits, 1)
		// The endpoint rejects even the refreshed token.
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := mocks.NewMockTokenStore()
	tokens.SeedCredentials("access-1", "refresh-1")
	c := newTestClient(t, srv.URL, tokens, nil)

	err := c.Get(context.Background(), "/users/me/", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))

	assert.Equal(t, int32(2), atomic.LoadInt32(&endpointHits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshHits))
}

func TestClient_ConcurrentRequestsShareOneRefresh(t *testing.T) {
	const workers = 8
	var refreshHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token/refresh/" {
			atomic.AddInt32(&refreshHits, 1)
			time.Sleep(30 * time.Millisecond) // widen the race window
			w.Write([]byte(`{"access":"access-2","refresh":"refresh-2"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer access-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tokens := mocks.NewMockTokenStore()
	tokens.SeedCredentials("access-stale", "refresh-1")
	c := newTestClient(t, srv.URL, tokens, nil)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Get(context.Background(), "/users/me/", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshHits),
		"concurrent 401s must coalesce into a single refresh")
}

func TestClient_MissingRefreshTokenIsTerminal(t *testing.T) {
	var refreshHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token/refresh/" {
			atomic.AddInt32(&refreshHits, 1)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var signedOut bool
	tokens := mocks.NewMockTokenStore()
	tokens.SeedCredentials("access-1", "")
	c := newTestClient(t, srv.URL, tokens, func() { signedOut = true })

	err := c.Get(context.Background(), "/users/me/", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
	assert.True(t, errors.Is(err, domain.ErrRefreshTokenMissing))
	assert.True(t, signedOut)
	assert.Zero(t, atomic.LoadInt32(&refreshHits), "no refresh call without a refresh token")
}

func TestClient_RejectedRefreshClearsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token/refresh/" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Token is blacklisted"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var signedOut bool
	tokens := mocks.NewMockTokenStore()
	tokens.SeedCredentials("access-1", "refresh-revoked")
	c := newTestClient(t, srv.URL, tokens, func() { signedOut = true })

	err := c.Get(context.Background(), "/users/me/", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
	assert.True(t, signedOut)
	assert.Nil(t, tokens.Credentials(), "revoked credentials must not survive")
}

func TestClient_RefreshTransportFailureEndsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token/refresh/" {
			// Drop the connection mid-call so no response ever arrives.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var signedOut bool
	tokens := mocks.NewMockTokenStore()
	tokens.SeedCredentials("access-stale", "refresh-1")
	c := newTestClient(t, srv.URL, tokens, func() { signedOut = true })

	err := c.Get(context.Background(), "/users/me/", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNetwork())
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
	assert.True(t, signedOut)
	assert.Nil(t, tokens.Credentials(), "a refresh that died in transport must not leave stale credentials")
}

func TestClient_CancelledRefreshKeepsCredentials(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token/refresh/" {
			// Drain the body so the server detects the client disconnect
			// and cancels r.Context(); otherwise srv.Close deadlocks.
			io.Copy(io.Discard, r.Body)
			cancel()
			<-r.Context().Done()
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var signedOut bool
	tokens := mocks.NewMockTokenStore()
	tokens.SeedCredentials("access-stale", "refresh-1")
	c := newTestClient(t, srv.URL, tokens, func() { signedOut = true })

	err := c.Get(ctx, "/users/me/", nil)
	require.Error(t, err)
	assert.False(t, signedOut, "cancellation is not an auth failure")
	creds := tokens.Credentials()
	require.NotNil(t, creds)
	assert.Equal(t, "refresh-1", creds.RefreshToken)
}

func TestClient_NetworkErrorHasZeroStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := newTestClient(t, srv.URL, mocks.NewMockTokenStore(), nil)
	err := c.Get(context.Background(), "/users/me/", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNetwork())
	assert.Equal(t, networkErrorMessage, apiErr.Message)
}

func TestClient_ValidationErrorSurfacesFieldErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"field_errors":{"email":["Enter a valid email address"]}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, mocks.NewMockTokenStore(), nil)
	err := c.Post(context.Background(), "/auth/send-otp/", map[string]string{"email": "nope"}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Enter a valid email address", apiErr.Message)
	assert.Equal(t, map[string][]string{"email": {"Enter a valid email address"}}, apiErr.FieldErrors)
}

func TestClient_FormBodyIsMultipart(t *testing.T) {
	var contentType, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		body = r.FormValue("first_name")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	form := NewForm()
	form.Set("first_name", "Dana")
	form.AddFile("avatar", "avatar.png", "image/png", []byte("png-bytes"))

	c := newTestClient(t, srv.URL, mocks.NewMockTokenStore(), nil)
	require.NoError(t, c.Post(context.Background(), "/users/me/avatar/", form, nil))

	assert.True(t, strings.HasPrefix(contentType, "multipart/form-data; boundary="), contentType)
	assert.Equal(t, "Dana", body)
}

func TestClient_UndecodableSuccessBodyIsNormalized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not-json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, mocks.NewMockTokenStore(), nil)
	var out struct{}
	err := c.Get(context.Background(), "/users/me/", &out)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, genericErrorMessage, apiErr.Message)
}
