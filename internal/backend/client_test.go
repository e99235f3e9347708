package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

func newStubBackend(t *testing.T, status int, body string) (*httptest.Server, <-chan recordedRequest) {
	t.Helper()
	ch := make(chan recordedRequest, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		ch <- recordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Header: r.Header.Clone(),
			Body:   string(raw),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func newTestClient(t *testing.T, baseURL string, tokens TokenSource) *Client {
	t.Helper()
	c, err := NewClient("backend", baseURL, &http.Client{Timeout: 5 * time.Second}, tokens)
	require.NoError(t, err)
	return c
}

type mapStorage map[string]map[string]string

func (m mapStorage) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	v, ok := m[namespace][key]
	return v, ok, nil
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	_, err := NewClient("backend", "://bad", nil, nil)
	require.Error(t, err)
	_, err = NewClient("backend", "localhost", nil, nil)
	require.Error(t, err)
}

func TestOrdersList(t *testing.T) {
	srv, ch := newStubBackend(t, http.StatusOK, `[{"_id":"o1","status":"pending"}]`)
	orders := NewOrdersClient(newTestClient(t, srv.URL, StaticToken("tkn")))

	ctx := middleware.WithCorrelationID(context.Background(), "cid-1")
	out, err := orders.List(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `[{"_id":"o1","status":"pending"}]`, string(out))

	got := <-ch
	require.Equal(t, http.MethodGet, got.Method)
	require.Equal(t, "/orders", got.Path)
	require.Equal(t, "Bearer tkn", got.Header.Get("Authorization"))
	require.Equal(t, "cid-1", got.Header.Get(middleware.HeaderCorrelationID))
}

func TestOrdersDetailsAndUpdate(t *testing.T) {
	srv, ch := newStubBackend(t, http.StatusOK, `{"_id":"o 1"}`)
	orders := NewOrdersClient(newTestClient(t, srv.URL+"/api", nil))

	_, err := orders.Details(context.Background(), "o 1")
	require.NoError(t, err)
	got := <-ch
	require.Equal(t, "/api/orders/details/o%201", got.Path)
	require.Empty(t, got.Header.Get("Authorization"), "no token means an unauthenticated request")

	_, err = orders.Update(context.Background(), "o1", OrderUpdate{Status: "delivered"})
	require.NoError(t, err)
	got = <-ch
	require.Equal(t, http.MethodPut, got.Method)
	require.Equal(t, "/api/orders/o1", got.Path)
	require.JSONEq(t, `{"status":"delivered"}`, got.Body)
	require.Equal(t, "application/json", got.Header.Get("Content-Type"))

	_, err = orders.Details(context.Background(), "")
	require.ErrorIs(t, err, ErrOrderIDRequired)
}

func TestUnauthorizedIsSurfaced(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv, _ := newStubBackend(t, status, `{"message":"token expired"}`)
		owner := NewOwnerClient(newTestClient(t, srv.URL, StaticToken("old")))

		_, err := owner.Menu(context.Background())
		require.ErrorIs(t, err, ErrUnauthorized)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, status, apiErr.StatusCode)
		require.Equal(t, "token expired", apiErr.Message)
	}
}

func TestServerErrorIsAPIError(t *testing.T) {
	srv, _ := newStubBackend(t, http.StatusInternalServerError, `oops`)
	owner := NewOwnerClient(newTestClient(t, srv.URL, nil))

	_, err := owner.Menu(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.Equal(t, "oops", apiErr.Message)
	require.False(t, errors.Is(err, ErrUnauthorized))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOrdersClient(newTestClient(t, url, nil)).List(context.Background())
	require.ErrorIs(t, err, ErrNetwork)
}

func TestLogin(t *testing.T) {
	srv, ch := newStubBackend(t, http.StatusOK, `{"token":"jwt-1","user":{"email":"a@b.c","role":"owner"}}`)
	auth := NewAuthClient(newTestClient(t, srv.URL, nil))

	res, err := auth.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "jwt-1", res.Token)
	require.Equal(t, "owner", res.Role)

	got := <-ch
	require.Equal(t, "/auth/login", got.Path)
	var sent Credentials
	require.NoError(t, json.Unmarshal([]byte(got.Body), &sent))
	require.Equal(t, "a@b.c", sent.Email)
}

func TestLoginWithoutToken(t *testing.T) {
	srv, _ := newStubBackend(t, http.StatusOK, `{"user":{}}`)
	_, err := NewAuthClient(newTestClient(t, srv.URL, nil)).Login(context.Background(), Credentials{})
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestSessionTokensLookupOrder(t *testing.T) {
	storage := mapStorage{
		"s1": {"adminToken": "admin", "accessToken": "  "},
		"s2": {"token": "primary", "ownerToken": "owner"},
	}
	tokens := SessionTokens{Storage: storage}

	tok, err := tokens.Token(middleware.WithSessionID(context.Background(), "s1"))
	require.NoError(t, err)
	require.Equal(t, "admin", tok)

	tok, err = tokens.Token(middleware.WithSessionID(context.Background(), "s2"))
	require.NoError(t, err)
	require.Equal(t, "primary", tok)

	tok, err = tokens.Token(middleware.WithSessionID(context.Background(), "unknown"))
	require.NoError(t, err)
	require.Empty(t, tok)

	tok, err = tokens.Token(context.Background())
	require.NoError(t, err)
	require.Empty(t, tok)
}

func TestCheckHealth(t *testing.T) {
	ok, _ := newStubBackend(t, http.StatusOK, `{}`)
	res := CheckHealth(context.Background(), newTestClient(t, ok.URL, nil), "/health")
	require.True(t, res.OK)

	down, _ := newStubBackend(t, http.StatusServiceUnavailable, `{"error":"db down"}`)
	res = CheckHealth(context.Background(), newTestClient(t, down.URL, nil), "/health")
	require.False(t, res.OK)
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	require.Equal(t, "db down", res.Error)
}
