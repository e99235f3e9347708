package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

const maxErrorBody = 64 << 10

type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client
	Tokens  TokenSource
}

func NewClient(name, baseURL string, httpClient *http.Client, tokens TokenSource) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid %s base url %q: %w", name, baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s base url %q: scheme and host required", name, baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{Name: name, BaseURL: u, HTTP: httpClient, Tokens: tokens}, nil
}

// Do sends in as JSON (when non-nil) and decodes a 2xx body into out (when
// non-nil). Transport failures wrap ErrNetwork; other statuses are *APIError.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL.JoinPath(path).String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}
	if c.Tokens != nil {
		token, err := c.Tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s %s: %w", ErrNetwork, c.Name, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Service:    c.Name,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorMessage pulls "message" or "error" out of a JSON error body, falling
// back to the raw text.
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
