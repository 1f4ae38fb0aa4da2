// Package apiclient calls the storefront API on behalf of the client and
// keeps the session store in step with the results.
package apiclient

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
	"time"

	"shopsy/internal/models"
	"shopsy/internal/respond"
	"shopsy/internal/session"
)

var ErrNotAuthenticated = errors.New("apiclient: not authenticated")

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status        int
	Code          string
	Message       string
	CorrelationID string
}

func (e *APIError) Error() string {
	if e.CorrelationID != "" {
		return fmt.Sprintf("api error %d %s: %s (correlation id %s)", e.Status, e.Code, e.Message, e.CorrelationID)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *session.Store
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
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

// Login authenticates and stores the returned user and token in the session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Email: email, Password: password}, false, &resp)
	if err != nil {
		return nil, err
	}
	return c.establish(resp)
}

// Register creates a customer account and logs it in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	var resp models.AuthResponse
	req := models.RegisterRequest{Name: name, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, false, &resp); err != nil {
		return nil, err
	}
	return c.establish(resp)
}

func (c *Client) establish(resp models.AuthResponse) (*models.User, error) {
	if resp.User == nil || resp.Token == "" {
		return nil, errors.New("apiclient: auth response missing user or token")
	}
	if err := c.store.Login(resp.User, resp.Token); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return resp.User, nil
}

// Logout clears the local session. Tokens are stateless, so the server is
// not called.
func (c *Client) Logout() error {
	return c.store.Logout()
}

// Me refreshes the session user from the server.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, true, &user); err != nil {
		return nil, err
	}
	if err := c.store.Login(&user, c.store.Token()); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &user, nil
}

func (c *Client) SearchProducts(ctx context.Context, query string) ([]*models.Product, error) {
	path := "/api/v1/products"
	if q := strings.TrimSpace(query); q != "" {
		path += "?search=" + url.QueryEscape(q)
	}
	var resp struct {
		Products []*models.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, false, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) AdminStats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.do(ctx, http.MethodGet, "/api/v1/admin/stats", nil, true, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	var resp struct {
		User *models.User `json:"user"`
	}
	req := models.CreateAdminRequest{Name: name, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/admin/create-admin", req, true, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, auth bool, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		token := c.store.Token()
		if token == "" {
			return ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope respond.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Code = envelope.Error
			apiErr.Message = envelope.Message
			apiErr.CorrelationID = envelope.CorrelationID
		}
		if resp.StatusCode == http.StatusUnauthorized && auth {
			// The token is no longer accepted; drop the stale session.
			_ = c.store.Logout()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
