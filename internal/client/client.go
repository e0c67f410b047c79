// Package client is the Go counterpart of the browser API client: it holds
// the access/refresh token pair, attaches bearer credentials to outgoing
// requests and transparently refreshes an expired access token once per call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/dto"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL string
	httpc   *http.Client
	store   TokenStore

	mu           sync.RWMutex
	accessToken  string
	refreshToken string

	// refreshGroup collapses concurrent refresh attempts into one network
	// call; every waiter observes the shared outcome.
	refreshGroup singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = timeout }
}

// WithTokenStore persists the token pair through store and seeds the client
// from whatever the store already holds.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.store = store }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.store != nil {
		if access, refresh, err := c.store.Load(); err == nil {
			c.accessToken, c.refreshToken = access, refresh
		}
	}

	return c
}

// SetTokens replaces the held token pair and persists it. It is the single
// authority for credential state; empty strings clear the persisted values.
func (c *Client) SetTokens(accessToken, refreshToken string) {
	c.mu.Lock()
	c.accessToken = accessToken
	c.refreshToken = refreshToken
	c.mu.Unlock()

	if c.store != nil {
		_ = c.store.Save(accessToken, refreshToken)
	}
}

// Tokens returns the currently held pair.
func (c *Client) Tokens() (accessToken, refreshToken string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.refreshToken
}

func (c *Client) Health(ctx context.Context) (*dto.HealthResponse, error) {
	var out dto.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and installs the returned token pair.
func (c *Client) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.doNoAuth(ctx, http.MethodPost, "/auth/register", input, &out); err != nil {
		return nil, err
	}
	c.SetTokens(out.AccessToken, out.RefreshToken)
	return &out, nil
}

// Login authenticates and installs the returned token pair.
func (c *Client) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.doNoAuth(ctx, http.MethodPost, "/auth/login", input, &out); err != nil {
		return nil, err
	}
	c.SetTokens(out.AccessToken, out.RefreshToken)
	return &out, nil
}

// Logout drops the token pair. The tokens themselves stay valid until they
// expire; the service keeps no revocation list.
func (c *Client) Logout() {
	c.SetTokens("", "")
}

func (c *Client) Me(ctx context.Context) (*dto.UserOutput, error) {
	var out dto.UserOutput
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Redeem(ctx context.Context, rewardType string, points int) (*dto.RedeemResponse, error) {
	var out dto.RedeemResponse
	input := dto.RedeemInput{RewardType: rewardType, Points: float64(points)}
	if err := c.do(ctx, http.MethodPost, "/rewards/redeem", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Upvote(ctx context.Context, issueID string) (*dto.UpvoteResponse, error) {
	var out dto.UpvoteResponse
	path := "/issues/" + url.PathEscape(issueID) + "/upvote"
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges the refresh token for a new pair. Concurrent callers
// share a single in-flight exchange; the guard is released when it settles,
// so a failed refresh never wedges the client.
func (c *Client) Refresh(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

func (c *Client) refresh(ctx context.Context) error {
	_, refreshToken := c.Tokens()
	if refreshToken == "" {
		return ErrNoRefreshToken
	}

	payload, err := json.Marshal(dto.RefreshInput{RefreshToken: refreshToken})
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", payload, "")
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := decodeAPIError(resp)
		// Rejected refresh token: the pair is dead, force a re-login.
		c.SetTokens("", "")
		return apiErr
	}
	defer resp.Body.Close()

	var tokens dto.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return fmt.Errorf("refresh: decode response: %w", err)
	}

	if tokens.RefreshToken == "" {
		// No rotation on the server side; keep the existing refresh token.
		tokens.RefreshToken = refreshToken
	}
	c.SetTokens(tokens.AccessToken, tokens.RefreshToken)

	return nil
}

// doNoAuth runs an unauthenticated call: no bearer header and no refresh on
// a 401. A rejected login or registration must surface as-is, not trigger a
// refresh of whatever stale pair the client still holds.
func (c *Client) doNoAuth(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, payload, "")
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}

// do runs a single API call: attach bearer token, execute, and on a 401 with
// a refresh token held, refresh and retry exactly once. When the refresh
// fails the original 401 is returned unchanged.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	accessToken, refreshToken := c.Tokens()

	resp, err := c.send(ctx, method, path, payload, accessToken)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && refreshToken != "" {
		originalErr := decodeAPIError(resp)

		if refreshErr := c.Refresh(ctx); refreshErr != nil {
			return originalErr
		}

		accessToken, _ = c.Tokens()
		resp, err = c.send(ctx, method, path, payload, accessToken)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, accessToken string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return c.httpc.Do(req)
}

// decodeAPIError reads and closes the response body and converts it into a
// typed *APIError.
func decodeAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(resp.Body)
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body map[string]any
	if json.Unmarshal(data, &body) == nil {
		apiErr.Body = body
		for _, key := range []string{"error", "message", "detail"} {
			if msg, ok := body[key].(string); ok && msg != "" {
				apiErr.Message = msg
				break
			}
		}
		return apiErr
	}

	apiErr.Raw = string(data)
	apiErr.Message = strings.TrimSpace(apiErr.Raw)

	return apiErr
}
