package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client is a raw auth-service client. It deliberately rides on a plain
// http.Client with no retry or refresh behavior of its own: the refresh and
// verify calls must never pass through the authenticated client's
// interceptor chain, or a failing refresh would recurse into itself.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a raw auth-service client for the given base URL.
func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
	}

	for _, opt := range options {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return c
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var resp RefreshResponse
	err := c.doRequest(ctx, http.MethodPost, RouteRefresh, "", RefreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return "", errors.Wrap(err, "[Client.Refresh] refresh request")
	}
	if resp.Token == "" {
		return "", errors.New("[Client.Refresh] empty token in response")
	}
	return resp.Token, nil
}

// Verify asks the auth service whether an access token is still valid. A nil
// error means valid; *StatusError means confirmed invalid; *UnreachableError
// means the answer is unknown. Callers in this system treat the last two
// identically after their own retries.
func (c *Client) Verify(ctx context.Context, accessToken string) error {
	return c.doRequest(ctx, http.MethodGet, RouteVerify, accessToken, nil, nil)
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.doRequest(ctx, http.MethodPost, RouteLogin, "", LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login] login request")
	}
	return &resp, nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.doRequest(ctx, http.MethodPost, RouteSignup, "", req, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Signup] signup request")
	}
	return &resp, nil
}

func (c *Client) doRequest(ctx context.Context, method, path, bearer string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &UnreachableError{Cause: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return errors.Wrap(err, "read response body")
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return &StatusError{StatusCode: httpResp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return errors.Wrap(err, "unmarshal response")
		}
	}

	return nil
}
