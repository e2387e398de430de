// Package client implements the authenticated HTTP client used by the
// health-tracking frontends. It injects the bearer token on every request,
// transparently recovers from expired tokens (one silent refresh and replay)
// and transient server failures (one fixed-backoff retry), and resolves
// unrecoverable auth failures through the shared forced logout.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/credentials"
	"github.com/jrsteele09/go-session-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// SleepFunc pauses the current goroutine. It can be overridden in tests.
var SleepFunc = time.Sleep

const (
	maxAuthRetries   = 2
	maxServerRetries = 1
	defaultBackoff   = 1 * time.Second

	// SeqHeader carries the monotonically increasing request sequence id,
	// used for log correlation only.
	SeqHeader = "X-Request-Seq"
)

// Refresher exchanges a refresh token for a new access token. It must not
// route through this client, or a failing refresh would recurse into its own
// 401 handling.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Client is the authenticated API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      credentials.Store
	refresher  Refresher
	logout     *session.Logout
	ledger     *retryLedger
	backoff    time.Duration
	logger     zerolog.Logger

	seq atomic.Uint64

	sharedRefresh bool
	refreshGroup  singleflight.Group
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRefresher overrides the refresh-call client (primarily for testing).
func WithRefresher(refresher Refresher) Option {
	return func(c *Client) {
		c.refresher = refresher
	}
}

// WithBackoff sets the wait before the single server-error retry.
func WithBackoff(backoff time.Duration) Option {
	return func(c *Client) {
		c.backoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSharedRefresh coalesces concurrent token refreshes into a single
// in-flight call. Off by default: independent requests hitting 401 together
// each refresh on their own, matching the behavior the frontends shipped
// with.
func WithSharedRefresh() Option {
	return func(c *Client) {
		c.sharedRefresh = true
	}
}

// New creates an authenticated client for the API at baseURL, reading and
// writing credentials through store and resolving unrecoverable auth
// failures through logout.
func New(baseURL string, store credentials.Store, logout *session.Logout, options ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("[client.New] store is required")
	}
	if logout == nil {
		return nil, errors.New("[client.New] logout is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		logout:  logout,
		ledger:  newRetryLedger(),
		backoff: defaultBackoff,
		logger:  zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.refresher == nil {
		c.refresher = authapi.New(baseURL, authapi.WithHTTPClient(c.httpClient))
	}

	return c, nil
}

// Get issues an authenticated GET and decodes the JSON response into result.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, body, result)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPut, path, body, result)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do issues an authenticated request and applies the recovery policy:
//
//   - 2xx: the retry-ledger entry is cleared and the response decoded.
//   - no response at all: fail immediately, never retried.
//   - 401 with both tokens present, not yet replayed and under the auth
//     retry budget: one silent refresh, then one replay of the original
//     request. Any further 401, a failed refresh, missing tokens or an
//     exhausted budget forces logout and fails.
//   - 5xx under the server retry budget: one replay after a fixed backoff.
//   - anything else propagates to the caller.
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.Do] marshal request body")
		}
	}

	seq := c.seq.Add(1)
	alreadyReplayed := false

	for {
		status, respBody, err := c.attempt(ctx, method, path, payload, seq)
		if err != nil {
			// Network-fatal: no response was received, nothing to
			// recover from. The caller decides what to display.
			return err
		}

		switch {
		case status >= 200 && status < 300:
			c.ledger.clear(method, path)
			if result != nil {
				if err := json.Unmarshal(respBody, result); err != nil {
					return errors.Wrap(err, "[Client.Do] unmarshal response")
				}
			}
			return nil

		case status == 401:
			apiErr := &APIError{StatusCode: status, Body: strings.TrimSpace(string(respBody)), Seq: seq}
			bundle := credentials.LoadBundle(c.store)

			if alreadyReplayed || c.ledger.count(method, path) >= maxAuthRetries || !bundle.HasTokens() {
				c.logger.Warn().Uint64("seq", seq).Str("path", path).Msg("unrecoverable auth failure")
				if logoutErr := c.logout.Force(ctx, "request unauthorized"); logoutErr != nil {
					c.logger.Err(logoutErr).Msg("forced logout failed")
				}
				return fmt.Errorf("%w: %w", ErrSessionExpired, apiErr)
			}

			alreadyReplayed = true
			c.ledger.increment(method, path)

			newToken, refreshErr := c.refreshAccessToken(ctx, bundle.RefreshToken)
			if refreshErr != nil {
				c.logger.Warn().Uint64("seq", seq).Err(refreshErr).Msg("token refresh failed")
				if logoutErr := c.logout.Force(ctx, "token refresh failed"); logoutErr != nil {
					c.logger.Err(logoutErr).Msg("forced logout failed")
				}
				return fmt.Errorf("%w: %w", ErrSessionExpired, apiErr)
			}

			if err := c.store.Set(credentials.KeyToken, newToken); err != nil {
				return errors.Wrap(err, "[Client.Do] store refreshed token")
			}
			c.logger.Debug().Uint64("seq", seq).Str("path", path).Msg("token refreshed, replaying request")

		case status >= 500:
			apiErr := &APIError{StatusCode: status, Body: strings.TrimSpace(string(respBody)), Seq: seq}
			if c.ledger.count(method, path) >= maxServerRetries {
				return apiErr
			}
			c.ledger.increment(method, path)
			c.logger.Debug().Uint64("seq", seq).Int("status", status).Str("path", path).Msg("server error, retrying after backoff")
			SleepFunc(c.backoff)

		default:
			return &APIError{StatusCode: status, Body: strings.TrimSpace(string(respBody)), Seq: seq}
		}
	}
}

// attempt performs a single HTTP exchange. A non-nil error means no response
// was received at all.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, seq uint64) (int, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "[Client.attempt] create request")
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.store.Get(credentials.KeyToken); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set(SeqHeader, strconv.FormatUint(seq, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Cause: err}
	}

	return resp.StatusCode, respBody, nil
}

func (c *Client) refreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if !c.sharedRefresh {
		return c.refresher.Refresh(ctx, refreshToken)
	}

	token, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.refresher.Refresh(ctx, refreshToken)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}
