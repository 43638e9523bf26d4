// Package api is the REST client for the storefront backend. All business
// logic lives server-side; this package only shapes requests, attaches the
// bearer token, and classifies failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

// TokenSource supplies the bearer token and accepts the 401 eviction signal.
type TokenSource interface {
	Token(ctx context.Context) string
	ClearToken(ctx context.Context)
}

// HostOverride supplies a persisted host override; "" means none.
type HostOverride interface {
	APIHost(ctx context.Context) string
}

type Client struct {
	hc       *http.Client
	host     string
	tokens   TokenSource
	override HostOverride
	breaker  *gobreaker.CircuitBreaker[*http.Response]
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func WithHostOverride(o HostOverride) Option {
	return func(c *Client) { c.override = o }
}

func NewClient(host string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		hc:     &http.Client{Timeout: 30 * time.Second},
		host:   host,
		tokens: tokens,
	}
	// transport-level failures trip the breaker; HTTP error statuses do not,
	// the backend answered and each call site handles those
	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "storefront-backend",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is a non-2xx backend response, body preserved for diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) hostFor(ctx context.Context) string {
	if c.override != nil {
		if h := c.override.APIHost(ctx); h != "" {
			return h
		}
	}
	return c.host
}

// do issues one request and decodes the JSON response into out when non-nil.
// A 401 clears the stored token before the error is returned.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	url := strings.TrimRight(c.hostFor(ctx), "/") + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.hc.Do(req)
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		log.Warn().Str("path", path).Msg("401 response, clearing stored token")
		c.tokens.ClearToken(ctx)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if e2 := json.Unmarshal(data, out); e2 != nil {
		return fmt.Errorf("unexpected response shape: %w", e2)
	}
	return nil
}
