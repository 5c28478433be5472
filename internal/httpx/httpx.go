// Package httpx wraps http.Client with the defaults every upstream feed shares:
// a timeout, a User-Agent, extra headers and classification of failures into
// domain errors.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/mtlprog/truegold/internal/domain"
)

const maxBodyBytes = 4 << 20

// NoCacheHeaders ask intermediaries for a fresh response.
var NoCacheHeaders = map[string]string{
	"Cache-Control": "no-cache",
	"Pragma":        "no-cache",
}

// Client is a small wrapper around http.Client with sane defaults.
type Client struct {
	HTTP       *http.Client
	UserAgent  string
	Headers    map[string]string
	MaxRetries int
	RetryDelay time.Duration
}

func New(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{
		HTTP:       &http.Client{Timeout: timeout, Transport: transport},
		UserAgent:  "truegold/1.0",
		RetryDelay: time.Second,
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return c.HTTP.Do(req)
}

// GetBytes performs a GET and returns the body of a 200 response. Transport failures
// and non-200 statuses wrap domain.ErrNetwork. A 429 is retried up to MaxRetries times
// with exponential backoff.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.MaxRetries + 1 {
		if attempt > 0 {
			delay := c.RetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", domain.ErrNetwork, ctx.Err())
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		resp, err := c.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading response: %w", domain.ErrNetwork, err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%w: rate limited (attempt %d/%d)", domain.ErrNetwork, attempt+1, c.MaxRetries+1)
			continue
		}

		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrNetwork, resp.StatusCode)
	}

	return nil, lastErr
}

// GetJSON performs GetBytes and decodes the body into v. Decode failures wrap
// domain.ErrMalformedResponse.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.GetBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	return nil
}
