package robotevents

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Client issues authorized requests against the RobotEvents API, delegating
// retry and rotation decisions to the KeyPool.
type Client struct {
	pool       *KeyPool
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
	keyCount   int
}

// NewClient creates an authenticated API client.
func NewClient(cfg Config, pool *KeyPool, logger *zap.Logger) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &Client{
		pool:       pool,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		baseURL:    cfg.BaseURL,
		logger:     logger,
		keyCount:   len(cfg.KeyList()),
	}
}

// Get issues a single authorized GET. A 401 blacklists the key and retries
// with the next one; a 429 puts the key on cooldown and retries. Any other
// non-2xx status or transport error is terminal for this call - retry policy
// for those belongs to the caller.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	// Each configured key gets a bounded number of chances; beyond that the
	// pool itself reports exhaustion.
	maxAttempts := 3*c.keyCount + 1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		key, err := c.pool.Acquire()
		if err != nil {
			return nil, err
		}

		body, status, err := c.do(ctx, key, endpoint, query)
		if err != nil {
			return nil, err
		}

		switch {
		case status == http.StatusUnauthorized:
			c.logger.Warn("API key rejected, rotating",
				zap.String("endpoint", endpoint),
				zap.String("key_prefix", keyPrefix(key)))
			c.pool.ReportUnauthorized(key)
		case status == http.StatusTooManyRequests:
			c.logger.Info("API key rate limited, cooling down",
				zap.String("endpoint", endpoint),
				zap.String("key_prefix", keyPrefix(key)))
			c.pool.ReportRateLimited(key)
		case status < 200 || status > 299:
			return nil, fmt.Errorf("GET %s returned status %d", endpoint, status)
		default:
			c.pool.ReportSuccess(key)
			return body, nil
		}
	}

	return nil, fmt.Errorf("GET %s: %w", endpoint, ErrRateLimitExhausted)
}

func (c *Client) do(ctx context.Context, key, endpoint string, query url.Values) ([]byte, int, error) {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response of %s failed: %w", endpoint, err)
	}
	return body, resp.StatusCode, nil
}

// keyPrefix returns a short, loggable form of a credential.
func keyPrefix(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8] + "..."
}
