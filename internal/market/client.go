// internal/market/client.go
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultRetries  = 3
	initialInterval = 200 * time.Millisecond
)

// Client fetches token metadata and holder distribution from the
// market-data API. Every fetch failure is logged and reported as an
// absent result; the pipeline treats missing market data as a normal
// state, never as an error worth propagating.
type Client struct {
	httpClient *http.Client
	detailURL  string
	holdersURL string
	apiKey     string
	maxTries   uint
	logger     *zap.Logger
}

// ClientConfig configures the market client.
type ClientConfig struct {
	DetailURL  string
	HoldersURL string
	APIKey     string
	Timeout    time.Duration
	Retries    int
	Logger     *zap.Logger
}

// NewClient creates a market-data client.
func NewClient(cfg *ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		detailURL:  cfg.DetailURL,
		holdersURL: cfg.HoldersURL,
		apiKey:     cfg.APIKey,
		maxTries:   uint(retries),
		logger:     cfg.Logger.Named("market"),
	}
}

// TokenDetail fetches coin metadata for the given coin type. A nil
// result means the data is unavailable.
func (c *Client) TokenDetail(ctx context.Context, coinType string) *TokenDetail {
	reqURL := fmt.Sprintf("%s?coinType=%s", c.detailURL, url.QueryEscape(coinType))

	var envelope detailEnvelope
	if err := c.fetch(ctx, reqURL, &envelope); err != nil {
		c.logger.Warn("Failed to fetch token detail",
			zap.String("coin_type", coinType),
			zap.Error(err))
		return nil
	}
	return &envelope.Result
}

// TopHolders fetches one page of the holder distribution for the given
// coin type. A nil result means the data is unavailable.
func (c *Client) TopHolders(ctx context.Context, coinType string, pageIndex, pageSize int) []Holder {
	reqURL := fmt.Sprintf("%s?coinType=%s&pageIndex=%d&pageSize=%d",
		c.holdersURL, url.QueryEscape(coinType), pageIndex, pageSize)

	var envelope holdersEnvelope
	if err := c.fetch(ctx, reqURL, &envelope); err != nil {
		c.logger.Warn("Failed to fetch holder distribution",
			zap.String("coin_type", coinType),
			zap.Error(err))
		return nil
	}
	return envelope.Result.Data
}

// fetch performs an authenticated GET with bounded exponential backoff.
// Server-side and transport failures are retried; client errors are not.
func (c *Client) fetch(ctx context.Context, rawURL string, out any) error {
	operation := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("x-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := fmt.Errorf("unexpected status %d", resp.StatusCode)
			if resp.StatusCode >= http.StatusInternalServerError ||
				resp.StatusCode == http.StatusTooManyRequests {
				return struct{}{}, statusErr
			}
			return struct{}{}, backoff.Permanent(statusErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return struct{}{}, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialInterval

	notify := func(err error, duration time.Duration) {
		c.logger.Debug("Retrying market API request",
			zap.Error(err),
			zap.Duration("backoff", duration))
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(notify))
	return err
}
