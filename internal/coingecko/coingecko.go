package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jblomberg5r/CryptoValhalla/internal/config"
)

// Client defines the interface for fetching market data from CoinGecko.
// This interface enables dependency injection and testing with mock implementations.
type Client interface {
	Markets(ctx context.Context, vsCurrency string, ids []string, perPage, page int) ([]MarketCoin, error)
	MarketChart(ctx context.Context, coinID, vsCurrency string, days int) (MarketChart, error)
}

// MarketClient provides methods for fetching market data from the CoinGecko
// API. Every request passes through a shared token-bucket rate limiter sized
// for the free tier, and transient failures (rate limiting, server errors,
// network errors) are retried with exponential backoff.
type MarketClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *zap.Logger
	maxTries   uint

	mu     sync.RWMutex
	apiKey string
}

// NewMarketClient creates a new CoinGecko client from the given configuration.
// The configured API key, if any, is the initial key; SetAPIKey replaces it
// at runtime when the stored setting changes.
func NewMarketClient(cfg config.CoinGeckoConfig, logger *zap.Logger) *MarketClient {
	return &MarketClient{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		logger:     logger,
		maxTries:   4,
		apiKey:     cfg.APIKey,
	}
}

// SetAPIKey replaces the key sent with subsequent requests. Safe for
// concurrent use with in-flight requests.
func (c *MarketClient) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

func (c *MarketClient) currentAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// Markets fetches /coins/markets: current market data for coins in the given
// quote currency, ordered by descending market cap.
//
// Parameters:
//   - vsCurrency: quote currency code (e.g. "usd")
//   - ids: optional coin ids to filter by; nil or empty fetches all coins
//   - perPage: results per page, 1-250
//   - page: page number, starting at 1
func (c *MarketClient) Markets(ctx context.Context, vsCurrency string, ids []string, perPage, page int) ([]MarketCoin, error) {
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sparkline", "false")
	params.Set("locale", "en")
	if len(ids) > 0 {
		params.Set("ids", strings.Join(ids, ","))
	}

	var out []MarketCoin
	if err := c.get(ctx, "/coins/markets", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarketChart fetches /coins/{id}/market_chart: historical prices, market
// caps, and volumes for one coin covering the last days days. The provider
// picks the series granularity from the range (hourly under 90 days, daily
// above).
func (c *MarketClient) MarketChart(ctx context.Context, coinID, vsCurrency string, days int) (MarketChart, error) {
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("days", strconv.Itoa(days))

	var out MarketChart
	if err := c.get(ctx, "/coins/"+url.PathEscape(coinID)+"/market_chart", params, &out); err != nil {
		return MarketChart{}, err
	}
	return out, nil
}

// get executes a rate-limited GET against the provider and decodes the JSON
// response into out. Rate-limit responses, server errors, and network errors
// are retried; other client errors surface immediately as a StatusError.
func (c *MarketClient) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	requestURL := c.baseURL + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	operation := func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if key := c.currentAPIKey(); key != "" {
			req.Header.Set("x-cg-demo-api-key", key)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, newStatusError(resp.StatusCode, endpoint, body)
		}
		if resp.StatusCode >= 400 {
			return nil, backoff.Permanent(newStatusError(resp.StatusCode, endpoint, body))
		}
		return body, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying CoinGecko request",
			zap.String("endpoint", endpoint),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(notify))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode coingecko response: %w", err)
	}
	return nil
}

// IsTimeout reports whether err represents a request timeout rather than a
// provider response or other network failure.
func IsTimeout(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsNetwork reports whether err represents a connection-level failure with
// no provider response.
func IsNetwork(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
