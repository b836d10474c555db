package coingecko

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"coinpulse/internal/adapters/config"
	"coinpulse/internal/adapters/ratelimit"
	"coinpulse/internal/adapters/retry"
	"coinpulse/internal/domain/coin"
	"coinpulse/internal/metrics"
	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

const (
	providerName    = "coingecko"
	marketsEndpoint = "/coins/markets"
	apiKeyHeader    = "X-CG-API-Key"
	maxPerPage      = 250
)

// Client fetches market data from the CoinGecko REST API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	retry      *retry.Middleware
	log        *logger.Logger
}

var _ coin.MarketSource = (*Client)(nil)

// NewClient builds a client from immutable configuration
func NewClient(cfg config.MarketDataConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Get()
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.MaxRetries

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    ratelimit.NewLimiter(providerName, cfg.RequestsPerMinute),
		retry:      retry.New(retryCfg),
		log:        log.With("component", "coingecko"),
	}
}

// marketRow is one element of the /coins/markets response
type marketRow struct {
	ID           string              `json:"id"`
	Symbol       string              `json:"symbol"`
	Name         string              `json:"name"`
	CurrentPrice decimal.NullDecimal `json:"current_price"`
	MarketCap    decimal.NullDecimal `json:"market_cap"`
	LastUpdated  *time.Time          `json:"last_updated"`
}

// TopCoins returns up to limit coins ordered by market cap descending, priced in USD
func (c *Client) TopCoins(ctx context.Context, limit int) ([]coin.Quote, error) {
	if limit <= 0 || limit > maxPerPage {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "limit must be in 1..%d, got %d", maxPerPage, limit)
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("page", "1")
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "24h")

	var rows []marketRow
	start := time.Now()
	err := c.retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.get(ctx, marketsEndpoint, params, &rows)
	})
	metrics.RecordExternalAPICall(providerName, marketsEndpoint, time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(err, "fetch top coins")
	}

	quotes := make([]coin.Quote, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" || r.Symbol == "" {
			c.log.Warnw("Skipping market row without id or symbol", "id", r.ID, "name", r.Name)
			continue
		}
		q := coin.Quote{
			ExternalID: r.ID,
			Symbol:     strings.ToUpper(r.Symbol),
			Name:       r.Name,
			PriceUSD:   r.CurrentPrice,
			MarketCap:  r.MarketCap,
		}
		if r.LastUpdated != nil {
			q.LastUpdated = r.LastUpdated.UTC()
		}
		quotes = append(quotes, q)
	}

	c.log.Debugw("Fetched top coins", "requested", limit, "received", len(quotes))
	return quotes, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request "+path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &errors.HTTPStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decode "+path)
	}
	return nil
}
