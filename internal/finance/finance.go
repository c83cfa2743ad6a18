// Package finance fetches key company figures from Alpha Vantage for the
// deep-dive analysis. Lookups are best-effort: a missing API key or a failed
// call yields empty Financials and the run continues.
package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"newsdive/internal/config"
	"newsdive/internal/core"
	"newsdive/internal/logger"
)

// Client calls the Alpha Vantage query API. The base URL and HTTP client are
// injectable for tests.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client from the finance configuration.
func NewClient(cfg config.Finance) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout()},
	}
}

// overviewResponse is the subset of the OVERVIEW payload the memo needs.
type overviewResponse struct {
	Symbol               string `json:"Symbol"`
	MarketCapitalization string `json:"MarketCapitalization"`
	PERatio              string `json:"PERatio"`
	Week52High           string `json:"52WeekHigh"`
	Week52Low            string `json:"52WeekLow"`
}

type timeSeriesResponse struct {
	Series map[string]struct {
		Close string `json:"4. close"`
	} `json:"Time Series (Daily)"`
}

// Lookup fetches the company overview and the latest daily close for a ticker.
// An empty result, never an error, signals that no data is available.
func (c *Client) Lookup(ctx context.Context, ticker string) core.Financials {
	if c.apiKey == "" {
		logger.Warn("Alpha Vantage API key not configured, skipping financial data", "ticker", ticker)
		return core.Financials{}
	}

	logger.Info("Fetching financial data", "ticker", ticker)

	var overview overviewResponse
	if err := c.query(ctx, "OVERVIEW", ticker, &overview); err != nil {
		logger.Error("Failed to fetch company overview", err, "ticker", ticker)
		return core.Financials{}
	}

	var series timeSeriesResponse
	if err := c.query(ctx, "TIME_SERIES_DAILY", ticker, &series); err != nil {
		logger.Error("Failed to fetch daily time series", err, "ticker", ticker)
		return core.Financials{}
	}

	symbol := overview.Symbol
	if symbol == "" {
		symbol = ticker
	}
	return core.Financials{
		Ticker:     symbol,
		Price:      latestClose(series),
		MarketCap:  formatMarketCap(overview.MarketCapitalization),
		PERatio:    orNA(overview.PERatio),
		Week52High: orNA(overview.Week52High),
		Week52Low:  orNA(overview.Week52Low),
	}
}

// query issues one GET against the query endpoint and decodes the JSON body.
func (c *Client) query(ctx context.Context, function, ticker string, out any) error {
	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", ticker)
	params.Set("apikey", c.apiKey)
	endpoint := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// latestClose picks the close of the most recent trading day, "N/A" when the
// series is empty.
func latestClose(series timeSeriesResponse) string {
	if len(series.Series) == 0 {
		return "N/A"
	}
	dates := make([]string, 0, len(series.Series))
	for date := range series.Series {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return series.Series[dates[0]].Close
}

// formatMarketCap renders the raw capitalization as billions, "$0.00B" when
// the field is absent or not numeric.
func formatMarketCap(raw string) string {
	marketCap, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || marketCap < 0 {
		marketCap = 0
	}
	return fmt.Sprintf("$%.2fB", float64(marketCap)/1e9)
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
