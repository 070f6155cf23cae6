package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zeewaqar/stock-prediction-app/internal/httputil"
)

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageClient looks up the closing price for a symbol on an exact
// calendar date, used to score pending predictions.
type AlphaVantageClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	logger     zerolog.Logger
}

func NewAlphaVantageClient(apiKey string, retry httputil.RetryConfig, timeout time.Duration) *AlphaVantageClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AlphaVantageClient{
		apiKey:     apiKey,
		baseURL:    alphaVantageBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		logger:     log.With().Str("component", "alphavantage_client").Logger(),
	}
}

// WithBaseURL overrides the provider endpoint, for tests.
func (c *AlphaVantageClient) WithBaseURL(u string) *AlphaVantageClient {
	c.baseURL = u
	return c
}

// ClosingPrice returns the closing price for symbol on date (YYYY-MM-DD).
// A date absent from the series (weekend, holiday) yields found=false with
// no error; that is a per-record condition, not a provider failure.
func (c *AlphaVantageClient) ClosingPrice(ctx context.Context, symbol, date string) (price float64, found bool, err error) {
	endpoint := fmt.Sprintf("%s/query?function=TIME_SERIES_DAILY&symbol=%s&apikey=%s",
		c.baseURL, url.QueryEscape(symbol), c.apiKey)

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: alphavantage daily series for %s: %v", ErrUpstreamUnavailable, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("%w: alphavantage returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var data struct {
		Series map[string]struct {
			Close string `json:"4. close"`
		} `json:"Time Series (Daily)"`
		Note         string `json:"Note"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, false, fmt.Errorf("%w: decode alphavantage response: %v", ErrUpstreamUnavailable, err)
	}

	// The provider reports rate limits and bad symbols inside a 200 body.
	if data.Series == nil {
		if data.Note != "" || data.ErrorMessage != "" {
			return 0, false, fmt.Errorf("%w: alphavantage: %s%s", ErrUpstreamUnavailable, data.Note, data.ErrorMessage)
		}
		return 0, false, nil
	}

	entry, ok := data.Series[date]
	if !ok {
		c.logger.Info().Str("symbol", symbol).Str("date", date).Msg("no close for date")
		return 0, false, nil
	}

	p, err := strconv.ParseFloat(entry.Close, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: bad close value %q: %v", ErrUpstreamUnavailable, entry.Close, err)
	}
	return p, true, nil
}
