package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zeewaqar/stock-prediction-app/internal/httputil"
	"github.com/zeewaqar/stock-prediction-app/internal/models"
)

const fmpBaseURL = "https://financialmodelingprep.com"

// FMPClient fetches daily price history from Financial Modeling Prep.
type FMPClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
	logger     zerolog.Logger
}

func NewFMPClient(apiKey string, retry httputil.RetryConfig, timeout time.Duration) *FMPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FMPClient{
		apiKey:     apiKey,
		baseURL:    fmpBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		logger:     log.With().Str("component", "fmp_client").Logger(),
	}
}

// WithBaseURL overrides the provider endpoint, for tests.
func (c *FMPClient) WithBaseURL(u string) *FMPClient {
	c.baseURL = u
	return c
}

// DailyHistory returns up to days daily closing prices for a symbol, as
// the provider delivers them (newest first).
func (c *FMPClient) DailyHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	endpoint := fmt.Sprintf("%s/api/v3/historical-price-full/%s?timeseries=%d&apikey=%s",
		c.baseURL, url.PathEscape(symbol), days, c.apiKey)

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fmp history for %s: %v", ErrUpstreamUnavailable, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fmp returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var data struct {
		Historical []struct {
			Date  string  `json:"date"`
			Close float64 `json:"close"`
		} `json:"historical"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode fmp response: %v", ErrUpstreamUnavailable, err)
	}

	points := make([]models.PricePoint, 0, len(data.Historical))
	for _, h := range data.Historical {
		points = append(points, models.PricePoint{Date: h.Date, Price: h.Close})
	}
	c.logger.Debug().Str("symbol", symbol).Int("points", len(points)).Msg("fetched daily history")
	return points, nil
}
