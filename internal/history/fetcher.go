package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zeewaqar/stock-prediction-app/internal/models"
)

const (
	// lookbackDays is the history window ending today.
	lookbackDays = 30
	// cacheMinimum is the cache-hit threshold. A full window holds at most
	// ~22 trading days plus weekends, so 25 cached points means the window
	// is effectively complete without a remote round trip.
	cacheMinimum = 25

	dateLayout = "2006-01-02"
)

// PriceStore is the cached observation store the fetcher reads and fills.
type PriceStore interface {
	GetRange(ctx context.Context, symbol string, from time.Time) ([]models.StockPrice, error)
	Upsert(ctx context.Context, symbol string, date time.Time, price float64) (bool, error)
}

// Provider is the remote daily-history source.
type Provider interface {
	DailyHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error)
}

// Fetcher returns up to 30 days of daily closing prices for a symbol,
// preferring the local cache and falling back to the remote provider.
type Fetcher struct {
	store    PriceStore
	provider Provider
	logger   zerolog.Logger
}

func NewFetcher(store PriceStore, provider Provider) *Fetcher {
	return &Fetcher{
		store:    store,
		provider: provider,
		logger:   log.With().Str("component", "history_fetcher").Logger(),
	}
}

// Fetch returns the merged, date-ascending closing price series for the
// lookback window. Newly fetched days are persisted individually with an
// insert-if-absent write, so concurrent fetches of the same symbol never
// duplicate a (symbol, date) pair.
func (f *Fetcher) Fetch(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	from := time.Now().AddDate(0, 0, -lookbackDays)

	cached, err := f.store.GetRange(ctx, symbol, from)
	if err != nil {
		return nil, fmt.Errorf("read price cache: %w", err)
	}

	if len(cached) >= cacheMinimum {
		f.logger.Debug().Str("symbol", symbol).Int("cached", len(cached)).Msg("cache hit")
		return toPoints(cached), nil
	}

	remote, err := f.provider.DailyHistory(ctx, symbol, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}

	seen := make(map[string]struct{}, len(cached))
	for _, c := range cached {
		seen[c.Date] = struct{}{}
	}

	merged := toPoints(cached)
	inserted := 0
	for _, p := range remote {
		if _, ok := seen[p.Date]; ok {
			continue
		}
		day, err := time.Parse(dateLayout, p.Date)
		if err != nil {
			f.logger.Warn().Str("symbol", symbol).Str("date", p.Date).Msg("provider returned unparseable date, skipping")
			continue
		}
		if p.Price <= 0 {
			f.logger.Warn().Str("symbol", symbol).Str("date", p.Date).Float64("price", p.Price).Msg("provider returned non-positive close, skipping")
			continue
		}
		if _, err := f.store.Upsert(ctx, symbol, day, p.Price); err != nil {
			return nil, fmt.Errorf("cache price %s %s: %w", symbol, p.Date, err)
		}
		seen[p.Date] = struct{}{}
		merged = append(merged, p)
		inserted++
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })

	f.logger.Info().Str("symbol", symbol).Int("cached", len(cached)).Int("fetched", inserted).Msg("history refreshed")
	return merged, nil
}

func toPoints(cached []models.StockPrice) []models.PricePoint {
	out := make([]models.PricePoint, len(cached))
	for i, c := range cached {
		out[i] = models.PricePoint{Date: c.Date, Price: c.Price}
	}
	return out
}
