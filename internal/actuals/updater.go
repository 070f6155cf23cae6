// Package actuals closes the loop between a stored forecast and the price
// that was actually observed on the forecasted date.
package actuals

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zeewaqar/stock-prediction-app/internal/models"
	"github.com/zeewaqar/stock-prediction-app/internal/repository"
)

const defaultWorkers = 4

// Store is the prediction store the updater reads and writes.
type Store interface {
	ListPending(ctx context.Context) ([]models.Prediction, error)
	SetActual(ctx context.Context, id int64, price float64) error
}

// PriceSource looks up the closing price for a symbol on an exact date.
// found=false means the provider has no entry for that date.
type PriceSource interface {
	ClosingPrice(ctx context.Context, symbol, date string) (price float64, found bool, err error)
}

// Result summarises one automatic update run.
type Result struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Updater fills in actual prices for pending predictions, either by
// querying the remote provider or from operator-supplied values. Both
// modes are idempotent: re-scoring a record just overwrites actual_price.
type Updater struct {
	store   Store
	source  PriceSource
	workers int
	logger  zerolog.Logger
}

func NewUpdater(store Store, source PriceSource, workers int) *Updater {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Updater{
		store:   store,
		source:  source,
		workers: workers,
		logger:  log.With().Str("component", "actuals_updater").Logger(),
	}
}

// RunAuto looks up the closing price for every pending prediction on its
// forecasted date. Lookups fan out over a fixed-size worker pool; a record
// whose date has no close (weekend, holiday) stays pending and is only
// counted as skipped, never fatal.
func (u *Updater) RunAuto(ctx context.Context) (Result, error) {
	pending, err := u.store.ListPending(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list pending predictions: %w", err)
	}
	if len(pending) == 0 {
		return Result{}, nil
	}

	var updated, skipped, failed atomic.Int64
	jobs := make(chan models.Prediction)
	var wg sync.WaitGroup

	for i := 0; i < u.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				price, found, err := u.source.ClosingPrice(ctx, p.Symbol, p.DatePredicted)
				if err != nil {
					failed.Add(1)
					u.logger.Warn().Int64("id", p.ID).Str("symbol", p.Symbol).Str("date", p.DatePredicted).
						Err(err).Msg("actual price lookup failed")
					continue
				}
				if !found {
					skipped.Add(1)
					u.logger.Info().Int64("id", p.ID).Str("symbol", p.Symbol).Str("date", p.DatePredicted).
						Msg("no close for forecasted date, leaving pending")
					continue
				}
				if err := u.store.SetActual(ctx, p.ID, price); err != nil {
					failed.Add(1)
					u.logger.Warn().Int64("id", p.ID).Err(err).Msg("store actual price failed")
					continue
				}
				updated.Add(1)
			}
		}()
	}

feed:
	for _, p := range pending {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()

	res := Result{
		Checked: len(pending),
		Updated: int(updated.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	u.logger.Info().Int("checked", res.Checked).Int("updated", res.Updated).
		Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("automatic actuals run finished")
	return res, ctx.Err()
}

// ApplyManual applies operator-supplied (id, actualPrice) pairs and returns
// the count actually applied. Entries with a non-positive id or price, and
// ids that no longer exist, are skipped rather than failing the batch.
func (u *Updater) ApplyManual(ctx context.Context, updates []models.ActualUpdate) (int, error) {
	applied := 0
	for _, upd := range updates {
		if upd.ID <= 0 || upd.ActualPrice <= 0 {
			u.logger.Warn().Int64("id", upd.ID).Float64("price", upd.ActualPrice).Msg("skipping invalid manual update")
			continue
		}
		err := u.store.SetActual(ctx, upd.ID, upd.ActualPrice)
		if errors.Is(err, repository.ErrNotFound) {
			u.logger.Warn().Int64("id", upd.ID).Msg("manual update targets missing prediction, skipping")
			continue
		}
		if err != nil {
			return applied, fmt.Errorf("apply manual update for id %d: %w", upd.ID, err)
		}
		applied++
	}
	return applied, nil
}
