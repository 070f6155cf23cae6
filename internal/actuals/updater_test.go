package actuals

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/zeewaqar/stock-prediction-app/internal/models"
	"github.com/zeewaqar/stock-prediction-app/internal/repository"
)

type fakeStore struct {
	mu      sync.Mutex
	pending []models.Prediction
	actuals map[int64]float64
	setErr  map[int64]error
}

func newFakeStore(pending ...models.Prediction) *fakeStore {
	return &fakeStore{
		pending: pending,
		actuals: make(map[int64]float64),
		setErr:  make(map[int64]error),
	}
}

func (f *fakeStore) ListPending(ctx context.Context) ([]models.Prediction, error) {
	return f.pending, nil
}

func (f *fakeStore) SetActual(ctx context.Context, id int64, price float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.setErr[id]; ok {
		return err
	}
	known := false
	for _, p := range f.pending {
		if p.ID == id {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("id %d: %w", id, repository.ErrNotFound)
	}
	f.actuals[id] = price
	return nil
}

type fakeSource struct {
	mu     sync.Mutex
	closes map[string]float64 // "symbol/date" -> price
	errs   map[string]error
	calls  int
}

func (f *fakeSource) ClosingPrice(ctx context.Context, symbol, date string) (float64, bool, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	key := symbol + "/" + date
	if err, ok := f.errs[key]; ok {
		return 0, false, err
	}
	price, ok := f.closes[key]
	return price, ok, nil
}

func pending(id int64, symbol, date string, predicted float64) models.Prediction {
	return models.Prediction{ID: id, Symbol: symbol, DatePredicted: date, PredictedPrice: predicted}
}

func TestRunAuto_UpdatesFoundSkipsMissing(t *testing.T) {
	store := newFakeStore(
		pending(1, "AAPL", "2024-01-02", 100),
		pending(2, "AAPL", "2024-01-06", 101), // weekend, no close
		pending(3, "TSLA", "2024-01-02", 200),
	)
	source := &fakeSource{closes: map[string]float64{
		"AAPL/2024-01-02": 100.5,
		"TSLA/2024-01-02": 199,
	}}
	u := NewUpdater(store, source, 2)

	res, err := u.RunAuto(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Checked != 3 || res.Updated != 2 || res.Skipped != 1 || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if store.actuals[1] != 100.5 || store.actuals[3] != 199 {
		t.Fatalf("actuals not stored: %+v", store.actuals)
	}
	if _, ok := store.actuals[2]; ok {
		t.Fatal("weekend prediction must stay pending")
	}
}

func TestRunAuto_FailureIsolatedPerRecord(t *testing.T) {
	store := newFakeStore(
		pending(1, "AAPL", "2024-01-02", 100),
		pending(2, "MSFT", "2024-01-02", 300),
	)
	source := &fakeSource{
		closes: map[string]float64{"AAPL/2024-01-02": 100.5},
		errs:   map[string]error{"MSFT/2024-01-02": errors.New("provider exploded")},
	}
	u := NewUpdater(store, source, 4)

	res, err := u.RunAuto(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Updated != 1 || res.Failed != 1 {
		t.Fatalf("one failure must not stall the batch: %+v", res)
	}
	if store.actuals[1] != 100.5 {
		t.Fatal("healthy record should still be updated")
	}
}

func TestRunAuto_NoPendingIsANoop(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{}
	u := NewUpdater(store, source, 4)

	res, err := u.RunAuto(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != (Result{}) {
		t.Fatalf("expected zero result, got %+v", res)
	}
	if source.calls != 0 {
		t.Fatal("provider must not be called with nothing pending")
	}
}

func TestRunAuto_ProcessesAllRecords(t *testing.T) {
	var preds []models.Prediction
	closes := make(map[string]float64)
	for i := int64(1); i <= 20; i++ {
		date := fmt.Sprintf("2024-01-%02d", i)
		preds = append(preds, pending(i, "AAPL", date, 100))
		closes["AAPL/"+date] = 100 + float64(i)
	}
	store := newFakeStore(preds...)
	source := &fakeSource{closes: closes}
	u := NewUpdater(store, source, 5)

	res, err := u.RunAuto(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Updated != 20 {
		t.Fatalf("expected all 20 updated, got %+v", res)
	}
	if source.calls != 20 {
		t.Fatalf("expected 20 lookups, got %d", source.calls)
	}
}

func TestApplyManual_CountsAppliedAndSkips(t *testing.T) {
	store := newFakeStore(
		pending(1, "AAPL", "2024-01-02", 100),
		pending(2, "AAPL", "2024-01-03", 101),
	)
	u := NewUpdater(store, &fakeSource{}, 1)

	updates := []models.ActualUpdate{
		{ID: 1, ActualPrice: 100.5},
		{ID: 99, ActualPrice: 50},  // missing id, skipped
		{ID: 2, ActualPrice: 0},    // invalid price, skipped
		{ID: -1, ActualPrice: 1},   // invalid id, skipped
		{ID: 2, ActualPrice: 101.5},
	}
	applied, err := u.ApplyManual(context.Background(), updates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied != 2 {
		t.Fatalf("expected 2 applied, got %d", applied)
	}
	if store.actuals[1] != 100.5 || store.actuals[2] != 101.5 {
		t.Fatalf("actuals mismatch: %+v", store.actuals)
	}
}

func TestApplyManual_Idempotent(t *testing.T) {
	store := newFakeStore(pending(1, "AAPL", "2024-01-02", 100))
	u := NewUpdater(store, &fakeSource{}, 1)
	ctx := context.Background()

	updates := []models.ActualUpdate{{ID: 1, ActualPrice: 100.5}}
	if _, err := u.ApplyManual(ctx, updates); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := u.ApplyManual(ctx, updates); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if store.actuals[1] != 100.5 {
		t.Fatalf("expected stable value after re-apply, got %f", store.actuals[1])
	}
}

func TestApplyManual_StoreFailureStopsBatch(t *testing.T) {
	store := newFakeStore(pending(1, "AAPL", "2024-01-02", 100))
	store.setErr[1] = errors.New("connection lost")
	u := NewUpdater(store, &fakeSource{}, 1)

	applied, err := u.ApplyManual(context.Background(), []models.ActualUpdate{{ID: 1, ActualPrice: 100.5}})
	if err == nil {
		t.Fatal("expected error from store failure")
	}
	if applied != 0 {
		t.Fatalf("expected 0 applied, got %d", applied)
	}
}
