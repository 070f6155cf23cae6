package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zeewaqar/stock-prediction-app/internal/models"
)

// ErrNotFound is returned when an update targets a prediction id that does
// not exist.
var ErrNotFound = errors.New("prediction not found")

const dateLayout = "2006-01-02"

type PredictionRepo struct {
	pool *pgxpool.Pool
}

func NewPredictionRepo(pool *pgxpool.Pool) *PredictionRepo {
	return &PredictionRepo{pool: pool}
}

// Filter narrows prediction queries. The zero value matches everything.
// From and To bound date_predicted inclusively.
type Filter struct {
	Symbol string
	From   time.Time
	To     time.Time
}

func (f Filter) clause(args []any) (string, []any) {
	q := ""
	if f.Symbol != "" {
		args = append(args, f.Symbol)
		q += fmt.Sprintf(" AND symbol = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		q += fmt.Sprintf(" AND date_predicted >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		q += fmt.Sprintf(" AND date_predicted <= $%d", len(args))
	}
	return q, args
}

// CreateBatch inserts one pending prediction row per forecasted day.
func (r *PredictionRepo) CreateBatch(ctx context.Context, symbol string, points []models.ForecastPoint) error {
	batch := &pgx.Batch{}
	for _, f := range points {
		day, err := time.Parse(dateLayout, f.Date)
		if err != nil {
			return fmt.Errorf("bad forecast date %q: %w", f.Date, err)
		}
		batch.Queue(
			`INSERT INTO predictions (symbol, date_predicted, predicted_price)
			 VALUES ($1, $2, $3)`,
			symbol, day, f.PredictedPrice,
		)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range points {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert prediction: %w", err)
		}
	}
	return nil
}

// List returns a page of predictions ordered by date_predicted descending.
func (r *PredictionRepo) List(ctx context.Context, f Filter, limit, offset int) ([]models.Prediction, error) {
	query, args := f.clause(nil)
	query = `SELECT id, symbol, date_predicted, predicted_price, actual_price, created_at
		 FROM predictions WHERE 1=1` + query
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY date_predicted DESC, id DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPredictions(rows)
}

// ListAll returns every prediction matching the filter, for aggregate scoring.
func (r *PredictionRepo) ListAll(ctx context.Context, f Filter) ([]models.Prediction, error) {
	query, args := f.clause(nil)
	query = `SELECT id, symbol, date_predicted, predicted_price, actual_price, created_at
		 FROM predictions WHERE 1=1` + query + ` ORDER BY date_predicted DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPredictions(rows)
}

func (r *PredictionRepo) Count(ctx context.Context, f Filter) (int, error) {
	query, args := f.clause(nil)
	query = `SELECT COUNT(*) FROM predictions WHERE 1=1` + query

	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

// Symbols returns the distinct symbols present in stored predictions,
// sorted ascending.
func (r *PredictionRepo) Symbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT symbol FROM predictions ORDER BY symbol ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// ListPending returns predictions that have no actual price yet.
func (r *PredictionRepo) ListPending(ctx context.Context) ([]models.Prediction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, date_predicted, predicted_price, actual_price, created_at
		 FROM predictions WHERE actual_price IS NULL
		 ORDER BY date_predicted ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPredictions(rows)
}

// SetActual records the observed closing price for a prediction. Applying
// the same value twice is a no-op overwrite, so the call is idempotent.
func (r *PredictionRepo) SetActual(ctx context.Context, id int64, price float64) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE predictions SET actual_price = $2 WHERE id = $1`,
		id, price,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return nil
}

// Clear deletes all prediction rows and returns how many were removed.
func (r *PredictionRepo) Clear(ctx context.Context) (int64, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM predictions`)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// --- scan helpers ---

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectPredictions(rows rowsIter) ([]models.Prediction, error) {
	var out []models.Prediction
	for rows.Next() {
		var p models.Prediction
		var day time.Time
		if err := rows.Scan(&p.ID, &p.Symbol, &day, &p.PredictedPrice, &p.ActualPrice, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.DatePredicted = day.Format(dateLayout)
		out = append(out, p)
	}
	return out, rows.Err()
}
