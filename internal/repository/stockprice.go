package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zeewaqar/stock-prediction-app/internal/models"
)

type StockPriceRepo struct {
	pool *pgxpool.Pool
}

func NewStockPriceRepo(pool *pgxpool.Pool) *StockPriceRepo {
	return &StockPriceRepo{pool: pool}
}

// GetRange returns cached observations for a symbol on or after from,
// ordered by date ascending.
func (r *StockPriceRepo) GetRange(ctx context.Context, symbol string, from time.Time) ([]models.StockPrice, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, symbol, date, price, created_at
		 FROM stock_prices WHERE symbol = $1 AND date >= $2
		 ORDER BY date ASC`,
		symbol, from,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StockPrice
	for rows.Next() {
		var p models.StockPrice
		var day time.Time
		if err := rows.Scan(&p.ID, &p.Symbol, &day, &p.Price, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Date = day.Format(dateLayout)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert inserts an observation, keeping the existing row when the
// (symbol, date) pair is already cached. Two concurrent fetches of the same
// symbol may both attempt the write; the conflict clause makes that benign.
// Returns true when a new row was inserted.
func (r *StockPriceRepo) Upsert(ctx context.Context, symbol string, date time.Time, price float64) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`INSERT INTO stock_prices (symbol, date, price)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (symbol, date) DO NOTHING`,
		symbol, date, price,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
