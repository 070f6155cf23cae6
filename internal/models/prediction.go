package models

import (
	"math"
	"time"
)

// Prediction is one forecasted day for a symbol. It starts pending and
// becomes scored once an actual closing price is recorded.
type Prediction struct {
	ID             int64     `json:"id"`
	Symbol         string    `json:"symbol"`
	DatePredicted  string    `json:"datePredicted"`
	PredictedPrice float64   `json:"predictedPrice"`
	ActualPrice    *float64  `json:"actualPrice"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AbsError returns |predicted - actual|, or nil while the prediction is
// still pending.
func (p *Prediction) AbsError() *float64 {
	if p.ActualPrice == nil {
		return nil
	}
	e := math.Abs(p.PredictedPrice - *p.ActualPrice)
	return &e
}

// ForecastPoint is a single forecasted day as returned by the model and
// echoed back to the caller.
type ForecastPoint struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predictedPrice"`
}

// ActualUpdate is one manually supplied observation for a stored prediction.
type ActualUpdate struct {
	ID          int64   `json:"id"`
	ActualPrice float64 `json:"actualPrice"`
}
