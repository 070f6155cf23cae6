package models

import "time"

// StockPrice is a cached daily closing price observation, unique per
// (symbol, date).
type StockPrice struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Date      string    `json:"date"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// PricePoint is the wire shape shared by the price cache, the remote
// provider and the forecast prompt.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}
