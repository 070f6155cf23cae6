// Package stats scores stored predictions against observed closing prices.
package stats

import (
	"sort"

	"github.com/zeewaqar/stock-prediction-app/internal/models"
)

// DefaultTolerance is the absolute-error threshold for the hit-rate, in
// price units.
const DefaultTolerance = 1.0

// Summary aggregates scored predictions. MAE, MSE and HitRate are nil when
// no scored records exist: an empty set has no statistic, reporting 0
// would make an empty dashboard look perfect.
type Summary struct {
	Total   int      `json:"total"`
	Scored  int      `json:"scored"`
	Pending int      `json:"pending"`
	MAE     *float64 `json:"mae"`
	MSE     *float64 `json:"mse"`
	HitRate *float64 `json:"hitRate"` // percent of scored records within tolerance
}

// SymbolSummary is one statistics tuple scoped to a single symbol.
type SymbolSummary struct {
	Symbol string `json:"symbol"`
	Summary
}

// Compute aggregates any pre-filtered prediction set with the given
// tolerance. Non-positive tolerance falls back to DefaultTolerance.
func Compute(preds []models.Prediction, tolerance float64) Summary {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	s := Summary{Total: len(preds)}
	var sumAbs, sumSq float64
	hits := 0

	for i := range preds {
		e := preds[i].AbsError()
		if e == nil {
			s.Pending++
			continue
		}
		s.Scored++
		sumAbs += *e
		sumSq += *e * *e
		if *e <= tolerance {
			hits++
		}
	}

	if s.Scored == 0 {
		return s
	}

	mae := sumAbs / float64(s.Scored)
	mse := sumSq / float64(s.Scored)
	hitRate := float64(hits) / float64(s.Scored) * 100

	s.MAE = &mae
	s.MSE = &mse
	s.HitRate = &hitRate
	return s
}

// BySymbol computes one summary per distinct symbol in the set, sorted by
// symbol, using the same formulas scoped to that symbol's records.
func BySymbol(preds []models.Prediction, tolerance float64) []SymbolSummary {
	grouped := make(map[string][]models.Prediction)
	for _, p := range preds {
		grouped[p.Symbol] = append(grouped[p.Symbol], p)
	}

	out := make([]SymbolSummary, 0, len(grouped))
	for sym, group := range grouped {
		out = append(out, SymbolSummary{Symbol: sym, Summary: Compute(group, tolerance)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
