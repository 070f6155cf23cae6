package api

import (
	"net/http"
	"strconv"

	"github.com/zeewaqar/stock-prediction-app/internal/models"
	"github.com/zeewaqar/stock-prediction-app/internal/stats"
)

type predictionJSON struct {
	models.Prediction
	Error *float64 `json:"error"`
}

type predictionsResponse struct {
	Total       int              `json:"total"`
	Predictions []predictionJSON `json:"predictions"`
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	filter, badDate := parseFilter(r)
	if badDate != "" {
		writeError(w, http.StatusBadRequest, codeInvalidInput, badDate)
		return
	}
	page := parsePage(r)
	limit := parseLimit(r, defaultPageSize)
	offset := (page - 1) * limit

	ctx := r.Context()
	total, err := s.predictions.Count(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("count predictions failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to fetch predictions")
		return
	}

	rows, err := s.predictions.List(ctx, filter, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("list predictions failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to fetch predictions")
		return
	}

	out := make([]predictionJSON, len(rows))
	for i := range rows {
		out[i] = predictionJSON{Prediction: rows[i], Error: rows[i].AbsError()}
	}
	writeJSON(w, http.StatusOK, predictionsResponse{Total: total, Predictions: out})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.predictions.Symbols(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list symbols failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to fetch symbols")
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	writeJSON(w, http.StatusOK, symbols)
}

type statsResponse struct {
	stats.Summary
	Tolerance float64               `json:"tolerance"`
	BySymbol  []stats.SymbolSummary `json:"bySymbol"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	filter, badDate := parseFilter(r)
	if badDate != "" {
		writeError(w, http.StatusBadRequest, codeInvalidInput, badDate)
		return
	}

	tolerance := stats.DefaultTolerance
	if v := r.URL.Query().Get("tolerance"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidInput, "tolerance must be a positive number")
			return
		}
		tolerance = t
	}

	preds, err := s.predictions.ListAll(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("list predictions for stats failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to compute statistics")
		return
	}

	resp := statsResponse{
		Summary:   stats.Compute(preds, tolerance),
		Tolerance: tolerance,
		BySymbol:  stats.BySymbol(preds, tolerance),
	}
	if resp.BySymbol == nil {
		resp.BySymbol = []stats.SymbolSummary{}
	}
	writeJSON(w, http.StatusOK, resp)
}
