package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zeewaqar/stock-prediction-app/internal/external"
	"github.com/zeewaqar/stock-prediction-app/internal/forecast"
	"github.com/zeewaqar/stock-prediction-app/internal/models"
)

type predictRequest struct {
	Symbol string              `json:"symbol"`
	Prices []models.PricePoint `json:"prices"`
}

type predictResponse struct {
	Symbol   string                 `json:"symbol"`
	Forecast []models.ForecastPoint `json:"forecast"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "invalid payload")
		return
	}
	if req.Symbol == "" || len(req.Prices) == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "symbol and a non-empty prices array are required")
		return
	}
	for _, p := range req.Prices {
		if p.Date == "" || p.Price <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidInput, "every price needs a date and a positive price")
			return
		}
	}

	points, err := s.forecaster.Forecast(r.Context(), req.Symbol, req.Prices)
	if err != nil {
		switch {
		case errors.Is(err, forecast.ErrMalformedOutput):
			writeError(w, http.StatusBadGateway, codeMalformedModelOutput, "model returned unusable output")
		case errors.Is(err, external.ErrUpstreamUnavailable):
			writeError(w, http.StatusBadGateway, codeUpstreamUnavailable, "model endpoint unavailable")
		default:
			s.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("forecast failed")
			writeError(w, http.StatusInternalServerError, codeInternal, "failed to generate forecast")
		}
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{Symbol: req.Symbol, Forecast: points})
}

type stocksRequest struct {
	Symbol string `json:"symbol"`
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	var req stocksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Symbol == "" {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "symbol is required")
		return
	}

	prices, err := s.history.Fetch(r.Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, external.ErrUpstreamUnavailable) {
			writeError(w, http.StatusBadGateway, codeUpstreamUnavailable, "price provider unavailable")
			return
		}
		s.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("history fetch failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to fetch price history")
		return
	}
	if prices == nil {
		prices = []models.PricePoint{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"prices": prices})
}
