package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zeewaqar/stock-prediction-app/internal/actuals"
	"github.com/zeewaqar/stock-prediction-app/internal/models"
	"github.com/zeewaqar/stock-prediction-app/internal/repository"
)

const (
	defaultPageSize = 10
	maxQueryLimit   = 1000
)

// Error codes surfaced alongside HTTP statuses so the UI can distinguish
// failure classes without string matching.
const (
	codeInvalidInput         = "invalid_input"
	codeUpstreamUnavailable  = "upstream_unavailable"
	codeMalformedModelOutput = "malformed_model_output"
	codeInternal             = "internal"
)

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Forecaster produces and persists a 7-day forecast for a symbol.
type Forecaster interface {
	Forecast(ctx context.Context, symbol string, history []models.PricePoint) ([]models.ForecastPoint, error)
}

// HistoryFetcher returns the cached-or-fetched closing price series.
type HistoryFetcher interface {
	Fetch(ctx context.Context, symbol string) ([]models.PricePoint, error)
}

// ActualsService fills in observed prices for stored predictions.
type ActualsService interface {
	RunAuto(ctx context.Context) (actuals.Result, error)
	ApplyManual(ctx context.Context, updates []models.ActualUpdate) (int, error)
}

// Deps carries everything the HTTP surface delegates to.
type Deps struct {
	Pool       *pgxpool.Pool
	Forecaster Forecaster
	History    HistoryFetcher
	Actuals    ActualsService
}

type Server struct {
	pool        *pgxpool.Pool
	predictions *repository.PredictionRepo
	forecaster  Forecaster
	history     HistoryFetcher
	actuals     ActualsService
	httpServer  *http.Server
	apiKey      string
	logger      zerolog.Logger
}

func NewServer(deps Deps, port int, apiKey, corsOrigin string) *Server {
	s := &Server{
		pool:        deps.Pool,
		predictions: repository.NewPredictionRepo(deps.Pool),
		forecaster:  deps.Forecaster,
		history:     deps.History,
		actuals:     deps.Actuals,
		apiKey:      apiKey,
		logger:      log.With().Str("component", "api").Logger(),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("GET /predictions", s.handlePredictions)
	mux.HandleFunc("GET /symbols", s.handleSymbols)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /update-actuals", s.handleUpdateActuals)
	mux.HandleFunc("POST /update-actuals-manual", s.handleUpdateActualsManual)
	mux.HandleFunc("POST /stocks", s.handleStocks)
	mux.HandleFunc("POST /admin/clear", s.handleClear)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	handler := s.authMiddleware(corsMiddleware(mux, corsOrigin))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // forecast + actuals runs hold the request open
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Bool("auth", s.apiKey != "").Msg("REST API listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, codeInvalidInput, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, codeInvalidInput, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func parsePage(r *http.Request) int {
	v := r.URL.Query().Get("page")
	if v == "" {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// parseFilter builds the prediction filter from symbol/from/to query
// params. Returns a user-facing message on a malformed date.
func parseFilter(r *http.Request) (repository.Filter, string) {
	f := repository.Filter{Symbol: r.URL.Query().Get("symbol")}
	for _, bound := range []struct {
		param string
		dst   *time.Time
	}{
		{"from", &f.From},
		{"to", &f.To},
	} {
		v := r.URL.Query().Get(bound.param)
		if v == "" {
			continue
		}
		if !validateDate(v) {
			return f, fmt.Sprintf("invalid %s date, expected YYYY-MM-DD", bound.param)
		}
		*bound.dst, _ = time.Parse("2006-01-02", v)
	}
	return f, ""
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}
