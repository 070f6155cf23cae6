package forecast

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zeewaqar/stock-prediction-app/internal/models"
)

// systemPrompt is the fixed instruction sent with every forecast request.
// The bracket-window parser below tolerates replies that violate the
// "nothing else" part.
const systemPrompt = "You are a financial analyst. " +
	"Given historical closing prices, predict the next 7 calendar days closing prices. " +
	`Respond only with a JSON array of objects: [{"date":"YYYY-MM-DD","predicted_price":123.45}, ...]. ` +
	"Do not include any explanation or surrounding text."

// Completer produces a raw text completion for a system + user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Store persists forecast rows in bulk.
type Store interface {
	CreateBatch(ctx context.Context, symbol string, points []models.ForecastPoint) error
}

// Generator turns a recent price series into a persisted 7-day forecast by
// delegating to a language-model completion endpoint.
type Generator struct {
	llm    Completer
	store  Store
	logger zerolog.Logger
}

func NewGenerator(llm Completer, store Store) *Generator {
	return &Generator{
		llm:    llm,
		store:  store,
		logger: log.With().Str("component", "forecast_generator").Logger(),
	}
}

// BuildPrompt embeds each observation as date:price joined by commas,
// oldest first.
func BuildPrompt(symbol string, history []models.PricePoint) string {
	parts := make([]string, len(history))
	for i, p := range history {
		parts[i] = fmt.Sprintf("%s:%g", p.Date, p.Price)
	}
	return fmt.Sprintf("Historical closing prices for %s: %s.", symbol, strings.Join(parts, ", "))
}

// Forecast asks the model for a 7-day forecast, validates the reply,
// persists one pending prediction per returned day and hands the parsed
// list back for immediate display. Malformed output is a single-shot
// failure; the transport layer retries, the parse step does not.
func (g *Generator) Forecast(ctx context.Context, symbol string, history []models.PricePoint) ([]models.ForecastPoint, error) {
	prompt := BuildPrompt(symbol, history)

	reply, err := g.llm.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", symbol, err)
	}

	points, err := ParseForecast(reply)
	if err != nil {
		g.logger.Error().Str("symbol", symbol).Str("reply", truncate(reply, 300)).Err(err).Msg("model reply failed validation")
		return nil, err
	}

	if err := g.store.CreateBatch(ctx, symbol, points); err != nil {
		return nil, fmt.Errorf("persist forecast for %s: %w", symbol, err)
	}

	g.logger.Info().Str("symbol", symbol).Int("days", len(points)).Msg("forecast stored")
	return points, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
