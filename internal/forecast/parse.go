package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeewaqar/stock-prediction-app/internal/models"
)

// ErrMalformedOutput marks a model reply that failed structural validation.
// It is distinct from an upstream failure so callers can tell "service
// down" apart from "service replied nonsense".
var ErrMalformedOutput = errors.New("malformed model output")

const dateLayout = "2006-01-02"

// ParseForecast extracts the JSON array embedded in a model reply and
// validates its shape. Models occasionally wrap the array in prose despite
// the system instruction, so everything outside the outermost bracket pair
// is ignored.
func ParseForecast(content string) ([]models.ForecastPoint, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON array in reply", ErrMalformedOutput)
	}

	var raw []struct {
		Date           *string  `json:"date"`
		PredictedPrice *float64 `json:"predicted_price"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty forecast array", ErrMalformedOutput)
	}

	out := make([]models.ForecastPoint, 0, len(raw))
	for i, r := range raw {
		if r.Date == nil || r.PredictedPrice == nil {
			return nil, fmt.Errorf("%w: element %d missing date or predicted_price", ErrMalformedOutput, i)
		}
		if _, err := time.Parse(dateLayout, *r.Date); err != nil {
			return nil, fmt.Errorf("%w: element %d has invalid date %q", ErrMalformedOutput, i, *r.Date)
		}
		out = append(out, models.ForecastPoint{Date: *r.Date, PredictedPrice: *r.PredictedPrice})
	}
	return out, nil
}
