package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/yanqian/ai-travelguide/pkg/metrics"
)

// ItineraryRequest is the body accepted by /generate-itinerary.
type ItineraryRequest struct {
	Destination string `json:"destination"`
	Days        Days   `json:"days"`
	Interests   string `json:"interests"`
}

// ItineraryResponse carries the generated markdown plan.
type ItineraryResponse struct {
	Itinerary string `json:"itinerary"`
}

// SuggestionsResponse carries the generated markdown list of trips.
type SuggestionsResponse struct {
	Suggestions string `json:"suggestions"`
}

// Days is the trip length as entered. Browsers send the input value as a
// string while API clients tend to send a number; both are accepted.
type Days string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (d *Days) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		*d = ""
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*d = Days(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return errors.New("days must be a string or a number")
		}
		*d = Days(n.String())
		return nil
	}
}

// Generation is the text produced for one prompt.
type Generation struct {
	Text  string
	Usage metrics.TokenUsage
}

// Config wires runtime settings for the planner.
type Config struct {
	ItineraryPrompt   string
	SuggestionsPrompt string
}

func (r ItineraryRequest) normalized() ItineraryRequest {
	return ItineraryRequest{
		Destination: strings.TrimSpace(r.Destination),
		Days:        Days(strings.TrimSpace(string(r.Days))),
		Interests:   strings.TrimSpace(r.Interests),
	}
}
