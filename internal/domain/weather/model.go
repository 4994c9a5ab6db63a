package weather

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Payload is the current conditions document returned by /get-weather. It
// mirrors the OpenWeatherMap shape and every field may be absent. Fields of
// the wrong JSON type decode as absent.
type Payload struct {
	Name       *string     `json:"name,omitempty"`
	Main       *Main       `json:"main,omitempty"`
	Conditions []Condition `json:"weather,omitempty"`
}

// Main holds the measured values. Temp keeps the number exactly as sent.
type Main struct {
	Temp *json.Number `json:"temp,omitempty"`
}

// Condition is one weather descriptor.
type Condition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// UnmarshalJSON decodes field by field so a well-formed document of an
// unexpected shape yields an Incomplete report instead of an error.
// Malformed JSON is still rejected by json.Unmarshal before this runs.
func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = Payload{}
	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) != nil {
		return nil
	}

	if name, ok := decodeString(fields["name"]); ok {
		p.Name = &name
	}

	var main map[string]json.RawMessage
	if json.Unmarshal(fields["main"], &main) == nil && main != nil {
		p.Main = &Main{}
		if temp, ok := decodeNumber(main["temp"]); ok {
			p.Main.Temp = &temp
		}
	}

	var conditions []json.RawMessage
	if json.Unmarshal(fields["weather"], &conditions) == nil {
		for _, raw := range conditions {
			var c map[string]json.RawMessage
			if json.Unmarshal(raw, &c) != nil || c == nil {
				break
			}
			description, _ := decodeString(c["description"])
			icon, _ := decodeString(c["icon"])
			p.Conditions = append(p.Conditions, Condition{Description: description, Icon: icon})
		}
	}
	return nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s *string
	if json.Unmarshal(raw, &s) != nil || s == nil {
		return "", false
	}
	return *s, true
}

func decodeNumber(raw json.RawMessage) (json.Number, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if dec.Decode(&v) != nil {
		return "", false
	}
	n, ok := v.(json.Number)
	return n, ok
}

// Report is either Complete or Incomplete.
type Report interface {
	isReport()
}

// Complete carries everything needed to render a summary line.
type Complete struct {
	Name        string
	Temperature string
	Description string
	Icon        string
}

// Incomplete names the fields that were missing from the payload.
type Incomplete struct {
	Missing []string
}

func (Complete) isReport()   {}
func (Incomplete) isReport() {}

// Report classifies the payload. Only the first condition is used.
func (p Payload) Report() Report {
	var missing []string
	if p.Name == nil || strings.TrimSpace(*p.Name) == "" {
		missing = append(missing, "name")
	}
	if p.Main == nil || p.Main.Temp == nil || p.Main.Temp.String() == "" {
		missing = append(missing, "main.temp")
	}
	if len(p.Conditions) == 0 {
		missing = append(missing, "weather[0]")
	}
	if len(missing) > 0 {
		return Incomplete{Missing: missing}
	}
	first := p.Conditions[0]
	return Complete{
		Name:        *p.Name,
		Temperature: p.Main.Temp.String(),
		Description: first.Description,
		Icon:        first.Icon,
	}
}

// Config wires runtime settings for the lookup service.
type Config struct {
	Units string
}
