package weather

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/ai-travelguide/pkg/errors"
)

func TestReportComplete(t *testing.T) {
	p := decode(t, `{"name":"Lisbon","main":{"temp":21.50},"weather":[{"description":"clear sky","icon":"01d"},{"description":"haze","icon":"50d"}]}`)

	report, ok := p.Report().(Complete)
	require.True(t, ok)
	require.Equal(t, Complete{Name: "Lisbon", Temperature: "21.50", Description: "clear sky", Icon: "01d"}, report)
}

func TestReportIncomplete(t *testing.T) {
	cases := map[string]struct {
		raw     string
		missing []string
	}{
		"empty":         {raw: `{}`, missing: []string{"name", "main.temp", "weather[0]"}},
		"no name":       {raw: `{"main":{"temp":3},"weather":[{"description":"snow","icon":"13d"}]}`, missing: []string{"name"}},
		"main w/o temp": {raw: `{"name":"Oslo","main":{"humidity":80},"weather":[{"description":"snow"}]}`, missing: []string{"main.temp"}},
		"no conditions": {raw: `{"name":"Oslo","main":{"temp":3},"weather":[]}`, missing: []string{"weather[0]"}},
		"null fields":   {raw: `{"name":null,"main":null,"weather":null}`, missing: []string{"name", "main.temp", "weather[0]"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			report, ok := decode(t, tc.raw).Report().(Incomplete)
			require.True(t, ok)
			require.Equal(t, tc.missing, report.Missing)
		})
	}
}

func TestPayloadWrongShapeIsIncomplete(t *testing.T) {
	cases := map[string]struct {
		raw     string
		missing []string
	}{
		"array document":   {raw: `[]`, missing: []string{"name", "main.temp", "weather[0]"}},
		"string document":  {raw: `"sunny"`, missing: []string{"name", "main.temp", "weather[0]"}},
		"weather object":   {raw: `{"name":"Oslo","main":{"temp":3},"weather":{}}`, missing: []string{"weather[0]"}},
		"temp not number":  {raw: `{"name":"Oslo","main":{"temp":"n/a"},"weather":[{"description":"snow"}]}`, missing: []string{"main.temp"}},
		"name not string":  {raw: `{"name":42,"main":{"temp":3},"weather":[{"description":"snow"}]}`, missing: []string{"name"}},
		"main is array":    {raw: `{"name":"Oslo","main":[1],"weather":[{"description":"snow"}]}`, missing: []string{"main.temp"}},
		"condition scalar": {raw: `{"name":"Oslo","main":{"temp":3},"weather":[5]}`, missing: []string{"weather[0]"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			report, ok := decode(t, tc.raw).Report().(Incomplete)
			require.True(t, ok)
			require.Equal(t, tc.missing, report.Missing)
		})
	}
}

func TestPayloadToleratesOddConditionFields(t *testing.T) {
	p := decode(t, `{"name":"Oslo","main":{"temp":-2},"weather":[{"description":7,"icon":"13d"}]}`)

	report, ok := p.Report().(Complete)
	require.True(t, ok)
	require.Equal(t, Complete{Name: "Oslo", Temperature: "-2", Icon: "13d"}, report)
}

func TestPayloadRejectsMalformedJSON(t *testing.T) {
	var p Payload
	require.Error(t, json.Unmarshal([]byte(`{"name":`), &p))
}

func TestServiceLookup(t *testing.T) {
	client := &stubClient{body: []byte(`{"name":"Paris"}`)}
	svc := NewService(Config{Units: "metric"}, client, discardLogger())

	body, err := svc.Lookup(context.Background(), "  Paris ")
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Paris"}`, string(body))
	require.Equal(t, "Paris", client.lastCity)
	require.Equal(t, "metric", client.lastUnits)
}

func TestServiceLookupRequiresCity(t *testing.T) {
	client := &stubClient{}
	svc := NewService(Config{}, client, discardLogger())

	_, err := svc.Lookup(context.Background(), "   ")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Zero(t, client.calls)
}

func TestServiceLookupUpstreamFailure(t *testing.T) {
	cause := errors.New("status=401")
	svc := NewService(Config{}, &stubClient{err: cause}, discardLogger())

	_, err := svc.Lookup(context.Background(), "Rome")
	require.True(t, apperrors.IsCode(err, apperrors.CodeWeather))
	require.ErrorIs(t, err, cause)
}

type stubClient struct {
	body      []byte
	err       error
	calls     int
	lastCity  string
	lastUnits string
}

func (s *stubClient) Current(_ context.Context, city, units string) ([]byte, error) {
	s.calls++
	s.lastCity = city
	s.lastUnits = units
	return s.body, s.err
}

func decode(t *testing.T, raw string) Payload {
	t.Helper()
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
