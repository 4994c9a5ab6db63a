package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/ai-travelguide/internal/domain/planner"
	"github.com/yanqian/ai-travelguide/internal/infra/config"
	"github.com/yanqian/ai-travelguide/internal/interface/web"
	apperrors "github.com/yanqian/ai-travelguide/pkg/errors"
	"github.com/yanqian/ai-travelguide/pkg/metrics"
)

func TestRouter_GetWeatherSuccess(t *testing.T) {
	weatherSvc := &stubWeather{
		lookupFn: func(ctx context.Context, city string) ([]byte, error) {
			require.Equal(t, "Lisbon", city)
			return []byte(`{"name":"Lisbon","main":{"temp":21}}`), nil
		},
	}

	recorder := performRequest(http.MethodGet, "/get-weather?city=Lisbon", "", newRouterUnderTest(t, weatherSvc, &stubPlanner{}))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"name":"Lisbon","main":{"temp":21}}`, recorder.Body.String())
}

func TestRouter_GetWeatherErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
		code   string
	}{
		"missing city": {
			err:    apperrors.Wrap(apperrors.CodeInvalidInput, "City parameter is required", nil),
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		"upstream failure": {
			err:    apperrors.Wrap(apperrors.CodeWeather, "Could not fetch weather data", io.ErrUnexpectedEOF),
			status: http.StatusBadGateway,
			code:   "weather_failed",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			weatherSvc := &stubWeather{lookupFn: func(context.Context, string) ([]byte, error) { return nil, tc.err }}

			recorder := performRequest(http.MethodGet, "/get-weather", "", newRouterUnderTest(t, weatherSvc, &stubPlanner{}))
			require.Equal(t, tc.status, recorder.Code)

			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tc.code, errBody["error"]["code"])
			require.NotEmpty(t, errBody["error"]["message"])
		})
	}
}

func TestRouter_GenerateItinerary(t *testing.T) {
	plannerSvc := &stubPlanner{
		itineraryFn: func(ctx context.Context, req planner.ItineraryRequest) (planner.ItineraryResponse, error) {
			require.Equal(t, planner.ItineraryRequest{Destination: "Kyoto", Days: "4", Interests: "temples"}, req)
			return planner.ItineraryResponse{Itinerary: "## Day 1"}, nil
		},
	}

	recorder := performRequest(http.MethodPost, "/generate-itinerary", `{"destination":"Kyoto","days":4,"interests":"temples"}`, newRouterUnderTest(t, &stubWeather{}, plannerSvc))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got planner.ItineraryResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "## Day 1", got.Itinerary)
}

func TestRouter_GenerateItineraryErrors(t *testing.T) {
	cases := map[string]struct {
		body   string
		err    error
		status int
		code   string
	}{
		"invalid json": {
			body:   `{"destination":`,
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		"missing fields": {
			body:   `{"destination":"Kyoto"}`,
			err:    apperrors.Wrap(apperrors.CodeInvalidInput, "Missing required fields", nil),
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		"llm failure": {
			body:   `{"destination":"Kyoto","days":"2","interests":"food"}`,
			err:    apperrors.Wrap(apperrors.CodeLLM, "text generation failed", io.EOF),
			status: http.StatusBadGateway,
			code:   "llm_error",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			plannerSvc := &stubPlanner{
				itineraryFn: func(context.Context, planner.ItineraryRequest) (planner.ItineraryResponse, error) {
					return planner.ItineraryResponse{}, tc.err
				},
			}

			recorder := performRequest(http.MethodPost, "/generate-itinerary", tc.body, newRouterUnderTest(t, &stubWeather{}, plannerSvc))
			require.Equal(t, tc.status, recorder.Code)
			require.Equal(t, tc.code, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
		})
	}
}

func TestRouter_SuggestTrips(t *testing.T) {
	plannerSvc := &stubPlanner{
		suggestFn: func(context.Context) (planner.SuggestionsResponse, error) {
			return planner.SuggestionsResponse{Suggestions: "- Porto"}, nil
		},
	}

	recorder := performRequest(http.MethodGet, "/suggest-trips", "", newRouterUnderTest(t, &stubWeather{}, plannerSvc))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"suggestions":"- Porto"}`, recorder.Body.String())
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	server := newRouterUnderTest(t, &stubWeather{}, &stubPlanner{})

	recorder := performRequest(http.MethodGet, "/health", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = performRequest(http.MethodGet, "/metrics", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `travelguide_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, &stubWeather{}, &stubPlanner{})

	req := httptest.NewRequest(http.MethodOptions, "/generate-itinerary", nil)
	req.Header.Set("Origin", "https://guide.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	server := buildRouter(t, cfg, &stubWeather{}, &stubPlanner{})

	first := performRequest(http.MethodGet, "/suggest-trips", "", server)
	require.Equal(t, http.StatusOK, first.Code)

	second := performRequest(http.MethodGet, "/suggest-trips", "", server)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, second.Body.Bytes())["error"]["code"])

	// health is outside the limited group
	require.Equal(t, http.StatusOK, performRequest(http.MethodGet, "/health", "", server).Code)
}

func TestRouter_RateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	server := buildRouter(t, cfg, &stubWeather{}, &stubPlanner{})

	var codes []int
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"} {
		codes = append(codes, performRequestFrom(server, ip).Code)
	}
	require.Equal(t, []int{200, 429, 429, 429, 429}, codes)
}

func TestRouter_RateLimitHonorsTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.TrustedProxies = []string{"192.0.2.1"}
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	server := buildRouter(t, cfg, &stubWeather{}, &stubPlanner{})

	require.Equal(t, http.StatusOK, performRequestFrom(server, "10.0.0.1").Code)
	require.Equal(t, http.StatusOK, performRequestFrom(server, "10.0.0.2").Code)
	require.Equal(t, http.StatusTooManyRequests, performRequestFrom(server, "10.0.0.1").Code)
}

func TestIPRateLimiterRefillsAndForgets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := newIPRateLimiter(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 1}, func() time.Time { return now })

	require.True(t, limiter.allow("1.1.1.1"))
	require.False(t, limiter.allow("1.1.1.1"))
	require.True(t, limiter.allow("2.2.2.2"))

	now = now.Add(time.Second)
	require.True(t, limiter.allow("1.1.1.1"))

	now = now.Add(10 * time.Minute)
	limiter.allow("3.3.3.3")
	require.Len(t, limiter.visitors, 1)
}

func TestRouter_PageSubmitEndToEnd(t *testing.T) {
	weatherSvc := &stubWeather{
		lookupFn: func(ctx context.Context, city string) ([]byte, error) {
			return []byte(`{"name":"Oslo","main":{"temp":4.5},"weather":[{"description":"light snow","icon":"13d"}]}`), nil
		},
	}
	plannerSvc := &stubPlanner{
		itineraryFn: func(ctx context.Context, req planner.ItineraryRequest) (planner.ItineraryResponse, error) {
			require.Equal(t, "Oslo", req.Destination)
			return planner.ItineraryResponse{Itinerary: "**Day 1**: fjords"}, nil
		},
	}
	var router http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router.ServeHTTP(w, r)
	}))
	defer srv.Close()
	cfg := testConfig()
	cfg.Page.APIBaseURL = srv.URL
	router = buildRouter(t, cfg, weatherSvc, plannerSvc).Handler

	form := url.Values{"destination": {" Oslo"}, "days": {"2"}, "interests": {"hiking"}}
	resp, err := srv.Client().PostForm(srv.URL+"/", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "Current weather in Oslo:</strong> 4.5°C, light snow.")
	require.Contains(t, string(body), "<strong>Day 1</strong>: fjords")
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

// performRequestFrom sends GET /suggest-trips from the default httptest peer
// (192.0.2.1) claiming forwardedFor as the client.
func performRequestFrom(server *http.Server, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/suggest-trips", nil)
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Page: config.PageConfig{SessionCookie: "tg_session"},
	}
}

func newRouterUnderTest(t *testing.T, weatherSvc *stubWeather, plannerSvc *stubPlanner) *http.Server {
	t.Helper()
	return buildRouter(t, testConfig(), weatherSvc, plannerSvc)
}

func buildRouter(t *testing.T, cfg *config.Config, weatherSvc *stubWeather, plannerSvc *stubPlanner) *http.Server {
	t.Helper()
	logger := newTestLogger()
	recorder := metrics.New()
	handler := NewHandler(weatherSvc, plannerSvc, logger)
	pages := web.NewPages(cfg.Page, cfg.HTTP.Address, nil, nil, recorder, logger)
	return NewRouter(cfg, handler, pages, recorder, logger)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubWeather struct {
	lookupFn func(ctx context.Context, city string) ([]byte, error)
}

func (s *stubWeather) Lookup(ctx context.Context, city string) ([]byte, error) {
	if s.lookupFn != nil {
		return s.lookupFn(ctx, city)
	}
	return []byte(`{}`), nil
}

type stubPlanner struct {
	itineraryFn func(ctx context.Context, req planner.ItineraryRequest) (planner.ItineraryResponse, error)
	suggestFn   func(ctx context.Context) (planner.SuggestionsResponse, error)
}

func (s *stubPlanner) GenerateItinerary(ctx context.Context, req planner.ItineraryRequest) (planner.ItineraryResponse, error) {
	if s.itineraryFn != nil {
		return s.itineraryFn(ctx, req)
	}
	return planner.ItineraryResponse{}, nil
}

func (s *stubPlanner) SuggestTrips(ctx context.Context) (planner.SuggestionsResponse, error) {
	if s.suggestFn != nil {
		return s.suggestFn(ctx)
	}
	return planner.SuggestionsResponse{}, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
