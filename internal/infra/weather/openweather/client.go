package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yanqian/ai-travelguide/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	upstreamName   = "openweather"
	maxBodyBytes   = 1 << 20
)

// Client fetches current conditions from OpenWeatherMap.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.Recorder
}

// NewClient builds an API client. A zero timeout falls back to ten seconds.
func NewClient(baseURL, apiKey string, timeout time.Duration, recorder *metrics.Recorder) *Client {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(endpoint, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: recorder,
	}
}

// Current returns the raw JSON document for the city. Non-2xx statuses and
// bodies that are not JSON objects are errors.
func (c *Client) Current(ctx context.Context, city, units string) (body []byte, err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveUpstream(upstreamName, err, time.Since(start)) }()

	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", c.apiKey)
	if units != "" {
		query.Set("units", units)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", c.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("weather request error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(body, &object); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	return body, nil
}

// redact drops the query from transport errors; it carries the API key.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = c.baseURL
	}
	return err
}
