package guideapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxBodyBytes = 4 << 20

// ItineraryRequest is the JSON body posted to /generate-itinerary. Days is
// sent as the raw input string.
type ItineraryRequest struct {
	Destination string `json:"destination"`
	Days        string `json:"days"`
	Interests   string `json:"interests"`
}

// Response is a fully read HTTP response. A non-2xx status is not an error.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Client calls the travel guide backend endpoints.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	forwardedFor string
}

// NewClient targets baseURL (scheme and host, optional path prefix). A nil
// httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ForwardedFor returns a copy that sends ip as X-Forwarded-For, so calls made
// on behalf of a browser are attributed to it.
func (c *Client) ForwardedFor(ip string) *Client {
	clone := *c
	clone.forwardedFor = ip
	return &clone
}

// GetWeather calls GET /get-weather?city=<city>.
func (c *Client) GetWeather(ctx context.Context, city string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/get-weather?city="+url.QueryEscape(city), nil)
}

// GenerateItinerary calls POST /generate-itinerary.
func (c *Client) GenerateItinerary(ctx context.Context, req ItineraryRequest) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode itinerary request: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/generate-itinerary", payload)
}

// SuggestTrips calls GET /suggest-trips.
func (c *Client) SuggestTrips(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/suggest-trips", nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", c.forwardedFor)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
