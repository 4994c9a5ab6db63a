package chatgpt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/ai-travelguide/internal/domain/planner"
	"github.com/yanqian/ai-travelguide/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	upstreamName   = "openai"
)

// Message mirrors the OpenAI chat message structure.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the payload sent to the chat completions API.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int32     `json:"max_tokens,omitempty"`
}

// ChatCompletionResponse captures the response for non streaming calls.
type ChatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Options configures model parameters used by Generate.
type Options struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	Timeout         time.Duration
}

// Client performs HTTP requests to an OpenAI compatible API.
type Client struct {
	opts       Options
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Recorder
}

// NewClient constructs a chat completions client.
func NewClient(opts Options, recorder *metrics.Recorder) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("chatgpt api key cannot be empty")
	}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		opts:       opts,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    recorder,
	}, nil
}

// Generate implements planner.TextGenerator with a single user message.
func (c *Client) Generate(ctx context.Context, prompt string) (planner.Generation, error) {
	resp, err := c.CreateChatCompletion(ctx, ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxOutputTokens,
	})
	if err != nil {
		return planner.Generation{}, err
	}
	if len(resp.Choices) == 0 {
		return planner.Generation{}, errors.New("chatgpt returned no choices")
	}
	return planner.Generation{
		Text: resp.Choices[0].Message.Content,
		Usage: metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// CreateChatCompletion triggers a sync chat completions call.
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (out ChatCompletionResponse, err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveUpstream(upstreamName, err, time.Since(start)) }()

	payload, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("encode chat completion: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("build chat completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return out, fmt.Errorf("request chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return out, fmt.Errorf("chatgpt request failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode chat completion: %w", err)
	}
	return out, nil
}

var _ planner.TextGenerator = (*Client)(nil)
