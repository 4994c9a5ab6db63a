package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yanqian/ai-travelguide/internal/domain/planner"
	"github.com/yanqian/ai-travelguide/pkg/metrics"
)

const upstreamName = "gemini"

// Options configures the generative model.
type Options struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	Timeout         time.Duration
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client adapts the Gemini SDK to planner.TextGenerator.
type Client struct {
	client  *genai.Client
	model   contentGenerator
	timeout time.Duration
	metrics *metrics.Recorder
}

// ModelSummary describes one model visible to the API key.
type ModelSummary struct {
	Name             string
	DisplayName      string
	Methods          []string
	InputTokenLimit  int32
	OutputTokenLimit int32
}

// NewClient dials the Gemini API.
func NewClient(ctx context.Context, opts Options, recorder *metrics.Recorder) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(opts.Model)
	model.SetTemperature(opts.Temperature)
	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxOutputTokens)
	}

	return &Client{
		client:  client,
		model:   model,
		timeout: opts.Timeout,
		metrics: recorder,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate implements planner.TextGenerator.
func (c *Client) Generate(ctx context.Context, prompt string) (gen planner.Generation, err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveUpstream(upstreamName, err, time.Since(start)) }()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return planner.Generation{}, fmt.Errorf("failed to generate content: %w", err)
	}
	text, err := extractText(resp)
	if err != nil {
		return planner.Generation{}, err
	}
	return planner.Generation{Text: text, Usage: usageOf(resp)}, nil
}

// ListModels returns the models that support generateContent.
func (c *Client) ListModels(ctx context.Context) ([]ModelSummary, error) {
	it := c.client.ListModels(ctx)
	var out []ModelSummary
	for {
		info, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		if !supports(info.SupportedGenerationMethods, "generateContent") {
			continue
		}
		out = append(out, ModelSummary{
			Name:             info.Name,
			DisplayName:      info.DisplayName,
			Methods:          info.SupportedGenerationMethods,
			InputTokenLimit:  info.InputTokenLimit,
			OutputTokenLimit: info.OutputTokenLimit,
		})
	}
	return out, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no content generated")
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated (finish reason %v)", finishReason(candidate))
	}
	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}
	if builder.Len() == 0 {
		return "", errors.New("response contained no text parts")
	}
	return builder.String(), nil
}

func usageOf(resp *genai.GenerateContentResponse) metrics.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return metrics.TokenUsage{}
	}
	u := resp.UsageMetadata
	return metrics.TokenUsage{
		PromptTokens:     int(u.PromptTokenCount),
		CompletionTokens: int(u.CandidatesTokenCount),
		TotalTokens:      int(u.TotalTokenCount),
	}
}

func finishReason(c *genai.Candidate) genai.FinishReason {
	if c == nil {
		return genai.FinishReasonUnspecified
	}
	return c.FinishReason
}

func supports(methods []string, want string) bool {
	for _, m := range methods {
		if m == want {
			return true
		}
	}
	return false
}

var _ planner.TextGenerator = (*Client)(nil)
