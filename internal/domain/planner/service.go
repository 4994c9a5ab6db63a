package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/ai-travelguide/pkg/errors"
	"github.com/yanqian/ai-travelguide/pkg/metrics"
)

// Service produces itineraries and trip suggestions.
type Service interface {
	GenerateItinerary(ctx context.Context, req ItineraryRequest) (ItineraryResponse, error)
	SuggestTrips(ctx context.Context) (SuggestionsResponse, error)
}

// TextGenerator turns a prompt into text. Implementations live under infra/llm.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

type service struct {
	cfg       Config
	generator TextGenerator
	metrics   *metrics.Recorder
	logger    *slog.Logger
}

// NewService wires up the planner domain.
func NewService(cfg Config, generator TextGenerator, recorder *metrics.Recorder, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		generator: generator,
		metrics:   recorder,
		logger:    logger.With("component", "planner.service"),
	}
}

func (s *service) GenerateItinerary(ctx context.Context, req ItineraryRequest) (ItineraryResponse, error) {
	req = req.normalized()
	if req.Destination == "" || req.Days == "" || req.Interests == "" {
		return ItineraryResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Missing required fields", nil)
	}

	prompt := fmt.Sprintf(s.cfg.ItineraryPrompt, req.Destination, req.Days, req.Interests)
	text, err := s.generate(ctx, "itinerary", prompt)
	if err != nil {
		return ItineraryResponse{}, err
	}
	return ItineraryResponse{Itinerary: text}, nil
}

func (s *service) SuggestTrips(ctx context.Context) (SuggestionsResponse, error) {
	text, err := s.generate(ctx, "suggestions", s.cfg.SuggestionsPrompt)
	if err != nil {
		return SuggestionsResponse{}, err
	}
	return SuggestionsResponse{Suggestions: text}, nil
}

func (s *service) generate(ctx context.Context, kind, prompt string) (string, error) {
	gen, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("text generation failed", "kind", kind, "error", err)
		return "", apperrors.Wrap(apperrors.CodeLLM, "text generation failed", err)
	}
	text := strings.TrimSpace(gen.Text)
	if text == "" {
		return "", apperrors.Wrap(apperrors.CodeLLM, "text generation returned no content", nil)
	}
	s.metrics.AddTokens(gen.Usage)
	s.logger.Info("text generated", "kind", kind, "chars", len(text), "total_tokens", gen.Usage.TotalTokens)
	return text, nil
}
