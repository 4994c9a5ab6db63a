package weather

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/ai-travelguide/pkg/errors"
)

// Service looks up current conditions for a city.
type Service interface {
	// Lookup returns the upstream JSON document unchanged.
	Lookup(ctx context.Context, city string) ([]byte, error)
}

// Client fetches raw current-weather JSON from a provider.
type Client interface {
	Current(ctx context.Context, city, units string) ([]byte, error)
}

type service struct {
	cfg    Config
	client Client
	logger *slog.Logger
}

// NewService wires up the weather domain.
func NewService(cfg Config, client Client, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "weather.service"),
	}
}

func (s *service) Lookup(ctx context.Context, city string) ([]byte, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "City parameter is required", nil)
	}

	body, err := s.client.Current(ctx, city, s.cfg.Units)
	if err != nil {
		s.logger.Error("weather lookup failed", "city", city, "error", err)
		return nil, apperrors.Wrap(apperrors.CodeWeather, "Could not fetch weather data", err)
	}
	s.logger.Info("weather lookup succeeded", "city", city, "bytes", len(body))
	return body, nil
}
