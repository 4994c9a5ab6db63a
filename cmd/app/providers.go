package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/ai-travelguide/internal/domain/planner"
	"github.com/yanqian/ai-travelguide/internal/domain/weather"
	"github.com/yanqian/ai-travelguide/internal/infra/config"
	"github.com/yanqian/ai-travelguide/internal/infra/inflight"
	"github.com/yanqian/ai-travelguide/internal/infra/llm/chatgpt"
	"github.com/yanqian/ai-travelguide/internal/infra/llm/gemini"
	"github.com/yanqian/ai-travelguide/internal/infra/weather/openweather"
	"github.com/yanqian/ai-travelguide/internal/interface/web"
	"github.com/yanqian/ai-travelguide/pkg/metrics"
)

func provideWeatherConfig(cfg *config.Config) weather.Config {
	return weather.Config{Units: cfg.Weather.Units}
}

func providePlannerConfig(cfg *config.Config) planner.Config {
	return planner.Config{
		ItineraryPrompt:   cfg.Planner.ItineraryPrompt,
		SuggestionsPrompt: cfg.Planner.SuggestionsPrompt,
	}
}

func provideWeatherClient(cfg *config.Config, recorder *metrics.Recorder) *openweather.Client {
	return openweather.NewClient(cfg.Weather.APIBaseURL, cfg.Weather.APIKey, cfg.Weather.Timeout, recorder)
}

func provideTextGenerator(cfg *config.Config, recorder *metrics.Recorder, logger *slog.Logger) (planner.TextGenerator, func(), error) {
	if cfg.LLM.Provider == config.ProviderOpenAI {
		client, err := chatgpt.NewClient(chatgpt.Options{
			APIKey:          cfg.LLM.APIKey,
			BaseURL:         cfg.LLM.BaseURL,
			Model:           cfg.LLM.Model,
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
			Timeout:         cfg.LLM.Timeout,
		}, recorder)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("text generator ready", "provider", config.ProviderOpenAI, "model", cfg.LLM.Model)
		return client, func() {}, nil
	}

	client, err := gemini.NewClient(context.Background(), gemini.Options{
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		Timeout:         cfg.LLM.Timeout,
	}, recorder)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("text generator ready", "provider", config.ProviderGemini, "model", cfg.LLM.Model)
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("closing gemini client failed", "error", err)
		}
	}
	return client, cleanup, nil
}

func provideGuard(cfg *config.Config, logger *slog.Logger) (web.Guard, func()) {
	fallback := inflight.NewMemoryGuard(cfg.InFlight.TTL)
	if !cfg.InFlight.Redis.Enabled {
		return fallback, func() {}
	}
	opt, err := buildValkeyOptions(cfg.InFlight.Redis.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory guard", "error", err)
		return fallback, func() {}
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory guard", "error", err)
		return fallback, func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory guard", "error", err)
		client.Close()
		return fallback, func() {}
	}
	logger.Info("valkey in-flight guard enabled", "addr", cfg.InFlight.Redis.Addr)
	return inflight.NewValkeyGuard(client, cfg.InFlight.Redis.Prefix, cfg.InFlight.TTL, logger), client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

// providePageClient is the client page controllers use to reach the API. It
// must outlive an itinerary generation.
func providePageClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.HTTP.WriteTimeout}
}

func providePages(cfg *config.Config, client *http.Client, guard web.Guard, recorder *metrics.Recorder, logger *slog.Logger) *web.Pages {
	return web.NewPages(cfg.Page, cfg.HTTP.Address, client, guard, recorder, logger)
}
