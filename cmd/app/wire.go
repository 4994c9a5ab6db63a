//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/ai-travelguide/internal/bootstrap"
	"github.com/yanqian/ai-travelguide/internal/domain/planner"
	"github.com/yanqian/ai-travelguide/internal/domain/weather"
	"github.com/yanqian/ai-travelguide/internal/infra/config"
	"github.com/yanqian/ai-travelguide/internal/infra/weather/openweather"
	httpiface "github.com/yanqian/ai-travelguide/internal/interface/http"
	"github.com/yanqian/ai-travelguide/pkg/logger"
	"github.com/yanqian/ai-travelguide/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.New,
		provideWeatherConfig,
		providePlannerConfig,
		provideWeatherClient,
		provideTextGenerator,
		provideGuard,
		providePageClient,
		providePages,
		weather.NewService,
		planner.NewService,
		wire.Bind(new(weather.Client), new(*openweather.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
