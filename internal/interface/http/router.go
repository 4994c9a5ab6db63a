package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/ai-travelguide/internal/infra/config"
	"github.com/yanqian/ai-travelguide/internal/interface/web"
	"github.com/yanqian/ai-travelguide/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, pages *web.Pages, recorder *metrics.Recorder, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With("component", "http.router")

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		logger.Error("invalid trusted proxies, trusting none", "proxies", cfg.HTTP.TrustedProxies, "error", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		gin.Recovery(),
		requestLogger(logger, recorder),
		corsMiddleware(cfg.HTTP.CORSOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/health", handler.Health)
	router.GET("/metrics", gin.WrapH(recorder.Handler()))

	limited := router.Group("/", rateLimitMiddleware(cfg.HTTP.RateLimit, logger))
	{
		limited.GET("/get-weather", handler.GetWeather)
		limited.POST("/generate-itinerary", handler.GenerateItinerary)
		limited.GET("/suggest-trips", handler.SuggestTrips)
	}
	pages.Register(router)

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
