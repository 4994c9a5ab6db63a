package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/ai-travelguide/internal/domain/planner"
	"github.com/yanqian/ai-travelguide/internal/domain/weather"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	weatherSvc weather.Service
	plannerSvc planner.Service
	logger     *slog.Logger
}

// NewHandler constructs the API handler.
func NewHandler(weatherSvc weather.Service, plannerSvc planner.Service, logger *slog.Logger) *Handler {
	return &Handler{
		weatherSvc: weatherSvc,
		plannerSvc: plannerSvc,
		logger:     logger.With("component", "http.handler"),
	}
}

// GetWeather relays the current conditions for ?city= as returned upstream.
func (h *Handler) GetWeather(c *gin.Context) {
	body, err := h.weatherSvc.Lookup(c.Request.Context(), c.Query("city"))
	if err != nil {
		abortWithError(c, fromDomainError(err, "weather_failed"))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// GenerateItinerary returns a markdown itinerary for the posted trip.
func (h *Handler) GenerateItinerary(c *gin.Context) {
	var req planner.ItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.plannerSvc.GenerateItinerary(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "itinerary_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SuggestTrips returns markdown trip suggestions.
func (h *Handler) SuggestTrips(c *gin.Context) {
	resp, err := h.plannerSvc.SuggestTrips(c.Request.Context())
	if err != nil {
		abortWithError(c, fromDomainError(err, "suggestions_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
