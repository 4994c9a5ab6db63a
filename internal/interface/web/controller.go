package web

import (
	"context"
	"errors"
	"html/template"
	"sync"

	"github.com/yanqian/ai-travelguide/internal/infra/guideapi"
	"github.com/yanqian/ai-travelguide/internal/interface/web/dom"
)

// Element ids the controllers bind to. Any of them may be absent from a page.
const (
	IDItineraryForm     = "itinerary-form"
	IDDestination       = "destination"
	IDDays              = "days"
	IDInterests         = "interests"
	IDLoader            = "loader"
	IDResults           = "results"
	IDWeatherInfo       = "weather-info"
	IDItineraryOutput   = "itinerary-output"
	IDLoadSuggestions   = "load-suggestions-btn"
	IDSuggestionsOutput = "suggestions-output"
)

// Event types dispatched by the page handlers.
const (
	EventSubmit = "submit"
	EventClick  = "click"
)

// Fixed user facing messages.
const (
	msgWeatherFailed       template.HTML = `<p>Could not fetch weather data.</p>`
	msgItineraryFailed     template.HTML = `<p>Error generating itinerary. Please try again.</p>`
	msgItineraryUnexpected template.HTML = `<p>An unexpected error occurred. Please check the server logs.</p>`
	msgSuggestionsFailed   template.HTML = `<p>Error fetching suggestions. Please try again.</p>`
	msgSuggestionsUnexpect template.HTML = `<p>An unexpected error occurred.</p>`
)

// ErrSubmissionInFlight rejects a submission while an earlier one for the same
// session is still pending.
var ErrSubmissionInFlight = errors.New("a submission is already in progress")

// GuideAPI is the backend surface the controllers call.
type GuideAPI interface {
	GetWeather(ctx context.Context, city string) (*guideapi.Response, error)
	GenerateItinerary(ctx context.Context, req guideapi.ItineraryRequest) (*guideapi.Response, error)
	SuggestTrips(ctx context.Context) (*guideapi.Response, error)
}

// Guard claims a key for the duration of one submission.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// Controller binds to a document. attached is false when the controller's
// target element is not on the page.
type Controller interface {
	Attach(doc *dom.Document) (detach func(), attached bool)
}

// Init attaches every controller whose target exists and returns a single
// detach for all of them.
func Init(doc *dom.Document, controllers ...Controller) (detach func()) {
	var detachers []func()
	for _, c := range controllers {
		if off, ok := c.Attach(doc); ok {
			detachers = append(detachers, off)
		}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			for _, off := range detachers {
				off()
			}
		})
	}
}

// beginLoading shows the loader and hides reveal (if any). The returned
// release hides the loader and shows reveal; only its first call has effect.
func beginLoading(doc *dom.Document, reveal string) (release func()) {
	doc.Show(IDLoader)
	if reveal != "" {
		doc.Hide(reveal)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			doc.Hide(IDLoader)
			if reveal != "" {
				doc.Show(reveal)
			}
		})
	}
}

type sessionKey struct{}

// WithSession scopes ctx to a page session id used by the in-flight guard.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFrom returns the page session id stored by WithSession.
func SessionFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}
