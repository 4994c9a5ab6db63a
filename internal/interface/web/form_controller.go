package web

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/ai-travelguide/internal/domain/weather"
	"github.com/yanqian/ai-travelguide/internal/infra/guideapi"
	"github.com/yanqian/ai-travelguide/internal/interface/web/dom"
	"github.com/yanqian/ai-travelguide/internal/interface/web/render"
)

// FormController drives the itinerary form: weather and itinerary are
// requested together and rendered into their own areas.
type FormController struct {
	api    GuideAPI
	guard  Guard
	logger *slog.Logger
}

// NewFormController builds the controller. guard may be nil.
func NewFormController(api GuideAPI, guard Guard, logger *slog.Logger) *FormController {
	return &FormController{
		api:    api,
		guard:  guard,
		logger: logger.With("component", "web.form"),
	}
}

// Attach implements Controller.
func (f *FormController) Attach(doc *dom.Document) (func(), bool) {
	if !doc.Has(IDItineraryForm) {
		return func() {}, false
	}
	off := doc.On(IDItineraryForm, EventSubmit, func(ctx context.Context, ev *dom.Event) error {
		ev.PreventDefault()
		return f.submit(ctx, doc)
	})
	return off, true
}

func (f *FormController) submit(ctx context.Context, doc *dom.Document) error {
	req := guideapi.ItineraryRequest{
		Destination: strings.TrimSpace(doc.Value(IDDestination)),
		Days:        doc.Value(IDDays),
		Interests:   strings.TrimSpace(doc.Value(IDInterests)),
	}

	release, err := f.claim(ctx)
	if err != nil {
		return err
	}
	defer release()

	done := beginLoading(doc, IDResults)
	defer done()
	doc.SetHTML(IDWeatherInfo, "")
	doc.SetHTML(IDItineraryOutput, "")

	if err := f.fetchAndRender(ctx, doc, req); err != nil {
		f.logger.Error("itinerary submission failed", "destination", req.Destination, "error", err)
		doc.SetHTML(IDItineraryOutput, msgItineraryUnexpected)
	}
	return nil
}

// claim takes the in-flight guard for the page session. A guard backend
// failure is logged and the submission proceeds unguarded.
func (f *FormController) claim(ctx context.Context) (func(), error) {
	session, ok := SessionFrom(ctx)
	if f.guard == nil || !ok {
		return func() {}, nil
	}
	release, acquired, err := f.guard.Acquire(ctx, "itinerary:"+session)
	if err != nil {
		f.logger.Warn("in-flight guard unavailable", "error", err)
		return func() {}, nil
	}
	if !acquired {
		f.logger.Warn("submission rejected while another is pending", "session", session)
		return nil, ErrSubmissionInFlight
	}
	return release, nil
}

// fetchAndRender waits for both calls before touching the document. Any
// transport or decode error is returned once.
func (f *FormController) fetchAndRender(ctx context.Context, doc *dom.Document, req guideapi.ItineraryRequest) error {
	var (
		weatherResp   *guideapi.Response
		itineraryResp *guideapi.Response
		g             errgroup.Group
	)
	g.Go(func() error {
		resp, err := f.api.GetWeather(ctx, req.Destination)
		weatherResp = resp
		return err
	})
	g.Go(func() error {
		resp, err := f.api.GenerateItinerary(ctx, req)
		itineraryResp = resp
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if weatherResp.OK() {
		var payload weather.Payload
		if err := weatherResp.Decode(&payload); err != nil {
			return err
		}
		doc.SetHTML(IDWeatherInfo, render.Weather(payload))
	} else {
		doc.SetHTML(IDWeatherInfo, msgWeatherFailed)
	}

	if itineraryResp.OK() {
		var body struct {
			Itinerary string `json:"itinerary"`
		}
		if err := itineraryResp.Decode(&body); err != nil {
			return err
		}
		doc.SetHTML(IDItineraryOutput, render.Markdown(body.Itinerary))
	} else {
		doc.SetHTML(IDItineraryOutput, msgItineraryFailed)
	}
	return nil
}
