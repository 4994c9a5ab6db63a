package web

import (
	"context"
	"log/slog"

	"github.com/yanqian/ai-travelguide/internal/interface/web/dom"
	"github.com/yanqian/ai-travelguide/internal/interface/web/render"
)

// SuggestionsController loads trip suggestions when the button is pressed.
type SuggestionsController struct {
	api    GuideAPI
	logger *slog.Logger
}

// NewSuggestionsController builds the controller.
func NewSuggestionsController(api GuideAPI, logger *slog.Logger) *SuggestionsController {
	return &SuggestionsController{api: api, logger: logger.With("component", "web.suggestions")}
}

// Attach implements Controller.
func (s *SuggestionsController) Attach(doc *dom.Document) (func(), bool) {
	if !doc.Has(IDLoadSuggestions) {
		return func() {}, false
	}
	off := doc.On(IDLoadSuggestions, EventClick, func(ctx context.Context, _ *dom.Event) error {
		s.load(ctx, doc)
		return nil
	})
	return off, true
}

func (s *SuggestionsController) load(ctx context.Context, doc *dom.Document) {
	done := beginLoading(doc, "")
	defer done()
	doc.SetHTML(IDSuggestionsOutput, "")

	resp, err := s.api.SuggestTrips(ctx)
	if err != nil {
		s.logger.Error("suggestions request failed", "error", err)
		doc.SetHTML(IDSuggestionsOutput, msgSuggestionsUnexpect)
		return
	}
	if !resp.OK() {
		doc.SetHTML(IDSuggestionsOutput, msgSuggestionsFailed)
		return
	}

	var body struct {
		Suggestions string `json:"suggestions"`
	}
	if err := resp.Decode(&body); err != nil {
		s.logger.Error("suggestions response malformed", "error", err)
		doc.SetHTML(IDSuggestionsOutput, msgSuggestionsUnexpect)
		return
	}
	doc.SetHTML(IDSuggestionsOutput, render.Markdown(body.Suggestions))
}
