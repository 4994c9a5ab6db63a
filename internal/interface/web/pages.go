package web

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	ginrender "github.com/gin-gonic/gin/render"
	"github.com/google/uuid"

	"github.com/yanqian/ai-travelguide/internal/infra/config"
	"github.com/yanqian/ai-travelguide/internal/infra/guideapi"
	"github.com/yanqian/ai-travelguide/internal/interface/web/dom"
	"github.com/yanqian/ai-travelguide/pkg/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	actionItinerary   = "itinerary"
	actionSuggestions = "suggestions"
)

// APIFactory returns the backend client for a request's base URL, acting for
// the browser at clientIP.
type APIFactory func(baseURL, clientIP string) GuideAPI

// Pages serves the travel guide pages. Every request builds a fresh document,
// attaches the controllers, dispatches the user action and renders the result.
type Pages struct {
	cfg     config.PageConfig
	baseURL string
	newAPI  APIFactory
	guard   Guard
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// NewPages constructs the page handlers. Backend calls go to cfg.APIBaseURL,
// or to this server at listenAddr over loopback when that is empty. They use
// httpClient, or http.DefaultClient when it is nil.
func NewPages(cfg config.PageConfig, listenAddr string, httpClient *http.Client, guard Guard, recorder *metrics.Recorder, logger *slog.Logger) *Pages {
	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = loopbackURL(listenAddr)
	}
	return &Pages{
		cfg:     cfg,
		baseURL: baseURL,
		newAPI: func(baseURL, clientIP string) GuideAPI {
			return guideapi.NewClient(baseURL, httpClient).ForwardedFor(clientIP)
		},
		guard:   guard,
		metrics: recorder,
		logger:  logger.With("component", "web.pages"),
	}
}

// WithAPIFactory replaces how backend clients are built.
func (p *Pages) WithAPIFactory(f APIFactory) *Pages {
	p.newAPI = f
	return p
}

// Register mounts the page routes.
func (p *Pages) Register(r gin.IRoutes) {
	r.GET("/", p.Index)
	r.POST("/", p.SubmitItinerary)
	r.GET("/suggestions", p.Suggestions)
	r.POST("/suggestions", p.LoadSuggestions)
}

type pageView struct {
	doc    *dom.Document
	Notice string
}

// El is used by templates to read an element snapshot.
func (v pageView) El(id string) dom.Element {
	el, _ := v.doc.Element(id)
	return el
}

// Index renders the empty itinerary form.
func (p *Pages) Index(c *gin.Context) {
	p.ensureSession(c)
	p.render(c, http.StatusOK, "index.html", pageView{doc: newItineraryDocument()})
}

// SubmitItinerary handles the form post.
func (p *Pages) SubmitItinerary(c *gin.Context) {
	session := p.ensureSession(c)
	doc := newItineraryDocument()
	doc.SetValue(IDDestination, c.PostForm("destination"))
	doc.SetValue(IDDays, c.PostForm("days"))
	doc.SetValue(IDInterests, c.PostForm("interests"))

	view := pageView{doc: doc}
	status := http.StatusOK
	if err := p.dispatch(c, doc, session, IDItineraryForm, EventSubmit); err != nil {
		if !errors.Is(err, ErrSubmissionInFlight) {
			p.abort(c, actionItinerary, err)
			return
		}
		status = http.StatusConflict
		view.Notice = "Your previous request is still being prepared. Please wait."
		p.metrics.CountPageAction(actionItinerary, "rejected")
	} else {
		p.metrics.CountPageAction(actionItinerary, outcome(doc, IDItineraryOutput))
	}
	p.render(c, status, "index.html", view)
}

// Suggestions renders the suggestions page.
func (p *Pages) Suggestions(c *gin.Context) {
	p.ensureSession(c)
	p.render(c, http.StatusOK, "suggestions.html", pageView{doc: newSuggestionsDocument()})
}

// LoadSuggestions handles the suggestions button.
func (p *Pages) LoadSuggestions(c *gin.Context) {
	session := p.ensureSession(c)
	doc := newSuggestionsDocument()
	if err := p.dispatch(c, doc, session, IDLoadSuggestions, EventClick); err != nil {
		p.abort(c, actionSuggestions, err)
		return
	}
	p.metrics.CountPageAction(actionSuggestions, outcome(doc, IDSuggestionsOutput))
	p.render(c, http.StatusOK, "suggestions.html", pageView{doc: doc})
}

func (p *Pages) dispatch(c *gin.Context, doc *dom.Document, session, target, eventType string) error {
	api := p.newAPI(p.baseURL, c.ClientIP())
	detach := Init(doc,
		NewFormController(api, p.guard, p.logger),
		NewSuggestionsController(api, p.logger),
	)
	defer detach()

	ctx := WithSession(c.Request.Context(), session)
	_, err := doc.Dispatch(ctx, target, eventType)
	return err
}

func (p *Pages) abort(c *gin.Context, action string, err error) {
	p.metrics.CountPageAction(action, "error")
	p.logger.Error("page action failed", "action", action, "error", err)
	_ = c.Error(err)
	c.AbortWithStatus(http.StatusInternalServerError)
}

func (p *Pages) render(c *gin.Context, status int, name string, view pageView) {
	c.Render(status, ginrender.HTML{Template: pageTemplates, Name: name, Data: view})
}

// loopbackURL addresses the listener at addr from the same host. Wildcard
// and empty hosts become 127.0.0.1. The request Host header is never used.
func loopbackURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://127.0.0.1"
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func (p *Pages) ensureSession(c *gin.Context) string {
	if id, err := c.Cookie(p.cfg.SessionCookie); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(p.cfg.SessionCookie, id, 0, "/", "", false, true)
	return id
}

// outcome classifies what the controller left in the output area.
func outcome(doc *dom.Document, output string) string {
	switch doc.HTML(output) {
	case msgItineraryFailed, msgSuggestionsFailed:
		return "failed"
	case msgItineraryUnexpected, msgSuggestionsUnexpect:
		return "error"
	default:
		return "ok"
	}
}

func newItineraryDocument() *dom.Document {
	return dom.New(
		dom.Element{ID: IDItineraryForm},
		dom.Element{ID: IDDestination},
		dom.Element{ID: IDDays, Value: "3"},
		dom.Element{ID: IDInterests},
		dom.Element{ID: IDLoader, Hidden: true},
		dom.Element{ID: IDResults, Hidden: true},
		dom.Element{ID: IDWeatherInfo},
		dom.Element{ID: IDItineraryOutput},
	)
}

func newSuggestionsDocument() *dom.Document {
	return dom.New(
		dom.Element{ID: IDLoadSuggestions},
		dom.Element{ID: IDLoader, Hidden: true},
		dom.Element{ID: IDSuggestionsOutput},
	)
}
