package render

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/yanqian/ai-travelguide/internal/domain/weather"
)

// WeatherUnavailable is shown for payloads missing a required field.
const WeatherUnavailable template.HTML = `<p>Weather data unavailable.</p>`

const iconBaseURL = "https://openweathermap.org/img/wn/"

var weatherTmpl = template.Must(template.New("weather").Parse(
	`<strong>Current weather in {{.Name}}:</strong> {{.Temperature}}°C, {{.Description}}. ` +
		`<img src="{{.IconURL}}" alt="weather icon" style="vertical-align: middle; width: 40px;">`))

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Weather renders the summary line for a payload.
func Weather(p weather.Payload) template.HTML {
	complete, ok := p.Report().(weather.Complete)
	if !ok {
		return WeatherUnavailable
	}
	var buf bytes.Buffer
	err := weatherTmpl.Execute(&buf, struct {
		weather.Complete
		IconURL string
	}{
		Complete: complete,
		IconURL:  iconBaseURL + complete.Icon + ".png",
	})
	if err != nil {
		return WeatherUnavailable
	}
	return template.HTML(buf.String())
}

// Markdown converts markdown source to HTML. Raw HTML in the source is omitted.
func Markdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}
