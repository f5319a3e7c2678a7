package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/jonwraymond/queryops/intent"
	"github.com/jonwraymond/queryops/query"
)

// wmoCodes maps WMO weather interpretation codes to phrases.
var wmoCodes = map[int]string{
	0:  "Clear",
	1:  "Mostly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Fog",
	51: "Light drizzle",
	53: "Drizzle",
	55: "Heavy drizzle",
	61: "Light rain",
	63: "Rain",
	65: "Heavy rain",
	71: "Light snow",
	73: "Snow",
	75: "Heavy snow",
	80: "Rain showers",
	81: "Showers",
	82: "Heavy showers",
	95: "Thunderstorm",
}

// WeatherPhrase returns the phrase for a WMO code, or "Forecast".
func WeatherPhrase(code int) string {
	if p, ok := wmoCodes[code]; ok {
		return p
	}
	return "Forecast"
}

// Weather answers forecast questions from Open-Meteo, falling back to
// wttr.in when Open-Meteo fails or has no match.
type Weather struct {
	fetch    Fetcher
	geocode  string
	forecast string
	wttr     string
}

// NewWeather creates the weather provider.
func NewWeather(opts Options) *Weather {
	opts = opts.withDefaults()
	return &Weather{
		fetch:    opts.Fetcher,
		geocode:  opts.Endpoints.OpenMeteoGeocode,
		forecast: opts.Endpoints.OpenMeteoForecast,
		wttr:     opts.Endpoints.Wttr,
	}
}

func (w *Weather) Name() string       { return "weather" }
func (w *Weather) Tags() []intent.Tag { return []intent.Tag{intent.Weather} }
func (w *Weather) TTL() time.Duration { return 30 * time.Minute }
func (w *Weather) Host() string       { return hostOf(w.forecast) }

// Resolve extracts a location and reports tomorrow's forecast, or today's
// when only one day is available.
func (w *Weather) Resolve(ctx context.Context, q query.Query) (string, error) {
	loc := ExtractLocation(q.Normalized)
	if loc == "" {
		return "", validationErr(w.Name(), "no location in query")
	}

	answer, primaryErr := w.openMeteo(ctx, loc)
	if primaryErr == nil && answer != "" {
		return answer, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	answer, secondaryErr := w.wttrIn(ctx, loc)
	if secondaryErr == nil && answer != "" {
		return answer, nil
	}
	return "", errors.Join(primaryErr, secondaryErr)
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Daily struct {
		Time        []string   `json:"time"`
		Max         []*float64 `json:"temperature_2m_max"`
		Min         []*float64 `json:"temperature_2m_min"`
		RainChance  []*float64 `json:"precipitation_probability_max"`
		WeatherCode []*int     `json:"weathercode"`
	} `json:"daily"`
}

func (w *Weather) openMeteo(ctx context.Context, loc string) (string, error) {
	var geo geocodeResponse
	err := w.fetch.FetchJSON(ctx, w.geocode, url.Values{
		"name":     {loc},
		"count":    {"1"},
		"language": {"en"},
		"format":   {"json"},
	}, 0, &geo)
	if err != nil {
		return "", err
	}
	if len(geo.Results) == 0 {
		return "", nil
	}
	place := geo.Results[0]
	name := strings.Trim(strings.TrimSpace(place.Name+", "+place.Country), ", ")

	var fc forecastResponse
	err = w.fetch.FetchJSON(ctx, w.forecast, url.Values{
		"latitude":  {number(place.Latitude)},
		"longitude": {number(place.Longitude)},
		"daily":     {"temperature_2m_max,temperature_2m_min,precipitation_probability_max,weathercode"},
		"timezone":  {"auto"},
	}, 0, &fc)
	if err != nil {
		return "", err
	}

	d := fc.Daily
	idx := 0
	if len(d.Time) > 1 {
		idx = 1
	}
	if len(d.Time) == 0 || len(d.Max) <= idx || len(d.Min) <= idx || d.Max[idx] == nil || d.Min[idx] == nil {
		return "", parseErr(w.Name(), "forecast has no temperatures", nil)
	}

	phrase := "Forecast"
	if len(d.WeatherCode) > idx && d.WeatherCode[idx] != nil {
		phrase = WeatherPhrase(*d.WeatherCode[idx])
	}

	answer := fmt.Sprintf("%s: %s. High %s°C, low %s°C", name, phrase, number(*d.Max[idx]), number(*d.Min[idx]))
	if len(d.RainChance) > idx && d.RainChance[idx] != nil {
		answer += fmt.Sprintf(", rain chance %s%%", number(*d.RainChance[idx]))
	}
	return answer, nil
}

type wttrResponse struct {
	Weather []struct {
		MaxTempC string `json:"maxtempC"`
		MinTempC string `json:"mintempC"`
		Hourly   []struct {
			WeatherDesc []struct {
				Value string `json:"value"`
			} `json:"weatherDesc"`
		} `json:"hourly"`
	} `json:"weather"`
}

func (w *Weather) wttrIn(ctx context.Context, loc string) (string, error) {
	var resp wttrResponse
	endpoint := strings.TrimRight(w.wttr, "/") + "/" + url.PathEscape(loc)
	if err := w.fetch.FetchJSON(ctx, endpoint, url.Values{"format": {"j1"}}, 0, &resp); err != nil {
		return "", err
	}
	if len(resp.Weather) == 0 {
		return "", nil
	}

	idx := 0
	if len(resp.Weather) > 1 {
		idx = 1
	}
	day := resp.Weather[idx]
	if day.MaxTempC == "" || day.MinTempC == "" {
		return "", parseErr(w.Name(), "wttr day has no temperatures", nil)
	}

	desc := ""
	if n := len(day.Hourly); n > 0 {
		if descs := day.Hourly[n/2].WeatherDesc; len(descs) > 0 {
			desc = strings.TrimSpace(descs[0].Value)
		}
	}
	if desc == "" {
		desc = "Forecast available"
	}
	return fmt.Sprintf("%s: %s. High %s°C, low %s°C", titleCase(loc), desc, day.MaxTempC, day.MinTempC), nil
}

var (
	locationPrepositions = map[string]bool{"in": true, "at": true, "for": true}

	// trailingTimeWords are dropped from the end before locating the place.
	trailingTimeWords = map[string]bool{
		"today": true, "tomorrow": true, "tonight": true, "now": true,
		"please": true, "weekend": true, "week": true, "this": true, "next": true,
	}

	// weatherWords never name a place.
	weatherWords = map[string]bool{
		"weather": true, "wheather": true, "wheater": true, "temperature": true,
		"forecast": true, "meteo": true, "hot": true, "cold": true, "rain": true,
		"sunny": true, "snow": true, "how": true, "what": true, "what's": true,
		"whats": true, "is": true, "the": true, "will": true, "it": true, "be": true,
		"going": true, "to": true, "like": true,
	}
)

// ExtractLocation finds the place named in a weather question. It prefers
// the words after the last "in", "at" or "for" and otherwise takes the last
// three words that are not weather vocabulary.
func ExtractLocation(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})
	for len(words) > 0 && trailingTimeWords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}

	for i := len(words) - 2; i >= 0; i-- {
		if !locationPrepositions[strings.ToLower(words[i])] {
			continue
		}
		if place := words[i+1:]; allLetters(place) {
			return strings.Join(place, " ")
		}
		break
	}

	var kept []string
	for _, word := range words {
		if !weatherWords[strings.ToLower(word)] && !locationPrepositions[strings.ToLower(word)] {
			kept = append(kept, word)
		}
	}
	if len(kept) > 3 {
		kept = kept[len(kept)-3:]
	}
	return strings.Join(kept, " ")
}

func allLetters(words []string) bool {
	for _, w := range words {
		for _, r := range w {
			if !unicode.IsLetter(r) && r != '-' && r != '\'' {
				return false
			}
		}
	}
	return len(words) > 0
}
