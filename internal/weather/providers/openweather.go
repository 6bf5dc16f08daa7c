package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/i474232898/agro-weather/internal/common"
	"github.com/i474232898/agro-weather/internal/weather"
)

const (
	defaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultOpenWeatherGeoURL  = "https://api.openweathermap.org/geo/1.0/direct"
	searchLimit               = 5
)

// OpenWeatherProvider implements weather.Source and weather.Locator for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	geoURL  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// OpenWeatherOption customizes an OpenWeatherProvider.
type OpenWeatherOption func(*OpenWeatherProvider)

// WithBaseURL overrides the data API root (e.g. for tests).
func WithBaseURL(u string) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithGeoURL overrides the geocoding endpoint.
func WithGeoURL(u string) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		if u != "" {
			p.geoURL = u
		}
	}
}

// WithHTTPConfig replaces the HTTP client and resilience settings.
func WithHTTPConfig(cfg HTTPClientConfig) OpenWeatherOption {
	return func(p *OpenWeatherProvider) {
		p.httpCfg = cfg
	}
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...OpenWeatherOption) *OpenWeatherProvider {
	p := &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: defaultOpenWeatherBaseURL,
		geoURL:  defaultOpenWeatherGeoURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("openweather"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	TempMin   *float64 `json:"temp_min"`
	TempMax   *float64 `json:"temp_max"`
	Humidity  *float64 `json:"humidity"`
	Pressure  *float64 `json:"pressure"`
}

type owmWind struct {
	Speed *float64 `json:"speed"`
	Deg   *float64 `json:"deg"`
}

type owmRain struct {
	OneH   *float64 `json:"1h"`
	ThreeH *float64 `json:"3h"`
}

type owmCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmCurrent struct {
	Dt         int64          `json:"dt"`
	Name       string         `json:"name"`
	Main       *owmMain       `json:"main"`
	Wind       *owmWind       `json:"wind"`
	Rain       *owmRain       `json:"rain"`
	Visibility *float64       `json:"visibility"`
	Weather    []owmCondition `json:"weather"`
	Clouds     *struct {
		All *float64 `json:"all"`
	} `json:"clouds"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

type owmForecast struct {
	List []struct {
		Dt      int64          `json:"dt"`
		Main    owmMain        `json:"main"`
		Wind    *owmWind       `json:"wind"`
		Rain    *owmRain       `json:"rain"`
		Weather []owmCondition `json:"weather"`
	} `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
		Coord   struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
	} `json:"city"`
}

type owmPlace struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// FetchCurrent returns the current observation at lat/lon.
func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, lat, lon float64) (weather.RawObservation, error) {
	var payload owmCurrent
	if err := p.get(ctx, p.baseURL+"/weather", p.coordValues(lat, lon), &payload); err != nil {
		return weather.RawObservation{}, err
	}

	obs := weather.RawObservation{
		Name:       payload.Name,
		Country:    payload.Sys.Country,
		Visibility: payload.Visibility,
		Conditions: mapConditions(payload.Weather),
	}
	if payload.Dt != 0 {
		obs.ObservedAt = time.Unix(payload.Dt, 0).UTC()
	}
	if payload.Sys.Sunrise != 0 {
		obs.Sunrise = time.Unix(payload.Sys.Sunrise, 0).UTC()
	}
	if payload.Sys.Sunset != 0 {
		obs.Sunset = time.Unix(payload.Sys.Sunset, 0).UTC()
	}
	if m := payload.Main; m != nil {
		obs.Main = &weather.MainBlock{
			Temp:      m.Temp,
			FeelsLike: m.FeelsLike,
			TempMin:   m.TempMin,
			TempMax:   m.TempMax,
			Humidity:  m.Humidity,
			Pressure:  m.Pressure,
		}
	}
	if w := payload.Wind; w != nil {
		obs.WindSpeed = w.Speed
		obs.WindDeg = w.Deg
	}
	if r := payload.Rain; r != nil {
		obs.Rain1h = r.OneH
		obs.Rain3h = r.ThreeH
	}
	if c := payload.Clouds; c != nil {
		obs.Clouds = c.All
	}
	return obs, nil
}

// FetchForecast returns the 5-day / 3-hour forecast at lat/lon.
func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, lat, lon float64) (weather.RawForecast, error) {
	var payload owmForecast
	if err := p.get(ctx, p.baseURL+"/forecast", p.coordValues(lat, lon), &payload); err != nil {
		return weather.RawForecast{}, err
	}

	fc := weather.RawForecast{
		Place: weather.Place{
			Name:    payload.City.Name,
			Country: payload.City.Country,
			Lat:     payload.City.Coord.Lat,
			Lon:     payload.City.Coord.Lon,
		},
		Samples: make([]weather.RawForecastSample, 0, len(payload.List)),
	}
	for _, item := range payload.List {
		s := weather.RawForecastSample{
			Time:     time.Unix(item.Dt, 0).UTC(),
			Temp:     common.FloatOr(item.Main.Temp, 0),
			TempMin:  common.FloatOr(item.Main.TempMin, 0),
			TempMax:  common.FloatOr(item.Main.TempMax, 0),
			Humidity: item.Main.Humidity,
		}
		if item.Wind != nil {
			s.WindSpeed = item.Wind.Speed
		}
		if item.Rain != nil {
			s.Rain3h = item.Rain.ThreeH
		}
		if conds := mapConditions(item.Weather); len(conds) > 0 {
			s.Condition = conds[0]
		}
		fc.Samples = append(fc.Samples, s)
	}
	return fc, nil
}

// SearchLocation resolves a query through the OpenWeatherMap geocoding API.
func (p *OpenWeatherProvider) SearchLocation(ctx context.Context, query string) ([]weather.Place, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", strconv.Itoa(searchLimit))

	var payload []owmPlace
	if err := p.get(ctx, p.geoURL, values, &payload); err != nil {
		return nil, err
	}

	places := make([]weather.Place, 0, len(payload))
	for _, l := range payload {
		places = append(places, weather.Place{
			Name:        l.Name,
			Country:     l.Country,
			State:       l.State,
			Lat:         l.Lat,
			Lon:         l.Lon,
			DisplayName: common.JoinNonEmpty(", ", l.Name, l.State, l.Country),
		})
	}
	return places, nil
}

func (p *OpenWeatherProvider) coordValues(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("units", "metric")
	return values
}

func (p *OpenWeatherProvider) get(ctx context.Context, endpoint string, values url.Values, out interface{}) error {
	if p.apiKey == "" {
		return weather.ErrConfigurationMissing
	}

	buildRequest := func() (*http.Request, error) {
		q := url.Values{}
		for k, v := range values {
			q[k] = v
		}
		q.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s?%s", endpoint, q.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", p.name, err)
	}
	return nil
}

func mapConditions(items []owmCondition) []weather.Condition {
	out := make([]weather.Condition, 0, len(items))
	for _, c := range items {
		out = append(out, weather.Condition{
			ID:          c.ID,
			Main:        c.Main,
			Description: c.Description,
			Icon:        c.Icon,
		})
	}
	return out
}

var (
	_ weather.Source  = (*OpenWeatherProvider)(nil)
	_ weather.Locator = (*OpenWeatherProvider)(nil)
)
