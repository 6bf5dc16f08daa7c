package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/agro-weather/internal/weather"
)

const currentPayload = `{
  "dt": 1714564800,
  "name": "Ames",
  "main": {"temp": 21.4, "feels_like": 20.9, "temp_min": 19, "temp_max": 23, "humidity": 55, "pressure": 1012},
  "wind": {"speed": 4.2, "deg": 250},
  "rain": {"1h": 0.4},
  "clouds": {"all": 40},
  "visibility": 10000,
  "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
  "sys": {"country": "US", "sunrise": 1714561200, "sunset": 1714611600}
}`

const forecastPayload = `{
  "list": [
    {"dt": 1714564800, "main": {"temp": 12, "temp_min": 10, "temp_max": 14, "humidity": 70},
     "wind": {"speed": 3}, "rain": {"3h": 1.2},
     "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}]},
    {"dt": 1714575600, "main": {"temp": 15, "temp_min": 13, "temp_max": 17}}
  ],
  "city": {"name": "Ames", "country": "US", "coord": {"lat": 42.03, "lon": -93.62}}
}`

const searchPayload = `[
  {"name": "Springfield", "state": "Illinois", "country": "US", "lat": 39.8, "lon": -89.6},
  {"name": "Springfield", "country": "AU", "lat": -33.3, "lon": 151.2}
]`

func newTestProvider(t *testing.T, handler http.HandlerFunc, apiKey string) *OpenWeatherProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenWeatherProvider(srv.Client(), apiKey,
		WithBaseURL(srv.URL),
		WithGeoURL(srv.URL+"/geo"),
		WithHTTPConfig(HTTPClientConfig{
			Client:  srv.Client(),
			Backoff: BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond},
		}),
	)
}

func TestOpenWeatherFetchCurrent(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" {
			t.Errorf("path = %q, want /weather", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("appid") != "secret" || q.Get("units") != "metric" || q.Get("lat") != "42.03" || q.Get("lon") != "-93.62" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Write([]byte(currentPayload))
	}, "secret")

	obs, err := p.FetchCurrent(context.Background(), 42.03, -93.62)
	if err != nil {
		t.Fatalf("FetchCurrent: %v", err)
	}

	if obs.Name != "Ames" || obs.Country != "US" {
		t.Errorf("name/country = %q/%q", obs.Name, obs.Country)
	}
	if obs.Main == nil || *obs.Main.Temp != 21.4 || *obs.Main.Humidity != 55 {
		t.Fatalf("main = %+v", obs.Main)
	}
	if *obs.WindSpeed != 4.2 || *obs.WindDeg != 250 || *obs.Clouds != 40 || *obs.Visibility != 10000 {
		t.Errorf("wind/clouds/visibility not decoded")
	}
	if obs.Rain3h != nil || obs.HourlyPrecip() != 0.4 {
		t.Errorf("precip = %v, want 0.4 from the 1h value", obs.HourlyPrecip())
	}
	if c, ok := obs.PrimaryCondition(); !ok || c.Description != "light rain" {
		t.Errorf("condition = %+v", c)
	}
	if !obs.ObservedAt.Equal(time.Unix(1714564800, 0)) || obs.Sunrise.Unix() != 1714561200 {
		t.Errorf("timestamps = %v / %v", obs.ObservedAt, obs.Sunrise)
	}
}

func TestOpenWeatherFetchForecast(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast" {
			t.Errorf("path = %q, want /forecast", r.URL.Path)
		}
		w.Write([]byte(forecastPayload))
	}, "secret")

	fc, err := p.FetchForecast(context.Background(), 42.03, -93.62)
	if err != nil {
		t.Fatalf("FetchForecast: %v", err)
	}

	if fc.Place.Name != "Ames" || fc.Place.Lat != 42.03 {
		t.Errorf("place = %+v", fc.Place)
	}
	if len(fc.Samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(fc.Samples))
	}
	first, second := fc.Samples[0], fc.Samples[1]
	if first.TempMin != 10 || first.TempMax != 14 || *first.Humidity != 70 || *first.WindSpeed != 3 || *first.Rain3h != 1.2 {
		t.Errorf("first sample = %+v", first)
	}
	if first.Condition.Icon != "10d" {
		t.Errorf("first condition = %+v", first.Condition)
	}
	if second.Humidity != nil || second.WindSpeed != nil || second.Rain3h != nil {
		t.Errorf("missing fields must stay nil: %+v", second)
	}
}

func TestOpenWeatherSearchLocation(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geo" || r.URL.Query().Get("q") != "springfield" || r.URL.Query().Get("limit") != "5" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(searchPayload))
	}, "secret")

	places, err := p.SearchLocation(context.Background(), "springfield")
	if err != nil {
		t.Fatalf("SearchLocation: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("got %d places, want 2", len(places))
	}
	if places[0].DisplayName != "Springfield, Illinois, US" {
		t.Errorf("display name = %q", places[0].DisplayName)
	}
	if places[1].DisplayName != "Springfield, AU" {
		t.Errorf("display name without state = %q", places[1].DisplayName)
	}
}

func TestOpenWeatherMissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}, "")

	if _, err := p.FetchCurrent(context.Background(), 0, 0); !errors.Is(err, weather.ErrConfigurationMissing) {
		t.Fatalf("err = %v, want ErrConfigurationMissing", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("upstream called %d times without a key", calls.Load())
	}
}

func TestOpenWeatherErrorTranslation(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		sentinel error
		code     int
	}{
		{"not found", http.StatusNotFound, weather.ErrLocationNotFound, 0},
		{"unauthorized", http.StatusUnauthorized, weather.ErrUpstream, http.StatusUnauthorized},
		{"bad request", http.StatusBadRequest, weather.ErrUpstream, http.StatusBadRequest},
		{"server error", http.StatusInternalServerError, weather.ErrUpstream, http.StatusInternalServerError},
		{"rate limited", http.StatusTooManyRequests, weather.ErrUpstream, http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}, "secret")

			_, err := p.FetchForecast(context.Background(), 0, 0)
			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("err = %v, want %v", err, tc.sentinel)
			}
			if tc.code == 0 {
				return
			}
			var ue *weather.UpstreamError
			if !errors.As(err, &ue) || ue.StatusCode != tc.code {
				t.Fatalf("err = %#v, want UpstreamError %d", err, tc.code)
			}
		})
	}
}

func TestOpenWeatherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(forecastPayload))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret",
		WithBaseURL(srv.URL),
		WithHTTPConfig(HTTPClientConfig{
			Client:  srv.Client(),
			Backoff: BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond},
		}),
	)

	fc, err := p.FetchForecast(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("FetchForecast: %v", err)
	}
	if len(fc.Samples) != 2 || calls.Load() != 3 {
		t.Fatalf("samples=%d calls=%d, want 2 samples after 3 calls", len(fc.Samples), calls.Load())
	}
}

func TestOpenWeatherTimeout(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, "secret")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := p.FetchCurrent(ctx, 0, 0); !errors.Is(err, weather.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestOpenWeatherDoesNotRetryClientTimeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	client := srv.Client()
	client.Timeout = 30 * time.Millisecond
	p := NewOpenWeatherProvider(client, "secret",
		WithBaseURL(srv.URL),
		WithHTTPConfig(HTTPClientConfig{
			Client:  client,
			Backoff: BackoffConfig{MaxRetries: 3, InitialInterval: time.Millisecond},
		}),
	)

	if _, err := p.FetchForecast(context.Background(), 0, 0); !errors.Is(err, weather.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("upstream called %d times, want a single attempt", calls.Load())
	}
}
