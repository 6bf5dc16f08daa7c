package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/agro-weather/internal/store"
	"github.com/i474232898/agro-weather/internal/weather"
)

type stubSource struct {
	obs weather.RawObservation
	fc  weather.RawForecast
	err error
}

func (s stubSource) Name() string { return "stub" }

func (s stubSource) FetchCurrent(ctx context.Context, lat, lon float64) (weather.RawObservation, error) {
	return s.obs, s.err
}

func (s stubSource) FetchForecast(ctx context.Context, lat, lon float64) (weather.RawForecast, error) {
	return s.fc, s.err
}

type stubLocator []weather.Place

func (s stubLocator) SearchLocation(ctx context.Context, query string) ([]weather.Place, error) {
	return s, nil
}

func ptr(v float64) *float64 { return &v }

func sampleSource() stubSource {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]weather.RawForecastSample, 0, 16)
	for i := 0; i < 16; i++ {
		samples = append(samples, weather.RawForecastSample{
			Time:     start.Add(time.Duration(i) * 3 * time.Hour),
			TempMin:  float64(i),
			TempMax:  float64(i) + 10,
			Humidity: ptr(60),
		})
	}
	return stubSource{
		obs: weather.RawObservation{
			Name: "Ames",
			Main: &weather.MainBlock{Temp: ptr(20), Humidity: ptr(55)},
		},
		fc: weather.RawForecast{Place: weather.Place{Name: "Ames", Country: "US"}, Samples: samples},
	}
}

func newTestApp(src weather.Source, st weather.Store) *fiber.App {
	svc := weather.NewService(src, stubLocator{{Name: "Ames", Country: "US"}}, st, nil)
	return NewApp(svc)
}

func doGet(t *testing.T, app *fiber.App, target string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp.StatusCode, body
}

// TestForecastDaysValidation verifies that the forecast endpoint enforces the
// expected 1-7 range for the `days` query parameter.
func TestForecastDaysValidation(t *testing.T) {
	app := newTestApp(sampleSource(), nil)

	for _, target := range []string{
		"/api/weather/forecast?lat=42&lon=-93.6&days=8",
		"/api/weather/forecast?lat=42&lon=-93.6&days=0",
		"/api/weather/forecast?lat=42&lon=-93.6&days=abc",
		"/api/weather/forecast?lon=-93.6",
		"/api/weather/forecast?lat=91&lon=-93.6",
	} {
		if status, _ := doGet(t, app, target); status != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", target, http.StatusBadRequest, status)
		}
	}
}

func TestForecastDefaultsToSevenDays(t *testing.T) {
	app := newTestApp(sampleSource(), nil)

	status, body := doGet(t, app, "/api/weather/forecast?lat=42&lon=-93.6")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
	}

	var report weather.ForecastReport
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if report.Location.Name != "Ames" {
		t.Errorf("location name = %q, want Ames", report.Location.Name)
	}
	if len(report.Forecast) != 2 {
		t.Fatalf("got %d days, want 2", len(report.Forecast))
	}
	// Day 1: min 0, max 17 -> 8.5 - 10 < 0. Day 2: min 8, max 25 -> 6.5.
	if report.CumulativeGDD != 6.5 {
		t.Errorf("cumulative_gdd = %v, want 6.5", report.CumulativeGDD)
	}
}

func TestGDDValidationAndBaseTemp(t *testing.T) {
	app := newTestApp(sampleSource(), nil)

	if status, _ := doGet(t, app, "/api/weather/gdd?lat=42&lon=-93.6&days=31"); status != http.StatusBadRequest {
		t.Fatalf("days=31: expected status %d, got %d", http.StatusBadRequest, status)
	}
	for _, base := range []string{"warm", "NaN", "Inf", "-Inf"} {
		status, body := doGet(t, app, "/api/weather/gdd?lat=42&lon=-93.6&days=2&base_temp="+base)
		if status != http.StatusBadRequest {
			t.Fatalf("base_temp=%s: expected status %d, got %d: %s", base, http.StatusBadRequest, status, body)
		}
	}

	status, body := doGet(t, app, "/api/weather/gdd?lat=42&lon=-93.6&days=30&base_temp=5")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
	}
	var report weather.GDDReport
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// 3.5 + 11.5
	if report.BaseTemp != 5 || report.PeriodDays != 30 || report.TotalGDD != 15 {
		t.Errorf("report = %+v, want base 5, period 30, total 15", report)
	}
}

func TestUpstreamErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"missing key", weather.ErrConfigurationMissing, http.StatusServiceUnavailable},
		{"unknown location", weather.ErrLocationNotFound, http.StatusNotFound},
		{"timeout", weather.ErrTimeout, http.StatusGatewayTimeout},
		{"invalid key", &weather.UpstreamError{StatusCode: 401, Message: "invalid api key"}, http.StatusUnauthorized},
		{"odd upstream status", &weather.UpstreamError{StatusCode: 302}, http.StatusBadGateway},
		{"unexpected", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(stubSource{err: tc.err}, nil)

			status, body := doGet(t, app, "/api/weather/current?lat=1&lon=2")
			if status != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, status)
			}

			var payload struct {
				Error   bool   `json:"error"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if !payload.Error || payload.Message == "" {
				t.Fatalf("error body = %s", body)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	app := newTestApp(sampleSource(), nil)

	if status, _ := doGet(t, app, "/api/weather/search"); status != http.StatusBadRequest {
		t.Fatalf("missing q: expected status %d, got %d", http.StatusBadRequest, status)
	}

	status, body := doGet(t, app, "/api/weather/search?q=ames")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
	var payload struct {
		Locations []weather.Place `json:"locations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Locations) != 1 || payload.Locations[0].Name != "Ames" {
		t.Fatalf("locations = %+v", payload.Locations)
	}
}

func TestHistory(t *testing.T) {
	memStore := store.NewMemoryStore(10, 0)
	loc := weather.Coordinates{Lat: 42, Lon: -93.6}
	recorded := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := memStore.SaveSnapshot(loc, weather.Snapshot{ID: "a", RecordedAt: recorded}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	app := newTestApp(sampleSource(), memStore)

	status, body := doGet(t, app, "/api/weather/history?lat=42&lon=-93.6&from=2024-05-01T00:00:00Z&to=2024-05-02T00:00:00Z")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, status, body)
	}

	if status, _ := doGet(t, app, "/api/weather/history?lat=42&lon=-93.6&from=1714608000&to=1714694400"); status != http.StatusNotFound {
		t.Fatalf("empty range: expected status %d, got %d", http.StatusNotFound, status)
	}
	if status, _ := doGet(t, app, "/api/weather/history?lat=42&lon=-93.6&from=2024-05-02T00:00:00Z&to=2024-05-01T00:00:00Z"); status != http.StatusBadRequest {
		t.Fatalf("reversed range: expected status %d, got %d", http.StatusBadRequest, status)
	}
	if status, _ := doGet(t, app, "/api/weather/history?lat=42&lon=-93.6"); status != http.StatusBadRequest {
		t.Fatalf("missing range: expected status %d, got %d", http.StatusBadRequest, status)
	}
}

func TestReportSchemaRoute(t *testing.T) {
	app := newTestApp(sampleSource(), nil)

	status, body := doGet(t, app, "/api/weather/schema/forecast")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
	var schema struct {
		Properties map[string]any `json:"properties"`
	}
	if err := json.Unmarshal(body, &schema); err != nil {
		t.Fatalf("decoding schema: %v", err)
	}
	for _, field := range []string{"location", "forecast", "cumulative_gdd", "alerts"} {
		if _, ok := schema.Properties[field]; !ok {
			t.Errorf("schema missing property %q", field)
		}
	}

	if status, _ := doGet(t, app, "/api/weather/schema/nope"); status != http.StatusNotFound {
		t.Fatalf("unknown report: expected status %d, got %d", http.StatusNotFound, status)
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(sampleSource(), nil)
	if status, _ := doGet(t, app, "/health"); status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
}
