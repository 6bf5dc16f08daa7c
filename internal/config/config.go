package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/agro-weather/internal/weather"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
)

type AppConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenWeatherGeoURL  string

	// GoogleGeocoderAPIKey enables the Google fallback for location search.
	GoogleGeocoderAPIKey string

	HTTPTimeout time.Duration

	// Outbound provider rate limit.
	ProviderRPS   float64
	ProviderBurst int

	// FetchInterval controls how often observations are recorded for each location.
	FetchInterval time.Duration

	// Locations to record.
	Locations []weather.Place

	StoreBackend string
	StorePath    string

	// Snapshot retention.
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	// Timezone used to bucket forecast samples into calendar days.
	Timezone *time.Location

	// GDDBaseTemp is the base temperature for forecast-report GDD.
	GDDBaseTemp float64

	Port string
}

// fileConfig is the optional YAML overlay named by AGROWEATHER_CONFIG.
type fileConfig struct {
	Locations []struct {
		Name    string  `yaml:"name"`
		Country string  `yaml:"country"`
		Lat     float64 `yaml:"lat"`
		Lon     float64 `yaml:"lon"`
	} `yaml:"locations"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = os.Getenv("OPENWEATHER_BASE_URL")
	cfg.OpenWeatherGeoURL = os.Getenv("OPENWEATHER_GEO_URL")
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	rps, err := getenvFloat("PROVIDER_RPS", 1)
	if err != nil {
		return nil, err
	}
	cfg.ProviderRPS = rps
	cfg.ProviderBurst = getenvInt("PROVIDER_BURST", 5)

	// Scheduler interval: default 15 minutes.
	interval, err := time.ParseDuration(getenvDefault("FETCH_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	cfg.StoreBackend = getenvDefault("STORE_BACKEND", StoreMemory)
	if cfg.StoreBackend != StoreMemory && cfg.StoreBackend != StoreBolt {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: must be %s or %s", cfg.StoreBackend, StoreMemory, StoreBolt)
	}
	cfg.StorePath = getenvDefault("STORE_PATH", "data/agro-weather.db")

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals

	maxAge, err := time.ParseDuration(getenvDefault("STORE_MAX_AGE", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	tz, err := time.LoadLocation(getenvDefault("AGROWEATHER_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid AGROWEATHER_TIMEZONE: %w", err)
	}
	cfg.Timezone = tz

	base, err := getenvFloat("GDD_BASE_TEMP", weather.DefaultBaseTemp)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(base) || math.IsInf(base, 0) {
		return nil, fmt.Errorf("invalid GDD_BASE_TEMP: must be a finite number")
	}
	cfg.GDDBaseTemp = base

	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := ParseLocations(os.Getenv("WEATHER_LOCATIONS"))
	if err != nil {
		return nil, err
	}
	if path := os.Getenv("AGROWEATHER_CONFIG"); path != "" {
		fileLocs, err := loadFileLocations(path)
		if err != nil {
			return nil, err
		}
		locs = append(locs, fileLocs...)
	}
	cfg.Locations = locs

	return cfg, nil
}

// ParseLocations parses "name:lat:lon;name:lat:lon". Empty input yields no locations.
func ParseLocations(s string) ([]weather.Place, error) {
	var locs []weather.Place
	for _, item := range strings.Split(s, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid location %q: want name:lat:lon", item)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("invalid latitude in location %q", item)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("invalid longitude in location %q", item)
		}
		locs = append(locs, weather.Place{
			Name: strings.TrimSpace(parts[0]),
			Lat:  lat,
			Lon:  lon,
		})
	}
	return locs, nil
}

func loadFileLocations(path string) ([]weather.Place, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	locs := make([]weather.Place, 0, len(fc.Locations))
	for _, l := range fc.Locations {
		if l.Name == "" {
			return nil, fmt.Errorf("config file %s: location without name", path)
		}
		locs = append(locs, weather.Place{
			Name:    l.Name,
			Country: l.Country,
			Lat:     l.Lat,
			Lon:     l.Lon,
		})
	}
	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
