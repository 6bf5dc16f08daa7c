// Package app wires configuration, the provider, the snapshot store and the
// report builder into a Deps struct shared by the server and CLI commands.
package app

import (
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/i474232898/agro-weather/internal/config"
	"github.com/i474232898/agro-weather/internal/store"
	"github.com/i474232898/agro-weather/internal/weather"
	"github.com/i474232898/agro-weather/internal/weather/providers"
)

// Deps holds all runtime dependencies.
type Deps struct {
	Config  *config.AppConfig
	Service *weather.Service

	closers []io.Closer
}

// New builds Deps from resolved config.
func New(cfg *config.AppConfig) (*Deps, error) {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var limiter *rate.Limiter
	if cfg.ProviderRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ProviderRPS), max(cfg.ProviderBurst, 1))
	}

	owm := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey,
		providers.WithBaseURL(cfg.OpenWeatherBaseURL),
		providers.WithGeoURL(cfg.OpenWeatherGeoURL),
		providers.WithHTTPConfig(providers.HTTPClientConfig{
			Client:  httpClient,
			Backoff: providers.DefaultBackoff,
			Limiter: limiter,
		}),
	)

	var locator weather.Locator = owm
	if cfg.GoogleGeocoderAPIKey != "" {
		locator = weather.ChainLocator{owm, providers.NewGoogleLocator(cfg.GoogleGeocoderAPIKey)}
	}

	deps := &Deps{Config: cfg}

	var snapshots weather.Store
	switch cfg.StoreBackend {
	case config.StoreBolt:
		bs, err := store.OpenBoltStore(cfg.StorePath, cfg.StoreMaxHistory, cfg.StoreMaxAge)
		if err != nil {
			return nil, fmt.Errorf("opening snapshot store: %w", err)
		}
		deps.closers = append(deps.closers, bs)
		snapshots = bs
	default:
		snapshots = store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	}

	builder := weather.NewReportBuilder(
		weather.WithLocation(cfg.Timezone),
		weather.WithBaseTemp(cfg.GDDBaseTemp),
	)

	deps.Service = weather.NewService(owm, locator, snapshots, builder)
	return deps, nil
}

// Close releases resources such as the bolt database.
func (d *Deps) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
