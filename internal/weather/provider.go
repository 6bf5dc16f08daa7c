package weather

import (
	"context"
	"time"
)

// Source fetches raw observations and forecasts from a weather provider
// (e.g. OpenWeatherMap). Implementations own timeouts, retries and error
// translation into this package's sentinel errors.
type Source interface {
	Name() string
	FetchCurrent(ctx context.Context, lat, lon float64) (RawObservation, error)
	FetchForecast(ctx context.Context, lat, lon float64) (RawForecast, error)
}

// Locator resolves free-text queries to places.
type Locator interface {
	SearchLocation(ctx context.Context, query string) ([]Place, error)
}

// Store is the contract the snapshot stores must satisfy.
type Store interface {
	SaveSnapshot(loc Coordinates, snapshot Snapshot) error
	GetLatest(loc Coordinates) (Snapshot, error)
	GetRange(loc Coordinates, from, to time.Time) ([]Snapshot, error)
}
