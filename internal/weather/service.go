package weather

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

// Service orchestrates fetching from the provider, building reports and
// recording snapshots.
type Service struct {
	source  Source
	locator Locator
	store   Store
	builder *ReportBuilder
}

// NewService creates a new Service. locator and store may be nil; the
// corresponding operations then fail with ErrConfigurationMissing.
func NewService(source Source, locator Locator, store Store, builder *ReportBuilder) *Service {
	if builder == nil {
		builder = NewReportBuilder()
	}
	return &Service{
		source:  source,
		locator: locator,
		store:   store,
		builder: builder,
	}
}

// Current fetches the current observation and builds its report.
func (s *Service) Current(ctx context.Context, at Coordinates) (CurrentReport, error) {
	if s.source == nil {
		return CurrentReport{}, ErrConfigurationMissing
	}
	obs, err := s.source.FetchCurrent(ctx, at.Lat, at.Lon)
	if err != nil {
		return CurrentReport{}, fmt.Errorf("fetch current: %w", err)
	}
	return s.builder.Current(at, obs), nil
}

// Forecast fetches the current observation and the forecast concurrently and
// builds the forecast report once both have arrived.
func (s *Service) Forecast(ctx context.Context, at Coordinates, days int) (ForecastReport, error) {
	if days <= 0 {
		return ForecastReport{}, fmt.Errorf("days must be greater than zero")
	}

	log.Printf("DEBUG: Forecast called for %s for %d days", at.Key(), days)

	obs, fc, err := s.fetchBoth(ctx, at)
	if err != nil {
		return ForecastReport{}, err
	}
	return s.builder.Forecast(at, obs, fc, days), nil
}

// GDD fetches the forecast and builds a degree-day report.
func (s *Service) GDD(ctx context.Context, at Coordinates, days int, base float64) (GDDReport, error) {
	if days <= 0 {
		return GDDReport{}, fmt.Errorf("days must be greater than zero")
	}
	if s.source == nil {
		return GDDReport{}, ErrConfigurationMissing
	}
	fc, err := s.source.FetchForecast(ctx, at.Lat, at.Lon)
	if err != nil {
		return GDDReport{}, fmt.Errorf("fetch forecast: %w", err)
	}
	return s.builder.GDD(fc, days, base), nil
}

// SearchLocation resolves a free-text query to candidate places.
func (s *Service) SearchLocation(ctx context.Context, query string) ([]Place, error) {
	if s.locator == nil {
		return nil, ErrConfigurationMissing
	}
	places, err := s.locator.SearchLocation(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search location: %w", err)
	}
	return places, nil
}

// RecordCurrent fetches the current observation for place and stores it
// as a snapshot.
func (s *Service) RecordCurrent(ctx context.Context, place Place) error {
	if s.store == nil {
		return fmt.Errorf("no snapshot store configured")
	}
	if s.source == nil {
		return ErrConfigurationMissing
	}

	obs, err := s.source.FetchCurrent(ctx, place.Lat, place.Lon)
	if err != nil {
		return fmt.Errorf("fetch current for %s: %w", place.Name, err)
	}

	recordedAt := obs.ObservedAt.UTC()
	if obs.ObservedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	snap := Snapshot{
		ID:         ulid.Make().String(),
		Location:   place,
		RecordedAt: recordedAt,
		Current:    s.builder.Conditions(obs),
		Alerts:     EvaluateAlerts(obs, nil),
	}
	return s.store.SaveSnapshot(place.Coordinates(), snap)
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(at Coordinates) (Snapshot, error) {
	if s.store == nil {
		return Snapshot{}, fmt.Errorf("no snapshot store configured")
	}
	return s.store.GetLatest(at)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(at Coordinates, from, to time.Time) ([]Snapshot, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no snapshot store configured")
	}
	return s.store.GetRange(at, from, to)
}

// BaseTemp returns the default GDD base temperature of the service's builder.
func (s *Service) BaseTemp() float64 {
	return s.builder.BaseTemp()
}

func (s *Service) fetchBoth(ctx context.Context, at Coordinates) (RawObservation, RawForecast, error) {
	if s.source == nil {
		return RawObservation{}, RawForecast{}, ErrConfigurationMissing
	}

	var (
		obs RawObservation
		fc  RawForecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		obs, err = s.source.FetchCurrent(gctx, at.Lat, at.Lon)
		if err != nil {
			return fmt.Errorf("fetch current: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		fc, err = s.source.FetchForecast(gctx, at.Lat, at.Lon)
		if err != nil {
			return fmt.Errorf("fetch forecast: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("provider %s fetch failed for %s: %v", s.source.Name(), at.Key(), err)
		return RawObservation{}, RawForecast{}, err
	}
	return obs, fc, nil
}
