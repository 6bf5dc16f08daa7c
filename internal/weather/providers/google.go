package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/agro-weather/internal/common"
	"github.com/i474232898/agro-weather/internal/weather"
)

// geocoderMu guards the geocoder package's global API key.
var geocoderMu sync.Mutex

// GoogleLocator resolves place names through the Google Geocoding API.
// It is used as a fallback when the primary provider finds nothing.
type GoogleLocator struct {
	apiKey string
}

func NewGoogleLocator(apiKey string) *GoogleLocator {
	return &GoogleLocator{apiKey: apiKey}
}

// SearchLocation geocodes query and reverse-geocodes the hit to name it.
// The geocoder library does not take a context; ctx is only checked up front.
func (g *GoogleLocator) SearchLocation(ctx context.Context, query string) ([]weather.Place, error) {
	if g.apiKey == "" {
		return nil, weather.ErrConfigurationMissing
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	geocoderMu.Lock()
	defer geocoderMu.Unlock()
	geocoder.ApiKey = g.apiKey

	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	if err != nil {
		return nil, fmt.Errorf("google geocoding %q: %w", query, err)
	}

	place := weather.Place{
		Name: query,
		Lat:  loc.Latitude,
		Lon:  loc.Longitude,
	}

	addrs, err := geocoder.GeocodingReverse(loc)
	if err == nil && len(addrs) > 0 {
		a := addrs[0]
		if a.City != "" {
			place.Name = a.City
		}
		place.State = a.State
		place.Country = a.Country
	}
	place.DisplayName = common.JoinNonEmpty(", ", place.Name, place.State, place.Country)

	return []weather.Place{place}, nil
}

var _ weather.Locator = (*GoogleLocator)(nil)
