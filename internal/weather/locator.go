package weather

import (
	"context"
	"errors"
	"log"
)

// ChainLocator asks each locator in turn and returns the first non-empty
// result. Errors are remembered and returned only if every locator fails.
type ChainLocator []Locator

// SearchLocation implements Locator.
func (c ChainLocator) SearchLocation(ctx context.Context, query string) ([]Place, error) {
	var errs []error
	for _, l := range c {
		places, err := l.SearchLocation(ctx, query)
		if err != nil {
			log.Printf("INFO: locator failed for %q: %v", query, err)
			errs = append(errs, err)
			continue
		}
		if len(places) > 0 {
			return places, nil
		}
	}
	if len(errs) == len(c) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []Place{}, nil
}
