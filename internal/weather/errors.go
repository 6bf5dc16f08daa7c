package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing is returned when no provider credential is configured.
	ErrConfigurationMissing = errors.New("weather provider api key not configured")
	// ErrLocationNotFound is returned when the provider cannot resolve a location.
	ErrLocationNotFound = errors.New("location not found")
	// ErrUpstream is matched by every *UpstreamError.
	ErrUpstream = errors.New("weather provider error")
	// ErrTimeout is returned when the provider did not answer in time.
	ErrTimeout = errors.New("weather provider request timeout")
)

// UpstreamError carries a non-success status from the provider.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrUpstream, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrUpstream, e.StatusCode, e.Message)
}

// Is reports ErrUpstream as a match.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
