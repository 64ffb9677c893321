package weather

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMissingConfig is returned when the API key or coordinates are not configured.
	ErrMissingConfig = errors.New("weather provider configuration incomplete")
	// ErrProviderUnavailable covers transport errors, non-2xx responses and bad bodies.
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	// ErrBrokerUnavailable is returned when the broker cannot be reached.
	ErrBrokerUnavailable = errors.New("message broker unavailable")
	// ErrPublish is returned when the broker rejects or fails a publish.
	ErrPublish = errors.New("publish failed")
	// ErrNoHistory is returned when no cycle reports are available.
	ErrNoHistory = errors.New("no cycle reports recorded")
)

// Collector fetches the current conditions and normalizes them.
type Collector interface {
	Collect(ctx context.Context) (Observation, error)
}

// Publisher delivers an observation to the durable queue.
type Publisher interface {
	Publish(ctx context.Context, obs Observation) error
}

// Store is the contract for cycle history storage.
type Store interface {
	SaveReport(report CycleReport)
	Latest() (CycleReport, error)
	Range(from, to time.Time) ([]CycleReport, error)
}
