package provider

import (
	"errors"

	"StockScreener/internal/model"
)

// ErrProviderUnavailable means the data source itself cannot be reached;
// a run cannot proceed without an instrument universe.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ErrNoData means a single instrument returned nothing usable. The caller
// decides whether to retry; this package never retries on its own.
var ErrNoData = errors.New("no data")

// Provider is the sole network-facing dependency of the screener.
type Provider interface {
	// ListInstruments enumerates the raw instrument universe (unfiltered).
	ListInstruments() ([]model.Instrument, error)
	// GetDailyBars returns up to count most recent daily bars for one code,
	// in ascending date order. Returns ErrNoData when the source has nothing
	// or the trailing close is invalid.
	GetDailyBars(code string, market, count int) ([]model.Bar, error)
	Name() string
}

// Factory constructs a Provider. Each concurrent fetch task builds its own
// instance so no client state is shared across goroutines.
type Factory func() Provider
