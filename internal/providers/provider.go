// Package providers defines the provider adapter contract, the adapter
// registry, and the report aggregator that assembles outward-facing
// weather updates.
package providers

import (
	"context"

	"github.com/vaneworks/weathervane/internal/state"
	"github.com/vaneworks/weathervane/internal/types"
	"github.com/vaneworks/weathervane/pkg/config"
	"go.uber.org/zap"
)

// Provider is implemented once per weather data source.  Implementations
// own all of their mutable state; the aggregator only reads the values
// they hand back.
type Provider interface {
	// Metadata returns the static capability description: attribution,
	// supported report/forecast field lists, and forecast day count.
	Metadata() types.Metadata

	// FetchReport produces the current canonical report.  Push-style
	// providers answer from their latest message-driven state and never
	// block; pull-style providers perform their network fetch here.
	FetchReport(ctx context.Context) (types.Report, error)

	// FetchForecast produces up to days canonical forecast-day records,
	// ordered soonest first.  Providers without forecast capability
	// return an empty, non-nil slice.
	FetchForecast(ctx context.Context, days int) ([]types.ForecastDay, error)
}

// Starter is implemented by push-style providers that bind a network
// listener (UDP socket, broker subscription) for their lifetime.
type Starter interface {
	Start(ctx context.Context) error
	Stop() error
}

// Deps carries the shared collaborators handed to every adapter factory.
type Deps struct {
	Logger *zap.SugaredLogger
	State  *state.Store // nil when persistence is not configured
}

// Factory constructs a provider adapter from its configuration.
type Factory func(deps Deps, cfg config.SourceData) (Provider, error)
