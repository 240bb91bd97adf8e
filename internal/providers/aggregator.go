package providers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vaneworks/weathervane/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Aggregator merges a provider's report and forecast halves into a
// single WeatherUpdate.  Both halves are fetched concurrently when the
// provider offers forecasts; an update is delivered exactly once per
// invocation, or not at all on error.
type Aggregator struct {
	logger *zap.SugaredLogger
}

// NewAggregator creates an aggregator logging through logger.
func NewAggregator(logger *zap.SugaredLogger) *Aggregator {
	return &Aggregator{logger: logger.Named("aggregator")}
}

// Update fetches the current report (and, when supported, up to days
// forecast days) from p and combines them.  Forecasts in the result is
// never nil.  A failure in either half fails the whole invocation and
// leaves no partial update behind.
func (a *Aggregator) Update(ctx context.Context, p Provider, days int) (*types.WeatherUpdate, error) {
	meta := p.Metadata()
	invocation := uuid.NewString()
	log := a.logger.With("attribution", meta.Attribution, "invocation", invocation)

	if days > meta.ForecastDays {
		days = meta.ForecastDays
	}

	var report types.Report
	forecasts := []types.ForecastDay{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report, err = p.FetchReport(gctx)
		if err != nil {
			return fmt.Errorf("report fetch failed: %w", err)
		}
		return nil
	})
	if meta.SupportsForecast() && days > 0 {
		g.Go(func() error {
			fc, err := p.FetchForecast(gctx, days)
			if err != nil {
				return fmt.Errorf("forecast fetch failed: %w", err)
			}
			if fc != nil {
				forecasts = fc
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Errorw("update failed", "error", err)
		return nil, err
	}

	log.Debugw("update combined",
		"forecastDays", len(forecasts),
		"station", report.ObservationStation)

	return &types.WeatherUpdate{Report: report, Forecasts: forecasts}, nil
}
