package providers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/vaneworks/weathervane/internal/types"
	"github.com/vaneworks/weathervane/pkg/config"
	"go.uber.org/zap"
)

type fakeProvider struct {
	meta          types.Metadata
	report        types.Report
	forecast      []types.ForecastDay
	reportErr     error
	forecastErr   error
	reportCalls   atomic.Int32
	forecastCalls atomic.Int32
	gotDays       int
}

func (f *fakeProvider) Metadata() types.Metadata { return f.meta }

func (f *fakeProvider) FetchReport(ctx context.Context) (types.Report, error) {
	f.reportCalls.Add(1)
	return f.report, f.reportErr
}

func (f *fakeProvider) FetchForecast(ctx context.Context, days int) ([]types.ForecastDay, error) {
	f.forecastCalls.Add(1)
	f.gotDays = days
	return f.forecast, f.forecastErr
}

func TestAggregatorCombinesBothHalves(t *testing.T) {
	p := &fakeProvider{
		meta:     types.Metadata{Attribution: "Test", ForecastDays: 3},
		report:   types.Report{Temperature: 21.5, ObservationStation: "ST-1"},
		forecast: []types.ForecastDay{{Day: "Monday"}, {Day: "Tuesday"}},
	}
	a := NewAggregator(zap.NewNop().Sugar())

	update, err := a.Update(context.Background(), p, 2)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if update.Report.Temperature != 21.5 {
		t.Errorf("report temperature = %v, want 21.5", update.Report.Temperature)
	}
	if len(update.Forecasts) != 2 {
		t.Errorf("forecast count = %d, want 2", len(update.Forecasts))
	}
	if got := p.reportCalls.Load(); got != 1 {
		t.Errorf("report fetched %d times, want exactly 1", got)
	}
	if got := p.forecastCalls.Load(); got != 1 {
		t.Errorf("forecast fetched %d times, want exactly 1", got)
	}
}

func TestAggregatorNoForecastCapability(t *testing.T) {
	p := &fakeProvider{
		meta:   types.Metadata{Attribution: "Test", ForecastDays: 0},
		report: types.Report{Humidity: 45},
	}
	a := NewAggregator(zap.NewNop().Sugar())

	update, err := a.Update(context.Background(), p, 5)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if update.Forecasts == nil {
		t.Fatal("Forecasts is nil, want empty slice")
	}
	if len(update.Forecasts) != 0 {
		t.Errorf("forecast count = %d, want 0", len(update.Forecasts))
	}
	if got := p.forecastCalls.Load(); got != 0 {
		t.Errorf("forecast half was fetched %d times for a no-forecast provider", got)
	}
}

func TestAggregatorClampsRequestedDays(t *testing.T) {
	p := &fakeProvider{
		meta:     types.Metadata{Attribution: "Test", ForecastDays: 4},
		forecast: []types.ForecastDay{},
	}
	a := NewAggregator(zap.NewNop().Sugar())

	if _, err := a.Update(context.Background(), p, 10); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.gotDays != 4 {
		t.Errorf("forecast requested %d days, want clamped to 4", p.gotDays)
	}
}

func TestAggregatorErrorDeliversNoUpdate(t *testing.T) {
	tests := []struct {
		name string
		p    *fakeProvider
	}{
		{
			name: "report failure",
			p: &fakeProvider{
				meta:      types.Metadata{ForecastDays: 2},
				reportErr: errors.New("socket error"),
			},
		},
		{
			name: "forecast failure",
			p: &fakeProvider{
				meta:        types.Metadata{ForecastDays: 2},
				forecastErr: errors.New("malformed payload"),
			},
		},
	}

	a := NewAggregator(zap.NewNop().Sugar())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := a.Update(context.Background(), tt.p, 2)
			if err == nil {
				t.Fatal("Update returned nil error, want failure")
			}
			if update != nil {
				t.Errorf("failed invocation still delivered update %+v", update)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	Register("test-dummy", func(deps Deps, cfg config.SourceData) (Provider, error) {
		return nil, nil
	})
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, "test-dummy")
		registryMu.Unlock()
	})

	if _, err := Lookup("test-dummy"); err != nil {
		t.Errorf("Lookup(test-dummy): %v", err)
	}
	if _, err := Lookup("never-registered"); err == nil {
		t.Error("Lookup of unregistered name succeeded")
	}

	found := false
	for _, name := range Registered() {
		if name == "test-dummy" {
			found = true
		}
	}
	if !found {
		t.Error("Registered() does not list test-dummy")
	}
}
