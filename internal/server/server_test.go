package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vaneworks/weathervane/internal/types"
	"go.uber.org/zap"
)

func newTestServer() *Server {
	s := New(zap.NewNop().Sugar(), ":0")
	s.RegisterProvider("backyard", types.Metadata{
		Attribution:           "Powered by WeatherFlow",
		ReportCharacteristics: []string{types.FieldTemperature, types.FieldRain1h},
		ForecastDays:          0,
	})
	s.RegisterProvider("london", types.Metadata{
		Attribution:  "Powered by OpenWeatherMap",
		ForecastDays: 7,
	})
	return s
}

func TestProvidersEndpoint(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/providers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var infos []providerInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("provider count = %d, want 2", len(infos))
	}
	if infos[0].Name != "backyard" || infos[1].Name != "london" {
		t.Errorf("providers not sorted by name: %q, %q", infos[0].Name, infos[1].Name)
	}
	if infos[1].ForecastDays != 7 {
		t.Errorf("london forecast_days = %d, want 7", infos[1].ForecastDays)
	}
}

func TestLatestEndpoint(t *testing.T) {
	s := newTestServer()
	s.SetLatest("backyard", &types.WeatherUpdate{
		Report:    types.Report{Temperature: 20.0, Humidity: 45},
		Forecasts: []types.ForecastDay{},
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/latest/backyard", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp latestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Provider != "backyard" {
		t.Errorf("provider = %q", resp.Provider)
	}
	if resp.Update == nil || resp.Update.Report.Temperature != 20.0 {
		t.Errorf("update = %+v", resp.Update)
	}
	if resp.ReceivedAt.IsZero() {
		t.Error("received_at not set")
	}
}

func TestLatestEndpointMisses(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/latest/nowhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown provider status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/latest/london", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("no-update-yet status = %d, want 404", rec.Code)
	}
}
