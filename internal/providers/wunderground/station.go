// Package wunderground implements the Weather Underground personal
// weather station adapter.  It polls the PWS current-conditions API and
// normalizes the metric_si observation block into the canonical report.
// Weather Underground offers no forecast to PWS keys, so the forecast
// half is always empty.
package wunderground

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/vaneworks/weathervane/internal/providers"
	"github.com/vaneworks/weathervane/internal/types"
	"github.com/vaneworks/weathervane/internal/units"
	"github.com/vaneworks/weathervane/pkg/config"
	"go.uber.org/zap"
)

const defaultEndpoint = "https://api.weather.com/v2/pws"

func init() {
	providers.Register("wunderground", NewStation)
}

// observationsResponse is the PWS current-conditions payload.
type observationsResponse struct {
	Observations []observation `json:"observations"`
}

type observation struct {
	StationID      string    `json:"stationID"`
	ObsTimeUTC     time.Time `json:"obsTimeUtc"`
	WindDir        float64   `json:"winddir"`
	Humidity       float64   `json:"humidity"`
	UV             float64   `json:"uv"`
	SolarRadiation float64   `json:"solarRadiation"`
	MetricSI       metricSI  `json:"metric_si"`
}

type metricSI struct {
	Temp        float64 `json:"temp"`
	DewPoint    float64 `json:"dewpt"`
	Pressure    float64 `json:"pressure"`
	WindSpeed   float64 `json:"windSpeed"`
	WindGust    float64 `json:"windGust"`
	PrecipRate  float64 `json:"precipRate"`
	PrecipTotal float64 `json:"precipTotal"`
}

// Station is the Weather Underground adapter.
type Station struct {
	cfg     config.SourceData
	logger  *zap.SugaredLogger
	fetcher *providers.HTTPFetcher
	meta    types.Metadata
}

// NewStation creates a Weather Underground adapter instance.
func NewStation(deps providers.Deps, cfg config.SourceData) (providers.Provider, error) {
	if cfg.StationID == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("wunderground source [%s] requires station_id and api_key", cfg.Name)
	}

	return &Station{
		cfg:     cfg,
		logger:  deps.Logger.Named("wunderground").With("station", cfg.Name),
		fetcher: providers.NewHTTPFetcher("wunderground"),
		meta: types.Metadata{
			Attribution: "Powered by Weather Underground",
			ReportCharacteristics: []string{
				types.FieldTemperature,
				types.FieldTemperatureApparent,
				types.FieldTemperatureWetBulb,
				types.FieldHumidity,
				types.FieldAirPressure,
				types.FieldDewPoint,
				types.FieldWindSpeed,
				types.FieldWindSpeedMax,
				types.FieldWindDirection,
				types.FieldUVIndex,
				types.FieldSolarRadiation,
				types.FieldRain1h,
				types.FieldRainDay,
				types.FieldRainBool,
				types.FieldObservationStation,
				types.FieldObservationTime,
			},
			ForecastCharacteristics: []string{},
			ForecastDays:            0,
		},
	}, nil
}

// Metadata returns the static capability description.
func (s *Station) Metadata() types.Metadata {
	return s.meta
}

// FetchReport polls the current-conditions endpoint and normalizes the
// most recent observation.
func (s *Station) FetchReport(ctx context.Context) (types.Report, error) {
	endpoint := s.cfg.APIEndpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	v := url.Values{}
	v.Set("stationId", s.cfg.StationID)
	v.Set("format", "json")
	v.Set("units", "s")
	v.Set("apiKey", s.cfg.APIKey)

	body, err := s.fetcher.Get(ctx, endpoint+"/observations/current?"+v.Encode())
	if err != nil {
		return types.Report{}, fmt.Errorf("error fetching observations: %w", err)
	}

	var resp observationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		s.logger.Errorw("malformed observations payload", "error", err, "payload", string(body))
		return types.Report{}, fmt.Errorf("unable to decode observations response: %w", err)
	}
	if len(resp.Observations) == 0 {
		s.logger.Errorw("observations payload contained no observations", "payload", string(body))
		return types.Report{}, fmt.Errorf("no observations in response for station %s", s.cfg.StationID)
	}

	return s.normalize(resp.Observations[0]), nil
}

// FetchForecast always returns an empty slice: the PWS API has no
// forecast capability.
func (s *Station) FetchForecast(ctx context.Context, days int) ([]types.ForecastDay, error) {
	return []types.ForecastDay{}, nil
}

func (s *Station) normalize(obs observation) types.Report {
	m := obs.MetricSI

	dewPoint := m.DewPoint
	if !units.Finite(dewPoint) {
		dewPoint = units.DewPoint(m.Temp, obs.Humidity)
	}

	report := types.Report{
		Temperature:         m.Temp,
		TemperatureApparent: units.ApparentTemperature(m.Temp, obs.Humidity, m.WindSpeed),
		TemperatureWetBulb:  units.WetBulb(m.Temp, obs.Humidity),
		Humidity:            obs.Humidity,
		AirPressure:         m.Pressure,
		DewPoint:            dewPoint,
		WindSpeed:           m.WindSpeed,
		WindSpeedMax:        m.WindGust,
		WindDirection:       units.DirectionLabel(obs.WindDir),
		UVIndex:             obs.UV,
		SolarRadiation:      obs.SolarRadiation,
		Rain1h:              m.PrecipRate,
		RainDay:             m.PrecipTotal,
		RainBool:            m.PrecipRate > 0,
		ObservationStation:  obs.StationID,
		ObservationTime:     obs.ObsTimeUTC,
	}

	// Anything non-finite after coercion is a semantic anomaly, not an
	// error: replace with zero and keep going.
	for name, v := range map[string]*float64{
		"temperature": &report.Temperature,
		"humidity":    &report.Humidity,
		"pressure":    &report.AirPressure,
		"dewPoint":    &report.DewPoint,
		"windSpeed":   &report.WindSpeed,
		"rain1h":      &report.Rain1h,
		"rainDay":     &report.RainDay,
	} {
		if !units.Finite(*v) {
			s.logger.Warnw("non-finite observation value, using 0", "field", name)
			*v = 0
		}
	}

	return report
}
