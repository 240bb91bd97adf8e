// Package openweathermap implements the OpenWeatherMap adapter.  It
// polls the One Call API for current conditions and a daily forecast
// and normalizes both into the canonical schema.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/vaneworks/weathervane/internal/conditions"
	"github.com/vaneworks/weathervane/internal/providers"
	"github.com/vaneworks/weathervane/internal/rainfall"
	"github.com/vaneworks/weathervane/internal/types"
	"github.com/vaneworks/weathervane/internal/units"
	"github.com/vaneworks/weathervane/pkg/config"
	"github.com/vaneworks/weathervane/pkg/solar"
	"go.uber.org/zap"
)

const (
	defaultEndpoint = "https://api.openweathermap.org/data/3.0"
	maxForecastDays = 7
)

func init() {
	providers.Register("openweathermap", NewStation)
}

// oneCallResponse is the One Call payload, limited to the fields the
// normalizer consumes.
type oneCallResponse struct {
	Timezone string        `json:"timezone"`
	Current  currentBlock  `json:"current"`
	Minutely []minuteBlock `json:"minutely"`
	Daily    []dailyBlock  `json:"daily"`
}

type currentBlock struct {
	Dt         int64          `json:"dt"`
	Sunrise    int64          `json:"sunrise"`
	Sunset     int64          `json:"sunset"`
	Temp       float64        `json:"temp"`
	FeelsLike  float64        `json:"feels_like"`
	Pressure   float64        `json:"pressure"`
	Humidity   float64        `json:"humidity"`
	DewPoint   float64        `json:"dew_point"`
	UVI        float64        `json:"uvi"`
	WindSpeed  float64        `json:"wind_speed"`
	WindGust   float64        `json:"wind_gust"`
	WindDeg    float64        `json:"wind_deg"`
	Rain       precipBlock    `json:"rain"`
	Snow       precipBlock    `json:"snow"`
	Weather    []weatherBlock `json:"weather"`
}

type precipBlock struct {
	OneHour float64 `json:"1h"`
}

type minuteBlock struct {
	Dt            int64   `json:"dt"`
	Precipitation float64 `json:"precipitation"`
}

type dailyBlock struct {
	Dt      int64          `json:"dt"`
	Sunrise int64          `json:"sunrise"`
	Sunset  int64          `json:"sunset"`
	Temp    dailyTemp      `json:"temp"`
	Pop     float64        `json:"pop"`
	Rain    float64        `json:"rain"`
	Weather []weatherBlock `json:"weather"`
}

type dailyTemp struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type weatherBlock struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Station is the OpenWeatherMap adapter.
type Station struct {
	cfg     config.SourceData
	logger  *zap.SugaredLogger
	fetcher *providers.HTTPFetcher
	meta    types.Metadata
}

// NewStation creates an OpenWeatherMap adapter instance.
func NewStation(deps providers.Deps, cfg config.SourceData) (providers.Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openweathermap source [%s] requires api_key", cfg.Name)
	}
	if cfg.Latitude == 0 && cfg.Longitude == 0 {
		return nil, fmt.Errorf("openweathermap source [%s] requires latitude and longitude", cfg.Name)
	}

	days := cfg.ForecastDays
	if days <= 0 || days > maxForecastDays {
		days = maxForecastDays
	}

	return &Station{
		cfg:     cfg,
		logger:  deps.Logger.Named("openweathermap").With("station", cfg.Name),
		fetcher: providers.NewHTTPFetcher("openweathermap"),
		meta: types.Metadata{
			Attribution: "Powered by OpenWeatherMap",
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
				types.FieldRain1h,
				types.FieldRainBool,
				types.FieldSnowBool,
				types.FieldCondition,
				types.FieldConditionCategory,
				types.FieldObservationTime,
			},
			ForecastCharacteristics: []string{
				types.FieldForecastDay,
				types.FieldCondition,
				types.FieldConditionCategory,
				types.FieldTemperatureMax,
				types.FieldTemperatureMin,
				types.FieldRainChance,
				types.FieldRainDay,
				types.FieldSunriseTime,
				types.FieldSunsetTime,
			},
			ForecastDays: days,
		},
	}, nil
}

// Metadata returns the static capability description.
func (s *Station) Metadata() types.Metadata {
	return s.meta
}

func (s *Station) fetchOneCall(ctx context.Context) (*oneCallResponse, error) {
	endpoint := s.cfg.APIEndpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(s.cfg.Latitude, 'f', 6, 64))
	v.Set("lon", strconv.FormatFloat(s.cfg.Longitude, 'f', 6, 64))
	v.Set("units", "metric")
	v.Set("exclude", "hourly,alerts")
	v.Set("appid", s.cfg.APIKey)

	body, err := s.fetcher.Get(ctx, endpoint+"/onecall?"+v.Encode())
	if err != nil {
		return nil, fmt.Errorf("error fetching one call data: %w", err)
	}

	resp := &oneCallResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		s.logger.Errorw("malformed one call payload", "error", err, "payload", string(body))
		return nil, fmt.Errorf("unable to decode one call response: %w", err)
	}
	return resp, nil
}

// FetchReport polls the One Call endpoint and normalizes the current
// conditions block.
func (s *Station) FetchReport(ctx context.Context) (types.Report, error) {
	resp, err := s.fetchOneCall(ctx)
	if err != nil {
		return types.Report{}, err
	}

	cur := resp.Current

	conditionID := 800
	condition := "clear sky"
	if len(cur.Weather) > 0 {
		conditionID = cur.Weather[0].ID
		condition = cur.Weather[0].Description
	}
	category := categorize(conditionID, false, s.logger)

	// Prefer the provider's own trailing-hour value; fall back to
	// summing the minute-resolution precipitation sequence when the
	// payload carries one instead.
	rain1h := cur.Rain.OneHour
	if rain1h == 0 && len(resp.Minutely) > 0 {
		values := make([]float64, 0, len(resp.Minutely))
		for _, m := range resp.Minutely {
			if units.Finite(m.Precipitation) {
				values = append(values, m.Precipitation)
			}
		}
		rain1h = rainfall.SumHistory(values)
	}

	dewPoint := cur.DewPoint
	if !units.Finite(dewPoint) {
		dewPoint = units.DewPoint(cur.Temp, cur.Humidity)
	}

	return types.Report{
		Temperature:         cur.Temp,
		TemperatureApparent: units.ApparentTemperature(cur.Temp, cur.Humidity, cur.WindSpeed),
		TemperatureWetBulb:  units.WetBulb(cur.Temp, cur.Humidity),
		Humidity:            cur.Humidity,
		AirPressure:         cur.Pressure,
		DewPoint:            dewPoint,
		WindSpeed:           cur.WindSpeed,
		WindSpeedMax:        cur.WindGust,
		WindDirection:       units.DirectionLabel(cur.WindDeg),
		UVIndex:             cur.UVI,
		Rain1h:              rain1h,
		RainBool:            conditions.IsRain(category) || cur.Rain.OneHour > 0,
		SnowBool:            conditions.IsSnow(category) || cur.Snow.OneHour > 0,
		Condition:           condition,
		ConditionCategory:   category,
		ObservationTime:     time.Unix(cur.Dt, 0).UTC(),
	}, nil
}

// FetchForecast polls the One Call endpoint and normalizes up to days
// daily blocks, soonest first.
func (s *Station) FetchForecast(ctx context.Context, days int) ([]types.ForecastDay, error) {
	resp, err := s.fetchOneCall(ctx)
	if err != nil {
		return nil, err
	}

	loc := time.UTC
	if resp.Timezone != "" {
		if l, err := time.LoadLocation(resp.Timezone); err == nil {
			loc = l
		}
	}

	if days > len(resp.Daily) {
		days = len(resp.Daily)
	}

	forecasts := make([]types.ForecastDay, 0, days)
	for _, day := range resp.Daily[:days] {
		conditionID := 800
		condition := "clear sky"
		if len(day.Weather) > 0 {
			conditionID = day.Weather[0].ID
			condition = day.Weather[0].Description
		}

		date := time.Unix(day.Dt, 0).In(loc)
		sunrise := time.Unix(day.Sunrise, 0).In(loc)
		sunset := time.Unix(day.Sunset, 0).In(loc)
		if day.Sunrise == 0 || day.Sunset == 0 {
			// Payload omitted the sun times; compute them locally.
			if rise, set, ok := solar.SunTimes(date, s.cfg.Latitude, s.cfg.Longitude); ok {
				sunrise, sunset = rise, set
			}
		}

		forecasts = append(forecasts, types.ForecastDay{
			Day:               date.Weekday().String(),
			Condition:         condition,
			ConditionCategory: categorize(conditionID, false, s.logger),
			TemperatureMax:    day.Temp.Max,
			TemperatureMin:    day.Temp.Min,
			RainChance:        day.Pop * 100,
			RainDay:           day.Rain,
			SunriseTime:       sunrise,
			SunsetTime:        sunset,
		})
	}

	return forecasts, nil
}
