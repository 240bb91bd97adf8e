// Package types defines the canonical weather data model shared by all
// provider adapters.  Every value is expressed in the canonical unit for
// its field: Celsius, hPa, millimeters, meters per second, percent as
// 0-100, and condition ordinals as small ints.  Raw provider units never
// leave the adapter that parsed them.
package types

import "time"

// Canonical report field names.  Provider adapters publish the subset
// they support as their report characteristics list.
const (
	FieldTemperature          = "Temperature"
	FieldTemperatureApparent  = "TemperatureApparent"
	FieldTemperatureWetBulb   = "TemperatureWetBulb"
	FieldTemperatureMin       = "TemperatureMin"
	FieldHumidity             = "Humidity"
	FieldAirPressure          = "AirPressure"
	FieldDewPoint             = "DewPoint"
	FieldWindSpeed            = "WindSpeed"
	FieldWindSpeedMax         = "WindSpeedMax"
	FieldWindDirection        = "WindDirection"
	FieldUVIndex              = "UVIndex"
	FieldSolarRadiation       = "SolarRadiation"
	FieldRain1h               = "Rain1h"
	FieldRainDay              = "RainDay"
	FieldRainBool             = "RainBool"
	FieldSnowBool             = "SnowBool"
	FieldConditionCategory    = "ConditionCategory"
	FieldCondition            = "Condition"
	FieldObservationStation   = "ObservationStation"
	FieldObservationTime      = "ObservationTime"
	FieldBatteryLevel         = "BatteryLevel"
	FieldBatteryIsCharging    = "BatteryIsCharging"
	FieldLightningStrikes     = "LightningStrikes"
	FieldLightningAvgDistance = "LightningAvgDistance"
)

// Canonical forecast-day field names.
const (
	FieldForecastDay    = "ForecastDay"
	FieldTemperatureMax = "TemperatureMax"
	FieldRainChance     = "RainChance"
	FieldSunriseTime    = "SunriseTime"
	FieldSunsetTime     = "SunsetTime"
)

// Report is a normalized current-conditions record.  Not every provider
// populates every field; consumers must consult the provider's
// characteristics list before reading a field.
type Report struct {
	Temperature          float64
	TemperatureApparent  float64
	TemperatureWetBulb   float64
	TemperatureMin       float64
	Humidity             float64
	AirPressure          float64
	DewPoint             float64
	WindSpeed            float64
	WindSpeedMax         float64
	WindDirection        string
	UVIndex              float64
	SolarRadiation       float64
	Rain1h               float64
	RainDay              float64
	RainBool             bool
	SnowBool             bool
	ConditionCategory    int
	Condition            string
	ObservationStation   string
	ObservationTime      time.Time
	BatteryLevel         float64
	BatteryIsCharging    bool
	LightningStrikes     int
	LightningAvgDistance float64
}

// ForecastDay is a normalized future-day record, ordered from soonest
// to furthest by the producing adapter.
type ForecastDay struct {
	Day               string
	ConditionCategory int
	Condition         string
	TemperatureMax    float64
	TemperatureMin    float64
	RainChance        float64
	RainDay           float64
	SunriseTime       time.Time
	SunsetTime        time.Time
}

// WeatherUpdate is the single outward-facing value delivered for one
// update invocation.  Forecasts is never nil: providers without
// forecast capability deliver an empty slice.
type WeatherUpdate struct {
	Report    Report
	Forecasts []ForecastDay
}

// Metadata is the static, immutable description of a provider adapter:
// attribution string, declared capability lists, and the number of
// forecast days offered (zero when the provider has no forecast).
type Metadata struct {
	Attribution             string
	ReportCharacteristics   []string
	ForecastCharacteristics []string
	ForecastDays            int
}

// SupportsForecast reports whether the provider offers any forecast days.
func (m Metadata) SupportsForecast() bool {
	return m.ForecastDays > 0
}
