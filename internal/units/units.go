// Package units provides pure conversion functions between raw provider
// units and the canonical schema: Celsius, hPa, millimeters, meters per
// second, and percent.  All converters are total: NaN propagates, nothing
// panics.
package units

import (
	"math"
	"strconv"
	"strings"
)

// directionLabels covers the compass in 22.5 degree buckets.  Bucket 0
// and bucket 16 both map to north so that 359.9 degrees rounds back to "N".
var directionLabels = [17]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW", "N",
}

// DirectionUnknown is returned for non-finite direction input.
const DirectionUnknown = "Unknown"

// DirectionLabel converts compass degrees to one of 17 cardinal labels.
// Input is normalized into [0, 360); NaN or infinite input yields
// DirectionUnknown.
func DirectionLabel(degrees float64) string {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return DirectionUnknown
	}
	deg := math.Mod(degrees, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg / 22.5))
	return directionLabels[idx]
}

// DirectionLabelString converts a textual degrees value to a cardinal
// label.  Input that does not parse as a finite number yields
// DirectionUnknown.
func DirectionLabelString(degrees string) string {
	v, ok := FiniteFloat(degrees)
	if !ok {
		return DirectionUnknown
	}
	return DirectionLabel(v)
}

// InHgToHPa converts inches of mercury to hectopascals.
func InHgToHPa(inHg float64) float64 {
	return inHg * 33.8638816
}

// FahrenheitToCelsius converts degrees Fahrenheit to Celsius.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// InchesToMillimeters converts inches to millimeters.
func InchesToMillimeters(in float64) float64 {
	return in * 25.4
}

// MphToMetersPerSecond converts miles per hour to meters per second.
func MphToMetersPerSecond(mph float64) float64 {
	return mph * 0.44704
}

// KmhToMetersPerSecond converts kilometers per hour to meters per second.
func KmhToMetersPerSecond(kmh float64) float64 {
	return kmh / 3.6
}

// Battery voltage envelopes per device family.  The serial prefix
// selects the curve: Tempest units ("ST") run a smaller cell than the
// older Air ("AR") and Sky ("SK") hardware.
const (
	tempestVoltsEmpty = 1.80
	tempestVoltsFull  = 2.85
	airSkyVoltsEmpty  = 2.00
	airSkyVoltsFull   = 3.50
)

// BatteryPercent maps a device battery voltage to a 0-100 charge level
// using the voltage curve for the device family identified by the
// serial number prefix.  Unknown prefixes use the Tempest curve.
func BatteryPercent(serial string, volts float64) float64 {
	empty, full := tempestVoltsEmpty, tempestVoltsFull
	if strings.HasPrefix(serial, "AR") || strings.HasPrefix(serial, "SK") {
		empty, full = airSkyVoltsEmpty, airSkyVoltsFull
	}
	pct := (volts - empty) / (full - empty) * 100
	return math.Min(100, math.Max(0, pct))
}

// FiniteFloat parses s as a float and reports whether the result is a
// finite number.  Adapters use this instead of integer-parse heuristics
// so that legitimate fractional values below 1 are not misclassified.
func FiniteFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Finite reports whether v is an ordinary number.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
