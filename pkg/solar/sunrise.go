// Package solar computes sunrise and sunset times for a location, used
// to fill forecast-day fields when a provider payload omits them.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Zenith for official sunrise/sunset: 90° plus refraction and solar radius.
const officialZenithDeg = 90.833

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// solarPosition returns the Sun's declination in radians and the
// equation of time in minutes for the given instant.
func solarPosition(t time.Time) (declRad, eqTimeMin float64) {
	jd := julian.TimeToJD(t.UTC())
	T := (jd - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	sunLong := L0 + C
	omega := 125.04 - 1934.136*T
	lambda := sunLong - 0.00569 - 0.00478*math.Sin(degToRad(omega))
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	declRad = math.Asin(math.Sin(degToRad(eps0)) * math.Sin(degToRad(lambda)))

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	eqTimeMin = radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4

	return declRad, eqTimeMin
}

// SunTimes returns sunrise and sunset for the calendar day containing
// date at the given latitude and longitude (degrees, east positive),
// expressed in date's location.  ok is false during polar day or polar
// night, when the sun never crosses the horizon.
func SunTimes(date time.Time, latitude, longitude float64) (sunrise, sunset time.Time, ok bool) {
	loc := date.Location()
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)

	declRad, eqTimeMin := solarPosition(noon)

	latRad := degToRad(latitude)
	cosHA := (math.Cos(degToRad(officialZenithDeg)) - math.Sin(latRad)*math.Sin(declRad)) /
		(math.Cos(latRad) * math.Cos(declRad))
	if cosHA < -1 || cosHA > 1 {
		return time.Time{}, time.Time{}, false
	}
	haDeg := radToDeg(math.Acos(cosHA))

	riseMinUTC := 720 - 4*(longitude+haDeg) - eqTimeMin
	setMinUTC := 720 - 4*(longitude-haDeg) - eqTimeMin

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	sunrise = midnight.Add(time.Duration(riseMinUTC * float64(time.Minute))).In(loc)
	sunset = midnight.Add(time.Duration(setMinUTC * float64(time.Minute))).In(loc)
	return sunrise, sunset, true
}
