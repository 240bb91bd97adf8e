package units

import "math"

// Magnus formula coefficients over water (Sonntag 1990).
const (
	magnusB = 17.62
	magnusC = 243.12
)

// DewPoint calculates the dew point in Celsius from dry-bulb temperature
// in Celsius and relative humidity in percent using the Magnus formula.
func DewPoint(tempC, humidity float64) float64 {
	gamma := math.Log(humidity/100) + magnusB*tempC/(magnusC+tempC)
	return magnusC * gamma / (magnusB - gamma)
}

// ApparentTemperature calculates the Australian apparent temperature, a
// heat-index/wind-chill blend, from temperature in Celsius, relative
// humidity in percent, and wind speed in meters per second.
func ApparentTemperature(tempC, humidity, windMS float64) float64 {
	// Water vapour pressure in hPa
	e := humidity / 100 * 6.105 * math.Exp(17.27*tempC/(237.7+tempC))
	return tempC + 0.33*e - 0.70*windMS - 4.00
}

// WetBulb calculates the wet-bulb temperature in Celsius from dry-bulb
// temperature in Celsius and relative humidity in percent using the
// Stull (2011) closed-form approximation.  The fit is valid for
// humidity in [5,99] percent and temperature in [-20,50] Celsius;
// outside that envelope a number is still returned but its accuracy is
// not guaranteed.
func WetBulb(tempC, humidity float64) float64 {
	return tempC*math.Atan(0.151977*math.Sqrt(humidity+8.313659)) +
		math.Atan(tempC+humidity) -
		math.Atan(humidity-1.676331) +
		0.00391838*math.Pow(humidity, 1.5)*math.Atan(0.023101*humidity) -
		4.686035
}
