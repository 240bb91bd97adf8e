package weatherflow

import (
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the common framing shared by every WeatherFlow datagram:
// a type tag, the emitting device serial, and one of several
// positionally-encoded payload arrays depending on the type.
type envelope struct {
	Type         string      `json:"type"`
	SerialNumber string      `json:"serial_number"`
	HubSerial    string      `json:"hub_sn"`
	Obs          [][]float64 `json:"obs"`
	Ob           []float64   `json:"ob"`
	Evt          []float64   `json:"evt"`
	Voltage      *float64    `json:"voltage"`
}

// stationObservation is a Tempest obs_st record.  Positional layout:
// 0 epoch seconds, 1 wind lull m/s, 2 wind average m/s, 3 wind gust
// m/s, 4 wind direction degrees, 5 pressure hPa, 6 temperature C,
// 7 relative humidity percent, 8 solar radiation W/m2, 9 illuminance
// lux, 10 UV index, 11 rain over the last minute mm, 12 precipitation
// type, 13 strike average distance km, 14 strike count, 15 battery V.
type stationObservation struct {
	Time              time.Time
	WindLull          float64
	WindAvg           float64
	WindGust          float64
	WindDirection     float64
	Pressure          float64
	Temperature       float64
	Humidity          float64
	SolarRadiation    float64
	Illuminance       float64
	UVIndex           float64
	RainLastMinute    float64
	PrecipType        int
	StrikeAvgDistance float64
	StrikeCount       int
	BatteryVolts      float64
}

// airObservation is an Air obs_air record: 0 epoch, 1 pressure hPa,
// 2 temperature C, 3 relative humidity percent, 4 strike count,
// 5 strike average distance km, 6 battery V.
type airObservation struct {
	Time              time.Time
	Pressure          float64
	Temperature       float64
	Humidity          float64
	StrikeCount       int
	StrikeAvgDistance float64
	BatteryVolts      float64
}

// skyObservation is a Sky obs_sky record: 0 epoch, 1 illuminance lux,
// 2 UV index, 3 rain over the last minute mm, 4 wind lull m/s, 5 wind
// average m/s, 6 wind gust m/s, 7 wind direction degrees, 8 battery V,
// 9 report interval minutes, 10 solar radiation W/m2.
type skyObservation struct {
	Time           time.Time
	Illuminance    float64
	UVIndex        float64
	RainLastMinute float64
	WindLull       float64
	WindAvg        float64
	WindGust       float64
	WindDirection  float64
	BatteryVolts   float64
	SolarRadiation float64
}

// rapidWind is a rapid_wind record: ob = [epoch, speed m/s, direction].
type rapidWind struct {
	Time      time.Time
	Speed     float64
	Direction float64
}

// precipEvent is an evt_precip rain-start event: evt = [epoch].
type precipEvent struct {
	Time time.Time
}

// strikeEvent is an evt_strike lightning event: evt = [epoch,
// distance km, energy].
type strikeEvent struct {
	Time     time.Time
	Distance float64
	Energy   float64
}

// deviceStatus carries the hub-reported sensor health fields; only the
// battery voltage is consumed here.
type deviceStatus struct {
	Voltage float64
}

// decodeMessage parses one datagram into its typed variant.  The
// returned message is nil for unknown types, which the caller skips
// without logging.  Malformed payloads and short observation arrays
// return an error.
func decodeMessage(data []byte) (serial string, msg interface{}, err error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("malformed datagram: %w", err)
	}

	switch env.Type {
	case "obs_st":
		obs, err := firstObs(env.Obs, 16)
		if err != nil {
			return env.SerialNumber, nil, fmt.Errorf("obs_st: %w", err)
		}
		return env.SerialNumber, &stationObservation{
			Time:              time.Unix(int64(obs[0]), 0).UTC(),
			WindLull:          obs[1],
			WindAvg:           obs[2],
			WindGust:          obs[3],
			WindDirection:     obs[4],
			Pressure:          obs[5],
			Temperature:       obs[6],
			Humidity:          obs[7],
			SolarRadiation:    obs[8],
			Illuminance:       obs[9],
			UVIndex:           obs[10],
			RainLastMinute:    obs[11],
			PrecipType:        int(obs[12]),
			StrikeAvgDistance: obs[13],
			StrikeCount:       int(obs[14]),
			BatteryVolts:      obs[15],
		}, nil

	case "obs_air":
		obs, err := firstObs(env.Obs, 7)
		if err != nil {
			return env.SerialNumber, nil, fmt.Errorf("obs_air: %w", err)
		}
		return env.SerialNumber, &airObservation{
			Time:              time.Unix(int64(obs[0]), 0).UTC(),
			Pressure:          obs[1],
			Temperature:       obs[2],
			Humidity:          obs[3],
			StrikeCount:       int(obs[4]),
			StrikeAvgDistance: obs[5],
			BatteryVolts:      obs[6],
		}, nil

	case "obs_sky":
		obs, err := firstObs(env.Obs, 11)
		if err != nil {
			return env.SerialNumber, nil, fmt.Errorf("obs_sky: %w", err)
		}
		return env.SerialNumber, &skyObservation{
			Time:           time.Unix(int64(obs[0]), 0).UTC(),
			Illuminance:    obs[1],
			UVIndex:        obs[2],
			RainLastMinute: obs[3],
			WindLull:       obs[4],
			WindAvg:        obs[5],
			WindGust:       obs[6],
			WindDirection:  obs[7],
			BatteryVolts:   obs[8],
			SolarRadiation: obs[10],
		}, nil

	case "rapid_wind":
		if len(env.Ob) < 3 {
			return env.SerialNumber, nil, fmt.Errorf("rapid_wind: ob has %d fields, want 3", len(env.Ob))
		}
		return env.SerialNumber, &rapidWind{
			Time:      time.Unix(int64(env.Ob[0]), 0).UTC(),
			Speed:     env.Ob[1],
			Direction: env.Ob[2],
		}, nil

	case "evt_precip":
		if len(env.Evt) < 1 {
			return env.SerialNumber, nil, fmt.Errorf("evt_precip: evt has %d fields, want 1", len(env.Evt))
		}
		return env.SerialNumber, &precipEvent{
			Time: time.Unix(int64(env.Evt[0]), 0).UTC(),
		}, nil

	case "evt_strike":
		if len(env.Evt) < 3 {
			return env.SerialNumber, nil, fmt.Errorf("evt_strike: evt has %d fields, want 3", len(env.Evt))
		}
		return env.SerialNumber, &strikeEvent{
			Time:     time.Unix(int64(env.Evt[0]), 0).UTC(),
			Distance: env.Evt[1],
			Energy:   env.Evt[2],
		}, nil

	case "device_status":
		if env.Voltage == nil {
			return env.SerialNumber, nil, fmt.Errorf("device_status: missing voltage")
		}
		return env.SerialNumber, &deviceStatus{Voltage: *env.Voltage}, nil
	}

	// Unknown message types are expected on the broadcast port.
	return env.SerialNumber, nil, nil
}

func firstObs(obs [][]float64, want int) ([]float64, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("empty obs array")
	}
	if len(obs[0]) < want {
		return nil, fmt.Errorf("obs record has %d fields, want %d", len(obs[0]), want)
	}
	return obs[0], nil
}
