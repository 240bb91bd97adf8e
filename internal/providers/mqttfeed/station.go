// Package mqttfeed implements the message-bus adapter.  A broker
// publishes the same current-plus-daily JSON shape the HTTP providers
// poll for; the adapter retains the newest payload and normalizes it
// when a report or forecast is requested.
package mqttfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
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
	connectTimeout  = 10 * time.Second
	maxForecastDays = 7
)

func init() {
	providers.Register("mqttfeed", NewStation)
}

// feedPayload is the published document: a current-conditions block and
// an optional sequence of daily forecast blocks.
type feedPayload struct {
	Current currentBlock `json:"current"`
	Daily   []dailyBlock `json:"daily"`
}

type currentBlock struct {
	Time           int64   `json:"time"`
	Temperature    float64 `json:"temperature"`
	Humidity       float64 `json:"humidity"`
	Pressure       float64 `json:"pressure"`
	WindSpeed      float64 `json:"wind_speed"`
	WindGust       float64 `json:"wind_gust"`
	WindDirection  float64 `json:"wind_direction"`
	UVIndex        float64 `json:"uv_index"`
	SolarRadiation float64 `json:"solar_radiation"`
	Rain1h         float64 `json:"rain_1h"`
	Rain           float64 `json:"rain"`
	Condition      string  `json:"condition"`
}

type dailyBlock struct {
	Time           int64   `json:"time"`
	Sunrise        int64   `json:"sunrise"`
	Sunset         int64   `json:"sunset"`
	TemperatureMax float64 `json:"temperature_max"`
	TemperatureMin float64 `json:"temperature_min"`
	RainChance     float64 `json:"rain_chance"`
	Rain           float64 `json:"rain"`
	Condition      string  `json:"condition"`
}

// Station is the message-bus adapter.  The subscription handler only
// retains the raw payload; parsing happens when a fetch asks for it, so
// a malformed publish surfaces as that fetch's error and never corrupts
// the previously retained state.
type Station struct {
	cfg    config.SourceData
	logger *zap.SugaredLogger
	client mqtt.Client
	loc    *time.Location
	meta   types.Metadata

	mu           sync.Mutex
	payload      []byte
	daily        rainfall.DailyTracker
	lastObserved int64
	rainDay      float64
	tempMin      float64
}

// NewStation creates a message-bus adapter instance.
func NewStation(deps providers.Deps, cfg config.SourceData) (providers.Provider, error) {
	if cfg.BrokerURL == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("mqttfeed source [%s] requires broker_url and topic", cfg.Name)
	}

	days := cfg.ForecastDays
	if days <= 0 || days > maxForecastDays {
		days = maxForecastDays
	}

	logger := deps.Logger.Named("mqttfeed").With("station", cfg.Name)

	loc, err := cfg.Location()
	if err != nil {
		logger.Warnw("invalid timezone, using UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}

	return &Station{
		cfg:     cfg,
		logger:  logger,
		loc:     loc,
		tempMin: 50,
		meta: types.Metadata{
			Attribution: "Published via " + cfg.Topic,
			ReportCharacteristics: []string{
				types.FieldTemperature,
				types.FieldTemperatureApparent,
				types.FieldTemperatureWetBulb,
				types.FieldTemperatureMin,
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

// Start connects to the broker and subscribes to the configured topic.
func (s *Station) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.BrokerURL).
		SetClientID("weathervane-" + s.cfg.Name).
		SetUsername(s.cfg.Username).
		SetPassword(s.cfg.Password).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(c mqtt.Client) {
			if tok := c.Subscribe(s.cfg.Topic, 0, s.onMessage); tok.Wait() && tok.Error() != nil {
				s.logger.Errorf("failed to subscribe to %s: %v", s.cfg.Topic, tok.Error())
			}
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			s.logger.Warnf("broker connection lost: %v", err)
		})

	s.client = mqtt.NewClient(opts)
	if tok := s.client.Connect(); tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("failed to connect to broker %s: %w", s.cfg.BrokerURL, tok.Error())
	}
	s.logger.Infof("subscribed to %s on %s", s.cfg.Topic, s.cfg.BrokerURL)
	return nil
}

// Stop disconnects from the broker.
func (s *Station) Stop() error {
	if s.client != nil {
		s.client.Disconnect(250)
	}
	return nil
}

func (s *Station) onMessage(_ mqtt.Client, msg mqtt.Message) {
	s.retain(msg.Payload())
}

// retain stores a copy of the newest published payload.
func (s *Station) retain(payload []byte) {
	buf := make([]byte, len(payload))
	copy(buf, payload)

	s.mu.Lock()
	s.payload = buf
	s.mu.Unlock()
}

// FetchReport normalizes the most recently retained payload.
func (s *Station) FetchReport(ctx context.Context) (types.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := s.parseLocked()
	if err != nil {
		return types.Report{}, err
	}
	if payload == nil {
		// Nothing published yet: answer with the sentinel defaults.
		return types.Report{
			AirPressure:    0,
			Humidity:       1,
			Temperature:    0,
			TemperatureMin: 50,
			WindDirection:  units.DirectionLabel(0),
			Condition:      "clear",
		}, nil
	}

	cur := payload.Current
	obsTime := time.Unix(cur.Time, 0).UTC()

	// Each published document is observed at most once by the day
	// tracker, keyed on its observation time, so repeated fetches of
	// the same retained payload cannot double-count rain.  The tracker
	// sees the time in the reporting zone: daily fields reset at local
	// midnight, not UTC midnight.
	if cur.Time != s.lastObserved {
		s.rainDay, s.tempMin = s.daily.Observe(obsTime.In(s.loc), s.finite("rain", cur.Rain), cur.Temperature)
		s.lastObserved = cur.Time
	}

	category := conditions.Lookup(conditionTable, cur.Condition, false, s.logger)

	return types.Report{
		Temperature:         cur.Temperature,
		TemperatureApparent: units.ApparentTemperature(cur.Temperature, cur.Humidity, cur.WindSpeed),
		TemperatureWetBulb:  units.WetBulb(cur.Temperature, cur.Humidity),
		TemperatureMin:      s.tempMin,
		Humidity:            cur.Humidity,
		AirPressure:         cur.Pressure,
		DewPoint:            units.DewPoint(cur.Temperature, cur.Humidity),
		WindSpeed:           cur.WindSpeed,
		WindSpeedMax:        cur.WindGust,
		WindDirection:       units.DirectionLabel(cur.WindDirection),
		UVIndex:             cur.UVIndex,
		SolarRadiation:      cur.SolarRadiation,
		Rain1h:              s.finite("rain_1h", cur.Rain1h),
		RainDay:             s.rainDay,
		RainBool:            conditions.IsRain(category) || cur.Rain1h > 0,
		SnowBool:            conditions.IsSnow(category),
		Condition:           cur.Condition,
		ConditionCategory:   category,
		ObservationTime:     obsTime,
	}, nil
}

// FetchForecast normalizes up to days daily blocks from the most
// recently retained payload.
func (s *Station) FetchForecast(ctx context.Context, days int) ([]types.ForecastDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := s.parseLocked()
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return []types.ForecastDay{}, nil
	}

	if days > len(payload.Daily) {
		days = len(payload.Daily)
	}

	forecasts := make([]types.ForecastDay, 0, days)
	for _, day := range payload.Daily[:days] {
		date := time.Unix(day.Time, 0).UTC()
		sunrise := time.Unix(day.Sunrise, 0).UTC()
		sunset := time.Unix(day.Sunset, 0).UTC()
		if day.Sunrise == 0 || day.Sunset == 0 {
			if rise, set, ok := solar.SunTimes(date, s.cfg.Latitude, s.cfg.Longitude); ok {
				sunrise, sunset = rise, set
			}
		}

		forecasts = append(forecasts, types.ForecastDay{
			Day:               date.Weekday().String(),
			Condition:         day.Condition,
			ConditionCategory: conditions.Lookup(conditionTable, day.Condition, false, s.logger),
			TemperatureMax:    day.TemperatureMax,
			TemperatureMin:    day.TemperatureMin,
			RainChance:        day.RainChance,
			RainDay:           day.Rain,
			SunriseTime:       sunrise,
			SunsetTime:        sunset,
		})
	}

	return forecasts, nil
}

// parseLocked decodes the retained payload.  A nil payload with nil
// error means nothing has been published yet.  Callers hold mu.
func (s *Station) parseLocked() (*feedPayload, error) {
	if s.payload == nil {
		return nil, nil
	}

	p := &feedPayload{}
	if err := json.Unmarshal(s.payload, p); err != nil {
		s.logger.Errorw("malformed feed payload", "error", err, "payload", string(s.payload))
		return nil, fmt.Errorf("unable to decode feed payload: %w", err)
	}
	return p, nil
}

func (s *Station) finite(field string, v float64) float64 {
	if units.Finite(v) {
		return v
	}
	s.logger.Warnw("non-finite feed value, using 0", "field", field)
	return 0
}
