// Package weatherflow implements the WeatherFlow local-broadcast
// adapter.  Tempest, Air, and Sky devices broadcast JSON datagrams on a
// fixed UDP port; the adapter folds each message type into its owned
// report state and answers fetches from that state without blocking.
// Only one instance may listen per process per port.
package weatherflow

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2"
	"github.com/vaneworks/weathervane/internal/conditions"
	"github.com/vaneworks/weathervane/internal/providers"
	"github.com/vaneworks/weathervane/internal/rainfall"
	"github.com/vaneworks/weathervane/internal/state"
	"github.com/vaneworks/weathervane/internal/types"
	"github.com/vaneworks/weathervane/internal/units"
	"github.com/vaneworks/weathervane/pkg/config"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

const defaultListenPort = 50222

// strikeWindow bounds the number of recent strike distances retained
// for the rolling average.
const strikeWindow = 50

func init() {
	providers.Register("weatherflow", NewStation)
}

// conditionTable maps the obs_st precipitation-type field to the shared
// ordinals.  0 none, 1 rain, 2 hail, 3 rain and hail mixed.
var conditionTable = map[string]conditions.Mapping{
	"0": {Category: conditions.Clear, Detailed: conditions.DetailedClear},
	"1": {Category: conditions.Rain, Detailed: conditions.DetailedRain},
	"2": {Category: conditions.Rain, Detailed: conditions.DetailedHail},
	"3": {Category: conditions.Rain, Detailed: conditions.DetailedRain},
}

// snapshot is the persisted adapter state: the last-known report plus
// the accumulator and day-tracker internals needed to survive a restart
// without losing the trailing-hour and day-scoped totals.
type snapshot struct {
	Report      types.Report
	Slots       []float64
	LastMinute  int
	DayKey      string
	RainDay     float64
	TempMin     float64
	LastVoltage float64
	Distances   []float64
}

// Station is the WeatherFlow adapter.  All mutable state lives behind
// mu; gnet's event loop delivers datagrams sequentially, so handling is
// strictly ordered per instance.
type Station struct {
	gnet.BuiltinEventEngine

	cfg    config.SourceData
	logger *zap.SugaredLogger
	store  *state.Store
	port   int
	loc    *time.Location
	meta   types.Metadata

	eng    gnet.Engine
	booted chan struct{}

	mu          sync.Mutex
	report      types.Report
	hour        rainfall.HourAccumulator
	daily       rainfall.DailyTracker
	lastVoltage float64
	distances   []float64
}

// NewStation creates a WeatherFlow adapter and restores any persisted
// snapshot that has not aged out.
func NewStation(deps providers.Deps, cfg config.SourceData) (providers.Provider, error) {
	port := cfg.ListenPort
	if port == 0 {
		port = defaultListenPort
	}
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("weatherflow source [%s]: invalid listen port %d", cfg.Name, port)
	}

	logger := deps.Logger.Named("weatherflow").With("station", cfg.Name)

	loc, err := cfg.Location()
	if err != nil {
		logger.Warnw("invalid timezone, using UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}

	s := &Station{
		cfg:    cfg,
		logger: logger,
		store:  deps.State,
		port:   port,
		loc:    loc,
		booted: make(chan struct{}),
		report: types.Report{
			// Sentinel defaults reported until the first message of the
			// relevant type arrives.
			AirPressure:    0,
			Humidity:       1,
			Temperature:    0,
			TemperatureMin: 50,
			WindDirection:  units.DirectionLabel(0),
			Condition:      "clear",
		},
		meta: types.Metadata{
			Attribution: "Powered by WeatherFlow",
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
				types.FieldCondition,
				types.FieldConditionCategory,
				types.FieldObservationStation,
				types.FieldObservationTime,
				types.FieldBatteryLevel,
				types.FieldBatteryIsCharging,
				types.FieldLightningStrikes,
				types.FieldLightningAvgDistance,
			},
			ForecastCharacteristics: []string{},
			ForecastDays:            0,
		},
	}

	s.restore()
	return s, nil
}

// Metadata returns the static capability description.
func (s *Station) Metadata() types.Metadata {
	return s.meta
}

// FetchReport answers from the latest message-driven state.  It never
// blocks: devices that have not yet broadcast a given message type are
// represented by the construction-time sentinels.
func (s *Station) FetchReport(ctx context.Context) (types.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report, nil
}

// FetchForecast always returns an empty slice: local sensors carry no
// forecast.
func (s *Station) FetchForecast(ctx context.Context, days int) ([]types.ForecastDay, error) {
	return []types.ForecastDay{}, nil
}

// Start binds the UDP listener.  It returns once the event loop has
// booted or failed to bind.
func (s *Station) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- gnet.Run(s, fmt.Sprintf("udp://:%d", s.port),
			gnet.WithLogger(s.logger),
			gnet.WithReusePort(true))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start UDP listener on port %d: %w", s.port, err)
		}
		return nil
	case <-s.booted:
		s.logger.Infof("UDP listener started on port %d", s.port)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts down the UDP listener.
func (s *Station) Stop() error {
	select {
	case <-s.booted:
	default:
		return nil
	}
	return s.eng.Stop(context.Background())
}

// OnBoot captures the engine handle for shutdown.
func (s *Station) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = eng
	close(s.booted)
	return gnet.None
}

// OnTraffic handles one inbound datagram.
func (s *Station) OnTraffic(c gnet.Conn) gnet.Action {
	data, err := c.Next(-1)
	if err != nil {
		s.logger.Errorf("UDP read error: %v", err)
		return gnet.None
	}
	s.handleDatagram(data)
	return gnet.None
}

// handleDatagram decodes and dispatches one datagram.  Parse failures
// are logged with the offending payload and skipped; state is never
// partially mutated by a bad message.
func (s *Station) handleDatagram(data []byte) {
	serial, msg, err := decodeMessage(data)
	if err != nil {
		s.logger.Errorw("unable to decode datagram", "error", err, "payload", string(data))
		return
	}
	if msg == nil {
		return
	}
	if s.cfg.SerialNumber != "" && serial != s.cfg.SerialNumber {
		return
	}
	s.handleMessage(serial, msg)
}

// handleMessage folds one typed message into the report state.  Each
// message type mutates only the fields it is documented to carry.
func (s *Station) handleMessage(serial string, msg interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := msg.(type) {
	case *stationObservation:
		s.report.ObservationStation = serial
		s.report.ObservationTime = m.Time
		s.report.AirPressure = s.finite("pressure", m.Pressure)
		s.report.Temperature = s.finite("temperature", m.Temperature)
		s.report.Humidity = s.finite("humidity", m.Humidity)
		s.report.WindSpeed = m.WindAvg
		s.report.WindSpeedMax = m.WindGust
		s.report.WindDirection = units.DirectionLabel(m.WindDirection)
		s.report.SolarRadiation = m.SolarRadiation
		s.report.UVIndex = m.UVIndex
		s.observePrecip(m.Time, s.finite("rain", m.RainLastMinute), m.Temperature)
		s.observePrecipType(m.PrecipType, m.RainLastMinute)
		s.report.LightningStrikes = m.StrikeCount
		s.report.LightningAvgDistance = m.StrikeAvgDistance
		s.observeBattery(serial, m.BatteryVolts)
		s.derive()

	case *airObservation:
		s.report.ObservationStation = serial
		s.report.ObservationTime = m.Time
		s.report.AirPressure = s.finite("pressure", m.Pressure)
		s.report.Temperature = s.finite("temperature", m.Temperature)
		s.report.Humidity = s.finite("humidity", m.Humidity)
		s.report.RainDay, s.report.TemperatureMin = s.daily.Observe(m.Time.In(s.loc), 0, m.Temperature)
		s.report.LightningStrikes = m.StrikeCount
		s.report.LightningAvgDistance = m.StrikeAvgDistance
		s.observeBattery(serial, m.BatteryVolts)
		s.derive()

	case *skyObservation:
		s.report.ObservationStation = serial
		s.report.ObservationTime = m.Time
		s.report.WindSpeed = m.WindAvg
		s.report.WindSpeedMax = m.WindGust
		s.report.WindDirection = units.DirectionLabel(m.WindDirection)
		s.report.SolarRadiation = m.SolarRadiation
		s.report.UVIndex = m.UVIndex
		s.observePrecip(m.Time, s.finite("rain", m.RainLastMinute), s.report.Temperature)
		s.observeBattery(serial, m.BatteryVolts)

	case *rapidWind:
		s.report.WindSpeed = m.Speed
		s.report.WindDirection = units.DirectionLabel(m.Direction)

	case *precipEvent:
		s.report.RainBool = true
		s.report.ConditionCategory = int(conditions.Rain)
		s.report.Condition = "rain"

	case *strikeEvent:
		s.report.LightningStrikes++
		s.distances = append(s.distances, m.Distance)
		if len(s.distances) > strikeWindow {
			s.distances = s.distances[len(s.distances)-strikeWindow:]
		}
		s.report.LightningAvgDistance = meanDistance(s.distances)

	case *deviceStatus:
		s.observeBattery(serial, m.Voltage)
	}

	s.persist()
}

// observePrecip feeds one minute-resolution rain amount through the
// trailing-hour accumulator and the day tracker.  The observation time
// is shifted into the reporting zone first: the day key follows local
// midnight, and zones with fractional UTC offsets also shift the
// minute-of-hour slotting.
func (s *Station) observePrecip(t time.Time, rainMM, tempC float64) {
	local := t.In(s.loc)
	s.report.Rain1h = s.hour.Add(local, rainMM)
	s.report.RainDay, s.report.TemperatureMin = s.daily.Observe(local, rainMM, tempC)
	s.report.RainBool = rainMM > 0
}

func (s *Station) observePrecipType(precipType int, rainMM float64) {
	code := strconv.Itoa(precipType)
	s.report.ConditionCategory = conditions.Lookup(conditionTable, code, false, s.logger)
	switch precipType {
	case 1, 3:
		s.report.Condition = "rain"
	case 2:
		s.report.Condition = "hail"
	default:
		s.report.Condition = "clear"
	}
	s.report.RainBool = precipType != 0 || rainMM > 0
}

// observeBattery converts the reported voltage through the serial
// prefix's curve and infers charge direction from the voltage delta
// against the previous sample.
func (s *Station) observeBattery(serial string, volts float64) {
	s.report.BatteryLevel = units.BatteryPercent(serial, volts)
	s.report.BatteryIsCharging = s.lastVoltage > 0 && volts > s.lastVoltage
	s.lastVoltage = volts
}

// derive recomputes the psychrometric fields from the current primary
// readings.
func (s *Station) derive() {
	s.report.DewPoint = units.DewPoint(s.report.Temperature, s.report.Humidity)
	s.report.TemperatureApparent = units.ApparentTemperature(s.report.Temperature, s.report.Humidity, s.report.WindSpeed)
	s.report.TemperatureWetBulb = units.WetBulb(s.report.Temperature, s.report.Humidity)
}

// finite replaces a non-finite reading with 0 and warns once per
// occurrence.
func (s *Station) finite(field string, v float64) float64 {
	if units.Finite(v) {
		return v
	}
	s.logger.Warnw("non-finite observation value, using 0", "field", field)
	return 0
}

func (s *Station) persist() {
	if s.store == nil {
		return
	}

	slots, lastMinute := s.hour.Snapshot()
	dayKey, rainDay, tempMin := s.daily.Snapshot()
	snap := snapshot{
		Report:      s.report,
		Slots:       slots,
		LastMinute:  lastMinute,
		DayKey:      dayKey,
		RainDay:     rainDay,
		TempMin:     tempMin,
		LastVoltage: s.lastVoltage,
		Distances:   s.distances,
	}
	if err := s.store.Save(s.stateKey(), snap); err != nil {
		s.logger.Errorf("failed to persist snapshot: %v", err)
	}
}

func (s *Station) restore() {
	if s.store == nil {
		return
	}

	var snap snapshot
	ok, err := s.store.Load(s.stateKey(), &snap)
	if err != nil {
		s.logger.Errorf("failed to load snapshot: %v", err)
		return
	}
	if !ok {
		return
	}

	s.report = snap.Report
	s.hour.Restore(snap.Slots, snap.LastMinute)
	s.daily.Restore(snap.DayKey, snap.RainDay, snap.TempMin)
	s.lastVoltage = snap.LastVoltage
	s.distances = snap.Distances
	s.logger.Info("restored persisted adapter state")
}

func (s *Station) stateKey() string {
	return "weatherflow:" + s.cfg.Name
}

// meanDistance averages the retained strike distances.
func meanDistance(distances []float64) float64 {
	if len(distances) == 0 {
		return 0
	}
	return stat.Mean(distances, nil)
}
