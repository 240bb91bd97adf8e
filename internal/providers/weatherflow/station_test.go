package weatherflow

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/vaneworks/weathervane/internal/conditions"
	"github.com/vaneworks/weathervane/internal/providers"
	"github.com/vaneworks/weathervane/internal/state"
	"github.com/vaneworks/weathervane/internal/types"
	"github.com/vaneworks/weathervane/pkg/config"
	"go.uber.org/zap"
)

func newTestStation(t *testing.T, cfg config.SourceData, store *state.Store) *Station {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "backyard"
	}
	cfg.Type = "weatherflow"

	p, err := NewStation(providers.Deps{Logger: zap.NewNop().Sugar(), State: store}, cfg)
	if err != nil {
		t.Fatalf("NewStation: %v", err)
	}
	return p.(*Station)
}

func fetch(t *testing.T, s *Station) types.Report {
	t.Helper()
	r, err := s.FetchReport(context.Background())
	if err != nil {
		t.Fatalf("FetchReport: %v", err)
	}
	return r
}

func TestSentinelDefaults(t *testing.T) {
	s := newTestStation(t, config.SourceData{}, nil)
	r := fetch(t, s)

	if r.AirPressure != 0 {
		t.Errorf("AirPressure = %v, want sentinel 0", r.AirPressure)
	}
	if r.Humidity != 1 {
		t.Errorf("Humidity = %v, want sentinel 1", r.Humidity)
	}
	if r.Temperature != 0 {
		t.Errorf("Temperature = %v, want sentinel 0", r.Temperature)
	}
	if r.TemperatureMin != 50 {
		t.Errorf("TemperatureMin = %v, want sentinel 50", r.TemperatureMin)
	}
}

func TestStationObservationEndToEnd(t *testing.T) {
	s := newTestStation(t, config.SourceData{}, nil)
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609459200, 0,0,0, 0, 1013.0, 20.0, 45, 0,12000, 3, 0.0, 0, 0,0, 2.6]]}`))

	r := fetch(t, s)
	if r.AirPressure != 1013.0 {
		t.Errorf("AirPressure = %v, want 1013.0", r.AirPressure)
	}
	if r.Temperature != 20.0 {
		t.Errorf("Temperature = %v, want 20.0", r.Temperature)
	}
	if r.Humidity != 45 {
		t.Errorf("Humidity = %v, want 45", r.Humidity)
	}
	if r.Rain1h != 0.0 {
		t.Errorf("Rain1h = %v, want 0.0", r.Rain1h)
	}
	if r.RainDay != 0.0 {
		t.Errorf("RainDay = %v, want 0.0 on the first observation of its day", r.RainDay)
	}
	if r.ObservationStation != "ST-001" {
		t.Errorf("ObservationStation = %q, want ST-001", r.ObservationStation)
	}
	// 2.6V on the Tempest 1.80-2.85V curve.
	want := (2.6 - 1.80) / (2.85 - 1.80) * 100
	if math.Abs(r.BatteryLevel-want) > 0.01 {
		t.Errorf("BatteryLevel = %v, want %v", r.BatteryLevel, want)
	}
	if r.BatteryIsCharging {
		t.Error("BatteryIsCharging = true on the first voltage sample")
	}
}

func TestRapidWindUpdatesOnlyWind(t *testing.T) {
	s := newTestStation(t, config.SourceData{}, nil)
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609459200, 0,1.5,3.0, 0, 1013.0, 20.0, 45, 0,12000, 3, 0.0, 0, 0,0, 2.6]]}`))
	s.handleDatagram([]byte(`{"type":"rapid_wind","serial_number":"ST-001","ob":[1609459203, 4.2, 90]}`))

	r := fetch(t, s)
	if r.WindSpeed != 4.2 {
		t.Errorf("WindSpeed = %v, want 4.2", r.WindSpeed)
	}
	if r.WindDirection != "E" {
		t.Errorf("WindDirection = %q, want E", r.WindDirection)
	}
	if r.Temperature != 20.0 {
		t.Errorf("Temperature = %v after rapid_wind, want unchanged 20.0", r.Temperature)
	}
	if r.AirPressure != 1013.0 {
		t.Errorf("AirPressure = %v after rapid_wind, want unchanged 1013.0", r.AirPressure)
	}
}

func TestDeviceStatusChargeInference(t *testing.T) {
	s := newTestStation(t, config.SourceData{}, nil)

	s.handleDatagram([]byte(`{"type":"device_status","serial_number":"ST-001","voltage":2.50}`))
	if r := fetch(t, s); r.BatteryIsCharging {
		t.Error("charging inferred from the first voltage sample")
	}

	s.handleDatagram([]byte(`{"type":"device_status","serial_number":"ST-001","voltage":2.55}`))
	if r := fetch(t, s); !r.BatteryIsCharging {
		t.Error("rising voltage not inferred as charging")
	}

	s.handleDatagram([]byte(`{"type":"device_status","serial_number":"ST-001","voltage":2.52}`))
	if r := fetch(t, s); r.BatteryIsCharging {
		t.Error("falling voltage inferred as charging")
	}
}

func TestStrikeEvents(t *testing.T) {
	s := newTestStation(t, config.SourceData{}, nil)
	s.handleDatagram([]byte(`{"type":"evt_strike","serial_number":"ST-001","evt":[1609459200, 10.0, 500]}`))
	s.handleDatagram([]byte(`{"type":"evt_strike","serial_number":"ST-001","evt":[1609459260, 20.0, 700]}`))

	r := fetch(t, s)
	if r.LightningStrikes != 2 {
		t.Errorf("LightningStrikes = %d, want 2", r.LightningStrikes)
	}
	if math.Abs(r.LightningAvgDistance-15.0) > 1e-9 {
		t.Errorf("LightningAvgDistance = %v, want 15.0", r.LightningAvgDistance)
	}
}

func TestPrecipEvent(t *testing.T) {
	s := newTestStation(t, config.SourceData{}, nil)
	s.handleDatagram([]byte(`{"type":"evt_precip","serial_number":"ST-001","evt":[1609459200]}`))

	r := fetch(t, s)
	if !r.RainBool {
		t.Error("RainBool = false after rain-start event")
	}
	if r.ConditionCategory != 2 {
		t.Errorf("ConditionCategory = %d, want rain", r.ConditionCategory)
	}
}

func TestUnknownTypeAndMalformedPayloadIgnored(t *testing.T) {
	s := newTestStation(t, config.SourceData{}, nil)
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609459200, 0,0,0, 0, 1013.0, 20.0, 45, 0,12000, 3, 0.0, 0, 0,0, 2.6]]}`))

	s.handleDatagram([]byte(`{"type":"hub_status","serial_number":"HB-001","uptime":123}`))
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001","obs":`))
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001","obs":[[1609459260, 0]]}`))

	r := fetch(t, s)
	if r.Temperature != 20.0 || r.AirPressure != 1013.0 {
		t.Errorf("state mutated by unknown or malformed datagram: %+v", r)
	}
}

func TestSerialFilter(t *testing.T) {
	s := newTestStation(t, config.SourceData{SerialNumber: "ST-001"}, nil)
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-002",` +
		`"obs":[[1609459200, 0,0,0, 0, 999.0, 30.0, 80, 0,0, 0, 0.0, 0, 0,0, 2.6]]}`))

	r := fetch(t, s)
	if r.AirPressure != 0 {
		t.Errorf("observation from a foreign serial was applied: pressure = %v", r.AirPressure)
	}
}

func TestRainAccumulationAcrossMinutes(t *testing.T) {
	s := newTestStation(t, config.SourceData{}, nil)
	// Three consecutive minutes of 0.5 mm each.
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609459200, 0,0,0, 0, 1013.0, 20.0, 45, 0,0, 0, 0.5, 1, 0,0, 2.6]]}`))
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609459260, 0,0,0, 0, 1013.0, 20.0, 45, 0,0, 0, 0.5, 1, 0,0, 2.6]]}`))
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609459320, 0,0,0, 0, 1013.0, 19.0, 45, 0,0, 0, 0.5, 1, 0,0, 2.6]]}`))

	r := fetch(t, s)
	if math.Abs(r.Rain1h-1.5) > 1e-9 {
		t.Errorf("Rain1h = %v, want 1.5", r.Rain1h)
	}
	if math.Abs(r.RainDay-1.5) > 1e-9 {
		t.Errorf("RainDay = %v, want 1.5", r.RainDay)
	}
	if r.TemperatureMin != 19.0 {
		t.Errorf("TemperatureMin = %v, want 19.0", r.TemperatureMin)
	}
	if !r.RainBool {
		t.Error("RainBool = false while rain is falling")
	}
}

func TestDailyFieldsResetAtReportingZoneMidnight(t *testing.T) {
	s := newTestStation(t, config.SourceData{Timezone: "Australia/Sydney"}, nil)

	// 2021-01-01 23:50 UTC and 2021-01-02 00:10 UTC straddle UTC
	// midnight but are both 2021-01-02 in Sydney, so the rain total
	// must keep accumulating across them.
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609545000, 0,0,0, 0, 1013.0, 20.0, 45, 0,0, 0, 1.0, 1, 0,0, 2.6]]}`))
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609546200, 0,0,0, 0, 1013.0, 20.0, 45, 0,0, 0, 1.0, 1, 0,0, 2.6]]}`))

	r := fetch(t, s)
	if math.Abs(r.RainDay-2.0) > 1e-9 {
		t.Errorf("RainDay = %v, want 2.0 across UTC midnight within one reporting-zone day", r.RainDay)
	}
}

func TestInvalidTimezoneFallsBackToUTC(t *testing.T) {
	s := newTestStation(t, config.SourceData{Timezone: "Mars/Olympus"}, nil)
	// 23:59 and 00:01 around UTC midnight: with the UTC fallback the
	// second observation starts a new day.
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609545540, 0,0,0, 0, 1013.0, 20.0, 45, 0,0, 0, 1.0, 1, 0,0, 2.6]]}`))
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609545660, 0,0,0, 0, 1013.0, 20.0, 45, 0,0, 0, 0.5, 1, 0,0, 2.6]]}`))

	r := fetch(t, s)
	if math.Abs(r.RainDay-0.5) > 1e-9 {
		t.Errorf("RainDay = %v, want 0.5 after the UTC day boundary", r.RainDay)
	}
}

func TestAirObservationAppliesDayReset(t *testing.T) {
	s := newTestStation(t, config.SourceData{}, nil)
	s.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609459200, 0,0,0, 0, 1013.0, 20.0, 45, 0,0, 0, 2.0, 1, 0,0, 2.6]]}`))
	// Next calendar day, delivered by a rainless obs_air message: the
	// reported rain total must reset along with the day.
	s.handleDatagram([]byte(`{"type":"obs_air","serial_number":"AR-001",` +
		`"obs":[[1609545600, 1010.0, 15.0, 60, 0, 0, 3.1]]}`))

	r := fetch(t, s)
	if r.RainDay != 0 {
		t.Errorf("RainDay = %v, want 0 after a day boundary crossed by obs_air", r.RainDay)
	}
	if r.TemperatureMin != 15.0 {
		t.Errorf("TemperatureMin = %v, want reset to 15.0", r.TemperatureMin)
	}
}

func TestSnapshotRestoredAcrossRestart(t *testing.T) {
	store, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}
	defer store.Close()

	first := newTestStation(t, config.SourceData{Name: "roof"}, store)
	first.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609459200, 0,0,0, 0, 1013.0, 20.0, 45, 0,0, 0, 0.5, 1, 0,0, 2.6]]}`))

	second := newTestStation(t, config.SourceData{Name: "roof"}, store)
	r := fetch(t, second)
	if r.Temperature != 20.0 {
		t.Errorf("restored Temperature = %v, want 20.0", r.Temperature)
	}
	if math.Abs(r.Rain1h-0.5) > 1e-9 {
		t.Errorf("restored Rain1h = %v, want 0.5", r.Rain1h)
	}

	// The restored accumulator must keep accumulating, not restart.
	second.handleDatagram([]byte(`{"type":"obs_st","serial_number":"ST-001",` +
		`"obs":[[1609459260, 0,0,0, 0, 1013.0, 20.0, 45, 0,0, 0, 0.5, 1, 0,0, 2.6]]}`))
	if r := fetch(t, second); math.Abs(r.Rain1h-1.0) > 1e-9 {
		t.Errorf("Rain1h after restore and one more minute = %v, want 1.0", r.Rain1h)
	}
}

func TestMessageDecodeVariants(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantNil bool
		wantErr bool
	}{
		{"air observation", `{"type":"obs_air","serial_number":"AR-1","obs":[[1609459200, 1010.0, 15.0, 60, 2, 12.0, 3.1]]}`, false, false},
		{"sky observation", `{"type":"obs_sky","serial_number":"SK-1","obs":[[1609459200, 9000, 2.1, 0.0, 0.5, 1.0, 2.0, 180, 3.2, 1, 450]]}`, false, false},
		{"unknown type", `{"type":"hub_status","serial_number":"HB-1"}`, true, false},
		{"short obs_st", `{"type":"obs_st","serial_number":"ST-1","obs":[[1609459200]]}`, true, true},
		{"empty obs", `{"type":"obs_air","serial_number":"AR-1","obs":[]}`, true, true},
		{"missing voltage", `{"type":"device_status","serial_number":"ST-1"}`, true, true},
		{"not json", `observations`, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, msg, err := decodeMessage([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeMessage error = %v, wantErr %v", err, tt.wantErr)
			}
			if (msg == nil) != tt.wantNil {
				t.Errorf("decodeMessage msg = %v, wantNil %v", msg, tt.wantNil)
			}
		})
	}
}

func TestConditionTableCoverage(t *testing.T) {
	logger := zap.NewNop().Sugar()
	for code := range conditionTable {
		if got := conditions.Lookup(conditionTable, code, false, logger); got < 0 || got > 3 {
			t.Errorf("coarse ordinal for %q = %d, out of range", code, got)
		}
		if got := conditions.Lookup(conditionTable, code, true, logger); got < 0 || got > 9 {
			t.Errorf("detailed ordinal for %q = %d, out of range", code, got)
		}
	}
}

func TestAirObservationUpdatesOnlyAirFields(t *testing.T) {
	s := newTestStation(t, config.SourceData{}, nil)
	s.handleDatagram([]byte(`{"type":"rapid_wind","serial_number":"SK-1","ob":[1609459200, 3.0, 270]}`))
	s.handleDatagram([]byte(`{"type":"obs_air","serial_number":"AR-1","obs":[[1609459260, 1010.0, 15.0, 60, 2, 12.0, 3.1]]}`))

	r := fetch(t, s)
	if r.AirPressure != 1010.0 || r.Temperature != 15.0 || r.Humidity != 60 {
		t.Errorf("air fields not applied: %+v", r)
	}
	if r.WindSpeed != 3.0 || r.WindDirection != "W" {
		t.Errorf("wind fields clobbered by obs_air: speed %v dir %q", r.WindSpeed, r.WindDirection)
	}
	if r.LightningStrikes != 2 || r.LightningAvgDistance != 12.0 {
		t.Errorf("lightning fields not applied: %d strikes at %v km", r.LightningStrikes, r.LightningAvgDistance)
	}
}
