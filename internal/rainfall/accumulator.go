// Package rainfall maintains the stateful precipitation metrics: the
// trailing one-hour accumulation and the day-scoped rain total and
// minimum temperature.  All state here is owned by exactly one provider
// adapter instance; nothing is shared across adapters.
package rainfall

import (
	"time"

	"gonum.org/v1/gonum/floats"
)

const slotsPerHour = 60

// HourAccumulator keeps one precipitation slot per minute-of-hour and
// answers the trailing-hour sum after every observation.  The zero
// value is ready to use: all slots empty, no minute written yet.
type HourAccumulator struct {
	slots       [slotsPerHour]float64
	lastMinute  int
	initialized bool
}

// Add records mm of precipitation observed during the minute containing
// obsTime and returns the trailing-hour accumulation.
//
// Repeated observations within the same minute accumulate rather than
// overwrite, because a sensor may emit several sub-observations per
// minute.  When the observation minute differs from the last written
// minute, every slot strictly between them (wrapping modulo 60) is
// zeroed first, so minutes with no report never contribute stale values.
func (a *HourAccumulator) Add(obsTime time.Time, mm float64) float64 {
	minute := obsTime.Minute()

	switch {
	case !a.initialized:
		a.slots[minute] = mm
		a.initialized = true
	case minute == a.lastMinute:
		a.slots[minute] += mm
	default:
		for i := (a.lastMinute + 1) % slotsPerHour; i != minute; i = (i + 1) % slotsPerHour {
			a.slots[i] = 0
		}
		a.slots[minute] = mm
	}
	a.lastMinute = minute

	return floats.Sum(a.slots[:])
}

// Sum returns the current trailing-hour accumulation without recording
// an observation.
func (a *HourAccumulator) Sum() float64 {
	return floats.Sum(a.slots[:])
}

// Snapshot returns the slot contents and the cursor for persistence.
func (a *HourAccumulator) Snapshot() ([]float64, int) {
	out := make([]float64, slotsPerHour)
	copy(out, a.slots[:])
	return out, a.lastMinute
}

// Restore replaces the accumulator state from a persisted snapshot.
// Snapshots with the wrong slot count are ignored.
func (a *HourAccumulator) Restore(slots []float64, lastMinute int) {
	if len(slots) != slotsPerHour || lastMinute < 0 || lastMinute >= slotsPerHour {
		return
	}
	copy(a.slots[:], slots)
	a.lastMinute = lastMinute
	a.initialized = true
}

// SumHistory sums a caller-supplied sequence of historical precipitation
// amounts.  Providers that fetch an explicit hourly history use this
// instead of the minute-driven accumulator; the summation semantics are
// identical.
func SumHistory(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Sum(values)
}
