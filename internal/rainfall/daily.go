package rainfall

import (
	"math"
	"time"
)

const dayKeyLayout = "2006-01-02"

// DailyTracker maintains the day-scoped running rain total and minimum
// temperature, resetting both when the locally-observed calendar day
// changes.  The zero value carries a sentinel day key, so the very
// first observation always takes the reset branch and never inherits an
// uninitialized total.
type DailyTracker struct {
	dayKey  string
	rainDay float64
	tempMin float64
}

// Observe folds one observation into the day state and returns the
// updated running rain total and minimum temperature.
func (d *DailyTracker) Observe(obsTime time.Time, rainIncrement, tempC float64) (rainDay, tempMin float64) {
	key := obsTime.Format(dayKeyLayout)

	if key == d.dayKey {
		d.rainDay += rainIncrement
		d.tempMin = math.Min(d.tempMin, tempC)
	} else {
		d.dayKey = key
		d.rainDay = rainIncrement
		d.tempMin = tempC
	}

	return d.rainDay, d.tempMin
}

// Snapshot returns the tracker state for persistence.
func (d *DailyTracker) Snapshot() (dayKey string, rainDay, tempMin float64) {
	return d.dayKey, d.rainDay, d.tempMin
}

// Restore replaces the tracker state from a persisted snapshot.
func (d *DailyTracker) Restore(dayKey string, rainDay, tempMin float64) {
	d.dayKey = dayKey
	d.rainDay = rainDay
	d.tempMin = tempMin
}
