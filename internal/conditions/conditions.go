// Package conditions defines the shared ordinal vocabulary for sky and
// precipitation state.  Each provider adapter owns its lookup table from
// native condition codes to these ordinals; the tables are data and are
// intentionally lossy.
package conditions

import "go.uber.org/zap"

// Category is the coarse condition ordinal.
type Category int

const (
	Clear Category = iota
	Overcast
	Rain
	Snow
)

// String returns the human-readable name of a coarse category.
func (c Category) String() string {
	switch c {
	case Clear:
		return "Clear"
	case Overcast:
		return "Overcast"
	case Rain:
		return "Rain"
	case Snow:
		return "Snow"
	default:
		return "Unknown"
	}
}

// Detailed is the fine-grained condition ordinal.
type Detailed int

const (
	DetailedClear Detailed = iota
	DetailedFewClouds
	DetailedBrokenClouds
	DetailedOvercast
	DetailedFog
	DetailedDrizzle
	DetailedRain
	DetailedHail
	DetailedSnow
	DetailedSevere
)

// String returns the human-readable name of a detailed category.
func (d Detailed) String() string {
	switch d {
	case DetailedClear:
		return "Clear"
	case DetailedFewClouds:
		return "Few Clouds"
	case DetailedBrokenClouds:
		return "Broken Clouds"
	case DetailedOvercast:
		return "Overcast"
	case DetailedFog:
		return "Fog"
	case DetailedDrizzle:
		return "Drizzle"
	case DetailedRain:
		return "Rain"
	case DetailedHail:
		return "Hail"
	case DetailedSnow:
		return "Snow"
	case DetailedSevere:
		return "Severe"
	default:
		return "Unknown"
	}
}

// Mapping pairs the coarse and detailed ordinals for one provider code.
type Mapping struct {
	Category Category
	Detailed Detailed
}

// Lookup resolves code through a provider's mapping table.  Unknown
// codes are not an error: they log one warning and map to Clear, the
// documented safe default.
func Lookup(table map[string]Mapping, code string, detailed bool, logger *zap.SugaredLogger) int {
	m, ok := table[code]
	if !ok {
		logger.Warnw("unknown condition code, defaulting to clear", "code", code)
		if detailed {
			return int(DetailedClear)
		}
		return int(Clear)
	}
	if detailed {
		return int(m.Detailed)
	}
	return int(m.Category)
}

// IsRain reports whether a coarse category ordinal indicates rain.
func IsRain(category int) bool {
	return category == int(Rain)
}

// IsSnow reports whether a coarse category ordinal indicates snow.
func IsSnow(category int) bool {
	return category == int(Snow)
}
