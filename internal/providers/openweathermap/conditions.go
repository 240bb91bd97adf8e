package openweathermap

import (
	"strconv"

	"github.com/vaneworks/weathervane/internal/conditions"
	"go.uber.org/zap"
)

// conditionTable maps OpenWeatherMap condition IDs to the shared
// ordinals.  The IDs and their groups follow the provider's published
// condition-code reference; the mapping is intentionally lossy.
var conditionTable = map[string]conditions.Mapping{
	// Group 2xx: thunderstorm
	"200": {Category: conditions.Rain, Detailed: conditions.DetailedSevere},
	"201": {Category: conditions.Rain, Detailed: conditions.DetailedSevere},
	"202": {Category: conditions.Rain, Detailed: conditions.DetailedSevere},
	"210": {Category: conditions.Rain, Detailed: conditions.DetailedSevere},
	"211": {Category: conditions.Rain, Detailed: conditions.DetailedSevere},
	"212": {Category: conditions.Rain, Detailed: conditions.DetailedSevere},
	"221": {Category: conditions.Rain, Detailed: conditions.DetailedSevere},
	"230": {Category: conditions.Rain, Detailed: conditions.DetailedSevere},
	"231": {Category: conditions.Rain, Detailed: conditions.DetailedSevere},
	"232": {Category: conditions.Rain, Detailed: conditions.DetailedSevere},

	// Group 3xx: drizzle
	"300": {Category: conditions.Rain, Detailed: conditions.DetailedDrizzle},
	"301": {Category: conditions.Rain, Detailed: conditions.DetailedDrizzle},
	"302": {Category: conditions.Rain, Detailed: conditions.DetailedDrizzle},
	"310": {Category: conditions.Rain, Detailed: conditions.DetailedDrizzle},
	"311": {Category: conditions.Rain, Detailed: conditions.DetailedDrizzle},
	"312": {Category: conditions.Rain, Detailed: conditions.DetailedDrizzle},
	"313": {Category: conditions.Rain, Detailed: conditions.DetailedDrizzle},
	"314": {Category: conditions.Rain, Detailed: conditions.DetailedDrizzle},
	"321": {Category: conditions.Rain, Detailed: conditions.DetailedDrizzle},

	// Group 5xx: rain
	"500": {Category: conditions.Rain, Detailed: conditions.DetailedRain},
	"501": {Category: conditions.Rain, Detailed: conditions.DetailedRain},
	"502": {Category: conditions.Rain, Detailed: conditions.DetailedRain},
	"503": {Category: conditions.Rain, Detailed: conditions.DetailedRain},
	"504": {Category: conditions.Rain, Detailed: conditions.DetailedRain},
	"511": {Category: conditions.Snow, Detailed: conditions.DetailedHail},
	"520": {Category: conditions.Rain, Detailed: conditions.DetailedRain},
	"521": {Category: conditions.Rain, Detailed: conditions.DetailedRain},
	"522": {Category: conditions.Rain, Detailed: conditions.DetailedRain},
	"531": {Category: conditions.Rain, Detailed: conditions.DetailedRain},

	// Group 6xx: snow
	"600": {Category: conditions.Snow, Detailed: conditions.DetailedSnow},
	"601": {Category: conditions.Snow, Detailed: conditions.DetailedSnow},
	"602": {Category: conditions.Snow, Detailed: conditions.DetailedSnow},
	"611": {Category: conditions.Snow, Detailed: conditions.DetailedSnow},
	"612": {Category: conditions.Snow, Detailed: conditions.DetailedSnow},
	"613": {Category: conditions.Snow, Detailed: conditions.DetailedSnow},
	"615": {Category: conditions.Snow, Detailed: conditions.DetailedSnow},
	"616": {Category: conditions.Snow, Detailed: conditions.DetailedSnow},
	"620": {Category: conditions.Snow, Detailed: conditions.DetailedSnow},
	"621": {Category: conditions.Snow, Detailed: conditions.DetailedSnow},
	"622": {Category: conditions.Snow, Detailed: conditions.DetailedSnow},

	// Group 7xx: atmosphere
	"701": {Category: conditions.Overcast, Detailed: conditions.DetailedFog},
	"711": {Category: conditions.Overcast, Detailed: conditions.DetailedFog},
	"721": {Category: conditions.Overcast, Detailed: conditions.DetailedFog},
	"731": {Category: conditions.Overcast, Detailed: conditions.DetailedFog},
	"741": {Category: conditions.Overcast, Detailed: conditions.DetailedFog},
	"751": {Category: conditions.Overcast, Detailed: conditions.DetailedFog},
	"761": {Category: conditions.Overcast, Detailed: conditions.DetailedFog},
	"762": {Category: conditions.Overcast, Detailed: conditions.DetailedFog},
	"771": {Category: conditions.Overcast, Detailed: conditions.DetailedSevere},
	"781": {Category: conditions.Overcast, Detailed: conditions.DetailedSevere},

	// Group 800: clear and clouds
	"800": {Category: conditions.Clear, Detailed: conditions.DetailedClear},
	"801": {Category: conditions.Clear, Detailed: conditions.DetailedFewClouds},
	"802": {Category: conditions.Overcast, Detailed: conditions.DetailedBrokenClouds},
	"803": {Category: conditions.Overcast, Detailed: conditions.DetailedBrokenClouds},
	"804": {Category: conditions.Overcast, Detailed: conditions.DetailedOvercast},
}

// categorize resolves an OpenWeatherMap condition ID to the coarse (or
// detailed) shared ordinal.  Unknown IDs map to clear with one warning.
func categorize(id int, detailed bool, logger *zap.SugaredLogger) int {
	return conditions.Lookup(conditionTable, strconv.Itoa(id), detailed, logger)
}
