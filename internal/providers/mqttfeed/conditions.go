package mqttfeed

import "github.com/vaneworks/weathervane/internal/conditions"

// conditionTable maps the feed's textual condition codes to the shared
// ordinals.
var conditionTable = map[string]conditions.Mapping{
	"clear":         {Category: conditions.Clear, Detailed: conditions.DetailedClear},
	"few-clouds":    {Category: conditions.Clear, Detailed: conditions.DetailedFewClouds},
	"partly-cloudy": {Category: conditions.Clear, Detailed: conditions.DetailedFewClouds},
	"broken-clouds": {Category: conditions.Overcast, Detailed: conditions.DetailedBrokenClouds},
	"cloudy":        {Category: conditions.Overcast, Detailed: conditions.DetailedOvercast},
	"overcast":      {Category: conditions.Overcast, Detailed: conditions.DetailedOvercast},
	"fog":           {Category: conditions.Overcast, Detailed: conditions.DetailedFog},
	"mist":          {Category: conditions.Overcast, Detailed: conditions.DetailedFog},
	"drizzle":       {Category: conditions.Rain, Detailed: conditions.DetailedDrizzle},
	"rain":          {Category: conditions.Rain, Detailed: conditions.DetailedRain},
	"showers":       {Category: conditions.Rain, Detailed: conditions.DetailedRain},
	"hail":          {Category: conditions.Rain, Detailed: conditions.DetailedHail},
	"sleet":         {Category: conditions.Snow, Detailed: conditions.DetailedHail},
	"snow":          {Category: conditions.Snow, Detailed: conditions.DetailedSnow},
	"storm":         {Category: conditions.Rain, Detailed: conditions.DetailedSevere},
	"thunderstorm":  {Category: conditions.Rain, Detailed: conditions.DetailedSevere},
}
