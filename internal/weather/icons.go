package weather

import "strings"

// Icon is the presentation of a condition: a single-cell glyph for the
// travelling sun and a theme name for the background.
type Icon struct {
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
	Theme string `json:"theme"`
}

var (
	iconClear        = Icon{Name: "clear", Glyph: "☀", Theme: "clear"}
	iconFewClouds    = Icon{Name: "few-clouds", Glyph: "◐", Theme: "partly-cloudy"}
	iconClouds       = Icon{Name: "clouds", Glyph: "☁", Theme: "overcast"}
	iconDrizzle      = Icon{Name: "drizzle", Glyph: "☂", Theme: "rain"}
	iconRain         = Icon{Name: "rain", Glyph: "☂", Theme: "rain"}
	iconHeavyRain    = Icon{Name: "heavy-rain", Glyph: "☂", Theme: "heavy-rain"}
	iconThunderstorm = Icon{Name: "thunderstorm", Glyph: "↯", Theme: "storm"}
	iconSnow         = Icon{Name: "snow", Glyph: "❄", Theme: "snow"}
	iconMist         = Icon{Name: "mist", Glyph: "≡", Theme: "fog"}
	iconDefault      = Icon{Name: "default", Glyph: "●", Theme: "default"}
)

var iconsByLabel = map[string]Icon{
	"clear":        iconClear,
	"clouds":       iconClouds,
	"drizzle":      iconDrizzle,
	"rain":         iconRain,
	"thunderstorm": iconThunderstorm,
	"snow":         iconSnow,
	"mist":         iconMist,
	"fog":          iconMist,
	"haze":         iconMist,
	"smoke":        iconMist,
}

// IconFor picks the icon for a condition. The label ("Clear", "Rain", ...)
// selects the family and the OpenWeather id refines it; anything else falls
// back to the default icon.
func IconFor(conditionID int, label string) Icon {
	icon, ok := iconsByLabel[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		icon = iconByID(conditionID)
	}

	switch {
	case conditionID == 801 || conditionID == 802:
		return iconFewClouds
	case conditionID >= 502 && conditionID <= 504, conditionID == 522:
		return iconHeavyRain
	}
	return icon
}

func iconByID(id int) Icon {
	switch {
	case id >= 200 && id < 300:
		return iconThunderstorm
	case id >= 300 && id < 400:
		return iconDrizzle
	case id >= 500 && id < 600:
		return iconRain
	case id >= 600 && id < 700:
		return iconSnow
	case id >= 700 && id < 800:
		return iconMist
	case id == 800:
		return iconClear
	case id > 800 && id < 900:
		return iconClouds
	default:
		return iconDefault
	}
}
