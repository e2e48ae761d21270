package render

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"rise-and-shine/internal/weather"
)

type palette struct {
	background tcell.Color
	text       tcell.Color
	guide      tcell.Color
	sun        tcell.Color
}

var dayPalettes = map[string]palette{
	"clear":         {tcell.NewRGBColor(0x4a, 0x90, 0xd9), tcell.ColorWhite, tcell.NewRGBColor(0x9c, 0xc6, 0xf0), tcell.ColorYellow},
	"partly-cloudy": {tcell.NewRGBColor(0x6a, 0x9a, 0xc8), tcell.ColorWhite, tcell.NewRGBColor(0xb0, 0xc8, 0xe0), tcell.ColorYellow},
	"overcast":      {tcell.NewRGBColor(0x7d, 0x86, 0x90), tcell.ColorWhite, tcell.NewRGBColor(0xb4, 0xb9, 0xbf), tcell.ColorLightYellow},
	"rain":          {tcell.NewRGBColor(0x4f, 0x5d, 0x6e), tcell.ColorWhite, tcell.NewRGBColor(0x8a, 0x96, 0xa3), tcell.ColorLightCyan},
	"heavy-rain":    {tcell.NewRGBColor(0x36, 0x40, 0x4c), tcell.ColorWhite, tcell.NewRGBColor(0x6f, 0x7a, 0x86), tcell.ColorLightCyan},
	"storm":         {tcell.NewRGBColor(0x2b, 0x2a, 0x3d), tcell.ColorWhite, tcell.NewRGBColor(0x62, 0x60, 0x7a), tcell.ColorYellow},
	"snow":          {tcell.NewRGBColor(0xc9, 0xd6, 0xe3), tcell.ColorBlack, tcell.NewRGBColor(0x8f, 0xa3, 0xb8), tcell.ColorWhite},
	"fog":           {tcell.NewRGBColor(0x9e, 0xa4, 0xa8), tcell.ColorBlack, tcell.NewRGBColor(0xc8, 0xcc, 0xce), tcell.ColorLightYellow},
}

var (
	defaultPalette = palette{tcell.ColorReset, tcell.ColorReset, tcell.ColorGray, tcell.ColorYellow}
	nightPalette   = palette{tcell.NewRGBColor(0x0b, 0x10, 0x26), tcell.ColorSilver, tcell.NewRGBColor(0x2c, 0x35, 0x5c), tcell.ColorLightGoldenrodYellow}
)

// paletteFor picks colours for the icon's theme. Outside daylight every
// condition shares the night palette; without sunrise data the hours 6 to 18
// count as day.
func paletteFor(icon weather.Icon, snap weather.Snapshot, now time.Time) palette {
	if !isDaylight(snap, now) {
		return nightPalette
	}
	if p, ok := dayPalettes[icon.Theme]; ok {
		return p
	}
	return defaultPalette
}

func isDaylight(snap weather.Snapshot, now time.Time) bool {
	if !snap.Sunrise.IsZero() && !snap.Sunset.IsZero() {
		return snap.IsDaylight(now)
	}
	hour := now.Hour()
	return hour >= 6 && hour < 18
}
