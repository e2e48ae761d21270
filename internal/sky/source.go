package sky

import (
	"fmt"
	"strings"
	"time"

	"github.com/sixdouglas/suncalc"
)

// AngleSource produces the current and one-hour-ahead sky angles for a
// location. Both methods of one source share a convention, so a path built
// from them never mixes strategies.
type AngleSource interface {
	Name() string
	Current(lat, lon float64, now time.Time) float64
	OneHourAhead(lat, lon float64, now time.Time) float64
}

// ClockRatio places the sun by the fraction of the local day elapsed:
// midnight at the bottom, noon at the top. Location is ignored.
type ClockRatio struct{}

func (ClockRatio) Name() string { return "clock" }

func (ClockRatio) Current(_, _ float64, now time.Time) float64 {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	ms := float64(now.Sub(midnight) / time.Millisecond)
	return fullTurn*(ms/msPerDay) + quarterTurn
}

// OneHourAhead is Current plus one hour of rotation. It is not wrapped at
// midnight so the resulting path always moves forward.
func (c ClockRatio) OneHourAhead(lat, lon float64, now time.Time) float64 {
	return c.Current(lat, lon, now) + hourOfRotation
}

// SolarAltitude uses the sun's altitude above the horizon, shifted by π so
// that a negative altitude falls in the lower half of the circle.
type SolarAltitude struct{}

func (SolarAltitude) Name() string { return "solar" }

func (SolarAltitude) Current(lat, lon float64, now time.Time) float64 {
	pos := suncalc.GetPosition(now, lat, lon)
	return pos.Altitude + halfTurn
}

func (s SolarAltitude) OneHourAhead(lat, lon float64, now time.Time) float64 {
	return s.Current(lat, lon, now.Add(time.Hour))
}

// SourceFor resolves a configured model name.
func SourceFor(name string) (AngleSource, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "clock":
		return ClockRatio{}, nil
	case "solar", "suncalc":
		return SolarAltitude{}, nil
	default:
		return nil, fmt.Errorf("unknown sky model %q", name)
	}
}
