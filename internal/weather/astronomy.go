package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"rise-and-shine/internal/geo"
)

// AstronomyClient needs no network or key: sunrise and sunset come from the
// coordinates and the date alone. Temperature and condition are unknown.
type AstronomyClient struct {
	units string
	now   func() time.Time
}

func NewAstronomyClient(units string) *AstronomyClient {
	return &AstronomyClient{units: units, now: time.Now}
}

func (c *AstronomyClient) Name() string { return "astronomy" }

func (c *AstronomyClient) Get(_ context.Context, at geo.Coordinate) (Snapshot, error) {
	if at.IsZero() {
		return Snapshot{}, fmt.Errorf("astronomy requires latitude and longitude")
	}

	now := c.now().UTC()
	date := solarDate(now, at.Longitude)
	rise, set := sunrise.SunriseSunset(at.Latitude, at.Longitude, date.Year(), date.Month(), date.Day())
	if rise.IsZero() || set.IsZero() {
		return Snapshot{}, fmt.Errorf("no sunrise or sunset at %s on %s", at, date.Format("2006-01-02"))
	}

	return Snapshot{
		Provider:       c.Name(),
		ConditionLabel: "Unknown",
		Description:    "computed from coordinates",
		Units:          c.units,
		Sunrise:        rise.UTC(),
		Sunset:         set.UTC(),
		ObservedAt:     now,
	}, nil
}

// solarDate shifts now by the longitude's solar offset so the calendar day is
// the one observed at the location, not in Greenwich.
func solarDate(now time.Time, longitude float64) time.Time {
	return now.Add(time.Duration(longitude / 15 * float64(time.Hour)))
}
