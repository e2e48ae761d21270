package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rise-and-shine/internal/geo"
	"rise-and-shine/internal/sky"
)

var ErrNoData = errors.New("weather data not available")

type Provider interface {
	Name() string
	Get(ctx context.Context, at geo.Coordinate) (Snapshot, error)
}

// Snapshot is one weather reading. It is replaced wholesale on refresh.
type Snapshot struct {
	Provider       string    `json:"provider"`
	ConditionID    int       `json:"condition_id"`
	ConditionLabel string    `json:"condition"`
	Description    string    `json:"description"`
	Temperature    float64   `json:"temperature"`
	HasTemperature bool      `json:"has_temperature"`
	Units          string    `json:"units"`
	Clouds         int       `json:"clouds"`
	Sunrise        time.Time `json:"sunrise"`
	Sunset         time.Time `json:"sunset"`
	ObservedAt     time.Time `json:"observed_at"`
}

func (s Snapshot) IsZero() bool {
	return s.Provider == "" && s.Sunrise.IsZero() && s.Sunset.IsZero()
}

func (s Snapshot) Daylight() sky.Daylight {
	return sky.Daylight{Sunrise: s.Sunrise, Sunset: s.Sunset}
}

func (s Snapshot) IsDaylight(at time.Time) bool {
	if s.Sunrise.IsZero() || s.Sunset.IsZero() {
		return false
	}
	return at.After(s.Sunrise) && at.Before(s.Sunset)
}

// Validate reports snapshots the angle math cannot use meaningfully.
func (s Snapshot) Validate() error {
	if s.Sunrise.IsZero() || s.Sunset.IsZero() {
		return fmt.Errorf("snapshot from %s is missing sunrise or sunset", s.Provider)
	}
	if !s.Sunrise.Before(s.Sunset) {
		return fmt.Errorf("snapshot from %s has sunrise %s not before sunset %s",
			s.Provider, s.Sunrise.Format(time.RFC3339), s.Sunset.Format(time.RFC3339))
	}
	return nil
}

// TemperatureUnit is the display suffix for the configured units.
func (s Snapshot) TemperatureUnit() string {
	return UnitSymbol(s.Units)
}

func UnitSymbol(units string) string {
	switch units {
	case "metric":
		return "°C"
	case "standard":
		return "K"
	default:
		return "°F"
	}
}
