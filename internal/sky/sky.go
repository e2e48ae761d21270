// Package sky maps wall-clock time and sunrise/sunset data to angles on the
// drawing circle. Angles are radians in screen space: y grows downwards, so
// π/2 is the bottom of the circle and 3π/2 the top.
package sky

import (
	"math"
	"time"
)

const (
	FullDay        = 24 * time.Hour
	referenceDay   = 12.0
	msPerHour      = int64(time.Hour / time.Millisecond)
	msPerDay       = float64(FullDay / time.Millisecond)
	hoursPerDay    = 24.0
	halfTurn       = math.Pi
	quarterTurn    = math.Pi / 2
	fullTurn       = 2 * math.Pi
	hourOfRotation = fullTurn / hoursPerDay
)

// Daylight is the part of a weather snapshot the angle math needs.
type Daylight struct {
	Sunrise time.Time
	Sunset  time.Time
}

// DaylightHours returns |sunset - sunrise| in hours.
func DaylightHours(d Daylight) float64 {
	return math.Abs(d.Sunset.Sub(d.Sunrise).Hours())
}

// SpentHours returns |now - sunrise| in hours. It exceeds DaylightHours after
// sunset and is also positive before sunrise.
func SpentHours(d Daylight, now time.Time) float64 {
	return math.Abs(now.Sub(d.Sunrise).Hours())
}

// SunOffset is the starting-angle bias for the day path: π scaled by the
// share of daylight already spent. Outside (sunrise, sunset] it is 0, as is
// any snapshot without a usable daylight span.
func SunOffset(d Daylight, now time.Time) float64 {
	daylight := DaylightHours(d)
	if daylight == 0 {
		return 0
	}
	if !now.After(d.Sunrise) {
		return 0
	}
	spent := SpentHours(d, now)
	if spent <= 0 || spent > daylight {
		return 0
	}
	return halfTurn * spent / daylight
}

// SeasonalYShift converts the deviation of the day length from a 12 hour
// reference day into a vertical offset for the guide circle, using the chord
// length of the equivalent arc.
func SeasonalYShift(d Daylight, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	daylight := DaylightHours(d)
	if daylight == 0 {
		return 0
	}

	shiftRatio := (daylight - referenceDay) / hoursPerDay
	arcDelta := (fullTurn * radius * shiftRatio) / 2
	deltaAngle := arcDelta / radius

	return 2 * radius * math.Sin(deltaAngle/2)
}

// NearestClockHour returns the time left until the next whole clock hour.
// On an exact hour boundary it returns a full hour.
func NearestClockHour(now time.Time) time.Duration {
	ms := now.UnixMilli()
	rem := ms % msPerHour
	if rem < 0 {
		rem += msPerHour
	}
	return time.Duration(msPerHour-rem) * time.Millisecond
}
