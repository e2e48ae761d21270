package animation

import (
	"errors"
	"time"
)

var ErrInvalidDuration = errors.New("path duration must be positive")

// Descriptor is one angular journey. It is a value: the coordinator builds it
// and hands a copy to a driver, which then owns every mutation of the cursor.
type Descriptor struct {
	StartAngle float64       `json:"start_angle"`
	EndAngle   float64       `json:"end_angle"`
	Duration   time.Duration `json:"duration"`
	// Velocity is in radians per millisecond and may be negative.
	Velocity  float64   `json:"velocity"`
	StartedAt time.Time `json:"started_at"`
	LastTick  time.Time `json:"last_tick"`
	Angle     float64   `json:"angle"`
}

// NewDescriptor builds a fresh descriptor with its cursor at start.
func NewDescriptor(start, end float64, duration time.Duration) (Descriptor, error) {
	if duration <= 0 {
		return Descriptor{}, ErrInvalidDuration
	}

	return Descriptor{
		StartAngle: start,
		EndAngle:   end,
		Duration:   duration,
		Velocity:   (end - start) / milliseconds(duration),
		Angle:      start,
	}, nil
}

// Started reports whether the first tick has happened.
func (d *Descriptor) Started() bool {
	return !d.StartedAt.IsZero()
}

// Advance moves the cursor by the wall-clock time since the previous tick and
// returns the new angle. The first call only anchors the clock.
func (d *Descriptor) Advance(now time.Time) float64 {
	if !d.Started() {
		d.StartedAt = now
		d.LastTick = now
	}

	elapsed := now.Sub(d.LastTick)
	if elapsed < 0 {
		// clock stepped backwards; hold position
		elapsed = 0
	}
	d.LastTick = now
	d.Angle += milliseconds(elapsed) * d.Velocity

	return d.Angle
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
