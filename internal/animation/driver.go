// Package animation advances a sun path on its own goroutine and streams the
// resulting screen positions back to the owner.
package animation

import (
	"context"
	"math"
	"sync/atomic"
	"time"
)

// State of a driver.
type State int32

const (
	Idle State = iota
	Running
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Point is a screen-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position is what a driver emits every tick. Generation identifies the
// driver instance; Tick increases strictly within one generation.
type Position struct {
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Angle      float64 `json:"angle"`
	Generation uint64  `json:"generation"`
	Tick       uint64  `json:"tick"`
}

// Driver owns one Descriptor for its whole life. Origin and radius are fixed
// at construction; a layout change means a new driver.
type Driver struct {
	generation uint64
	path       Descriptor
	origin     Point
	radius     float64
	frames     Frames

	ticks uint64
	state atomic.Int32
	done  chan struct{}
}

// NewDriver takes a copy of path; the caller keeps no handle on the cursor.
func NewDriver(generation uint64, path Descriptor, origin Point, radius float64, frames Frames) *Driver {
	return &Driver{
		generation: generation,
		path:       path,
		origin:     origin,
		radius:     radius,
		frames:     frames,
		done:       make(chan struct{}),
	}
}

func (d *Driver) Generation() uint64 { return d.generation }

func (d *Driver) State() State { return State(d.state.Load()) }

// Done is closed once Run has returned and the frame schedule is released.
func (d *Driver) Done() <-chan struct{} { return d.done }

// Run ticks until ctx is cancelled. Positions are offered to out without
// blocking: a busy consumer misses frames rather than stalling the path, and
// the next position supersedes the missed one.
func (d *Driver) Run(ctx context.Context, out chan<- Position) {
	defer close(d.done)
	defer d.state.Store(int32(Terminated))
	defer d.frames.Stop()

	frames := d.frames.C()
	for {
		select {
		case <-ctx.Done():
			return
		case now, ok := <-frames:
			if !ok {
				return
			}
			// A cancelled driver must not emit, even if a frame raced in.
			if ctx.Err() != nil {
				return
			}

			d.state.Store(int32(Running))
			pos := d.tick(now)

			select {
			case out <- pos:
			case <-ctx.Done():
				return
			default:
			}
		}
	}
}

func (d *Driver) tick(now time.Time) Position {
	angle := d.path.Advance(now)
	d.ticks++

	return Position{
		Left:       d.origin.X + d.radius*math.Cos(angle),
		Top:        d.origin.Y + d.radius*math.Sin(angle),
		Angle:      angle,
		Generation: d.generation,
		Tick:       d.ticks,
	}
}
