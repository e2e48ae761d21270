package animation

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates one display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// Frames delivers the wall-clock time of each animation frame. Stop releases
// the underlying scheduling handle.
type Frames interface {
	C() <-chan time.Time
	Stop()
}

// FrameSource creates the frame schedule for a new driver.
type FrameSource func() Frames

type tickerFrames struct {
	ticker *time.Ticker
}

// NewTickerFrames schedules frames on a time.Ticker.
func NewTickerFrames(interval time.Duration) Frames {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &tickerFrames{ticker: time.NewTicker(interval)}
}

// TickerSource returns a FrameSource producing ticker frames at interval.
func TickerSource(interval time.Duration) FrameSource {
	return func() Frames { return NewTickerFrames(interval) }
}

func (f *tickerFrames) C() <-chan time.Time { return f.ticker.C }

func (f *tickerFrames) Stop() { f.ticker.Stop() }

// ManualFrames is a hand-driven frame schedule for tests and tools that need
// deterministic time.
type ManualFrames struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func NewManualFrames() *ManualFrames {
	return &ManualFrames{
		ch:      make(chan time.Time),
		stopped: make(chan struct{}),
	}
}

func (m *ManualFrames) C() <-chan time.Time { return m.ch }

func (m *ManualFrames) Stop() {
	m.once.Do(func() { close(m.stopped) })
}

// Stopped reports whether Stop has been called.
func (m *ManualFrames) Stopped() bool {
	select {
	case <-m.stopped:
		return true
	default:
		return false
	}
}

// Tick hands one frame to the consumer. It returns false if the schedule was
// stopped before the frame was taken.
func (m *ManualFrames) Tick(now time.Time) bool {
	select {
	case m.ch <- now:
		return true
	case <-m.stopped:
		return false
	}
}
