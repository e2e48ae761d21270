package host

import (
	"sync"

	"rise-and-shine/internal/animation"
	"rise-and-shine/internal/weather"
)

// Size is a width/height pair in layout units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Guide is the bounding box of the circle the sun travels on.
type Guide struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
	Size float64 `json:"size"`
}

// Surface is where the coordinator draws. Every method is called from the
// coordinator goroutine; implementations that also render from elsewhere
// must synchronise themselves.
type Surface interface {
	Bounds() Size
	IconSize() Size
	ShowGuide(Guide)
	// MoveIcon places the icon and makes it visible.
	MoveIcon(animation.Position)
	HideIcon()
	ShowWeather(weather.Snapshot, weather.Icon)
}

// StaticSurface is a fixed-size surface with no display. It backs headless
// mode and keeps whatever was last drawn.
type StaticSurface struct {
	mu       sync.RWMutex
	bounds   Size
	icon     Size
	guide    Guide
	position animation.Position
	visible  bool
	snapshot weather.Snapshot
	glyph    weather.Icon
}

func NewStaticSurface(width, height float64) *StaticSurface {
	return &StaticSurface{
		bounds: Size{Width: width, Height: height},
		icon:   Size{Width: 1, Height: 2},
	}
}

// SetBounds changes the reported size. Callers still have to tell the
// coordinator via Resize.
func (s *StaticSurface) SetBounds(width, height float64) {
	s.mu.Lock()
	s.bounds = Size{Width: width, Height: height}
	s.mu.Unlock()
}

func (s *StaticSurface) Bounds() Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

func (s *StaticSurface) IconSize() Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.icon
}

func (s *StaticSurface) ShowGuide(g Guide) {
	s.mu.Lock()
	s.guide = g
	s.mu.Unlock()
}

func (s *StaticSurface) MoveIcon(p animation.Position) {
	s.mu.Lock()
	s.position = p
	s.visible = true
	s.mu.Unlock()
}

func (s *StaticSurface) HideIcon() {
	s.mu.Lock()
	s.visible = false
	s.mu.Unlock()
}

func (s *StaticSurface) ShowWeather(snap weather.Snapshot, icon weather.Icon) {
	s.mu.Lock()
	s.snapshot = snap
	s.glyph = icon
	s.mu.Unlock()
}

// Icon returns the last icon position and whether it is currently shown.
func (s *StaticSurface) Icon() (animation.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position, s.visible
}

func (s *StaticSurface) Guide() Guide {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guide
}
