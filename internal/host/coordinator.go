// Package host owns the layout of the sun widget: it turns geo, weather and
// viewport size into a path, runs one animation driver at a time and applies
// the driver's positions to a Surface.
package host

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"rise-and-shine/internal/animation"
	"rise-and-shine/internal/geo"
	"rise-and-shine/internal/sky"
	"rise-and-shine/internal/weather"
)

// PathMode selects how a path is laid out.
type PathMode string

const (
	// PathHour travels from the current angle to the one an hour ahead and
	// re-anchors at every clock hour.
	PathHour PathMode = "hour"
	// PathDay starts at the sun's daylight offset and makes one full turn
	// over a day.
	PathDay PathMode = "day"
)

func ParsePathMode(s string) (PathMode, error) {
	switch PathMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", PathHour:
		return PathHour, nil
	case PathDay:
		return PathDay, nil
	default:
		return "", fmt.Errorf("unknown path mode: %s", s)
	}
}

const (
	DefaultRadiusRatio = 0.3
	DefaultQuietPeriod = 500 * time.Millisecond
)

type Config struct {
	Surface     Surface
	Sky         sky.AngleSource
	Mode        PathMode
	RadiusRatio float64
	QuietPeriod time.Duration
	Frames      animation.FrameSource
	Now         func() time.Time
	// OnRebuild runs on the coordinator goroutine after every rebuild and
	// must return quickly.
	OnRebuild func(State)
}

// State is a read-only copy of the coordinator's view.
type State struct {
	Ready       bool                 `json:"ready"`
	Generation  uint64               `json:"generation"`
	Mode        PathMode             `json:"mode"`
	Sky         string               `json:"sky"`
	Bounds      Size                 `json:"bounds"`
	Radius      float64              `json:"radius"`
	Origin      animation.Point      `json:"origin"`
	Guide       Guide                `json:"guide"`
	Path        animation.Descriptor `json:"path"`
	Position    animation.Position   `json:"position"`
	IconVisible bool                 `json:"icon_visible"`
	Geo         geo.Coordinate       `json:"geo"`
	Weather     weather.Snapshot     `json:"weather"`
	Icon        weather.Icon         `json:"icon"`
	Reason      string               `json:"reason"`
	RebuiltAt   time.Time            `json:"rebuilt_at"`
}

type Coordinator struct {
	cfg Config

	resizeC   chan struct{}
	geoC      chan struct{}
	weatherC  chan struct{}
	positions chan animation.Position

	pendingMu      sync.Mutex
	pendingGeo     *geo.Coordinate
	pendingWeather *weather.Snapshot

	// Loop-owned.
	geo        geo.Coordinate
	weather    weather.Snapshot
	hasGeo     bool
	hasWeather bool
	driver     *animation.Driver
	cancel     context.CancelFunc
	generation uint64
	anchor     *time.Timer

	mu    sync.RWMutex
	state State
}

func New(cfg Config) (*Coordinator, error) {
	if cfg.Surface == nil {
		return nil, fmt.Errorf("coordinator requires a surface")
	}
	if cfg.Sky == nil {
		cfg.Sky = sky.ClockRatio{}
	}
	if cfg.Mode == "" {
		cfg.Mode = PathHour
	}
	if cfg.RadiusRatio <= 0 {
		cfg.RadiusRatio = DefaultRadiusRatio
	}
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = DefaultQuietPeriod
	}
	if cfg.Frames == nil {
		cfg.Frames = animation.TickerSource(animation.DefaultFrameInterval)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Coordinator{
		cfg:       cfg,
		resizeC:   make(chan struct{}, 1),
		geoC:      make(chan struct{}, 1),
		weatherC:  make(chan struct{}, 1),
		positions: make(chan animation.Position, 1),
		state:     State{Mode: cfg.Mode, Sky: cfg.Sky.Name()},
	}, nil
}

// Resize reports that the surface bounds changed. Bursts are coalesced and
// the layout is rebuilt once the quiet period has passed.
func (c *Coordinator) Resize() {
	signal(c.resizeC)
}

// UpdateGeo replaces the coordinates. Only the latest pending value is kept.
func (c *Coordinator) UpdateGeo(at geo.Coordinate) {
	c.pendingMu.Lock()
	c.pendingGeo = &at
	c.pendingMu.Unlock()
	signal(c.geoC)
}

// UpdateWeather replaces the weather snapshot. Only the latest pending value
// is kept.
func (c *Coordinator) UpdateWeather(snap weather.Snapshot) {
	c.pendingMu.Lock()
	c.pendingWeather = &snap
	c.pendingMu.Unlock()
	signal(c.weatherC)
}

func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Run is the coordinator loop. It returns when ctx is done, after the
// current driver has terminated.
func (c *Coordinator) Run(ctx context.Context) error {
	var debounce *time.Timer
	var debounceC <-chan time.Time

	c.anchor = time.NewTimer(time.Hour)
	c.anchor.Stop()

	defer func() {
		c.stopDriver()
		c.anchor.Stop()
		if debounce != nil {
			debounce.Stop()
		}
	}()

	log.Printf("Coordinator started (mode=%s, sky=%s)", c.cfg.Mode, c.cfg.Sky.Name())

	for {
		select {
		case <-ctx.Done():
			log.Println("Coordinator stopped")
			return nil

		case <-c.resizeC:
			if debounce == nil {
				debounce = time.NewTimer(c.cfg.QuietPeriod)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(c.cfg.QuietPeriod)
			}
			debounceC = debounce.C

		case <-debounceC:
			debounceC = nil
			c.rebuild(ctx, "resize")

		case <-c.geoC:
			c.pendingMu.Lock()
			at := c.pendingGeo
			c.pendingGeo = nil
			c.pendingMu.Unlock()
			if at == nil {
				continue
			}
			c.geo = *at
			c.hasGeo = true
			c.rebuild(ctx, "geo")

		case <-c.weatherC:
			c.pendingMu.Lock()
			snap := c.pendingWeather
			c.pendingWeather = nil
			c.pendingMu.Unlock()
			if snap == nil {
				continue
			}
			if err := snap.Validate(); err != nil {
				log.Printf("Warning: %v", err)
			}
			c.weather = *snap
			c.hasWeather = true
			c.rebuild(ctx, "weather")

		case <-c.anchor.C:
			// The hourly weather refresh lands on the same boundary; its
			// rebuild re-anchors too.
			if c.weatherPending() {
				log.Println("Skipping anchor rebuild, weather update pending")
				continue
			}
			c.rebuild(ctx, "anchor")

		case pos := <-c.positions:
			c.apply(pos)
		}
	}
}

func (c *Coordinator) weatherPending() bool {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return c.pendingWeather != nil
}

func (c *Coordinator) rebuild(ctx context.Context, reason string) {
	if !c.hasGeo || !c.hasWeather {
		return
	}
	bounds := c.cfg.Surface.Bounds()
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return
	}

	c.stopDriver()
	c.generation++
	c.cfg.Surface.HideIcon()

	now := c.cfg.Now()
	daylight := c.weather.Daylight()

	radius := bounds.Width * c.cfg.RadiusRatio
	shift := sky.SeasonalYShift(daylight, radius)
	guide := Guide{
		Left: bounds.Width/2 - radius,
		Top:  bounds.Height - (radius + shift),
		Size: 2 * radius,
	}
	iconSize := c.cfg.Surface.IconSize()
	origin := animation.Point{
		X: guide.Left + radius - iconSize.Width/2,
		Y: guide.Top + radius - iconSize.Height/2,
	}

	path, err := c.path(now, daylight)
	if err != nil {
		log.Printf("Error building sun path: %v", err)
		return
	}

	icon := weather.IconFor(c.weather.ConditionID, c.weather.ConditionLabel)
	c.cfg.Surface.ShowGuide(guide)
	c.cfg.Surface.ShowWeather(c.weather, icon)

	driverCtx, cancel := context.WithCancel(ctx)
	c.driver = animation.NewDriver(c.generation, path, origin, radius, c.cfg.Frames())
	c.cancel = cancel
	go c.driver.Run(driverCtx, c.positions)

	if !c.anchor.Stop() {
		select {
		case <-c.anchor.C:
		default:
		}
	}
	c.anchor.Reset(path.Duration)

	c.mu.Lock()
	c.state = State{
		Ready:      true,
		Generation: c.generation,
		Mode:       c.cfg.Mode,
		Sky:        c.cfg.Sky.Name(),
		Bounds:     bounds,
		Radius:     radius,
		Origin:     origin,
		Guide:      guide,
		Path:       path,
		Geo:        c.geo,
		Weather:    c.weather,
		Icon:       icon,
		Reason:     reason,
		RebuiltAt:  now,
	}
	state := c.state
	c.mu.Unlock()

	log.Printf("Rebuilt sun path (%s): generation=%d radius=%.1f angle %.3f -> %.3f over %s",
		reason, c.generation, radius, path.StartAngle, path.EndAngle, path.Duration.Round(time.Second))

	if c.cfg.OnRebuild != nil {
		c.cfg.OnRebuild(state)
	}
}

func (c *Coordinator) path(now time.Time, daylight sky.Daylight) (animation.Descriptor, error) {
	switch c.cfg.Mode {
	case PathDay:
		start := math.Pi + sky.SunOffset(daylight, now)
		return animation.NewDescriptor(start, start+2*math.Pi, sky.FullDay)
	default:
		lat, lon := c.geo.Latitude, c.geo.Longitude
		return animation.NewDescriptor(
			c.cfg.Sky.Current(lat, lon, now),
			c.cfg.Sky.OneHourAhead(lat, lon, now),
			sky.NearestClockHour(now),
		)
	}
}

// apply draws a position from the current driver. Anything from an older
// generation is dropped.
func (c *Coordinator) apply(pos animation.Position) {
	if c.driver == nil || pos.Generation != c.generation {
		return
	}
	c.cfg.Surface.MoveIcon(pos)

	c.mu.Lock()
	c.state.Position = pos
	c.state.IconVisible = true
	c.mu.Unlock()
}

func (c *Coordinator) stopDriver() {
	if c.driver == nil {
		return
	}
	c.cancel()
	<-c.driver.Done()
	c.driver = nil
	c.cancel = nil
}
