package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"rise-and-shine/internal/geo"
	"rise-and-shine/internal/weather"
)

// DefaultSchedule refreshes weather at the top of every hour.
const DefaultSchedule = "0 * * * *"

// WeatherPublisher receives every successful reading, e.g. the MQTT
// publisher.
type WeatherPublisher interface {
	PublishWeather(weather.Snapshot) error
}

type Collector struct {
	locator   geo.Locator
	provider  weather.Provider
	publisher WeatherPublisher
	schedule  string
	timeout   time.Duration
	onGeo     func(geo.Coordinate)
	onWeather func(weather.Snapshot)

	refreshMu sync.Mutex

	mu           sync.RWMutex
	location     *geo.Coordinate
	latest       *weather.Snapshot
	lastErr      error
	lastRefresh  time.Time
	isCollecting bool
}

type CollectorConfig struct {
	Locator   geo.Locator
	Provider  weather.Provider
	Publisher WeatherPublisher
	Schedule  string
	Timeout   time.Duration
	OnGeo     func(geo.Coordinate)
	OnWeather func(weather.Snapshot)
}

func NewCollector(cfg CollectorConfig) *Collector {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Collector{
		locator:   cfg.Locator,
		provider:  cfg.Provider,
		publisher: cfg.Publisher,
		schedule:  cfg.Schedule,
		timeout:   cfg.Timeout,
		onGeo:     cfg.OnGeo,
		onWeather: cfg.OnWeather,
	}
}

// Start collects once, then on the cron schedule until ctx is done.
func (c *Collector) Start(ctx context.Context) error {
	if c.locator == nil || c.provider == nil {
		return fmt.Errorf("collector requires a locator and a weather provider")
	}

	scheduler := gocron.NewScheduler(time.Local)
	_, err := scheduler.Cron(c.schedule).Do(func() {
		if _, err := c.Refresh(ctx); err != nil {
			log.Printf("Scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", c.schedule, err)
	}

	c.mu.Lock()
	c.isCollecting = true
	c.mu.Unlock()

	log.Printf("Starting collector (provider=%s, schedule=%q)", c.provider.Name(), c.schedule)

	if _, err := c.Refresh(ctx); err != nil {
		log.Printf("Initial refresh failed: %v", err)
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()

	c.mu.Lock()
	c.isCollecting = false
	c.mu.Unlock()

	log.Println("Collector stopped")
	return nil
}

// Refresh locates the device if that has not succeeded yet, then fetches
// weather. The last good reading is kept when a fetch fails.
func (c *Collector) Refresh(ctx context.Context) (weather.Snapshot, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	at, err := c.locate(ctx)
	if err != nil {
		c.setError(err)
		return weather.Snapshot{}, err
	}

	snap, err := c.provider.Get(ctx, at)
	if err != nil {
		err = fmt.Errorf("fetch weather from %s: %w", c.provider.Name(), err)
		c.setError(err)
		return weather.Snapshot{}, err
	}
	if err := snap.Validate(); err != nil {
		log.Printf("Warning: %v", err)
	}

	c.mu.Lock()
	c.latest = &snap
	c.lastErr = nil
	c.lastRefresh = time.Now()
	c.mu.Unlock()

	if c.onWeather != nil {
		c.onWeather(snap)
	}
	if c.publisher != nil {
		if err := c.publisher.PublishWeather(snap); err != nil {
			log.Printf("Error publishing to MQTT: %v", err)
		}
	}

	log.Printf("Collected: %s %s, sunrise=%s, sunset=%s",
		snap.ConditionLabel, formatTemperature(snap),
		snap.Sunrise.Local().Format("15:04"), snap.Sunset.Local().Format("15:04"))

	return snap, nil
}

func (c *Collector) locate(ctx context.Context) (geo.Coordinate, error) {
	c.mu.RLock()
	known := c.location
	c.mu.RUnlock()
	if known != nil {
		return *known, nil
	}

	at, err := c.locator.Locate(ctx)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("locate: %w", err)
	}

	c.mu.Lock()
	c.location = &at
	c.mu.Unlock()

	log.Printf("Located at %s", at)
	if c.onGeo != nil {
		c.onGeo(at)
	}
	return at, nil
}

func (c *Collector) setError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	log.Printf("Error refreshing weather: %v", err)
}

// GetLatestData returns the last good reading, or weather.ErrNoData.
func (c *Collector) GetLatestData() (weather.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return weather.Snapshot{}, weather.ErrNoData
	}
	return *c.latest, nil
}

func (c *Collector) Location() (geo.Coordinate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.location == nil {
		return geo.Coordinate{}, false
	}
	return *c.location, true
}

func (c *Collector) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Collector) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

func (c *Collector) IsCollecting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isCollecting
}

func (c *Collector) ProviderName() string {
	if c.provider == nil {
		return ""
	}
	return c.provider.Name()
}

func formatTemperature(s weather.Snapshot) string {
	if !s.HasTemperature {
		return "(no temperature)"
	}
	return fmt.Sprintf("%.0f%s", s.Temperature, s.TemperatureUnit())
}
