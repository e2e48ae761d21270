package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"rise-and-shine/internal/host"
	"rise-and-shine/internal/weather"

	"github.com/gin-gonic/gin"
)

// WeatherSource is the part of the collector the API reads and drives.
type WeatherSource interface {
	GetLatestData() (weather.Snapshot, error)
	Refresh(ctx context.Context) (weather.Snapshot, error)
	IsCollecting() bool
	LastRefresh() time.Time
	LastError() error
}

// StateSource exposes the coordinator's current layout.
type StateSource interface {
	State() host.State
}

type Server struct {
	router    *gin.Engine
	server    *http.Server
	collector WeatherSource
	host      StateSource
	port      int
	now       func() time.Time
}

type ServerConfig struct {
	Port      int
	Collector WeatherSource
	Host      StateSource
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:    router,
		collector: cfg.Collector,
		host:      cfg.Host,
		port:      cfg.Port,
		now:       time.Now,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api/v1")
	{
		api.GET("/state", s.stateHandler)
		api.GET("/weather", s.weatherHandler)
		api.POST("/refresh", s.refreshHandler)
	}
}

// Handler returns the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log.Printf("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	var lastErr string
	if err := s.collector.LastError(); err != nil {
		lastErr = err.Error()
	}
	_, dataErr := s.collector.GetLatestData()

	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"collecting":   s.collector.IsCollecting(),
		"has_weather":  dataErr == nil,
		"ready":        s.host.State().Ready,
		"last_refresh": s.collector.LastRefresh(),
		"last_error":   lastErr,
		"timestamp":    s.now(),
	})
}

func (s *Server) stateHandler(c *gin.Context) {
	state := s.host.State()
	if !state.Ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Waiting for location and weather",
			"state": state,
		})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) weatherHandler(c *gin.Context) {
	data, err := s.collector.GetLatestData()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "No data available yet",
		})
		return
	}

	now := s.now()
	c.JSON(http.StatusOK, gin.H{
		"weather":     data,
		"icon":        weather.IconFor(data.ConditionID, data.ConditionLabel),
		"is_daylight": data.IsDaylight(now),
		"unit":        data.TemperatureUnit(),
	})
}

func (s *Server) refreshHandler(c *gin.Context) {
	data, err := s.collector.Refresh(c.Request.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, data)
}
