package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rise-and-shine/config"
	"rise-and-shine/internal/animation"
	"rise-and-shine/internal/api"
	"rise-and-shine/internal/collector"
	"rise-and-shine/internal/geo"
	"rise-and-shine/internal/host"
	"rise-and-shine/internal/mqtt"
	"rise-and-shine/internal/render"
	"rise-and-shine/internal/sky"
	"rise-and-shine/internal/weather"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rise-and-shine",
		Short: "Sun position widget",
		Long:  "Draws the sun travelling across the sky for your location, coloured by the current weather",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(weatherCmd())
	rootCmd.AddCommand(testCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Show the widget",
		Long:  "Start the collector and draw the sun on the terminal, or run headless with the API and MQTT only",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("headless") {
				cfg.Display.Headless = headless
			}

			closeLog, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			source, err := sky.SourceFor(cfg.Display.SkyModel)
			if err != nil {
				return err
			}
			mode, err := host.ParsePathMode(cfg.Display.PathMode)
			if err != nil {
				return err
			}
			provider, locator, err := buildCollectors(cfg)
			if err != nil {
				return err
			}

			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				log.Printf("Warning: MQTT connection failed: %v", err)
				publisher, _ = mqtt.NewPublisher(mqtt.PublisherConfig{Enabled: false})
			} else if cfg.MQTT.Enabled {
				log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
				if err := publisher.PublishHomeAssistantDiscovery(cfg.Weather.Units); err != nil {
					log.Printf("Warning: Home Assistant discovery failed: %v", err)
				}
			}
			defer publisher.Close()

			var surface host.Surface
			var term *render.Terminal
			if cfg.Display.Headless {
				surface = host.NewStaticSurface(float64(cfg.Display.HeadlessWidth), float64(cfg.Display.HeadlessHeight))
			} else {
				term, err = render.Open()
				if err != nil {
					return err
				}
				defer term.Close()
				surface = term
			}

			coord, err := host.New(host.Config{
				Surface:     surface,
				Sky:         source,
				Mode:        mode,
				RadiusRatio: cfg.Display.RadiusRatio,
				QuietPeriod: cfg.Display.QuietPeriod,
				Frames:      animation.TickerSource(cfg.Display.FrameInterval),
				OnRebuild: func(s host.State) {
					go func() {
						if err := publisher.PublishSky(s); err != nil {
							log.Printf("Error publishing sky state: %v", err)
						}
					}()
				},
			})
			if err != nil {
				return err
			}

			coll := collector.NewCollector(collector.CollectorConfig{
				Locator:   locator,
				Provider:  provider,
				Publisher: publisher,
				Schedule:  cfg.Weather.RefreshCron,
				Timeout:   cfg.Weather.Timeout,
				OnGeo:     coord.UpdateGeo,
				OnWeather: coord.UpdateWeather,
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			coordDone := make(chan struct{})
			go func() {
				defer close(coordDone)
				if err := coord.Run(ctx); err != nil {
					log.Printf("Coordinator error: %v", err)
				}
			}()

			go func() {
				if err := coll.Start(ctx); err != nil {
					log.Printf("Collector error: %v", err)
				}
			}()

			var server *api.Server
			if cfg.API.Enabled {
				server = api.NewServer(api.ServerConfig{
					Port:      cfg.API.Port,
					Collector: coll,
					Host:      coord,
				})

				go func() {
					if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Printf("API server error: %v", err)
					}
				}()
			}

			if term != nil {
				log.Println("Rise and Shine started. Press q to quit.")
				term.Run(ctx, render.Handlers{
					Resize: coord.Resize,
					Refresh: func() {
						go coll.Refresh(ctx)
					},
				})
			} else {
				log.Println("Rise and Shine started headless. Press Ctrl+C to stop.")
				<-ctx.Done()
			}

			log.Println("Shutting down...")
			stop()
			<-coordDone

			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Stop(shutdownCtx); err != nil {
					log.Printf("API server shutdown error: %v", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "run without a terminal display")
	return cmd
}

func weatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weather",
		Short: "Fetch weather once",
		Long:  "Locate, fetch the current weather once and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			provider, locator, err := buildCollectors(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Weather.Timeout)
			defer cancel()

			at, err := locator.Locate(ctx)
			if err != nil {
				return fmt.Errorf("failed to locate: %w", err)
			}
			data, err := provider.Get(ctx, at)
			if err != nil {
				return fmt.Errorf("failed to fetch weather: %w", err)
			}

			output, _ := json.MarshalIndent(struct {
				Location geo.Coordinate   `json:"location"`
				Weather  weather.Snapshot `json:"weather"`
				Icon     weather.Icon     `json:"icon"`
			}{at, data, weather.IconFor(data.ConditionID, data.ConditionLabel)}, "", "  ")
			fmt.Println(string(output))

			return nil
		},
	}
}

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the location and weather providers",
		Long:  "Check that the configured geolocation and weather providers answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			provider, locator, err := buildCollectors(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Weather.Timeout)
			defer cancel()

			fmt.Printf("Locating via %s...\n", cfg.Geo.Provider)
			at, err := locator.Locate(ctx)
			if err != nil {
				fmt.Printf("Location FAILED: %v\n", err)
				return err
			}
			fmt.Printf("Location: %s\n", at)

			fmt.Printf("Fetching weather from %s...\n", provider.Name())
			data, err := provider.Get(ctx, at)
			if err != nil {
				fmt.Printf("Weather FAILED: %v\n", err)
				return err
			}

			fmt.Println("Connection SUCCESS!")
			fmt.Printf("\nCurrent Weather:\n")
			fmt.Printf("  Condition:   %s (%s)\n", data.ConditionLabel, data.Description)
			if data.HasTemperature {
				fmt.Printf("  Temperature: %.1f %s\n", data.Temperature, data.TemperatureUnit())
			}
			fmt.Printf("  Sunrise:     %s\n", data.Sunrise.Local().Format("15:04"))
			fmt.Printf("  Sunset:      %s\n", data.Sunset.Local().Format("15:04"))
			fmt.Printf("  Daylight:    %.1f h\n", sky.DaylightHours(data.Daylight()))
			if err := data.Validate(); err != nil {
				fmt.Printf("Warning: %v\n", err)
			}

			return nil
		},
	}
}

func buildCollectors(cfg *config.Config) (weather.Provider, geo.Locator, error) {
	client := &http.Client{Timeout: cfg.Weather.Timeout}

	provider, err := weather.NewProvider(cfg.Weather.Provider, cfg.Weather.APIKey, cfg.Weather.Units, client)
	if err != nil {
		return nil, nil, err
	}

	var locator geo.Locator
	switch cfg.Geo.Provider {
	case "static":
		locator = geo.StaticLocator{Coordinate: geo.Coordinate{
			Latitude:  cfg.Geo.Latitude,
			Longitude: cfg.Geo.Longitude,
			Zip:       cfg.Weather.Zip,
			Country:   cfg.Weather.Country,
		}}
	default:
		locator = geo.NewIPLocator(cfg.Geo.URL, client)
	}

	return provider, locator, nil
}

// setupLogging sends the log to log.file while tcell owns the terminal.
func setupLogging(cfg *config.Config) (func(), error) {
	if verbose {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	if cfg.Display.Headless || cfg.Log.File == "" {
		return func() {}, nil
	}

	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return func() { f.Close() }, nil
}
