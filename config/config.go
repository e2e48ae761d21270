package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "RISE"

type Config struct {
	Weather WeatherConfig `mapstructure:"weather"`
	Geo     GeoConfig     `mapstructure:"geo"`
	Display DisplayConfig `mapstructure:"display"`
	API     APIConfig     `mapstructure:"api"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Log     LogConfig     `mapstructure:"log"`
}

type WeatherConfig struct {
	Provider    string        `mapstructure:"provider" validate:"oneof=openweather openmeteo open-meteo astronomy offline"`
	APIKey      string        `mapstructure:"api_key"`
	Zip         string        `mapstructure:"zip"`
	Country     string        `mapstructure:"country"`
	Units       string        `mapstructure:"units" validate:"oneof=imperial metric standard"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RefreshCron string        `mapstructure:"refresh_cron" validate:"required"`
}

type GeoConfig struct {
	Provider  string  `mapstructure:"provider" validate:"oneof=ip static"`
	URL       string  `mapstructure:"url" validate:"omitempty,url"`
	Latitude  float64 `mapstructure:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `mapstructure:"longitude" validate:"gte=-180,lte=180"`
}

type DisplayConfig struct {
	RadiusRatio    float64       `mapstructure:"radius_ratio" validate:"gt=0,lte=0.5"`
	QuietPeriod    time.Duration `mapstructure:"quiet_period" validate:"gt=0"`
	FrameInterval  time.Duration `mapstructure:"frame_interval" validate:"gt=0"`
	PathMode       string        `mapstructure:"path_mode" validate:"oneof=hour day"`
	SkyModel       string        `mapstructure:"sky_model" validate:"oneof=clock solar suncalc"`
	Headless       bool          `mapstructure:"headless"`
	HeadlessWidth  int           `mapstructure:"headless_width" validate:"gt=0"`
	HeadlessHeight int           `mapstructure:"headless_height" validate:"gt=0"`
}

type APIConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"min=1,max=65535"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker" validate:"required_if=Enabled true"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

var validate = validator.New()

func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/rise-and-shine")
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("weather.api_key", envPrefix+"_WEATHER_API_KEY", "OPENWEATHER_API_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("weather.provider", "openweather")
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.zip", "")
	v.SetDefault("weather.country", "")
	v.SetDefault("weather.units", "imperial")
	v.SetDefault("weather.timeout", "30s")
	v.SetDefault("weather.refresh_cron", "0 * * * *")
	v.SetDefault("geo.provider", "ip")
	v.SetDefault("geo.url", "http://ip-api.com/json/")
	v.SetDefault("geo.latitude", 0)
	v.SetDefault("geo.longitude", 0)
	v.SetDefault("display.radius_ratio", 0.3)
	v.SetDefault("display.quiet_period", "500ms")
	v.SetDefault("display.frame_interval", "16ms")
	v.SetDefault("display.path_mode", "hour")
	v.SetDefault("display.sky_model", "clock")
	v.SetDefault("display.headless", false)
	v.SetDefault("display.headless_width", 120)
	v.SetDefault("display.headless_height", 60)
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.port", 8046)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "rise-and-shine")
	v.SetDefault("mqtt.client_id", "rise-and-shine")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("log.file", "rise-and-shine.log")
}

// Validate checks field ranges and the combinations a tag cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid config %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Weather.Provider == "openweather" && c.Weather.APIKey == "" {
		return fmt.Errorf("weather.api_key is required for openweather (set %s_WEATHER_API_KEY)", envPrefix)
	}
	if c.Geo.Provider == "static" && c.Geo.Latitude == 0 && c.Geo.Longitude == 0 && c.Weather.Zip == "" {
		return fmt.Errorf("geo.provider static needs geo.latitude/geo.longitude or weather.zip")
	}
	if c.Geo.Provider == "static" && c.Geo.Latitude == 0 && c.Geo.Longitude == 0 &&
		(c.Display.SkyModel == "solar" || c.Display.SkyModel == "suncalc") {
		return fmt.Errorf("display.sky_model %s needs geo.latitude/geo.longitude, a zip code has no coordinates", c.Display.SkyModel)
	}
	return nil
}
