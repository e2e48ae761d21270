package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rise-and-shine/internal/geo"
	"rise-and-shine/internal/resilience"
)

const openMeteoEndpoint = "https://api.open-meteo.com/v1/forecast"

type OpenMeteoClient struct {
	units    string
	endpoint string
	client   *resilience.Client
}

func NewOpenMeteoClient(units string, client *http.Client) *OpenMeteoClient {
	if units == "" {
		units = "imperial"
	}
	return &OpenMeteoClient{
		units:    units,
		endpoint: openMeteoEndpoint,
		client:   resilience.NewClient("openmeteo", client, resilience.DefaultBackoff),
	}
}

func (c *OpenMeteoClient) WithEndpoint(endpoint string) *OpenMeteoClient {
	c.endpoint = endpoint
	return c
}

func (c *OpenMeteoClient) Name() string { return "openmeteo" }

type openMeteoResponse struct {
	Timezone  string `json:"timezone"`
	UTCOffset int    `json:"utc_offset_seconds"`
	Current   struct {
		Time        string  `json:"time"`
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
		CloudCover  float64 `json:"cloud_cover"`
	} `json:"current"`
	Daily struct {
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

func (c *OpenMeteoClient) Get(ctx context.Context, at geo.Coordinate) (Snapshot, error) {
	if at.IsZero() {
		return Snapshot{}, fmt.Errorf("open-meteo requires latitude and longitude")
	}

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.6f", at.Latitude))
	query.Set("longitude", fmt.Sprintf("%.6f", at.Longitude))
	query.Set("current", "temperature_2m,weather_code,cloud_cover")
	query.Set("daily", "sunrise,sunset")
	query.Set("timezone", "auto")
	query.Set("forecast_days", "1")
	switch c.units {
	case "imperial":
		query.Set("temperature_unit", "fahrenheit")
	default:
		query.Set("temperature_unit", "celsius")
	}

	resp, err := c.client.Do(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("open-meteo request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Snapshot{}, fmt.Errorf("open-meteo decode: %w", err)
	}

	if strings.TrimSpace(payload.Current.Time) == "" {
		return Snapshot{}, fmt.Errorf("open-meteo current data missing")
	}

	loc := openMeteoLocation(payload.Timezone, payload.UTCOffset)
	observed := parseOpenMeteoTime(payload.Current.Time, loc)

	var sunrise, sunset time.Time
	if len(payload.Daily.Sunrise) > 0 && len(payload.Daily.Sunset) > 0 {
		sunrise = parseOpenMeteoTime(payload.Daily.Sunrise[0], loc)
		sunset = parseOpenMeteoTime(payload.Daily.Sunset[0], loc)
	}

	id, label, description := openMeteoDescribe(payload.Current.WeatherCode)
	temperature := payload.Current.Temperature
	if c.units == "standard" {
		temperature += 273.15
	}

	return Snapshot{
		Provider:       c.Name(),
		ConditionID:    id,
		ConditionLabel: label,
		Description:    description,
		Temperature:    temperature,
		HasTemperature: true,
		Units:          c.units,
		Clouds:         int(payload.Current.CloudCover + 0.5),
		Sunrise:        sunrise.UTC(),
		Sunset:         sunset.UTC(),
		ObservedAt:     observed.UTC(),
	}, nil
}

func openMeteoLocation(timezone string, offset int) *time.Location {
	if strings.TrimSpace(timezone) != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			return parsed
		}
	}
	if offset != 0 {
		return time.FixedZone(timezone, offset)
	}
	return time.UTC
}

func parseOpenMeteoTime(value string, loc *time.Location) time.Time {
	if t, err := time.ParseInLocation("2006-01-02T15:04", value, loc); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(time.RFC3339, value, loc); err == nil {
		return t
	}
	return time.Time{}
}

// openMeteoDescribe maps a WMO weather code onto the OpenWeather condition
// id space so one icon table serves every provider.
func openMeteoDescribe(code int) (int, string, string) {
	switch code {
	case 0:
		return 800, "Clear", "clear sky"
	case 1:
		return 801, "Clouds", "mainly clear"
	case 2:
		return 802, "Clouds", "partly cloudy"
	case 3:
		return 804, "Clouds", "overcast"
	case 45, 48:
		return 741, "Fog", "fog"
	case 51, 53, 55, 56, 57:
		return 300, "Drizzle", "drizzle"
	case 61, 63, 66:
		return 500, "Rain", "rain"
	case 65, 67:
		return 502, "Rain", "heavy rain"
	case 71, 73, 77:
		return 600, "Snow", "snow"
	case 75:
		return 602, "Snow", "heavy snow"
	case 80, 81, 82:
		return 521, "Rain", "rain showers"
	case 85, 86:
		return 621, "Snow", "snow showers"
	case 95:
		return 211, "Thunderstorm", "thunderstorm"
	case 96, 99:
		return 202, "Thunderstorm", "thunderstorm with hail"
	default:
		return 0, "Unknown", "unknown condition"
	}
}
