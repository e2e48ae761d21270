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

const openWeatherEndpoint = "https://api.openweathermap.org/data/2.5/weather"

type OpenWeatherClient struct {
	apiKey   string
	units    string
	endpoint string
	client   *resilience.Client
}

func NewOpenWeatherClient(apiKey, units string, client *http.Client) *OpenWeatherClient {
	if units == "" {
		units = "imperial"
	}
	return &OpenWeatherClient{
		apiKey:   apiKey,
		units:    units,
		endpoint: openWeatherEndpoint,
		client:   resilience.NewClient("openweather", client, resilience.DefaultBackoff),
	}
}

// WithEndpoint points the client at another host, e.g. a test server.
func (c *OpenWeatherClient) WithEndpoint(endpoint string) *OpenWeatherClient {
	c.endpoint = endpoint
	return c
}

func (c *OpenWeatherClient) Name() string { return "openweather" }

type openWeatherResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Dt  int64 `json:"dt"`
	Sys struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

func (c *OpenWeatherClient) Get(ctx context.Context, at geo.Coordinate) (Snapshot, error) {
	if c.apiKey == "" {
		return Snapshot{}, fmt.Errorf("openweather api key is empty")
	}

	query := url.Values{}
	query.Set("appid", c.apiKey)
	query.Set("units", c.units)

	switch {
	case !at.IsZero():
		query.Set("lat", fmt.Sprintf("%.6f", at.Latitude))
		query.Set("lon", fmt.Sprintf("%.6f", at.Longitude))
	case at.Zip != "":
		if at.Country != "" {
			query.Set("zip", fmt.Sprintf("%s,%s", at.Zip, strings.ToLower(at.Country)))
		} else {
			query.Set("zip", at.Zip)
		}
	case at.City != "":
		if at.Country != "" {
			query.Set("q", fmt.Sprintf("%s,%s", at.City, at.Country))
		} else {
			query.Set("q", at.City)
		}
	default:
		return Snapshot{}, fmt.Errorf("openweather location is empty")
	}

	resp, err := c.client.Do(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("openweather request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Snapshot{}, fmt.Errorf("openweather decode: %w", err)
	}

	snap := Snapshot{
		Provider:       c.Name(),
		Temperature:    payload.Main.Temp,
		HasTemperature: true,
		Units:          c.units,
		Clouds:         payload.Clouds.All,
		ObservedAt:     time.Unix(payload.Dt, 0).UTC(),
	}
	if len(payload.Weather) > 0 {
		snap.ConditionID = payload.Weather[0].ID
		snap.ConditionLabel = payload.Weather[0].Main
		snap.Description = payload.Weather[0].Description
	}
	if payload.Sys.Sunrise != 0 {
		snap.Sunrise = time.Unix(payload.Sys.Sunrise, 0).UTC()
	}
	if payload.Sys.Sunset != 0 {
		snap.Sunset = time.Unix(payload.Sys.Sunset, 0).UTC()
	}
	if payload.Dt == 0 {
		snap.ObservedAt = time.Now().UTC()
	}

	return snap, nil
}
