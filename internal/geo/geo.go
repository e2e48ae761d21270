package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"rise-and-shine/internal/resilience"
)

var ErrNotLocated = errors.New("location not available")

// Coordinate is fetched once and replaced wholesale, never edited.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Zip       string  `json:"zip,omitempty"`
}

func (c Coordinate) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

func (c Coordinate) String() string {
	if c.City != "" {
		return fmt.Sprintf("%s (%.4f, %.4f)", c.City, c.Latitude, c.Longitude)
	}
	return fmt.Sprintf("%.4f, %.4f", c.Latitude, c.Longitude)
}

type Locator interface {
	Locate(ctx context.Context) (Coordinate, error)
}

// StaticLocator returns configured coordinates.
type StaticLocator struct {
	Coordinate Coordinate
}

func (s StaticLocator) Locate(context.Context) (Coordinate, error) {
	if s.Coordinate.IsZero() && s.Coordinate.Zip == "" {
		return Coordinate{}, fmt.Errorf("static location: %w", ErrNotLocated)
	}
	return s.Coordinate, nil
}

const DefaultIPLocatorURL = "http://ip-api.com/json/"

// IPLocator resolves the caller's public IP to a coordinate using an
// ip-api.com compatible endpoint.
type IPLocator struct {
	endpoint string
	client   *resilience.Client
}

func NewIPLocator(endpoint string, client *http.Client) *IPLocator {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultIPLocatorURL
	}
	return &IPLocator{
		endpoint: endpoint,
		client:   resilience.NewClient("ip-geolocation", client, resilience.DefaultBackoff),
	}
}

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	City        string  `json:"city"`
	CountryCode string  `json:"countryCode"`
	Zip         string  `json:"zip"`
}

func (l *IPLocator) Locate(ctx context.Context) (Coordinate, error) {
	resp, err := l.client.Do(ctx, func() (*http.Request, error) {
		u, err := url.Parse(l.endpoint)
		if err != nil {
			return nil, fmt.Errorf("ip geolocation url: %w", err)
		}
		query := u.Query()
		query.Set("fields", "status,message,lat,lon,city,countryCode,zip")
		u.RawQuery = query.Encode()
		return http.NewRequest(http.MethodGet, u.String(), nil)
	})
	if err != nil {
		return Coordinate{}, fmt.Errorf("ip geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Coordinate{}, fmt.Errorf("ip geolocation decode: %w", err)
	}

	if payload.Status != "" && payload.Status != "success" {
		return Coordinate{}, fmt.Errorf("ip geolocation %s: %s: %w", payload.Status, payload.Message, ErrNotLocated)
	}

	coord := Coordinate{
		Latitude:  payload.Lat,
		Longitude: payload.Lon,
		City:      payload.City,
		Country:   payload.CountryCode,
		Zip:       payload.Zip,
	}
	if coord.IsZero() {
		return Coordinate{}, fmt.Errorf("ip geolocation returned no coordinates: %w", ErrNotLocated)
	}
	return coord, nil
}
