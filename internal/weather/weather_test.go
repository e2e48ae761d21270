package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rise-and-shine/internal/geo"
)

const openWeatherPayload = `{
  "weather": [{"id": 803, "main": "Clouds", "description": "broken clouds"}],
  "main": {"temp": 71.6},
  "clouds": {"all": 75},
  "dt": 1718960400,
  "sys": {"sunrise": 1718941800, "sunset": 1718996700}
}`

func TestOpenWeatherGet(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(openWeatherPayload))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient("secret", "imperial", srv.Client()).WithEndpoint(srv.URL)
	snap, err := c.Get(context.Background(), geo.Coordinate{Latitude: 40.7128, Longitude: -74.006})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if query["appid"] != "secret" || query["units"] != "imperial" {
		t.Errorf("unexpected query %v", query)
	}
	if query["lat"] != "40.712800" || query["lon"] != "-74.006000" {
		t.Errorf("lat/lon query = %q/%q", query["lat"], query["lon"])
	}

	if snap.ConditionID != 803 || snap.ConditionLabel != "Clouds" {
		t.Errorf("condition = %d %q, want 803 Clouds", snap.ConditionID, snap.ConditionLabel)
	}
	if snap.Temperature != 71.6 || !snap.HasTemperature {
		t.Errorf("temperature = %v (known=%v), want 71.6", snap.Temperature, snap.HasTemperature)
	}
	if !snap.Sunrise.Equal(time.Unix(1718941800, 0)) || !snap.Sunset.Equal(time.Unix(1718996700, 0)) {
		t.Errorf("sunrise/sunset = %v/%v", snap.Sunrise, snap.Sunset)
	}
	if err := snap.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestOpenWeatherZipQuery(t *testing.T) {
	var zip string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zip = r.URL.Query().Get("zip")
		w.Write([]byte(openWeatherPayload))
	}))
	defer srv.Close()

	c := NewOpenWeatherClient("secret", "", srv.Client()).WithEndpoint(srv.URL)
	if _, err := c.Get(context.Background(), geo.Coordinate{Zip: "94040", Country: "US"}); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if zip != "94040,us" {
		t.Errorf("zip query = %q, want 94040,us", zip)
	}
}

func TestOpenWeatherRequiresKey(t *testing.T) {
	c := NewOpenWeatherClient("", "metric", nil)
	if _, err := c.Get(context.Background(), geo.Coordinate{Latitude: 1, Longitude: 1}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestOpenMeteoGet(t *testing.T) {
	var unit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unit = r.URL.Query().Get("temperature_unit")
		w.Write([]byte(`{
		  "timezone": "Europe/Paris", "utc_offset_seconds": 7200,
		  "current": {"time": "2024-06-21T12:00", "temperature_2m": 24.3, "weather_code": 61, "cloud_cover": 88.4},
		  "daily": {"sunrise": ["2024-06-21T05:46"], "sunset": ["2024-06-21T21:58"]}
		}`))
	}))
	defer srv.Close()

	c := NewOpenMeteoClient("metric", srv.Client()).WithEndpoint(srv.URL)
	snap, err := c.Get(context.Background(), geo.Coordinate{Latitude: 48.85, Longitude: 2.35})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if unit != "celsius" {
		t.Errorf("temperature_unit = %q, want celsius", unit)
	}
	if snap.ConditionID != 500 || snap.ConditionLabel != "Rain" {
		t.Errorf("condition = %d %q, want 500 Rain", snap.ConditionID, snap.ConditionLabel)
	}
	if snap.Clouds != 88 {
		t.Errorf("clouds = %d, want 88", snap.Clouds)
	}

	// Paris is UTC+2 in June.
	wantRise := time.Date(2024, 6, 21, 3, 46, 0, 0, time.UTC)
	if !snap.Sunrise.Equal(wantRise) {
		t.Errorf("sunrise = %v, want %v", snap.Sunrise, wantRise)
	}
	if err := snap.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestAstronomyGet(t *testing.T) {
	c := NewAstronomyClient("metric")
	c.now = func() time.Time { return time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC) }

	snap, err := c.Get(context.Background(), geo.Coordinate{Latitude: 0.1, Longitude: 0.1})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	hours := snap.Sunset.Sub(snap.Sunrise).Hours()
	if hours < 11.5 || hours > 12.5 {
		t.Errorf("equatorial equinox daylight = %.2fh, want about 12h", hours)
	}
	if snap.HasTemperature {
		t.Error("astronomy snapshot claims a temperature")
	}
}

func TestAstronomyUsesLocalDate(t *testing.T) {
	tests := []struct {
		name string
		at   geo.Coordinate
		now  time.Time
	}{
		// 07:00 on June 21 in Tokyo, still June 20 in UTC.
		{"east of greenwich", geo.Coordinate{Latitude: 35.68, Longitude: 139.69}, time.Date(2024, 6, 20, 22, 0, 0, 0, time.UTC)},
		// 19:00 on June 20 in Los Angeles, already June 21 in UTC.
		{"west of greenwich", geo.Coordinate{Latitude: 34.05, Longitude: -118.24}, time.Date(2024, 6, 21, 2, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewAstronomyClient("metric")
			c.now = func() time.Time { return tt.now }

			snap, err := c.Get(context.Background(), tt.at)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !snap.Sunrise.Before(tt.now) || !snap.Sunset.After(tt.now) {
				t.Errorf("sunrise %v / sunset %v do not bracket %v", snap.Sunrise, snap.Sunset, tt.now)
			}
		})
	}
}

func TestSnapshotValidate(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		snap    Snapshot
		wantErr string
	}{
		{"valid", Snapshot{Sunrise: at, Sunset: at.Add(time.Hour)}, ""},
		{"missing", Snapshot{Sunrise: at}, "missing"},
		{"equal", Snapshot{Sunrise: at, Sunset: at}, "not before"},
		{"reversed", Snapshot{Sunrise: at.Add(time.Hour), Sunset: at}, "not before"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.snap.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestIconFor(t *testing.T) {
	tests := []struct {
		id    int
		label string
		want  string
	}{
		{800, "Clear", "clear"},
		{801, "Clouds", "few-clouds"},
		{804, "Clouds", "clouds"},
		{300, "Drizzle", "drizzle"},
		{500, "Rain", "rain"},
		{502, "Rain", "heavy-rain"},
		{211, "Thunderstorm", "thunderstorm"},
		{601, "Snow", "snow"},
		{701, "Mist", "mist"},
		{741, "", "mist"},
		{0, "Unknown", "default"},
		{999, "Tornado", "default"},
	}

	for _, tt := range tests {
		if got := IconFor(tt.id, tt.label); got.Name != tt.want {
			t.Errorf("IconFor(%d, %q) = %q, want %q", tt.id, tt.label, got.Name, tt.want)
		}
	}
}

func TestNewProvider(t *testing.T) {
	for name, want := range map[string]string{
		"":            "openweather",
		"OpenWeather": "openweather",
		"open-meteo":  "openmeteo",
		"astronomy":   "astronomy",
	} {
		p, err := NewProvider(name, "key", "metric", nil)
		if err != nil {
			t.Fatalf("NewProvider(%q) failed: %v", name, err)
		}
		if p.Name() != want {
			t.Errorf("NewProvider(%q).Name() = %q, want %q", name, p.Name(), want)
		}
	}

	if _, err := NewProvider("darksky", "", "", nil); err == nil {
		t.Error("expected error for unsupported provider")
	}
}
