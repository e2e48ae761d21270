package weather

import (
	"fmt"
	"net/http"
	"strings"
)

// NewProvider resolves a configured provider name.
func NewProvider(name, apiKey, units string, client *http.Client) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "openweather":
		return NewOpenWeatherClient(apiKey, units, client), nil
	case "openmeteo", "open-meteo", "open_meteo":
		return NewOpenMeteoClient(units, client), nil
	case "astronomy", "offline":
		return NewAstronomyClient(units), nil
	default:
		return nil, fmt.Errorf("weather provider not supported: %s", name)
	}
}
