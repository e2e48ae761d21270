package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"rise-and-shine/internal/host"
	"rise-and-shine/internal/weather"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return newPublisher(client, cfg.TopicPrefix), nil
}

func newPublisher(client mqtt.Client, prefix string) *Publisher {
	return &Publisher{client: client, topicPrefix: prefix, enabled: true}
}

func (p *Publisher) topic(parts ...string) string {
	t := p.topicPrefix
	for _, part := range parts {
		t += "/" + part
	}
	return t
}

func (p *Publisher) publish(topic string, retained bool, payload interface{}) error {
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	return token.Error()
}

// PublishWeather sends each field to its own topic and the whole reading as
// retained JSON.
func (p *Publisher) PublishWeather(snap weather.Snapshot) error {
	if !p.enabled {
		return nil
	}

	topics := map[string]interface{}{
		"condition":   snap.ConditionLabel,
		"description": snap.Description,
		"clouds":      snap.Clouds,
		"sunrise":     snap.Sunrise.Format(time.RFC3339),
		"sunset":      snap.Sunset.Format(time.RFC3339),
		"provider":    snap.Provider,
	}
	if snap.HasTemperature {
		topics["temperature"] = fmt.Sprintf("%.1f", snap.Temperature)
	}

	for name, value := range topics {
		topic := p.topic("weather", name)
		if err := p.publish(topic, false, fmt.Sprintf("%v", value)); err != nil {
			log.Printf("Failed to publish to %s: %v", topic, err)
		}
	}

	statusJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal weather: %w", err)
	}
	if err := p.publish(p.topic("weather", "status"), true, statusJSON); err != nil {
		return fmt.Errorf("failed to publish weather status: %w", err)
	}

	return nil
}

// skyState is the retained rebuild announcement.
type skyState struct {
	Generation uint64    `json:"generation"`
	Mode       string    `json:"mode"`
	Sky        string    `json:"sky"`
	StartAngle float64   `json:"start_angle"`
	EndAngle   float64   `json:"end_angle"`
	Duration   string    `json:"duration"`
	Radius     float64   `json:"radius"`
	Icon       string    `json:"icon"`
	Reason     string    `json:"reason"`
	RebuiltAt  time.Time `json:"rebuilt_at"`
}

// PublishSky announces a new sun path.
func (p *Publisher) PublishSky(state host.State) error {
	if !p.enabled {
		return nil
	}

	payload, err := json.Marshal(skyState{
		Generation: state.Generation,
		Mode:       string(state.Mode),
		Sky:        state.Sky,
		StartAngle: state.Path.StartAngle,
		EndAngle:   state.Path.EndAngle,
		Duration:   state.Path.Duration.String(),
		Radius:     state.Radius,
		Icon:       state.Icon.Name,
		Reason:     state.Reason,
		RebuiltAt:  state.RebuiltAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sky state: %w", err)
	}

	if err := p.publish(p.topic("sky", "state"), true, payload); err != nil {
		return fmt.Errorf("failed to publish sky state: %w", err)
	}
	return nil
}

func (p *Publisher) PublishHomeAssistantDiscovery(units string) error {
	if !p.enabled {
		return nil
	}

	sensors := []struct {
		Name        string
		ID          string
		Unit        string
		DeviceClass string
	}{
		{"Temperature", "temperature", weather.UnitSymbol(units), "temperature"},
		{"Condition", "condition", "", ""},
		{"Sunrise", "sunrise", "", "timestamp"},
		{"Sunset", "sunset", "", "timestamp"},
	}

	for _, sensor := range sensors {
		discoveryTopic := fmt.Sprintf("homeassistant/sensor/rise_and_shine/%s/config", sensor.ID)

		config := map[string]interface{}{
			"name":        fmt.Sprintf("Rise and Shine %s", sensor.Name),
			"unique_id":   fmt.Sprintf("rise_and_shine_%s", sensor.ID),
			"state_topic": p.topic("weather", sensor.ID),
			"device": map[string]interface{}{
				"identifiers":  []string{"rise_and_shine"},
				"name":         "Rise and Shine",
				"manufacturer": "rise-and-shine",
			},
		}

		if sensor.Unit != "" {
			config["unit_of_measurement"] = sensor.Unit
		}
		if sensor.DeviceClass != "" {
			config["device_class"] = sensor.DeviceClass
		}

		payload, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to marshal discovery for %s: %w", sensor.ID, err)
		}
		if err := p.publish(discoveryTopic, true, payload); err != nil {
			log.Printf("Failed to publish discovery for %s: %v", sensor.ID, err)
		}
	}

	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
