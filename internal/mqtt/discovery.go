package mqtt

import (
	"encoding/json"
	"fmt"
)

// Home Assistant MQTT discovery. Publishing one retained config
// message per sensor makes the monitor show up without manual YAML.

type discoveryConfig struct {
	UniqueID          string `json:"unique_id"`
	Name              string `json:"name"`
	DeviceClass       string `json:"device_class,omitempty"`
	StateTopic        string `json:"state_topic"`
	ValueTemplate     string `json:"value_template"`
	UnitOfMeasurement string `json:"unit_of_measurement"`
}

var discoverySensors = [...]discoveryConfig{
	{
		UniqueID:          "airmon_co2",
		Name:              "Air Monitor CO2",
		DeviceClass:       "carbon_dioxide",
		StateTopic:        TopicSample,
		ValueTemplate:     "{{ value_json.co2_ppm }}",
		UnitOfMeasurement: "ppm",
	},
	{
		UniqueID:          "airmon_temperature",
		Name:              "Air Monitor Temperature",
		DeviceClass:       "temperature",
		StateTopic:        TopicSample,
		ValueTemplate:     "{{ value_json.temperature_c }}",
		UnitOfMeasurement: "°C",
	},
	{
		UniqueID:          "airmon_humidity",
		Name:              "Air Monitor Humidity",
		DeviceClass:       "humidity",
		StateTopic:        TopicSample,
		ValueTemplate:     "{{ value_json.humidity_pct }}",
		UnitOfMeasurement: "%",
	},
}

// PublishDiscovery announces the monitor's sensors to Home Assistant.
// Config messages are retained so the entities survive HA restarts.
func (p *RealPublisher) PublishDiscovery() error {
	for _, cfg := range discoverySensors {
		payload, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal discovery config: %w", err)
		}
		topic := fmt.Sprintf("homeassistant/sensor/%s/config", cfg.UniqueID)
		if err := p.publish(topic, 1, true, payload); err != nil {
			return fmt.Errorf("publish discovery for %s: %w", cfg.UniqueID, err)
		}
	}
	return nil
}
