// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/co2-monitor/internal/logic"
)

// TopicSample is the MQTT topic for periodic telemetry samples.
const TopicSample = "airmon/sample"

// TopicAlert is the MQTT topic for alert transitions.
const TopicAlert = "airmon/alert"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "airmon/system"

// Publisher publishes monitor events to MQTT.
type Publisher interface {
	// PublishSample sends a telemetry sample to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishSample(s Sample) error

	// PublishAlert sends an alert transition to the broker.
	PublishAlert(e AlertEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(e SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Sample is one telemetry measurement.
type Sample struct {
	Timestamp   time.Time
	CO2PPM      uint16
	CO2Filtered float64
	TempC       float64
	HumidityPct float64
	Level       logic.Level
	Trend       logic.Trend
}

// AlertEvent is one alert state transition.
type AlertEvent struct {
	Timestamp time.Time
	Type      logic.NotificationType
	CO2PPM    float64
	Level     logic.Level
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN"
	Reason    string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Retained  bool
}

type samplePayload struct {
	Timestamp   string  `json:"timestamp"`
	CO2PPM      uint16  `json:"co2_ppm"`
	CO2Filtered float64 `json:"co2_filtered_ppm"`
	TempC       float64 `json:"temperature_c"`
	HumidityPct float64 `json:"humidity_pct"`
	Level       string  `json:"level"`
	Trend       string  `json:"trend"`
}

type alertPayload struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	CO2PPM    float64 `json:"co2_ppm"`
	Level     string  `json:"level"`
}

type systemPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSample creates the JSON payload for a telemetry sample.
func FormatSample(s Sample) ([]byte, error) {
	return json.Marshal(samplePayload{
		Timestamp:   s.Timestamp.UTC().Format(time.RFC3339),
		CO2PPM:      s.CO2PPM,
		CO2Filtered: s.CO2Filtered,
		TempC:       s.TempC,
		HumidityPct: s.HumidityPct,
		Level:       string(s.Level),
		Trend:       string(s.Trend),
	})
}

// FormatAlert creates the JSON payload for an alert transition.
func FormatAlert(e AlertEvent) ([]byte, error) {
	return json.Marshal(alertPayload{
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(e.Type),
		CO2PPM:    e.CO2PPM,
		Level:     string(e.Level),
	})
}

// FormatSystem creates the JSON payload for a system event.
func FormatSystem(e SystemEvent) ([]byte, error) {
	return json.Marshal(systemPayload{
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		Event:     e.Event,
		Reason:    e.Reason,
	})
}
