// Package config loads the device configuration file. Unlike the
// runtime settings (thresholds, quiet hours), these values describe
// the installation (ports, tokens, pins) and only change with a
// redeploy.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the device configuration, read once at startup.
type Config struct {
	SerialPort string `yaml:"serial_port"`
	StateFile  string `yaml:"state_file"`
	HTTPAddr   string `yaml:"http_addr"`
	PollMs     int64  `yaml:"poll_ms"`

	MQTT     MQTT     `yaml:"mqtt"`
	Telegram Telegram `yaml:"telegram"`
	Clock    Clock    `yaml:"clock"`
	LED      LED      `yaml:"led"`
}

// MQTT configures the broker connection. An empty broker disables
// MQTT publishing.
type MQTT struct {
	Broker    string `yaml:"broker"`
	Discovery bool   `yaml:"discovery"`
}

// Telegram configures the remote command channel. An empty token
// disables it.
type Telegram struct {
	Token         string `yaml:"token"`
	ChatID        int64  `yaml:"chat_id"`
	AllowedUserID int64  `yaml:"allowed_user_id"`
	PollMs        int64  `yaml:"poll_ms"`
	InlineKeys    bool   `yaml:"inline_keys"`
}

// Clock configures local-time derivation and quiet-hours behavior
// when the clock is not synced.
type Clock struct {
	TZOffsetMin   int  `yaml:"tz_offset_min"`
	DSTEnable     bool `yaml:"dst_enable"`
	QuietFailsafe bool `yaml:"quiet_failsafe"` // treat unknown time as quiet
}

// LED configures the status LED. Enabled only on hardware builds.
type LED struct {
	Enable   bool `yaml:"enable"`
	PinRed   int  `yaml:"pin_red"`
	PinGreen int  `yaml:"pin_green"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		SerialPort: "/dev/ttyUSB0",
		StateFile:  "/var/lib/co2-monitor/state.json",
		HTTPAddr:   ":8080",
		PollMs:     5000,
		Telegram: Telegram{
			PollMs: 8000,
		},
		Clock: Clock{
			TZOffsetMin: 120,
			DSTEnable:   true,
		},
		LED: LED{
			PinRed:   23,
			PinGreen: 24,
		},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SerialPort == "" {
		return fmt.Errorf("config: serial_port must not be empty")
	}
	if c.StateFile == "" {
		return fmt.Errorf("config: state_file must not be empty")
	}
	if c.PollMs < 1000 {
		return fmt.Errorf("config: poll_ms %d below minimum 1000", c.PollMs)
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("config: telegram.chat_id required when token is set")
	}
	if c.Telegram.PollMs < 1000 {
		return fmt.Errorf("config: telegram.poll_ms %d below minimum 1000", c.Telegram.PollMs)
	}
	if c.Clock.TZOffsetMin < -12*60 || c.Clock.TZOffsetMin > 14*60 {
		return fmt.Errorf("config: tz_offset_min %d out of range", c.Clock.TZOffsetMin)
	}
	return nil
}
