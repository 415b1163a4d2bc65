// Package led drives the status LED with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package led

import "github.com/sweeney/co2-monitor/internal/logic"

// Color is a status LED color on the bi-color (red/green) LED.
type Color string

const (
	ColorOff    Color = "OFF"
	ColorGreen  Color = "GREEN"
	ColorYellow Color = "YELLOW" // both lines driven
	ColorRed    Color = "RED"
)

// Pin definitions (BCM numbering)
const (
	PinRed   = 23
	PinGreen = 24
)

// Indicator sets the status LED.
type Indicator interface {
	// Set drives the LED to the given color.
	// Returns error if the hardware write fails (should not crash the process).
	Set(c Color) error

	// Close turns the LED off and releases GPIO resources.
	Close() error
}

// ColorFor maps an alert level to the LED color. A sensor fault
// overrides the level and shows red.
func ColorFor(level logic.Level, sensorOK bool) Color {
	if !sensorOK {
		return ColorRed
	}
	switch level {
	case logic.LevelGood:
		return ColorGreen
	case logic.LevelOK:
		return ColorYellow
	case logic.LevelHigh:
		return ColorRed
	}
	return ColorOff
}
