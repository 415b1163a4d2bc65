// Package display renders the monitor's front panel. The device has a
// small character display; on a headless build the log renderer stands
// in for it.
package display

import (
	"fmt"
	"log"

	"github.com/sweeney/co2-monitor/internal/logic"
)

// Frame is everything shown on the panel at once.
type Frame struct {
	CO2PPM      uint16
	TempC       float64
	HumidityPct float64
	Trend       logic.Trend
	Level       logic.Level
	LocalTime   string // "HH:MM" or "--:--" when unsynced
	QuietNow    bool
	SensorOK    bool
	WifiOK      bool
	MQTTOK      bool
	HaveReading bool
}

// Renderer shows a frame on whatever output is attached.
type Renderer interface {
	Render(f Frame) error
	Close() error
}

func trendArrow(t logic.Trend) string {
	switch t {
	case logic.TrendUp:
		return "↑"
	case logic.TrendDown:
		return "↓"
	}
	return "→"
}

// Line formats a frame as a single text line. Shared by the log
// renderer and the remote status card.
func Line(f Frame) string {
	if !f.HaveReading {
		if f.SensorOK {
			return fmt.Sprintf("warming up  %s", f.LocalTime)
		}
		return fmt.Sprintf("sensor error  %s", f.LocalTime)
	}

	line := fmt.Sprintf("CO2 %d ppm %s  %.1f°C  %.0f%%  [%s]  %s",
		f.CO2PPM, trendArrow(f.Trend), f.TempC, f.HumidityPct, f.Level, f.LocalTime)
	if f.QuietNow {
		line += "  quiet"
	}
	if !f.SensorOK {
		line += "  SENSOR?"
	}
	if !f.WifiOK {
		line += "  NET?"
	} else if !f.MQTTOK {
		line += "  MQTT?"
	}
	return line
}

// LogRenderer writes frames to the process log. Used on headless
// builds and during bring-up.
type LogRenderer struct {
	last string
}

// NewLogRenderer creates a LogRenderer.
func NewLogRenderer() *LogRenderer {
	return &LogRenderer{}
}

// Render logs the frame when it differs from the previous one.
func (r *LogRenderer) Render(f Frame) error {
	line := Line(f)
	if line == r.last {
		return nil
	}
	r.last = line
	log.Printf("display: %s", line)
	return nil
}

// Close is a no-op.
func (r *LogRenderer) Close() error { return nil }

// NopRenderer discards frames.
type NopRenderer struct{}

func (NopRenderer) Render(Frame) error { return nil }
func (NopRenderer) Close() error       { return nil }

// FakeRenderer records frames for test assertions.
type FakeRenderer struct {
	Frames []Frame
	Closed bool

	// RenderError, if set, will be returned by Render.
	RenderError error
}

// NewFakeRenderer creates a FakeRenderer for testing.
func NewFakeRenderer() *FakeRenderer {
	return &FakeRenderer{}
}

// Render records the frame.
func (f *FakeRenderer) Render(fr Frame) error {
	if f.RenderError != nil {
		return f.RenderError
	}
	f.Frames = append(f.Frames, fr)
	return nil
}

// Close marks the renderer as closed.
func (f *FakeRenderer) Close() error {
	f.Closed = true
	return nil
}
