//go:build linux

package led

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealIndicator drives a bi-color LED on actual hardware using the
// Linux GPIO character device.
type RealIndicator struct {
	chip  *gpiocdev.Chip
	red   *gpiocdev.Line
	green *gpiocdev.Line
}

// NewRealIndicator requests the red and green lines as outputs,
// initially off.
func NewRealIndicator(pinRed, pinGreen int) (*RealIndicator, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	redLine, err := chip.RequestLine(pinRed, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request red pin %d: %w", pinRed, err)
	}

	greenLine, err := chip.RequestLine(pinGreen, gpiocdev.AsOutput(0))
	if err != nil {
		redLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request green pin %d: %w", pinGreen, err)
	}

	return &RealIndicator{
		chip:  chip,
		red:   redLine,
		green: greenLine,
	}, nil
}

// Set drives the two lines for the requested color.
func (r *RealIndicator) Set(c Color) error {
	redVal, greenVal := 0, 0
	switch c {
	case ColorGreen:
		greenVal = 1
	case ColorRed:
		redVal = 1
	case ColorYellow:
		redVal, greenVal = 1, 1
	}

	if err := r.red.SetValue(redVal); err != nil {
		return fmt.Errorf("set red pin: %w", err)
	}
	if err := r.green.SetValue(greenVal); err != nil {
		return fmt.Errorf("set green pin: %w", err)
	}
	return nil
}

// Close turns the LED off and releases GPIO resources.
func (r *RealIndicator) Close() error {
	var errs []error

	if r.red != nil {
		if err := r.red.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear red pin: %w", err))
		}
		if err := r.red.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close red pin: %w", err))
		}
	}
	if r.green != nil {
		if err := r.green.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear green pin: %w", err))
		}
		if err := r.green.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close green pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
