// Package settings holds the persisted runtime configuration: alert
// thresholds, reminder cadence, quiet hours and sensor calibration.
// Values change only through Store.Apply, and every accepted change is
// persisted immediately.
package settings

import (
	"errors"
	"fmt"
)

// Bounds for accepted settings values. HighOverWarnGap is the minimum
// distance between the warn and high thresholds; keeping them apart is
// what makes the level classification hysteresis-friendly.
const (
	WarnMin         = 600
	WarnMax         = 1400
	HighMin         = 1000
	HighMax         = 3000
	HighOverWarnGap = 200
	RemindMinFloor  = 5
	RemindMinCeil   = 120
	ASCTargetMin    = 400
	ASCTargetMax    = 2000
	PressureMinPa   = 70_000
	PressureMaxPa   = 120_000
	TempOffsetMaxC  = 20.0
)

// Settings is the validated runtime configuration. JSON tags match the
// on-disk state file; unknown keys in the file are ignored.
type Settings struct {
	WarnOnPPM         int     `json:"warn_on"`
	HighOnPPM         int     `json:"high_on"`
	RemindMin         int     `json:"remind_min"`
	QuietEnable       bool    `json:"quiet_enable"`
	QuietStartHour    int     `json:"quiet_start_h"`
	QuietEndHour      int     `json:"quiet_end_h"`
	ASCEnabled        bool    `json:"asc_enabled"`
	ASCTargetPPM      int     `json:"asc_target_ppm"`
	AlertUseRawCO2    bool    `json:"alert_use_raw_co2"`
	AmbientPressurePa int     `json:"ambient_pressure_pa"`
	TempOffsetC       float64 `json:"temp_offset_c"`
}

// Defaults returns the compiled-in configuration used when no state
// file exists or a field is missing or unreadable.
func Defaults() Settings {
	return Settings{
		WarnOnPPM:         800,
		HighOnPPM:         1500,
		RemindMin:         20,
		QuietEnable:       true,
		QuietStartHour:    0,
		QuietEndHour:      10,
		ASCEnabled:        true,
		ASCTargetPPM:      420,
		AlertUseRawCO2:    true,
		AmbientPressurePa: 101_000,
		TempOffsetC:       0,
	}
}

// ErrInvalid wraps all validation failures.
var ErrInvalid = errors.New("invalid settings")

// Validate checks the invariants that every accepted Settings value
// must hold. It is called on every mutation; a failing mutation is
// rejected and the previous value kept.
func Validate(s Settings) error {
	if s.WarnOnPPM < WarnMin || s.WarnOnPPM > WarnMax {
		return fmt.Errorf("%w: WARN %d out of range %d-%d", ErrInvalid, s.WarnOnPPM, WarnMin, WarnMax)
	}
	if s.HighOnPPM < HighMin || s.HighOnPPM > HighMax {
		return fmt.Errorf("%w: HIGH %d out of range %d-%d", ErrInvalid, s.HighOnPPM, HighMin, HighMax)
	}
	if s.HighOnPPM < s.WarnOnPPM+HighOverWarnGap {
		return fmt.Errorf("%w: HIGH must be at least WARN+%d", ErrInvalid, HighOverWarnGap)
	}
	if s.RemindMin < RemindMinFloor || s.RemindMin > RemindMinCeil {
		return fmt.Errorf("%w: reminder %d min out of range %d-%d", ErrInvalid, s.RemindMin, RemindMinFloor, RemindMinCeil)
	}
	if s.QuietStartHour < 0 || s.QuietStartHour > 23 || s.QuietEndHour < 0 || s.QuietEndHour > 23 {
		return fmt.Errorf("%w: quiet hours must be 0-23", ErrInvalid)
	}
	if s.ASCTargetPPM < ASCTargetMin || s.ASCTargetPPM > ASCTargetMax {
		return fmt.Errorf("%w: ASC target %d out of range %d-%d", ErrInvalid, s.ASCTargetPPM, ASCTargetMin, ASCTargetMax)
	}
	if s.AmbientPressurePa < PressureMinPa || s.AmbientPressurePa > PressureMaxPa {
		return fmt.Errorf("%w: ambient pressure %d Pa out of range", ErrInvalid, s.AmbientPressurePa)
	}
	if s.TempOffsetC < 0 || s.TempOffsetC > TempOffsetMaxC {
		return fmt.Errorf("%w: temperature offset must be 0-%g C", ErrInvalid, TempOffsetMaxC)
	}
	return nil
}

// Normalize clamps out-of-range fields to their nearest bound and
// repairs a too-small warn/high gap. Used when merging persisted state
// over defaults: a damaged file degrades to sane values, never to a
// startup failure.
func Normalize(s Settings) Settings {
	s.WarnOnPPM = clampInt(s.WarnOnPPM, WarnMin, WarnMax)
	s.HighOnPPM = clampInt(s.HighOnPPM, HighMin, HighMax)
	if s.HighOnPPM < s.WarnOnPPM+HighOverWarnGap {
		s.HighOnPPM = s.WarnOnPPM + HighOverWarnGap
		if s.HighOnPPM > HighMax {
			s.HighOnPPM = HighMax
			s.WarnOnPPM = HighMax - HighOverWarnGap
		}
	}
	s.RemindMin = clampInt(s.RemindMin, RemindMinFloor, RemindMinCeil)
	s.QuietStartHour = clampInt(s.QuietStartHour, 0, 23)
	s.QuietEndHour = clampInt(s.QuietEndHour, 0, 23)
	s.ASCTargetPPM = clampInt(s.ASCTargetPPM, ASCTargetMin, ASCTargetMax)
	s.AmbientPressurePa = clampInt(s.AmbientPressurePa, PressureMinPa, PressureMaxPa)
	if s.TempOffsetC < 0 {
		s.TempOffsetC = 0
	}
	if s.TempOffsetC > TempOffsetMaxC {
		s.TempOffsetC = TempOffsetMaxC
	}
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
