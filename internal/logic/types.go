// Package logic contains the pure air-quality decision core: level
// classification, the entry/reminder/recovery state machine, and trend
// computation. This package has NO external dependencies (no bus,
// network, OS, or time.Sleep). Time is always injectable via time.Time
// parameters.
package logic

import "time"

// Level classifies a CO2 value against the configured thresholds.
type Level string

const (
	LevelGood Level = "GOOD"
	LevelOK   Level = "OK"
	LevelHigh Level = "HIGH"
)

// Severity orders levels for metrics and comparisons (GOOD=0, OK=1,
// HIGH=2).
func (l Level) Severity() int {
	switch l {
	case LevelOK:
		return 1
	case LevelHigh:
		return 2
	default:
		return 0
	}
}

// NotificationType identifies an outbound alert.
type NotificationType string

const (
	NotifyEnteredHigh NotificationType = "ENTERED_HIGH"
	NotifyReminder    NotificationType = "REMINDER_HIGH"
	NotifyRecovered   NotificationType = "RECOVERED"
)

// Notification is an alert decision to be delivered. Delivery is
// best-effort; a dropped notification is superseded by the next
// evaluation.
type Notification struct {
	Type        NotificationType
	At          time.Time
	CO2PPM      float64
	TempC       float64
	HumidityPct float64
}

// AlertState tracks the alert side of the evaluation between cycles.
// It is transient: a restart re-enters from unknown state, so no stale
// reminder timer survives a reboot.
type AlertState struct {
	Level Level

	// EnteredHighAt is set while HIGH and kept while still elevated
	// (OK after HIGH), because only a drop all the way to GOOD counts
	// as recovered. Zero when cleared.
	EnteredHighAt time.Time

	// LastReminderAt is the reminder pacing timer. It advances even
	// when quiet hours suppress the message, so reminders never stack
	// up behind a quiet window.
	LastReminderAt time.Time
}

// Input is one evaluation sample.
type Input struct {
	// Value is the CO2 value chosen for alerting (raw or filtered,
	// per settings).
	Value float64

	// TempC and HumidityPct parameterize notification texts.
	TempC       float64
	HumidityPct float64

	// Valid mirrors the sensor reading validity. An invalid input is
	// a no-op: state and timers freeze until the next valid sample.
	Valid bool

	// Quiet suppresses notification delivery without touching the
	// bookkeeping.
	Quiet bool

	Time time.Time
}

// Trend is a coarse direction for display purposes.
type Trend string

const (
	TrendUp   Trend = "UP"
	TrendDown Trend = "DOWN"
	TrendFlat Trend = "FLAT"
)
