// Package clock converts a time-sync status plus epoch seconds into
// local wall-clock time and answers whether alerts should currently be
// muted by the quiet-hours window.
package clock

import (
	"fmt"
	"time"
)

// Source provides the current epoch time and whether it can be
// trusted. The real daemon uses SystemSource; tests script their own.
type Source interface {
	Now() (epoch int64, synced bool)
}

// SystemSource reads the host clock, which on a Linux box is assumed
// NTP-disciplined. A board without a battery-backed RTC reports
// unsynced until its first sync instead.
type SystemSource struct{}

func (SystemSource) Now() (int64, bool) {
	return time.Now().Unix(), true
}

// LocalTime is a localized wall-clock moment.
type LocalTime struct {
	Hour   int
	Minute int
	Synced bool
}

// String renders HH:MM, or a dash when the clock is not trustworthy.
func (lt LocalTime) String() string {
	if !lt.Synced {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", lt.Hour, lt.Minute)
}

// Localize applies the fixed timezone offset plus, when dstEU is set,
// the EU daylight-saving rule: one extra hour from the last Sunday of
// March through the last Sunday of October (by date, inclusive start,
// exclusive end).
func Localize(epoch int64, synced bool, tzOffsetMin int, dstEU bool) LocalTime {
	t := time.Unix(epoch, 0).UTC().Add(time.Duration(tzOffsetMin) * time.Minute)
	if dstEU && dstActiveEU(t) {
		t = t.Add(time.Hour)
	}
	return LocalTime{Hour: t.Hour(), Minute: t.Minute(), Synced: synced}
}

func dstActiveEU(t time.Time) bool {
	switch {
	case t.Month() > time.March && t.Month() < time.October:
		return true
	case t.Month() == time.March:
		return t.Day() >= lastSundayDay(t.Year(), time.March)
	case t.Month() == time.October:
		return t.Day() < lastSundayDay(t.Year(), time.October)
	default:
		return false
	}
}

// lastSundayDay returns the day-of-month of the last Sunday of the
// given month.
func lastSundayDay(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return last.Day() - int(last.Weekday())
}

// QuietWindow is the configured local-time suppression window.
type QuietWindow struct {
	Enabled   bool
	StartHour int
	EndHour   int
}

// IsQuiet reports whether notifications should currently be muted.
//
// With quiet hours disabled it is always false. With an unsynced
// clock the failsafe flag decides: failsafe off means an unknown clock
// never mutes alerts, an explicit choice against silent alert loss.
// Otherwise the hour is tested against [start, end), wrapping past
// midnight when start > end.
func IsQuiet(lt LocalTime, w QuietWindow, failsafe bool) bool {
	if !w.Enabled {
		return false
	}
	if !lt.Synced {
		return failsafe
	}
	if w.StartHour == w.EndHour {
		// Degenerate window: nothing is suppressed.
		return false
	}
	if w.StartHour < w.EndHour {
		return lt.Hour >= w.StartHour && lt.Hour < w.EndHour
	}
	return lt.Hour >= w.StartHour || lt.Hour < w.EndHour
}
