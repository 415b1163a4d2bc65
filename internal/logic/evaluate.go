package logic

import "time"

// Thresholds are the subset of settings the evaluation needs.
type Thresholds struct {
	WarnOnPPM int
	HighOnPPM int
	RemindMin int
}

// Classify maps a CO2 value onto a level. Pure and total: every value
// lands in exactly one level.
func Classify(value float64, t Thresholds) Level {
	switch {
	case value < float64(t.WarnOnPPM):
		return LevelGood
	case value < float64(t.HighOnPPM):
		return LevelOK
	default:
		return LevelHigh
	}
}

// Evaluate advances the alert state by one sample and decides whether
// a notification is due.
//
// The hysteresis is asymmetric on purpose: entering HIGH notifies
// immediately and reminds periodically, but leaving HIGH only counts
// as recovered once the value drops all the way to GOOD. A drop into
// OK stays silent — still elevated, so no premature all-clear.
//
// Quiet hours mute delivery, not bookkeeping: level transitions and
// the reminder timer proceed as usual, the notification is simply not
// returned. A reminder due during quiet hours is therefore not saved
// up for later.
//
// An invalid input freezes everything until the next valid sample.
func Evaluate(in Input, prev AlertState, t Thresholds) (AlertState, *Notification) {
	if !in.Valid {
		return prev, nil
	}

	level := Classify(in.Value, t)
	next := prev
	next.Level = level

	var notif *Notification

	switch {
	case level == LevelHigh && prev.Level != LevelHigh:
		// Entry into HIGH from anywhere.
		next.EnteredHighAt = in.Time
		next.LastReminderAt = in.Time
		notif = notification(NotifyEnteredHigh, in)

	case level == LevelHigh:
		// Remaining HIGH: periodic reminder.
		remind := time.Duration(t.RemindMin) * time.Minute
		if remind > 0 && in.Time.Sub(prev.LastReminderAt) >= remind {
			next.LastReminderAt = in.Time
			notif = notification(NotifyReminder, in)
		}

	case level == LevelGood && !prev.EnteredHighAt.IsZero():
		// Back to GOOD after an episode: the one true all-clear.
		next.EnteredHighAt = time.Time{}
		next.LastReminderAt = time.Time{}
		notif = notification(NotifyRecovered, in)

		// OK after HIGH keeps EnteredHighAt: still elevated, no
		// message either way.
	}

	if in.Quiet {
		notif = nil
	}
	return next, notif
}

func notification(t NotificationType, in Input) *Notification {
	return &Notification{
		Type:        t,
		At:          in.Time,
		CO2PPM:      in.Value,
		TempC:       in.TempC,
		HumidityPct: in.HumidityPct,
	}
}
