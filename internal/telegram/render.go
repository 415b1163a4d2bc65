package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/co2-monitor/internal/logic"
	"github.com/sweeney/co2-monitor/internal/settings"
	"github.com/sweeney/co2-monitor/internal/status"
)

func levelBadge(l logic.Level) string {
	switch l {
	case logic.LevelGood:
		return "🟢 good"
	case logic.LevelOK:
		return "🟡 ok"
	case logic.LevelHigh:
		return "🔴 high"
	}
	return string(l)
}

func trendWord(t logic.Trend) string {
	switch t {
	case logic.TrendUp:
		return "rising"
	case logic.TrendDown:
		return "falling"
	}
	return "steady"
}

// StatusCard renders the /status reply.
func StatusCard(snap status.Snapshot) string {
	var b strings.Builder
	if snap.Reading.Valid {
		fmt.Fprintf(&b, "CO2: %d ppm (%s)  %s\n", snap.Reading.CO2PPM, trendWord(snap.CO2Trend), levelBadge(snap.Alert.Level))
		fmt.Fprintf(&b, "Temp: %.1f °C   Humidity: %.0f %%\n", snap.Reading.TempFiltered, snap.Reading.HumidityFiltered)
	} else {
		b.WriteString("No reading yet\n")
	}
	if !snap.SensorOK() {
		fmt.Fprintf(&b, "⚠️ sensor: %s\n", snap.Health.Phase)
	}
	fmt.Fprintf(&b, "Time: %s", snap.LocalTime)
	if snap.QuietNow {
		b.WriteString("  🌙 quiet")
	}
	return b.String()
}

// SettingsCard renders the current settings, shown with the main
// menu keyboard.
func SettingsCard(s settings.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Warn at: %d ppm\n", s.WarnOnPPM)
	fmt.Fprintf(&b, "High at: %d ppm\n", s.HighOnPPM)
	fmt.Fprintf(&b, "Remind every: %d min\n", s.RemindMin)
	if s.QuietEnable {
		fmt.Fprintf(&b, "Quiet: %02d:00-%02d:00", s.QuietStartHour, s.QuietEndHour)
	} else {
		b.WriteString("Quiet: off")
	}
	return b.String()
}

// ThresholdsCard renders just the alert thresholds, shown with the
// threshold adjustment keyboard.
func ThresholdsCard(s settings.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Warn at: %d ppm\n", s.WarnOnPPM)
	fmt.Fprintf(&b, "High at: %d ppm\n", s.HighOnPPM)
	fmt.Fprintf(&b, "Remind every: %d min", s.RemindMin)
	return b.String()
}

func okWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "down"
}

// InfoCard renders the /info reply: uptime, raw and filtered values,
// time sync and link state.
func InfoCard(snap status.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Uptime: %s\n", snap.Uptime().Round(time.Second))
	if snap.Reading.Valid {
		fmt.Fprintf(&b, "CO2: %d ppm raw, %.0f ppm filtered\n", snap.Reading.CO2PPM, snap.Reading.CO2Filtered)
		fmt.Fprintf(&b, "Temp: %.1f °C raw, %.1f °C filtered\n", snap.Reading.TempC, snap.Reading.TempFiltered)
		fmt.Fprintf(&b, "Humidity: %.1f %% raw, %.1f %% filtered\n", snap.Reading.HumidityPct, snap.Reading.HumidityFiltered)
	} else {
		b.WriteString("No reading yet\n")
	}
	if snap.TimeSynced {
		fmt.Fprintf(&b, "Time: %s (synced)\n", snap.LocalTime)
	} else {
		fmt.Fprintf(&b, "Time: %s (not synced: %s)\n", snap.LocalTime, snap.TimeSyncErr)
	}
	fmt.Fprintf(&b, "Wi-Fi: %s   MQTT: %s", okWord(snap.WifiOK), okWord(snap.MQTTOK))
	return b.String()
}

// HealthCard renders the /health reply.
func HealthCard(snap status.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sensor: %s\n", snap.Health.Phase)
	if age := snap.SampleAge(); age >= 0 {
		fmt.Fprintf(&b, "Last sample: %s ago\n", age.Round(time.Second))
	} else {
		b.WriteString("Last sample: never\n")
	}
	fmt.Fprintf(&b, "Bus errors: %d   Recoveries: %d\n", snap.Counts.BusErrors, snap.Counts.Recoveries)
	fmt.Fprintf(&b, "Sent: %d   Failed: %d", snap.Counts.Notifications, snap.Counts.SendFailures)
	return b.String()
}

// EventsCard renders the /events reply, newest entry last.
func EventsCard(snap status.Snapshot) string {
	if len(snap.Events) == 0 {
		return "No events yet"
	}
	var b strings.Builder
	for i, ev := range snap.Events {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %s", ev.At.UTC().Format("02 Jan 15:04"), ev.Code)
		if ev.Detail != "" {
			fmt.Fprintf(&b, ": %s", ev.Detail)
		}
	}
	return b.String()
}

// DiagCard renders the /diag reply.
func DiagCard(snap status.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sensor: %s\n", snap.Health.Phase)
	fmt.Fprintf(&b, "Uptime: %s\n", snap.Uptime().Round(time.Second))
	fmt.Fprintf(&b, "Bus errors: %d   Recoveries: %d\n", snap.Counts.BusErrors, snap.Counts.Recoveries)
	fmt.Fprintf(&b, "Sent: %d   Failed: %d   Commands: %d", snap.Counts.Notifications, snap.Counts.SendFailures, snap.Counts.CommandsHandled)
	if n := len(snap.Events); n > 0 {
		last := snap.Events[n-1]
		fmt.Fprintf(&b, "\nLast event: %s %s", last.Code, last.Detail)
	}
	return b.String()
}

// HelpCard lists the available commands.
func HelpCard() string {
	return strings.Join([]string{
		"/status — current readings",
		"/info — uptime, raw values, time sync, links",
		"/settings — thresholds and quiet hours",
		"/thresholds — alert thresholds",
		"/menu — settings menu",
		"/health — sensor health and counters",
		"/events — recent event journal",
		"/warn <ppm> — set the warn threshold",
		"/high <ppm> — set the high threshold",
		"/remind <min> — set the reminder interval",
		"/quiet on|off — toggle quiet hours",
		"/quiet <start> <end> — set the quiet window",
		"/preset home — apply the home preset",
		"/diag — counters and sensor health",
	}, "\n")
}

// AlertText renders an outbound alert notification.
func AlertText(n logic.Notification) string {
	switch n.Type {
	case logic.NotifyEnteredHigh:
		return fmt.Sprintf("⚠️ Ventilate now — CO2 at %.0f ppm", n.CO2PPM)
	case logic.NotifyReminder:
		return fmt.Sprintf("⚠️ Still high — CO2 at %.0f ppm", n.CO2PPM)
	case logic.NotifyRecovered:
		return fmt.Sprintf("✅ Air is back to normal — CO2 at %.0f ppm", n.CO2PPM)
	}
	return fmt.Sprintf("CO2 at %.0f ppm", n.CO2PPM)
}
