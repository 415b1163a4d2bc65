package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sweeney/co2-monitor/internal/status"
)

// stateDoc is the JSON shape of GET /state.
type stateDoc struct {
	CO2PPM           *uint16  `json:"co2_ppm"`
	CO2FilteredPPM   *float64 `json:"co2_filtered_ppm"`
	TemperatureC     *float64 `json:"temperature_c"`
	HumidityPct      *float64 `json:"humidity_pct"`
	CO2Trend         string   `json:"co2_trend"`
	SampledAt        string   `json:"sampled_at,omitempty"`
	SampleAgeSeconds *float64 `json:"sample_age_seconds"`
	SensorPhase      string   `json:"sensor_phase"`
	AlertLevel       string   `json:"alert_level"`
	LocalTime        string   `json:"local_time"`
	TimeSynced       bool     `json:"time_synced"`
	QuietNow         bool     `json:"quiet_now"`
	UptimeSeconds    float64  `json:"uptime_seconds"`
}

// diagDoc is the JSON shape of GET /diag.
type diagDoc struct {
	SensorPhase     string         `json:"sensor_phase"`
	WifiOK          bool           `json:"wifi_ok"`
	MQTTOK          bool           `json:"mqtt_ok"`
	TimeSynced      bool           `json:"time_synced"`
	TimeSyncError   string         `json:"time_sync_error,omitempty"`
	BusErrors       int            `json:"bus_errors"`
	SensorErrors    int            `json:"sensor_errors"`
	Recoveries      int            `json:"recoveries"`
	Notifications   int            `json:"notifications"`
	SendFailures    int            `json:"send_failures"`
	CommandsHandled int            `json:"commands_handled"`
	Events          []diagEvent    `json:"events"`
	Config          map[string]any `json:"config"`
}

type diagEvent struct {
	At     string `json:"at"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

func stateDocument(snap status.Snapshot) stateDoc {
	doc := stateDoc{
		CO2Trend:      string(snap.CO2Trend),
		SensorPhase:   string(snap.Health.Phase),
		AlertLevel:    string(snap.Alert.Level),
		LocalTime:     snap.LocalTime,
		TimeSynced:    snap.TimeSynced,
		QuietNow:      snap.QuietNow,
		UptimeSeconds: snap.Uptime().Seconds(),
	}
	if snap.Reading.Valid {
		co2 := snap.Reading.CO2PPM
		co2f := snap.Reading.CO2Filtered
		temp := snap.Reading.TempFiltered
		rh := snap.Reading.HumidityFiltered
		doc.CO2PPM = &co2
		doc.CO2FilteredPPM = &co2f
		doc.TemperatureC = &temp
		doc.HumidityPct = &rh
		doc.SampledAt = snap.Reading.SampledAt.UTC().Format(time.RFC3339)
	}
	if age := snap.SampleAge(); age >= 0 {
		secs := age.Seconds()
		doc.SampleAgeSeconds = &secs
	}
	return doc
}

func diagDocument(snap status.Snapshot) diagDoc {
	doc := diagDoc{
		SensorPhase:     string(snap.Health.Phase),
		WifiOK:          snap.WifiOK,
		MQTTOK:          snap.MQTTOK,
		TimeSynced:      snap.TimeSynced,
		TimeSyncError:   snap.TimeSyncErr,
		BusErrors:       snap.Counts.BusErrors,
		SensorErrors:    snap.Counts.SensorErrors,
		Recoveries:      snap.Counts.Recoveries,
		Notifications:   snap.Counts.Notifications,
		SendFailures:    snap.Counts.SendFailures,
		CommandsHandled: snap.Counts.CommandsHandled,
		Events:          make([]diagEvent, 0, len(snap.Events)),
		Config: map[string]any{
			"serial_port":    snap.Config.SerialPort,
			"state_file":     snap.Config.StateFile,
			"http_addr":      snap.Config.HTTPAddr,
			"broker":         snap.Config.Broker,
			"poll_ms":        snap.Config.PollMs,
			"remote_poll_ms": snap.Config.RemotePollMs,
		},
	}
	for _, ev := range snap.Events {
		doc.Events = append(doc.Events, diagEvent{
			At:     ev.At.UTC().Format(time.RFC3339),
			Code:   ev.Code,
			Detail: ev.Detail,
		})
	}
	return doc
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
