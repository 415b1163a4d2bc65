// Package status provides a thread-safe status tracker for the
// co2-monitor daemon. The main loop writes into it each cycle; the
// HTTP server, the command router and the metrics updater read
// point-in-time snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/co2-monitor/internal/logic"
	"github.com/sweeney/co2-monitor/internal/scd4x"
)

// Counts accumulates operational counters since startup.
type Counts struct {
	BusErrors       int
	SensorErrors    int
	Recoveries      int
	Notifications   int
	SendFailures    int
	CommandsHandled int
}

// Event is one journal entry for the /diag surface.
type Event struct {
	At     time.Time
	Code   string
	Detail string
}

// maxEvents bounds the journal; oldest entries fall off.
const maxEvents = 32

// Config contains daemon configuration for display.
type Config struct {
	SerialPort   string
	StateFile    string
	HTTPAddr     string
	Broker       string
	PollMs       int64
	RemotePollMs int64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Reading     scd4x.Reading
	Health      scd4x.Health
	Alert       logic.AlertState
	CO2Trend    logic.Trend
	TimeSynced  bool
	TimeSyncErr string
	LocalTime   string
	QuietNow    bool
	WifiOK      bool
	MQTTOK      bool
	Counts      Counts
	Events      []Event
	StartTime   time.Time
	Now         time.Time
	Config      Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// SampleAge returns the age of the last valid reading, or -1 before
// the first one.
func (s Snapshot) SampleAge() time.Duration {
	if s.Health.LastValidAt.IsZero() {
		return -1
	}
	return s.Now.Sub(s.Health.LastValidAt)
}

// SensorOK reports whether the sensor is currently producing readings.
func (s Snapshot) SensorOK() bool {
	return s.Health.Phase == scd4x.PhaseNormal
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetReading records the latest poll result. Called every cycle; an
// invalid reading keeps the previous measurement but still refreshes
// the driver health.
func (t *Tracker) SetReading(r scd4x.Reading, h scd4x.Health) {
	t.mu.Lock()
	if r.Valid {
		if t.snap.Reading.Valid {
			t.snap.CO2Trend = logic.TrendOf(r.CO2Filtered, t.snap.Reading.CO2Filtered, logic.CO2TrendDeadband)
		} else {
			t.snap.CO2Trend = logic.TrendFlat
		}
		t.snap.Reading = r
	}
	t.snap.Health = h
	t.snap.Counts.BusErrors = h.BusErrorsTotal
	t.snap.Counts.Recoveries = h.RecoveriesTotal
	t.mu.Unlock()
}

// SetAlert records the evaluated alert state.
func (t *Tracker) SetAlert(a logic.AlertState) {
	t.mu.Lock()
	t.snap.Alert = a
	t.mu.Unlock()
}

// SetClock records the localized time and quiet status.
func (t *Tracker) SetClock(localTime string, synced bool, syncErr string, quiet bool) {
	t.mu.Lock()
	t.snap.LocalTime = localTime
	t.snap.TimeSynced = synced
	t.snap.TimeSyncErr = syncErr
	t.snap.QuietNow = quiet
	t.mu.Unlock()
}

// SetConnectivity records link states.
func (t *Tracker) SetConnectivity(wifiOK, mqttOK bool) {
	t.mu.Lock()
	t.snap.WifiOK = wifiOK
	t.snap.MQTTOK = mqttOK
	t.mu.Unlock()
}

// CountSensorError increments the sensor error counter.
func (t *Tracker) CountSensorError() {
	t.mu.Lock()
	t.snap.Counts.SensorErrors++
	t.mu.Unlock()
}

// CountNotification increments the delivered-notification counter.
func (t *Tracker) CountNotification() {
	t.mu.Lock()
	t.snap.Counts.Notifications++
	t.mu.Unlock()
}

// CountSendFailure increments the dropped-send counter.
func (t *Tracker) CountSendFailure() {
	t.mu.Lock()
	t.snap.Counts.SendFailures++
	t.mu.Unlock()
}

// CountCommand increments the handled-command counter.
func (t *Tracker) CountCommand() {
	t.mu.Lock()
	t.snap.Counts.CommandsHandled++
	t.mu.Unlock()
}

// AddEvent appends a journal entry, dropping the oldest past the cap.
func (t *Tracker) AddEvent(at time.Time, code, detail string) {
	t.mu.Lock()
	t.snap.Events = append(t.snap.Events, Event{At: at, Code: code, Detail: detail})
	if len(t.snap.Events) > maxEvents {
		t.snap.Events = t.snap.Events[len(t.snap.Events)-maxEvents:]
	}
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	return t.SnapshotAt(time.Now())
}

// SnapshotAt is Snapshot with an injected clock.
func (t *Tracker) SnapshotAt(now time.Time) Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Events = append([]Event(nil), t.snap.Events...)
	t.mu.RUnlock()
	s.Now = now
	return s
}
