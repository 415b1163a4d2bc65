// Package metrics exposes daemon state as Prometheus metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/co2-monitor/internal/scd4x"
	"github.com/sweeney/co2-monitor/internal/status"
)

// Set bundles the registered collectors. Update is called once per
// main-loop cycle with a fresh snapshot. The monotonic counts live in
// status.Tracker; they are exposed here as counters that read the last
// snapshot rather than being incremented in place.
type Set struct {
	co2PPM      prometheus.Gauge
	co2Filtered prometheus.Gauge
	tempC       prometheus.Gauge
	humidityPct prometheus.Gauge
	sensorPhase *prometheus.GaugeVec
	alertLevel  prometheus.Gauge
	quietActive prometheus.Gauge

	busErrors     prometheus.CounterFunc
	recoveries    prometheus.CounterFunc
	notifications prometheus.CounterFunc
	sendFailures  prometheus.CounterFunc
	commands      prometheus.CounterFunc

	mu     sync.Mutex
	counts status.Counts
}

// New registers a metric Set on the given registerer.
func New(reg prometheus.Registerer) *Set {
	s := &Set{
		co2PPM: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airmon_co2_ppm",
			Help: "Latest raw CO2 concentration in parts per million.",
		}),
		co2Filtered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airmon_co2_filtered_ppm",
			Help: "Smoothed CO2 concentration in parts per million.",
		}),
		tempC: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airmon_temperature_celsius",
			Help: "Smoothed temperature in degrees Celsius.",
		}),
		humidityPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airmon_humidity_percent",
			Help: "Smoothed relative humidity.",
		}),
		sensorPhase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "airmon_sensor_phase",
			Help: "Sensor driver phase (1 for the active phase, 0 otherwise).",
		}, []string{"phase"}),
		alertLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airmon_alert_level",
			Help: "Alert level: 0 good, 1 ok, 2 high.",
		}),
		quietActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airmon_quiet_active",
			Help: "Whether quiet hours currently suppress notifications.",
		}),
	}
	s.busErrors = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "airmon_bus_errors_total",
		Help: "Sensor bus errors since startup.",
	}, s.countFunc(func(c status.Counts) int { return c.BusErrors }))
	s.recoveries = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "airmon_sensor_recoveries_total",
		Help: "Successful sensor recovery cycles since startup.",
	}, s.countFunc(func(c status.Counts) int { return c.Recoveries }))
	s.notifications = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "airmon_notifications_total",
		Help: "Alert notifications delivered since startup.",
	}, s.countFunc(func(c status.Counts) int { return c.Notifications }))
	s.sendFailures = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "airmon_send_failures_total",
		Help: "Notification deliveries that failed since startup.",
	}, s.countFunc(func(c status.Counts) int { return c.SendFailures }))
	s.commands = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "airmon_commands_handled_total",
		Help: "Remote commands handled since startup.",
	}, s.countFunc(func(c status.Counts) int { return c.CommandsHandled }))
	reg.MustRegister(
		s.co2PPM, s.co2Filtered, s.tempC, s.humidityPct,
		s.sensorPhase, s.alertLevel, s.quietActive,
		s.busErrors, s.recoveries, s.notifications, s.sendFailures, s.commands,
	)
	return s
}

func (s *Set) countFunc(pick func(status.Counts) int) func() float64 {
	return func() float64 {
		s.mu.Lock()
		defer s.mu.Unlock()
		return float64(pick(s.counts))
	}
}

var phases = []scd4x.Phase{
	scd4x.PhaseWarmingUp,
	scd4x.PhaseNormal,
	scd4x.PhaseStale,
	scd4x.PhaseRecovering,
}

// Update refreshes all gauges from a snapshot.
func (s *Set) Update(snap status.Snapshot) {
	if snap.Reading.Valid {
		s.co2PPM.Set(float64(snap.Reading.CO2PPM))
		s.co2Filtered.Set(snap.Reading.CO2Filtered)
		s.tempC.Set(snap.Reading.TempFiltered)
		s.humidityPct.Set(snap.Reading.HumidityFiltered)
	}
	for _, p := range phases {
		v := 0.0
		if snap.Health.Phase == p {
			v = 1
		}
		s.sensorPhase.WithLabelValues(string(p)).Set(v)
	}
	s.alertLevel.Set(float64(snap.Alert.Level.Severity()))
	s.quietActive.Set(boolGauge(snap.QuietNow))

	s.mu.Lock()
	s.counts = snap.Counts
	s.mu.Unlock()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
