package scd4x

import (
	"errors"
	"log"
	"time"
)

// Phase is the driver's recovery state. WARMING_UP is the initial
// phase and only exits on the first valid reading; it has no timeout.
type Phase string

const (
	PhaseWarmingUp  Phase = "WARMING_UP"
	PhaseNormal     Phase = "NORMAL"
	PhaseStale      Phase = "STALE"
	PhaseRecovering Phase = "RECOVERING"
)

// Reading is one accepted measurement. Filtered values are EMAs over
// the raw ones; raw CO2 stays available for alerting.
type Reading struct {
	CO2PPM           uint16
	CO2Filtered      float64
	TempC            float64
	TempFiltered     float64
	HumidityPct      float64
	HumidityFiltered float64
	SampledAt        time.Time
	Valid            bool
}

// Health is the driver's self-diagnosis, owned and mutated only by the
// driver itself.
type Health struct {
	Phase               Phase
	LastValidAt         time.Time
	ConsecutiveFailures int
	BusErrorsTotal      int
	RecoveriesTotal     int
}

// Calibration is pushed to the sensor once at startup.
type Calibration struct {
	ASCEnabled        bool
	ASCTargetPPM      int
	AmbientPressurePa int
	TempOffsetC       float64
	Persist           bool
}

// Config holds timing and filter tuning. These are datasheet-derived
// constants, not logic; zero values take the defaults below.
type Config struct {
	StaleAfter        time.Duration // no valid reading for this long -> STALE
	FastWindow        time.Duration // time given to the lightweight recovery
	FullWindow        time.Duration // time given to a full restart before ErrStale
	AlphaCO2          float64
	AlphaTemp         float64
	AlphaHumidity     float64
	Now               func() time.Time
}

func (c Config) withDefaults() Config {
	if c.StaleAfter == 0 {
		c.StaleAfter = 15 * time.Second
	}
	if c.FastWindow == 0 {
		c.FastWindow = 25 * time.Second
	}
	if c.FullWindow == 0 {
		c.FullWindow = 90 * time.Second
	}
	if c.AlphaCO2 == 0 {
		c.AlphaCO2 = 0.35
	}
	if c.AlphaTemp == 0 {
		c.AlphaTemp = 0.20
	}
	if c.AlphaHumidity == 0 {
		c.AlphaHumidity = 0.20
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Protocol settle times from the datasheet.
const (
	settleRead    = time.Millisecond
	settleStart   = 20 * time.Millisecond
	settleStop    = 500 * time.Millisecond
	settleWake    = 20 * time.Millisecond
	settleReinit  = 30 * time.Millisecond
	settlePersist = 800 * time.Millisecond
	settleSet     = time.Millisecond
)

const dataReadyMask = 0x07FF

type recoveryMode int

const (
	recoverNone recoveryMode = iota
	recoverFast
	recoverFull
)

// Driver polls the sensor and runs the staleness recovery state
// machine. Not safe for concurrent use; the daemon loop is the single
// caller.
type Driver struct {
	bus Bus
	cfg Config

	health      Health
	last        Reading
	haveEMA     bool
	staleSince  time.Time
	mode        recoveryMode
	modeStarted time.Time
}

// New creates a Driver on the given bus.
func New(bus Bus, cfg Config) *Driver {
	return &Driver{
		bus:    bus,
		cfg:    cfg.withDefaults(),
		health: Health{Phase: PhaseWarmingUp},
	}
}

// Start resets the sensor, applies calibration and starts periodic
// measurement. Individual calibration failures are logged and skipped;
// the sensor still measures with its previous configuration.
func (d *Driver) Start(cal Calibration) error {
	// A sensor left measuring by a previous run rejects config
	// commands, so always stop first.
	d.exec(CmdStopPeriodic, nil, settleStop)
	d.exec(CmdWakeUp, nil, settleWake)
	d.exec(CmdReinit, nil, settleReinit)

	d.applyCalibration(cal)

	if _, err := d.bus.Exec(CmdStartPeriodic, nil, 0, settleStart); err != nil {
		return err
	}
	return nil
}

func (d *Driver) applyCalibration(cal Calibration) {
	asc := uint16(0)
	if cal.ASCEnabled {
		asc = 1
	}
	d.exec(CmdSetASCEnabled, []uint16{asc}, settleSet)

	if cal.ASCEnabled {
		d.exec(CmdSetASCTarget, []uint16{uint16(clamp(cal.ASCTargetPPM, 400, 2000))}, settleSet)
	}

	if cal.AmbientPressurePa > 0 {
		hPa := clamp((cal.AmbientPressurePa+50)/100, 700, 1200)
		d.exec(CmdSetAmbientPressure, []uint16{uint16(hPa)}, settleSet)
	}

	if cal.TempOffsetC > 0 {
		offset := cal.TempOffsetC
		if offset > 20 {
			offset = 20
		}
		word := uint16(offset*65535.0/175.0 + 0.5)
		d.exec(CmdSetTempOffset, []uint16{word}, settleSet)
	}

	if cal.Persist {
		d.exec(CmdPersistSettings, nil, settlePersist)
	}
}

// exec runs a command and only logs a failure. Used for sequences that
// must keep going past individual command errors.
func (d *Driver) exec(cmd Command, args []uint16, settle time.Duration) {
	if _, err := d.bus.Exec(cmd, args, 0, settle); err != nil {
		log.Printf("scd4x: command %04x: %v", uint16(cmd), err)
	}
}

// Poll checks for a fresh sample and reads it. It returns an invalid
// Reading (and possibly an error) when no sample was accepted; the
// staleness state machine advances on every call either way. Poll
// never panics and every error is retryable on the next call.
func (d *Driver) Poll() (Reading, error) {
	now := d.cfg.Now()

	ready, err := d.bus.Exec(CmdDataReady, nil, 1, settleRead)
	if err != nil {
		d.recordFailure()
		return d.advance(now, err)
	}
	if ready[0]&dataReadyMask == 0 {
		// No fresh sample yet; the sensor produces one every few
		// seconds, so this is not a failure.
		return d.advance(now, nil)
	}

	words, err := d.bus.Exec(CmdReadMeasurement, nil, 3, settleRead)
	if err != nil {
		d.recordFailure()
		return d.advance(now, err)
	}

	return d.accept(words, now), nil
}

// Health returns a copy of the driver's self-diagnosis.
func (d *Driver) Health() Health {
	return d.health
}

// Stop halts periodic measurement. Called on shutdown.
func (d *Driver) Stop() error {
	_, err := d.bus.Exec(CmdStopPeriodic, nil, 0, settleStop)
	return err
}

func (d *Driver) recordFailure() {
	d.health.ConsecutiveFailures++
	d.health.BusErrorsTotal++
}

func (d *Driver) accept(words []uint16, now time.Time) Reading {
	r := Reading{
		CO2PPM:      words[0],
		TempC:       -45.0 + 175.0*float64(words[1])/65535.0,
		HumidityPct: 100.0 * float64(words[2]) / 65535.0,
		SampledAt:   now,
		Valid:       true,
	}

	if !d.haveEMA {
		r.CO2Filtered = float64(r.CO2PPM)
		r.TempFiltered = r.TempC
		r.HumidityFiltered = r.HumidityPct
		d.haveEMA = true
	} else {
		r.CO2Filtered = ema(d.cfg.AlphaCO2, float64(r.CO2PPM), d.last.CO2Filtered)
		r.TempFiltered = ema(d.cfg.AlphaTemp, r.TempC, d.last.TempFiltered)
		r.HumidityFiltered = ema(d.cfg.AlphaHumidity, r.HumidityPct, d.last.HumidityFiltered)
	}
	d.last = r

	if d.health.Phase == PhaseStale || d.health.Phase == PhaseRecovering {
		d.health.RecoveriesTotal++
		log.Printf("scd4x: recovered after %v", now.Sub(d.staleSince))
	}
	d.health.Phase = PhaseNormal
	d.health.LastValidAt = now
	d.health.ConsecutiveFailures = 0
	d.mode = recoverNone
	d.staleSince = time.Time{}

	return r
}

// advance runs the staleness state machine when no reading was
// accepted this poll. The returned error is the bus error that
// triggered the call, or ErrStale when the full recovery window has
// been exhausted (diagnostic only; the driver keeps retrying).
func (d *Driver) advance(now time.Time, cause error) (Reading, error) {
	switch d.health.Phase {
	case PhaseWarmingUp:
		// No timeout before the first ever sample.

	case PhaseNormal:
		if now.Sub(d.health.LastValidAt) >= d.cfg.StaleAfter {
			log.Printf("scd4x: stale, last valid reading %v ago", now.Sub(d.health.LastValidAt))
			d.health.Phase = PhaseStale
			d.staleSince = now
		}

	case PhaseStale:
		d.fastRecover()
		d.health.Phase = PhaseRecovering
		d.mode = recoverFast
		d.modeStarted = now

	case PhaseRecovering:
		switch {
		case d.mode == recoverFast && now.Sub(d.modeStarted) >= d.cfg.FastWindow:
			log.Printf("scd4x: fast recovery failed, full restart")
			d.fullRestart()
			d.mode = recoverFull
			d.modeStarted = now
		case d.mode == recoverFull && now.Sub(d.modeStarted) >= d.cfg.FullWindow:
			// Persistent failure. Signal it upward and start
			// another full restart cycle.
			d.fullRestart()
			d.modeStarted = now
			return Reading{}, errors.Join(ErrStale, cause)
		}
	}

	return Reading{}, cause
}

// fastRecover re-issues the lightweight wake + start sequence.
func (d *Driver) fastRecover() {
	d.exec(CmdWakeUp, nil, settleWake)
	d.exec(CmdStartPeriodic, nil, settleStart)
}

// fullRestart runs the complete stop / wake / reinit / start sequence.
func (d *Driver) fullRestart() {
	d.exec(CmdStopPeriodic, nil, settleStop)
	d.exec(CmdWakeUp, nil, settleWake)
	d.exec(CmdReinit, nil, settleReinit)
	d.exec(CmdStartPeriodic, nil, settleStart)
}

func ema(alpha, sample, prev float64) float64 {
	return alpha*sample + (1-alpha)*prev
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
