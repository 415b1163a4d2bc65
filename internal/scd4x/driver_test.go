package scd4x

import (
	"errors"
	"math"
	"testing"
	"time"
)

// fakeClock is an advanceable time source for driver tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDriver(bus *FakeBus, clk *fakeClock) *Driver {
	return New(bus, Config{Now: clk.now})
}

// Raw register words for 25.0 C and 50 %RH.
const (
	tempWord25C = 26214
	rhWord50    = 32768
)

func TestPollWarmingUpUntilFirstSample(t *testing.T) {
	bus := NewFakeBus()
	clk := newFakeClock()
	d := newTestDriver(bus, clk)

	bus.QueueNotReady()
	r, err := d.Poll()
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if r.Valid {
		t.Error("not-ready poll must not produce a reading")
	}
	if d.Health().Phase != PhaseWarmingUp {
		t.Errorf("phase = %s, want WARMING_UP", d.Health().Phase)
	}

	// Warm-up has no timeout: hours without a sample stay WARMING_UP.
	clk.advance(2 * time.Hour)
	bus.QueueNotReady()
	if _, err := d.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if d.Health().Phase != PhaseWarmingUp {
		t.Errorf("phase = %s, want WARMING_UP after long wait", d.Health().Phase)
	}

	bus.QueueMeasurement(600, tempWord25C, rhWord50)
	r, err = d.Poll()
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if !r.Valid {
		t.Fatal("expected valid reading")
	}
	if d.Health().Phase != PhaseNormal {
		t.Errorf("phase = %s, want NORMAL after first sample", d.Health().Phase)
	}
}

func TestPollConvertsRawWords(t *testing.T) {
	bus := NewFakeBus()
	d := newTestDriver(bus, newFakeClock())

	bus.QueueMeasurement(1600, tempWord25C, rhWord50)
	r, err := d.Poll()
	if err != nil {
		t.Fatalf("poll: %v", err)
	}

	if r.CO2PPM != 1600 {
		t.Errorf("co2 = %d, want 1600", r.CO2PPM)
	}
	if math.Abs(r.TempC-25.0) > 0.05 {
		t.Errorf("temp = %.2f, want ~25.0", r.TempC)
	}
	if math.Abs(r.HumidityPct-50.0) > 0.05 {
		t.Errorf("rh = %.2f, want ~50.0", r.HumidityPct)
	}
}

func TestPollEMAFollowsRaw(t *testing.T) {
	bus := NewFakeBus()
	d := newTestDriver(bus, newFakeClock())

	bus.QueueMeasurement(1000, tempWord25C, rhWord50)
	r, _ := d.Poll()
	if r.CO2Filtered != 1000 {
		t.Errorf("first filtered value should equal raw, got %.1f", r.CO2Filtered)
	}

	bus.QueueMeasurement(2000, tempWord25C, rhWord50)
	r, _ = d.Poll()
	// alpha 0.35: 0.35*2000 + 0.65*1000 = 1350
	if math.Abs(r.CO2Filtered-1350) > 0.01 {
		t.Errorf("filtered = %.1f, want 1350", r.CO2Filtered)
	}
}

func TestPollChecksumRejectionCountsFailure(t *testing.T) {
	bus := NewFakeBus()
	d := newTestDriver(bus, newFakeClock())
	bus.Queue(CmdDataReady, 0x07FF)
	bus.Errs[CmdReadMeasurement] = &ChecksumError{Word: 1, Want: 0x12, Got: 0x13}

	r, err := d.Poll()
	if err == nil {
		t.Fatal("expected checksum error")
	}
	var ce *ChecksumError
	if !errors.As(err, &ce) {
		t.Errorf("expected ChecksumError, got %v", err)
	}
	if r.Valid {
		t.Error("rejected frame must not produce a reading")
	}
	if d.Health().ConsecutiveFailures != 1 {
		t.Errorf("consecutive failures = %d, want 1", d.Health().ConsecutiveFailures)
	}
}

func TestConsecutiveFailuresResetOnSuccess(t *testing.T) {
	bus := NewFakeBus()
	d := newTestDriver(bus, newFakeClock())

	bus.Errs[CmdDataReady] = ErrTimeout
	for i := 0; i < 3; i++ {
		d.Poll()
	}
	if d.Health().ConsecutiveFailures != 3 {
		t.Fatalf("consecutive failures = %d, want 3", d.Health().ConsecutiveFailures)
	}

	delete(bus.Errs, CmdDataReady)
	bus.QueueMeasurement(700, tempWord25C, rhWord50)
	if _, err := d.Poll(); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if d.Health().ConsecutiveFailures != 0 {
		t.Errorf("consecutive failures = %d, want 0 after success", d.Health().ConsecutiveFailures)
	}
	if d.Health().BusErrorsTotal != 3 {
		t.Errorf("bus errors total = %d, want 3", d.Health().BusErrorsTotal)
	}
}

// establishNormal gets the driver one valid reading so it leaves
// WARMING_UP.
func establishNormal(t *testing.T, d *Driver, bus *FakeBus) {
	t.Helper()
	bus.QueueMeasurement(600, tempWord25C, rhWord50)
	if _, err := d.Poll(); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if d.Health().Phase != PhaseNormal {
		t.Fatalf("phase = %s, want NORMAL", d.Health().Phase)
	}
}

func TestStaleTransitionAndFastRecovery(t *testing.T) {
	bus := NewFakeBus()
	clk := newFakeClock()
	d := newTestDriver(bus, clk)
	establishNormal(t, d, bus)

	// Sensor goes quiet past the staleness timeout.
	bus.Errs[CmdDataReady] = ErrTimeout
	clk.advance(16 * time.Second)
	d.Poll()
	if d.Health().Phase != PhaseStale {
		t.Fatalf("phase = %s, want STALE", d.Health().Phase)
	}

	// Next poll runs the lightweight recovery.
	d.Poll()
	if d.Health().Phase != PhaseRecovering {
		t.Fatalf("phase = %s, want RECOVERING", d.Health().Phase)
	}
	if bus.CountCalls(CmdWakeUp) != 1 || bus.CountCalls(CmdStartPeriodic) != 1 {
		t.Errorf("fast recovery should wake + start, calls: %v", bus.Calls)
	}
	if bus.CountCalls(CmdReinit) != 0 {
		t.Error("fast recovery must not reinit")
	}

	// Recovery succeeds.
	delete(bus.Errs, CmdDataReady)
	bus.QueueMeasurement(650, tempWord25C, rhWord50)
	r, err := d.Poll()
	if err != nil || !r.Valid {
		t.Fatalf("poll after recovery: %v valid=%v", err, r.Valid)
	}
	if d.Health().Phase != PhaseNormal {
		t.Errorf("phase = %s, want NORMAL", d.Health().Phase)
	}
	if d.Health().RecoveriesTotal != 1 {
		t.Errorf("recoveries = %d, want 1", d.Health().RecoveriesTotal)
	}
}

func TestFastRecoveryEscalatesToFullRestart(t *testing.T) {
	bus := NewFakeBus()
	clk := newFakeClock()
	d := newTestDriver(bus, clk)
	establishNormal(t, d, bus)

	bus.Errs[CmdDataReady] = ErrTimeout
	clk.advance(16 * time.Second)
	d.Poll() // NORMAL -> STALE
	d.Poll() // STALE -> RECOVERING (fast)

	// Fast window expires without a sample.
	clk.advance(26 * time.Second)
	d.Poll()
	if bus.CountCalls(CmdStopPeriodic) != 1 || bus.CountCalls(CmdReinit) != 1 {
		t.Errorf("expected full restart sequence, calls: %v", bus.Calls)
	}
	if d.Health().Phase != PhaseRecovering {
		t.Errorf("phase = %s, want RECOVERING", d.Health().Phase)
	}
}

func TestExhaustedFullWindowSignalsStaleAndKeepsRetrying(t *testing.T) {
	bus := NewFakeBus()
	clk := newFakeClock()
	d := newTestDriver(bus, clk)
	establishNormal(t, d, bus)

	bus.Errs[CmdDataReady] = ErrTimeout
	clk.advance(16 * time.Second)
	d.Poll() // STALE
	d.Poll() // fast recovery
	clk.advance(26 * time.Second)
	d.Poll() // full restart
	clk.advance(91 * time.Second)
	_, err := d.Poll()
	if !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if bus.CountCalls(CmdReinit) != 2 {
		t.Errorf("driver should retry the full restart, reinits = %d", bus.CountCalls(CmdReinit))
	}

	// Still never fatal: a late sample recovers the driver.
	delete(bus.Errs, CmdDataReady)
	bus.QueueMeasurement(640, tempWord25C, rhWord50)
	r, err := d.Poll()
	if err != nil || !r.Valid {
		t.Fatalf("poll after late sample: %v valid=%v", err, r.Valid)
	}
	if d.Health().Phase != PhaseNormal {
		t.Errorf("phase = %s, want NORMAL", d.Health().Phase)
	}
}

func TestStartAppliesCalibration(t *testing.T) {
	bus := NewFakeBus()
	d := newTestDriver(bus, newFakeClock())

	err := d.Start(Calibration{
		ASCEnabled:        true,
		ASCTargetPPM:      420,
		AmbientPressurePa: 101_000,
		TempOffsetC:       1.9,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, cmd := range []Command{
		CmdStopPeriodic, CmdWakeUp, CmdReinit,
		CmdSetASCEnabled, CmdSetASCTarget, CmdSetAmbientPressure, CmdSetTempOffset,
		CmdStartPeriodic,
	} {
		if bus.CountCalls(cmd) != 1 {
			t.Errorf("command %04x issued %d times, want 1", uint16(cmd), bus.CountCalls(cmd))
		}
	}
	if bus.CountCalls(CmdPersistSettings) != 0 {
		t.Error("persist must not run unless requested")
	}
}

func TestStartSkipsTargetWhenASCDisabled(t *testing.T) {
	bus := NewFakeBus()
	d := newTestDriver(bus, newFakeClock())

	if err := d.Start(Calibration{ASCEnabled: false}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if bus.CountCalls(CmdSetASCTarget) != 0 {
		t.Error("ASC target should not be set when ASC is disabled")
	}
}
