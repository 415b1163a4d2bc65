// Command co2-monitor polls an SCD4x CO2 sensor, evaluates alert
// thresholds and serves status over HTTP, MQTT and a chat bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/co2-monitor/internal/clock"
	"github.com/sweeney/co2-monitor/internal/config"
	"github.com/sweeney/co2-monitor/internal/display"
	"github.com/sweeney/co2-monitor/internal/led"
	"github.com/sweeney/co2-monitor/internal/logic"
	"github.com/sweeney/co2-monitor/internal/metrics"
	"github.com/sweeney/co2-monitor/internal/mqtt"
	"github.com/sweeney/co2-monitor/internal/scd4x"
	"github.com/sweeney/co2-monitor/internal/settings"
	"github.com/sweeney/co2-monitor/internal/status"
	"github.com/sweeney/co2-monitor/internal/telegram"
	"github.com/sweeney/co2-monitor/internal/web"
)

const busReadTimeout = 2 * time.Second

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults apply when empty)")
	printState := flag.Bool("print-state", false, "Take one reading, print it and exit")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config.Config, printState bool) error {
	bus, err := scd4x.OpenSerial(cfg.SerialPort, busReadTimeout)
	if err != nil {
		return fmt.Errorf("open sensor bus: %w", err)
	}
	defer bus.Close()

	store := settings.NewStore(cfg.StateFile)
	s := store.Load()

	driver := scd4x.New(bus, scd4x.Config{})
	if err := driver.Start(scd4x.Calibration{
		ASCEnabled:        s.ASCEnabled,
		ASCTargetPPM:      s.ASCTargetPPM,
		AmbientPressurePa: s.AmbientPressurePa,
		TempOffsetC:       s.TempOffsetC,
	}); err != nil {
		return fmt.Errorf("start sensor: %w", err)
	}
	defer driver.Stop()

	if printState {
		return printOneReading(driver, cfg.PollMs)
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		SerialPort:   cfg.SerialPort,
		StateFile:    cfg.StateFile,
		HTTPAddr:     cfg.HTTPAddr,
		Broker:       cfg.MQTT.Broker,
		PollMs:       cfg.PollMs,
		RemotePollMs: cfg.Telegram.PollMs,
	})

	metricSet := metrics.New(prometheus.DefaultRegisterer)

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		real, err := mqtt.NewRealPublisher(cfg.MQTT.Broker)
		if err != nil {
			// Run degraded: the sensor side works without a broker.
			log.Printf("mqtt: %v, continuing without broker", err)
		} else {
			publisher = real
			mqttStatus = real
			defer real.Close()
			if cfg.MQTT.Discovery {
				if err := real.PublishDiscovery(); err != nil {
					log.Printf("mqtt discovery: %v", err)
				}
			}
			startup := mqtt.SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true}
			if err := real.PublishSystem(startup); err != nil {
				log.Printf("publish startup event: %v", err)
			}
		}
	}

	var indicator led.Indicator
	if cfg.LED.Enable {
		real, err := led.NewRealIndicator(cfg.LED.PinRed, cfg.LED.PinGreen)
		if err != nil {
			log.Printf("led: %v, continuing without status LED", err)
		} else {
			indicator = real
			defer real.Close()
		}
	}

	var router *telegram.Router
	if cfg.Telegram.Token != "" {
		client := telegram.NewRealClient(cfg.Telegram.Token)
		router = telegram.NewRouter(client, store, tracker.Snapshot, telegram.RouterOptions{
			ChatID:        cfg.Telegram.ChatID,
			AllowedUserID: cfg.Telegram.AllowedUserID,
			InlineKeys:    cfg.Telegram.InlineKeys,
			OnCommand:     tracker.CountCommand,
		})
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, prometheus.DefaultGatherer)
		go func() {
			if err := srv.Serve(); err != nil {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	log.Printf("started: port=%s poll=%dms state=%s", cfg.SerialPort, cfg.PollMs, cfg.StateFile)

	ticker := time.NewTicker(time.Duration(cfg.PollMs) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	deps := loopDeps{
		driver:     driver,
		store:      store,
		tracker:    tracker,
		metrics:    metricSet,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		indicator:  indicator,
		renderer:   display.NewLogRenderer(),
		router:     router,
		clockSrc:   clock.SystemSource{},
		clockCfg:   cfg.Clock,
		remotePoll: time.Duration(cfg.Telegram.PollMs) * time.Millisecond,
	}
	return runLoop(deps, time.Now, ticker.C, sigCh)
}

// printOneReading is the -print-state mode: wait for the first valid
// sample and print it.
func printOneReading(driver *scd4x.Driver, pollMs int64) error {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		r, err := driver.Poll()
		if err != nil {
			return fmt.Errorf("poll sensor: %w", err)
		}
		if r.Valid {
			fmt.Printf("CO2: %d ppm, Temp: %.1f °C, Humidity: %.1f %%\n", r.CO2PPM, r.TempC, r.HumidityPct)
			return nil
		}
		time.Sleep(time.Duration(pollMs) * time.Millisecond)
	}
	return fmt.Errorf("no reading within 30s")
}

// loopDeps carries everything runLoop needs. Optional consumers
// (publisher, indicator, router) may be nil.
type loopDeps struct {
	driver     *scd4x.Driver
	store      *settings.Store
	tracker    *status.Tracker
	metrics    *metrics.Set
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	indicator  led.Indicator
	renderer   display.Renderer
	router     *telegram.Router
	clockSrc   clock.Source
	clockCfg   config.Clock
	remotePoll time.Duration
}

func runLoop(d loopDeps, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	var alert logic.AlertState
	alert.Level = logic.LevelGood

	var lastRemotePoll time.Time

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			if d.publisher != nil {
				event := mqtt.SystemEvent{
					Timestamp: now(),
					Event:     "SHUTDOWN",
					Reason:    signalName(s),
					Retained:  true,
				}
				if err := d.publisher.PublishSystem(event); err != nil {
					log.Printf("publish shutdown event: %v", err)
				}
			}
			return nil

		case <-tick:
			t := now()

			reading, err := d.driver.Poll()
			health := d.driver.Health()
			if err != nil {
				log.Printf("sensor: %v", err)
				d.tracker.CountSensorError()
				d.tracker.AddEvent(t, "sensor_error", err.Error())
			}
			d.tracker.SetReading(reading, health)

			quiet, localTime := d.evalClock(t)

			s := d.store.Current()
			if reading.Valid {
				value := reading.CO2Filtered
				if s.AlertUseRawCO2 {
					value = float64(reading.CO2PPM)
				}
				var notif *logic.Notification
				alert, notif = logic.Evaluate(logic.Input{
					Value:       value,
					TempC:       reading.TempFiltered,
					HumidityPct: reading.HumidityFiltered,
					Valid:       true,
					Quiet:       quiet,
					Time:        t,
				}, alert, logic.Thresholds{
					WarnOnPPM: s.WarnOnPPM,
					HighOnPPM: s.HighOnPPM,
					RemindMin: s.RemindMin,
				})
				d.tracker.SetAlert(alert)

				if notif != nil {
					d.deliver(*notif)
				}
				d.publishSample(reading, alert, t)
			}

			snap := d.tracker.SnapshotAt(t)
			d.renderFrame(snap, localTime, quiet)
			if d.indicator != nil {
				if err := d.indicator.Set(led.ColorFor(alert.Level, snap.SensorOK())); err != nil {
					log.Printf("led: %v", err)
				}
			}
			if d.metrics != nil {
				d.metrics.Update(snap)
			}

			if d.router != nil && t.Sub(lastRemotePoll) >= d.remotePoll {
				lastRemotePoll = t
				if err := d.router.Poll(); err != nil {
					log.Printf("telegram: %v", err)
				}
			}
		}
	}
}

// evalClock derives local time and the quiet flag, updating the
// tracker as a side effect.
func (d loopDeps) evalClock(t time.Time) (bool, clock.LocalTime) {
	epoch, synced := d.clockSrc.Now()
	lt := clock.Localize(epoch, synced, d.clockCfg.TZOffsetMin, d.clockCfg.DSTEnable)

	s := d.store.Current()
	quiet := clock.IsQuiet(lt, clock.QuietWindow{
		Enabled:   s.QuietEnable,
		StartHour: s.QuietStartHour,
		EndHour:   s.QuietEndHour,
	}, d.clockCfg.QuietFailsafe)

	syncErr := ""
	if !synced {
		syncErr = "clock not synchronized"
	}
	connected := d.mqttStatus != nil && d.mqttStatus.IsConnected()
	d.tracker.SetClock(lt.String(), synced, syncErr, quiet)
	d.tracker.SetConnectivity(true, connected)
	return quiet, lt
}

// deliver pushes a notification to the chat channel and MQTT.
// Delivery is best-effort; the next evaluation supersedes a drop.
func (d loopDeps) deliver(n logic.Notification) {
	log.Printf("alert: %s at %.0f ppm", n.Type, n.CO2PPM)
	d.tracker.AddEvent(n.At, "alert", string(n.Type))

	if d.router != nil {
		if err := d.router.Notify(n); err != nil {
			log.Printf("notify: %v", err)
			d.tracker.CountSendFailure()
		} else {
			d.tracker.CountNotification()
		}
	}
	if d.publisher != nil {
		err := d.publisher.PublishAlert(mqtt.AlertEvent{
			Timestamp: n.At,
			Type:      n.Type,
			CO2PPM:    n.CO2PPM,
			Level:     levelFor(n.Type),
		})
		if err != nil {
			log.Printf("publish alert: %v", err)
		}
	}
}

// levelFor maps a notification back to the level it announces.
func levelFor(t logic.NotificationType) logic.Level {
	if t == logic.NotifyRecovered {
		return logic.LevelGood
	}
	return logic.LevelHigh
}

func (d loopDeps) publishSample(r scd4x.Reading, alert logic.AlertState, t time.Time) {
	if d.publisher == nil {
		return
	}
	snap := d.tracker.SnapshotAt(t)
	err := d.publisher.PublishSample(mqtt.Sample{
		Timestamp:   r.SampledAt,
		CO2PPM:      r.CO2PPM,
		CO2Filtered: r.CO2Filtered,
		TempC:       r.TempFiltered,
		HumidityPct: r.HumidityFiltered,
		Level:       alert.Level,
		Trend:       snap.CO2Trend,
	})
	if err != nil {
		log.Printf("publish sample: %v", err)
	}
}

func (d loopDeps) renderFrame(snap status.Snapshot, lt clock.LocalTime, quiet bool) {
	if d.renderer == nil {
		return
	}
	err := d.renderer.Render(display.Frame{
		CO2PPM:      snap.Reading.CO2PPM,
		TempC:       snap.Reading.TempFiltered,
		HumidityPct: snap.Reading.HumidityFiltered,
		Trend:       snap.CO2Trend,
		Level:       snap.Alert.Level,
		LocalTime:   lt.String(),
		QuietNow:    quiet,
		SensorOK:    snap.SensorOK() || snap.Health.Phase == scd4x.PhaseWarmingUp,
		WifiOK:      snap.WifiOK,
		MQTTOK:      snap.MQTTOK,
		HaveReading: snap.Reading.Valid,
	})
	if err != nil {
		log.Printf("display: %v", err)
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
