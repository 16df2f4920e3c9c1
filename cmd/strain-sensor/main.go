// Command strain-sensor monitors a strain-gauge bridge, drives the alarm outputs and
// publishes readings and alerts to MQTT.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/strain-sensor/internal/config"
	"github.com/sweeney/strain-sensor/internal/display"
	"github.com/sweeney/strain-sensor/internal/hw"
	"github.com/sweeney/strain-sensor/internal/input"
	"github.com/sweeney/strain-sensor/internal/loadcell"
	"github.com/sweeney/strain-sensor/internal/logging"
	"github.com/sweeney/strain-sensor/internal/monitor"
	"github.com/sweeney/strain-sensor/internal/mqtt"
	"github.com/sweeney/strain-sensor/internal/status"
	"github.com/sweeney/strain-sensor/internal/strain"
	"github.com/sweeney/strain-sensor/internal/web"
)

var version = "<not set>"

type Args struct {
	Config      string  `arg:"-c,--config" help:"path to the YAML configuration file"`
	Broker      *string `arg:"--broker" help:"MQTT broker address, overrides the config file (empty disables telemetry)"`
	HTTP        *string `arg:"--http" help:"HTTP status address, overrides the config file (empty disables)"`
	ADCPort     string  `arg:"--adc-port" help:"serial port of the bridge ADC, overrides the config file"`
	NoTare      bool    `arg:"--no-tare" help:"skip the startup tare"`
	PrintState  bool    `arg:"--print-state" help:"print the current inputs and one bridge sample, then exit"`
	WriteConfig bool    `arg:"--write-config" help:"write the effective configuration to --config and exit"`
	logging.LogArgs
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	args := Args{
		Config: "/etc/strain-sensor.yaml",
	}
	arg.MustParse(&args)
	return args
}

func main() {
	args := procArgs()
	log := logging.NewLogger(args.LogLevel)
	log.Infof("Running version: %s", version)

	if err := run(args, log); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyArgs lays command line overrides over the file configuration.
func applyArgs(cfg *config.Config, args Args) {
	if args.Broker != nil {
		cfg.MQTT.Broker = *args.Broker
	}
	if args.HTTP != nil {
		cfg.HTTP.Addr = *args.HTTP
	}
	if args.ADCPort != "" {
		cfg.Hardware.ADCPort = args.ADCPort
	}
	if args.NoTare {
		cfg.Tare.OnStartup = false
	}
}

func run(args Args, log *logrus.Logger) error {
	cfg, err := config.Load(args.Config)
	if err != nil {
		return err
	}
	applyArgs(cfg, args)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if args.WriteConfig {
		if err := cfg.Save(args.Config); err != nil {
			return err
		}
		log.Infof("wrote config to %s", args.Config)
		return nil
	}

	// Initialize hardware
	adc, err := hw.OpenSerialADC(cfg.Hardware.ADCPort, cfg.Hardware.ADCBaud, log)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	adc.MaxAge = cfg.Hardware.ADCMaxAge
	boardCfg := hw.BoardConfig{
		Chip:    cfg.Hardware.Chip,
		Inputs:  []int{cfg.Hardware.Pins.Hold, cfg.Hardware.Pins.Tare, cfg.Hardware.Pins.Mode},
		Outputs: []int{cfg.Hardware.Pins.Indicator, cfg.Hardware.Pins.Audible},
	}
	if cfg.LoadCell.Enabled {
		boardCfg.HXData = cfg.Hardware.Pins.HXData
		boardCfg.HXClock = cfg.Hardware.Pins.HXClock
	}
	board, err := hw.OpenBoard(boardCfg, adc)
	if err != nil {
		adc.Close()
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	if args.PrintState {
		// The ADC streams frames in the background; give it time for one.
		time.Sleep(500 * time.Millisecond)
		return printState(os.Stdout, board, cfg)
	}

	controls, err := input.NewController(board, cfg.InputPins(), cfg.Input.Debounce, 0)
	if err != nil {
		return fmt.Errorf("init controls: %w", err)
	}

	var cell *loadcell.Cell
	if hx := board.HX711(); hx != nil {
		cell = loadcell.New(hx, cfg.LoadCellSettings())
	}

	var disp display.Display
	if cfg.Display.Enabled {
		lcd, err := display.OpenHD44780(cfg.Display.Bus, cfg.Display.Address)
		if err != nil {
			log.Warnf("display unavailable: %v", err)
		} else {
			defer lcd.Close()
			disp = display.NewLCD(lcd, cfg.Display.Interval, log)
		}
	}

	// Initialize MQTT
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		mcfg := mqtt.DefaultConfig(cfg.MQTT.Broker)
		mcfg.ClientID = cfg.MQTT.ClientID
		mcfg.Username = cfg.MQTT.Username
		mcfg.Password = cfg.MQTT.Password
		mcfg.BufferSize = cfg.MQTT.BufferSize
		p, err := mqtt.NewRealPublisher(mcfg, log)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher = p
		mqttStatus = p
	} else {
		log.Info("no MQTT broker configured, telemetry disabled")
	}

	start := time.Now()
	tracker := status.NewTracker(start, status.Config{
		PollMs:       cfg.Input.PollInterval.Milliseconds(),
		DebounceMs:   cfg.Input.Debounce.Milliseconds(),
		TelemetryMs:  cfg.MQTT.TelemetryInterval.Milliseconds(),
		HeartbeatMs:  cfg.MQTT.HeartbeatInterval.Milliseconds(),
		FilterWindow: cfg.Strain.FilterWindow,
		TareSamples:  cfg.Tare.Samples,
		Broker:       cfg.MQTT.Broker,
		HTTPPort:     cfg.HTTP.Addr,
	})

	mon := monitor.New(monitor.Deps{
		IO:         board,
		Controls:   controls,
		Gauge:      strain.NewGauge(cfg.Params()),
		Calibrator: strain.NewCalibrator(cfg.TareSettings()),
		LoadCell:   cell,
		Display:    disp,
		Publisher:  publisher,
		Log:        log,
	}, monitor.Settings{
		Channel:           cfg.Hardware.ADCChannel,
		IndicatorPin:      cfg.Hardware.Pins.Indicator,
		AudiblePin:        cfg.Hardware.Pins.Audible,
		TelemetryInterval: cfg.MQTT.TelemetryInterval,
		LoadInterval:      cfg.Display.Interval,
	}, start)

	if cfg.Tare.OnStartup {
		if err := mon.TareStrain(); err != nil {
			log.Errorf("startup tare: %v", err)
		}
		mon.TareLoadCell()
	}
	tracker.Update(mon.State())

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Warnf("failed to publish startup event: %v", err)
		} else {
			log.Info("published startup event")
		}
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Infof("started: poll=%v debounce=%v broker=%s heartbeat=%v",
		cfg.Input.PollInterval, cfg.Input.Debounce, cfg.MQTT.Broker, cfg.MQTT.HeartbeatInterval)

	ticker := time.NewTicker(cfg.Input.PollInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(mon, publisher, mqttStatus, tracker, cfg.MQTT.HeartbeatInterval, log, time.Now, ticker.C, sigCh)
}

func runLoop(mon *monitor.Monitor, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, log logrus.FieldLogger, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warnf("failed to publish shutdown event: %v", err)
			} else {
				log.Info("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			mon.Tick(t)

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(mon.State())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if !mon.CheckHeartbeat(t, heartbeat) {
				continue
			}
			st := mon.State()
			log.Infof("heartbeat: status=%s load=%.1f%% tares=%d alerts=%d", st.Status, st.Reading.PercentLoad, st.Tares, st.Alerts)
			if publisher == nil {
				continue
			}
			hbEvent := mqtt.SystemEvent{
				Timestamp: t,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Warnf("heartbeat publish error: %v", err)
			}
		}
	}
}

type stateReader interface {
	ReadDigital(pin int) (bool, error)
	ReadAnalog(channel int) (uint16, error)
}

// printState writes one line with the raw control levels and a bridge sample.
func printState(w io.Writer, r stateReader, cfg *config.Config) error {
	pins := cfg.InputPins()
	levels := make([]string, 0, 3)
	for _, c := range []struct {
		name string
		pin  int
	}{{"HOLD", pins.Hold}, {"TARE", pins.Tare}, {"MODE", pins.Mode}} {
		v, err := r.ReadDigital(c.pin)
		if err != nil {
			return fmt.Errorf("read %s: %w", c.name, err)
		}
		levels = append(levels, fmt.Sprintf("%s: %s", c.name, levelString(v)))
	}
	sample, err := r.ReadAnalog(cfg.Hardware.ADCChannel)
	if err != nil {
		return fmt.Errorf("read bridge: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s, %s, %s, ADC: %d\n", levels[0], levels[1], levels[2], sample)
	return err
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}
