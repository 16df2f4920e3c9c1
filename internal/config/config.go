// Package config loads the daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/strain-sensor/internal/hw"
	"github.com/sweeney/strain-sensor/internal/input"
	"github.com/sweeney/strain-sensor/internal/loadcell"
	"github.com/sweeney/strain-sensor/internal/strain"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config represents the daemon configuration.
type Config struct {
	Hardware HardwareConfig `yaml:"hardware"`
	Input    InputConfig    `yaml:"input"`
	Strain   StrainConfig   `yaml:"strain"`
	Tare     TareConfig     `yaml:"tare"`
	LoadCell LoadCellConfig `yaml:"load_cell"`
	Display  DisplayConfig  `yaml:"display"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// HardwareConfig names the GPIO chip, pins and the ADC bridge.
type HardwareConfig struct {
	Chip       string        `yaml:"chip"`
	ADCPort    string        `yaml:"adc_port"`
	ADCBaud    int           `yaml:"adc_baud"`
	ADCChannel int           `yaml:"adc_channel"`
	ADCMaxAge  time.Duration `yaml:"adc_max_age"`
	Pins       PinsConfig    `yaml:"pins"`
}

// PinsConfig contains BCM pin numbers.
type PinsConfig struct {
	Hold      int `yaml:"hold"`
	Tare      int `yaml:"tare"`
	Mode      int `yaml:"mode"`
	Indicator int `yaml:"indicator"`
	Audible   int `yaml:"audible"`
	HXData    int `yaml:"hx_data"`
	HXClock   int `yaml:"hx_clock"`
}

// InputConfig controls button sampling.
type InputConfig struct {
	Debounce     time.Duration `yaml:"debounce"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// StrainConfig holds the bridge constants.
type StrainConfig struct {
	Vref         float64 `yaml:"vref"`
	ADCMax       float64 `yaml:"adc_max"`
	Gain         float64 `yaml:"gain"`
	GaugeFactor  float64 `yaml:"gauge_factor"`
	PlateLength  float64 `yaml:"plate_length"` // metres
	Modulus      float64 `yaml:"modulus"`      // Pa
	StrainMax    float64 `yaml:"strain_max"`
	FilterWindow int     `yaml:"filter_window"`
}

// TareConfig controls the tare procedure.
type TareConfig struct {
	Samples   int           `yaml:"samples"`
	Interval  time.Duration `yaml:"interval"`
	Settle    time.Duration `yaml:"settle"`
	OnStartup bool          `yaml:"on_startup"`
}

// LoadCellConfig controls the HX711 load cell.
type LoadCellConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Factor      float64 `yaml:"factor"`
	Samples     int     `yaml:"samples"`
	TareSamples int     `yaml:"tare_samples"`
	DeadZone    float64 `yaml:"dead_zone"` // grams
}

// DisplayConfig controls the I²C character LCD.
type DisplayConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Bus      string        `yaml:"bus"`
	Address  uint16        `yaml:"address"`
	Interval time.Duration `yaml:"interval"`
}

// MQTTConfig controls telemetry.
type MQTTConfig struct {
	Broker            string        `yaml:"broker"`
	ClientID          string        `yaml:"client_id"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	BufferSize        int           `yaml:"buffer_size"`
	TelemetryInterval time.Duration `yaml:"telemetry_interval"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

// HTTPConfig controls the status server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration of the reference rig.
func Default() *Config {
	p := strain.DefaultParams()
	tare := strain.DefaultTare()
	lc := loadcell.DefaultSettings()
	return &Config{
		Hardware: HardwareConfig{
			Chip:       "gpiochip0",
			ADCPort:    "/dev/ttyUSB0",
			ADCBaud:    hw.DefaultBaudRate,
			ADCChannel: hw.ChannelBridge,
			ADCMaxAge:  hw.DefaultMaxAge,
			Pins: PinsConfig{
				Hold:      hw.PinHold,
				Tare:      hw.PinTare,
				Mode:      hw.PinMode,
				Indicator: hw.PinIndicator,
				Audible:   hw.PinAudible,
				HXData:    hw.PinHXData,
				HXClock:   hw.PinHXClock,
			},
		},
		Input: InputConfig{
			Debounce:     input.DefaultWindow,
			PollInterval: 10 * time.Millisecond,
		},
		Strain: StrainConfig{
			Vref:         p.Vref,
			ADCMax:       p.ADCMax,
			Gain:         p.Gain,
			GaugeFactor:  p.GaugeFactor,
			PlateLength:  p.PlateLength,
			Modulus:      p.Modulus,
			StrainMax:    p.StrainMax,
			FilterWindow: p.FilterWindow,
		},
		Tare: TareConfig{
			Samples:   tare.Samples,
			Interval:  tare.Interval,
			Settle:    tare.Settle,
			OnStartup: true,
		},
		LoadCell: LoadCellConfig{
			Enabled:     true,
			Factor:      lc.Factor,
			Samples:     lc.Samples,
			TareSamples: lc.TareSamples,
			DeadZone:    lc.DeadZone,
		},
		Display: DisplayConfig{
			Enabled:  true,
			Address:  0x27,
			Interval: 500 * time.Millisecond,
		},
		MQTT: MQTTConfig{
			ClientID:          "strain-sensor",
			BufferSize:        100,
			TelemetryInterval: time.Second,
			HeartbeatInterval: 15 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults fills fields explicitly zeroed in the file where zero is never meaningful.
// Physical constants are left alone so Validate can reject them.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Hardware.Chip == "" {
		c.Hardware.Chip = def.Hardware.Chip
	}
	if c.Hardware.ADCBaud == 0 {
		c.Hardware.ADCBaud = def.Hardware.ADCBaud
	}
	if c.Hardware.ADCMaxAge == 0 {
		c.Hardware.ADCMaxAge = def.Hardware.ADCMaxAge
	}
	if c.Input.Debounce == 0 {
		c.Input.Debounce = def.Input.Debounce
	}
	if c.Input.PollInterval == 0 {
		c.Input.PollInterval = def.Input.PollInterval
	}
	if c.Strain.FilterWindow == 0 {
		c.Strain.FilterWindow = def.Strain.FilterWindow
	}
	if c.Tare.Samples == 0 {
		c.Tare.Samples = def.Tare.Samples
	}
	if c.LoadCell.Samples == 0 {
		c.LoadCell.Samples = def.LoadCell.Samples
	}
	if c.LoadCell.TareSamples == 0 {
		c.LoadCell.TareSamples = def.LoadCell.TareSamples
	}
	if c.Display.Address == 0 {
		c.Display.Address = def.Display.Address
	}
	if c.Display.Interval == 0 {
		c.Display.Interval = def.Display.Interval
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.BufferSize == 0 {
		c.MQTT.BufferSize = def.MQTT.BufferSize
	}
}

// Params returns the strain constants.
func (c *Config) Params() strain.Params {
	return strain.Params{
		Vref:         c.Strain.Vref,
		ADCMax:       c.Strain.ADCMax,
		Gain:         c.Strain.Gain,
		GaugeFactor:  c.Strain.GaugeFactor,
		PlateLength:  c.Strain.PlateLength,
		Modulus:      c.Strain.Modulus,
		StrainMax:    c.Strain.StrainMax,
		FilterWindow: c.Strain.FilterWindow,
	}
}

// TareSettings returns the tare procedure settings.
func (c *Config) TareSettings() strain.TareSettings {
	return strain.TareSettings{Samples: c.Tare.Samples, Interval: c.Tare.Interval, Settle: c.Tare.Settle}
}

// LoadCellSettings returns the load-cell settings.
func (c *Config) LoadCellSettings() loadcell.Settings {
	return loadcell.Settings{
		Factor:      c.LoadCell.Factor,
		Samples:     c.LoadCell.Samples,
		TareSamples: c.LoadCell.TareSamples,
		DeadZone:    c.LoadCell.DeadZone,
	}
}

// InputPins returns the control pin mapping.
func (c *Config) InputPins() input.Pins {
	return input.Pins{Hold: c.Hardware.Pins.Hold, Tare: c.Hardware.Pins.Tare, Mode: c.Hardware.Pins.Mode}
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Tare.Samples < 1 {
		return fmt.Errorf("%w: tare.samples must be at least 1", ErrInvalid)
	}
	if c.Tare.Interval < 0 || c.Tare.Settle < 0 {
		return fmt.Errorf("%w: tare durations must not be negative", ErrInvalid)
	}
	if c.Hardware.ADCMaxAge < 0 {
		return fmt.Errorf("%w: hardware.adc_max_age must not be negative", ErrInvalid)
	}
	if c.Input.Debounce < 0 || c.Input.PollInterval <= 0 {
		return fmt.Errorf("%w: input.poll_interval must be positive and debounce not negative", ErrInvalid)
	}
	if c.MQTT.TelemetryInterval < 0 || c.MQTT.HeartbeatInterval < 0 {
		return fmt.Errorf("%w: mqtt intervals must not be negative", ErrInvalid)
	}
	if c.LoadCell.Enabled && c.LoadCell.Factor == 0 {
		return fmt.Errorf("%w: load_cell.factor must not be zero", ErrInvalid)
	}
	pins := map[int]string{}
	for name, pin := range map[string]int{
		"hold":      c.Hardware.Pins.Hold,
		"tare":      c.Hardware.Pins.Tare,
		"mode":      c.Hardware.Pins.Mode,
		"indicator": c.Hardware.Pins.Indicator,
		"audible":   c.Hardware.Pins.Audible,
	} {
		if other, dup := pins[pin]; dup {
			return fmt.Errorf("%w: pins %s and %s share line %d", ErrInvalid, name, other, pin)
		}
		pins[pin] = name
	}
	return nil
}
