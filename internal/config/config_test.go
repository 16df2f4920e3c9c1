package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/strain-sensor/internal/strain"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, strain.DefaultParams(), cfg.Params())
	assert.Equal(t, strain.DefaultTare(), cfg.TareSettings())
	assert.Equal(t, 50*time.Millisecond, cfg.Input.Debounce)
	assert.Equal(t, time.Second, cfg.MQTT.TelemetryInterval)
	assert.Equal(t, -430.0, cfg.LoadCellSettings().Factor)
	assert.Equal(t, 5.0, cfg.LoadCellSettings().DeadZone)
	assert.Equal(t, uint16(0x27), cfg.Display.Address)
	assert.Equal(t, time.Second, cfg.Hardware.ADCMaxAge)
	assert.True(t, cfg.Tare.OnStartup)
	assert.Empty(t, cfg.MQTT.Broker, "telemetry is opt-in")
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
hardware:
  adc_port: /dev/ttyAMA0
  adc_max_age: 250ms
  pins:
    tare: 24
input:
  debounce: 30ms
strain:
  gain: 1000
  filter_window: 0
tare:
  samples: 200
  settle: 500ms
mqtt:
  broker: tcp://10.0.0.5:1883
  client_id: ""
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyAMA0", cfg.Hardware.ADCPort)
	assert.Equal(t, 250*time.Millisecond, cfg.Hardware.ADCMaxAge)
	assert.Equal(t, 24, cfg.Hardware.Pins.Tare)
	assert.Equal(t, 4, cfg.Hardware.Pins.Hold, "unset keys keep defaults")
	assert.Equal(t, 30*time.Millisecond, cfg.Input.Debounce)
	assert.Equal(t, 1000.0, cfg.Strain.Gain)
	assert.Equal(t, 20, cfg.Strain.FilterWindow, "explicit zero restored")
	assert.Equal(t, 200, cfg.Tare.Samples)
	assert.Equal(t, 500*time.Millisecond, cfg.Tare.Settle)
	assert.Equal(t, "tcp://10.0.0.5:1883", cfg.MQTT.Broker)
	assert.Equal(t, "strain-sensor", cfg.MQTT.ClientID)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strain: [not, a, map"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.MQTT.Broker = "tcp://broker:1883"
	cfg.Tare.Interval = 7 * time.Millisecond
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero modulus", func(c *Config) { c.Strain.Modulus = 0 }},
		{"negative gain", func(c *Config) { c.Strain.Gain = -1 }},
		{"infinite modulus", func(c *Config) { c.Strain.Modulus = math.Inf(1) }},
		{"negative adc max age", func(c *Config) { c.Hardware.ADCMaxAge = -time.Second }},
		{"no tare samples", func(c *Config) { c.Tare.Samples = 0 }},
		{"negative settle", func(c *Config) { c.Tare.Settle = -time.Second }},
		{"zero poll", func(c *Config) { c.Input.PollInterval = 0 }},
		{"negative telemetry", func(c *Config) { c.MQTT.TelemetryInterval = -1 }},
		{"zero load factor", func(c *Config) { c.LoadCell.Factor = 0 }},
		{"shared pin", func(c *Config) { c.Hardware.Pins.Audible = c.Hardware.Pins.Tare }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	cfg := Default()
	cfg.LoadCell.Enabled = false
	cfg.LoadCell.Factor = 0
	assert.NoError(t, cfg.Validate(), "factor ignored when the load cell is off")
}

func TestInputPins(t *testing.T) {
	p := Default().InputPins()
	assert.Equal(t, 4, p.Hold)
	assert.Equal(t, 17, p.Tare)
	assert.Equal(t, 27, p.Mode)
}
