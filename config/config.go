// Package config loads the settings shared by the launchtone binaries
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"launchtone/core"
	"launchtone/host/serial"
)

// Config is the JSON configuration file. Zero values take defaults.
type Config struct {
	BPM        uint32  `json:"bpm"`
	DeadTimeMS uint32  `json:"dead_time_ms"`
	NoDeadTime bool    `json:"no_dead_time"`
	SampleRate int     `json:"sample_rate"`
	Amplitude  float32 `json:"amplitude"`
	Device     string  `json:"device"`
	Baud       int     `json:"baud"`
	Song       string  `json:"song"` // Lua script path; empty plays the demo
	Loop       bool    `json:"loop"`
}

const (
	DefaultBPM        = 120
	DefaultSampleRate = 44100
	DefaultAmplitude  = 0.25
	DefaultDevice     = "/dev/ttyACM0"
)

// LoadConfig parses a JSON configuration and applies defaults
func LoadConfig(jsonData []byte) (*Config, error) {
	var config Config

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)

	return &config, nil
}

// LoadFile reads and parses the configuration at path
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	config, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *Config) {
	if config.BPM == 0 {
		config.BPM = DefaultBPM
	}
	if config.DeadTimeMS == 0 {
		config.DeadTimeMS = core.DefaultDeadTimeMS
	}
	if config.SampleRate == 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.Amplitude == 0 {
		config.Amplitude = DefaultAmplitude
	}
	if config.Device == "" {
		config.Device = DefaultDevice
	}
	if config.Baud == 0 {
		config.Baud = serial.DefaultBaud
	}
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	var tempo core.TempoConfig
	if err := tempo.SetTempo(c.BPM); err != nil {
		return fmt.Errorf("bpm %d: %w", c.BPM, err)
	}
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample_rate %d is below 8000", c.SampleRate)
	}
	if c.Amplitude < 0 || c.Amplitude > 1 {
		return fmt.Errorf("amplitude %v is outside 0-1", c.Amplitude)
	}
	return nil
}

// SequencerConfig returns the sequencer settings of c
func (c *Config) SequencerConfig() core.SequencerConfig {
	return core.SequencerConfig{
		DeadTimeMS: c.DeadTimeMS,
		NoDeadTime: c.NoDeadTime,
	}
}

// SerialConfig returns the serial port settings of c
func (c *Config) SerialConfig() *serial.Config {
	sc := serial.DefaultConfig(c.Device)
	sc.Baud = c.Baud
	return sc
}
