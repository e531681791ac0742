// Package config holds eisview's configuration, its defaults and how it is loaded.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"eisview/store"
)

const DEFAULT_CONFIG_FILE = "eisview.yaml"

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`   // HTTP dashboard
	Driver  DriverConfig  `mapstructure:"driver" yaml:"driver"`   // which transport feeds the live view
	Serial  SerialConfig  `mapstructure:"serial" yaml:"serial"`   // serial gateway transport
	Bridge  BridgeConfig  `mapstructure:"bridge" yaml:"bridge"`   // websocket BLE bridge transport
	Mock    MockConfig    `mapstructure:"mock" yaml:"mock"`       // synthetic device
	Buffers BufferConfig  `mapstructure:"buffers" yaml:"buffers"` // rolling series sizes
	Replay  ReplayConfig  `mapstructure:"replay" yaml:"replay"`   // replay view
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"` // recording of accepted samples
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"` // logger setup
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"` // listen address
}

type DriverConfig struct {
	Type DriverType `mapstructure:"type" yaml:"type"` // serial, bridge or mock
}

type SerialConfig struct {
	Port     string `mapstructure:"port" yaml:"port"`           // device path or "auto"
	BaudRate int    `mapstructure:"baud_rate" yaml:"baud_rate"` // gateway baud rate
	RawLog   bool   `mapstructure:"raw_log" yaml:"raw_log"`     // keep every received line in a .jsonl file
	RawDir   string `mapstructure:"raw_dir" yaml:"raw_dir"`     // where raw logs go
}

type BridgeConfig struct {
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"` // how long the bridge has to say hello
}

type MockConfig struct {
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`       // time between samples
	Frequencies []float64     `mapstructure:"frequencies" yaml:"frequencies"` // sweep, Hz
	Humidity    bool          `mapstructure:"humidity" yaml:"humidity"`       // include humidity readings
}

type BufferConfig struct {
	Profile  store.Profile `mapstructure:"profile" yaml:"profile"`   // desktop or mobile
	Bode     int           `mapstructure:"bode" yaml:"bode"`         // override, 0 keeps the profile's value
	Nyquist  int           `mapstructure:"nyquist" yaml:"nyquist"`   // override
	Humidity int           `mapstructure:"humidity" yaml:"humidity"` // override
	Table    int           `mapstructure:"table" yaml:"table"`       // override
}

type ReplayConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"` // playback tick
	Dir      string        `mapstructure:"dir" yaml:"dir"`           // directory of .json records
}

type CaptureConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"` // record accepted samples
	Path    string `mapstructure:"path" yaml:"path"`       // sqlite database
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // console or json
}

// DefaultConfig returns a configuration with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Driver: DriverConfig{
			Type: Bridge,
		},
		Serial: SerialConfig{
			Port:     "auto",
			BaudRate: DEFAULT_BAUD_RATE,
			RawLog:   true,
			RawDir:   "logs",
		},
		Bridge: BridgeConfig{
			HandshakeTimeout: 30 * time.Second,
		},
		Mock: MockConfig{
			Interval:    500 * time.Millisecond,
			Frequencies: []float64{1, 10, 100, 1000, 10000, 100000},
			Humidity:    true,
		},
		Buffers: BufferConfig{
			Profile: store.DesktopProfile,
		},
		Replay: ReplayConfig{
			Interval: 50 * time.Millisecond,
			Dir:      "captures",
		},
		Capture: CaptureConfig{
			Enabled: false,
			Path:    "captures/eisview.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the config from defaults, the optional config file, EISVIEW_* env vars and bound flags, in
// increasing order of precedence. A missing file is only an error if it isn't the default one.
func Load(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetEnvPrefix("EISVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only answers for keys viper already knows about
	setDefaults(v, "", reflect.ValueOf(*cfg))

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if path != DEFAULT_CONFIG_FILE {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every leaf of cfg under its mapstructure key.
func setDefaults(v *viper.Viper, prefix string, cfg reflect.Value) {
	for i := 0; i < cfg.NumField(); i++ {
		field := cfg.Type().Field(i)
		key := field.Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		value := cfg.Field(i)
		if value.Kind() == reflect.Struct {
			setDefaults(v, key, value)
			continue
		}
		v.SetDefault(key, value.Interface())
	}
}

func (c *Config) Validate() error {
	switch c.Driver.Type {
	case Serial, Bridge, Mock:
	default:
		return fmt.Errorf("unsupported driver type: %s", c.Driver.Type)
	}
	if _, err := c.Capacities(); err != nil {
		return err
	}
	if c.Replay.Interval <= 0 {
		return fmt.Errorf("replay interval must be positive, got %s", c.Replay.Interval)
	}
	if c.Driver.Type == Mock && (c.Mock.Interval <= 0 || len(c.Mock.Frequencies) == 0) {
		return fmt.Errorf("mock driver needs a positive interval and at least one frequency")
	}
	return nil
}

// Capacities resolves the buffer profile plus any per-buffer overrides.
func (c *Config) Capacities() (store.Capacities, error) {
	capacities, err := store.CapacitiesFor(c.Buffers.Profile)
	if err != nil {
		return store.Capacities{}, err
	}
	return capacities.Override(store.Capacities{
		Bode:     c.Buffers.Bode,
		Nyquist:  c.Buffers.Nyquist,
		Humidity: c.Buffers.Humidity,
		Table:    c.Buffers.Table,
	}), nil
}

// YAML renders the effective configuration the way it would be written in a config file.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
