package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type DriverType string

const (
	Serial DriverType = "serial"
	Bridge DriverType = "bridge"
	Mock   DriverType = "mock"
)

const DEFAULT_BAUD_RATE = 115200

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"addr":            "server.addr",
	"driver":          "driver.type",
	"serial-port":     "serial.port",
	"baud":            "serial.baud_rate",
	"raw-log":         "serial.raw_log",
	"mock-interval":   "mock.interval",
	"profile":         "buffers.profile",
	"replay-interval": "replay.interval",
	"replay-dir":      "replay.dir",
	"capture":         "capture.enabled",
	"capture-path":    "capture.path",
	"log-level":       "logging.level",
	"log-format":      "logging.format",
}

// AddFlags registers the serve flags, defaulting to DefaultConfig.
func AddFlags(flags *pflag.FlagSet) {
	d := DefaultConfig()
	flags.String("addr", d.Server.Addr, "http listen address")
	flags.String("driver", string(d.Driver.Type), "transport feeding the live view: serial, bridge or mock")
	flags.String("serial-port", d.Serial.Port, "serial device path or 'auto'")
	flags.Int("baud", d.Serial.BaudRate, "baud rate")
	flags.Bool("raw-log", d.Serial.RawLog, "log every line received from the serial gateway")
	flags.Duration("mock-interval", d.Mock.Interval, "time between mock samples")
	flags.String("profile", string(d.Buffers.Profile), "buffer sizes: desktop or mobile")
	flags.Duration("replay-interval", d.Replay.Interval, "replay tick interval")
	flags.String("replay-dir", d.Replay.Dir, "directory holding replay .json records")
	flags.Bool("capture", d.Capture.Enabled, "record accepted samples for replay")
	flags.String("capture-path", d.Capture.Path, "capture database path")
	flags.String("log-level", d.Logging.Level, "log level")
	flags.String("log-format", d.Logging.Format, "log format: console or json")
}

// BindFlags makes the flags in flagKeys override their config keys when set.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
