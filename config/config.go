// Package config loads ectool settings from a YAML file and CROSEC_*
// environment variables using viper.
package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/moffa90/go-crosec/crosec"
	"github.com/moffa90/go-crosec/logging"
	"github.com/moffa90/go-crosec/transport"
)

// EnvPrefix is prepended to every environment override, e.g.
// CROSEC_DEVICE=lpc or CROSEC_LOG_LEVEL=debug.
const EnvPrefix = "CROSEC"

// Config is the ectool configuration.
type Config struct {
	// Device is a crosec.DeviceType name; empty or "auto" probes
	Device string `mapstructure:"device" yaml:"device"`

	// Address forces the LPC memory map base, e.g. "0xE00"
	Address uint16 `mapstructure:"address" yaml:"address"`

	DevicePath  string `mapstructure:"device_path" yaml:"device_path"`
	LibraryPath string `mapstructure:"library_path" yaml:"library_path"`
	ModulePath  string `mapstructure:"module_path" yaml:"module_path"`

	WaitTimeout  time.Duration `mapstructure:"wait_timeout" yaml:"wait_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`

	StrictSize   bool `mapstructure:"strict_size" yaml:"strict_size"`
	SizeWarnings bool `mapstructure:"size_warnings" yaml:"size_warnings"`

	Log logging.Config `mapstructure:"log" yaml:"log"`
}

// Load reads path (optional) and applies environment overrides and
// defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		portHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("device", "auto")
	v.SetDefault("address", 0)
	v.SetDefault("device_path", "")
	v.SetDefault("library_path", "")
	v.SetDefault("module_path", "")
	v.SetDefault("wait_timeout", "0s")
	v.SetDefault("poll_interval", "0s")
	v.SetDefault("strict_size", false)
	v.SetDefault("size_warnings", true)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size_mb", 10)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.max_age_days", 28)
	v.SetDefault("log.file.compress", false)
}

// portHookFunc parses I/O port numbers written in any Go integer syntax,
// so "0xE00", "3584" and "0o7000" all work.
func portHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Uint16 {
			return data, nil
		}
		s := strings.TrimSpace(data.(string))
		if s == "" {
			return uint16(0), nil
		}
		n, err := strconv.ParseUint(s, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", s, err)
		}
		return uint16(n), nil
	}
}

// Validate checks values viper cannot.
func (c *Config) Validate() error {
	if _, err := crosec.ParseDeviceType(c.Device); err != nil {
		return err
	}
	if c.WaitTimeout < 0 {
		return fmt.Errorf("wait_timeout must not be negative, got %s", c.WaitTimeout)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative, got %s", c.PollInterval)
	}
	return nil
}

// DeviceType returns the parsed Device.
func (c *Config) DeviceType() crosec.DeviceType {
	d, _ := crosec.ParseDeviceType(c.Device)
	return d
}

// TransportOptions converts the configuration into transport options.
// logger may be nil.
func (c *Config) TransportOptions(logger transport.Logger) []transport.Option {
	opts := []transport.Option{
		transport.WithWaitTimeout(c.WaitTimeout),
		transport.WithPollInterval(c.PollInterval),
		transport.WithStrictSize(c.StrictSize),
		transport.WithSizeWarnings(c.SizeWarnings),
	}
	if logger != nil {
		opts = append(opts, transport.WithLogger(logger))
	}
	if c.Address != 0 {
		opts = append(opts, transport.WithAddress(c.Address))
	}
	if c.DevicePath != "" {
		opts = append(opts, transport.WithDevicePath(c.DevicePath))
	}
	if c.LibraryPath != "" {
		opts = append(opts, transport.WithLibraryPath(c.LibraryPath))
	}
	if c.ModulePath != "" {
		opts = append(opts, transport.WithModulePath(c.ModulePath))
	}
	return opts
}
