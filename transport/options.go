package transport

import (
	"time"

	"github.com/moffa90/go-crosec/portio"
)

// Config holds the settings shared by every transport backend.
// Each backend reads only the fields that apply to it.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger Logger

	// Address pins the LPC memory map base. Zero scans the known bases.
	Address uint16

	// DevicePath overrides the device node or driver path
	DevicePath string

	// PortIO is the port backend for LPC. When nil the platform default is
	// opened by Init and closed by Close; an injected backend is never closed.
	PortIO portio.PortIO

	// WaitTimeout bounds the LPC busy wait. Zero waits forever.
	WaitTimeout time.Duration

	// PollInterval is the sleep between LPC status polls. Zero spins.
	PollInterval time.Duration

	// StrictSize turns response size mismatches into errors
	StrictSize bool

	// SizeWarnings logs response size mismatches at warn level
	SizeWarnings bool

	// OnSizeMismatch is called for every response size mismatch (optional)
	OnSizeMismatch func(SizeMismatchError)

	// LibraryPath overrides the vendor driver DLL (PawnIOLib, WinRing0)
	LibraryPath string

	// ModulePath overrides the PawnIO module blob
	ModulePath string
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Logger:       NopLogger(),
		SizeWarnings: true,
	}
}

// Option is a functional option for configuring a transport.
type Option func(*Config)

// NewConfig applies opts over the defaults. Backends call it from New.
func NewConfig(opts ...Option) Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = NopLogger()
	}
	return cfg
}

// WithLogger sets a logger for transport operations.
//
// Example:
//
//	t := cdev.New(transport.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithAddress pins the LPC memory map base instead of scanning.
//
// Example:
//
//	t := lpc.New(transport.WithAddress(0xE00))
func WithAddress(addr uint16) Option {
	return func(c *Config) {
		c.Address = addr
	}
}

// WithDevicePath overrides the device node (cdev) or driver path (winec).
func WithDevicePath(path string) Option {
	return func(c *Config) {
		c.DevicePath = path
	}
}

// WithPortIO injects the port backend used by the LPC transport.
//
// Example:
//
//	dev, _ := portio.OpenDevPort("/dev/port")
//	t := lpc.New(transport.WithPortIO(dev))
func WithPortIO(p portio.PortIO) Option {
	return func(c *Config) {
		c.PortIO = p
	}
}

// WithWaitTimeout bounds how long the LPC transport waits for the EC.
// Negative values are ignored.
func WithWaitTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout >= 0 {
			c.WaitTimeout = timeout
		}
	}
}

// WithPollInterval sets the sleep between LPC status polls.
// Negative values are ignored.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval >= 0 {
			c.PollInterval = interval
		}
	}
}

// WithStrictSize makes response size mismatches fail the command.
func WithStrictSize(strict bool) Option {
	return func(c *Config) {
		c.StrictSize = strict
	}
}

// WithSizeWarnings enables or disables the size mismatch warning.
// Default is true.
func WithSizeWarnings(enabled bool) Option {
	return func(c *Config) {
		c.SizeWarnings = enabled
	}
}

// WithSizeMismatchHandler sets a callback for response size mismatches.
//
// Example:
//
//	t := cdev.New(transport.WithSizeMismatchHandler(func(e transport.SizeMismatchError) {
//	    mismatches.Inc()
//	}))
func WithSizeMismatchHandler(fn func(SizeMismatchError)) Option {
	return func(c *Config) {
		c.OnSizeMismatch = fn
	}
}

// WithLibraryPath overrides the vendor driver library.
func WithLibraryPath(path string) Option {
	return func(c *Config) {
		c.LibraryPath = path
	}
}

// WithModulePath overrides the PawnIO module blob.
func WithModulePath(path string) Option {
	return func(c *Config) {
		c.ModulePath = path
	}
}
