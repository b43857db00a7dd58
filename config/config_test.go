package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-crosec/crosec"
	"github.com/moffa90/go-crosec/transport"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ectool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Device)
	assert.Equal(t, crosec.Auto, cfg.DeviceType())
	assert.Zero(t, cfg.Address)
	assert.Zero(t, cfg.WaitTimeout)
	assert.True(t, cfg.SizeWarnings)
	assert.False(t, cfg.StrictSize)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Log.File.MaxSizeMB)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
device: lpc
address: "0xE00"
wait_timeout: 2s
poll_interval: 50us
strict_size: true
log:
  level: debug
  format: json
  file:
    path: /tmp/ectool.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, crosec.LPC, cfg.DeviceType())
	assert.Equal(t, uint16(0xE00), cfg.Address)
	assert.Equal(t, 2*time.Second, cfg.WaitTimeout)
	assert.Equal(t, 50*time.Microsecond, cfg.PollInterval)
	assert.True(t, cfg.StrictSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/ectool.log", cfg.Log.File.Path)
}

func TestLoadPlainIntegerAddress(t *testing.T) {
	cfg, err := Load(writeConfig(t, "address: 2304\n"))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x900), cfg.Address)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CROSEC_DEVICE", "cros_ec")
	t.Setenv("CROSEC_ADDRESS", "0x900")
	t.Setenv("CROSEC_LOG_LEVEL", "error")

	cfg, err := Load(writeConfig(t, "device: lpc\naddress: \"0xE00\"\n"))
	require.NoError(t, err)

	assert.Equal(t, crosec.LinuxDev, cfg.DeviceType())
	assert.Equal(t, uint16(0x900), cfg.Address)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown device", content: "device: serial\n"},
		{name: "bad address", content: "address: \"0x10000\"\n"},
		{name: "negative timeout", content: "wait_timeout: -1s\n"},
		{name: "bad duration", content: "poll_interval: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestTransportOptions(t *testing.T) {
	cfg := &Config{
		Address:      0xE00,
		DevicePath:   "/dev/cros_fp",
		LibraryPath:  `C:\PawnIO\PawnIOLib.dll`,
		ModulePath:   "LpcCrOSEC.bin",
		WaitTimeout:  time.Second,
		PollInterval: time.Millisecond,
		StrictSize:   true,
	}

	got := transport.NewConfig(cfg.TransportOptions(nil)...)

	assert.Equal(t, uint16(0xE00), got.Address)
	assert.Equal(t, "/dev/cros_fp", got.DevicePath)
	assert.Equal(t, `C:\PawnIO\PawnIOLib.dll`, got.LibraryPath)
	assert.Equal(t, "LpcCrOSEC.bin", got.ModulePath)
	assert.Equal(t, time.Second, got.WaitTimeout)
	assert.Equal(t, time.Millisecond, got.PollInterval)
	assert.True(t, got.StrictSize)
	assert.False(t, got.SizeWarnings)
	assert.NotNil(t, got.Logger)
}
