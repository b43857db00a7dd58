package portio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTempPortFile creates a file large enough to address every port in
// [0, size) and opens it as a DevPort.
func newTempPortFile(t *testing.T, size int) (*DevPort, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "port")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))

	dev, err := OpenDevPort(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })

	return dev, path
}

func TestDevPortByteAccess(t *testing.T) {
	dev, path := newTempPortFile(t, 0x1000)

	require.NoError(t, dev.Outb(0xDA, 0x204))

	got, err := dev.Inb(0x204)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xDA), got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte(0xDA), raw[0x204])
}

func TestDevPortWideAccessIsLittleEndian(t *testing.T) {
	dev, path := newTempPortFile(t, 0x1000)

	require.NoError(t, dev.Outw(0x4345, 0x920))
	require.NoError(t, dev.Outl(0x01020304, 0x800))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x45, 0x43}, raw[0x920:0x922])
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, raw[0x800:0x804])

	w, err := dev.Inw(0x920)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x4345), w)

	l, err := dev.Inl(0x800)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), l)
}

func TestDevPortGrantIsNoop(t *testing.T) {
	dev, _ := newTempPortFile(t, 16)
	assert.NoError(t, dev.Grant(0x900, 255, true))
	assert.NoError(t, dev.Grant(0x900, 255, false))
}

func TestDevPortReadPastEnd(t *testing.T) {
	dev, _ := newTempPortFile(t, 16)

	_, err := dev.Inb(0x200)
	assert.Error(t, err)
}

func TestOpenDevPortMissing(t *testing.T) {
	_, err := OpenDevPort(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermissionDenied)
}

func TestReadWriteBytes(t *testing.T) {
	dev, _ := newTempPortFile(t, 0x1000)

	packet := []byte{0x03, 0xEE, 0x01, 0x00, 0x00, 0x00, 0x04, 0x00}
	require.NoError(t, WriteBytes(dev, 0x800, packet))

	got, err := ReadBytes(dev, 0x800, len(packet))
	require.NoError(t, err)
	assert.Equal(t, packet, got)

	empty, err := ReadBytes(dev, 0x800, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
