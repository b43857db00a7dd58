package crosec_test

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-crosec/crosec"
	"github.com/moffa90/go-crosec/ecsim"
	"github.com/moffa90/go-crosec/protocol"
	"github.com/moffa90/go-crosec/transport"
	"github.com/moffa90/go-crosec/transport/cdev"
	"github.com/moffa90/go-crosec/transport/lpc"
)

// stubTransport only answers Detect.
type stubTransport struct {
	name   string
	probe  transport.Probe
	probed bool
}

func (s *stubTransport) Name() string { return s.name }
func (s *stubTransport) Detect() transport.Probe {
	s.probed = true
	return s.probe
}
func (s *stubTransport) Init() error { return nil }
func (s *stubTransport) Command(context.Context, uint8, uint16, []byte, int) ([]byte, error) {
	return nil, errors.New("stub")
}
func (s *stubTransport) Memmap(int, int) ([]byte, error) { return nil, errors.New("stub") }
func (s *stubTransport) Close() error                    { return nil }

// nopDevice is an open cros_ec node that is never used.
type nopDevice struct{}

func (nopDevice) Ioctl(uint, []byte) (int, error) { return 0, errors.New("unused") }
func (nopDevice) Close() error                    { return nil }

func simulated(t *testing.T, ec *ecsim.EC) *crosec.EC {
	t.Helper()
	bus := ecsim.NewBus(ec)
	dev, err := crosec.OpenTransport(lpc.New(transport.WithPortIO(bus)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })
	return dev
}

func TestPickDevice(t *testing.T) {
	t.Run("cdev wins over lpc", func(t *testing.T) {
		c := cdev.NewWithDevice(nopDevice{})
		l := lpc.New(transport.WithPortIO(ecsim.NewBus(ecsim.New())))

		got, err := crosec.PickDevice(c, l)
		require.NoError(t, err)
		assert.Same(t, c, got)
	})

	t.Run("first found wins", func(t *testing.T) {
		a := &stubTransport{name: "a", probe: transport.NotPresent}
		b := &stubTransport{name: "b", probe: transport.Found}
		c := &stubTransport{name: "c", probe: transport.Found}

		got, err := crosec.PickDevice(a, b, c)
		require.NoError(t, err)
		assert.Same(t, b, got)
		assert.False(t, c.probed)
	})

	t.Run("permission denied aborts", func(t *testing.T) {
		a := &stubTransport{name: "a", probe: transport.PermissionDenied}
		b := &stubTransport{name: "b", probe: transport.Found}

		_, err := crosec.PickDevice(a, b)
		assert.ErrorIs(t, err, transport.ErrPermissionDenied)
		assert.False(t, b.probed)
	})

	t.Run("nothing found", func(t *testing.T) {
		_, err := crosec.PickDevice(
			&stubTransport{name: "a", probe: transport.NotPresent},
			lpc.New(transport.WithPortIO(ecsim.NewBus(ecsim.New(), ecsim.WithAbsent()))),
		)
		assert.ErrorIs(t, err, transport.ErrNoDevice)
		assert.Contains(t, err.Error(), "a, lpc")
	})
}

func TestParseDeviceType(t *testing.T) {
	tests := []struct {
		in      string
		want    crosec.DeviceType
		wantErr bool
	}{
		{in: "", want: crosec.Auto},
		{in: "auto", want: crosec.Auto},
		{in: "cros_ec", want: crosec.LinuxDev},
		{in: "LPC", want: crosec.LPC},
		{in: "pawnio", want: crosec.PawnIO},
		{in: "windows", want: crosec.WindowsDriver},
		{in: "serial", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := crosec.ParseDeviceType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, must(crosec.ParseDeviceType(got.String())))
		})
	}
}

func must(d crosec.DeviceType, err error) crosec.DeviceType {
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewTransport(t *testing.T) {
	for _, kind := range []crosec.DeviceType{crosec.LinuxDev, crosec.WindowsDriver, crosec.PawnIO, crosec.LPC} {
		tr, err := crosec.NewTransport(kind)
		require.NoError(t, err)
		assert.NotEmpty(t, tr.Name())
	}

	_, err := crosec.NewTransport(crosec.Auto)
	assert.Error(t, err)
}

func TestCandidatesEndWithLPC(t *testing.T) {
	candidates := crosec.Candidates()
	require.NotEmpty(t, candidates)
	assert.Equal(t, "lpc", candidates[len(candidates)-1].Name())
}

func TestOpenTransportInitFailure(t *testing.T) {
	bus := ecsim.NewBus(ecsim.New(), ecsim.WithAbsent())

	_, err := crosec.OpenTransport(lpc.New(transport.WithPortIO(bus)))
	assert.ErrorIs(t, err, transport.ErrNoDevice)
	assert.Zero(t, bus.Grants())
}

func TestCommandsUnsupported(t *testing.T) {
	ec := simulated(t, ecsim.New(ecsim.WithFlags(0)))

	_, err := ec.Hello(context.Background(), 1)
	assert.ErrorIs(t, err, transport.ErrCommandsUnsupported)

	id, err := ec.ID()
	require.NoError(t, err)
	assert.Equal(t, "EC", id)
}

func TestHello(t *testing.T) {
	ec := simulated(t, ecsim.New())

	out, err := ec.Hello(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0102032E), out)
	assert.Equal(t, "lpc", ec.Name())
}

func TestProtoVersion(t *testing.T) {
	ec := simulated(t, ecsim.New())

	v, err := ec.ProtoVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(3), v)
}

func TestGetVersion(t *testing.T) {
	ec := simulated(t, ecsim.New(ecsim.WithVersion("hx30_v0.0.1-ro", "hx30_v0.0.1-rw")))

	info, err := ec.GetVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &crosec.VersionInfo{
		RO:           "hx30_v0.0.1-ro",
		RW:           "hx30_v0.0.1-rw",
		CurrentImage: crosec.ImageRW,
	}, info)
	assert.Equal(t, "RW", info.CurrentImage.String())
}

func TestShortResponse(t *testing.T) {
	sim := ecsim.New()
	sim.Register(protocol.CmdHello, func(uint8, []byte) (protocol.Status, []byte) {
		return protocol.StatusSuccess, []byte{1}
	})
	ec := simulated(t, sim)

	_, err := ec.Hello(context.Background(), 1)
	assert.ErrorIs(t, err, protocol.ErrMalformedResponse)
}

func TestCommandECError(t *testing.T) {
	ec := simulated(t, ecsim.New())

	_, err := ec.Command(context.Background(), 0, 0x0BAD, nil, 0)

	status, ok := protocol.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, protocol.StatusInvalidCommand, status)
}

func TestMemmapDecoders(t *testing.T) {
	sim := ecsim.New()
	sim.SetMemmap(protocol.MemmapTempSensorB, []byte{0x64, protocol.TempSensorError})
	sim.SetMemmap(protocol.MemmapFan+2, binary.LittleEndian.AppendUint16(nil, protocol.FanSpeedStalled))
	sim.SetMemmap(protocol.MemmapSwitches, []byte{protocol.SwitchLidOpen | protocol.SwitchWriteProtectDisabled})
	ec := simulated(t, sim)

	id, err := ec.ID()
	require.NoError(t, err)
	assert.Equal(t, "EC", id)

	temps, err := ec.Temperatures()
	require.NoError(t, err)
	assert.Equal(t, []int{52, 37, 27}, temps)

	fans, err := ec.Fans()
	require.NoError(t, err)
	assert.Equal(t, []crosec.Fan{{Index: 0, RPM: 2400}, {Index: 1, Stalled: true}}, fans)

	sw, err := ec.Switches()
	require.NoError(t, err)
	assert.Equal(t, &crosec.Switches{LidOpen: true, WriteProtectDisabled: true}, sw)
}

func TestMemmapUnsupportedSections(t *testing.T) {
	sim := ecsim.New()
	sim.SetMemmap(protocol.MemmapThermalVersion, []byte{0})
	sim.SetMemmap(protocol.MemmapSwitchesVersion, []byte{0})
	ec := simulated(t, sim)

	temps, err := ec.Temperatures()
	require.NoError(t, err)
	assert.Empty(t, temps)

	fans, err := ec.Fans()
	require.NoError(t, err)
	assert.Empty(t, fans)

	sw, err := ec.Switches()
	require.NoError(t, err)
	assert.Nil(t, sw)
}

func TestThermalVersionOneSkipsBankB(t *testing.T) {
	sim := ecsim.New()
	sim.SetMemmap(protocol.MemmapThermalVersion, []byte{1})
	sim.SetMemmap(protocol.MemmapTempSensorB, []byte{0x64})
	ec := simulated(t, sim)

	temps, err := ec.Temperatures()
	require.NoError(t, err)
	assert.Equal(t, []int{52, 37}, temps)
}

func TestConcurrentCommands(t *testing.T) {
	ec := simulated(t, ecsim.New())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(in uint32) {
			defer wg.Done()
			out, err := ec.Hello(context.Background(), in)
			if err == nil && out != in+protocol.HelloMagic {
				err = errors.New("hello answer mixed up")
			}
			errs <- err
		}(uint32(i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestClose(t *testing.T) {
	bus := ecsim.NewBus(ecsim.New())
	ec, err := crosec.OpenTransport(lpc.New(transport.WithPortIO(bus)))
	require.NoError(t, err)

	require.NoError(t, ec.Close())
	require.NoError(t, ec.Close())
	assert.Zero(t, bus.Grants())

	_, err = ec.Hello(context.Background(), 1)
	assert.ErrorIs(t, err, transport.ErrNotInitialized)

	_, err = ec.Memmap(0, 1)
	assert.ErrorIs(t, err, transport.ErrNotInitialized)
}
