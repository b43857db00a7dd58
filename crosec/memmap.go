package crosec

import (
	"encoding/binary"
	"fmt"

	"github.com/moffa90/go-crosec/protocol"
)

// KelvinOffset converts Kelvin to Celsius.
const KelvinOffset = 273

// Fan is one fan reading.
type Fan struct {
	Index   int    `json:"index" yaml:"index"`
	RPM     uint16 `json:"rpm" yaml:"rpm"`
	Stalled bool   `json:"stalled" yaml:"stalled"`
}

// Switches is the switch state at protocol.MemmapSwitches.
type Switches struct {
	LidOpen              bool `json:"lid_open" yaml:"lid_open"`
	PowerButtonPressed   bool `json:"power_button_pressed" yaml:"power_button_pressed"`
	WriteProtectDisabled bool `json:"write_protect_disabled" yaml:"write_protect_disabled"`
	DedicatedRecovery    bool `json:"dedicated_recovery" yaml:"dedicated_recovery"`
}

// ID returns the memory map signature, "EC" on a working EC.
func (e *EC) ID() (string, error) {
	b, err := e.Memmap(protocol.MemmapID, len(protocol.Signature))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Temperatures returns the readings of all present temperature sensors in
// degrees Celsius. Sensors that are missing, broken, unpowered or not
// calibrated are left out. An EC without thermal data returns nil.
func (e *EC) Temperatures() ([]int, error) {
	version, err := e.memmapByte(protocol.MemmapThermalVersion)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, nil
	}

	var temps []int
	read := func(offset, n int) error {
		raw, err := e.Memmap(offset, n)
		if err != nil {
			return err
		}
		for _, t := range raw {
			if t >= protocol.TempSensorNotCalibrated {
				continue
			}
			temps = append(temps, int(t)+protocol.TempSensorOffset-KelvinOffset)
		}
		return nil
	}

	if err := read(protocol.MemmapTempSensor, protocol.TempSensorEntries); err != nil {
		return nil, err
	}
	if version >= 2 {
		if err := read(protocol.MemmapTempSensorB, protocol.TempSensorBEntries); err != nil {
			return nil, err
		}
	}
	return temps, nil
}

// Fans returns the present fans.
func (e *EC) Fans() ([]Fan, error) {
	version, err := e.memmapByte(protocol.MemmapThermalVersion)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, nil
	}

	raw, err := e.Memmap(protocol.MemmapFan, 2*protocol.FanSpeedEntries)
	if err != nil {
		return nil, err
	}
	if len(raw) < 2*protocol.FanSpeedEntries {
		return nil, fmt.Errorf("%w: fan block is %d bytes", protocol.ErrMalformedResponse, len(raw))
	}

	var fans []Fan
	for i := 0; i < protocol.FanSpeedEntries; i++ {
		rpm := binary.LittleEndian.Uint16(raw[2*i:])
		switch rpm {
		case protocol.FanSpeedNotPresent:
			continue
		case protocol.FanSpeedStalled:
			fans = append(fans, Fan{Index: i, Stalled: true})
		default:
			fans = append(fans, Fan{Index: i, RPM: rpm})
		}
	}
	return fans, nil
}

// Switches returns the switch state, or nil if the EC does not report it.
func (e *EC) Switches() (*Switches, error) {
	version, err := e.memmapByte(protocol.MemmapSwitchesVersion)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, nil
	}

	s, err := e.memmapByte(protocol.MemmapSwitches)
	if err != nil {
		return nil, err
	}
	return &Switches{
		LidOpen:              s&protocol.SwitchLidOpen != 0,
		PowerButtonPressed:   s&protocol.SwitchPowerButtonPressed != 0,
		WriteProtectDisabled: s&protocol.SwitchWriteProtectDisabled != 0,
		DedicatedRecovery:    s&protocol.SwitchDedicatedRecovery != 0,
	}, nil
}
