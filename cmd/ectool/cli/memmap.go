package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-crosec/crosec"
)

// MemmapResult is a raw memory map read.
type MemmapResult struct {
	Offset string `json:"offset" yaml:"offset"`
	Length int    `json:"length" yaml:"length"`
	Data   string `json:"data" yaml:"data"`
}

// Reading is one line of the sensors output.
type Reading struct {
	Kind  string `json:"kind" yaml:"kind"`
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

func (a *app) memmapCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "memmap <offset> <length>",
		Short:   "Read bytes from the EC memory map",
		Example: "  ectool memmap 0x20 2",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.ParseUint(args[0], 0, 8)
			if err != nil {
				return fmt.Errorf("invalid offset %q: %w", args[0], err)
			}
			length, err := strconv.ParseUint(args[1], 0, 8)
			if err != nil {
				return fmt.Errorf("invalid length %q: %w", args[1], err)
			}

			return a.withEC(cmd, func(_ context.Context, ec *crosec.EC) (any, error) {
				data, err := ec.Memmap(int(offset), int(length))
				if err != nil {
					return nil, err
				}
				return MemmapResult{
					Offset: fmt.Sprintf("0x%02X", offset),
					Length: len(data),
					Data:   fmt.Sprintf("% X", data),
				}, nil
			})
		},
	}
}

func (a *app) sensorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sensors",
		Short: "Show temperatures, fans and switches from the memory map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEC(cmd, func(_ context.Context, ec *crosec.EC) (any, error) {
				return readSensors(ec)
			})
		},
	}
}

func readSensors(ec *crosec.EC) ([]Reading, error) {
	var readings []Reading

	temps, err := ec.Temperatures()
	if err != nil {
		return nil, fmt.Errorf("temperatures: %w", err)
	}
	for i, t := range temps {
		readings = append(readings, Reading{Kind: "temp", Name: strconv.Itoa(i), Value: fmt.Sprintf("%d C", t)})
	}

	fans, err := ec.Fans()
	if err != nil {
		return nil, fmt.Errorf("fans: %w", err)
	}
	for _, f := range fans {
		value := fmt.Sprintf("%d rpm", f.RPM)
		if f.Stalled {
			value = "stalled"
		}
		readings = append(readings, Reading{Kind: "fan", Name: strconv.Itoa(f.Index), Value: value})
	}

	sw, err := ec.Switches()
	if err != nil {
		return nil, fmt.Errorf("switches: %w", err)
	}
	if sw != nil {
		for _, s := range []struct {
			name string
			on   bool
		}{
			{"lid_open", sw.LidOpen},
			{"power_button_pressed", sw.PowerButtonPressed},
			{"write_protect_disabled", sw.WriteProtectDisabled},
			{"dedicated_recovery", sw.DedicatedRecovery},
		} {
			readings = append(readings, Reading{Kind: "switch", Name: s.name, Value: strconv.FormatBool(s.on)})
		}
	}

	return readings, nil
}
