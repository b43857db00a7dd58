package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-crosec/crosec"
	"github.com/moffa90/go-crosec/protocol"
)

// HelloResult is the hello subcommand output.
type HelloResult struct {
	Transport string `json:"transport" yaml:"transport"`
	Sent      string `json:"sent" yaml:"sent"`
	Received  string `json:"received" yaml:"received"`
	OK        bool   `json:"ok" yaml:"ok"`
}

// VersionResult is the version subcommand output.
type VersionResult struct {
	RO       string `json:"ro" yaml:"ro"`
	RW       string `json:"rw" yaml:"rw"`
	Image    string `json:"image" yaml:"image"`
	Protocol uint32 `json:"protocol" yaml:"protocol"`
}

// CommandResult is the raw command output.
type CommandResult struct {
	Command  string `json:"command" yaml:"command"`
	Version  uint8  `json:"version" yaml:"version"`
	Length   int    `json:"length" yaml:"length"`
	Response string `json:"response" yaml:"response"`
}

func (a *app) helloCmd() *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "hello",
		Short: "Check that the EC answers host commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := strconv.ParseUint(value, 0, 32)
			if err != nil {
				return fmt.Errorf("invalid --value %q: %w", value, err)
			}

			return a.withEC(cmd, func(ctx context.Context, ec *crosec.EC) (any, error) {
				out, err := ec.Hello(ctx, uint32(in))
				if err != nil {
					return nil, fmt.Errorf("hello: %w", err)
				}
				res := HelloResult{
					Transport: ec.Name(),
					Sent:      fmt.Sprintf("0x%08X", in),
					Received:  fmt.Sprintf("0x%08X", out),
					OK:        out == uint32(in)+protocol.HelloMagic,
				}
				if !res.OK {
					return res, fmt.Errorf("hello: expected 0x%08X, got 0x%08X", uint32(in)+protocol.HelloMagic, out)
				}
				return res, nil
			})
		},
	}
	cmd.Flags().StringVar(&value, "value", "0xA0B0C0D0", "value to send")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the EC firmware versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEC(cmd, func(ctx context.Context, ec *crosec.EC) (any, error) {
				info, err := ec.GetVersion(ctx)
				if err != nil {
					return nil, fmt.Errorf("get version: %w", err)
				}
				proto, err := ec.ProtoVersion(ctx)
				if err != nil {
					return nil, fmt.Errorf("proto version: %w", err)
				}
				return VersionResult{
					RO:       info.RO,
					RW:       info.RW,
					Image:    info.CurrentImage.String(),
					Protocol: proto,
				}, nil
			})
		},
	}
}

func (a *app) commandCmd() *cobra.Command {
	var (
		version uint8
		inSize  int
	)

	cmd := &cobra.Command{
		Use:   "command <code> [payload-hex]",
		Short: "Send a raw host command",
		Example: `  ectool command 0x0001 2a000000 --insize 4
  ectool command 0x0002 --insize 100`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := strconv.ParseUint(args[0], 0, 16)
			if err != nil {
				return fmt.Errorf("invalid command code %q: %w", args[0], err)
			}

			var payload []byte
			if len(args) == 2 {
				payload, err = parseHex(args[1])
				if err != nil {
					return err
				}
			}

			return a.withEC(cmd, func(ctx context.Context, ec *crosec.EC) (any, error) {
				resp, err := ec.Command(ctx, version, uint16(code), payload, inSize)
				if err != nil {
					return nil, err
				}
				return CommandResult{
					Command:  fmt.Sprintf("0x%04X", code),
					Version:  version,
					Length:   len(resp),
					Response: hex.EncodeToString(resp),
				}, nil
			})
		},
	}
	cmd.Flags().Uint8Var(&version, "cmd-version", 0, "command version")
	cmd.Flags().IntVar(&inSize, "insize", 0, "expected response size in bytes")
	return cmd
}

// parseHex accepts "2a000000", "2a 00 00 00" and "0x2a000000".
func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return b, nil
}
