// Package cli implements the ectool command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-crosec/config"
	"github.com/moffa90/go-crosec/crosec"
	"github.com/moffa90/go-crosec/internal/output"
	"github.com/moffa90/go-crosec/logging"
	"github.com/moffa90/go-crosec/transport"
)

// Deps are the hooks used to reach the EC. Zero fields use the real
// hardware.
type Deps struct {
	Open       func(kind crosec.DeviceType, opts ...transport.Option) (*crosec.EC, error)
	Candidates func(opts ...transport.Option) []transport.Transport
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	deps Deps

	cfgFile      string
	device       string
	address      string
	outputFormat string
	logLevel     string

	cfg       *config.Config
	log       *logging.Adapter
	formatter output.Formatter
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	if deps.Open == nil {
		deps.Open = crosec.Open
	}
	if deps.Candidates == nil {
		deps.Candidates = crosec.Candidates
	}
	a := &app{deps: deps}

	root := &cobra.Command{
		Use:   "ectool",
		Short: "Talk to a ChromeOS embedded controller",
		Long: `ectool sends host commands to a ChromeOS EC and reads its memory map.
It uses the cros_ec kernel driver when present, the vendor drivers on
Windows, and falls back to raw LPC port I/O.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	flags.StringVarP(&a.device, "device", "d", "", "transport: auto, cros_ec, windows, pawnio, lpc")
	flags.StringVar(&a.address, "address", "", "LPC memory map base, e.g. 0xE00")
	flags.StringVarP(&a.outputFormat, "output", "o", "table", "output format: table, json, yaml")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.detectCmd(),
		a.helloCmd(),
		a.versionCmd(),
		a.memmapCmd(),
		a.commandCmd(),
		a.sensorsCmd(),
	)
	return root
}

// Execute runs ectool against the real hardware.
func Execute() {
	if err := NewRootCmd(Deps{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, transport.ErrPermissionDenied) {
			fmt.Fprintln(os.Stderr, "The EC was found but could not be opened; try again as root.")
		}
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if a.device != "" {
		cfg.Device = a.device
	}
	if a.address != "" {
		addr, err := strconv.ParseUint(a.address, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid --address %q: %w", a.address, err)
		}
		cfg.Address = uint16(addr)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	l, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = logging.NewAdapter(l).WithField("device", cfg.Device)

	a.formatter, err = output.NewFormatter(a.outputFormat)
	return err
}

func (a *app) transportOptions() []transport.Option {
	return a.cfg.TransportOptions(a.log)
}

// withEC opens the EC, runs fn and closes it again.
func (a *app) withEC(cmd *cobra.Command, fn func(ctx context.Context, ec *crosec.EC) (any, error)) error {
	ec, err := a.deps.Open(a.cfg.DeviceType(), a.transportOptions()...)
	if err != nil {
		return err
	}
	defer func() {
		if err := ec.Close(); err != nil {
			a.log.Error("close EC", "error", err)
		}
	}()

	a.log.Debug("using transport", "transport", ec.Name())

	result, err := fn(cmd.Context(), ec)
	if err != nil {
		return err
	}
	a.print(cmd.OutOrStdout(), result)
	return nil
}

func (a *app) print(w io.Writer, result any) {
	fmt.Fprint(w, a.formatter.Format(result))
}
