package cli

import (
	"github.com/spf13/cobra"

	"github.com/moffa90/go-crosec/transport"
)

// DetectResult is one probed transport.
type DetectResult struct {
	Transport string `json:"transport" yaml:"transport"`
	Status    string `json:"status" yaml:"status"`
	Selected  bool   `json:"selected" yaml:"selected"`
}

func (a *app) detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Probe every transport on this platform",
		Long: `Probe the transports in the order auto-detection would use them and
report what each one found. The first one reporting "found" is the one
ectool selects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				results  []DetectResult
				selected bool
			)
			for _, t := range a.deps.Candidates(a.transportOptions()...) {
				probe := t.Detect()
				r := DetectResult{Transport: t.Name(), Status: probe.String()}
				if probe == transport.Found && !selected {
					r.Selected = true
					selected = true
				}
				results = append(results, r)
			}
			a.print(cmd.OutOrStdout(), results)
			return nil
		},
	}
}
