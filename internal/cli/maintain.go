package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/sparkpad/internal/launchpad"
)

// MaintainOptions holds flags for the maintain command.
type MaintainOptions struct {
	*RootOptions
	Threshold time.Duration
}

// NewMaintainCommand creates the maintain command.
func NewMaintainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MaintainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Reclaim fireworks whose worker stopped heartbeating",
		Long: `Scan running launches for stale heartbeats. A launch past the
threshold is marked FIZZLED and its firework goes back to READY.

Example:
  sparkpad maintain --db ./pad.db
  sparkpad maintain --db ./pad.db --threshold 30m`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaintain(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Threshold, "threshold", launchpad.DefaultLostRunThreshold,
		"how stale a heartbeat may be before the run is declared lost")

	return cmd
}

func runMaintain(opts *MaintainOptions, cmd *cobra.Command) error {
	st, pad, err := openPad(opts.RootOptions, launchpad.WithLostRunThreshold(opts.Threshold))
	if err != nil {
		return err
	}
	defer st.Close()

	reclaimed, err := pad.DetectLostRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "lost-run detection failed", err)
	}
	slog.Info("lost-run sweep finished", "reclaimed", len(reclaimed))

	if len(reclaimed) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No lost runs.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reclaimed %d firework(s): %v\n", len(reclaimed), reclaimed)
	return nil
}
