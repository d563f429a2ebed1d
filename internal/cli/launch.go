package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sparkpad/internal/launchpad"
	"github.com/roach88/sparkpad/internal/rocket"
	"github.com/roach88/sparkpad/internal/task"
)

// LaunchOptions holds flags for the launch command.
type LaunchOptions struct {
	*RootOptions
	Worker    string
	FWID      int64
	LaunchDir string
	Drain     bool
}

// NewLaunchCommand creates the launch command.
func NewLaunchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LaunchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Check out and run fireworks",
		Long: `Check out a READY firework, run its task sequence, and record the
outcome. With --drain, keep launching until nothing is runnable.

Example:
  sparkpad launch --db ./pad.db --worker alice
  sparkpad launch --db ./pad.db --fw 7
  sparkpad launch --db ./pad.db --drain`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Worker, "worker", defaultWorkerName(), "worker name recorded on launches")
	cmd.Flags().Int64Var(&opts.FWID, "fw", 0, "target a specific firework id (default: selector picks)")
	cmd.Flags().StringVar(&opts.LaunchDir, "launch-dir", "", "launch directory handle (default: generated)")
	cmd.Flags().BoolVar(&opts.Drain, "drain", false, "keep launching until no firework is runnable")

	return cmd
}

func runLaunch(opts *LaunchOptions, cmd *cobra.Command) error {
	st, pad, err := openPad(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	host, _ := os.Hostname()
	worker := launchpad.Worker{Name: opts.Worker, Host: host}
	rkt := rocket.New(pad, task.NewRegistry(), worker)

	launched := 0
	for {
		launch, err := rkt.Launch(cmd.Context(), opts.LaunchDir, opts.FWID)
		if errors.Is(err, rocket.ErrNoReadyFirework) {
			if launched == 0 {
				return NewExitError(ExitFailure, "no runnable firework")
			}
			break
		}
		if err != nil {
			return WrapExitError(ExitFailure, "launch failed", err)
		}

		launched++
		slog.Info("launch finished",
			"launch_id", launch.ID, "fw_id", launch.FWID, "state", launch.State)
		fmt.Fprintf(cmd.OutOrStdout(), "Launch %d: firework %d %s\n",
			launch.ID, launch.FWID, launch.State)

		if !opts.Drain {
			break
		}
		// A targeted firework runs once even when draining.
		if opts.FWID != 0 {
			break
		}
	}
	return nil
}

func defaultWorkerName() string {
	if w := os.Getenv("SPARKPAD_WORKER"); w != "" {
		return w
	}
	return "worker"
}
