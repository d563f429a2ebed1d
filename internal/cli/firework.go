package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewFireworkCommand creates the fw command group: lifecycle operations
// on a single firework.
func NewFireworkCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fw",
		Short: "Lifecycle operations on a single firework",
	}

	cmd.AddCommand(fireworkOpCommand(rootOpts, "pause", "Pause a waiting or ready firework",
		func(ctx context.Context, p padHandle, id int64) error { return p.PauseFirework(ctx, id) }))
	cmd.AddCommand(fireworkOpCommand(rootOpts, "resume", "Resume a paused firework",
		func(ctx context.Context, p padHandle, id int64) error { return p.ResumeFirework(ctx, id) }))
	cmd.AddCommand(fireworkOpCommand(rootOpts, "defuse", "Defuse a firework and its descendants",
		func(ctx context.Context, p padHandle, id int64) error { return p.DefuseFirework(ctx, id) }))
	cmd.AddCommand(fireworkOpCommand(rootOpts, "reignite", "Reignite a defused firework",
		func(ctx context.Context, p padHandle, id int64) error { return p.ReigniteFirework(ctx, id) }))
	cmd.AddCommand(fireworkOpCommand(rootOpts, "rerun", "Return a finished firework to the run path",
		func(ctx context.Context, p padHandle, id int64) error { return p.RerunFirework(ctx, id) }))

	return cmd
}

// padHandle is the subset of launchpad operations the fw subcommands
// dispatch to.
type padHandle interface {
	PauseFirework(ctx context.Context, fwID int64) error
	ResumeFirework(ctx context.Context, fwID int64) error
	DefuseFirework(ctx context.Context, fwID int64) error
	ReigniteFirework(ctx context.Context, fwID int64) error
	RerunFirework(ctx context.Context, fwID int64) error
}

func fireworkOpCommand(rootOpts *RootOptions, name, short string, op func(context.Context, padHandle, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:           name + " <fw-id>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "firework")
			if err != nil {
				return err
			}

			st, pad, err := openPad(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := op(cmd.Context(), pad, id); err != nil {
				return WrapExitError(ExitFailure, "failed to "+name+" firework", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Firework %d: %s ok\n", id, name)
			return nil
		},
	}
}
