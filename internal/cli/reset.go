package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe the database and reseed the id counters",
		Long: `Delete every workflow, firework and launch and reseed the id
counters to 1. Destructive; requires --force.

Example:
  sparkpad reset --db ./pad.db --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return NewExitError(ExitCommandError, "refusing to reset without --force")
			}

			st, pad, err := openPad(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := pad.Reset(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "reset failed", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database reset.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "confirm the wipe")
	return cmd
}
