package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewWorkflowCommand creates the wf command group: lifecycle operations
// applied to every member of a workflow.
func NewWorkflowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wf",
		Short: "Lifecycle operations on a whole workflow",
	}

	cmd.AddCommand(workflowOpCommand(rootOpts, "defuse", "Defuse every non-terminal member",
		func(ctx context.Context, p workflowHandle, id int64) error { return p.DefuseWorkflow(ctx, id) }))
	cmd.AddCommand(workflowOpCommand(rootOpts, "reignite", "Put defused members back on the run path",
		func(ctx context.Context, p workflowHandle, id int64) error { return p.ReigniteWorkflow(ctx, id) }))
	cmd.AddCommand(workflowOpCommand(rootOpts, "pause", "Pause every waiting or ready member",
		func(ctx context.Context, p workflowHandle, id int64) error { return p.PauseWorkflow(ctx, id) }))
	cmd.AddCommand(workflowOpCommand(rootOpts, "archive", "Archive every member",
		func(ctx context.Context, p workflowHandle, id int64) error { return p.ArchiveWorkflow(ctx, id) }))

	return cmd
}

// workflowHandle is the subset of launchpad operations the wf
// subcommands dispatch to.
type workflowHandle interface {
	DefuseWorkflow(ctx context.Context, wfID int64) error
	ReigniteWorkflow(ctx context.Context, wfID int64) error
	PauseWorkflow(ctx context.Context, wfID int64) error
	ArchiveWorkflow(ctx context.Context, wfID int64) error
}

func workflowOpCommand(rootOpts *RootOptions, name, short string, op func(context.Context, workflowHandle, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:           name + " <wf-id>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "workflow")
			if err != nil {
				return err
			}

			st, pad, err := openPad(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := op(cmd.Context(), pad, id); err != nil {
				return WrapExitError(ExitFailure, "failed to "+name+" workflow", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workflow %d: %s ok\n", id, name)
			return nil
		},
	}
}
