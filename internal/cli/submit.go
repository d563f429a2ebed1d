package cli

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"
)

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <workflow.yaml>",
		Short: "Insert a workflow from a YAML definition",
		Long: `Insert a workflow and its fireworks from a YAML definition file.

The definition names fireworks with local negative ids and links them
by those ids; the allocator assigns the real ids at insertion. Root
fireworks start READY, everything else WAITING.

Example:
  sparkpad submit --db ./pad.db ./workflow.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSubmit(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	wf, fws, err := LoadWorkflowFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load workflow definition", err)
	}
	slog.Debug("workflow loaded", "path", path, "fireworks", len(fws))

	st, pad, err := openPad(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	oldNew, err := pad.AddWorkflow(cmd.Context(), wf, fws)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to insert workflow", err)
	}
	slog.Info("workflow inserted", "wf_id", wf.ID, "fireworks", len(fws))

	if opts.Format == "json" {
		ids := make(map[string]int64, len(oldNew))
		for old, assigned := range oldNew {
			ids[fmt.Sprintf("%d", old)] = assigned
		}
		return formatter.Success(map[string]any{
			"workflow_id": wf.ID,
			"firework_ids": ids,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Workflow %d inserted (%d fireworks)\n", wf.ID, len(fws))
	olds := make([]int64, 0, len(oldNew))
	for old := range oldNew {
		olds = append(olds, old)
	}
	sort.Slice(olds, func(i, j int) bool { return olds[i] < olds[j] })
	for _, old := range olds {
		fmt.Fprintf(cmd.OutOrStdout(), "  %d -> %d\n", old, oldNew[old])
	}
	return nil
}
