package launchpad

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/sparkpad/internal/model"
	"github.com/roach88/sparkpad/internal/spec"
)

// CompleteLaunch records the outcome of a run: the launch's terminal
// state, the action's spec mutations, any detour fireworks, and the
// downstream state propagation.
//
// finalState must be COMPLETED or FIZZLED. The action may be nil, which
// means no spec mutation and no detours. Order of effects:
//
//  1. the firework and launch move to finalState in one transaction,
//     with UpdateSpec/PushSpec applied to the firework and StoredData
//     kept under "_stored_data";
//  2. detours are inserted under the owning workflow through the normal
//     insertion path;
//  3. UpdateSpec/PushSpec are applied to every direct child, detour
//     children included;
//  4. downstream states are refreshed to a fixed point, honoring
//     DefuseWorkflow.
//
// A firework whose state already moved past RUNNING (for example a lost
// run reclaimed in the meantime) fails with InvalidTransitionError.
func (lp *LaunchPad) CompleteLaunch(ctx context.Context, launchID int64, action *model.Action, finalState model.State) error {
	if finalState != model.StateCompleted && finalState != model.StateFizzled {
		return fmt.Errorf("complete launch %d: final state must be COMPLETED or FIZZLED, got %s", launchID, finalState)
	}

	launch, err := lp.store.GetLaunch(ctx, launchID)
	if err != nil {
		return fmt.Errorf("complete launch: %w", err)
	}
	fw, err := lp.store.GetFirework(ctx, launch.FWID)
	if err != nil {
		return fmt.Errorf("complete launch: %w", err)
	}
	if !model.CanTransition(fw.State, finalState) {
		return &InvalidTransitionError{FireworkID: fw.ID, From: fw.State, To: finalState}
	}

	now := lp.now()
	if action != nil {
		applySpecMutations(fw, action, now)
		if len(action.StoredData) > 0 {
			fw.Spec["_stored_data"] = action.StoredData.Clone()
		}
	}
	fw.State = finalState
	fw.UpdatedOn = now

	launch.State = finalState
	launch.LastPing = now

	if err := lp.store.FinishLaunch(ctx, fw, launch); err != nil {
		return fmt.Errorf("complete launch: %w", err)
	}

	wfID, err := lp.store.WorkflowIDByFirework(ctx, fw.ID)
	if err != nil {
		return fmt.Errorf("complete launch: %w", err)
	}

	if action != nil && len(action.Detours) > 0 {
		links := action.DetourLinks
		if links == nil {
			links = map[int64][]int64{}
		}
		// A detour with no explicit parent hangs off the completed
		// firework.
		linked := make(map[int64]bool)
		for _, children := range links {
			for _, c := range children {
				linked[c] = true
			}
		}
		for _, d := range action.Detours {
			if !linked[d.ID] {
				links[fw.ID] = append(links[fw.ID], d.ID)
			}
		}
		if _, err := lp.AppendWorkflow(ctx, wfID, action.Detours, links); err != nil {
			return fmt.Errorf("complete launch: %w", err)
		}
	}

	if action != nil && (len(action.UpdateSpec) > 0 || len(action.PushSpec) > 0) {
		if err := lp.mutateChildren(ctx, wfID, fw.ID, action, now); err != nil {
			return fmt.Errorf("complete launch: %w", err)
		}
	}

	if action != nil && action.DefuseWorkflow {
		if err := lp.DefuseWorkflow(ctx, wfID); err != nil {
			return fmt.Errorf("complete launch: %w", err)
		}
		return nil
	}

	if err := lp.refreshToFixedPoint(ctx, fw.ID); err != nil {
		return fmt.Errorf("complete launch: %w", err)
	}
	return nil
}

// mutateChildren applies the action's spec mutations to every direct
// child of origin, detours included.
func (lp *LaunchPad) mutateChildren(ctx context.Context, wfID, origin int64, action *model.Action, now time.Time) error {
	wf, members, err := lp.GetWorkflowByFirework(ctx, 0, wfID)
	if err != nil {
		return err
	}
	byID := make(map[int64]*model.Firework, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	for _, childID := range wf.ChildrenOf(origin) {
		child := byID[childID]
		applySpecMutations(child, action, now)
		if err := lp.store.PutFirework(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// applySpecMutations merges UpdateSpec and appends PushSpec entries
// into the firework's spec. Push targets that are not lists are
// replaced with a fresh single-element list.
func applySpecMutations(fw *model.Firework, action *model.Action, now time.Time) {
	if fw.Spec == nil {
		fw.Spec = spec.Dict{}
	}
	if len(action.UpdateSpec) > 0 {
		fw.Spec.Merge(action.UpdateSpec.Clone())
	}
	for _, key := range action.PushSpec.SortedKeys() {
		if err := fw.Spec.Push(key, action.PushSpec[key]); err != nil {
			fw.Spec[key] = spec.List{action.PushSpec[key]}
		}
	}
	fw.UpdatedOn = now
}
