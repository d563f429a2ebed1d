package launchpad

import (
	"context"
	"fmt"

	"github.com/roach88/sparkpad/internal/model"
)

// PauseFirework pins a firework so the scheduler skips it. Only
// WAITING or READY fireworks can be paused; a paused firework is left
// alone by refresh propagation until resumed.
func (lp *LaunchPad) PauseFirework(ctx context.Context, fwID int64) error {
	return lp.transitionFirework(ctx, fwID, model.StatePaused, "pause firework")
}

// ResumeFirework lifts a pause, re-deriving WAITING or READY from the
// firework's parents.
func (lp *LaunchPad) ResumeFirework(ctx context.Context, fwID int64) error {
	wf, members, err := lp.GetWorkflowByFirework(ctx, fwID, 0)
	if err != nil {
		return fmt.Errorf("resume firework: %w", err)
	}
	fw, states := pick(members, fwID)
	if fw == nil {
		return fmt.Errorf("resume firework: firework %d not a member of workflow %d", fwID, wf.ID)
	}
	if fw.State != model.StatePaused {
		return &InvalidTransitionError{FireworkID: fwID, From: fw.State, To: model.StateWaiting}
	}

	next := readiness(wf, fwID, states)
	fw.State = next
	fw.UpdatedOn = lp.now()
	if err := lp.store.PutFirework(ctx, fw); err != nil {
		return fmt.Errorf("resume firework: %w", err)
	}
	return lp.refreshToFixedPoint(ctx, fwID)
}

// DefuseFirework cancels a firework and everything downstream of it.
// The firework itself and every descendant still on the run path
// become DEFUSED; terminal and paused nodes are untouched. Safe to
// call on WAITING, READY, RESERVED or RUNNING fireworks.
func (lp *LaunchPad) DefuseFirework(ctx context.Context, fwID int64) error {
	fw, err := lp.store.GetFirework(ctx, fwID)
	if err != nil {
		return fmt.Errorf("defuse firework: %w", err)
	}
	if !model.CanTransition(fw.State, model.StateDefused) {
		return &InvalidTransitionError{FireworkID: fwID, From: fw.State, To: model.StateDefused}
	}

	fw.State = model.StateDefused
	fw.UpdatedOn = lp.now()
	if err := lp.store.PutFirework(ctx, fw); err != nil {
		return fmt.Errorf("defuse firework: %w", err)
	}
	// Refresh handles the descendant sweep: a DEFUSED origin defuses
	// everything downstream still on the run path.
	return lp.refreshToFixedPoint(ctx, fwID)
}

// ReigniteFirework reverses a defusal, re-deriving the firework's
// waiting/ready state from its parents. Descendants stay DEFUSED until
// reignited themselves.
func (lp *LaunchPad) ReigniteFirework(ctx context.Context, fwID int64) error {
	wf, members, err := lp.GetWorkflowByFirework(ctx, fwID, 0)
	if err != nil {
		return fmt.Errorf("reignite firework: %w", err)
	}
	fw, states := pick(members, fwID)
	if fw == nil {
		return fmt.Errorf("reignite firework: firework %d not a member of workflow %d", fwID, wf.ID)
	}
	if fw.State != model.StateDefused {
		return &InvalidTransitionError{FireworkID: fwID, From: fw.State, To: model.StateWaiting}
	}

	fw.State = readiness(wf, fwID, states)
	fw.UpdatedOn = lp.now()
	if err := lp.store.PutFirework(ctx, fw); err != nil {
		return fmt.Errorf("reignite firework: %w", err)
	}
	return lp.refreshToFixedPoint(ctx, fwID)
}

// RerunFirework puts a terminal firework back on the run path. The
// firework returns to READY when its parents allow, WAITING otherwise,
// and every descendant that had advanced past WAITING returns to
// WAITING so the wave replays in order. Launch history is preserved.
func (lp *LaunchPad) RerunFirework(ctx context.Context, fwID int64) error {
	wf, members, err := lp.GetWorkflowByFirework(ctx, fwID, 0)
	if err != nil {
		return fmt.Errorf("rerun firework: %w", err)
	}
	fw, states := pick(members, fwID)
	if fw == nil {
		return fmt.Errorf("rerun firework: firework %d not a member of workflow %d", fwID, wf.ID)
	}
	if !fw.State.IsTerminal() && fw.State != model.StateDefused {
		return &InvalidTransitionError{FireworkID: fwID, From: fw.State, To: model.StateReady}
	}

	byID := make(map[int64]*model.Firework, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	now := lp.now()
	fw.State = model.StateWaiting
	states[fwID] = model.StateWaiting
	fw.State = readiness(wf, fwID, states)
	states[fwID] = fw.State
	fw.UpdatedOn = now
	changed := []*model.Firework{fw}

	for _, descID := range wf.Descendants(fwID) {
		desc := byID[descID]
		if desc.State == model.StateWaiting || desc.State == model.StatePaused || desc.State == model.StateArchived {
			continue
		}
		desc.State = model.StateWaiting
		desc.UpdatedOn = now
		states[descID] = model.StateWaiting
		changed = append(changed, desc)
	}

	for id, state := range states {
		wf.FWStates[id] = state
	}
	wf.UpdatedOn = now

	if err := lp.store.ApplyRefresh(ctx, wf, changed); err != nil {
		return fmt.Errorf("rerun firework: %w", err)
	}
	return nil
}

// DefuseWorkflow marks every non-terminal member of the workflow
// DEFUSED in one persisted sweep.
func (lp *LaunchPad) DefuseWorkflow(ctx context.Context, wfID int64) error {
	return lp.sweepWorkflow(ctx, wfID, "defuse workflow", func(s model.State) (model.State, bool) {
		switch s {
		case model.StateWaiting, model.StateReady, model.StateReserved, model.StateRunning, model.StatePaused:
			return model.StateDefused, true
		}
		return s, false
	})
}

// PauseWorkflow pins every WAITING or READY member of the workflow.
// Running members keep running; their completions still propagate but
// hit the paused wall.
func (lp *LaunchPad) PauseWorkflow(ctx context.Context, wfID int64) error {
	return lp.sweepWorkflow(ctx, wfID, "pause workflow", func(s model.State) (model.State, bool) {
		switch s {
		case model.StateWaiting, model.StateReady:
			return model.StatePaused, true
		}
		return s, false
	})
}

// ArchiveWorkflow retires the whole workflow. Every member becomes
// ARCHIVED regardless of current state; archived fireworks accept no
// further transitions.
func (lp *LaunchPad) ArchiveWorkflow(ctx context.Context, wfID int64) error {
	return lp.sweepWorkflow(ctx, wfID, "archive workflow", func(s model.State) (model.State, bool) {
		if s == model.StateArchived {
			return s, false
		}
		return model.StateArchived, true
	})
}

// ReigniteWorkflow reverses a workflow-level defusal: every DEFUSED
// member is put back on the run path with waiting/ready re-derived
// from the surviving states.
func (lp *LaunchPad) ReigniteWorkflow(ctx context.Context, wfID int64) error {
	wf, members, err := lp.GetWorkflowByFirework(ctx, 0, wfID)
	if err != nil {
		return fmt.Errorf("reignite workflow: %w", err)
	}

	states := make(map[int64]model.State, len(members))
	for _, m := range members {
		states[m.ID] = m.State
	}
	// Reset the defused set to WAITING first, then derive readiness
	// against the post-reset picture so siblings see each other reset.
	var targets []*model.Firework
	for _, m := range members {
		if m.State == model.StateDefused {
			states[m.ID] = model.StateWaiting
			targets = append(targets, m)
		}
	}

	now := lp.now()
	for _, fw := range targets {
		fw.State = readiness(wf, fw.ID, states)
		fw.UpdatedOn = now
		states[fw.ID] = fw.State
	}
	for id, state := range states {
		wf.FWStates[id] = state
	}
	wf.UpdatedOn = now

	if err := lp.store.ApplyRefresh(ctx, wf, targets); err != nil {
		return fmt.Errorf("reignite workflow: %w", err)
	}
	return nil
}

// sweepWorkflow applies a state rewrite to every member and persists
// workflow plus changed fireworks atomically.
func (lp *LaunchPad) sweepWorkflow(ctx context.Context, wfID int64, op string, rewrite func(model.State) (model.State, bool)) error {
	wf, members, err := lp.GetWorkflowByFirework(ctx, 0, wfID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := lp.now()
	var changed []*model.Firework
	for _, fw := range members {
		next, ok := rewrite(fw.State)
		if !ok {
			continue
		}
		fw.State = next
		fw.UpdatedOn = now
		changed = append(changed, fw)
	}
	for _, fw := range members {
		wf.FWStates[fw.ID] = fw.State
	}
	wf.UpdatedOn = now

	if err := lp.store.ApplyRefresh(ctx, wf, changed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// transitionFirework applies a single checked state change and
// persists it.
func (lp *LaunchPad) transitionFirework(ctx context.Context, fwID int64, to model.State, op string) error {
	fw, err := lp.store.GetFirework(ctx, fwID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !model.CanTransition(fw.State, to) {
		return &InvalidTransitionError{FireworkID: fwID, From: fw.State, To: to}
	}
	fw.State = to
	fw.UpdatedOn = lp.now()
	if err := lp.store.PutFirework(ctx, fw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return lp.refreshToFixedPoint(ctx, fwID)
}

// pick finds one member and builds the id → state map in one pass.
func pick(members []*model.Firework, fwID int64) (*model.Firework, map[int64]model.State) {
	states := make(map[int64]model.State, len(members))
	var found *model.Firework
	for _, m := range members {
		states[m.ID] = m.State
		if m.ID == fwID {
			found = m
		}
	}
	return found, states
}
