package launchpad

import (
	"context"
	"fmt"

	"github.com/roach88/sparkpad/internal/model"
)

// RefreshWorkflow re-derives downstream states after a change to one
// firework and persists the result atomically. One level of propagation
// per invocation:
//
//   - changed node COMPLETED: each child becomes READY iff all of its
//     parents are COMPLETED, otherwise it stays WAITING.
//   - changed node FIZZLED or DEFUSED: every descendant still on the
//     run path (WAITING, READY, RESERVED) becomes DEFUSED. Terminal
//     nodes and operator-pinned PAUSED nodes are left alone.
//
// Returns the ids whose state actually changed; re-running with no
// upstream change returns an empty set and leaves the persisted
// payload untouched. The caller drives further levels (see
// refreshToFixedPoint).
func (lp *LaunchPad) RefreshWorkflow(ctx context.Context, fwID int64) ([]int64, error) {
	wf, members, err := lp.GetWorkflowByFirework(ctx, fwID, 0)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	byID := make(map[int64]*model.Firework, len(members))
	states := make(map[int64]model.State, len(members))
	for _, fw := range members {
		byID[fw.ID] = fw
		states[fw.ID] = fw.State
	}

	origin, ok := byID[fwID]
	if !ok {
		return nil, fmt.Errorf("refresh: firework %d not a member of workflow %d", fwID, wf.ID)
	}

	var changed []*model.Firework
	now := lp.now()
	mark := func(fw *model.Firework, next model.State) {
		fw.State = next
		fw.UpdatedOn = now
		states[fw.ID] = next
		changed = append(changed, fw)
	}

	switch origin.State {
	case model.StateCompleted:
		for _, childID := range wf.ChildrenOf(fwID) {
			child := byID[childID]
			if child.State != model.StateWaiting {
				continue
			}
			if readiness(wf, childID, states) == model.StateReady {
				mark(child, model.StateReady)
			}
		}

	case model.StateFizzled, model.StateDefused:
		for _, descID := range wf.Descendants(fwID) {
			desc := byID[descID]
			switch desc.State {
			case model.StateWaiting, model.StateReady, model.StateReserved:
				mark(desc, model.StateDefused)
			}
		}
	}

	// Rewrite the cached summary from authoritative states even when
	// nothing propagated - the origin itself may have changed.
	summaryStale := false
	for id, state := range states {
		if wf.FWStates[id] != state {
			wf.FWStates[id] = state
			summaryStale = true
		}
	}
	if len(changed) == 0 && !summaryStale {
		// Already at a fixed point; leave the persisted payload alone.
		return []int64{}, nil
	}
	wf.UpdatedOn = now

	if err := lp.store.ApplyRefresh(ctx, wf, changed); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	ids := make([]int64, len(changed))
	for i, fw := range changed {
		ids[i] = fw.ID
	}
	return ids, nil
}

// refreshToFixedPoint re-invokes RefreshWorkflow breadth-first over
// every firework that changed until no further state changes occur.
// Convergence is bounded by graph depth: the adjacency is acyclic, so
// each node changes state at most once per completion wave.
func (lp *LaunchPad) refreshToFixedPoint(ctx context.Context, fwID int64) error {
	queue := []int64{fwID}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		changed, err := lp.RefreshWorkflow(ctx, next)
		if err != nil {
			return err
		}
		queue = append(queue, changed...)
	}
	return nil
}
