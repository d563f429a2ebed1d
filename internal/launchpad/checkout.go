package launchpad

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/sparkpad/internal/model"
	"github.com/roach88/sparkpad/internal/store"
)

// Selector picks the next firework to run from the READY candidates.
// Candidates arrive fully hydrated, ascending by id, never empty.
type Selector interface {
	Select(candidates []*model.Firework) *model.Firework
}

// LowestIDSelector picks the lowest id - insertion order. The default.
type LowestIDSelector struct{}

// Select returns the first candidate (candidates are ascending by id).
func (LowestIDSelector) Select(candidates []*model.Firework) *model.Firework {
	return candidates[0]
}

// PrioritySelector picks the highest integer "_priority" spec value,
// breaking ties by lowest id. Fireworks without the key default to 0.
// The store itself never interprets the key.
type PrioritySelector struct{}

// Select returns the highest-priority candidate.
func (PrioritySelector) Select(candidates []*model.Firework) *model.Firework {
	best := candidates[0]
	bestPriority, _ := best.Spec.GetInt("_priority")
	for _, fw := range candidates[1:] {
		priority, _ := fw.Spec.GetInt("_priority")
		if priority > bestPriority {
			best = fw
			bestPriority = priority
		}
	}
	return best
}

// Checkout atomically claims a runnable firework for the worker and
// records a new launch.
//
// With fwID > 0 exactly that firework is targeted; it must be READY or
// the call fails with InvalidTransitionError. With fwID == 0 the
// selector picks among all READY fireworks; (nil, nil, nil) means no
// runnable firework exists - a legitimate nothing-to-do signal, not an
// error.
//
// When a claim races another worker and loses, selection retries
// against the remaining candidates rather than claiming a stale
// firework.
//
// launchDir is the handle where execution artifacts live; empty means
// generate one from the launch token.
func (lp *LaunchPad) Checkout(ctx context.Context, worker Worker, launchDir string, fwID int64) (*model.Firework, *model.Launch, error) {
	if fwID > 0 {
		fw, err := lp.store.GetFirework(ctx, fwID)
		if err != nil {
			return nil, nil, err
		}
		if fw.State != model.StateReady {
			return nil, nil, &InvalidTransitionError{FireworkID: fwID, From: fw.State, To: model.StateRunning}
		}
		launch, err := lp.claim(ctx, fw, worker, launchDir)
		if err != nil {
			if errors.Is(err, store.ErrClaimLost) {
				current, getErr := lp.store.GetFirework(ctx, fwID)
				if getErr != nil {
					return nil, nil, getErr
				}
				return nil, nil, &InvalidTransitionError{FireworkID: fwID, From: current.State, To: model.StateRunning}
			}
			return nil, nil, err
		}
		return fw, launch, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("checkout: %w", err)
		}

		ids, err := lp.store.FireworkIDsByState(ctx, model.StateReady)
		if err != nil {
			return nil, nil, err
		}
		if len(ids) == 0 {
			return nil, nil, nil
		}

		candidates, err := lp.store.GetFireworks(ctx, ids)
		if err != nil {
			// A candidate completed by another worker between the two
			// reads simply prompts reselection.
			if store.IsNotFound(err) {
				continue
			}
			return nil, nil, err
		}

		fw := lp.selector.Select(candidates)
		launch, err := lp.claim(ctx, fw, worker, launchDir)
		if err != nil {
			if errors.Is(err, store.ErrClaimLost) {
				continue
			}
			return nil, nil, err
		}
		return fw, launch, nil
	}
}

// claim performs the READY → RUNNING transition plus launch creation as
// one store transaction, then refreshes the workflow's cached summary.
// The refresh changes no downstream readiness - the firework is not yet
// COMPLETED - it only keeps fw_states consistent.
func (lp *LaunchPad) claim(ctx context.Context, fw *model.Firework, worker Worker, launchDir string) (*model.Launch, error) {
	launchID, err := lp.store.NextID(ctx, store.CounterLaunch, 1)
	if err != nil {
		return nil, err
	}

	if launchDir == "" {
		launchDir = "launch-" + lp.tokens.Generate()
	}

	now := lp.now()
	launch := &model.Launch{
		ID:        launchID,
		FWID:      fw.ID,
		State:     model.StateRunning,
		Worker:    worker.Name,
		Host:      worker.Host,
		LaunchDir: launchDir,
		CreatedOn: now,
		LastPing:  now,
	}

	fw.State = model.StateRunning
	fw.LaunchIDs = append(fw.LaunchIDs, launchID)
	fw.UpdatedOn = now

	if err := lp.store.ClaimFirework(ctx, fw, model.StateReady, launch); err != nil {
		// Roll back the in-memory mutation before reselection
		fw.State = model.StateReady
		fw.LaunchIDs = fw.LaunchIDs[:len(fw.LaunchIDs)-1]
		return nil, err
	}

	if err := lp.refreshToFixedPoint(ctx, fw.ID); err != nil {
		return nil, err
	}
	return launch, nil
}
