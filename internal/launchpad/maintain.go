package launchpad

import (
	"context"
	"fmt"

	"github.com/roach88/sparkpad/internal/model"
)

// PingLaunch records a heartbeat for a running launch. Pinging a
// launch that already reached a terminal state is an error; the worker
// should stop.
func (lp *LaunchPad) PingLaunch(ctx context.Context, launchID int64) error {
	launch, err := lp.store.GetLaunch(ctx, launchID)
	if err != nil {
		return fmt.Errorf("ping launch: %w", err)
	}
	if launch.State != model.StateRunning {
		return fmt.Errorf("ping launch %d: launch is %s, not RUNNING", launchID, launch.State)
	}
	launch.LastPing = lp.now()
	if err := lp.store.PutLaunch(ctx, launch); err != nil {
		return fmt.Errorf("ping launch: %w", err)
	}
	return nil
}

// DetectLostRuns reclaims fireworks whose worker stopped heartbeating.
//
// A running launch whose last ping is older than the lost-run threshold
// is marked FIZZLED and its firework, if still RUNNING, goes back to
// READY for another worker to claim. Returns the ids of reclaimed
// fireworks.
//
// Each reclaim is a single guarded transaction: a slow worker that
// completes its launch between the scan and the reclaim keeps its
// terminal record, and the firework is left alone.
func (lp *LaunchPad) DetectLostRuns(ctx context.Context) ([]int64, error) {
	launches, err := lp.store.RunningLaunches(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect lost runs: %w", err)
	}

	now := lp.now()
	cutoff := now.Add(-lp.lostRunThreshold)

	reclaimed := []int64{}
	for _, launch := range launches {
		if !launch.LastPing.Before(cutoff) {
			continue
		}

		fw, err := lp.store.GetFirework(ctx, launch.FWID)
		if err != nil {
			return reclaimed, fmt.Errorf("detect lost runs: %w", err)
		}

		launch.State = model.StateFizzled
		launch.LastPing = now
		fw.State = model.StateReady
		fw.UpdatedOn = now

		fizzled, released, err := lp.store.ReclaimLaunch(ctx, launch, fw)
		if err != nil {
			return reclaimed, fmt.Errorf("detect lost runs: %w", err)
		}
		if !fizzled || !released {
			continue
		}

		if err := lp.refreshToFixedPoint(ctx, fw.ID); err != nil {
			return reclaimed, fmt.Errorf("detect lost runs: %w", err)
		}
		reclaimed = append(reclaimed, fw.ID)
	}
	return reclaimed, nil
}
