// Package rocket runs one firework at a time: checkout, execute the
// task sequence, report the outcome.
package rocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/sparkpad/internal/launchpad"
	"github.com/roach88/sparkpad/internal/model"
	"github.com/roach88/sparkpad/internal/spec"
	"github.com/roach88/sparkpad/internal/task"
)

// ErrNoReadyFirework signals a launch attempt with nothing runnable.
// Callers polling for work treat it as "try again later", not failure.
var ErrNoReadyFirework = errors.New("no ready firework")

// Rocket drives single launch cycles for one worker against a
// launchpad.
type Rocket struct {
	pad      *launchpad.LaunchPad
	registry *task.Registry
	worker   launchpad.Worker
}

// New creates a rocket. A nil registry gets the builtin dataflow
// registry.
func New(pad *launchpad.LaunchPad, registry *task.Registry, worker launchpad.Worker) *Rocket {
	if registry == nil {
		registry = task.NewRegistry()
	}
	return &Rocket{pad: pad, registry: registry, worker: worker}
}

// Launch checks out one firework, runs its tasks in order and reports
// the merged outcome. fwID > 0 targets that firework; 0 lets the
// launchpad's selector pick. Returns the completed launch.
//
// A task error fizzles the firework: the error text is kept in the
// launch's stored data under "_exception" and downstream nodes are
// defused by propagation. The rocket itself only errors when the store
// cannot be reached or nothing is runnable.
func (r *Rocket) Launch(ctx context.Context, launchDir string, fwID int64) (*model.Launch, error) {
	fw, launch, err := r.pad.Checkout(ctx, r.worker, launchDir, fwID)
	if err != nil {
		return nil, fmt.Errorf("rocket: %w", err)
	}
	if fw == nil {
		return nil, ErrNoReadyFirework
	}

	action, runErr := r.runTasks(ctx, fw)
	finalState := model.StateCompleted
	if runErr != nil {
		finalState = model.StateFizzled
		action = &model.Action{
			StoredData: spec.Dict{"_exception": spec.String(runErr.Error())},
		}
	}

	if err := r.pad.CompleteLaunch(ctx, launch.ID, action, finalState); err != nil {
		return nil, fmt.Errorf("rocket: %w", err)
	}
	return r.pad.GetLaunch(ctx, launch.ID)
}

// runTasks resolves and executes the firework's task sequence,
// threading spec mutations forward so later tasks observe earlier
// updates, and merging the actions.
func (r *Rocket) runTasks(ctx context.Context, fw *model.Firework) (*model.Action, error) {
	merged := &model.Action{}
	working := fw.Spec.Clone()

	for i, def := range fw.Tasks {
		t, err := r.registry.Resolve(def.Type)
		if err != nil {
			return nil, fmt.Errorf("task[%d]: %w", i, err)
		}
		params := def.Params
		if params == nil {
			params = spec.Dict{}
		}

		action, err := t.Run(ctx, working, params)
		if err != nil {
			return nil, fmt.Errorf("task[%d] %s: %w", i, def.Type, err)
		}
		if action == nil {
			continue
		}

		if len(action.UpdateSpec) > 0 {
			working.Merge(action.UpdateSpec.Clone())
		}
		for _, key := range action.PushSpec.SortedKeys() {
			if err := working.Push(key, action.PushSpec[key]); err != nil {
				working[key] = spec.List{action.PushSpec[key]}
			}
		}
		merged.Merge(action)

		if action.DefuseWorkflow {
			break
		}
	}
	return merged, nil
}
