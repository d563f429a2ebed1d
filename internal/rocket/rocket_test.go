package rocket

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparkpad/internal/launchpad"
	"github.com/roach88/sparkpad/internal/model"
	"github.com/roach88/sparkpad/internal/spec"
	"github.com/roach88/sparkpad/internal/store"
	"github.com/roach88/sparkpad/internal/task"
)

func newTestRocket(t *testing.T) (*Rocket, *launchpad.LaunchPad) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "pad.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	pad := launchpad.New(st)
	return New(pad, task.NewRegistry(), launchpad.Worker{Name: "test", Host: "local"}), pad
}

func submitChain(t *testing.T, pad *launchpad.LaunchPad, tasks ...model.TaskDef) []int64 {
	t.Helper()

	a := model.NewFirework(-1, "a", spec.Dict{
		"x": spec.Int(1),
		"y": spec.Int(2),
	}, tasks...)
	b := model.NewFirework(-2, "b", nil)
	wf := model.NewWorkflow("chain", []*model.Firework{a, b},
		map[int64][]int64{-1: {-2}}, nil)

	oldNew, err := pad.AddWorkflow(context.Background(), wf, []*model.Firework{a, b})
	require.NoError(t, err)
	return []int64{oldNew[-1], oldNew[-2]}
}

func TestLaunch_RunsTasksAndCompletes(t *testing.T) {
	rkt, pad := newTestRocket(t)
	ids := submitChain(t, pad, model.TaskDef{
		Type: "merge",
		Params: spec.Dict{
			"inputs":  spec.List{spec.String("x"), spec.String("y")},
			"outputs": spec.String("merged"),
		},
	})

	launch, err := rkt.Launch(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, launch.State)
	assert.Equal(t, ids[0], launch.FWID)

	a, err := pad.GetFirework(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, a.State)
	want := spec.Dict{"x": spec.Int(1), "y": spec.Int(2)}
	assert.True(t, spec.Equal(want, a.Spec["merged"]))

	// Downstream node is released and carries the merged output.
	b, err := pad.GetFirework(context.Background(), ids[1])
	require.NoError(t, err)
	assert.Equal(t, model.StateReady, b.State)
	assert.True(t, spec.Equal(want, b.Spec["merged"]))
}

func TestLaunch_TaskErrorFizzles(t *testing.T) {
	rkt, pad := newTestRocket(t)
	ids := submitChain(t, pad, model.TaskDef{
		Type: "merge",
		Params: spec.Dict{
			"inputs":  spec.List{spec.String("missing")},
			"outputs": spec.String("out"),
		},
	})

	launch, err := rkt.Launch(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, model.StateFizzled, launch.State)

	a, err := pad.GetFirework(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, model.StateFizzled, a.State)
	stored, ok := a.Spec["_stored_data"].(spec.Dict)
	require.True(t, ok)
	assert.NotEmpty(t, stored.GetString("_exception"))

	// The failure defuses everything downstream.
	b, err := pad.GetFirework(context.Background(), ids[1])
	require.NoError(t, err)
	assert.Equal(t, model.StateDefused, b.State)
}

func TestLaunch_UnknownTaskFizzles(t *testing.T) {
	rkt, pad := newTestRocket(t)
	ids := submitChain(t, pad, model.TaskDef{Type: "teleport"})

	launch, err := rkt.Launch(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, model.StateFizzled, launch.State)

	a, err := pad.GetFirework(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, model.StateFizzled, a.State)
}

func TestLaunch_SplitInsertsDetours(t *testing.T) {
	rkt, pad := newTestRocket(t)

	a := model.NewFirework(-1, "fan-out", spec.Dict{
		"chunks": spec.List{spec.Int(1), spec.Int(2), spec.Int(3)},
	}, model.TaskDef{
		Type:   "split",
		Params: spec.Dict{"inputs": spec.String("chunks")},
	})
	wf := model.NewWorkflow("fan", []*model.Firework{a}, nil, nil)
	oldNew, err := pad.AddWorkflow(context.Background(), wf, []*model.Firework{a})
	require.NoError(t, err)

	launch, err := rkt.Launch(context.Background(), "", 0)
	require.NoError(t, err)
	require.Equal(t, model.StateCompleted, launch.State)

	// Three detours joined the workflow, all READY under the
	// completed fan-out node.
	gotWF, members, err := pad.GetWorkflowByFirework(context.Background(), oldNew[-1], 0)
	require.NoError(t, err)
	assert.Len(t, members, 4)
	ready := 0
	for _, m := range members {
		if m.State == model.StateReady {
			ready++
			assert.Equal(t, []int64{oldNew[-1]}, gotWF.ParentsOf(m.ID))
		}
	}
	assert.Equal(t, 3, ready)
}

func TestLaunch_NothingRunnable(t *testing.T) {
	rkt, _ := newTestRocket(t)

	_, err := rkt.Launch(context.Background(), "", 0)
	assert.ErrorIs(t, err, ErrNoReadyFirework)
}
